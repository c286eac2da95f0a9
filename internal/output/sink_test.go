package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
func (failingWriter) Close() error              { return nil }

type SinkTestSuite struct {
	suite.Suite
	buf  *bufCloser
	sink *Sink
}

func (s *SinkTestSuite) SetupTest() {
	s.buf = &bufCloser{}
	s.sink = NewSink(s.buf)
}

func (s *SinkTestSuite) TestRecordString() {
	s.Equal("alpha.example,192.0.2.1", Record{Hostname: "alpha.example", Address: "192.0.2.1"}.String())
	s.Equal("beta.example,", Record{Hostname: "beta.example"}.String())
}

func (s *SinkTestSuite) TestWriteAndClose() {
	s.Require().NoError(s.sink.Write(Record{Hostname: "alpha.example", Address: "192.0.2.1"}))
	s.Require().NoError(s.sink.Write(Record{Hostname: "beta.example"}))
	s.Require().NoError(s.sink.Close())

	s.True(s.buf.closed)
	s.Equal("alpha.example,192.0.2.1\nbeta.example,\n", s.buf.String())
	s.EqualValues(2, s.sink.Written())
}

func (s *SinkTestSuite) TestConcurrentWritesStayWhole() {
	const (
		writers   = 8
		perWriter = 500
	)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				host := fmt.Sprintf("host-%d-%d.example", w, i)
				s.NoError(s.sink.Write(Record{Hostname: host, Address: "2001:db8::" + fmt.Sprint(i)}))
			}
		}(w)
	}
	wg.Wait()
	s.Require().NoError(s.sink.Close())

	lines := strings.Split(strings.TrimSuffix(s.buf.String(), "\n"), "\n")
	s.Len(lines, writers*perWriter)
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		host, addr, ok := strings.Cut(line, ",")
		s.Require().True(ok, "malformed line %q", line)
		s.True(strings.HasPrefix(host, "host-"), "malformed host in %q", line)
		s.True(strings.HasPrefix(addr, "2001:db8::"), "malformed address in %q", line)
		s.False(seen[host], "duplicate line %q", line)
		seen[host] = true
	}
}

func (s *SinkTestSuite) TestCloseReportsFlushError() {
	sink := NewSink(failingWriter{})
	s.Require().NoError(sink.Write(Record{Hostname: "alpha.example"}))
	s.ErrorContains(sink.Close(), "disk full")
}

func TestSinkSuite(t *testing.T) {
	suite.Run(t, new(SinkTestSuite))
}
