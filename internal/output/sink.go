// Package output writes resolution results to the single shared output file.
package output

import (
	"bufio"
	"io"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// Record is one resolved hostname. Address is empty when resolution failed.
type Record struct {
	Hostname string
	Address  string
}

// String formats the record as it appears in the output file, without the
// trailing newline.
func (r Record) String() string {
	return r.Hostname + "," + r.Address
}

// Sink serializes records from many goroutines into one writer. Each record
// is written as a whole line under the sink lock, so lines from different
// writers never interleave. No ordering is kept across writers.
type Sink struct {
	mu      sync.Mutex // protects w
	w       *bufio.Writer
	c       io.Closer
	written atomic.Int64
}

// NewSink returns a Sink writing to wc. The sink owns wc and closes it in Close.
func NewSink(wc io.WriteCloser) *Sink {
	return &Sink{
		w: bufio.NewWriter(wc),
		c: wc,
	}
}

// Write appends r followed by a newline.
func (s *Sink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.WriteString(r.Hostname); err != nil {
		return err
	}
	if err := s.w.WriteByte(','); err != nil {
		return err
	}
	if _, err := s.w.WriteString(r.Address); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	s.written.Inc()
	return nil
}

// Written returns the number of records accepted so far.
func (s *Sink) Written() int64 { return s.written.Load() }

// Close flushes buffered records and closes the underlying writer.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return multierr.Combine(s.w.Flush(), s.c.Close())
}
