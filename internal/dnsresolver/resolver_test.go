package dnsresolver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) ExchangeContext(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
	args := m.Called(ctx, msg, addr)
	if resp := args.Get(0); resp != nil {
		return resp.(*dns.Msg), args.Get(1).(time.Duration), args.Error(2)
	}
	return nil, args.Get(1).(time.Duration), args.Error(2)
}

func answer(host string, qtype uint16, ips ...string) *dns.Msg {
	resp := new(dns.Msg)
	hdr := dns.RR_Header{Name: dns.Fqdn(host), Rrtype: qtype, Class: dns.ClassINET, Ttl: 60}
	for _, ip := range ips {
		switch qtype {
		case dns.TypeA:
			resp.Answer = append(resp.Answer, &dns.A{Hdr: hdr, A: net.ParseIP(ip)})
		case dns.TypeAAAA:
			resp.Answer = append(resp.Answer, &dns.AAAA{Hdr: hdr, AAAA: net.ParseIP(ip)})
		}
	}
	return resp
}

func queryType(qtype uint16) interface{} {
	return mock.MatchedBy(func(msg *dns.Msg) bool {
		return len(msg.Question) > 0 && msg.Question[0].Qtype == qtype
	})
}

type ResolverTestSuite struct {
	suite.Suite
	resolver *Client
	client   *mockClient
}

func (s *ResolverTestSuite) SetupTest() {
	s.client = new(mockClient)
	s.resolver = New(5 * time.Second)
	s.resolver.Client = s.client
}

func (s *ResolverTestSuite) TestNew() {
	s.Run("timeout only", func() {
		c := New(2 * time.Second)
		s.Equal(2*time.Second, c.Timeout)
		s.Empty(c.Servers)
		s.IsType(&dns.Client{}, c.Client)
	})
	s.Run("servers", func() {
		c := New(time.Second, WithServers([]string{"9.9.9.9:53", "149.112.112.112:53"}))
		s.Equal([]string{"9.9.9.9:53", "149.112.112.112:53"}, c.Servers)
	})
	s.Run("timeout option overrides argument", func() {
		c := New(time.Second, WithTimeout(7*time.Second))
		s.Equal(7*time.Second, c.Timeout)
	})
}

func (s *ResolverTestSuite) TestLookupHost() {
	testCases := []struct {
		name        string
		hostname    string
		setupMock   func(*mockClient)
		expected    []string
		expectedErr error
	}{
		{
			name:        "blank hostname",
			hostname:    " \t",
			expectedErr: ErrEmptyHostname,
		},
		{
			name:     "ipv4 literal skips the network",
			hostname: "203.0.113.5",
			expected: []string{"203.0.113.5"},
		},
		{
			name:     "ipv4 answers come first",
			hostname: "www.example.org",
			setupMock: func(m *mockClient) {
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeAAAA), mock.Anything).
					Return(answer("www.example.org", dns.TypeAAAA, "2001:db8::a", "2001:db8::b"), time.Duration(0), nil)
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeA), mock.Anything).
					Return(answer("www.example.org", dns.TypeA, "192.0.2.1", "192.0.2.2"), time.Duration(0), nil)
			},
			expected: []string{"192.0.2.1", "192.0.2.2", "2001:db8::a", "2001:db8::b"},
		},
		{
			name:     "one family failing is not an error",
			hostname: "v4only.example.org",
			setupMock: func(m *mockClient) {
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeA), mock.Anything).
					Return(answer("v4only.example.org", dns.TypeA, "198.51.100.9"), time.Duration(0), nil)
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeAAAA), mock.Anything).
					Return(nil, time.Duration(0), errors.New("i/o timeout"))
			},
			expected: []string{"198.51.100.9"},
		},
		{
			name:     "both families empty",
			hostname: "nothing.example.org",
			setupMock: func(m *mockClient) {
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(new(dns.Msg), time.Duration(0), nil)
			},
			expectedErr: ErrNoRecords,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setupMock != nil {
				tc.setupMock(s.client)
			}

			addrs, err := s.resolver.LookupHost(context.Background(), tc.hostname)
			if tc.expectedErr != nil {
				s.ErrorIs(err, tc.expectedErr)
				return
			}
			s.Require().NoError(err)

			got := make([]string, len(addrs))
			for i, a := range addrs {
				got[i] = a.IP.String()
			}
			s.Equal(tc.expected, got)
			s.client.AssertExpectations(s.T())
		})
	}
}

func (s *ResolverTestSuite) TestResolve() {
	testCases := []struct {
		name        string
		hostname    string
		setupMock   func(*mockClient)
		expected    string
		expectedErr error
	}{
		{
			name:     "ipv4 preferred over ipv6",
			hostname: "alpha.example",
			setupMock: func(m *mockClient) {
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeA), mock.Anything).
					Return(answer("alpha.example", dns.TypeA, "192.0.2.10"), time.Duration(0), nil)
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeAAAA), mock.Anything).
					Return(answer("alpha.example", dns.TypeAAAA, "2001:db8::10"), time.Duration(0), nil)
			},
			expected: "192.0.2.10",
		},
		{
			name:     "ipv6 only",
			hostname: "beta.example",
			setupMock: func(m *mockClient) {
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeA), mock.Anything).
					Return(new(dns.Msg), time.Duration(0), nil)
				m.On("ExchangeContext", mock.Anything, queryType(dns.TypeAAAA), mock.Anything).
					Return(answer("beta.example", dns.TypeAAAA, "2001:db8::20"), time.Duration(0), nil)
			},
			expected: "2001:db8::20",
		},
		{
			name:     "nxdomain",
			hostname: "missing.example",
			setupMock: func(m *mockClient) {
				nx := new(dns.Msg)
				nx.Rcode = dns.RcodeNameError
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(nx, time.Duration(0), nil)
			},
			expectedErr: ErrNoRecords,
		},
		{
			name:     "nil response",
			hostname: "gamma.example",
			setupMock: func(m *mockClient) {
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, time.Duration(0), nil)
			},
			expectedErr: ErrEmptyMsg,
		},
		{
			name:     "ip literal",
			hostname: "2001:db8::1",
			expected: "2001:db8::1",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setupMock != nil {
				tc.setupMock(s.client)
			}

			addr, err := s.resolver.Resolve(context.Background(), tc.hostname)
			if tc.expectedErr != nil {
				s.ErrorIs(err, tc.expectedErr)
				s.Empty(addr)
				return
			}
			s.NoError(err)
			s.Equal(tc.expected, addr)
		})
	}
}

func (s *ResolverTestSuite) TestQueriesConfiguredServers() {
	servers := []string{"192.0.2.53:53", "192.0.2.54:53"}
	s.resolver.Servers = servers
	s.client.On("ExchangeContext", mock.Anything, mock.Anything, mock.MatchedBy(func(addr string) bool {
		return addr == servers[0] || addr == servers[1]
	})).Return(answer("ns.example.org", dns.TypeA, "192.0.2.77"), time.Duration(0), nil)

	addr, err := s.resolver.Resolve(context.Background(), "ns.example.org")

	s.Require().NoError(err)
	s.Equal("192.0.2.77", addr)
	s.client.AssertNumberOfCalls(s.T(), "ExchangeContext", 2)
}

func (s *ResolverTestSuite) TestLookupHostAppliesTimeout() {
	s.resolver.Timeout = 50 * time.Millisecond
	s.client.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, time.Duration(0), context.DeadlineExceeded)

	_, err := s.resolver.LookupHost(context.Background(), "slow.example.org")

	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *ResolverTestSuite) TestGetServer() {
	s.Run("default", func() {
		s.resolver.Servers = nil
		s.Equal(DefaultServer, s.resolver.getServer())
	})
	s.Run("single", func() {
		s.resolver.Servers = []string{"9.9.9.9:53"}
		s.Equal("9.9.9.9:53", s.resolver.getServer())
	})
	s.Run("random pick", func() {
		s.resolver.Servers = []string{"9.9.9.9:53", "149.112.112.112:53", "1.0.0.1:53"}
		for range 20 {
			s.Contains(s.resolver.Servers, s.resolver.getServer())
		}
	})
}

func (s *ResolverTestSuite) TestParseIPs() {
	mixed := answer("mixed.example.org", dns.TypeA, "192.0.2.3")
	mixed.Answer = append(mixed.Answer,
		answer("mixed.example.org", dns.TypeAAAA, "2001:db8::3").Answer[0],
		&dns.CNAME{Hdr: dns.RR_Header{Name: "mixed.example.org.", Rrtype: dns.TypeCNAME}, Target: "other.example.org."},
	)

	testCases := []struct {
		name        string
		response    *dns.Msg
		expected    []string
		expectedErr error
	}{
		{name: "nil message", expectedErr: ErrEmptyMsg},
		{name: "no answers", response: new(dns.Msg), expectedErr: ErrNoRecords},
		{name: "a records", response: answer("a.example.org", dns.TypeA, "192.0.2.1", "192.0.2.2"), expected: []string{"192.0.2.1", "192.0.2.2"}},
		{name: "aaaa record", response: answer("b.example.org", dns.TypeAAAA, "2001:db8::2"), expected: []string{"2001:db8::2"}},
		{name: "non-address records ignored", response: mixed, expected: []string{"192.0.2.3", "2001:db8::3"}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			ips, err := parseIPs(tc.response)
			if tc.expectedErr != nil {
				s.ErrorIs(err, tc.expectedErr)
				return
			}
			s.Require().NoError(err)

			got := make([]string, len(ips))
			for i, ip := range ips {
				got[i] = ip.IP.String()
			}
			s.Equal(tc.expected, got)
		})
	}
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

type SystemTestSuite struct {
	suite.Suite
}

func (s *SystemTestSuite) TestResolve() {
	offline := &net.Resolver{
		PreferGo: true,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("network disabled")
		},
	}

	testCases := []struct {
		name        string
		hostname    string
		expected    string
		expectedErr error
		expectErr   bool
	}{
		{
			name:        "empty hostname",
			hostname:    "  ",
			expectedErr: ErrEmptyHostname,
		},
		{
			name:     "ipv4 literal",
			hostname: "192.0.2.1",
			expected: "192.0.2.1",
		},
		{
			name:     "ipv6 literal",
			hostname: "2001:db8::1",
			expected: "2001:db8::1",
		},
		{
			name:      "unreachable resolver",
			hostname:  "alpha.invalid",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			res := &System{Resolver: offline, Timeout: time.Second}
			addr, err := res.Resolve(context.Background(), tc.hostname)
			switch {
			case tc.expectedErr != nil:
				s.ErrorIs(err, tc.expectedErr)
			case tc.expectErr:
				s.Error(err)
				s.Empty(addr)
			default:
				s.NoError(err)
				s.Equal(tc.expected, addr)
			}
		})
	}
}

func (s *SystemTestSuite) TestNewSystem() {
	res := NewSystem(3 * time.Second)
	s.Equal(net.DefaultResolver, res.Resolver)
	s.Equal(3*time.Second, res.Timeout)
}

func TestSystemSuite(t *testing.T) {
	suite.Run(t, new(SystemTestSuite))
}
