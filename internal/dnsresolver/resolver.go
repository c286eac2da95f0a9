// Package dnsresolver turns hostnames into address strings.
// It offers a system resolver backed by net.Resolver and a direct client
// that queries A and AAAA records concurrently over miekg/dns.
package dnsresolver

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoRecords is returned when no address records are found for a hostname.
	ErrNoRecords = fmt.Errorf("no records found")
	// ErrEmptyMsg is returned when the DNS response message is empty.
	ErrEmptyMsg = fmt.Errorf("empty message")
	// ErrEmptyHostname is returned when an empty hostname is provided.
	ErrEmptyHostname = fmt.Errorf("empty hostname")
)

// DefaultServer is queried by Client when no servers are configured.
const DefaultServer = "1.1.1.1:53"

var (
	_ Resolver = (*Client)(nil)
	_ Resolver = (*System)(nil)
)

// Resolver resolves a hostname to the first address it finds, in textual
// form. Either IPv4 or IPv6 may be returned.
type Resolver interface {
	Resolve(ctx context.Context, hostname string) (string, error)
}

// Exchanger defines the interface for DNS message exchange.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Client resolves hostnames by querying DNS servers directly.
type Client struct {
	Client  Exchanger
	Timeout time.Duration
	Servers []string
}

// Opt is a function option for configuring the Client.
type Opt func(r *Client)

// New creates a new Client with the given timeout and optional configurations.
func New(timeout time.Duration, opts ...Opt) *Client {
	res := &Client{
		Client: &dns.Client{
			Timeout: timeout,
		},
		Timeout: timeout,
	}

	for _, o := range opts {
		o(res)
	}

	return res
}

// WithServers returns an option to set the DNS servers to query, as host:port.
// If not provided, DefaultServer is used.
func WithServers(servers []string) Opt {
	return func(r *Client) {
		r.Servers = servers
	}
}

// WithTimeout returns an option to set a custom timeout for DNS queries.
// This overrides the timeout provided to New.
func WithTimeout(timeout time.Duration) Opt {
	return func(r *Client) {
		r.Timeout = timeout
	}
}

// Resolve returns the first address of hostname. IPv4 answers come
// before IPv6 answers.
func (r *Client) Resolve(ctx context.Context, hostname string) (string, error) {
	addrs, err := r.LookupHost(ctx, hostname)
	if err != nil {
		return "", err
	}
	return addrs[0].IP.String(), nil
}

// LookupHost resolves a hostname to a slice of IP addresses, IPv4 first.
// If the hostname is already an IP address, it returns it directly.
// Returns an error if the hostname is empty or if both lookups fail.
func (r *Client) LookupHost(ctx context.Context, hostname string) ([]net.IPAddr, error) {
	// ensure we have a hostname
	if strings.TrimSpace(hostname) == "" {
		return nil, ErrEmptyHostname
	}

	// if hostname is an IP, return it as is.
	if ip := net.ParseIP(hostname); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	return r.lookupIPs(ctx, hostname)
}

// lookupIPs resolves A and AAAA records concurrently.
// It returns every address that succeeded, or an aggregated
// error if *both* queries fail.
func (r *Client) lookupIPs(ctx context.Context, host string) ([]net.IPAddr, error) {
	grp, ctx := errgroup.WithContext(ctx)

	var (
		mu     sync.Mutex
		v4, v6 []net.IPAddr
		errs   error
	)

	for _, qt := range [...]uint16{dns.TypeA, dns.TypeAAAA} {
		grp.Go(func() error {
			addrs, err := r.lookup(ctx, host, qt)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs = multierr.Append(errs, err) // collect but don’t cancel peer
				return nil
			}
			if qt == dns.TypeA {
				v4 = addrs
			} else {
				v6 = addrs
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}

	ips := append(v4, v6...)
	if len(ips) == 0 {
		return nil, fmt.Errorf("dns lookup for %q: %w", host, errs)
	}
	return ips, nil
}

// lookup sends a single qtype query for host. Failed queries are not retried.
func (r *Client) lookup(ctx context.Context, host string, qtype uint16) ([]net.IPAddr, error) {
	req := &dns.Msg{}
	req.SetQuestion(dns.Fqdn(host), qtype)

	resp, _, err := r.Client.ExchangeContext(ctx, req, r.getServer())
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrEmptyMsg
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: %s %s", ErrNoRecords, dns.TypeToString[qtype], dns.RcodeToString[resp.Rcode])
	}
	return parseIPs(resp)
}

// parseIPs parses the DNS response and returns a slice of IPv4 & v6 addresses.
func parseIPs(resp *dns.Msg) ([]net.IPAddr, error) {
	if resp == nil {
		return nil, ErrEmptyMsg
	}

	var ips []net.IPAddr
	for _, r := range resp.Answer {
		switch record := r.(type) {
		case *dns.A:
			ips = append(ips, net.IPAddr{IP: record.A})
		case *dns.AAAA:
			ips = append(ips, net.IPAddr{IP: record.AAAA})
		}
	}

	if len(ips) == 0 {
		return nil, ErrNoRecords
	}

	return ips, nil
}

// getServer returns a random server from the configured list.
func (r *Client) getServer() string {
	if len(r.Servers) == 0 {
		return DefaultServer
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(r.Servers))))
	if err != nil {
		return r.Servers[0]
	}

	return r.Servers[n.Int64()]
}
