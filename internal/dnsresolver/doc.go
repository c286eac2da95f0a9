// Package dnsresolver provides the name-resolution step of multilookup.
//
// Both implementations satisfy Resolver, which reduces a lookup to the
// first address found, as a string:
//
//	var res dnsresolver.Resolver = dnsresolver.NewSystem(5 * time.Second)
//	addr, err := res.Resolve(ctx, "example.com")
//
// # System
//
// System delegates to net.Resolver and therefore honours the hosts file
// and the platform's resolver configuration. The first address returned
// by the platform wins, whatever its family.
//
// # Client
//
// Client talks to DNS servers directly using github.com/miekg/dns:
//
//	res := dnsresolver.New(
//		5*time.Second,
//		dnsresolver.WithServers([]string{"1.1.1.1:53", "8.8.8.8:53"}),
//	)
//
// A and AAAA queries are sent concurrently. IPv4 answers are placed before
// IPv6 answers, so Resolve prefers an IPv4 address when both exist. When
// both queries fail the errors are merged with go.uber.org/multierr. Each
// query is sent once and a server is picked at random per query.
//
// # Errors
//
//   - ErrEmptyHostname: blank hostname
//   - ErrNoRecords: no A or AAAA answers, or a non-success rcode
//   - ErrEmptyMsg: nil response from the exchanger
//
// Both resolvers are safe for concurrent use.
package dnsresolver
