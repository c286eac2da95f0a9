package dnsresolver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// System resolves hostnames with the operating system's resolver
// configuration, including the hosts file.
type System struct {
	Resolver *net.Resolver
	Timeout  time.Duration
}

// NewSystem returns a System using net.DefaultResolver. A zero timeout
// leaves lookups bounded only by the caller's context.
func NewSystem(timeout time.Duration) *System {
	return &System{
		Resolver: net.DefaultResolver,
		Timeout:  timeout,
	}
}

// Resolve returns the first address the system resolver reports for hostname.
func (s *System) Resolve(ctx context.Context, hostname string) (string, error) {
	if strings.TrimSpace(hostname) == "" {
		return "", ErrEmptyHostname
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	addrs, err := s.Resolver.LookupHost(ctx, hostname)
	if err != nil {
		return "", fmt.Errorf("system lookup for %q: %w", hostname, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("system lookup for %q: %w", hostname, ErrNoRecords)
	}
	return addrs[0], nil
}
