package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrDomainNotFound means the resolver reported NXDOMAIN.
	ErrDomainNotFound = errors.New("domain does not exist")
	// ErrNoMXRecords means the domain exists but publishes no MX records.
	ErrNoMXRecords = errors.New("no MX records found")
)

// Resolver is the DNS surface the pipeline needs. Implementations translate
// NXDOMAIN into ErrDomainNotFound and an empty MX answer into ErrNoMXRecords.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// SystemResolver wraps the host resolver with a strict per-query dial timeout.
type SystemResolver struct {
	r *net.Resolver
}

// NewSystemResolver builds a resolver that fails fast on slow DNS servers.
func NewSystemResolver(timeout time.Duration) *SystemResolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return newSystemResolver(func(ctx context.Context, network, address string) (net.Conn, error) {
		d := net.Dialer{Timeout: timeout}
		return d.DialContext(ctx, network, address)
	})
}

func newSystemResolver(dial func(ctx context.Context, network, address string) (net.Conn, error)) *SystemResolver {
	return &SystemResolver{
		r: &net.Resolver{PreferGo: true, Dial: dial},
	}
}

func (s *SystemResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	mxRecords, err := s.r.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			// The Go resolver reports NODATA and NXDOMAIN the same way, so
			// any other record for the name proves it exists.
			if s.nameExists(ctx, domain) {
				return nil, ErrNoMXRecords
			}
			return nil, ErrDomainNotFound
		}
		return nil, fmt.Errorf("DNS lookup failed: %w", err)
	}
	if len(mxRecords) == 0 {
		return nil, ErrNoMXRecords
	}
	return mxRecords, nil
}

// nameExists reports whether domain has NS or address records. Hosts
// below a zone apex usually have no NS of their own.
func (s *SystemResolver) nameExists(ctx context.Context, domain string) bool {
	if ns, err := s.r.LookupNS(ctx, domain); err == nil && len(ns) > 0 {
		return true
	}
	addrs, err := s.r.LookupHost(ctx, domain)
	return err == nil && len(addrs) > 0
}

func (s *SystemResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return s.r.LookupTXT(ctx, name)
}

func (s *SystemResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return s.r.LookupHost(ctx, host)
}
