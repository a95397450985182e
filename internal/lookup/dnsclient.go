package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// DNSClient queries explicit nameservers directly, which lets it tell
// NXDOMAIN apart from an empty answer without a second lookup.
type DNSClient struct {
	servers []string
	client  *mdns.Client
}

// NewDNSClient builds a client for the given nameservers. Entries without a
// port get :53.
func NewDNSClient(servers []string, timeout time.Duration) (*DNSClient, error) {
	if len(servers) == 0 {
		return nil, errors.New("dns client: no nameservers configured")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	normalized := make([]string, 0, len(servers))
	for _, s := range servers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		normalized = append(normalized, s)
	}
	if len(normalized) == 0 {
		return nil, errors.New("dns client: no usable nameservers")
	}
	return &DNSClient{
		servers: normalized,
		client:  &mdns.Client{Timeout: timeout},
	}, nil
}

// exchange tries each nameserver in order until one answers.
func (c *DNSClient) exchange(ctx context.Context, name string, qtype uint16) (*mdns.Msg, error) {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range c.servers {
		in, _, err := c.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		switch in.Rcode {
		case mdns.RcodeSuccess:
			return in, nil
		case mdns.RcodeNameError:
			return nil, ErrDomainNotFound
		default:
			lastErr = fmt.Errorf("%s query for %s returned %s", mdns.TypeToString[qtype], name, mdns.RcodeToString[in.Rcode])
		}
	}
	return nil, fmt.Errorf("DNS lookup failed: %w", lastErr)
}

func (c *DNSClient) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	in, err := c.exchange(ctx, domain, mdns.TypeMX)
	if err != nil {
		return nil, err
	}
	var out []*net.MX
	for _, rr := range in.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			out = append(out, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMXRecords
	}
	return out, nil
}

func (c *DNSClient) LookupTXT(ctx context.Context, name string) ([]string, error) {
	in, err := c.exchange(ctx, name, mdns.TypeTXT)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rr := range in.Answer {
		if txt, ok := rr.(*mdns.TXT); ok {
			out = append(out, strings.Join(txt.Txt, ""))
		}
	}
	return out, nil
}

func (c *DNSClient) LookupHost(ctx context.Context, host string) ([]string, error) {
	var out []string
	for _, qtype := range []uint16{mdns.TypeA, mdns.TypeAAAA} {
		in, err := c.exchange(ctx, host, qtype)
		if err != nil {
			if errors.Is(err, ErrDomainNotFound) {
				return nil, err
			}
			continue
		}
		for _, rr := range in.Answer {
			switch v := rr.(type) {
			case *mdns.A:
				out = append(out, v.A.String())
			case *mdns.AAAA:
				out = append(out, v.AAAA.String())
			}
		}
	}
	if len(out) == 0 {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return out, nil
}
