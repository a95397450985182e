package proxy

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	netproxy "golang.org/x/net/proxy"
)

// Dialer routes SMTP connections through the next proxy from a Manager, or
// dials directly when none are configured.
type Dialer struct {
	manager *Manager
	direct  *net.Dialer
	logger  *zap.Logger
}

func NewDialer(m *Manager, timeout time.Duration, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{
		manager: m,
		direct:  &net.Dialer{Timeout: timeout},
		logger:  logger,
	}
}

func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	pURL := d.manager.Next()
	if pURL == nil {
		return d.direct.DialContext(ctx, network, addr)
	}

	// Resolve locally so the proxy never sees the MX hostname and IPv4 is
	// preferred; many SOCKS exits have no IPv6 route.
	host, port, err := net.SplitHostPort(addr)
	if err == nil && net.ParseIP(host) == nil {
		ips, lookupErr := net.DefaultResolver.LookupIPAddr(ctx, host)
		if lookupErr == nil && len(ips) > 0 {
			resolved := ips[0].IP.String()
			for _, ip := range ips {
				if ip.IP.To4() != nil {
					resolved = ip.IP.String()
					break
				}
			}
			addr = net.JoinHostPort(resolved, port)
		}
	}

	pdialer, err := netproxy.FromURL(pURL, d.direct)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", pURL.Host, err)
	}

	start := time.Now()
	var conn net.Conn
	if cdialer, ok := pdialer.(netproxy.ContextDialer); ok {
		conn, err = cdialer.DialContext(ctx, network, addr)
	} else {
		conn, err = pdialer.Dial(network, addr)
	}
	if err != nil {
		d.logger.Debug("Proxy dial failed",
			zap.String("proxy", pURL.Host),
			zap.String("addr", addr),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	d.logger.Debug("Proxy dial succeeded",
		zap.String("proxy", pURL.Host),
		zap.String("addr", addr),
		zap.Duration("elapsed", time.Since(start)))
	return conn, nil
}
