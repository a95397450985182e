package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
)

// Manager hands out proxies in round-robin order.
type Manager struct {
	proxies []*url.URL
	counter uint64
}

// NewManager parses the proxy list. Empty entries are ignored.
func NewManager(proxyList []string) (*Manager, error) {
	var parsed []*url.URL

	for _, p := range proxyList {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL '%s': %w", p, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL '%s': scheme and host are required", p)
		}
		parsed = append(parsed, u)
	}

	return &Manager{proxies: parsed}, nil
}

func (m *Manager) Next() *url.URL {
	if m == nil || len(m.proxies) == 0 {
		return nil
	}
	n := atomic.AddUint64(&m.counter, 1)
	return m.proxies[(n-1)%uint64(len(m.proxies))]
}

// Enabled reports whether at least one proxy is configured.
func (m *Manager) Enabled() bool {
	return m != nil && len(m.proxies) > 0
}

// Len returns the number of configured proxies.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.proxies)
}
