package lookup

import (
	"context"
	"strings"
)

// Selectors probed for a DKIM key. Selector names are not discoverable, so
// this is the set the big senders use.
var DefaultDKIMSelectors = []string{
	"default", "google", "selector1", "selector2", "k1", "s1", "s2", "mail", "dkim", "smtp",
}

// CheckSPF looks for a valid SPF record in TXT entries.
func CheckSPF(ctx context.Context, r Resolver, domain string) bool {
	txts, err := r.LookupTXT(ctx, domain)
	if err != nil {
		return false
	}
	for _, txt := range txts {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(txt)), "v=spf1") {
			return true
		}
	}
	return false
}

// CheckDMARC looks for a DMARC policy record.
// Presence of DMARC implies active IT management.
func CheckDMARC(ctx context.Context, r Resolver, domain string) bool {
	txts, err := r.LookupTXT(ctx, "_dmarc."+domain)
	if err != nil {
		return false
	}
	for _, txt := range txts {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(txt)), "V=DMARC1") {
			return true
		}
	}
	return false
}

// CheckDKIM reports whether any of the selectors publishes a DKIM key.
// It stops at the first hit or when ctx is done.
func CheckDKIM(ctx context.Context, r Resolver, domain string, selectors []string) bool {
	if len(selectors) == 0 {
		selectors = DefaultDKIMSelectors
	}
	for _, sel := range selectors {
		if ctx.Err() != nil {
			return false
		}
		txts, err := r.LookupTXT(ctx, sel+"._domainkey."+domain)
		if err != nil {
			continue
		}
		for _, txt := range txts {
			lower := strings.ToLower(txt)
			if strings.Contains(lower, "v=dkim1") || strings.Contains(lower, "p=") {
				return true
			}
		}
	}
	return false
}

// HasAddressRecords reports whether the domain resolves to A or AAAA records.
func HasAddressRecords(ctx context.Context, r Resolver, domain string) bool {
	addrs, err := r.LookupHost(ctx, domain)
	return err == nil && len(addrs) > 0
}
