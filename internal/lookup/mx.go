package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"mailprobe/internal/models"
)

// Provider names produced by IdentifyProvider.
const (
	ProviderGoogle     = "google_workspace"
	ProviderMicrosoft  = "microsoft_365"
	ProviderZoho       = "zoho"
	ProviderYahoo      = "yahoo"
	ProviderICloud     = "icloud"
	ProviderProton     = "proton"
	ProviderFastmail   = "fastmail"
	ProviderGateway    = "security_gateway"
	ProviderSelfHosted = "self_hosted"
	ProviderUnknown    = "unknown"
)

var providerFingerprints = []struct {
	provider string
	markers  []string
}{
	{ProviderGoogle, []string{"google.com", "googlemail.com"}},
	{ProviderMicrosoft, []string{"outlook.com", "hotmail.com"}},
	{ProviderZoho, []string{"zoho.com", "zoho.eu", "zohomail.com"}},
	{ProviderYahoo, []string{"yahoodns.net", "yahoo.com"}},
	{ProviderICloud, []string{"icloud.com", "me.com"}},
	{ProviderProton, []string{"protonmail.ch", "proton.me"}},
	{ProviderFastmail, []string{"messagingengine.com", "fastmail.com"}},
	// Enterprise security gateways are deployed by real organisations only.
	{ProviderGateway, []string{"pphosted.com", "mimecast.com", "barracudanetworks.com", "iphmx.com", "messagelabs.com"}},
}

// ResolveMX resolves, cleans and stably sorts MX records by ascending
// priority. Ties keep resolver order.
func ResolveMX(ctx context.Context, r Resolver, domain string) ([]models.MxRecord, error) {
	mxRecords, err := r.LookupMX(ctx, domain)
	if err != nil {
		return nil, err
	}

	records := make([]models.MxRecord, 0, len(mxRecords))
	nullMX := false
	for _, mx := range mxRecords {
		host := strings.TrimSuffix(strings.ToLower(mx.Host), ".")
		if host == "" {
			nullMX = true
			continue
		}
		records = append(records, models.MxRecord{Exchange: host, Priority: mx.Pref})
	}
	if len(records) == 0 {
		if nullMX {
			return nil, errNullMX
		}
		return nil, ErrNoMXRecords
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Priority < records[j].Priority })
	return records, nil
}

var errNullMX = errors.New("domain does not accept email (null MX)")

// CheckMX turns an MX resolution into the mx stage result.
func CheckMX(domain string, records []models.MxRecord, err error) models.CheckResult {
	switch {
	case err == nil && len(records) > 0:
		res := models.Pass(fmt.Sprintf("Found %d MX record(s)", len(records)))
		res.Records = records
		res.Provider = IdentifyProvider(records, domain)
		return res
	case err == nil, errors.Is(err, ErrNoMXRecords):
		return models.Fail("No MX records found")
	case errors.Is(err, ErrDomainNotFound):
		return models.Fail("Domain does not exist")
	case errors.Is(err, errNullMX):
		return models.Fail("Domain does not accept email (null MX)")
	default:
		return models.Fail(fmt.Sprintf("MX lookup failed: %v", err))
	}
}

// GmailMXResult is the fast-path mx result for Gmail domains.
func GmailMXResult() models.CheckResult {
	return models.Pass("Gmail address: MX records are known to be valid")
}

// IdentifyProvider fingerprints the mail host from exchange hostnames.
// domain may be empty, in which case self-hosting cannot be detected.
func IdentifyProvider(records []models.MxRecord, domain string) string {
	for _, mx := range records {
		for _, fp := range providerFingerprints {
			for _, marker := range fp.markers {
				if hostUnder(mx.Exchange, marker) {
					return fp.provider
				}
			}
		}
	}
	if domain != "" {
		for _, mx := range records {
			if hostUnder(mx.Exchange, domain) {
				return ProviderSelfHosted
			}
		}
	}
	return ProviderUnknown
}

// hostUnder reports whether host equals zone or is a subdomain of it.
func hostUnder(host, zone string) bool {
	host = strings.ToLower(host)
	zone = strings.ToLower(zone)
	return host == zone || strings.HasSuffix(host, "."+zone)
}

// IsRecognizedProvider reports whether the provider is a large hosted platform.
func IsRecognizedProvider(provider string) bool {
	return provider != ProviderSelfHosted && provider != ProviderUnknown && provider != ""
}

// MXProfile is what the heuristic scorer consumes.
type MXProfile struct {
	Records      []models.MxRecord
	Provider     string
	HasBackup    bool
	GoodPriority bool
	Parked       bool
}

// AnalyzeMX classifies a sorted MX set.
func AnalyzeMX(records []models.MxRecord, domain string) MXProfile {
	p := MXProfile{
		Records:  records,
		Provider: IdentifyProvider(records, domain),
	}
	if len(records) == 0 {
		return p
	}
	p.HasBackup = len(records) > 1
	p.GoodPriority = records[0].Priority <= 10
	for _, mx := range records {
		if IsParkedDomain(mx.Exchange) {
			p.Parked = true
			break
		}
	}
	return p
}
