package validator

import (
	"context"
	"net"
	"sync/atomic"

	"mailprobe/internal/lookup"
	"mailprobe/internal/models"
)

// fakeResolver answers from fixed maps. Unknown names are NXDOMAIN.
type fakeResolver struct {
	mx    map[string][]*net.MX
	mxErr map[string]error
	txt   map[string][]string
	hosts map[string][]string

	mxCalls    atomic.Int32
	otherCalls atomic.Int32
}

func notFound(name string) error {
	return &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (f *fakeResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	f.mxCalls.Add(1)
	if err, ok := f.mxErr[domain]; ok {
		return nil, err
	}
	if recs, ok := f.mx[domain]; ok {
		return recs, nil
	}
	return nil, lookup.ErrDomainNotFound
}

func (f *fakeResolver) LookupTXT(_ context.Context, name string) ([]string, error) {
	f.otherCalls.Add(1)
	if t, ok := f.txt[name]; ok {
		return t, nil
	}
	return nil, notFound(name)
}

func (f *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	f.otherCalls.Add(1)
	if h, ok := f.hosts[host]; ok {
		return h, nil
	}
	return nil, notFound(host)
}

// newWorldResolver knows a handful of domains used across the tests.
func newWorldResolver() *fakeResolver {
	google := []*net.MX{
		{Host: "aspmx.l.google.com.", Pref: 1},
		{Host: "alt1.aspmx.l.google.com.", Pref: 5},
	}
	return &fakeResolver{
		mx: map[string][]*net.MX{
			"gmail.com": {
				{Host: "gmail-smtp-in.l.google.com.", Pref: 5},
				{Host: "alt1.gmail-smtp-in.l.google.com.", Pref: 10},
			},
			"acme.com":            google,
			"somecompany.com":     google,
			"10minutemail.com":    {{Host: "mx.10minutemail.com.", Pref: 10}},
			"widgets-example.com": {{Host: "mx.hosting-example.net.", Pref: 20}},
			"y.com":               {{Host: "mx.y.com.", Pref: 10}},
		},
		mxErr: map[string]error{
			"nomx.example": lookup.ErrNoMXRecords,
		},
		txt: map[string][]string{
			"acme.com":        {"v=spf1 include:_spf.google.com ~all"},
			"_dmarc.acme.com": {"v=DMARC1; p=reject"},
		},
		hosts: map[string][]string{
			"acme.com": {"192.0.2.10"},
		},
	}
}

// fakeProber returns a canned result and counts calls.
type fakeProber struct {
	result models.ProbeResult
	panics bool
	calls  atomic.Int32
}

func (p *fakeProber) Probe(_ context.Context, _ string, records []models.MxRecord) models.ProbeResult {
	p.calls.Add(1)
	if p.panics {
		panic("prober exploded")
	}
	res := p.result
	if len(records) > 0 {
		res.Exchange = records[0].Exchange
	}
	return res
}

func proberSaying(verdict models.ProbeVerdict, code int) *fakeProber {
	_, confidence := lookup.ClassifyRCPT(code)
	return &fakeProber{result: models.ProbeResult{Verdict: verdict, Code: code, Confidence: confidence}}
}

// explodingResolver panics on the selected lookup and defers to the
// wrapped resolver otherwise.
type explodingResolver struct {
	*fakeResolver
	onMX, onTXT bool
}

func (e explodingResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	if e.onMX {
		panic("resolver exploded")
	}
	return e.fakeResolver.LookupMX(ctx, domain)
}

func (e explodingResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if e.onTXT {
		panic("resolver exploded")
	}
	return e.fakeResolver.LookupTXT(ctx, name)
}

// explodingSource panics while loading the disposable list.
type explodingSource struct{}

func (explodingSource) Name() string { return "exploding" }

func (explodingSource) Load(context.Context) ([]string, error) {
	panic("disposable source exploded")
}
