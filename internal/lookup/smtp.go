package lookup

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mailprobe/internal/models"
)

// Dialer opens the TCP connection to a mail exchanger. *net.Dialer and the
// proxy package's Dialer both satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ProberConfig tunes the SMTP prober.
type ProberConfig struct {
	HeloHost       string
	MailFrom       string
	Port           int
	Timeout        time.Duration
	MaxConcurrent  int
	DetectCatchAll bool
}

// DefaultProberConfig matches the documented defaults.
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		HeloHost:      "mta1.mailprobe.local",
		MailFrom:      "probe@mailprobe.local",
		Port:          25,
		Timeout:       10 * time.Second,
		MaxConcurrent: 15,
	}
}

// SMTPProber asks the top-priority exchanger whether it would accept mail
// for an address, without ever sending DATA.
type SMTPProber struct {
	cfg    ProberConfig
	dialer Dialer
	// sem caps simultaneous sessions so the host IP is not throttled by
	// the big providers.
	sem    chan struct{}
	logger *zap.Logger
}

// NewSMTPProber builds a prober. A nil dialer dials directly.
func NewSMTPProber(cfg ProberConfig, dialer Dialer, logger *zap.Logger) *SMTPProber {
	def := DefaultProberConfig()
	if cfg.HeloHost == "" {
		cfg.HeloHost = def.HeloHost
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = def.MailFrom
	}
	if cfg.Port <= 0 {
		cfg.Port = def.Port
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if dialer == nil {
		dialer = &net.Dialer{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPProber{
		cfg:    cfg,
		dialer: dialer,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		logger: logger,
	}
}

// ClassifyRCPT maps an RCPT TO reply code to a verdict and confidence.
func ClassifyRCPT(code int) (models.ProbeVerdict, int) {
	switch {
	case code == 250 || code == 251:
		return models.VerdictExists, 95
	case code == 550:
		return models.VerdictNotExists, 90
	case code == 551 || code == 553:
		return models.VerdictRejected, 85
	case code == 450 || code == 451 || code == 452:
		return models.VerdictTemporary, 40
	case code == 421:
		return models.VerdictUnavailable, 20
	case code >= 500:
		return models.VerdictInconclusive, 60
	case code >= 400:
		return models.VerdictInconclusive, 30
	default:
		return models.VerdictInconclusive, 50
	}
}

// Probe runs HELO / MAIL FROM / RCPT TO against the first record. It never
// returns an error: every failure becomes a low-confidence result.
func (p *SMTPProber) Probe(ctx context.Context, email string, records []models.MxRecord) (res models.ProbeResult) {
	if len(records) == 0 {
		return models.ProbeResult{
			Verdict:    models.VerdictUnreachable,
			Confidence: 20,
			Error:      "no mail exchanger to probe",
		}
	}
	mxHost := records[0].Exchange
	res.Exchange = mxHost

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	defer func() { res.DurationMs = time.Since(start).Milliseconds() }()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return p.transportFailure(ctx, res, "waiting for SMTP slot", ctx.Err())
	}
	defer func() { <-p.sem }()

	addr := net.JoinHostPort(mxHost, strconv.Itoa(p.cfg.Port))
	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return p.transportFailure(ctx, res, "connection failed", err)
	}
	defer conn.Close()

	// A cancelled or expired ctx must unblock any pending read.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tp := textproto.NewConn(conn)
	defer tp.Close()

	if _, _, err := tp.ReadResponse(220); err != nil {
		return p.sessionFailure(ctx, res, "banner rejected", err)
	}
	if _, err := tp.Cmd("HELO %s", p.cfg.HeloHost); err != nil {
		return p.transportFailure(ctx, res, "HELO", err)
	}
	if _, _, err := tp.ReadResponse(250); err != nil {
		return p.sessionFailure(ctx, res, "HELO rejected", err)
	}
	if _, err := tp.Cmd("MAIL FROM:<%s>", p.cfg.MailFrom); err != nil {
		return p.transportFailure(ctx, res, "MAIL FROM", err)
	}
	if _, _, err := tp.ReadResponse(250); err != nil {
		return p.sessionFailure(ctx, res, "MAIL FROM rejected", err)
	}
	if _, err := tp.Cmd("RCPT TO:<%s>", email); err != nil {
		return p.transportFailure(ctx, res, "RCPT TO", err)
	}

	// Read any reply code; classification happens on the code itself.
	code, msg, err := tp.ReadResponse(0)
	if err != nil {
		return p.transportFailure(ctx, res, "reading RCPT reply", err)
	}
	res.Code = code
	res.Message = msg
	res.Verdict, res.Confidence = ClassifyRCPT(code)

	if res.Verdict == models.VerdictExists && p.cfg.DetectCatchAll {
		if _, domain, ok := SplitAddress(email); ok && p.acceptsAnyone(tp, domain) {
			res.CatchAll = true
			res.Verdict = models.VerdictCatchAll
			res.Confidence = 50
		}
	}

	_, _ = tp.Cmd("QUIT")

	p.logger.Debug("SMTP probe finished",
		zap.String("exchange", mxHost),
		zap.Int("code", code),
		zap.String("verdict", string(res.Verdict)))
	return res
}

// acceptsAnyone issues a second RCPT TO for an address that should not
// exist. A 2xx reply means the domain accepts every recipient.
func (p *SMTPProber) acceptsAnyone(tp *textproto.Conn, domain string) bool {
	ghost := ghostLocalPart() + "@" + domain
	if _, err := tp.Cmd("RCPT TO:<%s>", ghost); err != nil {
		return false
	}
	code, _, err := tp.ReadResponse(0)
	return err == nil && (code == 250 || code == 251)
}

// sessionFailure handles a rejected reply before RCPT TO. Such a rejection
// is about us (IP, HELO, sender), never about the mailbox.
func (p *SMTPProber) sessionFailure(ctx context.Context, res models.ProbeResult, stage string, err error) models.ProbeResult {
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) {
		return p.transportFailure(ctx, res, stage, err)
	}
	res.Code = tpErr.Code
	res.Message = tpErr.Msg
	res.Error = fmt.Sprintf("%s: %d %s", stage, tpErr.Code, tpErr.Msg)
	if tpErr.Code == 421 {
		res.Verdict, res.Confidence = models.VerdictUnavailable, 20
	} else {
		res.Verdict, res.Confidence = models.VerdictInconclusive, 30
	}
	p.logger.Debug("SMTP session rejected", zap.String("exchange", res.Exchange), zap.String("error", res.Error))
	return res
}

// transportFailure handles dial errors, timeouts and broken connections.
func (p *SMTPProber) transportFailure(ctx context.Context, res models.ProbeResult, stage string, err error) models.ProbeResult {
	res.Verdict = models.VerdictUnreachable
	res.Error = fmt.Sprintf("%s: %v", stage, err)
	if isTimeout(err) || ctx.Err() != nil {
		res.Confidence = 20
	} else {
		res.Confidence = 30
	}
	p.logger.Debug("SMTP probe transport failure", zap.String("exchange", res.Exchange), zap.Error(err))
	return res
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ghostLocalPart builds a plausible but almost certainly unused local part.
func ghostLocalPart() string {
	firstNames := []string{"alex", "michael", "sarah", "david", "emma", "chris", "jessica", "matthew", "amanda", "daniel"}
	lastNames := []string{"smith", "jones", "taylor", "brown", "williams", "wilson", "johnson", "davis", "miller", "martin"}

	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "michael.smith.9f3a"
	}
	return firstNames[int(b[0])%len(firstNames)] + "." + lastNames[int(b[1])%len(lastNames)] + "." + hex.EncodeToString(b[2:])
}
