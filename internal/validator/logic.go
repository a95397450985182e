package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailprobe/internal/cache"
	"mailprobe/internal/disposable"
	"mailprobe/internal/lookup"
	"mailprobe/internal/models"
)

// ErrInternal is returned when a stage panics. The report is discarded.
var ErrInternal = errors.New("internal validation failure")

// Prober issues the RCPT TO probe. *lookup.SMTPProber satisfies it.
type Prober interface {
	Probe(ctx context.Context, email string, records []models.MxRecord) models.ProbeResult
}

// Checker is anything that can produce a ValidationReport.
type Checker interface {
	Validate(ctx context.Context, email string, sel models.CheckSelection) (*models.ValidationReport, error)
}

// Options tune the orchestrator.
type Options struct {
	// SMTPEnabled=false means outbound port 25 is unavailable and the
	// mailbox stage goes straight to the heuristic scorer.
	SMTPEnabled            bool
	DeterministicThreshold int
	CacheTTL               time.Duration
}

func DefaultOptions() Options {
	return Options{
		SMTPEnabled:            true,
		DeterministicThreshold: 70,
		CacheTTL:               5 * time.Minute,
	}
}

// Validator runs the staged pipeline for one address at a time. It is safe
// for concurrent use; the only shared state is the cache and the
// disposable set.
type Validator struct {
	resolver   lookup.Resolver
	disposable *disposable.Set
	prober     Prober
	scorer     *Scorer
	cache      cache.Store
	opts       Options
	logger     *zap.Logger
}

func New(
	resolver lookup.Resolver,
	disposableSet *disposable.Set,
	prober Prober,
	scorer *Scorer,
	store cache.Store,
	opts Options,
	logger *zap.Logger,
) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.NopStore{}
	}
	if disposableSet == nil {
		disposableSet = disposable.NewSet(nil, logger)
	}
	if scorer == nil {
		scorer = NewScorer(DefaultScoringConfig(), resolver, logger)
	}
	return &Validator{
		resolver:   resolver,
		disposable: disposableSet,
		prober:     prober,
		scorer:     scorer,
		cache:      store,
		opts:       opts,
		logger:     logger,
	}
}

// CacheKey identifies a report by the exact address and the enabled checks.
func CacheKey(email string, sel models.CheckSelection) string {
	return email + "|" + sel.Fingerprint()
}

// Validate returns the report for email. Network trouble is folded into
// the report; only cancellation of ctx and internal faults produce an
// error, and then nothing is cached.
func (v *Validator) Validate(ctx context.Context, email string, sel models.CheckSelection) (report *models.ValidationReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Recovered panic in validation pipeline",
				zap.String("email", email),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			report = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	key := CacheKey(email, sel)
	if raw, ok := v.cache.Get(ctx, key); ok {
		var cached models.ValidationReport
		if uerr := json.Unmarshal(raw, &cached); uerr == nil {
			v.logger.Debug("Cache hit", zap.String("key", key))
			return &cached, nil
		}
		v.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	}

	report, err = v.run(ctx, email, sel)
	if err != nil {
		if errors.Is(err, ErrInternal) {
			v.logger.Error("Validation stage failed", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	if raw, merr := json.Marshal(report); merr == nil {
		v.cache.Set(ctx, key, raw, v.opts.CacheTTL)
	}
	return report, nil
}

func (v *Validator) run(ctx context.Context, email string, sel models.CheckSelection) (*models.ValidationReport, error) {
	report := &models.ValidationReport{Email: email}
	res := &report.Results
	res.RoleBased = initial(models.CheckRoleBased, sel.RoleBased)
	res.Disposable = initial(models.CheckDisposable, sel.Disposable)
	res.MX = initial(models.CheckMX, sel.MX)
	res.SMTP = initial(models.CheckSMTP, sel.SMTP)

	// 1. Syntax. Mandatory and terminal.
	res.Syntax = lookup.CheckSyntax(email)
	if !res.Syntax.Passed {
		v.logger.Debug("Syntax check failed", zap.String("email", email), zap.String("reason", res.Syntax.Message))
		return finish(report), nil
	}
	local, domain, _ := lookup.SplitAddress(email)
	domain = strings.ToLower(domain)

	// 2. Role-based.
	if sel.RoleBased {
		res.RoleBased = lookup.CheckRoleBased(email)
		if !res.RoleBased.Passed {
			v.logger.Debug("Role-based address", zap.String("email", email), zap.String("role", res.RoleBased.MatchedRole))
			return finish(report), nil
		}
	}

	// 3. Disposable and MX are independent DNS-bound checks.
	var (
		records     []models.MxRecord
		mxResolved  bool
		disposableR = res.Disposable
		mxR         = res.MX
	)
	g, gctx := errgroup.WithContext(ctx)
	if sel.Disposable {
		g.Go(recovered(func() {
			disposableR = v.disposable.Check(gctx, domain)
		}))
	}
	if sel.MX {
		g.Go(recovered(func() {
			if lookup.IsGmailDomain(domain) {
				mxR = lookup.GmailMXResult()
				return
			}
			recs, mxErr := lookup.ResolveMX(gctx, v.resolver, domain)
			records, mxResolved = recs, true
			mxR = lookup.CheckMX(domain, recs, mxErr)
		}))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Disposable, res.MX = disposableR, mxR
	if !res.Disposable.Passed || !res.MX.Passed {
		v.logger.Debug("Domain checks failed",
			zap.String("domain", domain),
			zap.String("disposable", res.Disposable.Message),
			zap.String("mx", res.MX.Message))
		return finish(report), nil
	}

	// 4. Mailbox.
	if sel.SMTP {
		if !mxResolved {
			recs, mxErr := lookup.ResolveMX(ctx, v.resolver, domain)
			if mxErr != nil {
				v.logger.Debug("MX resolution for mailbox stage failed", zap.String("domain", domain), zap.Error(mxErr))
			}
			records = recs
		}
		res.SMTP = v.checkMailbox(ctx, email, local, domain, records)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return finish(report), nil
}

// recovered adapts fn for errgroup. A panic on the worker goroutine would
// bypass Validate's recover, so it is turned into ErrInternal here.
func recovered(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v\n%s", ErrInternal, r, debug.Stack())
			}
		}()
		fn()
		return nil
	}
}

// checkMailbox prefers a deterministic RCPT verdict and falls back to the
// heuristic scorer for anything less certain.
func (v *Validator) checkMailbox(ctx context.Context, email, local, domain string, records []models.MxRecord) models.CheckResult {
	var probe *models.ProbeResult

	if v.opts.SMTPEnabled && v.prober != nil {
		var pr models.ProbeResult
		if len(records) == 0 {
			pr = models.ProbeResult{
				Verdict: models.VerdictUnreachable,
				Error:   "no mail exchanger to probe",
			}
		} else {
			pr = v.prober.Probe(ctx, email, records)
		}
		probe = &pr

		if pr.Deterministic(v.opts.DeterministicThreshold) {
			return probeResult(pr)
		}
		v.logger.Warn("SMTP probe inconclusive; falling back to heuristic scoring",
			zap.String("domain", domain),
			zap.String("verdict", string(pr.Verdict)),
			zap.Int("code", pr.Code),
			zap.Int("confidence", pr.Confidence),
			zap.String("error", pr.Error))
	}

	analysis := v.scorer.Score(ctx, local, domain, records)

	var msg string
	switch {
	case analysis.EarlyExit:
		msg = fmt.Sprintf("Local part looks auto-generated or fake (heuristic confidence %d%%)", analysis.Confidence)
	case analysis.Passed:
		msg = fmt.Sprintf("Mailbox likely exists (heuristic confidence %d%%)", analysis.Confidence)
	default:
		msg = fmt.Sprintf("Mailbox existence could not be confirmed (heuristic confidence %d%%)", analysis.Confidence)
	}
	return models.CheckResult{
		Passed:     analysis.Passed,
		Message:    msg,
		Confidence: models.IntPtr(analysis.Confidence),
		Details: &models.SMTPDetails{
			Method:    models.MethodHeuristic,
			Probe:     probe,
			Heuristic: analysis,
		},
	}
}

func probeResult(pr models.ProbeResult) models.CheckResult {
	var msg string
	switch pr.Verdict {
	case models.VerdictExists:
		msg = fmt.Sprintf("Mailbox exists (SMTP %d)", pr.Code)
	case models.VerdictNotExists:
		msg = fmt.Sprintf("Mailbox does not exist (SMTP %d)", pr.Code)
	case models.VerdictRejected:
		msg = fmt.Sprintf("Recipient rejected by mail server (SMTP %d)", pr.Code)
	default:
		msg = fmt.Sprintf("SMTP verdict %s (code %d)", pr.Verdict, pr.Code)
	}
	return models.CheckResult{
		Passed:     pr.Exists(),
		Message:    msg,
		Confidence: models.IntPtr(pr.Confidence),
		Details: &models.SMTPDetails{
			Method: models.MethodSMTP,
			Probe:  &pr,
		},
	}
}

func initial(name string, enabled bool) models.CheckResult {
	if !enabled {
		return models.Skipped(name)
	}
	return models.NotRun(name)
}

// finish sets Valid as the conjunction of every stage. Skipped stages pass,
// and stages left NotRun only exist after an earlier failure.
func finish(report *models.ValidationReport) *models.ValidationReport {
	r := report.Results
	report.Valid = r.Syntax.Passed &&
		r.RoleBased.Passed &&
		r.Disposable.Passed &&
		r.MX.Passed &&
		r.SMTP.Passed
	return report
}
