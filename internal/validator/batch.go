package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailprobe/internal/lookup"
	"mailprobe/internal/models"
)

var (
	ErrEmptyBatch    = errors.New("batch contains no emails")
	ErrBatchTooLarge = errors.New("batch too large")
)

// BatchOptions bound a batch run.
type BatchOptions struct {
	MaxSize     int
	Concurrency int
}

func DefaultBatchOptions() BatchOptions {
	return BatchOptions{MaxSize: 50, Concurrency: 5}
}

// BatchRunner validates many addresses with bounded concurrency.
type BatchRunner struct {
	checker Checker
	opts    BatchOptions
	logger  *zap.Logger
}

func NewBatchRunner(checker Checker, opts BatchOptions, logger *zap.Logger) *BatchRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultBatchOptions()
	if opts.MaxSize <= 0 {
		opts.MaxSize = def.MaxSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	return &BatchRunner{checker: checker, opts: opts, logger: logger}
}

// MaxSize is the largest batch Run accepts.
func (b *BatchRunner) MaxSize() int {
	return b.opts.MaxSize
}

// Run checks the size limits before any stage runs, filters out syntax
// failures cheaply, then runs the full pipeline on the rest. Results keep
// input order.
func (b *BatchRunner) Run(ctx context.Context, emails []string, sel models.CheckSelection) (*models.BatchReport, error) {
	if len(emails) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(emails) > b.opts.MaxSize {
		return nil, fmt.Errorf("%w: maximum %d emails", ErrBatchTooLarge, b.opts.MaxSize)
	}

	start := time.Now()
	report := &models.BatchReport{
		BatchID: uuid.NewString(),
		Results: make([]models.BatchItem, len(emails)),
	}

	var pending []int
	for i, email := range emails {
		syntax := lookup.CheckSyntax(email)
		if !syntax.Passed {
			report.Results[i] = models.BatchItem{Email: email, Reason: syntax.Message}
			report.Summary.SyntaxRejected++
			continue
		}
		pending = append(pending, i)
	}

	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)
	for _, i := range pending {
		i := i
		email := emails[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				report.Results[i] = models.BatchItem{Email: email, Error: ctx.Err().Error()}
				return nil
			}
			vr, err := b.validateOne(ctx, email, sel)
			if err != nil {
				b.logger.Warn("Batch item failed", zap.String("email", email), zap.Error(err))
				report.Results[i] = models.BatchItem{Email: email, Error: err.Error()}
				return nil
			}
			report.Results[i] = models.BatchItem{
				Email:      email,
				Valid:      vr.Valid,
				Reason:     Reason(vr),
				Confidence: vr.Results.SMTP.Confidence,
				Report:     vr,
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Summary.Total = len(emails)
	for _, item := range report.Results {
		switch {
		case item.Error != "":
			report.Summary.Errored++
		case item.Valid:
			report.Summary.Valid++
		default:
			report.Summary.Invalid++
		}
	}
	report.ElapsedMs = time.Since(start).Milliseconds()

	b.logger.Info("Batch completed",
		zap.String("batch_id", report.BatchID),
		zap.Int("total", report.Summary.Total),
		zap.Int("valid", report.Summary.Valid),
		zap.Int("syntax_rejected", report.Summary.SyntaxRejected),
		zap.Int64("elapsed_ms", report.ElapsedMs))
	return report, nil
}

// validateOne keeps a panicking Checker from taking down the batch.
func (b *BatchRunner) validateOne(ctx context.Context, email string, sel models.CheckSelection) (vr *models.ValidationReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			vr, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	return b.checker.Validate(ctx, email, sel)
}

// Reason is the message of the first failing stage in pipeline order, or a
// pass summary.
func Reason(r *models.ValidationReport) string {
	res := r.Results
	for _, c := range []models.CheckResult{res.Syntax, res.RoleBased, res.Disposable, res.MX, res.SMTP} {
		if !c.Passed {
			return c.Message
		}
	}
	if res.SMTP.Confidence != nil {
		return res.SMTP.Message
	}
	return "All enabled checks passed"
}
