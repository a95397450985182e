// Package disposable holds the process-lifetime set of temporary-mail domains.
package disposable

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mailprobe/internal/lookup"
	"mailprobe/internal/models"
)

// Source produces the list of disposable domains.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]string, error)
}

// Set is loaded lazily on first use and never written again, so readers
// need no locking after the sync.Once completes.
type Set struct {
	source      Source
	logger      *zap.Logger
	loadTimeout time.Duration

	once    sync.Once
	domains map[string]struct{}
	loadErr error
}

// NewSet builds a set backed by source. Nothing is loaded until the first
// lookup.
func NewSet(source Source, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Set{
		source:      source,
		logger:      logger,
		loadTimeout: 15 * time.Second,
	}
}

// load fills the set. Failure leaves it empty: every domain is then treated
// as non-disposable.
func (s *Set) load(ctx context.Context) {
	s.once.Do(func() {
		// Detached from the request so one cancelled caller cannot leave
		// the set permanently empty.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		s.domains = make(map[string]struct{})
		if s.source == nil {
			return
		}

		list, err := s.source.Load(loadCtx)
		if err != nil {
			s.loadErr = err
			s.logger.Warn("Disposable domain list failed to load; treating all domains as non-disposable",
				zap.String("source", s.source.Name()),
				zap.Error(err))
			return
		}
		for _, d := range list {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" || strings.HasPrefix(d, "#") {
				continue
			}
			s.domains[d] = struct{}{}
		}
		s.logger.Info("Loaded disposable domain list",
			zap.String("source", s.source.Name()),
			zap.Int("domains", len(s.domains)))
	})
}

// Contains reports whether domain is a known disposable provider.
func (s *Set) Contains(ctx context.Context, domain string) bool {
	s.load(ctx)
	_, ok := s.domains[strings.ToLower(domain)]
	return ok
}

// Len returns the number of loaded domains.
func (s *Set) Len(ctx context.Context) int {
	s.load(ctx)
	return len(s.domains)
}

// LoadError returns the error from the initial load, if any.
func (s *Set) LoadError(ctx context.Context) error {
	s.load(ctx)
	return s.loadErr
}

// Check runs the disposable-domain stage.
func (s *Set) Check(ctx context.Context, domain string) models.CheckResult {
	if lookup.IsGmailDomain(domain) {
		return models.Pass("Gmail address: not a disposable domain")
	}
	if s.Contains(ctx, domain) {
		return models.Fail("Domain " + strings.ToLower(domain) + " is a known disposable email provider")
	}
	return models.Pass("Not a disposable email domain")
}
