package di

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"mailprobe/internal/cache"
	"mailprobe/internal/config"
	"mailprobe/internal/disposable"
	"mailprobe/internal/lookup"
	"mailprobe/internal/proxy"
	"mailprobe/internal/validator"
)

// Lifecycle owns the background context of long-running components and
// the cleanup hooks run on shutdown.
type Lifecycle struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closers []func() error
}

func newLifecycle() *Lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifecycle{ctx: ctx, cancel: cancel}
}

// Context is cancelled by Stop.
func (l *Lifecycle) Context() context.Context {
	return l.ctx
}

// OnStop registers fn to run during Stop, in reverse order.
func (l *Lifecycle) OnStop(fn func() error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closers = append(l.closers, fn)
}

// Stop cancels the background context and runs the registered hooks.
func (l *Lifecycle) Stop(logger *zap.Logger) {
	l.cancel()
	l.mu.Lock()
	closers := l.closers
	l.closers = nil
	l.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Error("Shutdown hook failed", zap.Error(err))
		}
	}
}

func newResolver(cfg *config.Config, logger *zap.Logger) (lookup.Resolver, error) {
	timeout, err := cfg.GetDuration("dns.timeout")
	if err != nil {
		return nil, err
	}
	servers := cfg.GetStringSlice("dns.nameservers")
	if len(servers) == 0 {
		return lookup.NewSystemResolver(timeout), nil
	}
	client, err := lookup.NewDNSClient(servers, timeout)
	if err != nil {
		return nil, err
	}
	logger.Info("Using explicit DNS nameservers", zap.Strings("nameservers", servers))
	return client, nil
}

func newDisposableSource(cfg *config.Config) (disposable.Source, error) {
	switch kind := cfg.GetString("disposable.source"); kind {
	case "", "embedded":
		return disposable.EmbeddedSource{}, nil
	case "url":
		return disposable.NewURLSource(cfg.GetString("disposable.url")), nil
	case "postgres":
		return &disposable.PostgresSource{DSN: cfg.GetString("disposable.postgres_dsn")}, nil
	default:
		return nil, fmt.Errorf("unsupported disposable source: %s", kind)
	}
}

func newCacheStore(cfg *config.Config, logger *zap.Logger, lc *Lifecycle) (cache.Store, error) {
	switch kind := cfg.GetString("cache.type"); kind {
	case "memory":
		freq, err := cfg.GetDuration("cache.cleanup_frequency")
		if err != nil {
			return nil, err
		}
		store := cache.NewMemoryStore()
		store.StartCleanup(lc.Context(), freq)
		return store, nil
	case "redis":
		store, err := cache.NewRedisStore(
			cfg.GetString("cache.redis_addr"),
			cfg.GetString("cache.redis_password"),
			cfg.GetInt("cache.redis_db"),
			logger,
		)
		if err != nil {
			return nil, err
		}
		lc.OnStop(store.Close)
		logger.Info("Connected to Redis response cache", zap.String("addr", cfg.GetString("cache.redis_addr")))
		return store, nil
	case "none":
		return cache.NopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", kind)
	}
}

func newDialer(cfg *config.Config, logger *zap.Logger) (lookup.Dialer, error) {
	timeout, err := cfg.GetDuration("smtp.timeout")
	if err != nil {
		return nil, err
	}
	manager, err := proxy.NewManager(cfg.GetStringSlice("smtp.proxies"))
	if err != nil {
		return nil, err
	}
	if !manager.Enabled() {
		return &net.Dialer{Timeout: timeout}, nil
	}
	logger.Info("SMTP proxy rotation enabled", zap.Int("proxies", manager.Len()))
	return proxy.NewDialer(manager, timeout, logger), nil
}

func newProber(cfg *config.Config, dialer lookup.Dialer, logger *zap.Logger) (validator.Prober, error) {
	timeout, err := cfg.GetDuration("smtp.timeout")
	if err != nil {
		return nil, err
	}
	return lookup.NewSMTPProber(lookup.ProberConfig{
		HeloHost:       cfg.GetString("smtp.helo_host"),
		MailFrom:       cfg.GetString("smtp.mail_from"),
		Port:           cfg.GetInt("smtp.port"),
		Timeout:        timeout,
		MaxConcurrent:  cfg.GetInt("smtp.max_concurrent"),
		DetectCatchAll: cfg.GetBool("smtp.detect_catch_all"),
	}, dialer, logger), nil
}

func newScorer(cfg *config.Config, resolver lookup.Resolver, logger *zap.Logger) *validator.Scorer {
	sc := validator.DefaultScoringConfig()
	sc.PassThreshold = cfg.GetInt("scoring.pass_threshold")
	sc.EarlyExitLocal = cfg.GetFloat64("scoring.early_exit_local")
	sc.Weights = validator.Weights{
		Local:      cfg.GetFloat64("scoring.weights.local"),
		MX:         cfg.GetFloat64("scoring.weights.mx"),
		Domain:     cfg.GetFloat64("scoring.weights.domain"),
		Pattern:    cfg.GetFloat64("scoring.weights.pattern"),
		Reputation: cfg.GetFloat64("scoring.weights.reputation"),
	}
	return validator.NewScorer(sc, resolver, logger)
}

func newValidatorOptions(cfg *config.Config) (validator.Options, error) {
	ttl, err := cfg.GetDuration("cache.ttl")
	if err != nil {
		return validator.Options{}, err
	}
	return validator.Options{
		SMTPEnabled:            cfg.GetBool("smtp.enabled"),
		DeterministicThreshold: cfg.GetInt("scoring.deterministic_threshold"),
		CacheTTL:               ttl,
	}, nil
}

func newBatchRunner(cfg *config.Config, checker validator.Checker, logger *zap.Logger) *validator.BatchRunner {
	return validator.NewBatchRunner(checker, validator.BatchOptions{
		MaxSize:     cfg.GetInt("batch.max_size"),
		Concurrency: cfg.GetInt("batch.concurrency"),
	}, logger)
}
