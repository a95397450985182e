package validator

import (
	"context"
	"math"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailprobe/internal/lookup"
	"mailprobe/internal/models"
)

// Upper bounds of the raw dimension scores. Normalisation maps
// [-50, max] onto [0, 100].
const (
	MaxLocalScore      = 40.0
	MaxDomainScore     = 50.0
	MaxMXScore         = 45.0
	MaxPatternScore    = 25.0
	MinPatternScore    = -30.0
	MaxReputationScore = 30.0

	normalizeOffset = 50.0
)

var (
	patternFirstLast       = regexp.MustCompile(`^[a-z]+[._-][a-z]+$`)
	patternNameSepDigits   = regexp.MustCompile(`^[a-z]+[._-][a-z]+[0-9]+$`)
	patternNameDigits      = regexp.MustCompile(`^[a-z]+[0-9]+$`)
	patternAlpha           = regexp.MustCompile(`^[a-z]+$`)
	patternNumeric         = regexp.MustCompile(`^[0-9]+$`)
	patternTestPrefix      = regexp.MustCompile(`^(test|fake|sample|dummy|example)`)
	patternVeryLongSegment = regexp.MustCompile(`[a-z0-9]{25,}`)
)

// Weights blend the five dimensions into one confidence.
type Weights struct {
	Local      float64
	MX         float64
	Domain     float64
	Pattern    float64
	Reputation float64
}

func (w Weights) sum() float64 {
	return w.Local + w.MX + w.Domain + w.Pattern + w.Reputation
}

// ScoringConfig holds the tunable parts of the heuristic model.
type ScoringConfig struct {
	Weights        Weights
	PassThreshold  int
	EarlyExitLocal float64
	DKIMSelectors  []string
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: Weights{
			Local:      0.30,
			MX:         0.30,
			Domain:     0.25,
			Pattern:    0.10,
			Reputation: 0.05,
		},
		PassThreshold:  60,
		EarlyExitLocal: -30,
		DKIMSelectors:  lookup.DefaultDKIMSelectors,
	}
}

// Scorer estimates mailbox validity when no trustworthy RCPT verdict is
// available.
type Scorer struct {
	cfg      ScoringConfig
	resolver lookup.Resolver
	logger   *zap.Logger
}

func NewScorer(cfg ScoringConfig, resolver lookup.Resolver, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Weights.sum() <= 0 {
		cfg.Weights = DefaultScoringConfig().Weights
	}
	if cfg.DKIMSelectors == nil {
		cfg.DKIMSelectors = lookup.DefaultDKIMSelectors
	}
	return &Scorer{cfg: cfg, resolver: resolver, logger: logger}
}

// Normalize maps a raw dimension score onto 0-100.
func Normalize(score, maxScore float64) float64 {
	n := (score + normalizeOffset) / (maxScore + normalizeOffset) * 100
	return math.Max(0, math.Min(100, n))
}

func dimension(score, maxScore float64, signals []string) models.DimensionScore {
	return models.DimensionScore{
		Score:      score,
		MaxScore:   maxScore,
		Normalized: math.Round(Normalize(score, maxScore)*100) / 100,
		Signals:    signals,
	}
}

// domainSignals are the DNS facts gathered for the domain and reputation
// dimensions.
type domainSignals struct {
	hasAddress bool
	hasSPF     bool
	hasDMARC   bool
	hasDKIM    bool
}

// Score runs the heuristic model. records must already be sorted; an empty
// slice means the domain has no usable MX.
func (s *Scorer) Score(ctx context.Context, local, domain string, records []models.MxRecord) *models.ConfidenceAnalysis {
	localRaw, localSignals := scoreLocalPart(local)
	analysis := &models.ConfidenceAnalysis{
		LocalPart: dimension(localRaw, MaxLocalScore, localSignals),
	}

	// Garbage local parts decide the outcome alone; skip the DNS work.
	if localRaw < s.cfg.EarlyExitLocal {
		analysis.EarlyExit = true
		analysis.Confidence = int(math.Round(analysis.LocalPart.Normalized))
		analysis.Passed = analysis.Confidence >= s.cfg.PassThreshold
		s.logger.Debug("Heuristic early exit on local part",
			zap.String("domain", domain),
			zap.Float64("local_score", localRaw),
			zap.Strings("signals", localSignals))
		return analysis
	}

	profile := lookup.AnalyzeMX(records, domain)
	analysis.Provider = profile.Provider

	sig := s.gatherDomainSignals(ctx, domain)

	mx := scoreMX(profile)
	dom := scoreDomain(domain, profile, sig)
	pat := scorePattern(local)
	rep := scoreReputation(sig)
	analysis.MX = &mx
	analysis.Domain = &dom
	analysis.Pattern = &pat
	analysis.Reputation = &rep

	w := s.cfg.Weights
	blended := (analysis.LocalPart.Normalized*w.Local +
		mx.Normalized*w.MX +
		dom.Normalized*w.Domain +
		pat.Normalized*w.Pattern +
		rep.Normalized*w.Reputation) / w.sum()

	analysis.Confidence = clampPercent(int(math.Round(blended)))
	analysis.Passed = analysis.Confidence >= s.cfg.PassThreshold

	s.logger.Debug("Heuristic confidence computed",
		zap.String("domain", domain),
		zap.String("provider", profile.Provider),
		zap.Int("confidence", analysis.Confidence),
		zap.Bool("passed", analysis.Passed))
	return analysis
}

// gatherDomainSignals issues the address, SPF, DMARC and DKIM lookups
// concurrently. Each lookup fails closed to "absent".
func (s *Scorer) gatherDomainSignals(ctx context.Context, domain string) domainSignals {
	var sig domainSignals
	if s.resolver == nil {
		return sig
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovered(func() {
		sig.hasAddress = lookup.HasAddressRecords(gctx, s.resolver, domain)
	}))
	g.Go(recovered(func() {
		sig.hasSPF = lookup.CheckSPF(gctx, s.resolver, domain)
	}))
	g.Go(recovered(func() {
		sig.hasDMARC = lookup.CheckDMARC(gctx, s.resolver, domain)
	}))
	g.Go(recovered(func() {
		sig.hasDKIM = lookup.CheckDKIM(gctx, s.resolver, domain, s.cfg.DKIMSelectors)
	}))
	// Re-raise on the caller's goroutine, where Validate recovers it.
	if err := g.Wait(); err != nil {
		panic(err)
	}
	return sig
}

func scoreMX(p lookup.MXProfile) models.DimensionScore {
	if len(p.Records) == 0 {
		return dimension(-50, MaxMXScore, []string{"no_mx"})
	}

	score := 0.0
	var signals []string
	switch {
	case lookup.IsRecognizedProvider(p.Provider):
		score += 30
		signals = append(signals, "provider:"+p.Provider)
	case p.Provider == lookup.ProviderSelfHosted:
		score += 15
		signals = append(signals, "self_hosted")
	default:
		score += 5
		signals = append(signals, "unknown_provider")
	}
	if p.HasBackup {
		score += 10
		signals = append(signals, "backup_mx")
	}
	if p.GoodPriority {
		score += 5
		signals = append(signals, "priority_ok")
	}
	if p.Parked {
		score -= 40
		signals = append(signals, "parked_mx")
	}
	return dimension(score, MaxMXScore, signals)
}

func scoreDomain(domain string, p lookup.MXProfile, sig domainSignals) models.DimensionScore {
	score := 10.0
	var signals []string
	switch {
	case lookup.IsConsumerDomain(domain):
		score += 25
		signals = append(signals, "consumer_provider")
	case lookup.IsRecognizedProvider(p.Provider):
		score += 15
		signals = append(signals, "hosted_business")
	}
	if sig.hasAddress {
		score += 15
		signals = append(signals, "address_records")
	}
	return dimension(score, MaxDomainScore, signals)
}

func scorePattern(local string) models.DimensionScore {
	local = strings.ToLower(local)
	score := 0.0
	var signals []string

	if patternNumeric.MatchString(local) {
		return dimension(MinPatternScore, MaxPatternScore, []string{"numeric_only"})
	}

	switch {
	case patternFirstLast.MatchString(local):
		score += 25
		signals = append(signals, "first_last")
	case patternNameSepDigits.MatchString(local):
		score += 20
		signals = append(signals, "name_sep_name_digits")
	case patternNameDigits.MatchString(local):
		score += 10
		signals = append(signals, "name_digits")
	case patternAlpha.MatchString(local):
		score += 10
		signals = append(signals, "alpha_only")
	}

	if patternTestPrefix.MatchString(local) {
		score -= 25
		signals = append(signals, "test_prefix")
	}
	if patternVeryLongSegment.MatchString(local) {
		score -= 20
		signals = append(signals, "very_long_segment")
	}

	score = math.Max(MinPatternScore, math.Min(MaxPatternScore, score))
	return dimension(score, MaxPatternScore, signals)
}

func scoreReputation(sig domainSignals) models.DimensionScore {
	score := 0.0
	var signals []string
	if sig.hasSPF {
		score += 10
		signals = append(signals, "spf")
	}
	if sig.hasDMARC {
		score += 10
		signals = append(signals, "dmarc")
	}
	if sig.hasDKIM {
		score += 10
		signals = append(signals, "dkim")
	}
	return dimension(score, MaxReputationScore, signals)
}

func clampPercent(v int) int {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
