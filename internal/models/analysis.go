package models

// ProbeVerdict classifies the RCPT TO outcome of an SMTP probe.
type ProbeVerdict string

const (
	VerdictExists       ProbeVerdict = "exists"
	VerdictNotExists    ProbeVerdict = "not_exists"
	VerdictRejected     ProbeVerdict = "rejected"
	VerdictTemporary    ProbeVerdict = "temporary_failure"
	VerdictUnavailable  ProbeVerdict = "service_unavailable"
	VerdictInconclusive ProbeVerdict = "inconclusive"
	VerdictCatchAll     ProbeVerdict = "catch_all"
	VerdictUnreachable  ProbeVerdict = "unreachable"
	VerdictDisabled     ProbeVerdict = "disabled"
)

// ProbeResult is what the SMTP prober reports. It never carries a Go error;
// transport failures are folded into Verdict and Error.
type ProbeResult struct {
	Exchange   string       `json:"exchange,omitempty"`
	Code       int          `json:"code,omitempty"`
	Message    string       `json:"message,omitempty"`
	Verdict    ProbeVerdict `json:"verdict"`
	Confidence int          `json:"confidence"`
	CatchAll   bool         `json:"catchAll,omitempty"`
	Error      string       `json:"error,omitempty"`
	DurationMs int64        `json:"durationMs"`
}

// Deterministic reports whether the RCPT verdict is trustworthy enough to
// skip heuristic scoring.
func (p ProbeResult) Deterministic(threshold int) bool {
	return p.Confidence >= threshold
}

// Exists reports whether the probe accepted the mailbox.
func (p ProbeResult) Exists() bool {
	return p.Verdict == VerdictExists
}

// DimensionScore is one sub-score of the heuristic model.
type DimensionScore struct {
	Score      float64  `json:"score"`
	MaxScore   float64  `json:"maxScore"`
	Normalized float64  `json:"normalized"`
	Signals    []string `json:"signals,omitempty"`
}

// ConfidenceAnalysis is the full heuristic breakdown.
type ConfidenceAnalysis struct {
	LocalPart  DimensionScore  `json:"localPart"`
	Domain     *DimensionScore `json:"domain,omitempty"`
	MX         *DimensionScore `json:"mx,omitempty"`
	Pattern    *DimensionScore `json:"pattern,omitempty"`
	Reputation *DimensionScore `json:"reputation,omitempty"`
	Provider   string          `json:"provider,omitempty"`
	EarlyExit  bool            `json:"earlyExit,omitempty"`
	Confidence int             `json:"confidence"`
	Passed     bool            `json:"passed"`
}

// SMTPDetails is attached to the smtp CheckResult.
type SMTPDetails struct {
	Method    string              `json:"method"`
	Probe     *ProbeResult        `json:"probe,omitempty"`
	Heuristic *ConfidenceAnalysis `json:"heuristic,omitempty"`
}

// Methods recorded in SMTPDetails.Method.
const (
	MethodSMTP      = "smtp"
	MethodHeuristic = "heuristic"
)
