package models

// BatchItem is the per-address summary returned by a batch run.
type BatchItem struct {
	Email      string            `json:"email"`
	Valid      bool              `json:"valid"`
	Reason     string            `json:"reason"`
	Confidence *int              `json:"confidence,omitempty"`
	Report     *ValidationReport `json:"report,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// BatchSummary aggregates counts over a batch.
type BatchSummary struct {
	Total          int `json:"total"`
	Valid          int `json:"valid"`
	Invalid        int `json:"invalid"`
	SyntaxRejected int `json:"syntaxRejected"`
	Errored        int `json:"errored"`
}

// BatchReport is the full batch response.
type BatchReport struct {
	BatchID   string       `json:"batchId"`
	Results   []BatchItem  `json:"results"`
	Summary   BatchSummary `json:"summary"`
	ElapsedMs int64        `json:"elapsedMs"`
}
