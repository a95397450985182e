package main

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	StartedAt string `json:"startedAt"`
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		StartedAt: s.startedAt.UTC().Format(time.RFC3339),
	})
}

func (s *server) infoHandler(w http.ResponseWriter, r *http.Request) {
	guide := map[string]any{
		"service": "mailprobe",
		"version": "1.0.0",
		"endpoints": []string{
			"POST /validate-email",
			"POST /validate-emails",
			"GET /health",
		},
		"checks": []string{"syntax", "roleBased", "disposableDomain", "mx", "smtp"},
		"capabilities": []string{
			"RFC 5322 syntax and length limits",
			"Role account detection",
			"Disposable domain detection",
			"MX resolution with provider fingerprinting",
			"SMTP RCPT TO probing without DATA",
			"Heuristic confidence scoring when probing is inconclusive",
		},
		"maxBatchSize": s.batch.MaxSize(),
	}
	s.writeJSON(w, http.StatusOK, guide)
}
