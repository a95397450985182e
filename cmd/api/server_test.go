package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"mailprobe/internal/lookup"
	"mailprobe/internal/models"
	"mailprobe/internal/validator"
)

// stubChecker answers with a syntax-only report and records the selection
// it was called with.
type stubChecker struct {
	mu   sync.Mutex
	sels []models.CheckSelection
	err  error
	boom bool
}

func (s *stubChecker) Validate(_ context.Context, email string, sel models.CheckSelection) (*models.ValidationReport, error) {
	s.mu.Lock()
	s.sels = append(s.sels, sel)
	s.mu.Unlock()

	if s.boom {
		panic("stub exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	syntax := lookup.CheckSyntax(email)
	return &models.ValidationReport{
		Email: email,
		Valid: syntax.Passed,
		Results: models.Results{
			Syntax:     syntax,
			MX:         models.Skipped(models.CheckMX),
			SMTP:       models.Skipped(models.CheckSMTP),
			Disposable: models.Skipped(models.CheckDisposable),
			RoleBased:  models.Skipped(models.CheckRoleBased),
		},
	}, nil
}

func newTestServer(checker validator.Checker) http.Handler {
	batch := validator.NewBatchRunner(checker, validator.DefaultBatchOptions(), zap.NewNop())
	return newServer(checker, batch, zap.NewNop(), time.Second).routes()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestValidateEmailHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
		wantValid bool
	}{
		{"Valid address", `{"email":"jane@acme.com"}`, http.StatusOK, "", true},
		{"Malformed address", `{"email":"no-at-sign"}`, http.StatusOK, "", false},
		{"Empty string still validated", `{"email":""}`, http.StatusOK, "", false},
		{"Missing email", `{}`, http.StatusBadRequest, "email is required", false},
		{"Null email", `{"email":null}`, http.StatusBadRequest, "email is required", false},
		{"Numeric email", `{"email":42}`, http.StatusBadRequest, "email must be a string", false},
		{"Broken JSON", `{"email":`, http.StatusBadRequest, "Request body must be valid JSON", false},
	}

	h := newTestServer(&stubChecker{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/validate-email", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantError != "" {
				var resp errorResponse
				decode(t, rec, &resp)
				if resp.Error != tt.wantError {
					t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
				}
				return
			}
			var report models.ValidationReport
			decode(t, rec, &report)
			if report.Valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", report.Valid, tt.wantValid)
			}
		})
	}
}

func TestValidateEmailPassesSelection(t *testing.T) {
	stub := &stubChecker{}
	h := newTestServer(stub)

	rec := do(h, http.MethodPost, "/validate-email", `{"email":"a@b.co","tests":{"smtp":false,"roleBased":false}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := models.CheckSelection{SMTP: false, MX: true, Disposable: true, RoleBased: false}
	if len(stub.sels) != 1 || stub.sels[0] != want {
		t.Errorf("selection = %+v, want %+v", stub.sels, want)
	}
}

func TestValidateEmailFailures(t *testing.T) {
	tests := []struct {
		name     string
		checker  *stubChecker
		wantCode int
	}{
		{"Internal error", &stubChecker{err: validator.ErrInternal}, http.StatusInternalServerError},
		{"Timeout", &stubChecker{err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"Handler panic", &stubChecker{boom: true}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestServer(tt.checker), http.MethodPost, "/validate-email", `{"email":"a@b.co"}`)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp errorResponse
			decode(t, rec, &resp)
			if resp.Error == "" || resp.Message == "" {
				t.Errorf("expected error and message, got %+v", resp)
			}
			if tt.wantCode == http.StatusInternalServerError && resp.Message != internalErrorMessage {
				t.Errorf("message = %q, internal details must not leak", resp.Message)
			}
			if strings.Contains(rec.Body.String(), "stub exploded") {
				t.Error("panic value leaked to the client")
			}
		})
	}
}

func TestValidateEmailsHandler(t *testing.T) {
	many := make([]string, 51)
	for i := range many {
		many[i] = `"user@acme.com"`
	}

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{"Empty batch", `{"emails":[]}`, http.StatusBadRequest, "batch contains no emails"},
		{"Missing emails", `{}`, http.StatusBadRequest, "emails is required"},
		{"Too many", `{"emails":[` + strings.Join(many, ",") + `]}`, http.StatusBadRequest, "batch too large: maximum 50 emails"},
		{"Not an array", `{"emails":"a@b.co"}`, http.StatusBadRequest, "emails must be an array"},
	}

	h := newTestServer(&stubChecker{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/validate-emails", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp errorResponse
			decode(t, rec, &resp)
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}

	t.Run("Mixed batch", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/validate-emails", `{"emails":["jane@acme.com","broken"]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		var report models.BatchReport
		decode(t, rec, &report)
		if report.Summary.Total != 2 || report.Summary.Valid != 1 || report.Summary.SyntaxRejected != 1 {
			t.Errorf("summary = %+v", report.Summary)
		}
		if report.Results[0].Email != "jane@acme.com" || report.Results[1].Email != "broken" {
			t.Errorf("order not preserved: %+v", report.Results)
		}
	})
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestServer(&stubChecker{})

	rec := do(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	var health healthResponse
	decode(t, rec, &health)
	if health.Status != "ok" || health.StartedAt == "" {
		t.Errorf("health = %+v", health)
	}

	rec = do(h, http.MethodGet, "/info", "")
	var info map[string]any
	decode(t, rec, &info)
	if info["maxBatchSize"] != float64(50) {
		t.Errorf("maxBatchSize = %v", info["maxBatchSize"])
	}
}

func TestMiddleware(t *testing.T) {
	h := newTestServer(&stubChecker{})

	t.Run("Preflight", func(t *testing.T) {
		rec := do(h, http.MethodOptions, "/validate-email", "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS header")
		}
	})

	t.Run("Generated request ID", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/health", "")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
	})

	t.Run("Echoed request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("X-Request-ID = %q", got)
		}
	})

	t.Run("Wrong method", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/validate-email", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
