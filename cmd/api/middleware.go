package main

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// enableCORS middleware sets CORS headers for frontend access.
// Note: Access-Control-Allow-Origin is set to "*" which is permissive.
// Restrict this to your specific frontend origin in production.
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID tags every request with an ID, echoes it in X-Request-ID
// and logs the outcome.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("Request handled",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// recoverPanic keeps a handler panic from taking the process down and
// reports it to Sentry when configured.
func (s *server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID := w.Header().Get("X-Request-ID")
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("request_id", requestID)
					scope.SetTag("path", r.URL.Path)
					sentry.CurrentHub().Recover(rec)
				})
				s.logger.Error("Handler panic",
					zap.String("request_id", requestID),
					zap.Any("panic", rec))
				s.writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   "Internal server error",
					Message: internalErrorMessage,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// reportError sends an unexpected failure to Sentry with request context.
func reportError(r *http.Request, w http.ResponseWriter, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("request_id", w.Header().Get("X-Request-ID"))
		scope.SetTag("path", r.URL.Path)
		sentry.CaptureException(err)
	})
}
