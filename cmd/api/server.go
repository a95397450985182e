package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	playground "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mailprobe/internal/validator"
)

// server holds the HTTP handlers' dependencies.
type server struct {
	checker        validator.Checker
	batch          *validator.BatchRunner
	logger         *zap.Logger
	requestTimeout time.Duration
	startedAt      time.Time
	validate       *playground.Validate
}

func newServer(checker validator.Checker, batch *validator.BatchRunner, logger *zap.Logger, requestTimeout time.Duration) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &server{
		checker:        checker,
		batch:          batch,
		logger:         logger,
		requestTimeout: requestTimeout,
		startedAt:      time.Now(),
		validate:       playground.New(),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/validate-email", enableCORS(s.validateEmailHandler))
	mux.HandleFunc("/validate-emails", enableCORS(s.validateEmailsHandler))
	mux.HandleFunc("/health", enableCORS(s.healthHandler))
	mux.HandleFunc("/info", enableCORS(s.infoHandler))

	return s.withRequestID(s.recoverPanic(mux))
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", zap.Error(err))
	}
}

func (s *server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// structError formats go-playground validation failures into one line.
func structError(err error) string {
	verrs, ok := err.(playground.ValidationErrors)
	if !ok {
		return err.Error()
	}
	var msgs []string
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" must contain at most "+fe.Param()+" items")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}
