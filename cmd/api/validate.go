package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"mailprobe/internal/models"
	"mailprobe/internal/validator"
)

const maxBodyBytes = 1 << 20

// internalErrorMessage is all a client learns about an unexpected failure.
const internalErrorMessage = "The email could not be validated due to an unexpected error"

type validateRequest struct {
	Email *string                  `json:"email" validate:"required"`
	Tests *models.SelectionRequest `json:"tests"`
}

type batchRequest struct {
	Emails []string                 `json:"emails" validate:"required"`
	Tests  *models.SelectionRequest `json:"tests"`
}

// decodeBody reads a JSON body and maps type mismatches to readable
// messages, e.g. a non-string email.
func decodeBody(r *http.Request, dst any) string {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "Could not read request body"
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return typeErr.Field + " must be " + kindName(typeErr.Type)
		}
		return "Request body must be valid JSON"
	}
	return ""
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a " + t.Kind().String()
	}
}

func (s *server) validateEmailHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req validateRequest
	if msg := decodeBody(r, &req); msg != "" {
		s.badRequest(w, msg)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.badRequest(w, structError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	report, err := s.checker.Validate(ctx, *req.Email, req.Tests.Resolve())
	if err != nil {
		s.pipelineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *server) validateEmailsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req batchRequest
	if msg := decodeBody(r, &req); msg != "" {
		s.badRequest(w, msg)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.badRequest(w, structError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	report, err := s.batch.Run(ctx, req.Emails, req.Tests.Resolve())
	switch {
	case errors.Is(err, validator.ErrBatchTooLarge), errors.Is(err, validator.ErrEmptyBatch):
		s.badRequest(w, err.Error())
		return
	case err != nil:
		s.pipelineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// pipelineError maps a failed validation to 504 on timeout and 500
// otherwise.
func (s *server) pipelineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.writeJSON(w, http.StatusGatewayTimeout, errorResponse{
			Error:   "Validation timed out",
			Message: err.Error(),
		})
		return
	}

	s.logger.Error("Validation failed",
		zap.String("request_id", w.Header().Get("X-Request-ID")),
		zap.Error(err))
	reportError(r, w, err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "Internal server error",
		Message: internalErrorMessage,
	})
}
