package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError writes err as a JSON error body. HandlerError and FieldError
// carry their own status; anything else is a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var ferr FieldError
	if errors.As(err, &ferr) {
		logger.Debug().Str("field", ferr.Field).Msg(ferr.Reason)
		if werr := WriteJSON(w, http.StatusBadRequest, errorResponse{Error: ferr.Error(), Field: ferr.Field}); werr != nil {
			logger.Error().Err(werr).Msg("Failed to write error response")
		}
		return
	}

	status := http.StatusInternalServerError
	message := "Internal Server Error"
	var herr HandlerError
	if errors.As(err, &herr) {
		status = herr.Status
		message = herr.Message
		err = herr.Err
	}

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Msg(message)

	if werr := WriteJSON(w, status, errorResponse{Error: message}); werr != nil {
		logger.Error().Err(werr).Msg("Failed to write error response")
	}
}

// IntQuery parses an optional integer query parameter clamped to [1, max].
func IntQuery(r *http.Request, key string, fallback, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, FieldError{Field: key, Reason: "must be a positive integer"}
	}
	if n > max {
		n = max
	}
	return n, nil
}
