package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/happythoughts/apiserver/internal/services"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20

	msgInvalidBody     = "invalid request body"
	msgInternal        = "internal server error"
	msgUserExists      = "Could not create user. User already exists"
	msgThoughtNotFound = "Thought not found"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched so missing fields are reported by validation instead.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServiceError maps a service error onto the HTTP error contract.
// Backend details are logged, never returned.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, notFoundMessage string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMessage)
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
