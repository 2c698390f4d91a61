package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"print-area-pricing/models"
	"print-area-pricing/pricing"
	"print-area-pricing/repository"
)

// StaleHeader marks responses whose result was superseded by a newer canvas version
const StaleHeader = "X-Pricing-Stale"

// DefaultMaxBodyBytes bounds request bodies when no limit is configured
const DefaultMaxBodyBytes = 8 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, status int, msg string) {
	writeJSON(w, log, status, models.ErrorResponse{Error: msg})
}

// writeStale answers a superseded pricing pass. The client keeps the result of the
// newer pass it is already waiting for.
func writeStale(w http.ResponseWriter) {
	w.Header().Set(StaleHeader, "true")
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, pricing.ErrStaleResult):
		writeStale(w)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, log, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrMissingCanvas):
		writeError(w, log, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, log, http.StatusGatewayTimeout, "pricing timed out")
	case errors.Is(err, context.Canceled):
		// client went away, nobody reads the response
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, log, http.StatusInternalServerError, err.Error())
	}
}
