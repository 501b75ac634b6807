package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musij/internal/shared"
)

// Envelope is the uniform response wrapper for every route.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	FromCache *bool  `json:"from_cache,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondData writes a successful envelope around data.
func respondData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// respondCached writes a successful envelope with the from_cache marker.
func respondCached(w http.ResponseWriter, data any, fromCache bool) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, FromCache: &fromCache})
}

// respondEmpty writes the empty-success shape used when an upstream has no
// data for a valid lookup.
func respondEmpty(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: []any{}, Message: message})
}

// respondError writes a failure envelope. err is optional detail, surfaced
// in the error field.
func respondError(w http.ResponseWriter, status int, message string, err error) {
	envelope := Envelope{Success: false, Message: message}
	if err != nil {
		envelope.Error = err.Error()
	}
	writeJSON(w, status, envelope)
}

// respondNotFound reports a lookup whose subject does not exist upstream.
func respondNotFound(w http.ResponseWriter, message string) {
	respondError(w, http.StatusNotFound, message, shared.ErrNotFound)
}

// respondUpstreamError converts a provider-client failure into the envelope.
//
// Token acquisition failures get a distinct log signal: they mean bad
// credentials, not a transient resource problem.
func respondUpstreamError(w http.ResponseWriter, logger *log.Logger, message string, err error) {
	if errors.Is(err, shared.ErrAuthFailed) {
		logger.Error("token acquisition failed", "err", err)
		respondError(w, http.StatusInternalServerError, message, err)
		return
	}

	logger.Warn(message, "err", err)
	respondError(w, http.StatusInternalServerError, message, err)
}

// respondUnconfigured reports a route whose provider credentials are absent.
func respondUnconfigured(w http.ResponseWriter, provider string) {
	respondError(w, http.StatusInternalServerError, provider+" is not configured", shared.ErrMissingCredentials)
}
