// Package handlers implements the HTTP endpoints of the expense analyzer.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-analyzer/internal/api/middleware"
	"github.com/dvloznov/expense-analyzer/internal/attachments"
	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/jobs"
	"github.com/dvloznov/expense-analyzer/internal/ledger"
	"github.com/dvloznov/expense-analyzer/internal/notionsync"
	"github.com/dvloznov/expense-analyzer/internal/pipeline"
	"github.com/dvloznov/expense-analyzer/internal/sheets"
)

// maxBodyBytes caps JSON request bodies. Pasted statements are the largest.
const maxBodyBytes = 5 << 20

// idsRequest is the body of the bulk endpoints.
type idsRequest struct {
	IDs []string `json:"ids"`
}

// decodeJSON reads a JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// urlParam returns a path parameter with percent-encoding removed.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalid),
		errors.Is(err, sheets.ErrMissingConfig),
		errors.Is(err, notionsync.ErrMissingConfig):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, pipeline.ErrItemNotFound),
		errors.Is(err, attachments.ErrNotFound),
		errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNotOfficial):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs server-side failures and writes the error as JSON.
// Client errors carry their message; server errors get msg.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, status, msg)
		return
	}
	middleware.WriteError(w, status, err.Error())
}
