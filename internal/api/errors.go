// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/vidserve/internal/api/middleware"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/media"
	"github.com/ManuGH/vidserve/internal/metrics"
	"github.com/ManuGH/vidserve/internal/telemetry"
)

// writeJSON writes v as a compact JSON body.
func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		middleware.WriteInternalError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// classify maps an accessor failure to its metric reason and status.
func classify(err error) (reason string, status int) {
	var (
		decodeErr *middleware.DecodeError
		fsErr     *media.FilesystemError
	)
	switch {
	case errors.Is(err, media.ErrNotFound):
		return metrics.ReasonNotFound, http.StatusNotFound
	case errors.As(err, &decodeErr):
		return metrics.ReasonDecode, http.StatusInternalServerError
	case errors.As(err, &fsErr):
		return metrics.ReasonFilesystem, http.StatusInternalServerError
	default:
		return "internal", http.StatusInternalServerError
	}
}

// writeError translates err into a response. notFoundBody is the body used
// for media.ErrNotFound.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFoundBody string) {
	reason, status := classify(err)
	metrics.RecordFailure(reason)
	middleware.AddSpanAttributes(r, telemetry.ErrorAttributes(reason)...)

	logger := xglog.WithContext(r.Context(), s.logger)
	if status == http.StatusNotFound {
		logger.Debug().
			Err(err).
			Str(xglog.FieldEvent, "media.not_found").
			Str(xglog.FieldPath, r.URL.Path).
			Msg("media not found")
		middleware.WritePlain(w, status, notFoundBody)
		return
	}

	logger.Error().
		Err(err).
		Str(xglog.FieldEvent, "media.failed").
		Str(xglog.FieldPath, r.URL.Path).
		Str("reason", reason).
		Msg("media request failed")
	middleware.WriteInternalError(w, err.Error())
}
