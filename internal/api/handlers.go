// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/vidserve/internal/api/middleware"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/metrics"
	"github.com/ManuGH/vidserve/internal/telemetry"
)

// handleList answers GET / and GET /list with the directory listing.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	listing, err := s.lister.ListMedia(r.Context())
	if err != nil {
		s.writeError(w, r, err, bodyNotFound)
		return
	}
	middleware.AddSpanAttributes(r, telemetry.ListingAttributes(len(listing.Files))...)
	writeJSON(w, http.StatusOK, listing)
}

// handleVideo answers GET /video/<name> with the whole file.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	name := fileName(r, "/video/")

	file, err := s.accessor.ResolveFile(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err, bodyFileNotFound)
		return
	}

	h := w.Header()
	h.Set("Content-Type", file.MIMEType)
	h.Set("Content-Length", strconv.FormatInt(file.Size, 10))
	h.Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		if _, err := w.Write(file.Content); err != nil {
			logger := xglog.WithContext(r.Context(), s.logger)
			logger.Debug().
				Err(err).
				Str(xglog.FieldEvent, "media.write_aborted").
				Str(xglog.FieldFile, file.Name).
				Msg("client went away during delivery")
			return
		}
	}

	metrics.RecordFileServed(file.MIMEType, file.Size)
	middleware.AddSpanAttributes(r, telemetry.FileAttributes(file.Name, file.MIMEType, file.Size)...)
}

// fileName returns the decoded file name following prefix.
func fileName(r *http.Request, prefix string) string {
	if decoded, ok := middleware.DecodedPath(r.Context()); ok {
		return strings.TrimPrefix(decoded, prefix)
	}
	return chi.URLParam(r, "*")
}
