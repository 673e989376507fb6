// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"time"

	"github.com/ManuGH/vidserve/internal/api/middleware"
	"github.com/ManuGH/vidserve/internal/hls"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/media"
	"github.com/ManuGH/vidserve/internal/metrics"
)

const bodyNotManifest = "Not an HLS manifest"

// ManifestSummary is the JSON shape of GET /manifest/<name>.
type ManifestSummary struct {
	Name string `json:"name"`
	*hls.Summary
	SegmentCount          int        `json:"segmentCount"`
	VariantCount          int        `json:"variantCount"`
	TargetDurationSeconds float64    `json:"targetDurationSeconds"`
	TotalDurationSeconds  float64    `json:"totalDurationSeconds"`
	FirstProgramDateTime  *time.Time `json:"firstProgramDateTime,omitempty"`
	LastProgramDateTime   *time.Time `json:"lastProgramDateTime,omitempty"`
}

func newManifestSummary(name string, s *hls.Summary) ManifestSummary {
	out := ManifestSummary{
		Name:                  name,
		Summary:               s,
		SegmentCount:          len(s.Segments),
		VariantCount:          len(s.Variants),
		TargetDurationSeconds: s.TargetDuration.Seconds(),
		TotalDurationSeconds:  s.TotalDuration.Seconds(),
	}
	if s.HasPDT {
		first, last := s.FirstPDT.UTC(), s.LastPDT.UTC()
		out.FirstProgramDateTime = &first
		out.LastProgramDateTime = &last
	}
	return out
}

// handleManifest answers GET /manifest/<name> with a summary of an .m3u8 file.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	name := fileName(r, "/manifest/")

	file, err := s.accessor.ResolveFile(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err, bodyFileNotFound)
		return
	}

	if !media.IsManifest(file.Name) {
		metrics.RecordFailure(metrics.ReasonManifest)
		middleware.WritePlain(w, http.StatusUnprocessableEntity, bodyNotManifest)
		return
	}

	summary, err := hls.Parse(file.Content)
	if err != nil {
		metrics.RecordFailure(metrics.ReasonManifest)
		logger := xglog.WithContext(r.Context(), s.logger)
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "manifest.invalid").
			Str(xglog.FieldFile, file.Name).
			Msg("manifest could not be parsed")
		middleware.WritePlain(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newManifestSummary(file.Name, summary))
}
