// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics holds the media-level Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MediaFilesServed counts successful /video deliveries by MIME type.
	MediaFilesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_media_files_served_total",
		Help: "Total number of media files delivered, by MIME type",
	}, []string{"mime_type"})

	// MediaBytesServed counts body bytes of delivered media files.
	MediaBytesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidserve_media_bytes_served_total",
		Help: "Total number of media file bytes delivered",
	})

	// MediaRequestFailures counts failed media and listing requests by reason.
	MediaRequestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_media_request_failures_total",
		Help: "Total number of failed media requests by reason",
	}, []string{"reason"})

	// ListingRequests counts listings by where they were answered from.
	ListingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_listing_requests_total",
		Help: "Total number of directory listings, by source (disk, cache)",
	}, []string{"source"})

	// ListingCacheInvalidations counts cached listings dropped by filesystem events.
	ListingCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidserve_listing_cache_invalidations_total",
		Help: "Total number of listing cache invalidations triggered by filesystem events",
	})
)

// Failure reasons.
const (
	ReasonNotFound   = "not_found"
	ReasonFilesystem = "filesystem"
	ReasonDecode     = "decode"
	ReasonManifest   = "manifest_invalid"
)

// RecordFileServed records one delivered media file.
func RecordFileServed(mimeType string, size int64) {
	MediaFilesServed.WithLabelValues(mimeType).Inc()
	MediaBytesServed.Add(float64(size))
}

// RecordFailure records a failed request by reason.
func RecordFailure(reason string) {
	MediaRequestFailures.WithLabelValues(reason).Inc()
}

// RecordListing records a listing answered from source ("disk" or "cache").
func RecordListing(source string) {
	ListingRequests.WithLabelValues(source).Inc()
}

// RecordCacheInvalidation records a dropped cached listing.
func RecordCacheInvalidation() {
	ListingCacheInvalidations.Inc()
}
