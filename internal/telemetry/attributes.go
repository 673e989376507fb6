// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys for media spans.
const (
	MediaFileKey     = "media.file"
	MediaMIMETypeKey = "media.mime_type"
	MediaSizeKey     = "media.size_bytes"
	MediaCountKey    = "media.file_count"
	ErrorTypeKey     = "error.type"
)

// FileAttributes describes a delivered file.
func FileAttributes(name, mimeType string, size int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(MediaFileKey, name),
		attribute.String(MediaMIMETypeKey, mimeType),
		attribute.Int64(MediaSizeKey, size),
	}
}

// ListingAttributes describes a directory listing.
func ListingAttributes(files int) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.Int(MediaCountKey, files)}
}

// ErrorAttributes classifies a failed request.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool("error", true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
