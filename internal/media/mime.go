// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"path/filepath"
	"strings"
)

// DefaultMIMEType is served for extensions missing from MIMETypes.
const DefaultMIMEType = "application/octet-stream"

// Media extensions recognised by the listing.
const (
	ExtManifest  = ".m3u8"
	ExtSegment   = ".ts"
	ExtContainer = ".mp4"
)

// MIMETypes maps a lower-cased extension (with leading dot) to the type sent
// in Content-Type. HLS players refuse to initialise unless manifests and
// segments carry exactly these types.
var MIMETypes = map[string]string{
	ExtManifest:  "application/vnd.apple.mpegurl",
	ExtSegment:   "video/mp2t",
	ExtContainer: "video/mp4",
	".html":      "text/html",
	".js":        "text/javascript",
	".css":       "text/css",
	".json":      "application/json",
}

// MIMEType returns the content type for name based on its extension.
func MIMEType(name string) string {
	if t, ok := MIMETypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return DefaultMIMEType
}

// IsMedia reports whether name is listed (manifest, segment or container).
// Matching is case-sensitive, like the player front end.
func IsMedia(name string) bool {
	return strings.HasSuffix(name, ExtManifest) ||
		strings.HasSuffix(name, ExtContainer) ||
		strings.HasSuffix(name, ExtSegment)
}

// IsManifest reports whether name is an HLS playlist.
func IsManifest(name string) bool {
	return strings.HasSuffix(name, ExtManifest)
}

// IsPlayable reports whether name can be handed to a player directly.
func IsPlayable(name string) bool {
	return IsManifest(name) || strings.HasSuffix(name, ExtContainer)
}
