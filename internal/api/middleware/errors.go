// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
)

// InternalErrorPrefix starts the body of every 500 response.
const InternalErrorPrefix = "Internal server error: "

// WriteInternalError writes a plain-text 500 carrying msg.
func WriteInternalError(w http.ResponseWriter, msg string) {
	WritePlain(w, http.StatusInternalServerError, InternalErrorPrefix+msg)
}

// WritePlain writes a plain-text response with the given status.
func WritePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
