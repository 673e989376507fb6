// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/vidserve/internal/log"
)

var errInvalidUTF8 = errors.New("escape sequence is not valid UTF-8")

// DecodeError reports a request path that cannot be percent-decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed request path: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type decodedPathKey struct{}

// DecodedPath returns the path decoded by DecodePath.
func DecodedPath(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(decodedPathKey{}).(string)
	return p, ok
}

// Decode strictly percent-decodes a raw request path. Malformed escapes
// and escapes that do not form valid UTF-8 are rejected.
func Decode(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", &DecodeError{Path: raw, Err: err}
	}
	if !utf8.ValidString(decoded) {
		return "", &DecodeError{Path: raw, Err: errInvalidUTF8}
	}
	return decoded, nil
}

// rawPath returns the path as the client sent it.
func rawPath(r *http.Request) string {
	uri := r.RequestURI
	if uri == "" || !strings.HasPrefix(uri, "/") {
		return r.URL.EscapedPath()
	}
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}
	return uri
}

// DecodePath decodes the request path before routing, routes on the result
// and stores it for handlers. Undecodable paths are answered with a 500.
func DecodePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := rawPath(r)
		decoded, err := Decode(raw)
		if err != nil {
			logger := xglog.WithComponentFromContext(r.Context(), "http")
			logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "request.decode_failed").
				Str(xglog.FieldPath, strings.ToValidUTF8(raw, "")).
				Msg("rejecting undecodable request path")
			WriteInternalError(w, err.Error())
			return
		}
		// Dispatch on the decoded path: /%6Cist is /list.
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rctx.RoutePath = decoded
		}
		ctx := context.WithValue(r.Context(), decodedPathKey{}, decoded)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
