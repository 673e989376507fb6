// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vidserve/internal/config"
	"github.com/ManuGH/vidserve/internal/media"
)

const testBaseURL = "http://localhost:8888"

const testPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.5,
seg0.ts
#EXTINF:10.0,
seg1.ts
#EXT-X-ENDLIST
`

func testConfig(root string) config.Config {
	return config.Config{
		Port:     config.DefaultPort,
		RootDir:  root,
		BaseURL:  testBaseURL,
		LogLevel: "info",
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func newTestServer(t *testing.T, files map[string]string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	return NewServer(testConfig(root), Deps{}), root
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestList(t *testing.T) {
	srv, root := newTestServer(t, map[string]string{
		"a.m3u8":     testPlaylist,
		"seg0.ts":    "ts0",
		"movie.mp4":  "mp4",
		"notes.txt":  "ignored",
		"clip.MP4":   "case-sensitive",
		"sub/x.m3u8": "nested",
	})

	for _, target := range []string{"/", "/list"} {
		t.Run(target, func(t *testing.T) {
			rr := do(srv, http.MethodGet, target)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

			var got media.Listing
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, root, got.RootDir)
			assert.Equal(t, []string{"a.m3u8", "movie.mp4", "seg0.ts"}, got.Files)
			assert.Equal(t, []string{"a.m3u8"}, got.ManifestFiles)
			assert.Equal(t, []string{
				testBaseURL + "/video/a.m3u8",
				testBaseURL + "/video/movie.mp4",
			}, got.PlayableURLs)
		})
	}
}

func TestList_WireKeys(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := do(srv, http.MethodGet, "/list")
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Len(t, raw, 4)
	for _, key := range []string{"files", "m3u8Files", "urls"} {
		assert.JSONEq(t, "[]", string(raw[key]), key)
	}
	assert.Contains(t, raw, "videoDir")
}

func TestList_Stable(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"b.ts": "b", "a.mp4": "a"})

	first := do(srv, http.MethodGet, "/list")
	second := do(srv, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestList_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	srv := NewServer(testConfig(root), Deps{})

	rr := do(srv, http.MethodGet, "/list")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Internal server error: "), rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestVideo(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"a.m3u8":       testPlaylist,
		"seg0.ts":      "0123456789",
		"my clip.mp4":  "mp4-bytes",
		"blob.bin":     "raw",
		"UPPER.M3U8":   "#EXTM3U\n",
		"nested/x.ts":  "nested",
		"player.html":  "<html></html>",
		"config.json":  "{}",
		"style.css":    "body{}",
		"script.js":    "1",
		"no-extension": "x",
	})

	tests := []struct {
		target string
		mime   string
		body   string
	}{
		{"/video/a.m3u8", "application/vnd.apple.mpegurl", testPlaylist},
		{"/video/seg0.ts", "video/mp2t", "0123456789"},
		{"/video/my%20clip.mp4", "video/mp4", "mp4-bytes"},
		{"/video/blob.bin", "application/octet-stream", "raw"},
		{"/video/UPPER.M3U8", "application/vnd.apple.mpegurl", "#EXTM3U\n"},
		{"/video/nested/x.ts", "video/mp2t", "nested"},
		{"/video/player.html", "text/html", "<html></html>"},
		{"/video/config.json", "application/json", "{}"},
		{"/video/style.css", "text/css", "body{}"},
		{"/video/script.js", "text/javascript", "1"},
		{"/video/no-extension", "application/octet-stream", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := do(srv, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.mime, rr.Header().Get("Content-Type"))
			assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
			assert.Equal(t, strconv.Itoa(len(tt.body)), rr.Header().Get("Content-Length"))
			assert.Equal(t, tt.body, rr.Body.String())
			assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestVideo_Idempotent(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"seg0.ts": "segment-data"})

	first := do(srv, http.MethodGet, "/video/seg0.ts")
	second := do(srv, http.MethodGet, "/video/seg0.ts")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, first.Header().Get("Content-Type"), second.Header().Get("Content-Type"))
}

func TestVideo_Head(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"seg0.ts": "segment-data"})

	rr := do(srv, http.MethodHead, "/video/seg0.ts")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "12", rr.Header().Get("Content-Length"))
	assert.Empty(t, rr.Body.String())
}

func TestVideo_NotFound(t *testing.T) {
	srv, root := newTestServer(t, map[string]string{"dir/inner.ts": "x"})

	outside := filepath.Join(filepath.Dir(root), "outside-secret.ts")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
	t.Cleanup(func() { _ = os.Remove(outside) })
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.ts")))

	targets := []string{
		"/video/missing.mp4",
		"/video/dir",
		"/video/",
		"/video/../outside-secret.ts",
		"/video/..%2Foutside-secret.ts",
		"/video/link.ts",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rr := do(srv, http.MethodGet, target)
			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, "File not found", rr.Body.String())
			assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestVideo_MissingRoot(t *testing.T) {
	srv := NewServer(testConfig(filepath.Join(t.TempDir(), "missing")), Deps{})

	rr := do(srv, http.MethodGet, "/video/a.mp4")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "File not found", rr.Body.String())
}

func TestMalformedPath(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RequestURI = "/video/%E0%A4%A"
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Internal server error: "), rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, target := range []string{"/unknown/path", "/video", "/listing", "/files/a.mp4"} {
		rr := do(srv, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rr.Code, target)
		assert.Equal(t, "Not found", rr.Body.String(), target)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"), target)
	}
}

func TestOptions(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, target := range []string{"/", "/list", "/video/a.mp4", "/unknown/path"} {
		rr := do(srv, http.MethodOptions, target)
		assert.Equal(t, http.StatusOK, rr.Code, target)
		assert.Empty(t, rr.Body.String(), target)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestAnyMethodIsDispatchedByPath(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.mp4": "x"})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rr := do(srv, method, "/list")
		assert.Equal(t, http.StatusOK, rr.Code, method)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"), method)

		rr = do(srv, method, "/video/a.mp4")
		assert.Equal(t, http.StatusOK, rr.Code, method)
		assert.Equal(t, "x", rr.Body.String(), method)

		rr = do(srv, method, "/video/missing.mp4")
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
		assert.Equal(t, "File not found", rr.Body.String(), method)

		rr = do(srv, method, "/unknown/path")
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
		assert.Equal(t, "Not found", rr.Body.String(), method)
	}
}

func TestEncodedPathIsRoutedDecoded(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"clip.mp4": "clip-bytes"})

	rr := do(srv, http.MethodGet, "/%6Cist")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "clip.mp4")

	for _, target := range []string{"/%76ideo/clip.mp4", "/video%2Fclip.mp4", "/video/%63lip.mp4"} {
		rr := do(srv, http.MethodGet, target)
		assert.Equal(t, http.StatusOK, rr.Code, target)
		assert.Equal(t, "clip-bytes", rr.Body.String(), target)
		assert.Equal(t, "video/mp4", rr.Header().Get("Content-Type"), target)
	}
}

// rawGet sends target on the wire unmodified, bypassing client-side URL parsing.
func rawGet(t *testing.T, addr, target string) *http.Response {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", target, addr)
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// net/http rejects syntactically invalid escapes while parsing the request
// line, before the router or any middleware runs. Only escapes that parse
// but are not UTF-8 reach the decode middleware.
func TestMalformedPath_OnTheWire(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	addr := strings.TrimPrefix(ts.URL, "http://")

	t.Run("invalid escape rejected by net/http", func(t *testing.T) {
		resp := rawGet(t, addr, "/video/%E0%A4%A")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("non UTF-8 escape reaches the router", func(t *testing.T) {
		resp := rawGet(t, addr, "/video/%FF.ts")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.True(t, strings.HasPrefix(string(body), "Internal server error: "), string(body))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestManifest(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"a.m3u8":   testPlaylist,
		"bad.m3u8": "not a playlist",
		"seg0.ts":  "ts",
	})

	t.Run("summary", func(t *testing.T) {
		rr := do(srv, http.MethodGet, "/manifest/a.m3u8")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var got map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "a.m3u8", got["name"])
		assert.Equal(t, "media", got["kind"])
		assert.Equal(t, true, got["vod"])
		assert.EqualValues(t, 2, got["segmentCount"])
		assert.EqualValues(t, 10, got["targetDurationSeconds"])
		assert.InDelta(t, 19.5, got["totalDurationSeconds"], 0.001)
		assert.NotContains(t, got, "firstProgramDateTime")
	})

	t.Run("unparsable", func(t *testing.T) {
		rr := do(srv, http.MethodGet, "/manifest/bad.m3u8")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.NotEmpty(t, rr.Body.String())
	})

	t.Run("not a manifest", func(t *testing.T) {
		rr := do(srv, http.MethodGet, "/manifest/seg0.ts")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "Not an HLS manifest", rr.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		rr := do(srv, http.MethodGet, "/manifest/none.m3u8")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "File not found", rr.Body.String())
	})
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"a.mp4": "x"})

	rr := do(srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(srv, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rr.Code)

	_ = do(srv, http.MethodGet, "/video/a.mp4")
	rr = do(srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "vidserve_media_files_served_total")
	assert.Contains(t, rr.Body.String(), "vidserve_http_request_duration_seconds")
}

func TestReady_MissingRoot(t *testing.T) {
	srv := NewServer(testConfig(filepath.Join(t.TempDir(), "missing")), Deps{})

	rr := do(srv, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCachedListerDeps(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.mp4": "x"})
	accessor := media.NewAccessor(root, testBaseURL)
	lister := media.NewCachedLister(accessor, time.Hour)

	srv := NewServer(testConfig(root), Deps{Accessor: accessor, Lister: lister})

	first := do(srv, http.MethodGet, "/list")
	writeFiles(t, root, map[string]string{"b.mp4": "y"})
	second := do(srv, http.MethodGet, "/list")
	assert.Equal(t, first.Body.String(), second.Body.String())

	lister.Invalidate()
	third := do(srv, http.MethodGet, "/list")
	assert.Contains(t, third.Body.String(), "b.mp4")
}
