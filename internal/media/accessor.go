// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package media resolves, lists and reads files below a single root directory.
package media

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/rs/zerolog"
)

// Listing is the media inventory of the root directory. JSON keys match
// what the player front end reads.
type Listing struct {
	RootDir       string   `json:"videoDir"`
	Files         []string `json:"files"`
	ManifestFiles []string `json:"m3u8Files"`
	PlayableURLs  []string `json:"urls"`
}

// File is one resolved file ready for delivery.
type File struct {
	Name     string
	Path     string
	Size     int64
	MIMEType string
	ModTime  time.Time
	Content  []byte
}

// Lister produces directory listings.
type Lister interface {
	ListMedia(ctx context.Context) (Listing, error)
}

// Accessor performs all filesystem access for one root directory. It holds no
// mutable state and is safe for concurrent use.
type Accessor struct {
	root    string
	baseURL string
	logger  zerolog.Logger
}

// NewAccessor returns an Accessor for root. Playable URLs are rendered below
// baseURL + "/video/". The root is not checked here; it is read on demand.
func NewAccessor(root, baseURL string) *Accessor {
	return &Accessor{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  xglog.WithComponent("media"),
	}
}

// Root returns the configured root directory.
func (a *Accessor) Root() string { return a.root }

// VideoURL returns the absolute delivery URL for name.
func (a *Accessor) VideoURL(name string) string {
	return a.baseURL + "/video/" + url.PathEscape(name)
}

// ListMedia lists the media files directly inside the root.
func (a *Accessor) ListMedia(ctx context.Context) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	entries, err := os.ReadDir(a.root)
	if err != nil {
		return Listing{}, &FilesystemError{Op: "list media", Err: err}
	}

	listing := Listing{
		RootDir:       a.root,
		Files:         []string{},
		ManifestFiles: []string{},
		PlayableURLs:  []string{},
	}
	for _, e := range entries {
		name := e.Name()
		// Entries are filtered by name only, like a plain readdir.
		if !IsMedia(name) {
			continue
		}
		listing.Files = append(listing.Files, name)
		if IsManifest(name) {
			listing.ManifestFiles = append(listing.ManifestFiles, name)
		}
		if IsPlayable(name) {
			listing.PlayableURLs = append(listing.PlayableURLs, a.VideoURL(name))
		}
	}

	logger := xglog.WithContext(ctx, a.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "media.listed").
		Str(xglog.FieldRootDir, a.root).
		Int("files", len(listing.Files)).
		Msg("listed media directory")
	return listing, nil
}

// ResolveFile resolves name below the root and reads it fully into memory.
// It returns an error wrapping ErrNotFound when name is missing, is not a
// regular file, or would resolve outside the root.
func (a *Accessor) ResolveFile(ctx context.Context, name string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := confine(a.root, name)
	if err != nil {
		if errors.Is(err, errEscape) {
			logger := xglog.WithContext(ctx, a.logger)
			logger.Warn().
				Str(xglog.FieldEvent, "media.path_escape").
				Str(xglog.FieldFile, name).
				Msg("rejected path outside root")
			return nil, notFound(name)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name)
		}
		return nil, &FilesystemError{Op: "resolve " + name, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name)
		}
		return nil, &FilesystemError{Op: "stat " + name, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, notFound(name)
	}

	// #nosec G304 -- path is confined to the root directory
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name)
		}
		return nil, &FilesystemError{Op: "read " + name, Err: err}
	}

	return &File{
		Name:     name,
		Path:     path,
		Size:     int64(len(content)),
		MIMEType: MIMEType(name),
		ModTime:  info.ModTime(),
		Content:  content,
	}, nil
}
