// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/vidserve/internal/cache"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const listingKey = "listing"

// CachedLister serves listings from memory for up to ttl and drops the cached
// value as soon as the root directory reports a change. Failed listings are
// never cached.
type CachedLister struct {
	accessor *Accessor
	ttl      time.Duration
	cache    *cache.Memory[Listing]
	logger   zerolog.Logger
}

// NewCachedLister wraps accessor with a listing cache.
func NewCachedLister(accessor *Accessor, ttl time.Duration) *CachedLister {
	return &CachedLister{
		accessor: accessor,
		ttl:      ttl,
		cache:    cache.NewMemory[Listing](0),
		logger:   xglog.WithComponent("media.cache"),
	}
}

// ListMedia returns the cached listing or reads the root directory.
func (c *CachedLister) ListMedia(ctx context.Context) (Listing, error) {
	if l, ok := c.cache.Get(listingKey); ok {
		metrics.RecordListing("cache")
		return l, nil
	}

	l, err := c.accessor.ListMedia(ctx)
	if err != nil {
		return Listing{}, err
	}
	metrics.RecordListing("disk")
	c.cache.Set(listingKey, l, c.ttl)
	return l, nil
}

// Invalidate drops the cached listing.
func (c *CachedLister) Invalidate() {
	c.cache.Delete(listingKey)
}

// Watch invalidates the cache on every filesystem event in the root until ctx
// is cancelled. If the root cannot be watched (it might not exist yet) Watch
// logs a warning and returns nil; entries then simply expire after ttl.
func (c *CachedLister) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.accessor.Root()); err != nil {
		c.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "media.watch_disabled").
			Str(xglog.FieldRootDir, c.accessor.Root()).
			Msg("cannot watch root directory, relying on cache expiry")
		return nil
	}

	c.logger.Info().
		Str(xglog.FieldEvent, "media.watch_started").
		Str(xglog.FieldRootDir, c.accessor.Root()).
		Dur("ttl", c.ttl).
		Msg("watching root directory for changes")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Str(xglog.FieldEvent, "media.watch_stopped").Msg("root directory watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.Invalidate()
			metrics.RecordCacheInvalidation()
			c.logger.Debug().
				Str(xglog.FieldEvent, "media.changed").
				Str("op", event.Op.String()).
				Str(xglog.FieldFile, event.Name).
				Msg("root directory changed, listing cache dropped")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Invalidate()
			c.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "media.watch_error").
				Msg("root directory watcher error")
		}
	}
}
