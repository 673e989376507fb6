// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCachedLister_ServesFromCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.m3u8", []byte("#EXTM3U\n"))

	c := NewCachedLister(NewAccessor(root, testBaseURL), time.Hour)

	first, err := c.ListMedia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.m3u8"}, first.Files)

	writeFile(t, root, "b.ts", []byte{0})
	second, err := c.ListMedia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second, "listing should come from cache")

	c.Invalidate()
	third, err := c.ListMedia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.m3u8", "b.ts"}, third.Files)
}

func TestCachedLister_DoesNotCacheErrors(t *testing.T) {
	root := filepath.Join(t.TempDir(), "later")
	c := NewCachedLister(NewAccessor(root, testBaseURL), time.Hour)

	_, err := c.ListMedia(context.Background())
	require.Error(t, err)

	require.NoError(t, os.Mkdir(root, 0o750))
	got, err := c.ListMedia(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Files)
}

func TestCachedLister_WatchInvalidates(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	c := NewCachedLister(NewAccessor(root, testBaseURL), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()

	_, err := c.ListMedia(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		writeFile(t, root, "new.ts", []byte{0})
		l, err := c.ListMedia(context.Background())
		return err == nil && slices.Contains(l.Files, "new.ts")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestCachedLister_WatchMissingRoot(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := filepath.Join(t.TempDir(), "missing")
	c := NewCachedLister(NewAccessor(root, testBaseURL), time.Hour)

	assert.NoError(t, c.Watch(context.Background()))
}
