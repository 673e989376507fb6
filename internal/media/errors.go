// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested name does not resolve to a
// regular file below the root. Use errors.Is to test for it.
var ErrNotFound = errors.New("file not found")

// FilesystemError reports a filesystem failure other than a missing file,
// such as an unreadable root directory.
type FilesystemError struct {
	Op  string // operation, e.g. "list media"
	Err error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}
