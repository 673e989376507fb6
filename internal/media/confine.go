// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/text/unicode/norm"
)

// errEscape marks a name that would leave the root.
var errEscape = errors.New("path escapes root")

// hasTraversal reports whether name contains a ".." segment, either literally
// or after NFKC folding (which maps look-alikes such as U+2024 to '.').
func hasTraversal(name string) bool {
	for _, candidate := range []string{name, norm.NFKC.String(name)} {
		for _, seg := range strings.FieldsFunc(candidate, isSeparator) {
			if seg == ".." {
				return true
			}
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// confine joins name below root and returns the symlink-free absolute path.
// The result is guaranteed to lie inside the canonical root. Missing paths
// yield fs.ErrNotExist; escapes yield errEscape.
func confine(root, name string) (string, error) {
	if strings.ContainsRune(name, 0) || strings.Contains(name, "\\") || hasTraversal(name) {
		return "", errEscape
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}

	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(name, "/")))
	if rel == "." {
		return "", fs.ErrNotExist
	}

	realPath, err := filepath.EvalSymlinks(filepath.Join(realRoot, rel))
	if err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return "", fs.ErrNotExist
		}
		return "", err
	}

	back, err := filepath.Rel(realRoot, realPath)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) || filepath.IsAbs(back) {
		return "", errEscape
	}
	return realPath, nil
}
