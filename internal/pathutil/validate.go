// Package pathutil confines file paths supplied by MCP clients to
// directories ecalab is allowed to write exports into.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideAllowed is wrapped by ResolvePath when a path escapes every
// allowed directory.
var ErrOutsideAllowed = errors.New("outside allowed directories")

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/home/user/.ecalab/exports/run.json" becomes ".../exports/run.json".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// ValidatePath checks that path lies within one of allowedDirs.
func ValidatePath(path string, allowedDirs []string) error {
	_, err := ResolvePath(path, allowedDirs)
	return err
}

// ResolvePath returns the absolute, symlink-resolved form of path if it lies
// within one of allowedDirs. Neither path nor its parents need to exist yet.
func ResolvePath(path string, allowedDirs []string) (string, error) {
	switch {
	case path == "":
		return "", fmt.Errorf("path validation failed: path is empty")
	case len(allowedDirs) == 0:
		return "", fmt.Errorf("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, '\x00'):
		return "", fmt.Errorf("path validation failed: path contains null byte")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}

	// Resolve the parent only: the file itself is usually about to be created.
	resolvedDir, err := resolveExistingParent(filepath.Dir(absPath))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve parent directory: %w", err)
	}
	resolved := filepath.Join(resolvedDir, filepath.Base(absPath))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExistingParent(allowedAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolved, allowedResolved) {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("path validation failed: %q is %w", RedactPath(absPath), ErrOutsideAllowed)
}

// resolveExistingParent resolves symlinks on the deepest existing ancestor
// of dir and re-appends the missing tail.
func resolveExistingParent(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}

	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path is base or lies beneath it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

// DefaultAllowedExportDirs returns ~/.ecalab/exports.
func DefaultAllowedExportDirs() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{filepath.Join(homeDir, ".ecalab", "exports")}, nil
}

// AllowedExportDirsWith returns DefaultAllowedExportDirs plus extra, skipping
// empty entries.
func AllowedExportDirsWith(extra ...string) ([]string, error) {
	dirs, err := DefaultAllowedExportDirs()
	if err != nil {
		return nil, err
	}
	for _, d := range extra {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs, nil
}
