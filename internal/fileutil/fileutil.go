package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CommitHook runs after the staged file is fully written and synced but
// before it is renamed onto the destination. Returning an error aborts the
// write and leaves the destination untouched.
type CommitHook func(tmpPath string) error

// WriteFileAtomic replaces path with data using a temp sibling and rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteFileAtomicHook(path, data, perm, nil)
}

// WriteFileAtomicHook is WriteFileAtomic with a hook between staging and commit.
//
// Readers of path observe either the previous content or data, never a
// partial file. The staging file is created next to path so the rename never
// crosses a filesystem boundary, and it is removed on every failure path.
func WriteFileAtomicHook(path string, data []byte, perm os.FileMode, beforeCommit CommitHook) error {
	tmpPath, err := stage(path, data, perm)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	if beforeCommit != nil {
		if err := beforeCommit(tmpPath); err != nil {
			return err
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	// The rename is durable only once the directory entry is flushed. Some
	// filesystems refuse fsync on directories; the data is already in place.
	_ = syncDir(filepath.Dir(path))
	return nil
}

// WriteFileIfAbsent writes data to path only when nothing exists there yet.
// The staged file is hard-linked into place, so a file that appears between
// the check and the commit is never replaced. created is false when path
// already existed.
func WriteFileIfAbsent(path string, data []byte, perm os.FileMode) (created bool, err error) {
	tmpPath, err := stage(path, data, perm)
	if err != nil {
		return false, err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("link temp file: %w", err)
	}
	_ = syncDir(filepath.Dir(path))
	return true, nil
}

// RemoveStaleStaging deletes staging siblings of path left behind by writes
// that never reached their commit, such as after a hard crash. Only files
// last modified before olderThan ago are removed so in-flight writes survive.
func RemoveStaleStaging(path string, olderThan time.Duration) (int, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + ".tmp"
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := RemoveIfExists(filepath.Join(dir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// stage writes data to a synced temp sibling of path and returns its name.
// The caller owns removal of the staged file.
func stage(path string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(format string, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf(format, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmpPath, nil
}

// Exists reports whether a regular file or directory exists at path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
