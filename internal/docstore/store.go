package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pathways/internal/fileutil"
	"pathways/internal/logging"
	"pathways/internal/metrics"
)

var (
	// ErrNotFound reports that no document exists at the requested path.
	ErrNotFound = errors.New("document not found")
	// ErrCorrupt reports that a document exists but is not valid JSON.
	ErrCorrupt = errors.New("document is not valid JSON")
	// ErrIO wraps filesystem failures while reading, writing or deleting.
	ErrIO = errors.New("document i/o failed")
)

const defaultPerm fs.FileMode = 0o644

var emptyObject = []byte("{}")

// Options configures a Store.
type Options struct {
	Logger *slog.Logger
	// Perm is applied to written documents. Zero means 0644.
	Perm fs.FileMode
	// BeforeCommit runs after the staging file is durable and before it is
	// renamed over the destination. A non-nil error aborts the write.
	BeforeCommit fileutil.CommitHook
}

// Store reads and atomically replaces whole JSON documents on disk.
type Store struct {
	logger       *slog.Logger
	perm         fs.FileMode
	beforeCommit fileutil.CommitHook
}

// New creates a Store.
func New(opts Options) *Store {
	perm := opts.Perm
	if perm == 0 {
		perm = defaultPerm
	}
	return &Store{
		logger:       logging.NewComponentLogger(opts.Logger, "docstore"),
		perm:         perm,
		beforeCommit: opts.BeforeCommit,
	}
}

// Write encodes value with two-space indentation and replaces the document at
// path. Readers observe either the previous document or the new one, never a
// mix, and a failed write leaves the previous document in place.
func (s *Store) Write(path string, value any) (err error) {
	name := filepath.Base(path)
	defer func() { s.record(name, "write", err) }()

	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", name, ErrIO, err)
	}

	if err := fileutil.WriteFileAtomicHook(path, data, s.perm, s.beforeCommit); err != nil {
		return fmt.Errorf("write %s: %w: %w", name, ErrIO, err)
	}

	s.logger.Debug("document written",
		logging.String(logging.FieldDocument, name),
		logging.Int("bytes", len(data)))
	return nil
}

// Create writes value to path only when no document exists there. It never
// replaces a document, even one that appears while Create runs, and reports
// whether it created the file.
func (s *Store) Create(path string, value any) (created bool, err error) {
	name := filepath.Base(path)
	defer func() { s.record(name, "create", err) }()

	data, err := encode(value)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w: %w", name, ErrIO, err)
	}
	created, err = fileutil.WriteFileIfAbsent(path, data, s.perm)
	if err != nil {
		return false, fmt.Errorf("create %s: %w: %w", name, ErrIO, err)
	}
	if created {
		s.logger.Debug("document created",
			logging.String(logging.FieldDocument, name),
			logging.Int("bytes", len(data)))
	}
	return created, nil
}

// CleanStaging removes staging files for path that were abandoned before
// commit and are older than olderThan.
func (s *Store) CleanStaging(path string, olderThan time.Duration) (int, error) {
	removed, err := fileutil.RemoveStaleStaging(path, olderThan)
	if err != nil {
		return removed, fmt.Errorf("clean staging for %s: %w: %w", filepath.Base(path), ErrIO, err)
	}
	if removed > 0 {
		s.logger.Info("removed abandoned staging files",
			logging.String(logging.FieldDocument, filepath.Base(path)),
			logging.Int("count", removed))
	}
	return removed, nil
}

// ReadRaw returns the document bytes after checking they hold a JSON value.
// An empty file reads as an empty object.
func (s *Store) ReadRaw(path string) (data []byte, err error) {
	name := filepath.Base(path)
	defer func() { s.record(name, "read", err) }()

	data, err = os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w: %w", name, ErrIO, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return append([]byte(nil), emptyObject...), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read %s: %w", name, ErrCorrupt)
	}
	return data, nil
}

// Read decodes the document at path into dst.
func (s *Store) Read(path string, dst any) error {
	data, err := s.ReadRaw(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w: %w", filepath.Base(path), ErrCorrupt, err)
	}
	return nil
}

// Exists reports whether a document is present at path.
func (s *Store) Exists(path string) (bool, error) {
	ok, err := fileutil.Exists(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w: %w", filepath.Base(path), ErrIO, err)
	}
	return ok, nil
}

// Delete removes the document at path. A missing document is not an error.
func (s *Store) Delete(path string) (err error) {
	name := filepath.Base(path)
	defer func() { s.record(name, "delete", err) }()

	if err := fileutil.RemoveIfExists(path); err != nil {
		return fmt.Errorf("delete %s: %w: %w", name, ErrIO, err)
	}
	s.logger.Debug("document deleted", logging.String(logging.FieldDocument, name))
	return nil
}

func (s *Store) record(name, op string, err error) {
	metrics.DocumentOps.WithLabelValues(name, op, metrics.Result(err)).Inc()
}

func encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
