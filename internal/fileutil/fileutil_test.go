package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "doc.json")

	if err := WriteFileAtomic(dst, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("content mismatch: got %q", got)
	}
	assertNoStaging(t, dir)
}

func TestWriteFileAtomic_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "doc.json")

	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(dst, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content mismatch: got %q, want %q", got, "new")
	}
}

func TestWriteFileAtomic_CreatesParentDir(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "deeper", "doc.json")
	if err := WriteFileAtomic(dst, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := Exists(dst); err != nil || !ok {
		t.Fatalf("expected %s to exist (err=%v)", dst, err)
	}
}

func TestWriteFileAtomicHook_AbortKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(dst, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	crash := errors.New("simulated crash")
	var staged string
	err := WriteFileAtomicHook(dst, []byte("replacement"), 0o644, func(tmpPath string) error {
		staged = tmpPath
		data, readErr := os.ReadFile(tmpPath)
		if readErr != nil {
			t.Fatalf("read staged file: %v", readErr)
		}
		if string(data) != "replacement" {
			t.Fatalf("staged content mismatch: got %q", data)
		}
		if !strings.HasPrefix(filepath.Base(tmpPath), "doc.json.tmp") {
			t.Fatalf("unexpected staging name %q", filepath.Base(tmpPath))
		}
		return crash
	})
	if !errors.Is(err, crash) {
		t.Fatalf("expected hook error, got %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original" {
		t.Fatalf("original clobbered: got %q", got)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("expected staging file %s to be removed, stat err=%v", staged, err)
	}
}

func TestWriteFileAtomicHook_AbortWithoutOriginal(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "doc.json")

	err := WriteFileAtomicHook(dst, []byte("x"), 0o644, func(string) error {
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if ok, _ := Exists(dst); ok {
		t.Fatal("destination should still be absent")
	}
	assertNoStaging(t, dir)
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone")

	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatal(err)
	}
	if ok, _ := Exists(path); ok {
		t.Fatal("file should be removed")
	}
}

func TestWriteFileIfAbsent(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "doc.json")

	created, err := WriteFileIfAbsent(dst, []byte("first"), 0o644)
	if err != nil || !created {
		t.Fatalf("first write: created=%v err=%v", created, err)
	}
	created, err = WriteFileIfAbsent(dst, []byte("second"), 0o644)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if created {
		t.Fatal("existing file must not be replaced")
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "first" {
		t.Fatalf("content = %q, want first", got)
	}
	assertNoStaging(t, dir)
}

func TestRemoveStaleStaging(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "doc.json")
	old := time.Now().Add(-time.Hour)

	stale := filepath.Join(dir, "doc.json.tmp123")
	fresh := filepath.Join(dir, "doc.json.tmp456")
	other := filepath.Join(dir, "other.json.tmp789")
	for _, p := range []string{dst, stale, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []string{stale, other} {
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := RemoveStaleStaging(dst, time.Minute)
	if err != nil {
		t.Fatalf("RemoveStaleStaging: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if ok, _ := Exists(stale); ok {
		t.Fatal("stale staging file should be removed")
	}
	for _, p := range []string{dst, fresh, other} {
		if ok, _ := Exists(p); !ok {
			t.Fatalf("%s should be kept", filepath.Base(p))
		}
	}

	if n, err := RemoveStaleStaging(filepath.Join(dir, "missing", "doc.json"), 0); err != nil || n != 0 {
		t.Fatalf("missing directory: n=%d err=%v", n, err)
	}
}

func assertNoStaging(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp") {
			t.Fatalf("leftover staging file %s", entry.Name())
		}
	}
}
