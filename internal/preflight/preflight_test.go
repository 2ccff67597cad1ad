package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pathways/internal/docstore"
	"pathways/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWorkbook(t *testing.T) {
	missing := CheckWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"))
	if missing.Passed || !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("unexpected result for missing workbook: %+v", missing)
	}

	path := writeWorkbook(t)
	ok := CheckWorkbook(path)
	if !ok.Passed || !strings.Contains(ok.Detail, "1 sheets") {
		t.Fatalf("unexpected result for valid workbook: %+v", ok)
	}
}

func TestCheckStaticDir(t *testing.T) {
	if r := CheckStaticDir(t.TempDir()); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	r := CheckStaticDir(filepath.Join(t.TempDir(), "public"))
	if r.Passed || !r.Optional {
		t.Fatalf("missing static dir should be an optional failure, got %+v", r)
	}
}

func TestCheckDocument(t *testing.T) {
	store := docstore.New(docstore.Options{})
	dir := t.TempDir()

	absent := CheckDocument("doc", filepath.Join(dir, "absent.json"), store)
	if !absent.Passed || !strings.Contains(absent.Detail, "not yet saved") {
		t.Fatalf("absent document should pass, got %+v", absent)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDocument("doc", corrupt, store); r.Passed {
		t.Fatalf("corrupt document should fail, got %+v", r)
	}

	valid := filepath.Join(dir, "valid.json")
	if err := store.Write(valid, map[string]int{}); err != nil {
		t.Fatal(err)
	}
	if r := CheckDocument("doc", valid, store); !r.Passed {
		t.Fatalf("valid document should pass, got %+v", r)
	}
}

func TestCheckListener_RunningServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	bind := strings.TrimPrefix(srv.URL, "http://")
	r := CheckListener(context.Background(), bind)
	if !r.Passed || !strings.Contains(r.Detail, "server running") {
		t.Fatalf("expected running server, got %+v", r)
	}
}

func TestCheckListener_Busy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	r := CheckListener(context.Background(), ln.Addr().String())
	if r.Passed {
		t.Fatalf("expected busy address to fail, got %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteWorkbook(t, cfg.Paths.Workbook, testsupport.Sheet{Name: "Sheet1", Rows: [][]any{{"id"}}})

	results := RunAll(context.Background(), cfg, nil)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("expected no required failures")
	}

	cfg.Paths.Workbook = filepath.Join(t.TempDir(), "absent.xlsx")
	if !Failed(RunAll(context.Background(), cfg, nil)) {
		t.Fatal("missing workbook should fail the run")
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	testsupport.WriteWorkbook(t, path, testsupport.Sheet{Name: "Sheet1", Rows: [][]any{{"id"}}})
	return path
}
