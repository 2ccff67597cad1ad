package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Workbook", statusError, "missing.xlsx (error: does not exist)", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Workbook:", "[ERROR] missing.xlsx (error: does not exist)")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Data directory", statusOK, "/srv/pathways (read/write ok)", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
	if warn := renderStatusLine("Static files", statusWarn, "", true); !strings.HasPrefix(warn, ansiYellow) {
		t.Fatalf("expected yellow prefix, got %q", warn)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	var out bytes.Buffer
	got := renderTable(&out, []string{"Node", "X", "Y"}, [][]string{{"a", "1"}}, []columnAlignment{alignLeft, alignRight, alignRight})
	if !strings.Contains(got, "Node") || strings.Contains(got, "NODE") || !strings.Contains(got, "a") {
		t.Fatalf("expected headers as written:\n%s", got)
	}
	if renderTable(&out, nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
