package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pathways/internal/api"
	"pathways/internal/workbook"
)

func TestSheetsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"sheets", "list"}, env.configPath)
	if !errors.Is(err, workbook.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound without workbook, got %v", err)
	}

	env.writeWorkbook(t)

	out, _, err := runCLI(t, []string{"sheets", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sheets list: %v", err)
	}
	var sheets api.SheetsResponse
	if err := json.Unmarshal([]byte(out), &sheets); err != nil {
		t.Fatalf("decode sheets: %v", err)
	}
	if strings.Join(sheets.Sheets, ",") != "Genes,Links" {
		t.Fatalf("unexpected sheets %v", sheets.Sheets)
	}

	out, _, err = runCLI(t, []string{"sheets", "show", "Genes", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sheets show --json: %v", err)
	}
	requireContains(t, out, `"Name": "TP53"`)
	requireContains(t, out, `"Score": 7.5`)

	out, _, err = runCLI(t, []string{"sheets", "show", "Genes", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("sheets show: %v", err)
	}
	requireContains(t, out, "TP53")
	requireContains(t, out, "Score")
	requireContains(t, out, "Showing 1 of 2 rows")

	_, _, err = runCLI(t, []string{"sheets", "show", "Missing"}, env.configPath)
	if !errors.Is(err, workbook.ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"text", "text"},
		{7.0, "7"},
		{0.25, "0.25"},
		{true, "true"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := formatCell(tt.in); got != tt.want {
			t.Fatalf("formatCell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
