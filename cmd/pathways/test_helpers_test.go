package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pathways/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	workbook   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("PATHWAYS_API_TOKEN", "")
	t.Setenv("PATHWAYS_WORKBOOK", "")

	dataDir := filepath.Join(base, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data: %v", err)
	}
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "pathways.toml"),
		workbook:   filepath.Join(dataDir, "N related.xlsx"),
	}
	writeTestConfig(t, env.configPath, dataDir)
	return env
}

func writeTestConfig(t *testing.T, path, dataDir string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nstatic_dir = \"\"\n\n[server]\nbind = \"127.0.0.1:0\"\n",
		dataDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) writeWorkbook(t *testing.T) {
	t.Helper()
	testsupport.WriteWorkbook(t, e.workbook,
		testsupport.Sheet{Name: "Genes", Rows: [][]any{{"Name", "Score"}, {"TP53", 7.5}, {"MDM2", 2}}},
		testsupport.Sheet{Name: "Links", Rows: [][]any{{"From", "To"}}},
	)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
