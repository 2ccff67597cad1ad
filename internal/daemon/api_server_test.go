package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pathways/internal/api"
	"pathways/internal/config"
	"pathways/internal/layout"
	"pathways/internal/testsupport"
)

type testEnv struct {
	cfg     *config.Config
	handler http.Handler
	hook    func(string) error
}

func newTestEnv(t *testing.T, opts ...testsupport.ConfigOption) *testEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	env := &testEnv{cfg: cfg}
	built := testsupport.NewStores(t, cfg, func(tmp string) error {
		if env.hook != nil {
			return env.hook(tmp)
		}
		return nil
	})
	stores := Stores{
		Positions:  built.Positions,
		Organelles: built.Organelles,
		Workbook:   built.Workbook,
	}
	env.handler = newAPIServer(cfg, stores, nil).handler
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestLayoutLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/layout", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first save, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "layout file not found" {
		t.Fatalf("unexpected error message %q", msg)
	}

	w = env.do(t, http.MethodPost, "/api/layout", `{"positions":{"A":{"x":1,"y":2},"B":{"x":3,"y":4}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var saved api.SaveLayoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode save response: %v", err)
	}
	if !saved.OK || saved.Count != 2 {
		t.Fatalf("unexpected save response %+v", saved)
	}

	w = env.do(t, http.MethodGet, "/api/layout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var got map[string]map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if got["B"]["x"] != 3 || got["A"]["y"] != 2 {
		t.Fatalf("unexpected layout %v", got)
	}

	w = env.do(t, http.MethodDelete, "/api/layout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if _, err := os.Stat(env.cfg.PositionsPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected positions file removed, stat err=%v", err)
	}
	if w = env.do(t, http.MethodGet, "/api/layout", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after reset, got %d", w.Code)
	}
}

func TestSaveLayoutBareMapping(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/layout", `{"n1":{"x":5,"y":6}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data, err := os.ReadFile(env.cfg.PositionsPath())
	if err != nil {
		t.Fatalf("read positions: %v", err)
	}
	if !strings.Contains(string(data), `"n1"`) || strings.Contains(string(data), `"positions"`) {
		t.Fatalf("unexpected file content %s", data)
	}
}

func TestSaveLayoutRejectsNonObject(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{"null", "42", `{"positions":[1,2]}x`} {
		w := env.do(t, http.MethodPost, "/api/layout", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
	if _, err := os.Stat(env.cfg.PositionsPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rejected payload must not create a file, stat err=%v", err)
	}
}

func TestSaveLayoutFailureKeepsPrevious(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodPost, "/api/layout", `{"a":{"x":1,"y":1}}`); w.Code != http.StatusOK {
		t.Fatalf("seed save failed: %d", w.Code)
	}
	env.hook = func(string) error { return errors.New("simulated crash") }

	w := env.do(t, http.MethodPost, "/api/layout", `{"b":{"x":2,"y":2}}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	env.hook = nil

	w = env.do(t, http.MethodGet, "/api/layout", "")
	if !strings.Contains(w.Body.String(), `"a"`) || strings.Contains(w.Body.String(), `"b"`) {
		t.Fatalf("previous layout not preserved: %s", w.Body.String())
	}
}

func TestOrganellesBootstrapSaveReset(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/organelles", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var doc layout.OrganelleDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode default document: %v", err)
	}
	if doc.Version != layout.OrganelleVersion || doc.CoordMode != layout.CoordModeWorld {
		t.Fatalf("unexpected default document %+v", doc)
	}
	if _, err := os.Stat(env.cfg.OrganellesPath()); err != nil {
		t.Fatalf("expected bootstrap file: %v", err)
	}

	w = env.do(t, http.MethodPost, "/api/organelles", `{"version":3,"organelles":{"nucleus":{"x":1}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/organelles", "")
	if !strings.Contains(w.Body.String(), "nucleus") {
		t.Fatalf("saved organelles not returned: %s", w.Body.String())
	}

	for i := 0; i < 2; i++ {
		if w = env.do(t, http.MethodDelete, "/api/organelles", ""); w.Code != http.StatusOK {
			t.Fatalf("reset %d: expected 200, got %d", i, w.Code)
		}
	}
	w = env.do(t, http.MethodGet, "/api/organelles", "")
	if strings.Contains(w.Body.String(), "nucleus") {
		t.Fatalf("reset did not restore default: %s", w.Body.String())
	}
}

func TestOrganellesRejectsMalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/organelles", `{"version":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "invalid JSON body" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t, testsupport.WithMaxBodyBytes(16))
	w := env.do(t, http.MethodPost, "/api/layout", `{"a":{"x":1,"y":1},"b":{"x":2,"y":2}}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestAuthRequiredWhenTokenSet(t *testing.T) {
	env := newTestEnv(t, testsupport.WithAPIToken("secret"))

	if w := env.do(t, http.MethodGet, "/api/organelles", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/organelles", "", "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/organelles", "", "Authorization", "Bearer secret"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz should not require auth, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodOptions, "/api/layout", "",
		"Origin", "http://example.test",
		"Access-Control-Request-Method", "POST")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Fatalf("DELETE missing from allowed methods")
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	env := newTestEnv(t, testsupport.WithCORSOrigins("http://ok.test"))
	w := env.do(t, http.MethodGet, "/healthz", "", "Origin", "http://ok.test")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ok.test" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
	w = env.do(t, http.MethodGet, "/healthz", "", "Origin", "http://other.test")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "", requestIDHeader, "abc-123")
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	w = env.do(t, http.MethodGet, "/healthz", "")
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestSheetEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/sheets", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without workbook, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "workbook file not found" {
		t.Fatalf("unexpected message %q", msg)
	}

	testsupport.WriteWorkbook(t, env.cfg.Paths.Workbook, testsupport.Sheet{
		Name: "Genes",
		Rows: [][]any{{"Name", "Score"}, {"TP53", 7}},
	})

	w = env.do(t, http.MethodGet, "/api/sheets", "")
	if w.Code != http.StatusOK {
		t.Fatalf("sheets: expected 200, got %d", w.Code)
	}
	var sheets api.SheetsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &sheets); err != nil {
		t.Fatalf("decode sheets: %v", err)
	}
	if len(sheets.Sheets) != 1 || sheets.Sheets[0] != "Genes" {
		t.Fatalf("unexpected sheets %v", sheets.Sheets)
	}

	w = env.do(t, http.MethodGet, "/api/data/Genes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("data: expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `[{"Name":"TP53","Score":7}]` {
		t.Fatalf("unexpected rows %s", body)
	}

	w = env.do(t, http.MethodGet, "/api/data/Missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing sheet, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "sheet not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t, testsupport.WithStaticDir())
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.StaticDir, "index.html"), "<h1>pathways</h1>")
	w := env.do(t, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pathways") {
		t.Fatalf("unexpected static response %d %q", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", "")
	w := env.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pathways_http_requests_total") {
		t.Fatalf("request counter missing from metrics output")
	}

	disabled := newTestEnv(t, testsupport.WithMetricsDisabled())
	if w := disabled.do(t, http.MethodGet, "/metrics", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with metrics disabled, got %d", w.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		recoverMiddleware(nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
