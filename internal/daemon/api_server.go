package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"pathways/internal/api"
	"pathways/internal/config"
	"pathways/internal/docstore"
	"pathways/internal/layout"
	"pathways/internal/logging"
	"pathways/internal/metrics"
)

type apiServer struct {
	bind        string
	logger      *slog.Logger
	stores      Stores
	maxBody     int64
	corsOrigins []string
	token       string
	handler     http.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, stores Stores, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:        strings.TrimSpace(cfg.Server.Bind),
		logger:      logger,
		stores:      stores,
		maxBody:     cfg.Server.MaxBodyBytes,
		corsOrigins: cfg.Server.CORSOrigins,
		token:       strings.TrimSpace(cfg.Server.APIToken),
	}

	mux := http.NewServeMux()
	srv.route(mux, "GET /api/layout", srv.handleGetLayout)
	srv.route(mux, "POST /api/layout", srv.handleSaveLayout)
	srv.route(mux, "DELETE /api/layout", srv.handleResetLayout)
	srv.route(mux, "GET /api/organelles", srv.handleGetOrganelles)
	srv.route(mux, "POST /api/organelles", srv.handleSaveOrganelles)
	srv.route(mux, "DELETE /api/organelles", srv.handleResetOrganelles)
	srv.route(mux, "GET /api/sheets", srv.handleSheets)
	srv.route(mux, "GET /api/data/{sheetName}", srv.handleSheetData)
	mux.Handle("GET /healthz", instrument("/healthz", http.HandlerFunc(srv.handleHealth)))
	if cfg.Server.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	if dir := strings.TrimSpace(cfg.Paths.StaticDir); dir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(dir)))
	}

	srv.handler = chain(mux,
		recoverMiddleware(srv.log()),
		requestIDMiddleware(srv.log()),
		corsMiddleware(srv.corsOrigins),
	)
	return srv
}

// route registers an authenticated, instrumented API handler. The metrics
// label is the path part of the pattern so label cardinality stays fixed.
func (s *apiServer) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	path := pattern
	if _, after, ok := strings.Cut(pattern, " "); ok {
		path = after
	}
	mux.Handle(pattern, instrument(path, authMiddleware(s.token, h)))
}

func (s *apiServer) start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.server = server

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.log(), "api server error", "server_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		s.server = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	positions, err := s.stores.Positions.Get(r.Context())
	if err != nil {
		msg := err.Error()
		if errors.Is(err, docstore.ErrNotFound) {
			msg = "layout file not found"
		}
		s.fail(w, r, err, msg)
		return
	}
	s.writeJSON(w, http.StatusOK, positions)
}

func (s *apiServer) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	count, err := s.stores.Positions.Save(r.Context(), layout.UnwrapPositions(body))
	if err != nil {
		msg := err.Error()
		if api.StatusFor(err) == http.StatusBadRequest {
			msg = "invalid positions payload"
		}
		s.fail(w, r, err, msg)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SaveLayoutResponse{OK: true, Count: count})
}

func (s *apiServer) handleResetLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.stores.Positions.Reset(r.Context()); err != nil {
		s.fail(w, r, err, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.OKResponse{OK: true})
}

func (s *apiServer) handleGetOrganelles(w http.ResponseWriter, r *http.Request) {
	doc, err := s.stores.Organelles.Get(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to read organelles layout.")
		return
	}
	s.writeRaw(w, http.StatusOK, doc)
}

func (s *apiServer) handleSaveOrganelles(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := s.stores.Organelles.Save(r.Context(), body); err != nil {
		msg := "Failed to save organelles layout."
		if api.StatusFor(err) == http.StatusBadRequest {
			msg = "invalid JSON body"
		}
		s.fail(w, r, err, msg)
		return
	}
	s.writeJSON(w, http.StatusOK, api.OKResponse{OK: true})
}

func (s *apiServer) handleResetOrganelles(w http.ResponseWriter, r *http.Request) {
	if err := s.stores.Organelles.Reset(r.Context()); err != nil {
		s.fail(w, r, err, "Failed to reset organelles layout.")
		return
	}
	s.writeJSON(w, http.StatusOK, api.OKResponse{OK: true})
}

func (s *apiServer) handleSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := s.stores.Workbook.Sheets(r.Context())
	if err != nil {
		msg := "failed to read workbook; check that it is not encrypted or damaged"
		if api.StatusFor(err) == http.StatusNotFound {
			msg = "workbook file not found"
		}
		s.fail(w, r, err, msg)
		return
	}
	if sheets == nil {
		sheets = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.SheetsResponse{Sheets: sheets})
}

func (s *apiServer) handleSheetData(w http.ResponseWriter, r *http.Request) {
	sheet := r.PathValue("sheetName")
	rows, err := s.stores.Workbook.Rows(r.Context(), sheet)
	if err != nil {
		s.fail(w, r, err, workbookMessage(err))
		return
	}
	if rows == nil {
		s.writeRaw(w, http.StatusOK, json.RawMessage("[]"))
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{OK: true, Version: Version})
}

// readBody reads the capped request body. Malformed JSON and oversize bodies
// are answered here; ok is false when a response has already been written.
func (s *apiServer) readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	reader := io.Reader(r.Body)
	if s.maxBody > 0 {
		reader = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.log()), "request body too large", "body_too_large",
				logging.String("path", r.URL.Path),
				logging.Int64("limit", tooLarge.Limit),
				logging.String(logging.FieldErrorHint, "raise server.max_body_bytes"),
				logging.String(logging.FieldImpact, "request rejected"))
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && !json.Valid([]byte(trimmed)) {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.log()), "malformed request body", "invalid_json",
			logging.String("path", r.URL.Path),
			logging.String(logging.FieldErrorHint, "send a JSON document"),
			logging.String(logging.FieldImpact, "request rejected"))
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return body, true
}

// fail logs err at a level matching its status class and writes msg.
func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := api.StatusFor(err)
	logger := logging.WithContext(r.Context(), s.log())
	attrs := []logging.Attr{
		logging.String("method", r.Method),
		logging.String("path", r.URL.Path),
		logging.Int("status", status),
		logging.Error(err),
	}
	switch {
	case status >= http.StatusInternalServerError:
		logging.ErrorWithContext(logger, "request failed", api.EventType(err), attrs...)
	case status == http.StatusNotFound:
		logger.Debug("resource not found", logging.Args(append(attrs, logging.String(logging.FieldEventType, api.EventType(err)))...)...)
	default:
		logging.WarnWithContext(logger, "request rejected", api.EventType(err),
			append(attrs, logging.String(logging.FieldImpact, "request rejected"))...)
	}
	s.writeError(w, status, msg)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		s.log().Warn("api response encode failed", logging.Error(err))
	}
}

func (s *apiServer) writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}

func workbookMessage(err error) string {
	switch api.EventType(err) {
	case "workbook_missing":
		return "workbook file not found"
	case "sheet_missing":
		return "sheet not found"
	default:
		return err.Error()
	}
}
