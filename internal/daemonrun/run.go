package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"pathways/internal/config"
	"pathways/internal/daemon"
	"pathways/internal/docstore"
	"pathways/internal/layout"
	"pathways/internal/logging"
	"pathways/internal/preflight"
	"pathways/internal/workbook"
)

// staleStagingAge is how old an uncommitted staging file must be before the
// server treats it as abandoned.
const staleStagingAge = time.Minute

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Ready, when set, receives the listen address once the server accepts
	// connections.
	Ready func(addr string)
}

// Run starts the pathways server and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	outputs, logPath := logOutputs(cfg.Paths.LogDir, time.Now())
	logger, err := logging.NewFromConfig(cfg, logging.Options{
		Level:            strings.TrimSpace(opts.LogLevel),
		OutputPaths:      outputs,
		ErrorOutputPaths: outputs,
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if logPath != "" {
		if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to update pathways.log link: %v\n", err)
		}
	}

	if dataDir := preflight.CheckDirectoryAccess("Data directory", cfg.Paths.DataDir); !dataDir.Passed {
		logging.ErrorWithContext(logger, "data directory not usable", "data_dir_unusable",
			logging.String("path", cfg.Paths.DataDir),
			logging.String("detail", dataDir.Detail),
			logging.String(logging.FieldErrorHint, "fix permissions or set paths.data_dir"))
		return fmt.Errorf("data directory %s: %s", cfg.Paths.DataDir, dataDir.Detail)
	}
	logStartupSnapshot(logger, cfg)

	store := docstore.New(docstore.Options{Logger: logger})
	stores := daemon.Stores{
		Positions:  layout.NewPositionsStore(cfg.PositionsPath(), store, logger),
		Organelles: layout.NewOrganelleStore(cfg.OrganellesPath(), store, logger),
		Workbook:   workbook.NewReader(cfg.Paths.Workbook, logger),
	}

	d, err := daemon.New(cfg, stores, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "server start failed", "server_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind and that no other server uses the data directory"))
		return err
	}
	// The instance lock is held now, so no other server is mid-write.
	for _, path := range []string{cfg.PositionsPath(), cfg.OrganellesPath()} {
		if _, err := store.CleanStaging(path, staleStagingAge); err != nil {
			logging.WarnWithContext(logger, "staging cleanup failed", "staging_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "abandoned staging files stay on disk"))
		}
	}
	if opts.Ready != nil {
		opts.Ready(d.Status().Address)
	}

	<-signalCtx.Done()
	logger.Info("pathways server shutting down")
	return nil
}

// logStartupSnapshot records what the server will serve. A missing workbook
// is a warning only: layout endpoints keep working without it.
func logStartupSnapshot(logger *slog.Logger, cfg *config.Config) {
	wb := preflight.CheckWorkbook(cfg.Paths.Workbook)
	static := preflight.CheckStaticDir(cfg.Paths.StaticDir)
	logger.Info("startup snapshot",
		logging.String(logging.FieldEventType, "startup_snapshot"),
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.String("workbook", cfg.Paths.Workbook),
		logging.Bool("workbook_present", wb.Passed),
		logging.String("static_dir", cfg.Paths.StaticDir),
		logging.Bool("static_present", static.Passed),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Server.APIToken) != ""),
		logging.Bool("metrics_enabled", cfg.Server.MetricsEnabled),
	)
	if !wb.Passed {
		logging.WarnWithContext(logger, "workbook not available", "workbook_missing",
			logging.String("path", cfg.Paths.Workbook),
			logging.String("detail", wb.Detail),
			logging.String(logging.FieldErrorHint, "place the workbook at paths.workbook or set PATHWAYS_WORKBOOK"),
			logging.String(logging.FieldImpact, "sheet endpoints return 404 until the workbook exists"))
	}
}

// logOutputs returns the log destinations for a server run: stdout plus a
// per-run file when logDir is set. Errors share these destinations so each
// record is written once.
func logOutputs(logDir string, started time.Time) ([]string, string) {
	outputs := []string{"stdout"}
	dir := strings.TrimSpace(logDir)
	if dir == "" {
		return outputs, ""
	}
	runID := started.UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(dir, fmt.Sprintf("pathways-%s.log", runID))
	return append(outputs, logPath), logPath
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "pathways.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
