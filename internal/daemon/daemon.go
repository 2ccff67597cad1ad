package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gofrs/flock"

	"pathways/internal/config"
	"pathways/internal/layout"
	"pathways/internal/logging"
	"pathways/internal/workbook"
)

// Version is reported by /healthz. The CLI overrides it at startup.
var Version = "dev"

// Stores bundles the collaborators served over HTTP.
type Stores struct {
	Positions  *layout.PositionsStore
	Organelles *layout.OrganelleStore
	Workbook   *workbook.Reader
}

// Daemon owns the HTTP server lifecycle and enforces single-instance
// execution per data directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	stores Stores
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	LockFilePath string
	Workbook     string
	Positions    string
	Organelles   string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, stores Stores, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || stores.Positions == nil || stores.Organelles == nil || stores.Workbook == nil {
		return nil, errors.New("daemon requires config, layout stores, and workbook reader")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		stores:   stores,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, stores, logger)
	return d, nil
}

// Start acquires the instance lock and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another pathways server is already using %s", d.cfg.Paths.DataDir)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("pathways server started",
		logging.String(logging.FieldEventType, "server_started"),
		logging.String("address", d.api.addr()),
		logging.String("url", "http://"+d.api.addr()),
		logging.String("workbook", d.stores.Workbook.Path()),
		logging.String("positions", d.stores.Positions.Path()),
		logging.String("organelles", d.stores.Organelles.Path()),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts the HTTP server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no server is running"))
	}
	d.running.Store(false)
	d.logger.Info("pathways server stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Handler returns the full HTTP handler, middleware included.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.api.addr(),
		LockFilePath: d.lockPath,
		Workbook:     d.stores.Workbook.Path(),
		Positions:    d.stores.Positions.Path(),
		Organelles:   d.stores.Organelles.Path(),
	}
}
