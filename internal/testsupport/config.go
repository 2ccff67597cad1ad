package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pathways/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. The data
// directory exists, the listener binds an ephemeral port, static hosting is
// off and the workbook path points at a file that does not exist yet.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}

	cfgVal := config.Default()
	cfgVal.Paths.DataDir = dataDir
	cfgVal.Paths.Workbook = filepath.Join(dataDir, "N related.xlsx")
	cfgVal.Paths.StaticDir = ""
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken requires bearer authentication on /api routes.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithMaxBodyBytes overrides the request body limit.
func WithMaxBodyBytes(n int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.MaxBodyBytes = n
	}
}

// WithStaticDir enables static hosting from a "public" directory under the
// temp root, creating it.
func WithStaticDir() ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "public")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir static dir: %v", err)
		}
		b.cfg.Paths.StaticDir = dir
	}
}

// WithLogDir enables file logging under the temp root.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// WithCORSOrigins replaces the allowed CORS origins.
func WithCORSOrigins(origins ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.CORSOrigins = origins
	}
}

// WithMetricsDisabled turns off the /metrics endpoint.
func WithMetricsDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.MetricsEnabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
