package config

const (
	defaultConfigPath     = "~/.config/pathways/config.toml"
	projectConfigName     = "pathways.toml"
	lockFileName          = "pathways.lock"
	defaultDataDir        = "."
	defaultWorkbook       = "N related.xlsx"
	defaultStaticDir      = "public"
	defaultBind           = "127.0.0.1:3000"
	defaultMaxBodyBytes   = 10 << 20
	defaultPositionsFile  = "layout_positions.json"
	defaultOrganellesFile = "organelles_layout.json"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"

	envAPIToken = "PATHWAYS_API_TOKEN"
	envWorkbook = "PATHWAYS_WORKBOOK"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			Workbook:  defaultWorkbook,
			StaticDir: defaultStaticDir,
		},
		Server: Server{
			Bind:           defaultBind,
			CORSOrigins:    []string{"*"},
			MaxBodyBytes:   defaultMaxBodyBytes,
			MetricsEnabled: true,
		},
		Layout: Layout{
			PositionsFile:  defaultPositionsFile,
			OrganellesFile: defaultOrganellesFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
