package config

const (
	defaultConfigPath         = "~/.config/cropflow/config.toml"
	projectConfigName         = "cropflow.toml"
	defaultDataDir            = "~/.local/share/cropflow"
	defaultLogDir             = "~/.local/share/cropflow/logs"
	defaultJSONRegistryName   = "objects.json"
	defaultSQLiteRegistryName = "registry.db"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMinArea            = 3.0

	// RegistryBackendJSON stores the registry as a JSON array.
	RegistryBackendJSON = "json"
	// RegistryBackendSQLite stores the registry in a SQLite database.
	RegistryBackendSQLite = "sqlite"

	envLogLevel     = "CROPFLOW_LOG_LEVEL"
	envRegistryPath = "CROPFLOW_REGISTRY_PATH"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Registry: Registry{
			Backend: RegistryBackendJSON,
		},
		Ingest: Ingest{
			MinArea: defaultMinArea,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
