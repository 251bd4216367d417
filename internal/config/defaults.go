package config

const (
	defaultConfigPath         = "~/.config/moviematch/config.toml"
	defaultDatabasePath       = "~/.local/share/moviematch/moviematch.db"
	defaultDisplayCap         = 10
	defaultPerSeedK           = 20
	defaultInitialSlice       = 5
	defaultReplenishThreshold = 5
	defaultReplenishK         = 10
	defaultServerBind         = "127.0.0.1:8740"
	defaultSessionIdleMinutes = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Database: defaultDatabasePath,
		},
		Recommend: Recommend{
			DisplayCap:         defaultDisplayCap,
			PerSeedK:           defaultPerSeedK,
			InitialSlice:       defaultInitialSlice,
			ReplenishThreshold: defaultReplenishThreshold,
			ReplenishK:         defaultReplenishK,
		},
		Server: Server{
			Bind:               defaultServerBind,
			SessionIdleMinutes: defaultSessionIdleMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
