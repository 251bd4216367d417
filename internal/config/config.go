package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations.
type Paths struct {
	Database string `toml:"database"`
	LogDir   string `toml:"log_dir"`
}

// Recommend contains the session engine parameters.
type Recommend struct {
	// DisplayCap is the maximum number of recommendations shown at once.
	DisplayCap int `toml:"display_cap"`
	// PerSeedK is how many candidates each seed contributes on rebuild.
	PerSeedK int `toml:"per_seed_k"`
	// InitialSlice is how many of each seed's candidates go on display;
	// the rest seed the replacement pool.
	InitialSlice int `toml:"initial_slice"`
	// ReplenishThreshold triggers a pool top-up when the pool drops below it.
	ReplenishThreshold int `toml:"replenish_threshold"`
	// ReplenishK is the per-seed result size used when topping up.
	ReplenishK int `toml:"replenish_k"`
	// PoolSpillover moves candidates cut by DisplayCap to the front of the
	// pool instead of dropping them.
	PoolSpillover bool `toml:"pool_spillover"`
}

// Server contains HTTP API settings.
type Server struct {
	Bind               string `toml:"bind"`
	SessionIdleMinutes int    `toml:"session_idle_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// AddSource annotates records with file:line. Debug level always does.
	AddSource bool `toml:"add_source"`
}

// Config encapsulates all configuration values for moviematch.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Recommend Recommend `toml:"recommend"`
	Server    Server    `toml:"server"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath is the expanded user config location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// SampleConfig returns the commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error: defaults apply. The returned config has all path fields
// expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath picks the file Load reads. An explicit path is used
// as-is; otherwise the user config wins over ./moviematch.toml. The bool
// reports whether the file exists.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		p, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(p); {
		case err == nil:
			return p, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return p, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := ExpandPath("moviematch.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// ExpandPath resolves a leading ~ to the home directory and makes p absolute.
// The empty path stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("absolute path for %q: %w", p, err)
	}
	return abs, nil
}
