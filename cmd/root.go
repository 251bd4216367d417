package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"moviematch/internal/catalog"
	"moviematch/internal/config"
	"moviematch/internal/db"
	"moviematch/internal/logging"
	"moviematch/internal/rank"
	"moviematch/internal/session"
)

const (
	localDBName    = "moviematch.db"
	skipConfigLoad = "skipConfigLoad"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "moviematch",
	Short:         "Movie recommendations from overview similarity",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfigLoad] == "true" {
			logger = logging.NewNop()
			return nil
		}
		return loadEnvironment()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the moviematch database")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
}

func loadEnvironment() error {
	c, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if level := strings.ToLower(strings.TrimSpace(logLevel)); level != "" {
		c.Logging.Level = level
		if err := c.Validate(); err != nil {
			return err
		}
	}
	l, err := logging.NewFromConfig(c)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// DiscoverDB finds the database path using priority: env > flag > walk-up > config.
// With mustExist the database has to be there already.
func DiscoverDB(mustExist bool) (string, error) {
	exists := func(p string) bool {
		info, err := os.Stat(p)
		return err == nil && !info.IsDir()
	}

	// 1. Environment variable
	if envPath := strings.TrimSpace(os.Getenv("MOVIEMATCH_DB")); envPath != "" {
		if !mustExist || exists(envPath) {
			return envPath, nil
		}
		return "", fmt.Errorf("database not found at MOVIEMATCH_DB path: %s", envPath)
	}

	// 2. CLI flag
	if dbPath != "" {
		if !mustExist || exists(dbPath) {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, localDBName)
			if exists(candidate) {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 4. Configured location
	if cfg != nil && cfg.Paths.Database != "" {
		if !mustExist || exists(cfg.Paths.Database) {
			return cfg.Paths.Database, nil
		}
	}

	return "", errors.New("no moviematch database found (run 'moviematch import <csv>', set MOVIEMATCH_DB, or use --db)")
}

// OpenDatabase discovers and opens an existing database
func OpenDatabase() (*db.DB, error) {
	path, err := DiscoverDB(true)
	if err != nil {
		return nil, err
	}
	return db.OpenDB(path)
}

// LoadEngine reads the catalog and similarity matrix into memory.
func LoadEngine(d *db.DB) (*rank.Engine, error) {
	cat, err := d.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	m, err := d.LoadMatrix()
	if err != nil {
		return nil, fmt.Errorf("loading similarity matrix: %w", err)
	}
	if m.Size() != cat.Len() {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d movies (run 'moviematch build')", m.Size(), cat.Len())
	}
	logger.Debug("engine loaded", slog.Int("movies", cat.Len()))
	return rank.NewEngine(cat, m), nil
}

// ResolveMovie finds a movie by exact title, folded title, or title search.
func ResolveMovie(d *db.DB, cat *catalog.Catalog, reference string) (catalog.Record, error) {
	reference = strings.TrimSpace(reference)

	// 1. Exact or case/accent-insensitive title
	if rec, ok := cat.Find(reference); ok {
		return rec, nil
	}

	// 2. FTS search
	results, err := d.SearchTitles(reference, 10)
	if err == nil {
		switch len(results) {
		case 1:
			return results[0], nil
		case 0:
			// fall through to not found
		default:
			lines := make([]string, len(results))
			for i, r := range results {
				lines[i] = fmt.Sprintf("  %s (%s)", r.Title, yearString(r.ReleaseYear))
			}
			return catalog.Record{}, fmt.Errorf("ambiguous title '%s'. %d matches:\n%s\nUse the full title instead.",
				reference, len(results), strings.Join(lines, "\n"))
		}
	}

	return catalog.Record{}, fmt.Errorf("movie not found: %s", reference)
}

func sessionOptions(c *config.Config) session.Options {
	r := c.Recommend
	return session.Options{
		DisplayCap:         r.DisplayCap,
		PerSeedK:           r.PerSeedK,
		InitialSlice:       r.InitialSlice,
		ReplenishThreshold: r.ReplenishThreshold,
		ReplenishK:         r.ReplenishK,
		PoolSpillover:      r.PoolSpillover,
	}
}

func yearString(year int) string {
	if year <= 0 {
		return "----"
	}
	return fmt.Sprintf("%d", year)
}
