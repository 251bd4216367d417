package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"moviematch/internal/catalog"
	"moviematch/internal/db"
)

var importBuild bool

var importCmd = &cobra.Command{
	Use:   "import <csv>",
	Short: "Load the movie CSV export into the database, replacing the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := DiscoverDB(false)
		if err != nil {
			return err
		}
		d, err := db.OpenDB(path)
		if err != nil {
			return err
		}
		defer d.Close()

		lock, err := db.AcquireWriteLock(path)
		if err != nil {
			return err
		}
		defer lock.Release() //nolint:errcheck

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening csv: %w", err)
		}
		defer f.Close()

		cat, report, err := catalog.LoadCSV(f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", args[0], err)
		}
		if len(report.DuplicateTitles) > 0 {
			logger.Info("dropped duplicate titles",
				slog.Int("count", len(report.DuplicateTitles)),
				slog.String("titles", strings.Join(report.DuplicateTitles, "; ")),
			)
		}

		if err := d.ReplaceCatalog(cat); err != nil {
			return fmt.Errorf("storing catalog: %w", err)
		}
		logger.Info("catalog imported", slog.String("db", path), slog.Int("movies", cat.Len()))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d movies into %s\n", cat.Len(), path)
		fmt.Fprintf(out, "  rows read: %d  incomplete: %d  duplicate titles: %d\n",
			report.Rows, report.Incomplete, len(report.DuplicateTitles))

		if !importBuild {
			fmt.Fprintln(out, "Run 'moviematch build' to compute the similarity matrix.")
			return nil
		}
		return buildMatrix(cmd, d, cat)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importBuild, "build", true, "Build the similarity matrix after importing")
	rootCmd.AddCommand(importCmd)
}
