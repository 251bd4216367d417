package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"moviematch/internal/catalog"
	"moviematch/internal/db"
	"moviematch/internal/similarity"
)

const matrixMethod = "tfidf"

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compute the TF-IDF similarity matrix for the stored catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		lock, err := db.AcquireWriteLock(d.Path)
		if err != nil {
			return err
		}
		defer lock.Release() //nolint:errcheck

		cat, err := d.LoadCatalog()
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
		return buildMatrix(cmd, d, cat)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// buildMatrix computes and stores the matrix. The caller holds the write lock.
func buildMatrix(cmd *cobra.Command, d *db.DB, cat *catalog.Catalog) error {
	if cat.Len() == 0 {
		return errors.New("catalog is empty (run 'moviematch import <csv>' first)")
	}

	start := time.Now()
	m := similarity.BuildTFIDF(matrixDocuments(cat))
	if err := d.SaveMatrix(m, matrixMethod, time.Now()); err != nil {
		return fmt.Errorf("storing similarity matrix: %w", err)
	}
	elapsed := time.Since(start)
	logger.Info("similarity matrix built",
		slog.Int("movies", m.Size()),
		slog.String("method", matrixMethod),
		slog.Duration("elapsed", elapsed),
	)

	fmt.Fprintf(cmd.OutOrStdout(), "Built %s similarity matrix for %d movies in %s\n",
		matrixMethod, m.Size(), elapsed.Round(time.Millisecond))
	return nil
}

// matrixDocuments is the text each movie is compared on: its overview and
// genre names.
func matrixDocuments(cat *catalog.Catalog) []string {
	docs := make([]string, cat.Len())
	for i := range docs {
		rec := cat.At(i)
		docs[i] = rec.Overview + " " + strings.Join(rec.Genres, " ")
	}
	return docs
}
