package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"moviematch/internal/catalog"
	"moviematch/internal/db"
)

var (
	statusJSON bool
	movieJSON  bool
)

type statusOutput struct {
	Database string        `json:"database"`
	Movies   int           `json:"movies"`
	Matrix   *db.BuildInfo `json:"matrix"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog size and similarity matrix build info",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.CountMovies()
		if err != nil {
			return fmt.Errorf("counting movies: %w", err)
		}
		info, err := d.MatrixInfo()
		if err != nil {
			return fmt.Errorf("reading matrix info: %w", err)
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			return writeJSON(out, statusOutput{Database: d.Path, Movies: n, Matrix: info})
		}
		fmt.Fprintf(out, "Database: %s\n", d.Path)
		fmt.Fprintf(out, "Movies:   %d\n", n)
		if info == nil {
			fmt.Fprintln(out, "Matrix:   not built (run 'moviematch build')")
			return nil
		}
		fmt.Fprintf(out, "Matrix:   %s, %d rows, built %s\n", info.Method, info.Movies, info.BuiltAt)
		return nil
	},
}

var movieCmd = &cobra.Command{
	Use:   "movie <title>",
	Short: "Show one movie's details",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		ref := strings.Join(args, " ")
		rec, err := d.GetMovie(ref)
		if err != nil {
			return err
		}
		if rec == nil {
			cat, err := d.LoadCatalog()
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}
			found, err := ResolveMovie(d, cat, ref)
			if err != nil {
				return err
			}
			rec = &found
		}

		out := cmd.OutOrStdout()
		if movieJSON {
			return writeJSON(out, rec)
		}
		printMovie(cmd, *rec)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	movieCmd.Flags().BoolVar(&movieJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd, movieCmd)
}

func printMovie(cmd *cobra.Command, r catalog.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", r.Title, yearString(r.ReleaseYear))
	fmt.Fprintf(out, "  TMDB id: %d  rating: %.1f\n", r.ID, r.VoteAverage)
	if len(r.Genres) > 0 {
		fmt.Fprintf(out, "  genres:  %s\n", strings.Join(r.Genres, ", "))
	}
	if r.PosterPath != "" {
		fmt.Fprintf(out, "  poster:  %s\n", r.PosterPath)
	}
	if r.Overview != "" {
		fmt.Fprintf(out, "\n  %s\n", r.Overview)
	}
}
