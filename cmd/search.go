package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchJSON  bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search movie titles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		query := strings.Join(args, " ")
		results, err := d.SearchTitles(query, searchLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			return writeJSON(out, results)
		}
		if len(results) == 0 {
			fmt.Fprintf(out, "No titles match %q\n", query)
			return nil
		}

		rows := make([][]string, len(results))
		for i, r := range results {
			rows[i] = []string{
				truncTitle(r.Title, 50),
				yearString(r.ReleaseYear),
				fmt.Sprintf("%.1f", r.VoteAverage),
				truncTitle(strings.Join(r.Genres, ", "), 30),
			}
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Title", "Year", "Rating", "Genres"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
		))
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
