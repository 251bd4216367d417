package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"moviematch/internal/catalog"
	"moviematch/internal/rank"
	"moviematch/internal/session"
)

var (
	recommendJSON bool
	recommendTopK int
)

type recommendation struct {
	Title       string   `json:"title"`
	ReleaseYear int      `json:"release_year"`
	VoteAverage float64  `json:"vote_average"`
	Genres      []string `json:"genres"`
	Score       *float32 `json:"score,omitempty"`
}

type recommendOutput struct {
	Seeds           []string         `json:"seeds"`
	Recommendations []recommendation `json:"recommendations"`
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <title>...",
	Short: "Recommend movies similar to one or more titles",
	Long: `With one title, lists its nearest neighbours by similarity.
With several, merges each title's recommendations the way an interactive
session does and shows the resulting display.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		engine, err := LoadEngine(d)
		if err != nil {
			return err
		}

		var seeds []string
		for _, arg := range args {
			rec, err := ResolveMovie(d, engine.Catalog, arg)
			if err != nil {
				return err
			}
			seeds = append(seeds, rec.Title)
		}

		topK := recommendTopK
		if topK <= 0 {
			topK = cfg.Recommend.DisplayCap
		}

		var recs []recommendation
		if len(seeds) == 1 {
			cands, err := engine.Similar(seeds[0], topK)
			if err != nil {
				return err
			}
			recs = fromCandidates(engine.Catalog, cands)
		} else {
			recs = mergedRecommendations(engine, seeds, topK)
		}

		out := cmd.OutOrStdout()
		if recommendJSON {
			return writeJSON(out, recommendOutput{Seeds: seeds, Recommendations: recs})
		}
		printRecommendations(out, seeds, recs)
		return nil
	},
}

func init() {
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "Output as JSON")
	recommendCmd.Flags().IntVarP(&recommendTopK, "top-k", "k", 0, "Number of recommendations (default recommend.display_cap)")
	rootCmd.AddCommand(recommendCmd)
}

func fromCandidates(cat *catalog.Catalog, cands []rank.Candidate) []recommendation {
	recs := make([]recommendation, 0, len(cands))
	for _, c := range cands {
		rec := toRecommendation(cat.At(c.Index))
		score := c.Score
		rec.Score = &score
		recs = append(recs, rec)
	}
	return recs
}

// mergedRecommendations runs one throwaway session rebuild over the seeds.
func mergedRecommendations(engine *rank.Engine, seeds []string, topK int) []recommendation {
	opts := sessionOptions(cfg)
	opts.DisplayCap = topK
	s := session.New("cli", engine, opts, logger)
	s.Rebuild(seeds)

	st := s.Snapshot()
	recs := make([]recommendation, 0, len(st.Displayed))
	for _, title := range st.Displayed {
		if r, ok := engine.Catalog.Lookup(title); ok {
			recs = append(recs, toRecommendation(r))
		}
	}
	return recs
}

func toRecommendation(r catalog.Record) recommendation {
	return recommendation{
		Title:       r.Title,
		ReleaseYear: r.ReleaseYear,
		VoteAverage: r.VoteAverage,
		Genres:      r.Genres,
	}
}

func printRecommendations(w io.Writer, seeds []string, recs []recommendation) {
	fmt.Fprintf(w, "Because you liked %s:\n", strings.Join(seeds, ", "))
	if len(recs) == 0 {
		fmt.Fprintln(w, "  (no recommendations)")
		return
	}

	withScore := recs[0].Score != nil
	headers := []string{"#", "Title", "Year", "Rating", "Genres"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft}
	if withScore {
		headers = append(headers, "Score")
		aligns = append(aligns, alignRight)
	}

	rows := make([][]string, len(recs))
	for i, r := range recs {
		row := []string{
			fmt.Sprintf("%d", i+1),
			truncTitle(r.Title, 45),
			yearString(r.ReleaseYear),
			fmt.Sprintf("%.1f", r.VoteAverage),
			truncTitle(strings.Join(r.Genres, ", "), 30),
		}
		if withScore {
			row = append(row, fmt.Sprintf("%.3f", *r.Score))
		}
		rows[i] = row
	}
	fmt.Fprintln(w, renderTable(headers, rows, aligns))
}
