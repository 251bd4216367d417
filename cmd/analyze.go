package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"moviematch/internal/graph"
)

var (
	analyzeJSON     bool
	analyzeK        int
	analyzeMinScore float32
	analyzeTopN     int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze recommendation coverage: reachability, components, hubs, health score",
	Args:  cobra.NoArgs,
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

		config := &graph.AnalyzerConfig{
			K:        analyzeK,
			MinScore: analyzeMinScore,
			TopN:     analyzeTopN,
		}
		report, err := graph.Analyze(engine.Catalog, engine.Matrix, config)
		if err != nil {
			return fmt.Errorf("analyzing coverage: %w", err)
		}

		if analyzeJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		printHumanReadable(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().IntVar(&analyzeK, "k", 10, "Neighbours per movie")
	analyzeCmd.Flags().Float32Var(&analyzeMinScore, "min-score", 0, "Ignore neighbours scoring below this")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	rootCmd.AddCommand(analyzeCmd)
}

func printHumanReadable(w io.Writer, report *graph.AnalysisReport) {
	// Health bar
	barLen := int(report.HealthScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Fprintf(w, "\n  Coverage Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	fmt.Fprintf(w, "  breakdown: coverage=%.2f components=%.2f spread=%.2f  (k=%d, min score %.2f)\n\n",
		report.HealthBreakdown.Coverage,
		report.HealthBreakdown.Components,
		report.HealthBreakdown.Spread,
		report.K, report.MinScore)

	t := report.Topology
	fmt.Fprintln(w, "  TOPOLOGY")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Movies: %d  Edges: %d  Components: %d\n", t.TotalMovies, t.TotalEdges, t.NumComponents)
	fmt.Fprintf(w, "  Largest component: %d  Smallest: %d\n", t.LargestComponent, t.SmallestComponent)
	if t.IsolatedCount > 0 {
		fmt.Fprintf(w, "  Isolated: %d movies with no neighbour above the threshold\n", t.IsolatedCount)
	}

	if t.OrphanCount > 0 {
		fmt.Fprintf(w, "  Never recommended: %d movies\n", t.OrphanCount)
		limit := 5
		if len(t.Orphans) < limit {
			limit = len(t.Orphans)
		}
		for _, title := range t.Orphans[:limit] {
			fmt.Fprintf(w, "    - %s\n", truncTitle(title, 50))
		}
		if t.OrphanCount > limit {
			fmt.Fprintf(w, "    ... and %d more\n", t.OrphanCount-limit)
		}
	}

	fmt.Fprintln(w, "\n  Times recommended:")
	for _, b := range t.DegreeHistogram {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			fmt.Fprintf(w, "    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	if len(t.Hubs) > 0 {
		fmt.Fprintf(w, "\n  Most recommended (top decile takes %.0f%% of recommendations):\n", t.TopDecileShare*100)
		rows := make([][]string, len(t.Hubs))
		for i, hub := range t.Hubs {
			rows[i] = []string{truncTitle(hub.Title, 40), fmt.Sprintf("%d", hub.InDegree), fmt.Sprintf("%d", hub.OutDegree)}
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Title", "In", "Out"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight},
		))
	}

	fmt.Fprintln(w)
}
