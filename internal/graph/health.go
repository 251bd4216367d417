package graph

import (
	"math"

	"moviematch/internal/catalog"
	"moviematch/internal/similarity"
)

// HealthBreakdown shows the sub-scores of the health formula
type HealthBreakdown struct {
	Coverage   float64 `json:"coverage"`
	Components float64 `json:"components"`
	Spread     float64 `json:"spread"`
}

// AnalysisReport is the full analysis result
type AnalysisReport struct {
	K               int             `json:"k"`
	MinScore        float32         `json:"min_score"`
	HealthScore     float64         `json:"health_score"`
	HealthBreakdown HealthBreakdown `json:"health_breakdown"`
	Topology        *TopologyReport `json:"topology"`
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	K        int
	MinScore float32
	TopN     int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		K:        10,
		MinScore: 0,
		TopN:     20,
	}
}

// Analyze builds the neighbour graph and computes a composite health score
func Analyze(cat *catalog.Catalog, m *similarity.Matrix, config *AnalyzerConfig) (*AnalysisReport, error) {
	g, err := BuildNeighborGraph(cat, m, config.K, config.MinScore)
	if err != nil {
		return nil, err
	}
	report := Score(ComputeTopology(g, config.TopN))
	report.K = config.K
	report.MinScore = config.MinScore
	return report, nil
}

// Score derives the health score from a topology report. Coverage rewards
// movies that are reachable as recommendations, components rewards a single
// connected catalog, spread penalises recommendations piling onto few hubs.
func Score(topology *TopologyReport) *AnalysisReport {
	total := float64(topology.TotalMovies)

	var coverage, components, spread float64
	if total > 0 {
		coverage = clamp(1.0-math.Min(float64(topology.OrphanCount)/total, 0.5)*2.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}
	if topology.TotalEdges > 0 {
		// A uniform in-degree puts ~10% of edges on the top decile.
		spread = clamp((1.0-topology.TopDecileShare)/0.9, 0, 1)
	}

	healthScore := 0.45*coverage + 0.30*components + 0.25*spread

	return &AnalysisReport{
		HealthScore: healthScore,
		HealthBreakdown: HealthBreakdown{
			Coverage:   coverage,
			Components: components,
			Spread:     spread,
		},
		Topology: topology,
	}
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
