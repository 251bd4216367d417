package graph

import "sort"

// HubMovie is a movie that shows up in many other movies' recommendations
type HubMovie struct {
	Title     string `json:"title"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// DegreeBucket is one bucket in the in-degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains coverage analysis results
type TopologyReport struct {
	TotalMovies       int            `json:"total_movies"`
	TotalEdges        int            `json:"total_edges"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	OrphanCount       int            `json:"orphan_count"`
	Orphans           []string       `json:"orphans"`
	IsolatedCount     int            `json:"isolated_count"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	Hubs              []HubMovie     `json:"hubs"`
	// Share of all edges pointing at the most-recommended tenth of the catalog.
	TopDecileShare float64 `json:"top_decile_share"`
}

// ComputeTopology analyzes the neighbour graph: components, orphans (never
// recommended), in-degree distribution and hubs.
func ComputeTopology(g *NeighborGraph, topN int) *TopologyReport {
	total := g.Len()
	if total == 0 {
		return &TopologyReport{
			DegreeHistogram: defaultHistogram(),
		}
	}

	uf := NewUnionFind(total)
	for i, outs := range g.Out {
		for _, j := range outs {
			uf.Union(i, j)
		}
	}
	components := uf.Components()
	largest, smallest := 0, total
	for _, c := range components {
		if len(c) > largest {
			largest = len(c)
		}
		if len(c) < smallest {
			smallest = len(c)
		}
	}

	var orphans []string
	isolated := 0
	buckets := [7]int{}
	for i := 0; i < total; i++ {
		in := len(g.In[i])
		if in == 0 {
			orphans = append(orphans, g.Titles[i])
		}
		if len(g.Adj[i]) == 0 {
			isolated++
		}
		buckets[degreeBucket(in)]++
	}
	orphanCount := len(orphans)
	sort.Strings(orphans)
	if len(orphans) > topN {
		orphans = orphans[:topN]
	}
	histogram := defaultHistogram()
	for i := range histogram {
		histogram[i].Count = buckets[i]
	}

	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(g.In[order[a]]) > len(g.In[order[b]])
	})

	var hubs []HubMovie
	for _, i := range order {
		if len(hubs) >= topN || len(g.In[i]) == 0 {
			break
		}
		hubs = append(hubs, HubMovie{
			Title:     g.Titles[i],
			InDegree:  len(g.In[i]),
			OutDegree: len(g.Out[i]),
		})
	}

	var share float64
	if g.Edges > 0 {
		decile := (total + 9) / 10
		top := 0
		for _, i := range order[:decile] {
			top += len(g.In[i])
		}
		share = float64(top) / float64(g.Edges)
	}

	return &TopologyReport{
		TotalMovies:       total,
		TotalEdges:        g.Edges,
		NumComponents:     len(components),
		LargestComponent:  largest,
		SmallestComponent: smallest,
		OrphanCount:       orphanCount,
		Orphans:           orphans,
		IsolatedCount:     isolated,
		DegreeHistogram:   histogram,
		Hubs:              hubs,
		TopDecileShare:    share,
	}
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
