package graph

import (
	"errors"

	"moviematch/internal/catalog"
	"moviematch/internal/rank"
	"moviematch/internal/similarity"
)

// NeighborGraph is the directed "recommends" graph: an edge i -> j means j is
// among the top-k similar movies of i. Indices follow catalog row order.
type NeighborGraph struct {
	Titles []string
	Out    [][]int // i -> recommended rows, in rank order
	In     [][]int // j -> rows that recommend j
	Adj    [][]int // undirected, deduplicated
	Edges  int
}

// BuildNeighborGraph ranks every movie against the matrix and keeps the top k
// neighbours scoring at least minScore.
func BuildNeighborGraph(cat *catalog.Catalog, m *similarity.Matrix, k int, minScore float32) (*NeighborGraph, error) {
	n := cat.Len()
	g := &NeighborGraph{
		Titles: cat.Titles(),
		Out:    make([][]int, n),
		In:     make([][]int, n),
		Adj:    make([][]int, n),
	}
	if n == 0 {
		return g, nil
	}

	seen := make([]map[int]bool, n)
	link := func(a, b int) {
		if seen[a] == nil {
			seen[a] = make(map[int]bool)
		}
		if seen[a][b] {
			return
		}
		seen[a][b] = true
		g.Adj[a] = append(g.Adj[a], b)
	}

	for i := 0; i < n; i++ {
		cands, err := rank.Rank(cat, m, g.Titles[i], k)
		if err != nil {
			if errors.Is(err, rank.ErrNotFound) {
				continue
			}
			return nil, err
		}
		for _, c := range cands {
			if c.Score < minScore {
				break
			}
			g.Out[i] = append(g.Out[i], c.Index)
			g.In[c.Index] = append(g.In[c.Index], i)
			link(i, c.Index)
			link(c.Index, i)
			g.Edges++
		}
	}
	return g, nil
}

// Len returns the number of movies in the graph.
func (g *NeighborGraph) Len() int {
	return len(g.Titles)
}
