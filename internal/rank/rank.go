package rank

import (
	"errors"
	"fmt"
	"sort"

	"moviematch/internal/catalog"
	"moviematch/internal/similarity"
)

var (
	// ErrNotFound reports a seed title that is not in the catalog. Callers
	// skip the seed rather than failing.
	ErrNotFound = errors.New("title not found in catalog")
	// ErrInvalidK reports a non-positive result size.
	ErrInvalidK = errors.New("top_k must be positive")
)

// Candidate is a catalog row scored against a seed.
type Candidate struct {
	Title string  `json:"title"`
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// Rank returns up to topK titles most similar to seedTitle, ordered by
// descending score. Equal scores keep catalog row order. The seed itself is
// never included. Neither the catalog nor the matrix is modified.
func Rank(cat *catalog.Catalog, m *similarity.Matrix, seedTitle string, topK int) ([]Candidate, error) {
	if topK <= 0 {
		return nil, ErrInvalidK
	}
	seed, ok := cat.Index(seedTitle)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, seedTitle)
	}

	row := m.Row(seed)
	results := make([]Candidate, 0, cat.Len())
	for j := 0; j < cat.Len(); j++ {
		if j == seed {
			continue
		}
		var score float32
		if j < len(row) {
			score = row[j]
		}
		results = append(results, Candidate{
			Title: cat.At(j).Title,
			Index: j,
			Score: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Titles extracts the titles of candidates in order.
func Titles(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Title
	}
	return out
}

// Engine binds a catalog and matrix loaded at startup. It is safe for
// concurrent use because neither input is mutated after load.
type Engine struct {
	Catalog *catalog.Catalog
	Matrix  *similarity.Matrix
}

// NewEngine returns an Engine over cat and m.
func NewEngine(cat *catalog.Catalog, m *similarity.Matrix) *Engine {
	return &Engine{Catalog: cat, Matrix: m}
}

// Similar ranks seedTitle against the engine's catalog.
func (e *Engine) Similar(seedTitle string, topK int) ([]Candidate, error) {
	return Rank(e.Catalog, e.Matrix, seedTitle, topK)
}

// Rank returns only the titles, for callers that track items by title.
func (e *Engine) Rank(seedTitle string, topK int) ([]string, error) {
	cands, err := e.Similar(seedTitle, topK)
	if err != nil {
		return nil, err
	}
	return Titles(cands), nil
}
