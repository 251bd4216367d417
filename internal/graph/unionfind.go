package graph

// UnionFind implements union-find with path compression and union by rank
// over the dense row indices 0..n-1.
type UnionFind struct {
	parent []int
	rank   []int
	size   []int
}

// NewUnionFind creates a new UnionFind where each element is its own component
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the root of the component containing x, with path compression
func (uf *UnionFind) Find(x int) int {
	if x < 0 || x >= len(uf.parent) {
		return x
	}
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

// Union merges the components containing a and b. Returns true if they were separate.
func (uf *UnionFind) Union(a, b int) bool {
	rootA := uf.Find(a)
	rootB := uf.Find(b)
	if rootA == rootB {
		return false
	}

	switch {
	case uf.rank[rootA] < uf.rank[rootB]:
		rootA, rootB = rootB, rootA
	case uf.rank[rootA] == uf.rank[rootB]:
		uf.rank[rootA]++
	}
	uf.parent[rootB] = rootA
	uf.size[rootA] += uf.size[rootB]
	return true
}

// Size returns the size of the component containing x.
func (uf *UnionFind) Size(x int) int {
	return uf.size[uf.Find(x)]
}

// Components returns all connected components as slices of indices, each
// sorted ascending, ordered by their smallest member.
func (uf *UnionFind) Components() [][]int {
	groups := make(map[int]int)
	var result [][]int
	for i := range uf.parent {
		root := uf.Find(i)
		slot, ok := groups[root]
		if !ok {
			slot = len(result)
			groups[root] = slot
			result = append(result, nil)
		}
		result[slot] = append(result[slot], i)
	}
	return result
}
