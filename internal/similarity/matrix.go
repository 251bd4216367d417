package similarity

import "fmt"

// Matrix is a square table of pairwise similarity scores. Row and column i
// refer to catalog row i. A Matrix is never mutated after construction.
type Matrix struct {
	rows [][]float32
}

// NewMatrix wraps rows as a Matrix. Rows must form a square.
func NewMatrix(rows [][]float32) (*Matrix, error) {
	for i, r := range rows {
		if len(r) != len(rows) {
			return nil, fmt.Errorf("similarity row %d has %d columns, want %d", i, len(r), len(rows))
		}
	}
	return &Matrix{rows: rows}, nil
}

// Size returns the number of rows.
func (m *Matrix) Size() int {
	if m == nil {
		return 0
	}
	return len(m.rows)
}

// Row returns row i. Callers must not modify it.
func (m *Matrix) Row(i int) []float32 {
	if m == nil || i < 0 || i >= len(m.rows) {
		return nil
	}
	return m.rows[i]
}

// Score returns S[i][j], or 0 outside the matrix.
func (m *Matrix) Score(i, j int) float32 {
	row := m.Row(i)
	if j < 0 || j >= len(row) {
		return 0
	}
	return row[j]
}
