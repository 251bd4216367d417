package similarity

import (
	"math"
	"testing"
)

func TestNewMatrix_RejectsNonSquare(t *testing.T) {
	if _, err := NewMatrix([][]float32{{1, 0}, {0}}); err == nil {
		t.Fatal("expected error for ragged matrix")
	}
	m, err := NewMatrix([][]float32{{1, 0.5}, {0.5, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Size() != 2 {
		t.Errorf("expected size 2, got %d", m.Size())
	}
}

func TestMatrix_ScoreOutOfRange(t *testing.T) {
	m, _ := NewMatrix([][]float32{{1}})
	if s := m.Score(0, 5); s != 0 {
		t.Errorf("expected 0, got %f", s)
	}
	if r := m.Row(-1); r != nil {
		t.Errorf("expected nil row, got %v", r)
	}
	var nilM *Matrix
	if nilM.Size() != 0 || nilM.Row(0) != nil {
		t.Error("nil matrix should be empty")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The heist, and a DETECTIVE's obsession: L.A. 1995!")
	want := []string{"heist", "detective", "obsession", "1995"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBuildTFIDF(t *testing.T) {
	docs := []string{
		"space crew fights alien creature on ship",
		"alien creature hunts crew in space",
		"romantic comedy in paris",
		"",
	}
	m := BuildTFIDF(docs)
	if m.Size() != 4 {
		t.Fatalf("expected 4 rows, got %d", m.Size())
	}

	for i := 0; i < 3; i++ {
		if math.Abs(float64(m.Score(i, i))-1.0) > 0.0001 {
			t.Errorf("S[%d][%d] should be ~1.0, got %f", i, i, m.Score(i, i))
		}
	}
	if m.Score(3, 3) != 0 {
		t.Errorf("empty document should have zero self-similarity, got %f", m.Score(3, 3))
	}
	if m.Score(0, 1) <= m.Score(0, 2) {
		t.Errorf("alien films should be closer than the comedy: %f <= %f", m.Score(0, 1), m.Score(0, 2))
	}
	if m.Score(0, 2) != 0 {
		t.Errorf("no shared terms should give 0, got %f", m.Score(0, 2))
	}
	if m.Score(0, 1) != m.Score(1, 0) {
		t.Errorf("expected symmetric scores, got %f and %f", m.Score(0, 1), m.Score(1, 0))
	}
}
