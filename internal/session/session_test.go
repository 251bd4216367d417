package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"moviematch/internal/rank"
)

type fakeRanker struct {
	lists map[string][]string
	calls []string
}

func (f *fakeRanker) Rank(seed string, k int) ([]string, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s/%d", seed, k))
	list, ok := f.lists[seed]
	if !ok {
		return nil, fmt.Errorf("%w: %q", rank.ErrNotFound, seed)
	}
	if len(list) > k {
		list = list[:k]
	}
	return append([]string(nil), list...), nil
}

func scenarioOptions() Options {
	return Options{DisplayCap: 3, PerSeedK: 5, InitialSlice: 2, ReplenishThreshold: 5, ReplenishK: 10}
}

func newScenario() (*Session, *fakeRanker) {
	r := &fakeRanker{lists: map[string][]string{
		"A": {"C", "B", "F", "D", "E"},
	}}
	return New("s1", r, scenarioOptions(), nil), r
}

func join(s []string) string { return strings.Join(s, ",") }

// assertInvariants checks the disjointness and uniqueness rules that must
// hold after every transition.
func assertInvariants(t *testing.T, s *Session) {
	t.Helper()
	st := s.Snapshot()
	set := func(name string, items []string) map[string]bool {
		m := make(map[string]bool, len(items))
		for _, it := range items {
			if m[it] {
				t.Fatalf("%s holds %q twice: %v", name, it, items)
			}
			m[it] = true
		}
		return m
	}
	displayed := set("displayed", st.Displayed)
	pool := set("pool", st.Pool)
	seen := set("seen", st.Seen)
	selection := set("selection", st.Selection)

	for d := range displayed {
		if selection[d] {
			t.Fatalf("displayed %q is selected", d)
		}
		if seen[d] {
			t.Fatalf("displayed %q is seen", d)
		}
		if pool[d] {
			t.Fatalf("displayed %q is also pooled", d)
		}
	}
	for p := range pool {
		if seen[p] {
			t.Fatalf("pooled %q is seen", p)
		}
		if selection[p] {
			t.Fatalf("pooled %q is selected", p)
		}
	}
	if len(st.Displayed) > s.opts.DisplayCap {
		t.Fatalf("displayed exceeds cap %d: %v", s.opts.DisplayCap, st.Displayed)
	}
}

func TestRebuild_SplitsDisplayAndPool(t *testing.T) {
	s, _ := newScenario()
	if s.Status() != StatusEmpty {
		t.Fatalf("new session should be EMPTY, got %s", s.Status())
	}

	skipped := s.Rebuild([]string{"A"})
	if len(skipped) != 0 {
		t.Errorf("expected no skipped seeds, got %v", skipped)
	}
	st := s.Snapshot()
	if join(st.Displayed) != "C,B" {
		t.Errorf("expected displayed C,B, got %v", st.Displayed)
	}
	if join(st.Pool) != "F,D,E" {
		t.Errorf("expected pool F,D,E, got %v", st.Pool)
	}
	if st.Status != StatusPopulated {
		t.Errorf("expected POPULATED, got %s", st.Status)
	}
	assertInvariants(t, s)
}

func TestMarkSeen_BackfillsFromPoolFront(t *testing.T) {
	s, r := newScenario()
	s.Rebuild([]string{"A"})

	if !s.MarkSeen("C") {
		t.Fatal("expected MarkSeen to apply to a displayed title")
	}
	st := s.Snapshot()
	if join(st.Displayed) != "B,F" {
		t.Errorf("expected displayed B,F, got %v", st.Displayed)
	}
	if join(st.Pool) != "D,E" {
		t.Errorf("expected pool D,E, got %v", st.Pool)
	}
	if join(st.Seen) != "C" {
		t.Errorf("expected seen C, got %v", st.Seen)
	}
	if last := r.calls[len(r.calls)-1]; last != "A/10" {
		t.Errorf("expected replenish with k=10, got call %s", last)
	}
	assertInvariants(t, s)
}

func TestMarkSeen_NotDisplayedIsNoop(t *testing.T) {
	s, r := newScenario()
	s.Rebuild([]string{"A"})
	before := s.Snapshot()
	calls := len(r.calls)

	for _, title := range []string{"F", "A", "nope"} {
		if s.MarkSeen(title) {
			t.Errorf("MarkSeen(%q) should be a no-op", title)
		}
	}
	after := s.Snapshot()
	if join(before.Displayed) != join(after.Displayed) || join(before.Pool) != join(after.Pool) || len(after.Seen) != 0 {
		t.Errorf("state changed: before=%+v after=%+v", before, after)
	}
	if len(r.calls) != calls {
		t.Errorf("no-op must not rank, got calls %v", r.calls[calls:])
	}
}

func TestMarkSeen_IdempotentOnSeen(t *testing.T) {
	s, _ := newScenario()
	s.Rebuild([]string{"A"})
	s.MarkSeen("C")
	s.MarkSeen("C")
	if st := s.Snapshot(); join(st.Seen) != "C" {
		t.Errorf("expected seen to hold C once, got %v", st.Seen)
	}
}

func TestMarkSeen_EmptyPoolShrinksDisplay(t *testing.T) {
	s, _ := newScenario()
	s.Rebuild([]string{"A"})

	for _, title := range []string{"C", "B", "F", "D", "E"} {
		if !s.MarkSeen(title) {
			t.Fatalf("expected %q to be displayed; state %+v", title, s.Snapshot())
		}
		assertInvariants(t, s)
	}
	st := s.Snapshot()
	if len(st.Displayed) != 0 || len(st.Pool) != 0 {
		t.Errorf("expected display and pool exhausted, got %+v", st)
	}
	if st.Status != StatusEmpty {
		t.Errorf("expected EMPTY after exhaustion, got %s", st.Status)
	}
	if len(st.Seen) != 5 {
		t.Errorf("expected 5 seen, got %v", st.Seen)
	}
}

func TestMarkSeen_ReplenishesWithNewTitles(t *testing.T) {
	var list []string
	for i := 1; i <= 12; i++ {
		list = append(list, fmt.Sprintf("t%d", i))
	}
	r := &fakeRanker{lists: map[string][]string{"A": list}}
	s := New("s", r, scenarioOptions(), nil)
	s.Rebuild([]string{"A"})

	s.MarkSeen("t1")
	st := s.Snapshot()
	if join(st.Displayed) != "t2,t3" {
		t.Errorf("expected displayed t2,t3, got %v", st.Displayed)
	}
	if join(st.Pool) != "t4,t5,t6,t7,t8,t9,t10" {
		t.Errorf("expected replenished pool, got %v", st.Pool)
	}
	assertInvariants(t, s)
}

func TestRebuild_MergesSeedsAndExcludesSelection(t *testing.T) {
	r := &fakeRanker{lists: map[string][]string{
		"A": {"B", "X", "Y", "Z", "W"},
		"B": {"A", "X", "Q", "Y", "R"},
	}}
	s := New("s", r, Options{DisplayCap: 10, PerSeedK: 5, InitialSlice: 2, ReplenishThreshold: 0, ReplenishK: 10}, nil)
	s.Rebuild([]string{"A", "B"})

	st := s.Snapshot()
	// heads: A->[B,X], B->[A,X]; selection removes A and B.
	if join(st.Displayed) != "X" {
		t.Errorf("expected displayed X, got %v", st.Displayed)
	}
	// tails: A->[Y,Z,W], B->[Q,Y,R]
	if join(st.Pool) != "Y,Z,W,Q,R" {
		t.Errorf("expected pool Y,Z,W,Q,R, got %v", st.Pool)
	}
	assertInvariants(t, s)
}

func TestRebuild_PoolDedupedAgainstDisplayed(t *testing.T) {
	r := &fakeRanker{lists: map[string][]string{
		"A": {"P", "Q", "R", "S"},
		"B": {"R", "S", "P", "T"},
	}}
	s := New("s", r, Options{DisplayCap: 10, PerSeedK: 4, InitialSlice: 2}, nil)
	s.Rebuild([]string{"A", "B"})

	st := s.Snapshot()
	if join(st.Displayed) != "P,Q,R,S" {
		t.Errorf("expected displayed P,Q,R,S, got %v", st.Displayed)
	}
	if join(st.Pool) != "T" {
		t.Errorf("expected pool T, got %v", st.Pool)
	}
	assertInvariants(t, s)
}

func TestRebuild_SkipsUnknownSeeds(t *testing.T) {
	s, _ := newScenario()
	skipped := s.Rebuild([]string{"Missing", "A"})
	if join(skipped) != "Missing" {
		t.Errorf("expected Missing skipped, got %v", skipped)
	}
	st := s.Snapshot()
	if join(st.Displayed) != "C,B" {
		t.Errorf("remaining seeds should still contribute, got %v", st.Displayed)
	}
	if join(st.Skipped) != "Missing" {
		t.Errorf("expected skipped in snapshot, got %v", st.Skipped)
	}
}

func TestRebuild_SpilloverPolicy(t *testing.T) {
	lists := map[string][]string{
		"A": {"a1", "a2", "a3"},
		"B": {"b1", "b2", "b3"},
	}
	opts := Options{DisplayCap: 3, PerSeedK: 3, InitialSlice: 2, ReplenishThreshold: 0, ReplenishK: 3}

	dropped := New("s", &fakeRanker{lists: lists}, opts, nil)
	dropped.Rebuild([]string{"A", "B"})
	st := dropped.Snapshot()
	if join(st.Displayed) != "a1,a2,b1" {
		t.Errorf("expected displayed a1,a2,b1, got %v", st.Displayed)
	}
	if join(st.Pool) != "a3,b3" {
		t.Errorf("spillover should be dropped, got pool %v", st.Pool)
	}

	opts.PoolSpillover = true
	kept := New("s", &fakeRanker{lists: lists}, opts, nil)
	kept.Rebuild([]string{"A", "B"})
	st = kept.Snapshot()
	if join(st.Pool) != "b2,a3,b3" {
		t.Errorf("spillover should lead the pool, got %v", st.Pool)
	}
	assertInvariants(t, kept)
}

func TestRebuild_ExcludesSeen(t *testing.T) {
	s, _ := newScenario()
	s.Rebuild([]string{"A"})
	s.MarkSeen("C")
	s.Rebuild([]string{"A"})
	st := s.Snapshot()
	if join(st.Displayed) != "B" {
		t.Errorf("seen title must not return, got %v", st.Displayed)
	}
	if join(st.Pool) != "F,D,E" {
		t.Errorf("expected pool F,D,E, got %v", st.Pool)
	}
	assertInvariants(t, s)
}

func TestSync_RebuildsOnlyOnChange(t *testing.T) {
	r := &fakeRanker{lists: map[string][]string{
		"A": {"C", "B", "F", "D", "E"},
		"B": {"D", "A", "E", "C", "F"},
	}}
	s := New("s", r, scenarioOptions(), nil)

	if !s.Sync([]string{"A"}) {
		t.Fatal("first sync should rebuild")
	}
	if s.Sync([]string{"A", "A"}) {
		t.Error("duplicate seeds are the same selection")
	}
	s.MarkSeen("C")
	shown := join(s.Snapshot().Displayed)
	if s.Sync([]string{" A "}) {
		t.Error("unchanged selection should not rebuild")
	}
	if got := join(s.Snapshot().Displayed); got != shown {
		t.Errorf("display churned without a change: %s -> %s", shown, got)
	}

	if !s.Sync([]string{"A", "B"}) {
		t.Fatal("added seed should rebuild")
	}
	if s.Sync([]string{"B", "A"}) {
		t.Error("reordered selection is the same set")
	}
	if join(s.Snapshot().Selection) != "B,A" {
		t.Errorf("selection order should follow the caller, got %v", s.Snapshot().Selection)
	}
	assertInvariants(t, s)
}

func TestSync_EmptySelectionClearsDisplayKeepsHistory(t *testing.T) {
	s, _ := newScenario()
	s.Sync([]string{"A"})
	s.MarkSeen("C")
	pool := join(s.Snapshot().Pool)

	if s.Sync(nil) {
		t.Error("clearing should not rebuild")
	}
	st := s.Snapshot()
	if st.Status != StatusEmpty || len(st.Displayed) != 0 {
		t.Errorf("expected EMPTY with nothing displayed, got %+v", st)
	}
	if join(st.Seen) != "C" {
		t.Errorf("seen should be retained, got %v", st.Seen)
	}
	if join(st.Pool) != pool {
		t.Errorf("pool should be retained, got %v want %s", st.Pool, pool)
	}

	if !s.Sync([]string{"A"}) {
		t.Error("reselecting after clear should rebuild")
	}
	st = s.Snapshot()
	if join(st.Displayed) != "B" || join(st.Pool) != "F,D,E" {
		t.Errorf("expected displayed B and pool F,D,E after rebuild, got %+v", st)
	}
	assertInvariants(t, s)
}

func TestCleanPool_Idempotent(t *testing.T) {
	s, _ := newScenario()
	s.Rebuild([]string{"A"})
	// Force a stale pool entry the way an external change would.
	s.seen.Add("D")

	s.CleanPool()
	once := join(s.Snapshot().Pool)
	s.CleanPool()
	twice := join(s.Snapshot().Pool)
	if once != "F,E" {
		t.Errorf("expected F,E after clean, got %s", once)
	}
	if once != twice {
		t.Errorf("CleanPool not idempotent: %s vs %s", once, twice)
	}
}

func TestInvariants_RandomWalk(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	titles := make([]string, 40)
	for i := range titles {
		titles[i] = fmt.Sprintf("m%02d", i)
	}
	lists := make(map[string][]string, len(titles))
	for _, seed := range titles {
		perm := rng.Perm(len(titles))
		var list []string
		for _, p := range perm {
			if titles[p] != seed {
				list = append(list, titles[p])
			}
		}
		lists[seed] = list
	}

	s := New("walk", &fakeRanker{lists: lists}, Options{DisplayCap: 6, PerSeedK: 8, InitialSlice: 3, ReplenishThreshold: 4, ReplenishK: 5}, nil)
	for step := 0; step < 300; step++ {
		switch op := rng.IntN(10); {
		case op < 2:
			n := rng.IntN(4)
			sel := make([]string, n)
			for i := range sel {
				sel[i] = titles[rng.IntN(len(titles))]
			}
			s.Sync(sel)
		case op < 9:
			st := s.Snapshot()
			if len(st.Displayed) > 0 {
				s.MarkSeen(st.Displayed[rng.IntN(len(st.Displayed))])
			} else {
				s.MarkSeen(titles[rng.IntN(len(titles))])
			}
		default:
			s.CleanPool()
		}
		assertInvariants(t, s)
	}
}

func TestFakeRankerNotFoundWrapsSentinel(t *testing.T) {
	r := &fakeRanker{}
	if _, err := r.Rank("x", 1); !errors.Is(err, rank.ErrNotFound) {
		t.Fatalf("fake ranker must wrap rank.ErrNotFound, got %v", err)
	}
}
