package session

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"moviematch/internal/logging"
	"moviematch/internal/metrics"
	"moviematch/internal/rank"
)

// Ranker returns the titles most similar to a seed, best first.
// A seed missing from the catalog must yield an error wrapping
// rank.ErrNotFound.
type Ranker interface {
	Rank(seedTitle string, topK int) ([]string, error)
}

// Status is the coarse session state.
type Status string

const (
	StatusEmpty     Status = "EMPTY"
	StatusPopulated Status = "POPULATED"
)

// Options controls how a session builds and refills its display.
type Options struct {
	DisplayCap         int
	PerSeedK           int
	InitialSlice       int
	ReplenishThreshold int
	ReplenishK         int
	PoolSpillover      bool
}

// DefaultOptions returns the standard engine parameters.
func DefaultOptions() Options {
	return Options{
		DisplayCap:         10,
		PerSeedK:           20,
		InitialSlice:       5,
		ReplenishThreshold: 5,
		ReplenishK:         10,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DisplayCap <= 0 {
		o.DisplayCap = def.DisplayCap
	}
	if o.PerSeedK <= 0 {
		o.PerSeedK = def.PerSeedK
	}
	if o.InitialSlice <= 0 {
		o.InitialSlice = def.InitialSlice
	}
	if o.ReplenishThreshold < 0 {
		o.ReplenishThreshold = def.ReplenishThreshold
	}
	if o.ReplenishK <= 0 {
		o.ReplenishK = def.ReplenishK
	}
	return o
}

// State is a point-in-time copy of a session for rendering.
type State struct {
	ID        string   `json:"id"`
	Status    Status   `json:"status"`
	Selection []string `json:"selection"`
	Displayed []string `json:"displayed"`
	Pool      []string `json:"pool"`
	Seen      []string `json:"seen"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Session is the recommendation state of one user. It is not safe for
// concurrent use; Manager serializes access.
//
// After every exported method returns, displayed and pool are disjoint from
// each other, from seen and from the selection, and neither holds a title
// twice.
type Session struct {
	ID        string
	CreatedAt time.Time

	ranker Ranker
	opts   Options
	logger *slog.Logger

	seen      *orderedSet
	displayed *orderedSet
	pool      *orderedSet

	selection    []string
	selectionSet map[string]struct{}
	previous     []string
	skipped      []string
}

// New creates an empty session.
func New(id string, ranker Ranker, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		ranker:       ranker,
		opts:         opts.withDefaults(),
		logger:       logger.With(slog.String(logging.FieldSession, id)),
		seen:         newOrderedSet(),
		displayed:    newOrderedSet(),
		pool:         newOrderedSet(),
		selectionSet: map[string]struct{}{},
	}
}

// Status reports EMPTY until something is on display.
func (s *Session) Status() Status {
	if s.displayed.Len() == 0 {
		return StatusEmpty
	}
	return StatusPopulated
}

// Sync applies the user's current seed selection. An empty selection
// clears the display but keeps seen and pool. Otherwise the session is
// rebuilt when the selection differs from the last one as a set, or when
// nothing is displayed. Reports whether a rebuild ran.
func (s *Session) Sync(selection []string) bool {
	sel := dedupe(selection)
	if len(sel) == 0 {
		if len(s.selection) > 0 || s.displayed.Len() > 0 {
			s.logger.Info("selection cleared", slog.Int("seen", s.seen.Len()), slog.Int("pool", s.pool.Len()))
		}
		s.setSelection(nil)
		s.previous = nil
		s.displayed = newOrderedSet()
		return false
	}

	if sameSet(sel, s.previous) && s.displayed.Len() > 0 {
		s.setSelection(sel)
		return false
	}
	s.Rebuild(sel)
	return true
}

// Rebuild replaces displayed and pool with candidates for selection:
// each seed's first InitialSlice results go on display and the rest to the
// pool, both filtered against the selection and seen. The display is cut to
// DisplayCap; what is cut is dropped unless PoolSpillover is set. Seeds the
// ranker cannot resolve are skipped and returned.
func (s *Session) Rebuild(selection []string) []string {
	sel := dedupe(selection)
	s.setSelection(sel)
	s.previous = append([]string(nil), sel...)
	s.skipped = nil

	displayed := newOrderedSet()
	pool := newOrderedSet()
	for _, seed := range sel {
		titles, ok := s.rankSeed(seed, s.opts.PerSeedK)
		if !ok {
			continue
		}
		for i, t := range titles {
			if i < s.opts.InitialSlice {
				displayed.Add(t)
			} else {
				pool.Add(t)
			}
		}
	}

	excluded := func(t string) bool { return s.inSelection(t) || s.seen.Has(t) }
	displayed.RemoveIf(excluded)
	pool.RemoveIf(excluded)

	spill := displayed.Truncate(s.opts.DisplayCap)
	if s.opts.PoolSpillover && len(spill) > 0 {
		merged := newOrderedSet()
		for _, t := range spill {
			merged.Add(t)
		}
		for _, t := range pool.items {
			merged.Add(t)
		}
		pool = merged
	}

	s.displayed = displayed
	s.pool = pool
	s.CleanPool()

	metrics.Rebuilds.Inc()
	s.logger.Info("recommendations rebuilt",
		slog.Int("seeds", len(sel)),
		slog.Int("displayed", s.displayed.Len()),
		slog.Int("pool", s.pool.Len()),
		slog.Int("spillover", len(spill)),
		slog.Int("skipped", len(s.skipped)),
	)
	return append([]string(nil), s.skipped...)
}

// MarkSeen records that the user has seen a displayed title, removes it
// from display and backfills from the pool. When the pool falls below
// ReplenishThreshold it is topped up from the seeds. A title that is not on
// display is ignored and false is returned.
func (s *Session) MarkSeen(title string) bool {
	if !s.displayed.Has(title) {
		s.logger.Debug("mark seen ignored: title not displayed", slog.String(logging.FieldTitle, title))
		return false
	}

	s.seen.Add(title)
	s.displayed.Remove(title)
	metrics.SeenEvents.Inc()

	if next, ok := s.pool.PopFront(); ok {
		s.displayed.Add(next)
	} else {
		metrics.EmptyBackfills.Inc()
		s.logger.Debug("replacement pool empty, display shrinks", slog.Int("displayed", s.displayed.Len()))
	}

	if s.pool.Len() < s.opts.ReplenishThreshold {
		s.replenish()
	}
	return true
}

// CleanPool removes pool entries that are seen, selected or displayed.
// It is idempotent.
func (s *Session) CleanPool() {
	s.pool.RemoveIf(func(t string) bool {
		return s.seen.Has(t) || s.inSelection(t) || s.displayed.Has(t)
	})
}

// Snapshot copies the current state.
func (s *Session) Snapshot() State {
	return State{
		ID:        s.ID,
		Status:    s.Status(),
		Selection: append([]string{}, s.selection...),
		Displayed: s.displayed.Items(),
		Pool:      s.pool.Items(),
		Seen:      s.seen.Items(),
		Skipped:   append([]string(nil), s.skipped...),
	}
}

func (s *Session) replenish() {
	before := s.pool.Len()
	for _, seed := range s.selection {
		titles, ok := s.rankSeed(seed, s.opts.ReplenishK)
		if !ok {
			continue
		}
		for _, t := range titles {
			if s.seen.Has(t) || s.inSelection(t) || s.displayed.Has(t) {
				continue
			}
			s.pool.Add(t)
		}
	}
	metrics.Replenishments.Inc()
	s.logger.Debug("replacement pool replenished", slog.Int("before", before), slog.Int("after", s.pool.Len()))
}

// rankSeed ranks one seed, recording it as skipped on failure.
func (s *Session) rankSeed(seed string, k int) ([]string, bool) {
	titles, err := s.ranker.Rank(seed, k)
	if err == nil {
		return titles, true
	}
	if !containsString(s.skipped, seed) {
		s.skipped = append(s.skipped, seed)
	}
	if errors.Is(err, rank.ErrNotFound) {
		metrics.SkippedSeeds.WithLabelValues("not_found").Inc()
		s.logger.Warn("seed not in catalog, skipping", slog.String(logging.FieldTitle, seed))
	} else {
		metrics.SkippedSeeds.WithLabelValues("error").Inc()
		s.logger.Warn("ranking seed failed, skipping", slog.String(logging.FieldTitle, seed), logging.Error(err))
	}
	return nil, false
}

func (s *Session) setSelection(sel []string) {
	s.selection = sel
	s.selectionSet = make(map[string]struct{}, len(sel))
	for _, t := range sel {
		s.selectionSet[t] = struct{}{}
	}
}

func (s *Session) inSelection(t string) bool {
	_, ok := s.selectionSet[t]
	return ok
}

// dedupe trims titles and drops blanks and repeats, keeping first order.
func dedupe(titles []string) []string {
	out := make([]string, 0, len(titles))
	seen := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
