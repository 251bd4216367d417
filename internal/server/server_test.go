package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"moviematch/internal/catalog"
	"moviematch/internal/rank"
	"moviematch/internal/session"
	"moviematch/internal/similarity"
)

type fakeSearcher struct {
	results []catalog.Record
	err     error
	queries []string
}

func (f *fakeSearcher) SearchTitles(query string, limit int) ([]catalog.Record, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

// newTestServer serves catalog {A..F} where A ranks [C, B, F, D, E].
func newTestServer(t *testing.T, search Searcher) (*Server, *httptest.Server) {
	t.Helper()
	var recs []catalog.Record
	for i, title := range []string{"A", "B", "C", "D", "E", "F"} {
		recs = append(recs, catalog.Record{ID: int64(i + 1), Title: title, ReleaseYear: 2000 + i})
	}
	cat, _ := catalog.New(recs)
	m, err := similarity.NewMatrix([][]float32{
		{1.0, 0.8, 0.9, 0.4, 0.2, 0.6},
		{0.8, 1.0, 0.1, 0.1, 0.1, 0.1},
		{0.9, 0.1, 1.0, 0.1, 0.1, 0.1},
		{0.4, 0.1, 0.1, 1.0, 0.5, 0.5},
		{0.2, 0.1, 0.1, 0.5, 1.0, 0.5},
		{0.6, 0.1, 0.1, 0.5, 0.5, 1.0},
	})
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	engine := rank.NewEngine(cat, m)
	mgr := session.NewManager(engine, session.Options{
		DisplayCap: 3, PerSeedK: 5, InitialSlice: 2, ReplenishThreshold: 0, ReplenishK: 10,
	}, nil)
	srv := New(engine, mgr, search, Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, target string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, target, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/api/v1/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	st := decode[sessionResponse](t, resp)
	if st.ID == "" || st.Status != session.StatusEmpty {
		t.Fatalf("new session should be empty with an id, got %+v", st.State)
	}
	if loc := resp.Header.Get("Location"); !strings.HasSuffix(loc, st.ID) {
		t.Errorf("Location = %q", loc)
	}
	return st.ID
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	h := decode[healthResponse](t, resp)
	if h.Status != "ok" || h.Movies != 6 || h.Sessions != 0 {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)
	do(t, http.MethodGet, ts.URL+"/api/v1/movies/A", nil)
	resp := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "moviematch_api_request_duration_seconds") {
		t.Error("metrics output should include the request histogram")
	}
}

func TestSessionFlow(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/v1/sessions/" + id

	resp := do(t, http.MethodPut, base+"/selection", selectionRequest{Titles: []string{"a"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("selection: status %d", resp.StatusCode)
	}
	st := decode[sessionResponse](t, resp)
	if st.Rebuilt == nil || !*st.Rebuilt {
		t.Error("first selection should rebuild")
	}
	if strings.Join(st.Displayed, ",") != "C,B" || strings.Join(st.Pool, ",") != "F,D,E" {
		t.Fatalf("after rebuild: displayed=%v pool=%v", st.Displayed, st.Pool)
	}
	if len(st.Movies) != 2 || st.Movies[0].Title != "C" || st.Movies[0].ReleaseYear != 2002 {
		t.Errorf("movies should follow display order with details, got %+v", st.Movies)
	}

	resp = do(t, http.MethodPut, base+"/selection", selectionRequest{Titles: []string{"A", "A"}})
	st = decode[sessionResponse](t, resp)
	if st.Rebuilt == nil || *st.Rebuilt {
		t.Error("same selection should not rebuild")
	}

	resp = do(t, http.MethodPost, base+"/seen", seenRequest{Title: "c"})
	st = decode[sessionResponse](t, resp)
	if st.Changed == nil || !*st.Changed {
		t.Error("marking a displayed title should report a change")
	}
	if strings.Join(st.Displayed, ",") != "B,F" || strings.Join(st.Pool, ",") != "D,E" {
		t.Errorf("after seen: displayed=%v pool=%v", st.Displayed, st.Pool)
	}
	if strings.Join(st.Seen, ",") != "C" {
		t.Errorf("seen = %v", st.Seen)
	}

	resp = do(t, http.MethodPost, base+"/seen", seenRequest{Title: "E"})
	st = decode[sessionResponse](t, resp)
	if resp.StatusCode != http.StatusOK || st.Changed == nil || *st.Changed {
		t.Errorf("marking a pool title is a no-op, got status %d changed=%v", resp.StatusCode, st.Changed)
	}

	resp = do(t, http.MethodPut, base+"/selection", selectionRequest{Titles: nil})
	st = decode[sessionResponse](t, resp)
	if st.Status != session.StatusEmpty || len(st.Displayed) != 0 {
		t.Errorf("clearing the selection should empty the display, got %+v", st.State)
	}
	if strings.Join(st.Seen, ",") != "C" || strings.Join(st.Pool, ",") != "D,E" {
		t.Errorf("clearing keeps seen and pool, got seen=%v pool=%v", st.Seen, st.Pool)
	}

	resp = do(t, http.MethodPost, base+"/clean", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("clean: status %d", resp.StatusCode)
	}

	resp = do(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status %d", resp.StatusCode)
	}
}

func TestSessionSkipsUnknownSeed(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := createSession(t, ts.URL)
	resp := do(t, http.MethodPut, ts.URL+"/api/v1/sessions/"+id+"/selection",
		selectionRequest{Titles: []string{"Nope", "A"}})
	st := decode[sessionResponse](t, resp)
	if strings.Join(st.Skipped, ",") != "Nope" {
		t.Errorf("skipped = %v", st.Skipped)
	}
	if strings.Join(st.Displayed, ",") != "C,B" {
		t.Errorf("known seed should still be ranked, got %v", st.Displayed)
	}
}

func TestSessionErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/api/v1/sessions/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session: status %d", resp.StatusCode)
	}
	e := decode[errorResponse](t, resp)
	if e.Error.Code != "SESSION_NOT_FOUND" {
		t.Errorf("code = %q", e.Error.Code)
	}

	resp = do(t, http.MethodPut, ts.URL+"/api/v1/sessions/missing/selection", selectionRequest{Titles: []string{"A"}})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("selection on unknown session: status %d", resp.StatusCode)
	}

	id := createSession(t, ts.URL)
	resp = do(t, http.MethodPut, ts.URL+"/api/v1/sessions/"+id+"/selection", "{not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body: status %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+id+"/seen", `{"title": ""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty title: status %d", resp.StatusCode)
	}
}

func TestSimilar(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/api/v1/movies/a/similar?k=3", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	got := decode[similarResponse](t, resp)
	if got.Title != "A" || len(got.Results) != 3 {
		t.Fatalf("unexpected response: %+v", got)
	}
	if titles := rank.Titles(got.Results); strings.Join(titles, ",") != "C,B,F" {
		t.Errorf("titles = %v", titles)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/v1/movies/"+url.PathEscape("Not Here")+"/similar", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown title: status %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/api/v1/movies/A/similar?k=0", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("k=0: status %d", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	fs := &fakeSearcher{results: []catalog.Record{{Title: "B"}, {Title: "C"}}}
	_, ts := newTestServer(t, fs)

	resp := do(t, http.MethodGet, ts.URL+"/api/v1/movies?q=matrix&limit=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	got := decode[[]catalog.Record](t, resp)
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("results = %+v", got)
	}
	if len(fs.queries) != 1 || fs.queries[0] != "matrix" {
		t.Errorf("queries = %v", fs.queries)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/v1/movies", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing q: status %d", resp.StatusCode)
	}

	fs.err = errors.New("disk on fire")
	resp = do(t, http.MethodGet, ts.URL+"/api/v1/movies?q=x", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("search failure: status %d", resp.StatusCode)
	}
}

func TestSearch_WithoutSearcher(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/api/v1/movies?q=b", nil)
	got := decode[[]catalog.Record](t, resp)
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("folded title should resolve, got %+v", got)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/v1/movies?q=zzz", nil)
	got = decode[[]catalog.Record](t, resp)
	if len(got) != 0 {
		t.Errorf("no match should be an empty list, got %+v", got)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	srv.opts.Bind = "127.0.0.1:0"
	srv.opts.SessionIdle = time.Minute

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
