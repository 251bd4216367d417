package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"moviematch/internal/catalog"
	"moviematch/internal/logging"
	"moviematch/internal/rank"
	"moviematch/internal/session"
)

const (
	defaultSearchLimit = 20
	defaultSimilarK    = 10
)

type healthResponse struct {
	Status   string `json:"status"`
	Movies   int    `json:"movies"`
	Sessions int    `json:"sessions"`
}

type similarResponse struct {
	Title   string           `json:"title"`
	Results []rank.Candidate `json:"results"`
}

// sessionResponse is a session snapshot plus catalog details for what is on
// display, in display order.
type sessionResponse struct {
	session.State
	Movies  []catalog.Record `json:"movies"`
	Rebuilt *bool            `json:"rebuilt,omitempty"`
	Changed *bool            `json:"changed,omitempty"`
}

type selectionRequest struct {
	Titles []string `json:"titles"`
}

type seenRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Movies:   s.engine.Catalog.Len(),
		Sessions: s.sessions.Len(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "MISSING_QUERY", "query parameter q is required")
		return
	}
	limit, ok := intQuery(r, "limit", defaultSearchLimit)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
		return
	}

	var results []catalog.Record
	if s.search != nil {
		found, err := s.search.SearchTitles(q, limit)
		if err != nil {
			s.logger.Error("title search failed", slog.String("query", q), logging.Error(err))
			s.respondError(w, http.StatusInternalServerError, "SEARCH_FAILED", "title search failed")
			return
		}
		results = found
	} else if rec, ok := s.engine.Catalog.Find(q); ok {
		results = append(results, rec)
	}
	if results == nil {
		results = []catalog.Record{}
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.engine.Catalog.Find(pathParam(r, "title"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "MOVIE_NOT_FOUND", "no movie with that title")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	k, ok := intQuery(r, "k", defaultSimilarK)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "INVALID_K", "k must be a positive integer")
		return
	}
	rec, found := s.engine.Catalog.Find(pathParam(r, "title"))
	if !found {
		s.respondError(w, http.StatusNotFound, "MOVIE_NOT_FOUND", "no movie with that title")
		return
	}
	cands, err := s.engine.Similar(rec.Title, k)
	if err != nil {
		if errors.Is(err, rank.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "MOVIE_NOT_FOUND", "no movie with that title")
			return
		}
		s.respondError(w, http.StatusBadRequest, "INVALID_K", err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, similarResponse{Title: rec.Title, Results: cands})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.Create()
	st, err := s.sessions.Get(id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "SESSION_LOST", err.Error())
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+id)
	s.respondJSON(w, http.StatusCreated, s.describe(st))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(pathParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.describe(st))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(pathParam(r, "id")) {
		s.sessionError(w, session.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_BODY", "expected {\"titles\": [...]}")
		return
	}

	var (
		st      session.State
		rebuilt bool
	)
	err := s.sessions.With(pathParam(r, "id"), func(sess *session.Session) error {
		rebuilt = sess.Sync(s.canonical(req.Titles))
		st = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	resp := s.describe(st)
	resp.Rebuilt = &rebuilt
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSeen(w http.ResponseWriter, r *http.Request) {
	var req seenRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_BODY", "expected {\"title\": \"...\"}")
		return
	}

	var (
		st      session.State
		changed bool
	)
	err := s.sessions.With(pathParam(r, "id"), func(sess *session.Session) error {
		changed = sess.MarkSeen(s.canonicalTitle(req.Title))
		st = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	resp := s.describe(st)
	resp.Changed = &changed
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCleanPool(w http.ResponseWriter, r *http.Request) {
	var st session.State
	err := s.sessions.With(pathParam(r, "id"), func(sess *session.Session) error {
		sess.CleanPool()
		st = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.describe(st))
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "no session with that id")
		return
	}
	s.respondError(w, http.StatusInternalServerError, "SESSION_ERROR", err.Error())
}

func (s *Server) describe(st session.State) sessionResponse {
	movies := make([]catalog.Record, 0, len(st.Displayed))
	for _, title := range st.Displayed {
		if rec, ok := s.engine.Catalog.Lookup(title); ok {
			movies = append(movies, rec)
		}
	}
	return sessionResponse{State: st, Movies: movies}
}

// canonical maps user-typed titles onto catalog titles where a folded match
// exists. Unknown titles pass through so the session can record them as
// skipped.
func (s *Server) canonical(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		out = append(out, s.canonicalTitle(t))
	}
	return out
}

func (s *Server) canonicalTitle(title string) string {
	if rec, ok := s.engine.Catalog.Find(title); ok {
		return rec.Title
	}
	return title
}
