package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lawcode-cli/internal/model"
	"lawcode-cli/internal/store"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		jsonError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSections serves GET /sections?include=chapters[,articles]. Chapters are always
// nested; articles only when asked for.
func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	withArticles := false
	for _, part := range strings.Split(r.URL.Query().Get("include"), ",") {
		if strings.TrimSpace(part) == "articles" {
			withArticles = true
		}
	}
	secs, err := s.backend.ListSections(r.Context(), withArticles)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, secs)
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	arts, err := s.backend.ListArticles(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, arts)
}

func (s *Server) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	var in model.SectionInput
	if !decode(w, r, &in) {
		return
	}
	sec, err := s.backend.CreateSection(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sec)
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	var in model.SectionInput
	if !decode(w, r, &in) {
		return
	}
	sec, err := s.backend.UpdateSection(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteSection(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var in model.ChapterInput
	if !decode(w, r, &in) {
		return
	}
	ch, err := s.backend.CreateChapter(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// handleUpdateChapter accepts partial payloads; absent fields are left unchanged.
func (s *Server) handleUpdateChapter(w http.ResponseWriter, r *http.Request) {
	var patch model.ChapterPatch
	if !decode(w, r, &patch) {
		return
	}
	ch, err := s.backend.UpdateChapter(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteChapter(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrInvalid):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
