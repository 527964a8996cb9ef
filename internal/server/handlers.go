package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/arxivid"
	"github.com/hyperjump/ronbun/internal/index"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/storage"
)

// paperID extracts the {id} route parameter, recovering old-style identifiers
// from their underscore path form (e.g. "cs_0112017" -> "cs/0112017").
func paperID(r *http.Request) string {
	return arxivid.FromPathParam(chi.URLParam(r, "id"))
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	query := &models.ListQuery{
		Offset:        intParam(r, "offset", 0),
		Limit:         intParam(r, "limit", 0),
		Sort:          r.URL.Query().Get("sort"),
		FavoritesOnly: boolParam(r, "favorites"),
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	papers, err := s.storage.ListPapers(r.Context(), query)
	if err != nil {
		s.logger.Error("list papers failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"papers": papers,
		"count":  len(papers),
	})
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	id := paperID(r)
	paper, err := s.storage.GetPaper(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "paper not found")
			return
		}
		s.logger.Error("get paper failed", zap.String("arxiv_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, paper)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	query := &models.SearchQuery{
		Query: q,
		Limit: intParam(r, "limit", 0),
		Fuzzy: boolParam(r, "fuzzy"),
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	k := intParam(r, "k", 0)
	s.logger.Debug("semantic search request", zap.String("query", q), zap.Int("k", k))
	response, err := s.engine.Semantic(r.Context(), q, k)
	if err != nil {
		if errors.Is(err, index.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, "query is empty")
			return
		}
		s.logger.Error("semantic search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id := paperID(r)
	k := intParam(r, "k", 0)
	s.logger.Debug("similar papers request", zap.String("arxiv_id", id), zap.Int("k", k))
	response, err := s.engine.Similar(r.Context(), id, k)
	if err != nil {
		switch {
		case errors.Is(err, index.ErrPaperNotFound):
			s.respondError(w, http.StatusNotFound, "paper not found")
		case errors.Is(err, index.ErrNoText):
			s.respondError(w, http.StatusUnprocessableEntity, "paper has no text to compare")
		default:
			s.logger.Error("similar papers failed", zap.String("arxiv_id", id), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request) {
	query := &models.ListQuery{
		Offset:        intParam(r, "offset", 0),
		Limit:         intParam(r, "limit", 0),
		Sort:          r.URL.Query().Get("sort"),
		FavoritesOnly: true,
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	papers, err := s.storage.ListPapers(r.Context(), query)
	if err != nil {
		s.logger.Error("list library failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"papers": papers,
		"count":  len(papers),
	})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := paperID(r)
	s.logger.Debug("toggle favorite request", zap.String("arxiv_id", id))
	favorite, err := s.storage.ToggleFavorite(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "paper not found")
			return
		}
		s.logger.Error("toggle favorite failed", zap.String("arxiv_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"arxiv_id": id,
		"favorite": favorite,
	})
}

func (s *Server) handleIndexUpdate(w http.ResponseWriter, r *http.Request) {
	batch := intParam(r, "batch", 0)
	s.logger.Debug("index update request", zap.Int("batch", batch))
	added, err := s.manager.UpdateIndex(r.Context(), batch)
	if err != nil {
		s.logger.Error("index update failed", zap.Int("added", added), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"added":   added,
		"indexed": s.manager.Count(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.Context(), s.version,
		s.config.Storage.DatabasePath,
		s.config.Storage.KeywordIndexPath,
		s.config.Storage.IndexDir,
	)
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func boolParam(r *http.Request, name string) bool {
	raw := r.URL.Query().Get(name)
	return raw == "true" || raw == "1"
}
