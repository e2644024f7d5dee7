package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/holocron/embedder/internal/lazymodel"
	"github.com/holocron/embedder/internal/models"
	"github.com/holocron/embedder/internal/storage"
)

func (s *Server) handleEmbedding(w http.ResponseWriter, r *http.Request) {
	var req models.EmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vec, err := s.embedder.GetEmbedding(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("embedding failed", zap.String("outcome", lazymodel.Outcome(err)), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, lazymodel.Message(err))
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbeddingResponse{Embedding: vec, Dimensions: len(vec)})
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	var input models.PageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index page request", zap.String("id", input.ID), zap.String("title", input.Title))
	result, err := s.engine.IndexPage(r.Context(), &input)
	if err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, lazymodel.Message(err))
		return
	}
	s.respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete page request", zap.String("id", id))
	if err := s.engine.RemovePage(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrPageNotFound) {
			s.respondError(w, http.StatusNotFound, "page not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, lazymodel.Message(err))
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	pages, err := s.engine.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count pages failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := models.Status{
		Model:         s.config.Embedding.Model,
		Backend:       s.config.Embedding.Backend,
		State:         s.embedder.State().String(),
		Dimensions:    s.embedder.Dimensions(),
		Attempts:      s.embedder.Attempts(),
		MaxConcurrent: s.config.Embedding.MaxConcurrentInference,
		Pages:         pages,
	}
	if n, err := storage.DiskUsageBytes(s.config.ModelStore.CacheDir); err == nil {
		status.ModelCacheBytes = n
	}
	if n, err := storage.DiskUsageBytes(storage.DatabaseFiles(s.config.Index.DatabasePath)...); err == nil {
		status.IndexBytes = n
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
