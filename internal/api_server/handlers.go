package api_server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/service"
	"github.com/novelvip/novelsync/internal/store"
)

type attachSourceRequest struct {
	SourceURL           string `json:"sourceUrl"`
	SourcePlatform      string `json:"sourcePlatform"`
	SyncIntervalMinutes int    `json:"syncIntervalMinutes"`
	CreatedBy           string `json:"createdBy"`
}

type updateSourceRequest struct {
	Enabled *bool `json:"enabled"`
}

type triggerSyncRequest struct {
	FullImport   bool   `json:"fullImport"`
	StartChapter *int   `json:"startChapter"`
	EndChapter   *int   `json:"endChapter"`
	RequestedBy  string `json:"requestedBy"`
}

func (s *Server) attachSource(w http.ResponseWriter, r *http.Request) {
	novelID, err := uuid.Parse(chi.URLParam(r, "novelID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid novel id")
		return
	}

	var req attachSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceURL == "" {
		writeError(w, http.StatusBadRequest, "sourceUrl is required")
		return
	}

	createdBy, _ := uuid.Parse(req.CreatedBy)
	source, err := s.sources.AttachSource(r.Context(), service.AttachSourceParams{
		NovelID:             novelID,
		SourceURL:           req.SourceURL,
		SourcePlatform:      req.SourcePlatform,
		SyncIntervalMinutes: req.SyncIntervalMinutes,
		CreatedBy:           createdBy,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, source)
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	novelID, err := uuid.Parse(chi.URLParam(r, "novelID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid novel id")
		return
	}

	sources, err := s.sources.ListByNovel(r.Context(), novelID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) updateSource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	var req updateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	source, err := s.sources.SetEnabled(r.Context(), id, *req.Enabled)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func (s *Server) deleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	if err := s.sources.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) triggerSync(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	var req triggerSyncRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.StartChapter != nil && *req.StartChapter < 1 {
		writeError(w, http.StatusBadRequest, "startChapter must be >= 1")
		return
	}
	if req.StartChapter != nil && req.EndChapter != nil && *req.EndChapter < *req.StartChapter {
		writeError(w, http.StatusBadRequest, "endChapter must be >= startChapter")
		return
	}

	requestedBy, _ := uuid.Parse(req.RequestedBy)
	job, err := s.sources.TriggerSync(r.Context(), service.TriggerSyncParams{
		SourceID:     id,
		FullImport:   req.FullImport,
		StartChapter: req.StartChapter,
		EndChapter:   req.EndChapter,
		RequestedBy:  requestedBy,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateKey):
		writeError(w, http.StatusConflict, "already exists")
	default:
		s.log.Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
