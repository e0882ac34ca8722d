package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/scieloorg/documentstore/internal/domain"
)

type bundleDocumentsRequest struct {
	Docs []string `json:"docs"`
}

// GetBundle serves the bundle manifest.
func (s *Server) GetBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	manifest, err := s.Handlers.FetchDocumentsBundle(r.Context(), id)
	if errors.Is(err, domain.ErrDoesNotExist) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to fetch bundle")
		writeError(w, http.StatusInternalServerError, "failed to fetch bundle")
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// PutBundle creates a bundle with the given metadata. Creating an
// existing bundle is a 204 no-op.
func (s *Server) PutBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var metadata map[string]any
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.Handlers.CreateDocumentsBundle(r.Context(), id, nil, metadata)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrInvalidMetadata):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to create bundle")
		writeError(w, http.StatusInternalServerError, "failed to create bundle")
	default:
		w.WriteHeader(http.StatusCreated)
	}
}

// PatchBundle merges metadata into an existing bundle.
func (s *Server) PatchBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var metadata map[string]any
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.Handlers.UpdateDocumentsBundleMetadata(r.Context(), id, metadata)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidMetadata):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to update bundle metadata")
		writeError(w, http.StatusInternalServerError, "failed to update bundle metadata")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// PutBundleDocuments replaces the bundle's document list.
func (s *Server) PutBundleDocuments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req bundleDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.Handlers.UpdateDocumentsInDocumentsBundle(r.Context(), id, req.Docs)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to update bundle documents")
		writeError(w, http.StatusInternalServerError, "failed to update bundle documents")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
