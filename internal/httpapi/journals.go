package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/scieloorg/documentstore/internal/domain"
)

type journalIssueRequest struct {
	Issue string `json:"issue"`
	Index *int   `json:"index"`
}

type journalIssuesRequest struct {
	Issues []string `json:"issues"`
}

type journalAOPRequest struct {
	AOP string `json:"aop"`
}

// GetJournal serves the journal manifest.
func (s *Server) GetJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	manifest, err := s.Handlers.FetchJournal(r.Context(), id)
	if errors.Is(err, domain.ErrDoesNotExist) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to fetch journal")
		writeError(w, http.StatusInternalServerError, "failed to fetch journal")
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// PutJournal creates a journal with the given metadata. Creating an
// existing journal is a 204 no-op; invalid metadata is a 400.
func (s *Server) PutJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var metadata map[string]any
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.Handlers.CreateJournal(r.Context(), id, metadata)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrInvalidMetadata):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to create journal")
		writeError(w, http.StatusInternalServerError, "failed to create journal")
	default:
		w.WriteHeader(http.StatusCreated)
	}
}

// PatchJournal merges metadata into an existing journal.
func (s *Server) PatchJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var metadata map[string]any
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.Handlers.UpdateJournalMetadata(r.Context(), id, metadata)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidMetadata):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to update journal metadata")
		writeError(w, http.StatusInternalServerError, "failed to update journal metadata")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// PutJournalIssues adds an issue to the journal, inserting at `index`
// when given. Adding an already present issue is a 204 no-op.
func (s *Server) PutJournalIssues(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req journalIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Issue == "" {
		writeError(w, http.StatusBadRequest, "issue is mandatory")
		return
	}
	var err error
	if req.Index != nil {
		err = s.Handlers.InsertIssueToJournal(r.Context(), id, *req.Index, req.Issue)
	} else {
		err = s.Handlers.AddIssueToJournal(r.Context(), id, req.Issue)
	}
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		log.Ctx(r.Context()).Info().Str("id", id).Str("issue", req.Issue).
			Msg("skipping request to add issue: already present")
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to add issue")
		writeError(w, http.StatusInternalServerError, "failed to add issue")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// PatchJournalIssues replaces the journal's issue list.
func (s *Server) PatchJournalIssues(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req journalIssuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.Handlers.UpdateIssuesInJournal(r.Context(), id, req.Issues)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to update issues")
		writeError(w, http.StatusInternalServerError, "failed to update issues")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteJournalIssue removes an issue from the journal.
func (s *Server) DeleteJournalIssue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req journalIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Issue == "" {
		writeError(w, http.StatusBadRequest, "issue is mandatory")
		return
	}
	err := s.Handlers.RemoveIssueFromJournal(r.Context(), id, req.Issue)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to remove issue")
		writeError(w, http.StatusInternalServerError, "failed to remove issue")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// PutJournalAOP points the journal at its ahead-of-print bundle.
func (s *Server) PutJournalAOP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req journalAOPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AOP == "" {
		writeError(w, http.StatusBadRequest, "aop is mandatory")
		return
	}
	err := s.Handlers.SetAheadOfPrintBundleToJournal(r.Context(), id, req.AOP)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to set aop bundle")
		writeError(w, http.StatusInternalServerError, "failed to set aop bundle")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteJournalAOP unsets the journal's ahead-of-print bundle.
func (s *Server) DeleteJournalAOP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.Handlers.RemoveAheadOfPrintBundleFromJournal(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to remove aop bundle")
		writeError(w, http.StatusInternalServerError, "failed to remove aop bundle")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
