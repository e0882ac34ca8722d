package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/services"
)

type registerDocumentRequest struct {
	Data   string `json:"data"`
	Assets []struct {
		AssetID  string `json:"asset_id"`
		AssetURL string `json:"asset_url"`
	} `json:"assets"`
}

type assetRequest struct {
	AssetURL string `json:"asset_url"`
}

type renditionRequest struct {
	Filename  string `json:"filename"`
	DataURL   string `json:"data_url"`
	Mimetype  string `json:"mimetype"`
	Lang      string `json:"lang"`
	SizeBytes int64  `json:"size_bytes"`
}

// GetDocument serves the document XML, optionally at the instant given
// by the `when` query parameter.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.Handlers.FetchDocumentData(r.Context(), id, -1, r.URL.Query().Get("when"))
	if notFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to fetch document data")
		writeError(w, http.StatusInternalServerError, "failed to fetch document data")
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// PutDocument registers a document or appends a new version. The
// operation is idempotent: re-sending the current state is a 204
// no-op.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req registerDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validURL(req.Data) {
		writeError(w, http.StatusBadRequest, "data must be a valid URL")
		return
	}
	assets := make([]services.Asset, 0, len(req.Assets))
	for _, asset := range req.Assets {
		if asset.AssetID == "" || !validURL(asset.AssetURL) {
			writeError(w, http.StatusBadRequest, "assets must carry asset_id and a valid asset_url")
			return
		}
		assets = append(assets, services.Asset{ID: asset.AssetID, URL: asset.AssetURL})
	}

	err := s.Handlers.RegisterDocument(r.Context(), id, req.Data, assets)
	if err == nil {
		w.WriteHeader(http.StatusCreated)
		return
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		s.putDocumentError(w, r, id, err)
		return
	}

	err = s.Handlers.RegisterDocumentVersion(r.Context(), id, req.Data, assets)
	if errors.Is(err, domain.ErrVersionAlreadySet) {
		log.Ctx(r.Context()).Info().Str("id", id).
			Msg("skipping request to add version: already set")
		err = nil
	}
	if err != nil {
		s.putDocumentError(w, r, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putDocumentError(w http.ResponseWriter, r *http.Request, id string, err error) {
	var terminal *domain.NonRetryableError
	if errors.As(err, &terminal) || notFound(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to register document")
	writeError(w, http.StatusInternalServerError, "failed to register document")
}

// DeleteDocument appends a deletion tombstone. Deleting an already
// deleted document is a 204 no-op.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.Handlers.DeleteDocument(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrDoesNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrVersionAlreadySet):
		w.WriteHeader(http.StatusNoContent)
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to delete document")
		writeError(w, http.StatusInternalServerError, "failed to delete document")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetDocumentManifest serves the raw manifest.
func (s *Server) GetDocumentManifest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	manifest, err := s.Handlers.FetchDocumentManifest(r.Context(), id)
	if notFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to fetch manifest")
		writeError(w, http.StatusInternalServerError, "failed to fetch manifest")
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

type assetListItem struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}

type assetsListResponse struct {
	Data       string                 `json:"data"`
	Assets     []assetListItem        `json:"assets"`
	Timestamp  string                 `json:"timestamp"`
	Renditions []domain.RenditionView `json:"renditions"`
}

func assetsListOf(view domain.VersionView) assetsListResponse {
	resp := assetsListResponse{
		Data:       view.Data,
		Timestamp:  view.Timestamp,
		Assets:     []assetListItem{},
		Renditions: view.Renditions,
	}
	if resp.Renditions == nil {
		resp.Renditions = []domain.RenditionView{}
	}
	for _, asset := range view.Assets {
		resp.Assets = append(resp.Assets, assetListItem{
			Slug: slug.Make(asset.ID),
			ID:   asset.ID,
			URL:  asset.URL,
		})
	}
	return resp
}

// GetDocumentAssets lists a version's assets with URL-safe slugs. The
// optional `version` query parameter selects a version by index.
func (s *Server) GetDocumentAssets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index := -1
	if raw := r.URL.Query().Get("version"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "version must be integer")
			return
		}
		index = parsed
	}
	view, err := s.Handlers.FetchAssetsList(r.Context(), id, index)
	if notFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to fetch assets")
		writeError(w, http.StatusInternalServerError, "failed to fetch assets")
		return
	}
	writeJSON(w, http.StatusOK, assetsListOf(view))
}

// PutDocumentAsset records a new URL for the asset addressed by its
// slug. Re-sending the current URL is a 204 no-op.
func (s *Server) PutDocumentAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	assetSlug := chi.URLParam(r, "slug")

	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validURL(req.AssetURL) {
		writeError(w, http.StatusBadRequest, "asset_url must be a valid URL")
		return
	}

	view, err := s.Handlers.FetchAssetsList(r.Context(), id, -1)
	if notFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to fetch assets")
		writeError(w, http.StatusInternalServerError, "failed to fetch assets")
		return
	}
	assetID := ""
	for _, asset := range view.Assets {
		if slug.Make(asset.ID) == assetSlug {
			assetID = asset.ID
			break
		}
	}
	if assetID == "" {
		writeError(w, http.StatusNotFound,
			"cannot fetch asset with slug "+strconv.Quote(assetSlug)+": asset does not exist")
		return
	}

	err = s.Handlers.RegisterAssetVersion(r.Context(), id, assetID, req.AssetURL)
	switch {
	case errors.Is(err, domain.ErrVersionAlreadySet):
		log.Ctx(r.Context()).Info().Str("id", id).Str("asset", assetID).
			Msg("skipping request to add asset version: already set")
		w.WriteHeader(http.StatusNoContent)
	case notFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to register asset version")
		writeError(w, http.StatusInternalServerError, "failed to register asset version")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetDocumentRenditions lists renditions, optionally at the instant
// given by the `when` query parameter.
func (s *Server) GetDocumentRenditions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	renditions, err := s.Handlers.FetchDocumentRenditions(r.Context(), id, r.URL.Query().Get("when"))
	if notFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to fetch renditions")
		writeError(w, http.StatusInternalServerError, "failed to fetch renditions")
		return
	}
	if renditions == nil {
		renditions = []domain.RenditionView{}
	}
	writeJSON(w, http.StatusOK, renditions)
}

// PatchDocumentRenditions records a new rendition step. Re-sending an
// identical step is a 204 no-op.
func (s *Server) PatchDocumentRenditions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req renditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filename == "" || !validURL(req.DataURL) {
		writeError(w, http.StatusBadRequest, "rendition must carry filename and a valid data_url")
		return
	}

	err := s.Handlers.RegisterRenditionVersion(
		r.Context(), id, req.Filename, req.DataURL, req.Mimetype, req.Lang, req.SizeBytes,
	)
	switch {
	case errors.Is(err, domain.ErrVersionAlreadySet):
		log.Ctx(r.Context()).Info().Str("id", id).Str("filename", req.Filename).
			Msg("skipping request to add rendition version: already set")
		w.WriteHeader(http.StatusNoContent)
	case notFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to register rendition")
		writeError(w, http.StatusInternalServerError, "failed to register rendition")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetDocumentDiff compares two versions selected by instant.
// `from_when` is required; an absent `to_when` targets the latest
// version.
func (s *Server) GetDocumentDiff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fromWhen := r.URL.Query().Get("from_when")
	if fromWhen == "" {
		writeError(w, http.StatusBadRequest, "cannot fetch diff: missing attribute from_when")
		return
	}
	diff, err := s.Handlers.DiffDocumentVersions(r.Context(), id, fromWhen, r.URL.Query().Get("to_when"))
	if notFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to diff document versions")
		writeError(w, http.StatusInternalServerError, "failed to diff document versions")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write(diff)
}

// GetDocumentFront serves the sanitised front-matter of the latest
// version.
func (s *Server) GetDocumentFront(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	front, err := s.Handlers.SanitizeDocumentFront(r.Context(), id)
	if notFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("failed to sanitize front")
		writeError(w, http.StatusInternalServerError, "failed to sanitize front")
		return
	}
	writeJSON(w, http.StatusOK, front)
}
