// Package httpapi is the HTTP surface of the kernel: request
// validation, dispatch to the command handlers and response shaping.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/services"
	"github.com/scieloorg/documentstore/internal/store"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Handlers *services.Handlers
}

// Routes assembles the router with all kernel endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/documents/{id}", func(r chi.Router) {
		r.Get("/", s.GetDocument)
		r.Put("/", s.PutDocument)
		r.Delete("/", s.DeleteDocument)
		r.Get("/manifest", s.GetDocumentManifest)
		r.Get("/assets", s.GetDocumentAssets)
		r.Put("/assets/{slug}", s.PutDocumentAsset)
		r.Get("/renditions", s.GetDocumentRenditions)
		r.Patch("/renditions", s.PatchDocumentRenditions)
		r.Get("/diff", s.GetDocumentDiff)
		r.Get("/front", s.GetDocumentFront)
	})

	r.Route("/bundles/{id}", func(r chi.Router) {
		r.Get("/", s.GetBundle)
		r.Put("/", s.PutBundle)
		r.Patch("/", s.PatchBundle)
		r.Put("/documents", s.PutBundleDocuments)
	})

	r.Route("/journals/{id}", func(r chi.Router) {
		r.Put("/", s.PutJournal)
		r.Get("/", s.GetJournal)
		r.Patch("/", s.PatchJournal)
		r.Put("/issues", s.PutJournalIssues)
		r.Patch("/issues", s.PatchJournalIssues)
		r.Delete("/issues", s.DeleteJournalIssue)
		r.Put("/aop", s.PutJournalAOP)
		r.Delete("/aop", s.DeleteJournalAOP)
	})

	r.Get("/changes", s.GetChanges)

	return r
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// notFound reports whether err should surface as 404: unknown ids,
// missing versions, tombstones and malformed instants.
func notFound(err error) bool {
	return errors.Is(err, domain.ErrDoesNotExist) ||
		errors.Is(err, domain.ErrMissingVersion) ||
		errors.Is(err, domain.ErrDeletedVersion) ||
		errors.Is(err, domain.ErrUnknownAsset) ||
		errors.Is(err, domain.ErrInvalidTimestamp)
}

// parseLimit parses a limit query param with a default and ceiling.
func parseLimit(q string, def int) (int, error) {
	if q == "" {
		return def, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return 0, errors.New("limit must be integer")
	}
	if n <= 0 || n > def {
		return def, nil
	}
	return n, nil
}

// validURL reports whether raw is an absolute http(s) URL.
func validURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// entityRoutePath renders the feed id of a change as the mutated
// entity's route path.
func entityRoutePath(change store.Change) string {
	switch change.Entity {
	case store.EntityDocument:
		return "/documents/" + change.ID
	case store.EntityDocumentsBundle:
		return "/bundles/" + change.ID
	case store.EntityJournal:
		return "/journals/" + change.ID
	case store.EntityDocumentRendition:
		return "/documents/" + change.ID + "/renditions"
	}
	return "/" + change.ID
}
