package httpapi

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/scieloorg/documentstore/internal/store"
)

type changeItem struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Deleted   bool   `json:"deleted,omitempty"`
}

type changesResponse struct {
	Since   string       `json:"since"`
	Limit   int          `json:"limit"`
	Results []changeItem `json:"results"`
}

// GetChanges serves the change feed, paginated by timestamp.
func (s *Server) GetChanges(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	limit, err := parseLimit(r.URL.Query().Get("limit"), store.DefaultChangesLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changes, err := s.Handlers.FetchChanges(r.Context(), since, limit)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to fetch changes")
		writeError(w, http.StatusInternalServerError, "failed to fetch changes")
		return
	}

	results := make([]changeItem, 0, len(changes))
	for _, change := range changes {
		results = append(results, changeItem{
			ID:        entityRoutePath(change),
			Timestamp: change.Timestamp,
			Deleted:   change.Deleted,
		})
	}
	writeJSON(w, http.StatusOK, changesResponse{Since: since, Limit: limit, Results: results})
}
