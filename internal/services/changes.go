package services

import (
	"context"

	"github.com/scieloorg/documentstore/internal/store"
)

// FetchChanges returns the change feed entries with timestamp greater
// than since, ascending, at most limit entries.
func (h *Handlers) FetchChanges(ctx context.Context, since string, limit int) ([]store.Change, error) {
	session := h.session()
	return session.Changes().Filter(ctx, since, limit)
}

// FetchChange returns a single change record by its id (the change
// timestamp).
func (h *Handlers) FetchChange(ctx context.Context, id string) (store.Change, error) {
	session := h.session()
	return session.Changes().Fetch(ctx, id)
}
