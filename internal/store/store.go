// Package store defines the persistence and unit-of-work contracts the
// command handlers operate against. Concrete implementations live in
// the mongo and memory subpackages.
package store

import (
	"context"

	"github.com/scieloorg/documentstore/internal/domain"
)

// DefaultChangesLimit caps how many change records a single Filter
// call returns.
const DefaultChangesLimit = 500

// Entity tags a change record with the kind of entity it refers to.
type Entity string

const (
	EntityDocument          Entity = "Document"
	EntityDocumentsBundle   Entity = "DocumentsBundle"
	EntityJournal           Entity = "Journal"
	EntityDocumentRendition Entity = "DocumentRendition"
)

// Change is one entry of the ordered global mutation feed consumed by
// downstream systems.
type Change struct {
	Timestamp string `json:"timestamp" bson:"timestamp"`
	Entity    Entity `json:"entity" bson:"entity"`
	ID        string `json:"id" bson:"id"`
	Deleted   bool   `json:"deleted,omitempty" bson:"deleted,omitempty"`
}

// DocumentStore persists document manifests by id.
type DocumentStore interface {
	// Add inserts a new document; a taken id yields ErrAlreadyExists.
	Add(ctx context.Context, document *domain.Document) error
	// Update replaces an existing document; an unknown id yields
	// ErrDoesNotExist.
	Update(ctx context.Context, document *domain.Document) error
	// Fetch loads a document; an unknown id yields ErrDoesNotExist.
	Fetch(ctx context.Context, id string) (*domain.Document, error)
}

// BundleStore persists documents-bundle manifests by id.
type BundleStore interface {
	Add(ctx context.Context, bundle *domain.DocumentsBundle) error
	Update(ctx context.Context, bundle *domain.DocumentsBundle) error
	Fetch(ctx context.Context, id string) (*domain.DocumentsBundle, error)
}

// JournalStore persists journal manifests by id.
type JournalStore interface {
	Add(ctx context.Context, journal *domain.Journal) error
	Update(ctx context.Context, journal *domain.Journal) error
	Fetch(ctx context.Context, id string) (*domain.Journal, error)
}

// ChangeStore persists the append-only change log. Timestamps are the
// primary key, so equal-instant inserts collide with ErrAlreadyExists.
type ChangeStore interface {
	Add(ctx context.Context, change Change) error
	Fetch(ctx context.Context, id string) (Change, error)
	// Filter returns changes with timestamp lexically greater than
	// since, ascending, at most limit entries.
	Filter(ctx context.Context, since string, limit int) ([]Change, error)
}

// Session is a short-lived unit of work bundling the entity stores,
// the change log and a publish/subscribe bus for domain events.
type Session interface {
	Documents() DocumentStore
	DocumentsBundles() BundleStore
	Journals() JournalStore
	Changes() ChangeStore

	// Observe registers cb for event. Registering the same function
	// twice for the same event is a no-op.
	Observe(event Event, cb Callback)
	// Notify invokes the event's callbacks in registration order.
	// Callback failures are logged and never propagate.
	Notify(ctx context.Context, event Event, data EventData)
}

// SessionFactory opens a fresh session per command.
type SessionFactory func() Session
