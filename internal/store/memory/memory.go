// Package memory provides in-memory store implementations used by the
// service and HTTP handler test suites. Semantics mirror the mongo
// package: manifests are stored by id and the change log is keyed by
// timestamp.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

// DB is the shared in-memory state behind the sessions of one test.
type DB struct {
	mu        sync.Mutex
	documents map[string]domain.Manifest
	bundles   map[string]domain.BundleManifest
	journals  map[string]domain.BundleManifest
	changes   map[string]store.Change
}

// NewDB returns an empty in-memory database.
func NewDB() *DB {
	return &DB{
		documents: make(map[string]domain.Manifest),
		bundles:   make(map[string]domain.BundleManifest),
		journals:  make(map[string]domain.BundleManifest),
		changes:   make(map[string]store.Change),
	}
}

// NewSession opens a session over the shared state.
func (db *DB) NewSession() store.Session {
	return &session{db: db}
}

// SessionFactory adapts NewSession to the factory contract.
func (db *DB) SessionFactory() store.SessionFactory {
	return db.NewSession
}

type session struct {
	store.Bus
	db *DB
}

func (s *session) Documents() store.DocumentStore      { return &documentStore{db: s.db} }
func (s *session) DocumentsBundles() store.BundleStore { return &bundleStore{db: s.db} }
func (s *session) Journals() store.JournalStore        { return &journalStore{db: s.db} }
func (s *session) Changes() store.ChangeStore          { return &changeStore{db: s.db} }

type documentStore struct {
	db *DB
}

func (s *documentStore) Add(_ context.Context, document *domain.Document) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := document.ID()
	if _, ok := s.db.documents[id]; ok {
		return fmt.Errorf("cannot add data with id %q: the id %w", id, domain.ErrAlreadyExists)
	}
	s.db.documents[id] = document.Manifest()
	return nil
}

func (s *documentStore) Update(_ context.Context, document *domain.Document) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := document.ID()
	if _, ok := s.db.documents[id]; !ok {
		return fmt.Errorf("cannot update data with id %q: data %w", id, domain.ErrDoesNotExist)
	}
	s.db.documents[id] = document.Manifest()
	return nil
}

func (s *documentStore) Fetch(_ context.Context, id string) (*domain.Document, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	manifest, ok := s.db.documents[id]
	if !ok {
		return nil, fmt.Errorf("cannot fetch data with id %q: data %w", id, domain.ErrDoesNotExist)
	}
	return domain.DocumentFromManifest(manifest), nil
}

type bundleStore struct {
	db *DB
}

func (s *bundleStore) Add(_ context.Context, bundle *domain.DocumentsBundle) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := bundle.ID()
	if _, ok := s.db.bundles[id]; ok {
		return fmt.Errorf("cannot add data with id %q: the id %w", id, domain.ErrAlreadyExists)
	}
	s.db.bundles[id] = bundle.Manifest()
	return nil
}

func (s *bundleStore) Update(_ context.Context, bundle *domain.DocumentsBundle) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := bundle.ID()
	if _, ok := s.db.bundles[id]; !ok {
		return fmt.Errorf("cannot update data with id %q: data %w", id, domain.ErrDoesNotExist)
	}
	s.db.bundles[id] = bundle.Manifest()
	return nil
}

func (s *bundleStore) Fetch(_ context.Context, id string) (*domain.DocumentsBundle, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	manifest, ok := s.db.bundles[id]
	if !ok {
		return nil, fmt.Errorf("cannot fetch data with id %q: data %w", id, domain.ErrDoesNotExist)
	}
	return domain.DocumentsBundleFromManifest(manifest), nil
}

type journalStore struct {
	db *DB
}

func (s *journalStore) Add(_ context.Context, journal *domain.Journal) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := journal.ID()
	if _, ok := s.db.journals[id]; ok {
		return fmt.Errorf("cannot add data with id %q: the id %w", id, domain.ErrAlreadyExists)
	}
	s.db.journals[id] = journal.Manifest()
	return nil
}

func (s *journalStore) Update(_ context.Context, journal *domain.Journal) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := journal.ID()
	if _, ok := s.db.journals[id]; !ok {
		return fmt.Errorf("cannot update data with id %q: data %w", id, domain.ErrDoesNotExist)
	}
	s.db.journals[id] = journal.Manifest()
	return nil
}

func (s *journalStore) Fetch(_ context.Context, id string) (*domain.Journal, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	manifest, ok := s.db.journals[id]
	if !ok {
		return nil, fmt.Errorf("cannot fetch data with id %q: data %w", id, domain.ErrDoesNotExist)
	}
	return domain.JournalFromManifest(manifest), nil
}

type changeStore struct {
	db *DB
}

func (s *changeStore) Add(_ context.Context, change store.Change) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.changes[change.Timestamp]; ok {
		return fmt.Errorf(
			"cannot add data with id %q: the id %w", change.Timestamp, domain.ErrAlreadyExists,
		)
	}
	s.db.changes[change.Timestamp] = change
	return nil
}

func (s *changeStore) Fetch(_ context.Context, id string) (store.Change, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	change, ok := s.db.changes[id]
	if !ok {
		return store.Change{}, fmt.Errorf(
			"cannot fetch data with id %q: data %w", id, domain.ErrDoesNotExist,
		)
	}
	return change, nil
}

func (s *changeStore) Filter(_ context.Context, since string, limit int) ([]store.Change, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if limit <= 0 {
		limit = store.DefaultChangesLimit
	}
	out := make([]store.Change, 0)
	for ts, change := range s.db.changes {
		if ts > since {
			out = append(out, change)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
