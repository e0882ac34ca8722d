package services

import (
	"context"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

// bundleMetadataFields lists the typed metadata a DocumentsBundle
// accepts, in the order updates are applied. Unknown names in a
// request are ignored.
var bundleMetadataFields = []struct {
	name  string
	apply func(*domain.DocumentsBundle, any) error
}{
	{"publication_year", (*domain.DocumentsBundle).SetPublicationYear},
	{"publication_months", (*domain.DocumentsBundle).SetPublicationMonths},
	{"volume", (*domain.DocumentsBundle).SetVolume},
	{"number", (*domain.DocumentsBundle).SetNumber},
	{"supplement", (*domain.DocumentsBundle).SetSupplement},
	{"pid", (*domain.DocumentsBundle).SetPID},
	{"titles", (*domain.DocumentsBundle).SetTitles},
}

func applyBundleMetadata(bundle *domain.DocumentsBundle, metadata map[string]any) error {
	for _, field := range bundleMetadataFields {
		value, ok := metadata[field.name]
		if !ok {
			continue
		}
		if err := field.apply(bundle, value); err != nil {
			return err
		}
	}
	return nil
}

// CreateDocumentsBundle registers a new bundle with optional initial
// documents and metadata. Only the typed metadata fields are stored.
func (h *Handlers) CreateDocumentsBundle(ctx context.Context, id string, docs []string, metadata map[string]any) error {
	session := h.session()
	bundle := domain.NewDocumentsBundle(id)
	for _, doc := range docs {
		if err := bundle.AddDocument(doc); err != nil {
			return err
		}
	}
	if err := applyBundleMetadata(bundle, metadata); err != nil {
		return err
	}
	if err := session.DocumentsBundles().Add(ctx, bundle); err != nil {
		return err
	}
	session.Notify(ctx, DocumentsBundleCreated, store.EventData{ID: id})
	return nil
}

// FetchDocumentsBundle returns the bundle's manifest.
func (h *Handlers) FetchDocumentsBundle(ctx context.Context, id string) (domain.BundleManifest, error) {
	session := h.session()
	bundle, err := session.DocumentsBundles().Fetch(ctx, id)
	if err != nil {
		return domain.BundleManifest{}, err
	}
	return bundle.Manifest(), nil
}

// UpdateDocumentsBundleMetadata merges the known metadata fields of
// metadata into the bundle. An empty string value clears the field.
func (h *Handlers) UpdateDocumentsBundleMetadata(ctx context.Context, id string, metadata map[string]any) error {
	session := h.session()
	bundle, err := session.DocumentsBundles().Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := applyBundleMetadata(bundle, metadata); err != nil {
		return err
	}
	if err := session.DocumentsBundles().Update(ctx, bundle); err != nil {
		return err
	}
	session.Notify(ctx, DocumentsBundleMetadataUpdated, store.EventData{ID: id})
	return nil
}

// AddDocumentToDocumentsBundle appends a document id to the bundle.
func (h *Handlers) AddDocumentToDocumentsBundle(ctx context.Context, bundleID, docID string) error {
	session := h.session()
	bundle, err := session.DocumentsBundles().Fetch(ctx, bundleID)
	if err != nil {
		return err
	}
	if err := bundle.AddDocument(docID); err != nil {
		return err
	}
	if err := session.DocumentsBundles().Update(ctx, bundle); err != nil {
		return err
	}
	session.Notify(ctx, DocumentAddedToDocumentsBundle, store.EventData{ID: bundleID})
	return nil
}

// InsertDocumentToDocumentsBundle inserts a document id at index,
// clamping out-of-range indices.
func (h *Handlers) InsertDocumentToDocumentsBundle(ctx context.Context, bundleID string, index int, docID string) error {
	session := h.session()
	bundle, err := session.DocumentsBundles().Fetch(ctx, bundleID)
	if err != nil {
		return err
	}
	if err := bundle.InsertDocument(index, docID); err != nil {
		return err
	}
	if err := session.DocumentsBundles().Update(ctx, bundle); err != nil {
		return err
	}
	session.Notify(ctx, DocumentInsertedToDocumentsBundle, store.EventData{ID: bundleID})
	return nil
}

// UpdateDocumentsInDocumentsBundle replaces the bundle's whole
// document list. Duplicate ids in the input are rejected before any
// change is made.
func (h *Handlers) UpdateDocumentsInDocumentsBundle(ctx context.Context, bundleID string, docs []string) error {
	session := h.session()
	bundle, err := session.DocumentsBundles().Fetch(ctx, bundleID)
	if err != nil {
		return err
	}
	if err := bundle.SetDocuments(docs); err != nil {
		return err
	}
	if err := session.DocumentsBundles().Update(ctx, bundle); err != nil {
		return err
	}
	session.Notify(ctx, IssueDocumentsUpdated, store.EventData{ID: bundleID})
	return nil
}
