package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

// Asset pairs an asset id with the URL of its current content,
// preserving the order the caller declared.
type Asset struct {
	ID  string
	URL string
}

// RegisterDocument registers a brand-new document: the XML at dataURL
// becomes its first version and each asset gets its first URL.
func (h *Handlers) RegisterDocument(ctx context.Context, id, dataURL string, assets []Asset) error {
	session := h.session()
	document := domain.NewDocument(id)
	if err := h.applyVersion(ctx, document, dataURL, assets); err != nil {
		return err
	}
	if err := session.Documents().Add(ctx, document); err != nil {
		return err
	}
	session.Notify(ctx, DocumentRegistered, store.EventData{ID: id})
	return nil
}

// RegisterDocumentVersion appends a new version to an already
// registered document. Assets whose URL is already current are
// skipped, so re-sending the same asset list is harmless.
func (h *Handlers) RegisterDocumentVersion(ctx context.Context, id, dataURL string, assets []Asset) error {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := h.applyVersion(ctx, document, dataURL, assets); err != nil {
		return err
	}
	if err := session.Documents().Update(ctx, document); err != nil {
		return err
	}
	session.Notify(ctx, DocumentVersionRegistered, store.EventData{ID: id})
	return nil
}

func (h *Handlers) applyVersion(ctx context.Context, document *domain.Document, dataURL string, assets []Asset) error {
	if err := document.NewVersion(ctx, dataURL, h.getAssets, h.timeout); err != nil {
		return err
	}
	for _, asset := range assets {
		err := document.NewAssetVersion(asset.ID, asset.URL)
		if errors.Is(err, domain.ErrVersionAlreadySet) {
			// Carry-forward already seeded this URL.
			log.Debug().Str("id", document.ID()).Str("asset", asset.ID).
				Msg("skipping asset version: already set")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FetchDocumentData returns the XML of a document version with asset
// references rewritten to their historical URIs. A non-empty versionAt
// takes precedence over versionIndex.
func (h *Handlers) FetchDocumentData(ctx context.Context, id string, versionIndex int, versionAt string) ([]byte, error) {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if versionAt != "" {
		return document.DataAt(ctx, versionAt, h.getAssets, h.timeout)
	}
	return document.Data(ctx, versionIndex, h.getAssets, h.timeout)
}

// FetchDocumentManifest returns the document's raw manifest.
func (h *Handlers) FetchDocumentManifest(ctx context.Context, id string) (domain.Manifest, error) {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return domain.Manifest{}, err
	}
	return document.Manifest(), nil
}

// FetchAssetsList returns a version materialised with each asset
// collapsed to its latest URI.
func (h *Handlers) FetchAssetsList(ctx context.Context, id string, versionIndex int) (domain.VersionView, error) {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return domain.VersionView{}, err
	}
	return document.Version(versionIndex)
}

// RegisterAssetVersion records a new URL for an asset of the latest
// document version.
func (h *Handlers) RegisterAssetVersion(ctx context.Context, id, assetID, assetURL string) error {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := document.NewAssetVersion(assetID, assetURL); err != nil {
		return err
	}
	if err := session.Documents().Update(ctx, document); err != nil {
		return err
	}
	session.Notify(ctx, AssetVersionRegistered, store.EventData{ID: id})
	return nil
}

// RegisterRenditionVersion records a new step for the rendition
// identified by filename, mimetype and lang.
func (h *Handlers) RegisterRenditionVersion(ctx context.Context, id, filename, dataURL, mimetype, lang string, sizeBytes int64) error {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := document.NewRenditionVersion(filename, dataURL, mimetype, lang, sizeBytes); err != nil {
		return err
	}
	if err := session.Documents().Update(ctx, document); err != nil {
		return err
	}
	session.Notify(ctx, RenditionVersionRegistered, store.EventData{ID: id})
	return nil
}

// FetchDocumentRenditions lists the renditions of a version. A
// non-empty versionAt selects the version in effect at that instant.
func (h *Handlers) FetchDocumentRenditions(ctx context.Context, id string, versionAt string) ([]domain.RenditionView, error) {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	var view domain.VersionView
	if versionAt != "" {
		view, err = document.VersionAt(versionAt)
	} else {
		view, err = document.Version(-1)
	}
	if err != nil {
		return nil, err
	}
	if view.Deleted {
		return nil, fmt.Errorf("cannot list renditions: %w", domain.ErrDeletedVersion)
	}
	return view.Renditions, nil
}

// DeleteDocument appends a deletion tombstone to the document.
func (h *Handlers) DeleteDocument(ctx context.Context, id string) error {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := document.NewDeletedVersion(); err != nil {
		return err
	}
	if err := session.Documents().Update(ctx, document); err != nil {
		return err
	}
	session.Notify(ctx, DocumentDeleted, store.EventData{ID: id, Deleted: true})
	return nil
}

// DiffDocumentVersions returns a unified line diff between the
// byte-materialised XML of two versions selected by instant. An empty
// toVersionAt targets the latest version, labelled "latest".
func (h *Handlers) DiffDocumentVersions(ctx context.Context, id, fromVersionAt, toVersionAt string) ([]byte, error) {
	session := h.session()
	document, err := session.Documents().Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	fromData, err := document.DataAt(ctx, fromVersionAt, h.getAssets, h.timeout)
	if err != nil {
		return nil, err
	}
	toLabel := toVersionAt
	var toData []byte
	if toVersionAt == "" {
		toLabel = "latest"
		toData, err = document.Data(ctx, -1, h.getAssets, h.timeout)
	} else {
		toData, err = document.DataAt(ctx, toVersionAt, h.getAssets, h.timeout)
	}
	if err != nil {
		return nil, err
	}
	return unifiedDiff(string(fromData), string(toData), fromVersionAt, toLabel), nil
}

// SanitizeDocumentFront reduces the latest version's XML to the
// normalised front-matter structure.
func (h *Handlers) SanitizeDocumentFront(ctx context.Context, id string) (map[string]any, error) {
	data, err := h.FetchDocumentData(ctx, id, -1, "")
	if err != nil {
		return nil, err
	}
	return domain.SanitizeFront(data)
}

// unifiedDiff renders a line-oriented diff with ---/+++ headers naming
// the compared versions.
func unifiedDiff(from, to, fromLabel, toLabel string) []byte {
	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	var b strings.Builder
	b.WriteString("--- " + fromLabel + "\n")
	b.WriteString("+++ " + toLabel + "\n")
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" && d.Text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			b.WriteString(prefix + line + "\n")
		}
	}
	return []byte(b.String())
}
