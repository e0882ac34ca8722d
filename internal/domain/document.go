package domain

import (
	"context"
	"fmt"
	"time"
)

// AssetsGetter resolves a document URL into its parsed XML plus the
// static asset references found inside, in document order. It reports
// transport problems as RetryableError or NonRetryableError.
type AssetsGetter func(ctx context.Context, url string, timeout time.Duration) (*ParsedXML, error)

// AssetView is an asset collapsed to a single URI.
type AssetView struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RenditionView is a rendition collapsed to a single history step. A
// rendition with no step at the requested instant collapses to the
// zero value, which serialises as an empty object.
type RenditionView struct {
	Filename  string `json:"filename,omitempty"`
	URL       string `json:"url,omitempty"`
	Mimetype  string `json:"mimetype,omitempty"`
	Lang      string `json:"lang,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// VersionView is a version materialised for a point in time: every
// asset and rendition history collapsed to the entry in effect.
type VersionView struct {
	Data       string          `json:"data,omitempty"`
	Assets     []AssetView     `json:"assets,omitempty"`
	Timestamp  string          `json:"timestamp"`
	Renditions []RenditionView `json:"renditions,omitempty"`
	Deleted    bool            `json:"deleted,omitempty"`
}

// AssetURL returns the collapsed URL for id, or "" when unknown.
func (v VersionView) AssetURL(id string) string {
	for _, a := range v.Assets {
		if a.ID == id {
			return a.URL
		}
	}
	return ""
}

// Document wraps a manifest and enforces the version-history rules.
type Document struct {
	manifest Manifest
	now      Now
}

// NewDocument returns a document with an empty history.
func NewDocument(id string) *Document {
	return &Document{manifest: NewManifest(id), now: UTCNow}
}

// DocumentFromManifest wraps an existing manifest.
func DocumentFromManifest(m Manifest) *Document {
	return &Document{manifest: m.Clone(), now: UTCNow}
}

// WithClock replaces the document's clock and returns the document.
func (d *Document) WithClock(now Now) *Document {
	d.now = now
	return d
}

// ID returns the document id.
func (d *Document) ID() string { return d.manifest.ID }

// Manifest returns a snapshot of the manifest. Mutating the snapshot
// does not affect the document.
func (d *Document) Manifest() Manifest { return d.manifest.Clone() }

// Version materialises the version at index. Negative indices count
// from the end; out of range yields ErrMissingVersion.
func (d *Document) Version(index int) (VersionView, error) {
	i := index
	if i < 0 {
		i += len(d.manifest.Versions)
	}
	if i < 0 || i >= len(d.manifest.Versions) {
		return VersionView{}, fmt.Errorf("%w for index: %d", ErrMissingVersion, index)
	}
	return materialize(d.manifest.Versions[i]), nil
}

// VersionAt materialises the version in effect at the given instant.
// The instant may have day, minute, second or fractional-second
// resolution; day resolution addresses the end of that day.
func (d *Document) VersionAt(timestamp string) (VersionView, error) {
	target, err := TargetTimestamp(timestamp)
	if err != nil {
		return VersionView{}, err
	}
	best := -1
	bestTS := ""
	for i, v := range d.manifest.Versions {
		if v.Timestamp <= target && (best < 0 || v.Timestamp >= bestTS) {
			best, bestTS = i, v.Timestamp
		}
	}
	if best < 0 {
		return VersionView{}, fmt.Errorf("%w for timestamp: %s", ErrMissingVersion, timestamp)
	}
	v := d.manifest.Versions[best]
	if v.Deleted {
		return VersionView{Deleted: true, Timestamp: v.Timestamp}, nil
	}
	view := VersionView{Data: v.Data, Timestamp: v.Timestamp}
	for _, a := range v.Assets {
		view.Assets = append(view.Assets, AssetView{ID: a.ID, URL: assetURLAt(a.History, target)})
	}
	for _, r := range v.Renditions {
		view.Renditions = append(view.Renditions, renditionAt(r, target))
	}
	return view, nil
}

// NewVersion registers dataURL as a new live version. The asset ids
// found in the new XML are seeded with the most recent URI known for
// them in the current latest version (carry-forward), or left empty.
func (d *Document) NewVersion(ctx context.Context, dataURL string, getter AssetsGetter, timeout time.Duration) error {
	latest := d.latestOrZero()
	if !latest.Deleted && latest.Data == dataURL {
		return fmt.Errorf("could not add version: %w", ErrVersionAlreadySet)
	}
	parsed, err := getter(ctx, dataURL, timeout)
	if err != nil {
		return err
	}
	seeds := make([]AssetSeed, 0, len(parsed.Assets))
	for _, ref := range parsed.Assets {
		seeds = append(seeds, AssetSeed{ID: ref.ID, URI: latest.AssetURL(ref.ID)})
	}
	d.manifest = AddVersion(d.manifest, dataURL, seeds, d.now)
	return nil
}

// NewAssetVersion registers dataURL as a new version of the asset in
// the latest document version.
func (d *Document) NewAssetVersion(assetID, dataURL string) error {
	latest, err := d.latestIfNotDeleted("cannot add version")
	if err != nil {
		return err
	}
	if latest.AssetURL(assetID) == dataURL && dataURL != "" {
		return fmt.Errorf("could not add version: %w", ErrVersionAlreadySet)
	}
	m, err := AddAssetVersion(d.manifest, assetID, dataURL, d.now)
	if err != nil {
		return err
	}
	d.manifest = m
	return nil
}

// NewRenditionVersion registers dataURL as a new step of the rendition
// identified by filename, mimetype and lang. A step identical to the
// current one in all five fields is rejected.
func (d *Document) NewRenditionVersion(filename, dataURL, mimetype, lang string, sizeBytes int64) error {
	latest, err := d.latestIfNotDeleted("cannot add rendition")
	if err != nil {
		return err
	}
	for _, r := range latest.Renditions {
		if r.Filename == filename && r.URL == dataURL && r.Mimetype == mimetype &&
			r.Lang == lang && r.SizeBytes == sizeBytes {
			return fmt.Errorf("could not add rendition: %w", ErrVersionAlreadySet)
		}
	}
	m, err := AddRenditionVersion(d.manifest, filename, dataURL, mimetype, lang, sizeBytes, d.now)
	if err != nil {
		return err
	}
	d.manifest = m
	return nil
}

// NewDeletedVersion appends a deletion tombstone. Deleting an already
// deleted document is rejected.
func (d *Document) NewDeletedVersion() error {
	if d.latestOrZero().Deleted {
		return fmt.Errorf("could not add deleted version: %w", ErrVersionAlreadySet)
	}
	d.manifest = AddDeletedVersion(d.manifest, d.now)
	return nil
}

// Data returns the XML bytes for the version at index, with every
// static asset reference rewritten to the URI of that version.
func (d *Document) Data(ctx context.Context, index int, getter AssetsGetter, timeout time.Duration) ([]byte, error) {
	view, err := d.Version(index)
	if err != nil {
		return nil, err
	}
	return d.render(ctx, view, getter, timeout)
}

// DataAt is Data for a point in time: asset references are rewritten
// to the URIs in effect at the given instant.
func (d *Document) DataAt(ctx context.Context, timestamp string, getter AssetsGetter, timeout time.Duration) ([]byte, error) {
	view, err := d.VersionAt(timestamp)
	if err != nil {
		return nil, err
	}
	return d.render(ctx, view, getter, timeout)
}

func (d *Document) render(ctx context.Context, view VersionView, getter AssetsGetter, timeout time.Duration) ([]byte, error) {
	if view.Deleted {
		return nil, fmt.Errorf("cannot get data: %w", ErrDeletedVersion)
	}
	parsed, err := getter(ctx, view.Data, timeout)
	if err != nil {
		return nil, err
	}
	for _, ref := range parsed.Assets {
		ref.SetHref(view.AssetURL(ref.ID))
	}
	return parsed.Bytes()
}

func (d *Document) latestOrZero() VersionView {
	view, err := d.Version(-1)
	if err != nil {
		return VersionView{}
	}
	return view
}

func (d *Document) latestIfNotDeleted(action string) (VersionView, error) {
	latest := d.latestOrZero()
	if latest.Deleted {
		return VersionView{}, fmt.Errorf("%s: the document is deleted: %w", action, ErrDeletedVersion)
	}
	return latest, nil
}

func materialize(v Version) VersionView {
	if v.Deleted {
		return VersionView{Deleted: true, Timestamp: v.Timestamp}
	}
	view := VersionView{Data: v.Data, Timestamp: v.Timestamp}
	for _, a := range v.Assets {
		uri := ""
		if n := len(a.History); n > 0 {
			uri = a.History[n-1].URI
		}
		view.Assets = append(view.Assets, AssetView{ID: a.ID, URL: uri})
	}
	for _, r := range v.Renditions {
		rv := RenditionView{Filename: r.Filename, Mimetype: r.Mimetype, Lang: r.Lang}
		if n := len(r.Data); n > 0 {
			rv.URL = r.Data[n-1].URL
			rv.SizeBytes = r.Data[n-1].SizeBytes
		}
		view.Renditions = append(view.Renditions, rv)
	}
	return view
}

// assetURLAt picks the URI with the greatest timestamp not after
// target, the last of equal timestamps winning. Histories are expected
// to be non-decreasing but the selection does not depend on it.
func assetURLAt(hist []AssetEntry, target string) string {
	url := ""
	best := ""
	found := false
	for _, e := range hist {
		if e.Timestamp <= target && (!found || e.Timestamp >= best) {
			best, url, found = e.Timestamp, e.URI, true
		}
	}
	return url
}

func renditionAt(r Rendition, target string) RenditionView {
	var selected *RenditionEntry
	best := ""
	for i := range r.Data {
		e := r.Data[i]
		if e.Timestamp <= target && (selected == nil || e.Timestamp >= best) {
			best, selected = e.Timestamp, &r.Data[i]
		}
	}
	if selected == nil {
		return RenditionView{}
	}
	return RenditionView{
		Filename:  r.Filename,
		Mimetype:  r.Mimetype,
		Lang:      r.Lang,
		URL:       selected.URL,
		SizeBytes: selected.SizeBytes,
	}
}
