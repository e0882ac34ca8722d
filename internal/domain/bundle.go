package domain

import (
	"fmt"
	"regexp"
)

var publicationYearPattern = regexp.MustCompile(`^\d{4}$`)

// DocumentsBundle is a publication-model-agnostic set of documents:
// closed and open issues, ahead-of-print collections, errata and
// retraction collections.
type DocumentsBundle struct {
	manifest BundleManifest
	now      Now
}

// NewDocumentsBundle returns an empty bundle.
func NewDocumentsBundle(id string) *DocumentsBundle {
	return &DocumentsBundle{manifest: NewBundleManifest(id, UTCNow), now: UTCNow}
}

// DocumentsBundleFromManifest wraps an existing manifest.
func DocumentsBundleFromManifest(m BundleManifest) *DocumentsBundle {
	return &DocumentsBundle{manifest: m.Clone(), now: UTCNow}
}

// WithClock replaces the bundle's clock and returns the bundle.
func (b *DocumentsBundle) WithClock(now Now) *DocumentsBundle {
	b.now = now
	return b
}

// ID returns the bundle id.
func (b *DocumentsBundle) ID() string { return b.manifest.ID }

// Manifest returns a snapshot of the manifest.
func (b *DocumentsBundle) Manifest() BundleManifest { return b.manifest.Clone() }

// Documents returns the ordered document ids.
func (b *DocumentsBundle) Documents() []string {
	return b.Manifest().Items
}

// AddDocument appends a document id to the bundle.
func (b *DocumentsBundle) AddDocument(document string) error {
	m, err := AddBundleItem(b.manifest, document, b.now)
	if err != nil {
		return err
	}
	b.manifest = m
	return nil
}

// InsertDocument inserts a document id at index, clamping out-of-range
// indices to the head or the tail.
func (b *DocumentsBundle) InsertDocument(index int, document string) error {
	m, err := InsertBundleItem(b.manifest, index, document, b.now)
	if err != nil {
		return err
	}
	b.manifest = m
	return nil
}

// RemoveDocument removes a document id from the bundle.
func (b *DocumentsBundle) RemoveDocument(document string) error {
	m, err := RemoveBundleItem(b.manifest, document, b.now)
	if err != nil {
		return err
	}
	b.manifest = m
	return nil
}

// SetDocuments replaces the whole document list.
func (b *DocumentsBundle) SetDocuments(documents []string) error {
	m, err := SetBundleItems(b.manifest, documents, b.now)
	if err != nil {
		return err
	}
	b.manifest = m
	return nil
}

// PublicationYear returns the latest publication_year value.
func (b *DocumentsBundle) PublicationYear() string {
	return metadataString(b.manifest, "publication_year")
}

// SetPublicationYear records a new publication year. Accepts strings
// and numbers; the rendered value must be a four-digit year.
func (b *DocumentsBundle) SetPublicationYear(value any) error {
	rendered := renderString(value)
	if !publicationYearPattern.MatchString(rendered) {
		return fmt.Errorf(
			"cannot set publication_year with value %q: the value %w", rendered, ErrInvalidMetadata,
		)
	}
	b.manifest = SetBundleMetadata(b.manifest, "publication_year", rendered, b.now)
	return nil
}

// PublicationMonths returns the latest publication_months value.
func (b *DocumentsBundle) PublicationMonths() map[string]any {
	return metadataObject(b.manifest, "publication_months")
}

// SetPublicationMonths records the months the bundle covers, e.g.
// {"month": 9} or {"range": [9, 12]}.
func (b *DocumentsBundle) SetPublicationMonths(value any) error {
	object, err := coerceObject("publication_months", value)
	if err != nil {
		return err
	}
	b.manifest = SetBundleMetadata(b.manifest, "publication_months", object, b.now)
	return nil
}

// Volume returns the latest volume value.
func (b *DocumentsBundle) Volume() string { return metadataString(b.manifest, "volume") }

// SetVolume records a new volume label.
func (b *DocumentsBundle) SetVolume(value any) error {
	b.manifest = SetBundleMetadata(b.manifest, "volume", renderString(value), b.now)
	return nil
}

// Number returns the latest number value.
func (b *DocumentsBundle) Number() string { return metadataString(b.manifest, "number") }

// SetNumber records a new number label.
func (b *DocumentsBundle) SetNumber(value any) error {
	b.manifest = SetBundleMetadata(b.manifest, "number", renderString(value), b.now)
	return nil
}

// Supplement returns the latest supplement value.
func (b *DocumentsBundle) Supplement() string { return metadataString(b.manifest, "supplement") }

// SetSupplement records a new supplement label.
func (b *DocumentsBundle) SetSupplement(value any) error {
	b.manifest = SetBundleMetadata(b.manifest, "supplement", renderString(value), b.now)
	return nil
}

// PID returns the latest pid value.
func (b *DocumentsBundle) PID() string { return metadataString(b.manifest, "pid") }

// SetPID records the legacy publication identifier.
func (b *DocumentsBundle) SetPID(value any) error {
	b.manifest = SetBundleMetadata(b.manifest, "pid", renderString(value), b.now)
	return nil
}

// Titles returns the latest titles value.
func (b *DocumentsBundle) Titles() []map[string]any {
	return metadataObjectList(b.manifest, "titles")
}

// SetTitles records the bundle titles as a list of {language, title}
// objects.
func (b *DocumentsBundle) SetTitles(value any) error {
	list, err := coerceObjectList("titles", value)
	if err != nil {
		return err
	}
	b.manifest = SetBundleMetadata(b.manifest, "titles", list, b.now)
	return nil
}

func metadataString(m BundleManifest, name string) string {
	v, ok := GetBundleMetadata(m, name)
	if !ok {
		return ""
	}
	return renderString(v)
}

func metadataObject(m BundleManifest, name string) map[string]any {
	v, ok := GetBundleMetadata(m, name)
	if !ok {
		return map[string]any{}
	}
	if object, ok := v.(map[string]any); ok {
		return object
	}
	return map[string]any{}
}

func metadataObjectList(m BundleManifest, name string) []map[string]any {
	v, ok := GetBundleMetadata(m, name)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if object, ok := item.(map[string]any); ok {
				out = append(out, object)
			}
		}
		return out
	}
	return nil
}

func metadataStringList(m BundleManifest, name string) []string {
	v, ok := GetBundleMetadata(m, name)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, renderString(item))
		}
		return out
	}
	return nil
}

// renderString renders scalar metadata values the way they are written:
// strings pass through, numbers lose insignificant fraction digits.
func renderString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceObject(name string, value any) (map[string]any, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf(
			"cannot set %s with value %v: the value %w, an object is required", name, value, ErrInvalidMetadata,
		)
	}
	return object, nil
}

func coerceObjectList(name string, value any) ([]map[string]any, error) {
	switch list := value.(type) {
	case []map[string]any:
		return list, nil
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			object, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf(
					"cannot set %s with value %v: the value %w, a list of objects is required", name, value, ErrInvalidMetadata,
				)
			}
			out = append(out, object)
		}
		return out, nil
	}
	return nil, fmt.Errorf(
		"cannot set %s with value %v: the value %w, a list of objects is required", name, value, ErrInvalidMetadata,
	)
}

func coerceStringList(name string, value any) ([]string, error) {
	switch list := value.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf(
					"cannot set %s with value %v: the value %w, a list of strings is required", name, value, ErrInvalidMetadata,
				)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf(
		"cannot set %s with value %v: the value %w, a list of strings is required", name, value, ErrInvalidMetadata,
	)
}
