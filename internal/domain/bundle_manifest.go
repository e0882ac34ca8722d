package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MetadataEntry is one step of a metadata field's history, serialised
// as the two-element array [timestamp, value].
type MetadataEntry struct {
	Timestamp string
	Value     any
}

func (e MetadataEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Timestamp, e.Value})
}

func (e *MetadataEntry) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("metadata entry must be a [timestamp, value] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("metadata entry must be a [timestamp, value] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Timestamp); err != nil {
		return fmt.Errorf("metadata entry timestamp: %w", err)
	}
	return json.Unmarshal(pair[1], &e.Value)
}

// BundleManifest is the manifest shared by DocumentsBundles and
// Journals: an ordered unique item list plus versioned metadata.
// Journals additionally store free-form top-level components, kept in
// Components and serialised as ordinary top-level keys.
type BundleManifest struct {
	ID         string
	Created    string
	Updated    string
	Items      []string
	Metadata   map[string][]MetadataEntry
	Components map[string]any
}

// NewBundleManifest returns an empty bundle manifest stamped with now.
func NewBundleManifest(id string, now Now) BundleManifest {
	timestamp := now()
	return BundleManifest{
		ID:       id,
		Created:  timestamp,
		Updated:  timestamp,
		Items:    []string{},
		Metadata: map[string][]MetadataEntry{},
	}
}

// Clone returns a deep copy. Metadata values and components are shared
// and must be treated as read-only.
func (b BundleManifest) Clone() BundleManifest {
	out := b
	out.Items = make([]string, len(b.Items))
	copy(out.Items, b.Items)
	out.Metadata = make(map[string][]MetadataEntry, len(b.Metadata))
	for k, hist := range b.Metadata {
		h := make([]MetadataEntry, len(hist))
		copy(h, hist)
		out.Metadata[k] = h
	}
	if b.Components != nil {
		out.Components = make(map[string]any, len(b.Components))
		for k, v := range b.Components {
			out.Components[k] = v
		}
	}
	return out
}

func (b BundleManifest) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("id", b.ID)
	w.field("created", b.Created)
	w.field("updated", b.Updated)
	items := b.Items
	if items == nil {
		items = []string{}
	}
	w.field("items", items)
	metadata := b.Metadata
	if metadata == nil {
		metadata = map[string][]MetadataEntry{}
	}
	w.field("metadata", metadata)
	for _, k := range sortedAnyKeys(b.Components) {
		w.field(k, b.Components[k])
	}
	return w.bytes()
}

func (b *BundleManifest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	out := BundleManifest{}
	if err := takeField(fields, "id", &out.ID); err != nil {
		return err
	}
	if err := takeField(fields, "created", &out.Created); err != nil {
		return err
	}
	if err := takeField(fields, "updated", &out.Updated); err != nil {
		return err
	}
	if err := takeField(fields, "items", &out.Items); err != nil {
		return err
	}
	if err := takeField(fields, "metadata", &out.Metadata); err != nil {
		return err
	}
	if len(fields) > 0 {
		out.Components = make(map[string]any, len(fields))
		for k, raw := range fields {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("component %q: %w", k, err)
			}
			out.Components[k] = v
		}
	}
	*b = out
	return nil
}

func (b BundleManifest) hasItem(item string) bool {
	for _, existing := range b.Items {
		if existing == item {
			return true
		}
	}
	return false
}

// SetBundleMetadata appends a (now, value) step to the field's history.
// The entry and the manifest's updated field share one clock reading.
func SetBundleMetadata(b BundleManifest, name string, value any, now Now) BundleManifest {
	out := b.Clone()
	timestamp := now()
	out.Metadata[name] = append(out.Metadata[name], MetadataEntry{Timestamp: timestamp, Value: value})
	out.Updated = timestamp
	return out
}

// GetBundleMetadata returns the field's latest value.
func GetBundleMetadata(b BundleManifest, name string) (any, bool) {
	hist := b.Metadata[name]
	if len(hist) == 0 {
		return nil, false
	}
	return hist[len(hist)-1].Value, true
}

// GetBundleMetadataAll returns the field's full history.
func GetBundleMetadataAll(b BundleManifest, name string) []MetadataEntry {
	return b.Metadata[name]
}

// AddBundleItem appends item; ids are unique within a bundle.
func AddBundleItem(b BundleManifest, item string, now Now) (BundleManifest, error) {
	if b.hasItem(item) {
		return BundleManifest{}, fmt.Errorf("cannot add item %q in bundle: the item id %w", item, ErrAlreadyExists)
	}
	out := b.Clone()
	out.Items = append(out.Items, item)
	out.Updated = now()
	return out, nil
}

// InsertBundleItem inserts item at index. Negative indices count from
// the end; out-of-range indices clamp to the head or the tail.
func InsertBundleItem(b BundleManifest, index int, item string, now Now) (BundleManifest, error) {
	if b.hasItem(item) {
		return BundleManifest{}, fmt.Errorf("cannot insert item %q in bundle: the item id %w", item, ErrAlreadyExists)
	}
	out := b.Clone()
	i := index
	if i < 0 {
		i += len(out.Items)
		if i < 0 {
			i = 0
		}
	}
	if i > len(out.Items) {
		i = len(out.Items)
	}
	out.Items = append(out.Items[:i], append([]string{item}, out.Items[i:]...)...)
	out.Updated = now()
	return out, nil
}

// RemoveBundleItem removes item.
func RemoveBundleItem(b BundleManifest, item string, now Now) (BundleManifest, error) {
	if !b.hasItem(item) {
		return BundleManifest{}, fmt.Errorf("cannot remove item from bundle: the item id %q %w", item, ErrDoesNotExist)
	}
	out := b.Clone()
	items := out.Items[:0]
	for _, existing := range out.Items {
		if existing != item {
			items = append(items, existing)
		}
	}
	out.Items = items
	out.Updated = now()
	return out, nil
}

// SetBundleItems replaces the whole item list. The new list must not
// contain duplicates; nothing changes when it does.
func SetBundleItems(b BundleManifest, items []string, now Now) (BundleManifest, error) {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			return BundleManifest{}, fmt.Errorf("cannot set items in bundle: the item id %q %w", item, ErrAlreadyExists)
		}
		seen[item] = true
	}
	out := b.Clone()
	out.Items = append([]string{}, items...)
	out.Updated = now()
	return out, nil
}

// SetBundleComponent sets a free-form top-level component.
func SetBundleComponent(b BundleManifest, name string, value any, now Now) BundleManifest {
	out := b.Clone()
	if out.Components == nil {
		out.Components = map[string]any{}
	}
	out.Components[name] = value
	out.Updated = now()
	return out
}

// GetBundleComponent returns a component's current value.
func GetBundleComponent(b BundleManifest, name string) (any, bool) {
	v, ok := b.Components[name]
	return v, ok
}

// RemoveBundleComponent drops a component.
func RemoveBundleComponent(b BundleManifest, name string, now Now) (BundleManifest, error) {
	if _, ok := b.Components[name]; !ok {
		return BundleManifest{}, fmt.Errorf("cannot remove component %q from bundle: the component %w", name, ErrDoesNotExist)
	}
	out := b.Clone()
	delete(out.Components, name)
	out.Updated = now()
	return out, nil
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
