package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// AssetEntry is one step in an asset's history, serialised as the
// two-element array [timestamp, uri].
type AssetEntry struct {
	Timestamp string
	URI       string
}

func (e AssetEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Timestamp, e.URI})
}

func (e *AssetEntry) UnmarshalJSON(b []byte) error {
	var pair [2]string
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("asset entry must be a [timestamp, uri] pair: %w", err)
	}
	e.Timestamp, e.URI = pair[0], pair[1]
	return nil
}

// Asset is an asset id together with its append-only history.
type Asset struct {
	ID      string
	History []AssetEntry
}

// Assets keeps asset histories keyed by id. It serialises as a JSON
// object and preserves key insertion order across round-trips, which
// is the document order in which assets were first discovered.
type Assets []Asset

func (a Assets) index(id string) int {
	for i := range a {
		if a[i].ID == id {
			return i
		}
	}
	return -1
}

// Has reports whether id is a known asset.
func (a Assets) Has(id string) bool { return a.index(id) >= 0 }

// Get returns the history for id.
func (a Assets) Get(id string) ([]AssetEntry, bool) {
	if i := a.index(id); i >= 0 {
		return a[i].History, true
	}
	return nil, false
}

// Clone returns a deep copy.
func (a Assets) Clone() Assets {
	if a == nil {
		return nil
	}
	out := make(Assets, len(a))
	for i, asset := range a {
		hist := make([]AssetEntry, len(asset.History))
		copy(hist, asset.History)
		out[i] = Asset{ID: asset.ID, History: hist}
	}
	return out
}

func (a Assets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, asset := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(asset.ID)
		if err != nil {
			return nil, err
		}
		hist := asset.History
		if hist == nil {
			hist = []AssetEntry{}
		}
		val, err := json.Marshal(hist)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Assets) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("assets must be a JSON object")
	}
	out := Assets{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("assets keys must be strings")
		}
		var hist []AssetEntry
		if err := dec.Decode(&hist); err != nil {
			return fmt.Errorf("asset %q: %w", key, err)
		}
		out = append(out, Asset{ID: key, History: hist})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

// RenditionEntry is one step in a rendition's history.
type RenditionEntry struct {
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
}

// Rendition is an alternative serialised form of the document, e.g. a
// PDF in a given language, identified by (filename, lang, mimetype).
type Rendition struct {
	Filename string           `json:"filename"`
	Data     []RenditionEntry `json:"data"`
	Mimetype string           `json:"mimetype"`
	Lang     string           `json:"lang"`
}

// Clone returns a deep copy.
func (r Rendition) Clone() Rendition {
	data := make([]RenditionEntry, len(r.Data))
	copy(data, r.Data)
	r.Data = data
	return r
}

// Version is one entry of a document's history: either a live
// data+assets+renditions record or a deletion tombstone. Keys the
// decoder does not know are kept in Extra and written back verbatim.
type Version struct {
	Data       string
	Timestamp  string
	Assets     Assets
	Renditions []Rendition
	Deleted    bool
	Extra      map[string]json.RawMessage
}

// Clone returns a deep copy.
func (v Version) Clone() Version {
	out := Version{
		Data:      v.Data,
		Timestamp: v.Timestamp,
		Assets:    v.Assets.Clone(),
		Deleted:   v.Deleted,
		Extra:     cloneRaw(v.Extra),
	}
	if v.Renditions != nil {
		out.Renditions = make([]Rendition, len(v.Renditions))
		for i, r := range v.Renditions {
			out.Renditions[i] = r.Clone()
		}
	}
	return out
}

func (v Version) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if v.Deleted {
		w.field("deleted", true)
		w.field("timestamp", v.Timestamp)
	} else {
		w.field("data", v.Data)
		assets := v.Assets
		if assets == nil {
			assets = Assets{}
		}
		w.field("assets", assets)
		w.field("timestamp", v.Timestamp)
		renditions := v.Renditions
		if renditions == nil {
			renditions = []Rendition{}
		}
		w.field("renditions", renditions)
	}
	w.rawFields(v.Extra)
	return w.bytes()
}

func (v *Version) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	out := Version{}
	if err := takeField(fields, "deleted", &out.Deleted); err != nil {
		return err
	}
	if err := takeField(fields, "timestamp", &out.Timestamp); err != nil {
		return err
	}
	if err := takeField(fields, "data", &out.Data); err != nil {
		return err
	}
	if err := takeField(fields, "assets", &out.Assets); err != nil {
		return err
	}
	if err := takeField(fields, "renditions", &out.Renditions); err != nil {
		return err
	}
	if len(fields) > 0 {
		out.Extra = fields
	}
	*v = out
	return nil
}

// Manifest is the canonical append-only description of a document's
// state over time.
type Manifest struct {
	ID       string
	Versions []Version
	Extra    map[string]json.RawMessage
}

// NewManifest returns a manifest for id with no versions.
func NewManifest(id string) Manifest {
	return Manifest{ID: id, Versions: []Version{}}
}

// Clone returns a deep copy.
func (m Manifest) Clone() Manifest {
	out := Manifest{ID: m.ID, Extra: cloneRaw(m.Extra)}
	if m.Versions != nil {
		out.Versions = make([]Version, len(m.Versions))
		for i, v := range m.Versions {
			out.Versions[i] = v.Clone()
		}
	}
	return out
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("id", m.ID)
	versions := m.Versions
	if versions == nil {
		versions = []Version{}
	}
	w.field("versions", versions)
	w.rawFields(m.Extra)
	return w.bytes()
}

func (m *Manifest) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	out := Manifest{}
	if err := takeField(fields, "id", &out.ID); err != nil {
		return err
	}
	if err := takeField(fields, "versions", &out.Versions); err != nil {
		return err
	}
	if len(fields) > 0 {
		out.Extra = fields
	}
	*m = out
	return nil
}

// AssetSeed pairs an asset id with the URI it should start from in a
// new version. An empty URI seeds an empty history.
type AssetSeed struct {
	ID  string
	URI string
}

// AddVersion appends a new live version built from dataURI and the
// asset seeds, and returns the resulting manifest; m is not modified.
// Seeds are keyed in order of first occurrence. The version and every
// seeded entry share a single clock reading so a version_at query at
// the version's own timestamp sees its seeded assets.
func AddVersion(m Manifest, dataURI string, seeds []AssetSeed, now Now) Manifest {
	out := m.Clone()
	timestamp := now()
	assets := Assets{}
	for _, seed := range seeds {
		if i := assets.index(seed.ID); i >= 0 {
			continue
		}
		hist := []AssetEntry{}
		if seed.URI != "" {
			hist = append(hist, AssetEntry{Timestamp: timestamp, URI: seed.URI})
		}
		assets = append(assets, Asset{ID: seed.ID, History: hist})
	}
	out.Versions = append(out.Versions, Version{
		Data:       dataURI,
		Timestamp:  timestamp,
		Assets:     assets,
		Renditions: []Rendition{},
	})
	return out
}

// AddAssetVersion appends (now(), uri) to the asset's history in the
// latest version. The asset id must already be declared there.
func AddAssetVersion(m Manifest, assetID, uri string, now Now) (Manifest, error) {
	if len(m.Versions) == 0 {
		return Manifest{}, fmt.Errorf("cannot add version for %q: %w", assetID, ErrUnknownAsset)
	}
	out := m.Clone()
	latest := &out.Versions[len(out.Versions)-1]
	i := latest.Assets.index(assetID)
	if i < 0 {
		return Manifest{}, fmt.Errorf("cannot add version for %q: %w", assetID, ErrUnknownAsset)
	}
	latest.Assets[i].History = append(latest.Assets[i].History, AssetEntry{
		Timestamp: now(),
		URI:       uri,
	})
	return out, nil
}

// AddRenditionVersion appends a rendition step to the latest version,
// creating the rendition if no (filename, lang, mimetype) match exists.
func AddRenditionVersion(m Manifest, filename, uri, mimetype, lang string, sizeBytes int64, now Now) (Manifest, error) {
	if len(m.Versions) == 0 {
		return Manifest{}, fmt.Errorf("cannot add rendition %q: %w", filename, ErrMissingVersion)
	}
	out := m.Clone()
	latest := &out.Versions[len(out.Versions)-1]
	selected := -1
	for i, r := range latest.Renditions {
		if r.Filename == filename && r.Lang == lang && r.Mimetype == mimetype {
			selected = i
			break
		}
	}
	if selected < 0 {
		latest.Renditions = append(latest.Renditions, Rendition{
			Filename: filename,
			Data:     []RenditionEntry{},
			Mimetype: mimetype,
			Lang:     lang,
		})
		selected = len(latest.Renditions) - 1
	}
	latest.Renditions[selected].Data = append(latest.Renditions[selected].Data, RenditionEntry{
		Timestamp: now(),
		URL:       uri,
		SizeBytes: sizeBytes,
	})
	return out, nil
}

// AddDeletedVersion appends a deletion tombstone.
func AddDeletedVersion(m Manifest, now Now) Manifest {
	out := m.Clone()
	out.Versions = append(out.Versions, Version{Deleted: true, Timestamp: now()})
	return out
}

// objectWriter emits a JSON object with a fixed key order.
type objectWriter struct {
	buf   bytes.Buffer
	first bool
	err   error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{first: true}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, value any) {
	if w.err != nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = err
		return
	}
	w.rawField(key, raw)
}

func (w *objectWriter) rawField(key string, raw json.RawMessage) {
	if w.err != nil {
		return
	}
	k, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	if !w.first {
		w.buf.WriteByte(',')
	}
	w.first = false
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
}

func (w *objectWriter) rawFields(extra map[string]json.RawMessage) {
	for _, k := range sortedKeys(extra) {
		w.rawField(k, extra[k])
	}
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func takeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
