package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

type session struct {
	store.Bus
	db *DB
}

func (s *session) Documents() store.DocumentStore      { return &documentStore{db: s.db} }
func (s *session) DocumentsBundles() store.BundleStore { return &bundleStore{db: s.db} }
func (s *session) Journals() store.JournalStore        { return &journalStore{db: s.db} }
func (s *session) Changes() store.ChangeStore          { return &changeStore{db: s.db} }

// documentDoc is the stored form of a document manifest. The manifest
// is kept as a JSON string because asset ids contain characters that
// MongoDB restricts in field names (e.g. dots in
// "0034-8910-rsp-48-2-0347-gf01.jpg").
type documentDoc struct {
	ID       string `bson:"_id"`
	Document string `bson:"document"`
}

// EncodeDocument shapes a document manifest for storage.
func EncodeDocument(document *domain.Document) (any, error) {
	manifest, err := json.Marshal(document.Manifest())
	if err != nil {
		return nil, fmt.Errorf("could not encode manifest for %q: %w", document.ID(), err)
	}
	return documentDoc{ID: document.ID(), Document: string(manifest)}, nil
}

// DecodeDocument restores a document from its stored form.
func DecodeDocument(doc documentDoc) (*domain.Document, error) {
	var manifest domain.Manifest
	if err := json.Unmarshal([]byte(doc.Document), &manifest); err != nil {
		return nil, fmt.Errorf("could not decode manifest for %q: %w", doc.ID, err)
	}
	return domain.DocumentFromManifest(manifest), nil
}

type documentStore struct {
	db *DB
}

func (s *documentStore) Add(ctx context.Context, document *domain.Document) error {
	coll, err := s.db.collection(documentsCollection)
	if err != nil {
		return err
	}
	doc, err := EncodeDocument(document)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf(
				"cannot add data with id %q: the id %w", document.ID(), domain.ErrAlreadyExists,
			)
		}
		return fmt.Errorf("could not add document %q: %w", document.ID(), err)
	}
	return nil
}

func (s *documentStore) Update(ctx context.Context, document *domain.Document) error {
	coll, err := s.db.collection(documentsCollection)
	if err != nil {
		return err
	}
	doc, err := EncodeDocument(document)
	if err != nil {
		return err
	}
	result, err := coll.ReplaceOne(ctx, bson.M{"_id": document.ID()}, doc)
	if err != nil {
		return fmt.Errorf("could not update document %q: %w", document.ID(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf(
			"cannot update data with id %q: data %w", document.ID(), domain.ErrDoesNotExist,
		)
	}
	return nil
}

func (s *documentStore) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	coll, err := s.db.collection(documentsCollection)
	if err != nil {
		return nil, err
	}
	var doc documentDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("cannot fetch data with id %q: data %w", id, domain.ErrDoesNotExist)
		}
		return nil, fmt.Errorf("could not fetch document %q: %w", id, err)
	}
	return DecodeDocument(doc)
}

// EncodeBundle shapes a bundle manifest for storage as native BSON
// with _id mirroring the manifest id. The JSON round-trip keeps the
// manifest's open-schema fields.
func EncodeBundle(manifest domain.BundleManifest) (bson.M, error) {
	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("could not encode manifest for %q: %w", manifest.ID, err)
	}
	var doc bson.M
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not encode manifest for %q: %w", manifest.ID, err)
	}
	doc["_id"] = manifest.ID
	return doc, nil
}

// DecodeBundle restores a bundle manifest from its stored form.
func DecodeBundle(doc bson.M) (domain.BundleManifest, error) {
	delete(doc, "_id")
	data, err := json.Marshal(doc)
	if err != nil {
		return domain.BundleManifest{}, fmt.Errorf("could not decode manifest: %w", err)
	}
	var manifest domain.BundleManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return domain.BundleManifest{}, fmt.Errorf("could not decode manifest: %w", err)
	}
	return manifest, nil
}

func addManifest(ctx context.Context, coll *mongo.Collection, manifest domain.BundleManifest) error {
	doc, err := EncodeBundle(manifest)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf(
				"cannot add data with id %q: the id %w", manifest.ID, domain.ErrAlreadyExists,
			)
		}
		return fmt.Errorf("could not add %q: %w", manifest.ID, err)
	}
	return nil
}

func updateManifest(ctx context.Context, coll *mongo.Collection, manifest domain.BundleManifest) error {
	doc, err := EncodeBundle(manifest)
	if err != nil {
		return err
	}
	result, err := coll.ReplaceOne(ctx, bson.M{"_id": manifest.ID}, doc)
	if err != nil {
		return fmt.Errorf("could not update %q: %w", manifest.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf(
			"cannot update data with id %q: data %w", manifest.ID, domain.ErrDoesNotExist,
		)
	}
	return nil
}

func fetchManifest(ctx context.Context, coll *mongo.Collection, id string) (domain.BundleManifest, error) {
	var doc bson.M
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.BundleManifest{}, fmt.Errorf(
				"cannot fetch data with id %q: data %w", id, domain.ErrDoesNotExist,
			)
		}
		return domain.BundleManifest{}, fmt.Errorf("could not fetch %q: %w", id, err)
	}
	return DecodeBundle(doc)
}

type bundleStore struct {
	db *DB
}

func (s *bundleStore) Add(ctx context.Context, bundle *domain.DocumentsBundle) error {
	coll, err := s.db.collection(bundlesCollection)
	if err != nil {
		return err
	}
	return addManifest(ctx, coll, bundle.Manifest())
}

func (s *bundleStore) Update(ctx context.Context, bundle *domain.DocumentsBundle) error {
	coll, err := s.db.collection(bundlesCollection)
	if err != nil {
		return err
	}
	return updateManifest(ctx, coll, bundle.Manifest())
}

func (s *bundleStore) Fetch(ctx context.Context, id string) (*domain.DocumentsBundle, error) {
	coll, err := s.db.collection(bundlesCollection)
	if err != nil {
		return nil, err
	}
	manifest, err := fetchManifest(ctx, coll, id)
	if err != nil {
		return nil, err
	}
	return domain.DocumentsBundleFromManifest(manifest), nil
}

type journalStore struct {
	db *DB
}

func (s *journalStore) Add(ctx context.Context, journal *domain.Journal) error {
	coll, err := s.db.collection(journalsCollection)
	if err != nil {
		return err
	}
	return addManifest(ctx, coll, journal.Manifest())
}

func (s *journalStore) Update(ctx context.Context, journal *domain.Journal) error {
	coll, err := s.db.collection(journalsCollection)
	if err != nil {
		return err
	}
	return updateManifest(ctx, coll, journal.Manifest())
}

func (s *journalStore) Fetch(ctx context.Context, id string) (*domain.Journal, error) {
	coll, err := s.db.collection(journalsCollection)
	if err != nil {
		return nil, err
	}
	manifest, err := fetchManifest(ctx, coll, id)
	if err != nil {
		return nil, err
	}
	return domain.JournalFromManifest(manifest), nil
}

type changeDoc struct {
	ID        string       `bson:"_id"`
	Timestamp string       `bson:"timestamp"`
	Entity    store.Entity `bson:"entity"`
	EntityID  string       `bson:"id"`
	Deleted   bool         `bson:"deleted,omitempty"`
}

type changeStore struct {
	db *DB
}

func (s *changeStore) Add(ctx context.Context, change store.Change) error {
	coll, err := s.db.collection(changesCollection)
	if err != nil {
		return err
	}
	doc := changeDoc{
		ID:        change.Timestamp,
		Timestamp: change.Timestamp,
		Entity:    change.Entity,
		EntityID:  change.ID,
		Deleted:   change.Deleted,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf(
				"cannot add data with id %q: the id %w", change.Timestamp, domain.ErrAlreadyExists,
			)
		}
		return fmt.Errorf("could not add change %q: %w", change.Timestamp, err)
	}
	return nil
}

func (s *changeStore) Fetch(ctx context.Context, id string) (store.Change, error) {
	coll, err := s.db.collection(changesCollection)
	if err != nil {
		return store.Change{}, err
	}
	var doc changeDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Change{}, fmt.Errorf(
				"cannot fetch data with id %q: data %w", id, domain.ErrDoesNotExist,
			)
		}
		return store.Change{}, fmt.Errorf("could not fetch change %q: %w", id, err)
	}
	return doc.change(), nil
}

func (s *changeStore) Filter(ctx context.Context, since string, limit int) ([]store.Change, error) {
	coll, err := s.db.collection(changesCollection)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = store.DefaultChangesLimit
	}
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$gt": since}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("could not filter changes: %w", err)
	}
	var docs []changeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("could not filter changes: %w", err)
	}
	out := make([]store.Change, len(docs))
	for i, doc := range docs {
		out[i] = doc.change()
	}
	return out, nil
}

func (d changeDoc) change() store.Change {
	return store.Change{
		Timestamp: d.Timestamp,
		Entity:    d.Entity,
		ID:        d.EntityID,
		Deleted:   d.Deleted,
	}
}
