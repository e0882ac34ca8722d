package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var allCollections = []string{
	documentsCollection,
	bundlesCollection,
	journalsCollection,
	changesCollection,
}

// CreateCollections explicitly creates every collection the kernel
// uses. Transactional mode on older MongoDB versions requires the
// collections to exist up-front. Collections that already exist are
// skipped.
func (db *DB) CreateCollections(ctx context.Context) error {
	client, err := db.connect()
	if err != nil {
		return err
	}
	database := client.Database(db.dbname)
	existing, err := database.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("could not list collections: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}
	for _, name := range allCollections {
		if known[name] {
			log.Info().Str("collection", name).Msg("collection already exists")
			continue
		}
		if err := database.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("could not create collection %q: %w", name, err)
		}
		log.Info().Str("collection", name).Msg("collection created")
	}
	return nil
}

// CreateIndexes creates the unique indexes the kernel relies on:
// entity ids are covered by the implicit _id index, and the change
// log additionally gets a unique index on timestamp.
func (db *DB) CreateIndexes(ctx context.Context) error {
	coll, err := db.collection(changesCollection)
	if err != nil {
		return err
	}
	name, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("could not create index on %s.timestamp: %w", changesCollection, err)
	}
	log.Info().Str("collection", changesCollection).Str("index", name).Msg("index created")
	return nil
}
