// Package mongo persists manifests and the change log in MongoDB.
// One collection per entity kind plus one for the change log; `_id`
// mirrors the entity id, and the change log `_id` mirrors the change
// timestamp.
package mongo

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/scieloorg/documentstore/internal/store"
)

const (
	documentsCollection = "documents"
	bundlesCollection   = "documents_bundles"
	journalsCollection  = "journals"
	changesCollection   = "changes"
)

// DefaultDBName is used when no database name is configured.
const DefaultDBName = "document-store"

// DB wraps the connection details so no other object needs to know
// the DSN, database name or collection names. The driver client is
// created on first use, never in the constructor, so prefork server
// models stay safe.
type DB struct {
	uri    string
	dbname string

	mu     sync.Mutex
	client *mongo.Client
}

// New returns a handle for the given DSN and database name. It
// performs no I/O.
func New(uri, dbname string) *DB {
	if dbname == "" {
		dbname = DefaultDBName
	}
	return &DB{uri: uri, dbname: dbname}
}

func (db *DB) connect() (*mongo.Client, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.client != nil {
		return db.client, nil
	}
	client, err := mongo.Connect(options.Client().ApplyURI(db.uri))
	if err != nil {
		return nil, fmt.Errorf("could not connect to MongoDB: %w", err)
	}
	log.Debug().Str("dbname", db.dbname).Msg("new MongoDB client created")
	db.client = client
	return client, nil
}

func (db *DB) collection(name string) (*mongo.Collection, error) {
	client, err := db.connect()
	if err != nil {
		return nil, err
	}
	return client.Database(db.dbname).Collection(name), nil
}

// Close disconnects the underlying client if one was ever created.
func (db *DB) Close(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.client == nil {
		return nil
	}
	err := db.client.Disconnect(ctx)
	db.client = nil
	return err
}

// NewSession opens a unit of work over the database.
func (db *DB) NewSession() store.Session {
	return &session{db: db}
}

// SessionFactory adapts NewSession to the factory contract.
func (db *DB) SessionFactory() store.SessionFactory {
	return db.NewSession
}
