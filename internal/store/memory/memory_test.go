package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

func TestDocumentStore_Contract(t *testing.T) {
	ctx := context.Background()
	session := NewDB().NewSession()
	documents := session.Documents()

	doc := domain.NewDocument("x1")
	require.NoError(t, documents.Add(ctx, doc))
	assert.ErrorIs(t, documents.Add(ctx, doc), domain.ErrAlreadyExists)

	fetched, err := documents.Fetch(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, "x1", fetched.ID())

	_, err = documents.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDoesNotExist)
	assert.ErrorIs(t, documents.Update(ctx, domain.NewDocument("missing")), domain.ErrDoesNotExist)

	require.NoError(t, fetched.NewDeletedVersion())
	require.NoError(t, documents.Update(ctx, fetched))

	again, err := documents.Fetch(ctx, "x1")
	require.NoError(t, err)
	assert.Len(t, again.Manifest().Versions, 1)
}

func TestStoresShareStateAcrossSessions(t *testing.T) {
	ctx := context.Background()
	db := NewDB()

	bundle := domain.NewDocumentsBundle("b1")
	require.NoError(t, db.NewSession().DocumentsBundles().Add(ctx, bundle))

	fetched, err := db.NewSession().DocumentsBundles().Fetch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", fetched.ID())

	journal := domain.NewJournal("j1")
	require.NoError(t, db.NewSession().Journals().Add(ctx, journal))
	_, err = db.NewSession().Journals().Fetch(ctx, "j1")
	require.NoError(t, err)
}

func TestFetchReturnsIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	documents := db.NewSession().Documents()
	require.NoError(t, documents.Add(ctx, domain.NewDocument("x1")))

	first, err := documents.Fetch(ctx, "x1")
	require.NoError(t, err)
	require.NoError(t, first.NewDeletedVersion())

	// The mutation is invisible until Update persists it.
	second, err := documents.Fetch(ctx, "x1")
	require.NoError(t, err)
	assert.Empty(t, second.Manifest().Versions)
}

func TestChangeStore_Contract(t *testing.T) {
	ctx := context.Background()
	changes := NewDB().NewSession().Changes()

	entries := []store.Change{
		{Timestamp: "2018-08-05T22:33:03.000000Z", Entity: store.EntityJournal, ID: "j1"},
		{Timestamp: "2018-08-05T22:33:01.000000Z", Entity: store.EntityDocument, ID: "x1"},
		{Timestamp: "2018-08-05T22:33:02.000000Z", Entity: store.EntityDocument, ID: "x1", Deleted: true},
	}
	for _, change := range entries {
		require.NoError(t, changes.Add(ctx, change))
	}
	assert.ErrorIs(t, changes.Add(ctx, entries[0]), domain.ErrAlreadyExists)

	fetched, err := changes.Fetch(ctx, "2018-08-05T22:33:02.000000Z")
	require.NoError(t, err)
	assert.True(t, fetched.Deleted)
	_, err = changes.Fetch(ctx, "2001-01-01T00:00:00.000000Z")
	assert.ErrorIs(t, err, domain.ErrDoesNotExist)

	all, err := changes.Filter(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "x1", all[0].ID)
	assert.True(t, all[1].Deleted)
	assert.Equal(t, "j1", all[2].ID)

	limited, err := changes.Filter(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	after, err := changes.Filter(ctx, "2018-08-05T22:33:01.000000Z", 0)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "2018-08-05T22:33:02.000000Z", after[0].Timestamp)
}
