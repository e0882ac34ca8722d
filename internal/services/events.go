package services

import (
	"context"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

// Domain events emitted by the command handlers. Every successful
// mutation notifies exactly one of these.
const (
	DocumentRegistered         store.Event = "DOCUMENT_REGISTERED"
	DocumentVersionRegistered  store.Event = "DOCUMENT_VERSION_REGISTERED"
	AssetVersionRegistered     store.Event = "ASSET_VERSION_REGISTERED"
	RenditionVersionRegistered store.Event = "RENDITION_VERSION_REGISTERED"
	DocumentDeleted            store.Event = "DOCUMENT_DELETED"

	DocumentsBundleCreated            store.Event = "DOCUMENTSBUNDLE_CREATED"
	DocumentsBundleMetadataUpdated    store.Event = "DOCUMENTSBUNDLE_METADATA_UPDATED"
	DocumentAddedToDocumentsBundle    store.Event = "DOCUMENT_ADDED_TO_DOCUMENTSBUNDLE"
	DocumentInsertedToDocumentsBundle store.Event = "DOCUMENT_INSERTED_TO_DOCUMENTSBUNDLE"
	IssueDocumentsUpdated             store.Event = "ISSUE_DOCUMENTS_UPDATED"

	JournalCreated                       store.Event = "JOURNAL_CREATED"
	JournalMetadataUpdated               store.Event = "JOURNAL_METADATA_UPDATED"
	IssueAddedToJournal                  store.Event = "ISSUE_ADDED_TO_JOURNAL"
	IssueInsertedToJournal               store.Event = "ISSUE_INSERTED_TO_JOURNAL"
	IssueRemovedFromJournal              store.Event = "ISSUE_REMOVED_FROM_JOURNAL"
	JournalIssuesUpdated                 store.Event = "JOURNAL_ISSUES_UPDATED"
	AheadOfPrintBundleSetToJournal       store.Event = "AHEAD_OF_PRINT_BUNDLE_SET_TO_JOURNAL"
	AheadOfPrintBundleRemovedFromJournal store.Event = "AHEAD_OF_PRINT_BUNDLE_REMOVED_FROM_JOURNAL"
)

// subscriberSpec ties an event to the change-log entry its default
// subscriber writes.
type subscriberSpec struct {
	event   store.Event
	entity  store.Entity
	deleted bool
}

// DefaultSubscribers is the complete default subscriber set: one
// change record per event, tagged with the mutated entity kind.
var DefaultSubscribers = []subscriberSpec{
	{event: DocumentRegistered, entity: store.EntityDocument},
	{event: DocumentVersionRegistered, entity: store.EntityDocument},
	{event: AssetVersionRegistered, entity: store.EntityDocument},
	{event: RenditionVersionRegistered, entity: store.EntityDocumentRendition},
	{event: DocumentDeleted, entity: store.EntityDocument, deleted: true},
	{event: DocumentsBundleCreated, entity: store.EntityDocumentsBundle},
	{event: DocumentsBundleMetadataUpdated, entity: store.EntityDocumentsBundle},
	{event: DocumentAddedToDocumentsBundle, entity: store.EntityDocumentsBundle},
	{event: DocumentInsertedToDocumentsBundle, entity: store.EntityDocumentsBundle},
	{event: IssueDocumentsUpdated, entity: store.EntityDocumentsBundle},
	{event: JournalCreated, entity: store.EntityJournal},
	{event: JournalMetadataUpdated, entity: store.EntityJournal},
	{event: IssueAddedToJournal, entity: store.EntityJournal},
	{event: IssueInsertedToJournal, entity: store.EntityJournal},
	{event: IssueRemovedFromJournal, entity: store.EntityJournal},
	{event: JournalIssuesUpdated, entity: store.EntityJournal},
	{event: AheadOfPrintBundleSetToJournal, entity: store.EntityJournal},
	{event: AheadOfPrintBundleRemovedFromJournal, entity: store.EntityJournal},
}

// installDefaultSubscribers wires the change-log projection into a
// fresh session.
func installDefaultSubscribers(session store.Session) {
	for _, spec := range DefaultSubscribers {
		session.Observe(spec.event, recordChange(session, spec.entity, spec.deleted))
	}
}

// recordChange returns a callback appending one change-log entry for
// the mutated entity.
func recordChange(session store.Session, entity store.Entity, deleted bool) store.Callback {
	return func(ctx context.Context, data store.EventData) error {
		return session.Changes().Add(ctx, store.Change{
			Timestamp: domain.UTCNow(),
			Entity:    entity,
			ID:        data.ID,
			Deleted:   deleted,
		})
	}
}
