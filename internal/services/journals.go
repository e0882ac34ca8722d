package services

import (
	"context"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

// journalMetadataFields lists the typed metadata a Journal accepts, in
// the order updates are applied. Unknown names in a request are
// ignored.
var journalMetadataFields = []struct {
	name  string
	apply func(*domain.Journal, any) error
}{
	{"title", (*domain.Journal).SetTitle},
	{"title_iso", (*domain.Journal).SetTitleISO},
	{"short_title", (*domain.Journal).SetShortTitle},
	{"title_slug", (*domain.Journal).SetTitleSlug},
	{"acronym", (*domain.Journal).SetAcronym},
	{"scielo_issn", (*domain.Journal).SetSciELOISSN},
	{"print_issn", (*domain.Journal).SetPrintISSN},
	{"electronic_issn", (*domain.Journal).SetElectronicISSN},
	{"online_submission_url", (*domain.Journal).SetOnlineSubmissionURL},
	{"logo_url", (*domain.Journal).SetLogoURL},
	{"mission", (*domain.Journal).SetMission},
	{"status", (*domain.Journal).SetStatus},
	{"subject_areas", (*domain.Journal).SetSubjectAreas},
	{"sponsors", (*domain.Journal).SetSponsors},
	{"subject_categories", (*domain.Journal).SetSubjectCategories},
	{"institution_responsible_for", (*domain.Journal).SetInstitutionResponsibleFor},
	{"next_journal", (*domain.Journal).SetNextJournal},
	{"previous_journal", (*domain.Journal).SetPreviousJournal},
	{"contact", (*domain.Journal).SetContact},
}

func applyJournalMetadata(journal *domain.Journal, metadata map[string]any) error {
	for _, field := range journalMetadataFields {
		value, ok := metadata[field.name]
		if !ok {
			continue
		}
		if err := field.apply(journal, value); err != nil {
			return err
		}
	}
	return nil
}

// CreateJournal registers a new journal with the given metadata. Only
// the typed metadata fields are stored.
func (h *Handlers) CreateJournal(ctx context.Context, id string, metadata map[string]any) error {
	session := h.session()
	journal := domain.NewJournal(id)
	if err := applyJournalMetadata(journal, metadata); err != nil {
		return err
	}
	if err := session.Journals().Add(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, JournalCreated, store.EventData{ID: id})
	return nil
}

// FetchJournal returns the journal's manifest.
func (h *Handlers) FetchJournal(ctx context.Context, id string) (domain.BundleManifest, error) {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, id)
	if err != nil {
		return domain.BundleManifest{}, err
	}
	return journal.Manifest(), nil
}

// UpdateJournalMetadata merges the known metadata fields of metadata
// into the journal. An empty string value clears the field.
func (h *Handlers) UpdateJournalMetadata(ctx context.Context, id string, metadata map[string]any) error {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := applyJournalMetadata(journal, metadata); err != nil {
		return err
	}
	if err := session.Journals().Update(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, JournalMetadataUpdated, store.EventData{ID: id})
	return nil
}

// AddIssueToJournal appends an issue (bundle) id to the journal.
func (h *Handlers) AddIssueToJournal(ctx context.Context, journalID, issueID string) error {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, journalID)
	if err != nil {
		return err
	}
	if err := journal.AddIssue(issueID); err != nil {
		return err
	}
	if err := session.Journals().Update(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, IssueAddedToJournal, store.EventData{ID: journalID})
	return nil
}

// InsertIssueToJournal inserts an issue id at index, clamping
// out-of-range indices.
func (h *Handlers) InsertIssueToJournal(ctx context.Context, journalID string, index int, issueID string) error {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, journalID)
	if err != nil {
		return err
	}
	if err := journal.InsertIssue(index, issueID); err != nil {
		return err
	}
	if err := session.Journals().Update(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, IssueInsertedToJournal, store.EventData{ID: journalID})
	return nil
}

// RemoveIssueFromJournal removes an issue id from the journal.
func (h *Handlers) RemoveIssueFromJournal(ctx context.Context, journalID, issueID string) error {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, journalID)
	if err != nil {
		return err
	}
	if err := journal.RemoveIssue(issueID); err != nil {
		return err
	}
	if err := session.Journals().Update(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, IssueRemovedFromJournal, store.EventData{ID: journalID})
	return nil
}

// UpdateIssuesInJournal replaces the journal's whole issue list.
// Duplicate ids in the input are rejected before any change is made.
func (h *Handlers) UpdateIssuesInJournal(ctx context.Context, journalID string, issues []string) error {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, journalID)
	if err != nil {
		return err
	}
	if err := journal.SetIssues(issues); err != nil {
		return err
	}
	if err := session.Journals().Update(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, JournalIssuesUpdated, store.EventData{ID: journalID})
	return nil
}

// SetAheadOfPrintBundleToJournal points the journal's aop component at
// a bundle id.
func (h *Handlers) SetAheadOfPrintBundleToJournal(ctx context.Context, journalID, aopID string) error {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, journalID)
	if err != nil {
		return err
	}
	journal.SetAheadOfPrintBundle(aopID)
	if err := session.Journals().Update(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, AheadOfPrintBundleSetToJournal, store.EventData{ID: journalID})
	return nil
}

// RemoveAheadOfPrintBundleFromJournal unsets the journal's aop
// component.
func (h *Handlers) RemoveAheadOfPrintBundleFromJournal(ctx context.Context, journalID string) error {
	session := h.session()
	journal, err := session.Journals().Fetch(ctx, journalID)
	if err != nil {
		return err
	}
	if err := journal.RemoveAheadOfPrintBundle(); err != nil {
		return err
	}
	if err := session.Journals().Update(ctx, journal); err != nil {
		return err
	}
	session.Notify(ctx, AheadOfPrintBundleRemovedFromJournal, store.EventData{ID: journalID})
	return nil
}
