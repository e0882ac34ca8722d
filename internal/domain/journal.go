package domain

import (
	"fmt"
)

// SubjectAreas is the closed vocabulary accepted by
// (*Journal).SetSubjectAreas.
var SubjectAreas = []string{
	"Agricultural Sciences",
	"Applied Social Sciences",
	"Biological Sciences",
	"Engineering",
	"Exact and Earth Sciences",
	"Health Sciences",
	"Human Sciences",
	"Linguistics, Letters and Arts",
}

// Journal is a periodical composed of DocumentsBundles (its issues)
// plus named single-value components such as the ahead-of-print bundle.
type Journal struct {
	manifest BundleManifest
	now      Now
}

// NewJournal returns an empty journal.
func NewJournal(id string) *Journal {
	return &Journal{manifest: NewBundleManifest(id, UTCNow), now: UTCNow}
}

// JournalFromManifest wraps an existing manifest.
func JournalFromManifest(m BundleManifest) *Journal {
	return &Journal{manifest: m.Clone(), now: UTCNow}
}

// WithClock replaces the journal's clock and returns the journal.
func (j *Journal) WithClock(now Now) *Journal {
	j.now = now
	return j
}

// ID returns the journal id.
func (j *Journal) ID() string { return j.manifest.ID }

// Created returns the creation timestamp.
func (j *Journal) Created() string { return j.manifest.Created }

// Updated returns the last-mutation timestamp.
func (j *Journal) Updated() string { return j.manifest.Updated }

// Manifest returns a snapshot of the manifest.
func (j *Journal) Manifest() BundleManifest { return j.manifest.Clone() }

// Issues returns the ordered issue (bundle) ids.
func (j *Journal) Issues() []string {
	return j.Manifest().Items
}

// AddIssue appends an issue id to the journal.
func (j *Journal) AddIssue(issue string) error {
	m, err := AddBundleItem(j.manifest, issue, j.now)
	if err != nil {
		return err
	}
	j.manifest = m
	return nil
}

// InsertIssue inserts an issue id at index, clamping out-of-range
// indices to the head or the tail.
func (j *Journal) InsertIssue(index int, issue string) error {
	m, err := InsertBundleItem(j.manifest, index, issue, j.now)
	if err != nil {
		return err
	}
	j.manifest = m
	return nil
}

// RemoveIssue removes an issue id from the journal.
func (j *Journal) RemoveIssue(issue string) error {
	m, err := RemoveBundleItem(j.manifest, issue, j.now)
	if err != nil {
		return err
	}
	j.manifest = m
	return nil
}

// SetIssues replaces the whole issue list.
func (j *Journal) SetIssues(issues []string) error {
	m, err := SetBundleItems(j.manifest, issues, j.now)
	if err != nil {
		return err
	}
	j.manifest = m
	return nil
}

// AheadOfPrintBundle returns the id of the bundle holding the
// ahead-of-print documents, or "" when unset.
func (j *Journal) AheadOfPrintBundle() string {
	v, ok := GetBundleComponent(j.manifest, "aop")
	if !ok {
		return ""
	}
	return renderString(v)
}

// SetAheadOfPrintBundle points the aop component at a bundle id.
func (j *Journal) SetAheadOfPrintBundle(bundleID string) {
	j.manifest = SetBundleComponent(j.manifest, "aop", bundleID, j.now)
}

// RemoveAheadOfPrintBundle unsets the aop component.
func (j *Journal) RemoveAheadOfPrintBundle() error {
	m, err := RemoveBundleComponent(j.manifest, "aop", j.now)
	if err != nil {
		return err
	}
	j.manifest = m
	return nil
}

// Provisional returns the provisional flag.
func (j *Journal) Provisional() string {
	v, ok := GetBundleComponent(j.manifest, "provisional")
	if !ok {
		return ""
	}
	return renderString(v)
}

// SetProvisional records the provisional flag.
func (j *Journal) SetProvisional(value any) {
	j.manifest = SetBundleComponent(j.manifest, "provisional", renderString(value), j.now)
}

// Title returns the latest title value.
func (j *Journal) Title() string { return metadataString(j.manifest, "title") }

// SetTitle records a new title.
func (j *Journal) SetTitle(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "title", renderString(value), j.now)
	return nil
}

// TitleISO returns the latest title_iso value.
func (j *Journal) TitleISO() string { return metadataString(j.manifest, "title_iso") }

// SetTitleISO records the ISO-abbreviated title.
func (j *Journal) SetTitleISO(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "title_iso", renderString(value), j.now)
	return nil
}

// ShortTitle returns the latest short_title value.
func (j *Journal) ShortTitle() string { return metadataString(j.manifest, "short_title") }

// SetShortTitle records the short title.
func (j *Journal) SetShortTitle(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "short_title", renderString(value), j.now)
	return nil
}

// TitleSlug returns the latest title_slug value.
func (j *Journal) TitleSlug() string { return metadataString(j.manifest, "title_slug") }

// SetTitleSlug records the URL-safe title.
func (j *Journal) SetTitleSlug(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "title_slug", renderString(value), j.now)
	return nil
}

// Acronym returns the latest acronym value.
func (j *Journal) Acronym() string { return metadataString(j.manifest, "acronym") }

// SetAcronym records the acronym.
func (j *Journal) SetAcronym(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "acronym", renderString(value), j.now)
	return nil
}

// SciELOISSN returns the latest scielo_issn value.
func (j *Journal) SciELOISSN() string { return metadataString(j.manifest, "scielo_issn") }

// SetSciELOISSN records the SciELO ISSN.
func (j *Journal) SetSciELOISSN(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "scielo_issn", renderString(value), j.now)
	return nil
}

// PrintISSN returns the latest print_issn value.
func (j *Journal) PrintISSN() string { return metadataString(j.manifest, "print_issn") }

// SetPrintISSN records the print ISSN.
func (j *Journal) SetPrintISSN(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "print_issn", renderString(value), j.now)
	return nil
}

// ElectronicISSN returns the latest electronic_issn value.
func (j *Journal) ElectronicISSN() string { return metadataString(j.manifest, "electronic_issn") }

// SetElectronicISSN records the electronic ISSN.
func (j *Journal) SetElectronicISSN(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "electronic_issn", renderString(value), j.now)
	return nil
}

// OnlineSubmissionURL returns the latest online_submission_url value.
func (j *Journal) OnlineSubmissionURL() string {
	return metadataString(j.manifest, "online_submission_url")
}

// SetOnlineSubmissionURL records the submission system URL.
func (j *Journal) SetOnlineSubmissionURL(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "online_submission_url", renderString(value), j.now)
	return nil
}

// LogoURL returns the latest logo_url value.
func (j *Journal) LogoURL() string { return metadataString(j.manifest, "logo_url") }

// SetLogoURL records the logo URL.
func (j *Journal) SetLogoURL(value any) error {
	j.manifest = SetBundleMetadata(j.manifest, "logo_url", renderString(value), j.now)
	return nil
}

// Mission returns the latest mission value.
func (j *Journal) Mission() []map[string]any { return metadataObjectList(j.manifest, "mission") }

// SetMission records the mission statements as a list of
// {language, value} objects.
func (j *Journal) SetMission(value any) error {
	list, err := coerceObjectList("mission", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "mission", list, j.now)
	return nil
}

// Status returns the latest status value.
func (j *Journal) Status() map[string]any { return metadataObject(j.manifest, "status") }

// SetStatus records the publication status object.
func (j *Journal) SetStatus(value any) error {
	object, err := coerceObject("status", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "status", object, j.now)
	return nil
}

// SubjectAreas returns the latest subject_areas value.
func (j *Journal) SubjectAreas() []string { return metadataStringList(j.manifest, "subject_areas") }

// SetSubjectAreas records the subject areas. Values outside the
// SubjectAreas vocabulary are rejected.
func (j *Journal) SetSubjectAreas(value any) error {
	list, err := coerceStringList("subject_areas", value)
	if err != nil {
		return err
	}
	var invalid []string
	for _, area := range list {
		if !isSubjectArea(area) {
			invalid = append(invalid, area)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf(
			"cannot set subject_areas with value %v: %v %w", list, invalid, ErrInvalidMetadata,
		)
	}
	j.manifest = SetBundleMetadata(j.manifest, "subject_areas", list, j.now)
	return nil
}

// Sponsors returns the latest sponsors value.
func (j *Journal) Sponsors() []map[string]any { return metadataObjectList(j.manifest, "sponsors") }

// SetSponsors records the sponsor list.
func (j *Journal) SetSponsors(value any) error {
	list, err := coerceObjectList("sponsors", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "sponsors", list, j.now)
	return nil
}

// SubjectCategories returns the latest subject_categories value.
func (j *Journal) SubjectCategories() []string {
	return metadataStringList(j.manifest, "subject_categories")
}

// SetSubjectCategories records the subject categories.
func (j *Journal) SetSubjectCategories(value any) error {
	list, err := coerceStringList("subject_categories", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "subject_categories", list, j.now)
	return nil
}

// InstitutionResponsibleFor returns the latest value.
func (j *Journal) InstitutionResponsibleFor() []string {
	return metadataStringList(j.manifest, "institution_responsible_for")
}

// SetInstitutionResponsibleFor records the responsible institutions.
func (j *Journal) SetInstitutionResponsibleFor(value any) error {
	list, err := coerceStringList("institution_responsible_for", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "institution_responsible_for", list, j.now)
	return nil
}

// NextJournal returns the latest next_journal value.
func (j *Journal) NextJournal() map[string]any { return metadataObject(j.manifest, "next_journal") }

// SetNextJournal records the successor journal reference.
func (j *Journal) SetNextJournal(value any) error {
	object, err := coerceObject("next_journal", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "next_journal", object, j.now)
	return nil
}

// PreviousJournal returns the latest previous_journal value.
func (j *Journal) PreviousJournal() map[string]any {
	return metadataObject(j.manifest, "previous_journal")
}

// SetPreviousJournal records the predecessor journal reference.
func (j *Journal) SetPreviousJournal(value any) error {
	object, err := coerceObject("previous_journal", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "previous_journal", object, j.now)
	return nil
}

// Contact returns the latest contact value.
func (j *Journal) Contact() map[string]any { return metadataObject(j.manifest, "contact") }

// SetContact records the contact object.
func (j *Journal) SetContact(value any) error {
	object, err := coerceObject("contact", value)
	if err != nil {
		return err
	}
	j.manifest = SetBundleMetadata(j.manifest, "contact", object, j.now)
	return nil
}

func isSubjectArea(area string) bool {
	for _, known := range SubjectAreas {
		if known == area {
			return true
		}
	}
	return false
}
