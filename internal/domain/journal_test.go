package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_SubjectAreasVocabulary(t *testing.T) {
	journal := NewJournal("0034-8910").WithClock(sequenceClock())

	require.NoError(t, journal.SetSubjectAreas([]any{"Health Sciences", "Human Sciences"}))
	assert.Equal(t, []string{"Health Sciences", "Human Sciences"}, journal.SubjectAreas())

	err := journal.SetSubjectAreas([]any{"Health Sciences", "Alchemy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Alchemy")
	assert.Equal(t, []string{"Health Sciences", "Human Sciences"}, journal.SubjectAreas())

	assert.Error(t, journal.SetSubjectAreas("Health Sciences"))
}

func TestJournal_Issues(t *testing.T) {
	journal := NewJournal("0034-8910").WithClock(sequenceClock())

	require.NoError(t, journal.AddIssue("issue/2"))
	require.NoError(t, journal.InsertIssue(0, "issue/1"))
	assert.Equal(t, []string{"issue/1", "issue/2"}, journal.Issues())

	assert.ErrorIs(t, journal.AddIssue("issue/1"), ErrAlreadyExists)
	require.NoError(t, journal.RemoveIssue("issue/1"))
	assert.ErrorIs(t, journal.RemoveIssue("issue/1"), ErrDoesNotExist)

	require.NoError(t, journal.SetIssues([]string{"issue/9"}))
	assert.Equal(t, []string{"issue/9"}, journal.Issues())
	assert.ErrorIs(t, journal.SetIssues([]string{"a", "a"}), ErrAlreadyExists)
}

func TestJournal_AheadOfPrintBundle(t *testing.T) {
	journal := NewJournal("0034-8910").WithClock(sequenceClock())

	assert.Equal(t, "", journal.AheadOfPrintBundle())
	assert.ErrorIs(t, journal.RemoveAheadOfPrintBundle(), ErrDoesNotExist)

	journal.SetAheadOfPrintBundle("0034-8910-aop")
	assert.Equal(t, "0034-8910-aop", journal.AheadOfPrintBundle())

	require.NoError(t, journal.RemoveAheadOfPrintBundle())
	assert.Equal(t, "", journal.AheadOfPrintBundle())
}

func TestJournal_MetadataSetters(t *testing.T) {
	journal := NewJournal("0034-8910").WithClock(sequenceClock())

	require.NoError(t, journal.SetTitle("Revista de Saúde Pública"))
	require.NoError(t, journal.SetAcronym("rsp"))
	require.NoError(t, journal.SetSciELOISSN("0034-8910"))
	require.NoError(t, journal.SetMission([]any{
		map[string]any{"language": "pt", "value": "Publicar trabalhos científicos"},
	}))
	require.NoError(t, journal.SetStatus(map[string]any{"status": "current"}))
	require.NoError(t, journal.SetContact(map[string]any{"email": "rsp@usp.br"}))

	assert.Equal(t, "Revista de Saúde Pública", journal.Title())
	assert.Equal(t, "rsp", journal.Acronym())
	require.Len(t, journal.Mission(), 1)
	assert.Equal(t, "current", journal.Status()["status"])

	assert.Error(t, journal.SetStatus("current"))
	assert.Error(t, journal.SetMission("missão"))
}

func TestJournal_ManifestRoundTripKeepsComponents(t *testing.T) {
	journal := NewJournal("0034-8910").WithClock(sequenceClock())
	journal.SetAheadOfPrintBundle("0034-8910-aop")
	require.NoError(t, journal.SetTitle("Revista"))

	raw, err := json.Marshal(journal.Manifest())
	require.NoError(t, err)

	var decoded BundleManifest
	require.NoError(t, json.Unmarshal(raw, &decoded))

	restored := JournalFromManifest(decoded)
	assert.Equal(t, "0034-8910-aop", restored.AheadOfPrintBundle())
	assert.Equal(t, "Revista", restored.Title())
}
