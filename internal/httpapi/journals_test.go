package httpapi

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/scieloorg/documentstore/internal/domain"
)

func createTestJournal(t *testing.T, router http.Handler, id string) {
	t.Helper()
	w := doRequest(t, router, "PUT", "/journals/"+id, map[string]any{
		"title":         "Revista de Saúde Pública",
		"scielo_issn":   "0034-8910",
		"acronym":       "rsp",
		"subject_areas": []string{"Health Sciences"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create journal: got status %d, body: %s", w.Code, w.Body.String())
	}
}

func TestPutJournal_CreatesThenNoop(t *testing.T) {
	router := newTestRouter(t, nil)
	createTestJournal(t, router, "0034-8910")

	if w := doRequest(t, router, "PUT", "/journals/0034-8910", map[string]any{}); w.Code != http.StatusNoContent {
		t.Fatalf("second PUT: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}

	var manifest domain.BundleManifest
	decodeJSON(t, doRequest(t, router, "GET", "/journals/0034-8910", nil), &manifest)
	if got, _ := domain.GetBundleMetadata(manifest, "acronym"); got != "rsp" {
		t.Fatalf("expected acronym rsp, got %v", got)
	}
}

func TestPutJournal_InvalidSubjectArea(t *testing.T) {
	router := newTestRouter(t, nil)
	w := doRequest(t, router, "PUT", "/journals/j1", map[string]any{
		"subject_areas": []string{"UNDERWATER BASKET WEAVING"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d, body: %s", w.Code, w.Body.String())
	}
}

func TestPatchJournal(t *testing.T) {
	router := newTestRouter(t, nil)

	if w := doRequest(t, router, "PATCH", "/journals/j1", map[string]any{"mission": map[string]any{"pt": "missão"}}); w.Code != http.StatusNotFound {
		t.Fatalf("patch absent journal: expected 404, got %d", w.Code)
	}

	createTestJournal(t, router, "j1")
	if w := doRequest(t, router, "PATCH", "/journals/j1", map[string]any{"status": map[string]any{"status": "current"}}); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
}

func TestJournalIssues_InsertClampsAndAddAppends(t *testing.T) {
	router := newTestRouter(t, nil)
	createTestJournal(t, router, "j1")

	requests := []map[string]any{
		{"issue": "issue/1", "index": -10},
		{"issue": "issue/3", "index": 10},
		{"issue": "issue/2"},
	}
	for _, body := range requests {
		if w := doRequest(t, router, "PUT", "/journals/j1/issues", body); w.Code != http.StatusNoContent {
			t.Fatalf("PUT issues %v: expected 204, got %d, body: %s", body, w.Code, w.Body.String())
		}
	}
	// Duplicates are skipped.
	if w := doRequest(t, router, "PUT", "/journals/j1/issues", map[string]any{"issue": "issue/2"}); w.Code != http.StatusNoContent {
		t.Fatalf("duplicate issue: expected 204, got %d", w.Code)
	}

	var manifest domain.BundleManifest
	decodeJSON(t, doRequest(t, router, "GET", "/journals/j1", nil), &manifest)
	want := []string{"issue/1", "issue/3", "issue/2"}
	if !reflect.DeepEqual(manifest.Items, want) {
		t.Fatalf("expected issues %v, got %v", want, manifest.Items)
	}

	if w := doRequest(t, router, "PUT", "/journals/missing/issues", map[string]any{"issue": "issue/1"}); w.Code != http.StatusNotFound {
		t.Fatalf("absent journal: expected 404, got %d", w.Code)
	}
	if w := doRequest(t, router, "PUT", "/journals/j1/issues", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing issue: expected 400, got %d", w.Code)
	}
}

func TestPatchJournalIssues(t *testing.T) {
	router := newTestRouter(t, nil)
	createTestJournal(t, router, "j1")

	if w := doRequest(t, router, "PATCH", "/journals/j1/issues", map[string]any{"issues": []string{"a", "b"}}); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "PATCH", "/journals/j1/issues", map[string]any{"issues": []string{"a", "a"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicates: expected 400, got %d", w.Code)
	}
	if w := doRequest(t, router, "PATCH", "/journals/missing/issues", map[string]any{"issues": []string{"a"}}); w.Code != http.StatusNotFound {
		t.Fatalf("absent journal: expected 404, got %d", w.Code)
	}
}

func TestDeleteJournalIssue(t *testing.T) {
	router := newTestRouter(t, nil)
	createTestJournal(t, router, "j1")
	doRequest(t, router, "PUT", "/journals/j1/issues", map[string]any{"issue": "issue/1"})

	if w := doRequest(t, router, "DELETE", "/journals/j1/issues", map[string]any{"issue": "issue/1"}); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "DELETE", "/journals/j1/issues", map[string]any{"issue": "issue/1"}); w.Code != http.StatusNotFound {
		t.Fatalf("absent issue: expected 404, got %d", w.Code)
	}
	if w := doRequest(t, router, "DELETE", "/journals/missing/issues", map[string]any{"issue": "issue/1"}); w.Code != http.StatusNotFound {
		t.Fatalf("absent journal: expected 404, got %d", w.Code)
	}
}

func TestJournalAheadOfPrintBundle(t *testing.T) {
	router := newTestRouter(t, nil)
	createTestJournal(t, router, "j1")

	if w := doRequest(t, router, "PUT", "/journals/j1/aop", map[string]any{"aop": "0034-8910-aop"}); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	var manifest domain.BundleManifest
	decodeJSON(t, doRequest(t, router, "GET", "/journals/j1", nil), &manifest)
	if got, ok := domain.GetBundleComponent(manifest, "aop"); !ok || got != "0034-8910-aop" {
		t.Fatalf("expected aop bundle recorded, got %v (ok=%v)", got, ok)
	}

	if w := doRequest(t, router, "DELETE", "/journals/j1/aop", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete aop: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "DELETE", "/journals/j1/aop", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete absent aop: expected 404, got %d", w.Code)
	}
	if w := doRequest(t, router, "PUT", "/journals/missing/aop", map[string]any{"aop": "x"}); w.Code != http.StatusNotFound {
		t.Fatalf("absent journal: expected 404, got %d", w.Code)
	}
}
