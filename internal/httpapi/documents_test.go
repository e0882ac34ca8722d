package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gosimple/slug"

	"github.com/scieloorg/documentstore/internal/domain"
)

const (
	sampleDocURL   = "http://files.example/7ca9f9b2687cb.xml"
	sampleDocURLv2 = "http://files.example/7ca9f9b2687cb-v2.xml"
	sampleAssetID  = "0034-8910-rsp-48-2-0347-gf01.gif"
)

const sampleXML = `<article xmlns:xlink="http://www.w3.org/1999/xlink" article-type="research-article">
<front>
<article-meta>
<article-id pub-id-type="publisher-id">S0034-8910.2014048004923</article-id>
</article-meta>
</front>
<body>
<sec>
<p>The Versions of the document</p>
<graphic xlink:href="0034-8910-rsp-48-2-0347-gf01.gif"/>
</sec>
</body>
</article>`

const sampleXMLv2 = `<article xmlns:xlink="http://www.w3.org/1999/xlink" article-type="research-article">
<front>
<article-meta>
<article-id pub-id-type="publisher-id">S0034-8910.2014048004923</article-id>
</article-meta>
</front>
<body>
<sec>
<p>The Versions of the document</p>
<p>A second take on the subject</p>
<graphic xlink:href="0034-8910-rsp-48-2-0347-gf01.gif"/>
</sec>
</body>
</article>`

func sampleFixtures() assetFixtures {
	return assetFixtures{
		sampleDocURL:   sampleXML,
		sampleDocURLv2: sampleXMLv2,
	}
}

func registerSampleDocument(t *testing.T, router http.Handler, id string) {
	t.Helper()
	w := doRequest(t, router, "PUT", "/documents/"+id, map[string]any{
		"data": sampleDocURL,
		"assets": []map[string]string{
			{"asset_id": sampleAssetID, "asset_url": "http://files.example/gf01.gif"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to register document: got status %d, body: %s", w.Code, w.Body.String())
	}
}

func TestPutDocument_CreatesThenNoop(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())

	body := map[string]any{"data": sampleDocURL}
	if w := doRequest(t, router, "PUT", "/documents/x1", body); w.Code != http.StatusCreated {
		t.Fatalf("first PUT: expected 201, got %d, body: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "PUT", "/documents/x1", body); w.Code != http.StatusNoContent {
		t.Fatalf("second PUT: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}

	w := doRequest(t, router, "GET", "/documents/x1/manifest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("manifest: expected 200, got %d", w.Code)
	}
	var manifest domain.Manifest
	decodeJSON(t, w, &manifest)
	if len(manifest.Versions) != 1 {
		t.Fatalf("expected a single version after idempotent PUT, got %d", len(manifest.Versions))
	}
}

func TestPutDocument_AppendsVersion(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	w := doRequest(t, router, "PUT", "/documents/x1", map[string]any{"data": sampleDocURLv2})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d, body: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "GET", "/documents/x1/manifest", nil)
	var manifest domain.Manifest
	decodeJSON(t, w, &manifest)
	if len(manifest.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(manifest.Versions))
	}
	if manifest.Versions[1].Data != sampleDocURLv2 {
		t.Fatalf("expected latest data %q, got %q", sampleDocURLv2, manifest.Versions[1].Data)
	}
}

func TestGetDocument_WhenRollsBack(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	var manifest domain.Manifest
	decodeJSON(t, doRequest(t, router, "GET", "/documents/x1/manifest", nil), &manifest)
	firstTS := manifest.Versions[0].Timestamp

	if w := doRequest(t, router, "PUT", "/documents/x1", map[string]any{"data": sampleDocURLv2}); w.Code != http.StatusNoContent {
		t.Fatalf("second version: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}

	latest := doRequest(t, router, "GET", "/documents/x1", nil)
	if latest.Code != http.StatusOK {
		t.Fatalf("latest: expected 200, got %d", latest.Code)
	}
	if !strings.Contains(latest.Body.String(), "A second take on the subject") {
		t.Fatalf("expected the latest version without when, got: %s", latest.Body.String())
	}

	w := doRequest(t, router, "GET", "/documents/x1?when="+firstTS, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("when=%s: expected 200, got %d, body: %s", firstTS, w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, "A second take on the subject") {
		t.Fatalf("expected the first version at %s, got the latest: %s", firstTS, body)
	}
	if !strings.Contains(body, "The Versions of the document") {
		t.Fatalf("expected the first version body, got: %s", body)
	}
}

func TestGetDocument_WhenRejectsBadInstants(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	if w := doRequest(t, router, "GET", "/documents/x1?when=not-a-timestamp", nil); w.Code != http.StatusNotFound {
		t.Fatalf("malformed when: expected 404, got %d, body: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "GET", "/documents/x1?when=1900-01-01", nil); w.Code != http.StatusNotFound {
		t.Fatalf("when before the first version: expected 404, got %d", w.Code)
	}
}

func TestGetDocumentRenditions_When(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	rendition := map[string]any{
		"filename":   "0034-8910-rsp-48-2-0347.pdf",
		"data_url":   "http://files.example/0347.pdf",
		"mimetype":   "application/pdf",
		"lang":       "en",
		"size_bytes": 23456,
	}
	if w := doRequest(t, router, "PATCH", "/documents/x1/renditions", rendition); w.Code != http.StatusNoContent {
		t.Fatalf("register rendition: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}

	// A date-only instant covers the whole day.
	w := doRequest(t, router, "GET", "/documents/x1/renditions?when=2100-01-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("when in range: expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	var renditions []domain.RenditionView
	decodeJSON(t, w, &renditions)
	if len(renditions) != 1 || renditions[0].Filename != "0034-8910-rsp-48-2-0347.pdf" {
		t.Fatalf("expected the registered rendition, got %+v", renditions)
	}

	if w := doRequest(t, router, "GET", "/documents/x1/renditions?when=1900-01-01", nil); w.Code != http.StatusNotFound {
		t.Fatalf("when before the first version: expected 404, got %d", w.Code)
	}
	if w := doRequest(t, router, "GET", "/documents/x1/renditions?when=not-a-timestamp", nil); w.Code != http.StatusNotFound {
		t.Fatalf("malformed when: expected 404, got %d", w.Code)
	}
}

func TestPutDocument_RejectsBadURLs(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())

	cases := []struct {
		name string
		body map[string]any
	}{
		{"relative data", map[string]any{"data": "../etc/passwd"}},
		{"bad scheme", map[string]any{"data": "ftp://files.example/doc.xml"}},
		{"asset without id", map[string]any{
			"data":   sampleDocURL,
			"assets": []map[string]string{{"asset_url": "http://files.example/a.gif"}},
		}},
		{"asset with bad url", map[string]any{
			"data":   sampleDocURL,
			"assets": []map[string]string{{"asset_id": "a.gif", "asset_url": "nope"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := doRequest(t, router, "PUT", "/documents/x1", tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d, body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestGetDocument_RewritesAssetReferences(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	w := doRequest(t, router, "GET", "/documents/x1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/xml" {
		t.Fatalf("expected text/xml, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "http://files.example/gf01.gif") {
		t.Fatalf("expected rewritten asset reference, body: %s", w.Body.String())
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	if w := doRequest(t, router, "GET", "/documents/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	if w := doRequest(t, router, "DELETE", "/documents/x1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "GET", "/documents/x1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
	// Deleting again is a no-op.
	if w := doRequest(t, router, "DELETE", "/documents/x1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("second delete: expected 204, got %d", w.Code)
	}
	if w := doRequest(t, router, "DELETE", "/documents/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: expected 404, got %d", w.Code)
	}
}

func TestGetDocumentAssets(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	w := doRequest(t, router, "GET", "/documents/x1/assets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	var resp assetsListResponse
	decodeJSON(t, w, &resp)
	if resp.Data != sampleDocURL {
		t.Fatalf("expected data %q, got %q", sampleDocURL, resp.Data)
	}
	if len(resp.Assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(resp.Assets))
	}
	if resp.Assets[0].Slug != slug.Make(sampleAssetID) {
		t.Fatalf("expected slug %q, got %q", slug.Make(sampleAssetID), resp.Assets[0].Slug)
	}
	if resp.Assets[0].URL != "http://files.example/gf01.gif" {
		t.Fatalf("expected asset url, got %q", resp.Assets[0].URL)
	}

	if w := doRequest(t, router, "GET", "/documents/x1/assets?version=abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-integer version, got %d", w.Code)
	}
	if w := doRequest(t, router, "GET", "/documents/x1/assets?version=7", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for out-of-range version, got %d", w.Code)
	}
}

func TestPutDocumentAsset(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	assetSlug := slug.Make(sampleAssetID)
	body := map[string]string{"asset_url": "http://files.example/gf01-new.gif"}

	if w := doRequest(t, router, "PUT", "/documents/x1/assets/"+assetSlug, body); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	// Re-sending the current URL is a no-op.
	if w := doRequest(t, router, "PUT", "/documents/x1/assets/"+assetSlug, body); w.Code != http.StatusNoContent {
		t.Fatalf("repeat: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "PUT", "/documents/x1/assets/no-such-asset", body); w.Code != http.StatusNotFound {
		t.Fatalf("unknown slug: expected 404, got %d", w.Code)
	}

	w := doRequest(t, router, "GET", "/documents/x1/assets", nil)
	var resp assetsListResponse
	decodeJSON(t, w, &resp)
	if resp.Assets[0].URL != "http://files.example/gf01-new.gif" {
		t.Fatalf("expected updated asset url, got %q", resp.Assets[0].URL)
	}
}

func TestDocumentRenditions(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	rendition := map[string]any{
		"filename":   "0034-8910-rsp-48-2-0347.pdf",
		"data_url":   "http://files.example/0034-8910-rsp-48-2-0347.pdf",
		"mimetype":   "application/pdf",
		"lang":       "pt",
		"size_bytes": 31415,
	}
	if w := doRequest(t, router, "PATCH", "/documents/x1/renditions", rendition); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d, body: %s", w.Code, w.Body.String())
	}
	// Identical step is a no-op.
	if w := doRequest(t, router, "PATCH", "/documents/x1/renditions", rendition); w.Code != http.StatusNoContent {
		t.Fatalf("repeat: expected 204, got %d, body: %s", w.Code, w.Body.String())
	}

	w := doRequest(t, router, "GET", "/documents/x1/renditions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var renditions []domain.RenditionView
	decodeJSON(t, w, &renditions)
	if len(renditions) != 1 {
		t.Fatalf("expected 1 rendition, got %d", len(renditions))
	}
	if renditions[0].SizeBytes != 31415 || renditions[0].Lang != "pt" {
		t.Fatalf("unexpected rendition: %+v", renditions[0])
	}

	if w := doRequest(t, router, "DELETE", "/documents/x1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := doRequest(t, router, "GET", "/documents/x1/renditions", nil); w.Code != http.StatusNotFound {
		t.Fatalf("renditions of deleted document: expected 404, got %d", w.Code)
	}
}

func TestGetDocumentDiff(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	if w := doRequest(t, router, "PUT", "/documents/x1", map[string]any{"data": sampleDocURLv2}); w.Code != http.StatusNoContent {
		t.Fatalf("second version: expected 204, got %d", w.Code)
	}

	var manifest domain.Manifest
	decodeJSON(t, doRequest(t, router, "GET", "/documents/x1/manifest", nil), &manifest)
	firstTS := manifest.Versions[0].Timestamp

	if w := doRequest(t, router, "GET", "/documents/x1/diff", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing from_when: expected 400, got %d", w.Code)
	}

	w := doRequest(t, router, "GET", "/documents/x1/diff?from_when="+firstTS, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "--- "+firstTS+"\n+++ latest\n") {
		t.Fatalf("unexpected diff headers: %s", body)
	}
	if !strings.Contains(body, "+ ") || !strings.Contains(body, "A second take on the subject") {
		t.Fatalf("expected added line in diff, got: %s", body)
	}
}

func TestGetDocumentFront(t *testing.T) {
	router := newTestRouter(t, sampleFixtures())
	registerSampleDocument(t, router, "x1")

	w := doRequest(t, router, "GET", "/documents/x1/front", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	var front map[string]any
	decodeJSON(t, w, &front)
	if len(front) == 0 {
		t.Fatal("expected non-empty front")
	}

	if w := doRequest(t, router, "GET", "/documents/missing/front", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
