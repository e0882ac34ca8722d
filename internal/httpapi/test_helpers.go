package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/services"
	"github.com/scieloorg/documentstore/internal/store/memory"
)

// assetFixtures maps data URLs to the XML the object store would serve.
type assetFixtures map[string]string

func (f assetFixtures) getter(_ context.Context, url string, _ time.Duration) (*domain.ParsedXML, error) {
	data, ok := f[url]
	if !ok {
		return nil, &domain.NonRetryableError{Err: fmt.Errorf("no fixture registered for %q", url)}
	}
	return domain.ParseXML([]byte(data))
}

// newTestRouter builds a router over an in-memory database and a stub
// object store serving the given fixtures.
func newTestRouter(t *testing.T, fixtures assetFixtures) http.Handler {
	t.Helper()
	db := memory.NewDB()
	handlers := services.NewHandlers(db.SessionFactory(), fixtures.getter)
	return (&Server{Handlers: handlers}).Routes()
}

// doRequest performs a request against the router, marshalling body as
// JSON when it is non-nil.
func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	reader := bytes.NewReader(nil)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeJSON decodes a recorded response body into dst.
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body %q: %v", w.Body.String(), err)
	}
}
