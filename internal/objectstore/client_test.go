package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/documentstore/internal/domain"
)

// scriptedServer answers with the scripted status codes in order, then
// keeps serving the last one.
func scriptedServer(t *testing.T, codes []int, body string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := codes[len(codes)-1]
		if calls < len(codes) {
			code = codes[calls]
		}
		calls++
		w.WriteHeader(code)
		if code < 300 {
			w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient() (*Client, *[]time.Duration) {
	client := New(2, 1.2)
	var waits []time.Duration
	client.sleep = func(d time.Duration) { waits = append(waits, d) }
	return client, &waits
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	srv, calls := scriptedServer(t, []int{500, 502, 200}, "<doc/>")
	client, waits := newTestClient()

	data, err := client.Fetch(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "<doc/>", string(data))
	assert.Equal(t, 3, *calls)

	require.Len(t, *waits, 2)
	assert.Equal(t, time.Second, (*waits)[0])
	assert.InDelta(t, 1.2, (*waits)[1].Seconds(), 0.001)
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	srv, calls := scriptedServer(t, []int{500}, "")
	client, waits := newTestClient()

	_, err := client.Fetch(context.Background(), srv.URL, time.Second)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, client.MaxRetries+1, *calls)
	assert.Len(t, *waits, client.MaxRetries)
}

func TestFetch_ClientErrorIsTerminal(t *testing.T) {
	srv, calls := scriptedServer(t, []int{404}, "")
	client, waits := newTestClient()

	_, err := client.Fetch(context.Background(), srv.URL, time.Second)
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
	assert.Equal(t, 1, *calls)
	assert.Empty(t, *waits)
}

func TestFetch_ConnectionFailureIsRetryable(t *testing.T) {
	client, waits := newTestClient()

	// Nothing listens here.
	_, err := client.Fetch(context.Background(), "http://127.0.0.1:1", 100*time.Millisecond)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Len(t, *waits, client.MaxRetries)
}

func TestFetch_RejectsBadURLs(t *testing.T) {
	client, _ := newTestClient()

	for _, raw := range []string{"ftp://host/doc.xml", "://bad", "file:///etc/passwd"} {
		_, err := client.Fetch(context.Background(), raw, time.Second)
		require.Error(t, err, raw)
		assert.False(t, domain.IsRetryable(err), raw)
	}
}

func TestNew_Defaults(t *testing.T) {
	client := New(0, 0)
	assert.Equal(t, DefaultMaxRetries, client.MaxRetries)
	assert.Equal(t, DefaultBackoffFactor, client.BackoffFactor)
}

func TestAssetsGetter(t *testing.T) {
	xml := `<article xmlns:xlink="http://www.w3.org/1999/xlink"><graphic xlink:href="a.gif"/></article>`
	srv, _ := scriptedServer(t, []int{200}, xml)
	client, _ := newTestClient()

	parsed, err := client.AssetsGetter()(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	require.Len(t, parsed.Assets, 1)
	assert.Equal(t, "a.gif", parsed.Assets[0].ID)

	broken, _ := scriptedServer(t, []int{200}, "not xml <")
	_, err = client.AssetsGetter()(context.Background(), broken.URL, time.Second)
	assert.Error(t, err)
}
