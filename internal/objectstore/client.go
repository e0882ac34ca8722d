// Package objectstore fetches document XML from the object-store over
// HTTP, retrying transient failures with exponential backoff.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/metrics"
)

const (
	// DefaultMaxRetries bounds the retry loop for transient failures.
	DefaultMaxRetries = 4

	// DefaultBackoffFactor is the exponential base of the sleep
	// between attempts, in seconds.
	DefaultBackoffFactor = 1.2

	// DefaultTimeout bounds a single fetch when the caller passes no
	// explicit timeout.
	DefaultTimeout = 2 * time.Second
)

// Client retrieves objects with a bounded retry policy. Transient
// transport errors and 5xx responses are retried; invalid URLs and 4xx
// responses fail immediately.
type Client struct {
	HTTPClient    *http.Client
	MaxRetries    int
	BackoffFactor float64

	// sleep is replaced in tests to avoid real waits.
	sleep func(time.Duration)
}

// New returns a client with the given retry policy. Non-positive
// arguments fall back to the defaults.
func New(maxRetries int, backoffFactor float64) *Client {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if backoffFactor <= 0 {
		backoffFactor = DefaultBackoffFactor
	}
	return &Client{
		HTTPClient:    &http.Client{},
		MaxRetries:    maxRetries,
		BackoffFactor: backoffFactor,
		sleep:         time.Sleep,
	}
}

// Fetch returns the body at rawURL, retrying per the client's policy.
func (c *Client) Fetch(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &domain.NonRetryableError{Err: fmt.Errorf("invalid URL %q: %w", rawURL, err)}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &domain.NonRetryableError{
			Err: fmt.Errorf("invalid URL %q: unsupported scheme %q", rawURL, parsed.Scheme),
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	for attempt := 0; ; attempt++ {
		data, err := c.fetchOnce(ctx, rawURL, timeout)
		if err == nil {
			return data, nil
		}
		if !domain.IsRetryable(err) || attempt >= c.MaxRetries {
			return nil, err
		}
		wait := time.Duration(math.Pow(c.BackoffFactor, float64(attempt)) * float64(time.Second))
		log.Warn().Err(err).Str("url", rawURL).Int("attempt", attempt).
			Dur("wait", wait).Msg("retrying object-store fetch")
		c.sleep(wait)
	}
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	start := time.Now()
	data, err := c.do(ctx, rawURL, timeout)
	metrics.ObjectStoreResponseTime.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ObjectStoreRequestFailures.Inc()
	}
	return data, err
}

func (c *Client) do(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.NonRetryableError{Err: fmt.Errorf("invalid request for %q: %w", rawURL, err)}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Connection failures and timeouts are worth another try.
		return nil, &domain.RetryableError{Err: fmt.Errorf("could not fetch %q: %w", rawURL, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &domain.RetryableError{
			Err: fmt.Errorf("could not fetch %q: upstream returned %s", rawURL, resp.Status),
		}
	case resp.StatusCode >= 400:
		return nil, &domain.NonRetryableError{
			Err: fmt.Errorf("could not fetch %q: upstream returned %s", rawURL, resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RetryableError{Err: fmt.Errorf("could not read %q: %w", rawURL, err)}
	}
	return data, nil
}

// AssetsGetter adapts the client to the signature the Document
// aggregate expects: fetch the XML and enumerate its static assets.
func (c *Client) AssetsGetter() domain.AssetsGetter {
	return func(ctx context.Context, rawURL string, timeout time.Duration) (*domain.ParsedXML, error) {
		data, err := c.Fetch(ctx, rawURL, timeout)
		if err != nil {
			return nil, err
		}
		return domain.ParseXML(data)
	}
}
