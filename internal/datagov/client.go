// Package datagov provides a client for the data.gov.il CKAN API.
//
// Every call is a GET against <base>/<action> returning the standard CKAN
// envelope {"success": bool, "result": ...}. Non-2xx statuses, non-success
// envelopes, and malformed payloads all surface as errors. Transient
// failures (network errors, 5xx statuses) are retried a bounded number of
// times; the calls are idempotent reads, so retrying is safe.
package datagov

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/openrechev/openrechev/internal/platform/timeouts"
)

// DefaultBaseURL is the public CKAN action API root on data.gov.il.
const DefaultBaseURL = "https://data.gov.il/api/3/action"

// DefaultResourceID identifies the private-vehicle registration dataset.
const DefaultResourceID = "053cea08-09bc-40ec-8f7a-156f0677aff3"

const (
	retryMaxAttempts  = 3
	retryInitialDelay = 200 * time.Millisecond
	retryMaxDelay     = time.Second
)

// Config holds the immutable settings for a Client. The zero value is
// usable: empty fields fall back to the public registry defaults.
type Config struct {
	// BaseURL is the CKAN action API root, without a trailing slash.
	BaseURL string
	// ResourceID is the dataset queried by DatastoreSearch and reported
	// by ResourceID. Every datastore request carries it.
	ResourceID string
	// Timeout caps a single HTTP attempt. Retries each get the full
	// budget.
	Timeout time.Duration
}

// Client issues CKAN action requests. It holds no mutable state beyond
// the underlying http.Client and is safe for concurrent use.
type Client struct {
	baseURL    string
	resourceID string
	httpClient *http.Client
}

// New validates cfg and returns a ready Client. The HTTP transport is
// instrumented for tracing.
func New(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	resourceID := strings.TrimSpace(cfg.ResourceID)
	if resourceID == "" {
		resourceID = DefaultResourceID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.UpstreamRequest
	}
	return &Client{
		baseURL:    normalized,
		resourceID: resourceID,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("datagov: base URL is required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("datagov: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("datagov: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("datagov: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// ResourceID reports the dataset identifier this client queries.
func (c *Client) ResourceID() string {
	return c.resourceID
}

// Close releases idle connections held by the underlying HTTP client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// envelope is the common CKAN response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// getAction issues GET <base>/<action>?<params> and decodes the envelope
// result into result. Network errors and 5xx statuses are retried with a
// doubling delay; envelope and 4xx errors are not.
func (c *Client) getAction(ctx context.Context, action string, params url.Values, result any) error {
	reqURL := c.baseURL + "/" + action
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	delay := retryInitialDelay
	for attempt := 1; ; attempt++ {
		body, retryable, err := c.fetch(ctx, action, reqURL)
		if err == nil {
			return decodeEnvelope(action, body, result)
		}
		if !retryable || attempt == retryMaxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", action, ctx.Err())
		case <-time.After(delay):
		}
		if delay < retryMaxDelay {
			delay *= 2
		}
	}
}

// fetch performs one GET attempt. The second return reports whether the
// failure is transient and worth retrying.
func (c *Client) fetch(ctx context.Context, action, reqURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: build request: %w", action, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%s: read response: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode >= 500, fmt.Errorf("%s: status %d", action, resp.StatusCode)
	}
	return body, false, nil
}

func decodeEnvelope(action string, body []byte, result any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	if !env.Success {
		return fmt.Errorf("%s: upstream reported failure", action)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return fmt.Errorf("%s: response is missing result", action)
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", action, err)
	}
	return nil
}
