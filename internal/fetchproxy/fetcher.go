// Package fetchproxy retrieves external pages on behalf of the import
// pipeline, shielding callers from cross-origin restrictions and
// unbounded response bodies.
package fetchproxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMaxBodyBytes = 2 << 20 // 2 MiB

// Result is the fetched page body plus its declared content type.
type Result struct {
	Content     string
	ContentType string
}

// StatusError reports a non-2xx response from the target site.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("target returned %s", e.Status)
}

// Fetcher performs bounded, time-limited fetches of external URLs.
type Fetcher struct {
	httpClient   *http.Client
	maxBodyBytes int64
}

func NewFetcher(timeout time.Duration, maxBodyBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Fetcher{
		httpClient:   &http.Client{Timeout: timeout},
		maxBodyBytes: maxBodyBytes,
	}
}

// Fetch retrieves the target URL. Only http and https schemes are
// allowed; the response body is truncated at the configured limit.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	parsed, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ContainerHub-Importer/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Result{
		Content:     string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
