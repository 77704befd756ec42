package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Catalog is the boundary the import pipeline drives: item creation,
// duplicate lookup, and page fetching. The HTTP Client is the production
// implementation; an in-process adapter backs single-binary deployments.
type Catalog interface {
	CreateItem(ctx context.Context, item NormalizedItem) (*CreatedItem, error)
	BulkCreate(ctx context.Context, items []NormalizedItem) (int, error)
	RegisteredSourceURLs(ctx context.Context) ([]string, error)
	FetchPage(ctx context.Context, target string) (*FetchResult, error)
}

// CreatedItem is the catalog's read-back of one created record.
type CreatedItem struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// FetchResult is the fetch proxy's view of one target URL.
type FetchResult struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// ClientConfig carries the explicit network configuration of a Client.
// The base URL and credentials are constructor parameters, never ambient
// state.
type ClientConfig struct {
	BaseURL    string
	Token      string // bearer token forwarded on every request
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client talks to the catalog CRUD service over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = initialRetryDelay
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// CreateItem creates one item via POST /api/items.
func (c *Client) CreateItem(ctx context.Context, item NormalizedItem) (*CreatedItem, error) {
	var created CreatedItem
	if err := c.doJSON(ctx, http.MethodPost, "/api/items", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// BulkCreate creates a batch of items via POST /api/items/bulk and
// returns the created count.
func (c *Client) BulkCreate(ctx context.Context, items []NormalizedItem) (int, error) {
	body := map[string]interface{}{"items": items}
	var resp struct {
		Created int `json:"created"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/items/bulk", body, &resp); err != nil {
		return 0, err
	}
	return resp.Created, nil
}

// RegisteredSourceURLs fetches the already-registered source URLs used by
// the deduplication filter.
func (c *Client) RegisteredSourceURLs(ctx context.Context) ([]string, error) {
	var resp struct {
		SourceURLs []string `json:"source_urls"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/items?fields=source_url", nil, &resp); err != nil {
		return nil, err
	}
	return resp.SourceURLs, nil
}

// FetchPage retrieves a target URL through the fetch proxy. A proxy-level
// failure carries the proxy's human-readable message verbatim.
func (c *Client) FetchPage(ctx context.Context, target string) (*FetchResult, error) {
	body := map[string]string{"url": target}
	var resp struct {
		Success     bool   `json:"success"`
		Content     string `json:"content"`
		ContentType string `json:"content_type"`
		Message     string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/fetch-proxy", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetch failed: %s", resp.Message)
	}
	return &FetchResult{Content: resp.Content, ContentType: resp.ContentType}, nil
}

// doJSON performs one JSON request with bounded retry. Only rate limits
// and server errors are retried.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateRetryDelay(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.doOnce(ctx, method, path, body, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryableError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &RequestError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) calculateRetryDelay(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 0; i < attempt-1; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}

// errorMessage pulls the "error" field out of a JSON error body, falling
// back to the raw body text.
func errorMessage(raw []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(raw)
}
