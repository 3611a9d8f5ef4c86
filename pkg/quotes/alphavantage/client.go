// Package alphavantage implements a quote provider backed by the
// Alpha Vantage TIME_SERIES_DAILY endpoint.
package alphavantage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	// DefaultBaseURL is the production Alpha Vantage query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"

	// OutputSizeCompact returns roughly the latest 100 trading days.
	OutputSizeCompact = "compact"
	// OutputSizeFull returns the complete available history.
	OutputSizeFull = "full"

	functionDaily = "TIME_SERIES_DAILY"

	defaultHTTPTimeout = 10 * time.Second
	defaultMaxRetries  = 3
	retryBackoffBase   = 150 * time.Millisecond

	apiKeyEnv = "ALPHAVANTAGE_API_KEY"
)

// Client is a low-level HTTP client for the Alpha Vantage API.
type Client struct {
	baseURL    string
	apiKey     string
	outputSize string
	maxRetries int
	httpClient *http.Client
	logger     logx.Logger
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithAPIKey sets the Alpha Vantage API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithOutputSize selects compact or full history payloads.
func WithOutputSize(size string) Option {
	return func(c *Client) { c.outputSize = strings.ToLower(strings.TrimSpace(size)) }
}

// WithMaxRetries bounds retry attempts for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(l logx.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs an Alpha Vantage client. The API key falls back to
// the ALPHAVANTAGE_API_KEY environment variable when not set explicitly.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		outputSize: OutputSizeCompact,
		maxRetries: defaultMaxRetries,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logx.WithContext(context.Background()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		c.apiKey = strings.TrimSpace(os.Getenv(apiKeyEnv))
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: api key is required (set %s)", apiKeyEnv)
	}
	if c.outputSize != OutputSizeCompact && c.outputSize != OutputSizeFull {
		return nil, fmt.Errorf("alphavantage: invalid output size %q", c.outputSize)
	}
	return c, nil
}

// FetchDaily retrieves the raw TIME_SERIES_DAILY payload for symbol. The
// returned bytes are the provider response verbatim so callers can archive
// them unmodified.
func (c *Client) FetchDaily(ctx context.Context, symbol string) ([]byte, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("alphavantage: symbol cannot be empty")
	}

	query := url.Values{}
	query.Set("function", functionDaily)
	query.Set("symbol", symbol)
	query.Set("apikey", c.apiKey)
	if c.outputSize != "" {
		query.Set("outputsize", c.outputSize)
	}

	body, err := c.doRequest(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: fetch daily %s: %w", symbol, err)
	}
	if msg := softErrorMessage(body); msg != "" {
		return nil, fmt.Errorf("alphavantage: fetch daily %s: %s", symbol, msg)
	}
	return body, nil
}

// doRequest performs a GET with bounded retries. Transport errors and 5xx
// (plus 429) responses are retried with linear backoff; other non-200
// statuses fail immediately.
func (c *Client) doRequest(ctx context.Context, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + "?" + query.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * retryBackoffBase
			c.logger.Infof("alphavantage: retrying request (attempt %d/%d) after %s: %v",
				attempt, c.maxRetries, backoff, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("perform request: %w", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncateBody(body))
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func truncateBody(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
