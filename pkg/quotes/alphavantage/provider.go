package alphavantage

import (
	"context"
	"net/http"
	"time"

	"eodflow/pkg/quotes"
)

const defaultRequestTimeout = 30 * time.Second

// Provider adapts Client to the quotes.Provider interface and applies a
// per-request timeout.
type Provider struct {
	client  *Client
	timeout time.Duration
}

func init() {
	quotes.RegisterProvider("alphavantage", func(name string, cfg *quotes.ProviderConfig) (quotes.Provider, error) {
		var opts []Option
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			opts = append(opts, WithAPIKey(cfg.APIKey))
		}
		if cfg.OutputSize != "" {
			opts = append(opts, WithOutputSize(cfg.OutputSize))
		}
		if cfg.MaxRetries > 0 {
			opts = append(opts, WithMaxRetries(cfg.MaxRetries))
		}
		if cfg.HTTPTimeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		client, err := NewClient(opts...)
		if err != nil {
			return nil, err
		}
		return NewProvider(client, cfg.Timeout), nil
	})
}

// NewProvider wraps a Client. A non-positive timeout falls back to the
// default request timeout.
func NewProvider(client *Client, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Provider{client: client, timeout: timeout}
}

// FetchDaily implements quotes.Provider.
func (p *Provider) FetchDaily(ctx context.Context, symbol string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.FetchDaily(ctx, symbol)
}
