package quotes

import "context"

// Provider exposes a remote end-of-day quote source.
type Provider interface {
	// FetchDaily returns the provider's verbatim daily time-series payload
	// for the supplied symbol. The payload is opaque bytes by contract so
	// that callers can persist it unmodified.
	FetchDaily(ctx context.Context, symbol string) ([]byte, error)
}
