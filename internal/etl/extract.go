package etl

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"eodflow/internal/snapshot"
	"eodflow/pkg/quotes"
)

// Extractor fetches raw daily payloads and archives them as dated
// snapshots.
type Extractor struct {
	provider  quotes.Provider
	store     *snapshot.Store
	overwrite bool
	now       func() time.Time
	logger    logx.Logger
}

// ExtractorOption customises Extractor construction.
type ExtractorOption func(*Extractor)

// WithOverwrite forces a fresh fetch even when today's snapshot already
// exists.
func WithOverwrite(overwrite bool) ExtractorOption {
	return func(e *Extractor) { e.overwrite = overwrite }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithExtractorLogger overrides the extractor logger.
func WithExtractorLogger(l logx.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor constructs an Extractor.
func NewExtractor(provider quotes.Provider, store *snapshot.Store, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		provider: provider,
		store:    store,
		now:      time.Now,
		logger:   logx.WithContext(context.Background()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches today's payload for symbol and archives it under the
// current UTC date. When a snapshot for today already exists and overwrite
// is off, the network call is skipped entirely and written is false.
func (e *Extractor) Extract(ctx context.Context, symbol string) (date string, written bool, err error) {
	date = e.now().UTC().Format("2006-01-02")

	if !e.overwrite {
		has, err := e.store.Has(symbol, date)
		if err != nil {
			return date, false, &StorageError{Op: "stat snapshot", Err: err}
		}
		if has {
			e.logger.Infof("snapshot %s exists, skipping fetch", snapshot.Key(symbol, date))
			return date, false, nil
		}
	}

	raw, err := e.provider.FetchDaily(ctx, symbol)
	if err != nil {
		return date, false, &FetchError{Symbol: symbol, Err: err}
	}

	if _, err := e.store.Write(symbol, date, raw, true); err != nil {
		return date, false, &StorageError{Op: "write snapshot", Err: err}
	}
	e.logger.Infof("archived snapshot %s (%d bytes)", snapshot.Key(symbol, date), len(raw))
	return date, true, nil
}
