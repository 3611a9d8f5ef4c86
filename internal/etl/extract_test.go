package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eodflow/internal/snapshot"
)

type providerFunc func(ctx context.Context, symbol string) ([]byte, error)

func (f providerFunc) FetchDaily(ctx context.Context, symbol string) ([]byte, error) {
	return f(ctx, symbol)
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 28, 22, 30, 0, 0, time.UTC)
}

func TestExtractArchivesPayload(t *testing.T) {
	store, err := snapshot.NewStore(t.TempDir())
	require.NoError(t, err)

	calls := 0
	provider := providerFunc(func(ctx context.Context, symbol string) ([]byte, error) {
		calls++
		assert.Equal(t, "AAPL", symbol)
		return []byte(validDailyPayload), nil
	})

	extractor := NewExtractor(provider, store, WithClock(fixedClock))
	date, written, err := extractor.Extract(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", date)
	assert.True(t, written)
	assert.Equal(t, 1, calls)

	raw, err := store.Read("AAPL", "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, validDailyPayload, string(raw))
}

func TestExtractSkipsExistingSnapshot(t *testing.T) {
	store, err := snapshot.NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Write("AAPL", "2026-08-28", []byte("existing"), false)
	require.NoError(t, err)

	provider := providerFunc(func(ctx context.Context, symbol string) ([]byte, error) {
		t.Fatal("provider should not be called when snapshot exists")
		return nil, nil
	})

	extractor := NewExtractor(provider, store, WithClock(fixedClock))
	date, written, err := extractor.Extract(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", date)
	assert.False(t, written)

	raw, err := store.Read("AAPL", "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, "existing", string(raw))
}

func TestExtractOverwriteRefetches(t *testing.T) {
	store, err := snapshot.NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Write("AAPL", "2026-08-28", []byte("stale"), false)
	require.NoError(t, err)

	provider := providerFunc(func(ctx context.Context, symbol string) ([]byte, error) {
		return []byte("fresh"), nil
	})

	extractor := NewExtractor(provider, store, WithClock(fixedClock), WithOverwrite(true))
	_, written, err := extractor.Extract(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, written)

	raw, err := store.Read("AAPL", "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(raw))
}

func TestExtractWrapsProviderFailure(t *testing.T) {
	store, err := snapshot.NewStore(t.TempDir())
	require.NoError(t, err)

	sentinel := errors.New("rate limited")
	provider := providerFunc(func(ctx context.Context, symbol string) ([]byte, error) {
		return nil, sentinel
	})

	extractor := NewExtractor(provider, store, WithClock(fixedClock))
	_, _, err = extractor.Extract(context.Background(), "AAPL")
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "AAPL", fetchErr.Symbol)
	assert.True(t, errors.Is(err, sentinel))
}
