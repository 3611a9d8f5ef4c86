package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"eodflow/internal/config"
)

func TestPriceLatestKey(t *testing.T) {
	assert.Equal(t, "eodflow:price:latest:AAPL", PriceLatestKey("aapl"))
}

func TestFormatCacheKeySkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "eodflow:run:last", FormatCacheKey("run", " ", "last"))
}

func TestNewTTLSet(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 30, Medium: 600, Long: 7200})
	assert.Equal(t, 30*time.Second, ttl.Short)
	assert.Equal(t, 10*time.Minute, ttl.Medium)
	assert.Equal(t, 2*time.Hour, ttl.Long)

	defaults := NewTTLSet(config.CacheTTL{})
	assert.Equal(t, time.Minute, defaults.Short)
	assert.Equal(t, 15*time.Minute, defaults.Medium)
	assert.Equal(t, 24*time.Hour, defaults.Long)

	assert.Equal(t, ttl.Long, PriceTTL(ttl))
}

func TestBuildKeyWithSuffix(t *testing.T) {
	assert.Equal(t, "eodflow:run:last:2026-08-28", BuildKeyWithSuffix(RunLastKey(), "2026-08-28"))
	assert.Equal(t, RunLastKey(), BuildKeyWithSuffix(RunLastKey(), "  "))
}
