package cache

import (
	"fmt"
	"strings"
	"time"

	"eodflow/internal/config"
)

// Namespace is the Redis key prefix for the application.
const Namespace = "eodflow"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, time.Minute),
		Medium: durationOrDefault(cfg.Medium, 15*time.Minute),
		Long:   durationOrDefault(cfg.Long, 24*time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Price Keys -------------------------------------------------------------

// PriceLatestKey holds the most recent close for a symbol.
func PriceLatestKey(symbol string) string {
	return formatKey("price", "latest", strings.ToUpper(symbol))
}

// RunLastKey holds a summary of the most recent pipeline run.
func RunLastKey() string {
	return formatKey("run", "last")
}

// --- TTL Helpers ------------------------------------------------------------

// PriceTTL returns the TTL for latest-close price keys. End-of-day data
// stays fresh until the next trading session, so this uses the long bucket.
func PriceTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// RunLastTTL returns the TTL for run summaries.
func RunLastTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}
