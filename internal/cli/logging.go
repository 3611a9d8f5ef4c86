package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"eodflow/internal/config"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Snapshot dir: %s", cfg.SnapshotPath()),
		fmt.Sprintf("Symbols: %s", symbolsLine(cfg.Symbols)),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("TTL (short/medium/long): %ds / %ds / %ds", cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long),
		fmt.Sprintf("Pipeline workers: %d", cfg.Pipeline.Workers),
		quotesLine(cfg),
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func symbolsLine(symbols []string) string {
	if len(symbols) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d (%s)", len(symbols), strings.Join(symbols, ", "))
}

func quotesLine(cfg *config.Config) string {
	switch {
	case strings.TrimSpace(cfg.Quotes.File) != "":
		return fmt.Sprintf("Quotes config: %s", cfg.Quotes.File)
	case cfg.Quotes.Value != nil:
		return "Quotes config: inline"
	default:
		return "Quotes config: not configured"
	}
}
