package config

import (
	"eodflow/pkg/quotes"
)

// MustLoadQuotes loads etc/quotes.yaml from the project root and panics on
// error. It isolates the quotes registry so tests and tools do not need the
// full main config.
func MustLoadQuotes() *quotes.Config {
	return quotes.MustLoad()
}

// MustBuildQuoteProviders loads quote config from the default path and
// builds provider instances; returns the map and default provider name.
func MustBuildQuoteProviders() (map[string]quotes.Provider, string) {
	cfg := MustLoadQuotes()
	providers, err := cfg.BuildProviders()
	if err != nil {
		panic(err)
	}
	return providers, cfg.Default
}
