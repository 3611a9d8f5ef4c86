package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"eodflow/internal/config"
	_ "eodflow/pkg/quotes/alphavantage"
)

// Probes the configured quote provider with a single symbol so operators
// can verify API keys and connectivity before scheduling the pipeline.
func main() {
	symbol := "IBM"
	if len(os.Args) > 1 {
		symbol = os.Args[1]
	}

	providers, defaultName := config.MustBuildQuoteProviders()
	provider, ok := providers[defaultName]
	if !ok {
		fmt.Printf("default provider %q not found in quotes config\n", defaultName)
		os.Exit(1)
	}

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Provider: %s\n", defaultName)
	fmt.Printf("Symbol:   %s\n", symbol)
	fmt.Println("═══════════════════════════════════════════════════════════════")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	raw, err := provider.FetchDaily(ctx, symbol)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("fetch failed after %s: %v\n", elapsed.Round(time.Millisecond), err)
		os.Exit(1)
	}
	fmt.Printf("fetched %d bytes in %s\n", len(raw), elapsed.Round(time.Millisecond))

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Printf("payload is not valid JSON: %v\n", err)
		os.Exit(1)
	}

	series, ok := payload["Time Series (Daily)"]
	if !ok {
		fmt.Println("payload has no daily time series container")
		os.Exit(1)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(series, &entries); err != nil {
		fmt.Printf("time series is malformed: %v\n", err)
		os.Exit(1)
	}

	dates := make([]string, 0, len(entries))
	for date := range entries {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	fmt.Printf("entries: %d\n", len(dates))
	if len(dates) > 0 {
		fmt.Printf("range:   %s .. %s\n", dates[0], dates[len(dates)-1])
	}
	fmt.Println("quote provider looks healthy")
}
