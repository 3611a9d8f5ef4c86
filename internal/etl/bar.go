package etl

import "sort"

// DailyBar is one parsed OHLCV observation with its derived intraday
// change percentage.
type DailyBar struct {
	Symbol    string
	Date      string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	ChangePct float64
}

// Dataset is a collection of daily bars ready for loading.
type Dataset []DailyBar

// Normalize deduplicates by (symbol, date) keeping the last occurrence and
// returns the result sorted by symbol then date ascending.
func (d Dataset) Normalize() Dataset {
	type key struct{ symbol, date string }

	seen := make(map[key]int, len(d))
	out := make(Dataset, 0, len(d))
	for _, bar := range d {
		k := key{bar.Symbol, bar.Date}
		if idx, ok := seen[k]; ok {
			out[idx] = bar
			continue
		}
		seen[k] = len(out)
		out = append(out, bar)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// Symbols returns the distinct symbols present, in first-seen order.
func (d Dataset) Symbols() []string {
	seen := make(map[string]struct{}, len(d))
	var out []string
	for _, bar := range d {
		if _, ok := seen[bar.Symbol]; ok {
			continue
		}
		seen[bar.Symbol] = struct{}{}
		out = append(out, bar.Symbol)
	}
	return out
}
