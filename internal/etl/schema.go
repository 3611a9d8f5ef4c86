package etl

import (
	"encoding/json"
	"regexp"
)

// seriesKeys are the payload containers recognised for daily bars. The
// adjusted variant shares the per-field layout except for volume position.
var seriesKeys = []string{
	"Time Series (Daily)",
	"Time Series (Daily Adjusted)",
}

var entryDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// RawBar holds one time-series entry with all fields still in string form.
// Numeric conversion happens later so that shape problems and value
// problems surface as distinct errors.
type RawBar struct {
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// ValidateDaily checks that raw is a structurally valid daily time-series
// payload and returns its entries keyed by date. No numeric parsing is
// performed. Returns a SchemaError naming the first offending field.
func ValidateDaily(symbol string, raw []byte) (map[string]RawBar, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &SchemaError{Symbol: symbol, Field: "payload"}
	}

	var seriesRaw json.RawMessage
	for _, key := range seriesKeys {
		if v, ok := top[key]; ok {
			seriesRaw = v
			break
		}
	}
	if seriesRaw == nil {
		return nil, &SchemaError{Symbol: symbol, Field: seriesKeys[0]}
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return nil, &SchemaError{Symbol: symbol, Field: "time series entries"}
	}

	out := make(map[string]RawBar, len(series))
	for date, fields := range series {
		if !entryDateRe.MatchString(date) {
			return nil, &SchemaError{Symbol: symbol, Field: "entry date " + date}
		}
		bar, err := rawBarFromFields(symbol, date, fields)
		if err != nil {
			return nil, err
		}
		out[date] = bar
	}
	return out, nil
}

func rawBarFromFields(symbol, date string, fields map[string]string) (RawBar, error) {
	pick := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := fields[k]; ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	var bar RawBar
	var ok bool
	if bar.Open, ok = pick("1. open"); !ok {
		return RawBar{}, &SchemaError{Symbol: symbol, Field: date + ".1. open"}
	}
	if bar.High, ok = pick("2. high"); !ok {
		return RawBar{}, &SchemaError{Symbol: symbol, Field: date + ".2. high"}
	}
	if bar.Low, ok = pick("3. low"); !ok {
		return RawBar{}, &SchemaError{Symbol: symbol, Field: date + ".3. low"}
	}
	if bar.Close, ok = pick("4. close"); !ok {
		return RawBar{}, &SchemaError{Symbol: symbol, Field: date + ".4. close"}
	}
	// Adjusted-series payloads carry volume in slot 6.
	if bar.Volume, ok = pick("5. volume", "6. volume"); !ok {
		return RawBar{}, &SchemaError{Symbol: symbol, Field: date + ".5. volume"}
	}
	return bar, nil
}
