package etl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"eodflow/internal/snapshot"
)

// Transformer turns archived snapshots into a load-ready dataset.
type Transformer struct {
	store           *snapshot.Store
	tolerateMissing bool
}

// TransformOption customises Transformer construction.
type TransformOption func(*Transformer)

// WithTolerateMissing makes Transform skip symbols without snapshots
// instead of failing. The default is to fail loudly.
func WithTolerateMissing() TransformOption {
	return func(t *Transformer) { t.tolerateMissing = true }
}

// NewTransformer constructs a Transformer reading from store.
func NewTransformer(store *snapshot.Store, opts ...TransformOption) *Transformer {
	t := &Transformer{store: store}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform reads the latest snapshot of every symbol, parses all entries
// and returns one deduplicated dataset sorted by symbol then date. A
// missing snapshot is an error unless WithTolerateMissing was set; any
// malformed entry fails the whole symbol.
func (t *Transformer) Transform(ctx context.Context, symbols []string) (Dataset, error) {
	logger := logx.WithContext(ctx)

	var all Dataset
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		_, raw, err := t.store.Latest(symbol)
		if err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				if t.tolerateMissing {
					logger.Infof("no snapshot for %s, skipping", symbol)
					continue
				}
				return nil, &NotFoundError{Symbol: symbol, Err: err}
			}
			return nil, &StorageError{Op: "read snapshot", Err: err}
		}

		bars, err := ParseSnapshot(symbol, raw)
		if err != nil {
			return nil, err
		}
		all = append(all, bars...)
	}
	return all.Normalize(), nil
}

// ParseSnapshot validates and parses one raw payload into daily bars with
// the derived change percentage, sorted by date ascending. The first bad
// entry aborts the whole payload.
func ParseSnapshot(symbol string, raw []byte) ([]DailyBar, error) {
	series, err := ValidateDaily(symbol, raw)
	if err != nil {
		return nil, err
	}

	bars := make([]DailyBar, 0, len(series))
	for date, rb := range series {
		bar, err := parseBar(symbol, date, rb)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

func parseBar(symbol, date string, rb RawBar) (DailyBar, error) {
	bar := DailyBar{Symbol: symbol, Date: date}

	var err error
	if bar.Open, err = parsePrice(rb.Open); err != nil {
		return DailyBar{}, &ParseError{Symbol: symbol, Date: date, Field: "open", Err: err}
	}
	if bar.High, err = parsePrice(rb.High); err != nil {
		return DailyBar{}, &ParseError{Symbol: symbol, Date: date, Field: "high", Err: err}
	}
	if bar.Low, err = parsePrice(rb.Low); err != nil {
		return DailyBar{}, &ParseError{Symbol: symbol, Date: date, Field: "low", Err: err}
	}
	if bar.Close, err = parsePrice(rb.Close); err != nil {
		return DailyBar{}, &ParseError{Symbol: symbol, Date: date, Field: "close", Err: err}
	}
	if bar.Volume, err = strconv.ParseInt(strings.TrimSpace(rb.Volume), 10, 64); err != nil {
		return DailyBar{}, &ParseError{Symbol: symbol, Date: date, Field: "volume", Err: err}
	}

	if bar.Open == 0 {
		return DailyBar{}, &ParseError{
			Symbol: symbol, Date: date, Field: "open",
			Err: fmt.Errorf("open price is zero"),
		}
	}
	bar.ChangePct = (bar.Close - bar.Open) / bar.Open * 100
	return bar, nil
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative price %v", v)
	}
	return v, nil
}
