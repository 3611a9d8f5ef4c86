package etl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"eodflow/internal/cache"
	"eodflow/internal/model"
)

// Loader persists a transformed dataset and reports how many rows were
// written.
type Loader interface {
	Load(ctx context.Context, ds Dataset) (int, error)
}

// SQLLoader writes datasets into the daily_prices table. Each call runs in
// a single transaction, one upsert per row, so a load is all-or-nothing
// and safe to repeat.
type SQLLoader struct {
	prices *model.DailyPricesModel
	rds    *redis.Redis
	ttl    time.Duration
	now    func() time.Time
	logger logx.Logger
}

// LoaderOption customises SQLLoader construction.
type LoaderOption func(*SQLLoader)

// WithLatestCloseCache enables best-effort caching of each symbol's most
// recent close after a successful load.
func WithLatestCloseCache(rds *redis.Redis, ttl time.Duration) LoaderOption {
	return func(l *SQLLoader) {
		l.rds = rds
		l.ttl = ttl
	}
}

// WithLoaderClock overrides the time source, for tests.
func WithLoaderClock(now func() time.Time) LoaderOption {
	return func(l *SQLLoader) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLoaderLogger overrides the loader logger.
func WithLoaderLogger(lg logx.Logger) LoaderOption {
	return func(l *SQLLoader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewSQLLoader constructs a SQLLoader over the daily prices model.
func NewSQLLoader(prices *model.DailyPricesModel, opts ...LoaderOption) *SQLLoader {
	l := &SQLLoader{
		prices: prices,
		now:    time.Now,
		logger: logx.WithContext(context.Background()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load upserts every bar in ds. An empty dataset is a successful no-op.
// All rows in one call share a single loaded_at timestamp, UTC at second
// precision.
func (l *SQLLoader) Load(ctx context.Context, ds Dataset) (int, error) {
	if len(ds) == 0 {
		return 0, nil
	}
	ds = ds.Normalize()
	loadedAt := l.now().UTC().Truncate(time.Second)

	count := 0
	err := l.prices.Trans(ctx, func(ctx context.Context, session sqlx.Session) error {
		for _, bar := range ds {
			tradeDate, err := time.ParseInLocation("2006-01-02", bar.Date, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid trade date %q for %s: %w", bar.Date, bar.Symbol, err)
			}
			row := &model.DailyPrice{
				Symbol:    bar.Symbol,
				TradeDate: tradeDate,
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				Volume:    bar.Volume,
				ChangePct: bar.ChangePct,
				LoadedAt:  loadedAt,
			}
			if err := l.prices.Upsert(ctx, session, row); err != nil {
				return fmt.Errorf("upsert %s %s: %w", bar.Symbol, bar.Date, describeDBError(err))
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, &StorageError{Op: "load daily prices", Err: err}
	}

	l.logger.Infof("loaded %d rows across %d symbols", count, len(ds.Symbols()))
	l.cacheLatestCloses(ctx, ds)
	return count, nil
}

// describeDBError surfaces Postgres error details when available.
func describeDBError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (code %s, constraint %s)", pqErr.Message, pqErr.Code, pqErr.Constraint)
	}
	return err
}

// cacheLatestCloses stores each symbol's newest close in Redis. Failures
// are logged and never fail the load.
func (l *SQLLoader) cacheLatestCloses(ctx context.Context, ds Dataset) {
	if l.rds == nil {
		return
	}

	// ds is sorted ascending, so the last bar per symbol is the newest.
	latest := make(map[string]DailyBar, len(ds))
	for _, bar := range ds {
		latest[bar.Symbol] = bar
	}

	seconds := int(l.ttl / time.Second)
	for symbol, bar := range latest {
		key := cache.PriceLatestKey(symbol)
		val := strconv.FormatFloat(bar.Close, 'f', -1, 64)

		var err error
		if seconds > 0 {
			err = l.rds.SetexCtx(ctx, key, val, seconds)
		} else {
			err = l.rds.SetCtx(ctx, key, val)
		}
		if err != nil {
			l.logger.Errorf("cache latest close for %s: %v", symbol, err)
		}
	}
}
