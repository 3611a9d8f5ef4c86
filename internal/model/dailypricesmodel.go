package model

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = sqlx.ErrNotFound

const dailyPricesSchema = `
CREATE TABLE IF NOT EXISTS daily_prices (
    id BIGSERIAL PRIMARY KEY,
    symbol TEXT NOT NULL,
    trade_date DATE NOT NULL,
    open_price DOUBLE PRECISION NOT NULL,
    high_price DOUBLE PRECISION NOT NULL,
    low_price DOUBLE PRECISION NOT NULL,
    close_price DOUBLE PRECISION NOT NULL,
    volume BIGINT NOT NULL,
    daily_change_percentage DOUBLE PRECISION NOT NULL,
    loaded_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT daily_prices_symbol_trade_date_key UNIQUE (symbol, trade_date)
);
CREATE INDEX IF NOT EXISTS idx_daily_prices_trade_date ON daily_prices (trade_date);
`

const upsertDailyPriceQuery = `
INSERT INTO daily_prices (
    symbol, trade_date, open_price, high_price, low_price, close_price,
    volume, daily_change_percentage, loaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (symbol, trade_date) DO UPDATE SET
    open_price = EXCLUDED.open_price,
    high_price = EXCLUDED.high_price,
    low_price = EXCLUDED.low_price,
    close_price = EXCLUDED.close_price,
    volume = EXCLUDED.volume,
    daily_change_percentage = EXCLUDED.daily_change_percentage,
    loaded_at = EXCLUDED.loaded_at,
    updated_at = NOW()`

const findDailyPriceQuery = `
SELECT id, symbol, trade_date, open_price, high_price, low_price,
       close_price, volume, daily_change_percentage, loaded_at,
       created_at, updated_at
FROM daily_prices
WHERE symbol = $1 AND trade_date = $2
LIMIT 1`

const listDailyPricesBySymbolQuery = `
SELECT id, symbol, trade_date, open_price, high_price, low_price,
       close_price, volume, daily_change_percentage, loaded_at,
       created_at, updated_at
FROM daily_prices
WHERE symbol = $1
ORDER BY trade_date ASC`

// DailyPrice is one persisted OHLCV row.
type DailyPrice struct {
	Id        int64     `db:"id"`
	Symbol    string    `db:"symbol"`
	TradeDate time.Time `db:"trade_date"`
	Open      float64   `db:"open_price"`
	High      float64   `db:"high_price"`
	Low       float64   `db:"low_price"`
	Close     float64   `db:"close_price"`
	Volume    int64     `db:"volume"`
	ChangePct float64   `db:"daily_change_percentage"`
	LoadedAt  time.Time `db:"loaded_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DailyPricesModel provides access to the daily_prices table.
type DailyPricesModel struct {
	conn sqlx.SqlConn
}

// NewDailyPricesModel returns a model for the daily_prices table.
func NewDailyPricesModel(conn sqlx.SqlConn) *DailyPricesModel {
	return &DailyPricesModel{conn: conn}
}

// EnsureSchema creates the daily_prices table and indexes if absent.
func (m *DailyPricesModel) EnsureSchema(ctx context.Context) error {
	_, err := m.conn.ExecCtx(ctx, dailyPricesSchema)
	return err
}

// Upsert inserts or updates one row keyed by (symbol, trade_date). When
// session is non-nil the statement runs inside that transaction.
func (m *DailyPricesModel) Upsert(ctx context.Context, session sqlx.Session, p *DailyPrice) error {
	exec := m.conn.ExecCtx
	if session != nil {
		exec = session.ExecCtx
	}
	_, err := exec(ctx, upsertDailyPriceQuery,
		p.Symbol, p.TradeDate, p.Open, p.High, p.Low, p.Close,
		p.Volume, p.ChangePct, p.LoadedAt)
	return err
}

// FindOneBySymbolDate fetches the row for symbol on tradeDate. Returns
// ErrNotFound when absent.
func (m *DailyPricesModel) FindOneBySymbolDate(ctx context.Context, symbol string, tradeDate time.Time) (*DailyPrice, error) {
	var row DailyPrice
	err := m.conn.QueryRowCtx(ctx, &row, findDailyPriceQuery, symbol, tradeDate)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

// ListBySymbol fetches all rows for symbol ordered by trade date.
func (m *DailyPricesModel) ListBySymbol(ctx context.Context, symbol string) ([]DailyPrice, error) {
	var rows []DailyPrice
	if err := m.conn.QueryRowsCtx(ctx, &rows, listDailyPricesBySymbolQuery, symbol); err != nil {
		return nil, err
	}
	return rows, nil
}

// Trans runs fn inside a database transaction.
func (m *DailyPricesModel) Trans(ctx context.Context, fn func(ctx context.Context, session sqlx.Session) error) error {
	return m.conn.TransactCtx(ctx, fn)
}
