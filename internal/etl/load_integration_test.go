//go:build integration

package etl

import (
	"context"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"eodflow/internal/model"
)

// Run with: go test -tags integration ./internal/etl -run Integration
// after exporting ETL_TEST_PG_DSN pointing at a disposable database.
func TestSQLLoaderIntegration(t *testing.T) {
	dsn := os.Getenv("ETL_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ETL_TEST_PG_DSN not set; skipping database integration test")
	}

	ctx := context.Background()
	conn := sqlx.NewSqlConn("pgx", dsn)
	prices := model.NewDailyPricesModel(conn)
	require.NoError(t, prices.EnsureSchema(ctx))

	_, err := conn.ExecCtx(ctx, `DELETE FROM daily_prices WHERE symbol LIKE 'ITEST%'`)
	require.NoError(t, err)

	loadedAt := time.Date(2026, 8, 28, 22, 30, 0, 0, time.UTC)
	loader := NewSQLLoader(prices, WithLoaderClock(func() time.Time { return loadedAt }))

	ds := Dataset{
		{Symbol: "ITEST1", Date: "2026-08-27", Open: 98, High: 101, Low: 97.5, Close: 100.25, Volume: 980000, ChangePct: 2.2959},
		{Symbol: "ITEST1", Date: "2026-08-28", Open: 100.5, High: 105.25, Low: 99.75, Close: 104, Volume: 1200345, ChangePct: 3.4826},
		{Symbol: "ITEST2", Date: "2026-08-28", Open: 200, High: 210, Low: 195, Close: 208, Volume: 700, ChangePct: 4},
	}

	rows, err := loader.Load(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	tradeDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	row, err := prices.FindOneBySymbolDate(ctx, "ITEST1", tradeDate)
	require.NoError(t, err)
	assert.Equal(t, 104.0, row.Close)
	assert.Equal(t, int64(1200345), row.Volume)
	assert.True(t, row.LoadedAt.Equal(loadedAt))

	// A repeat load with revised values updates in place rather than
	// duplicating rows.
	ds[1].Close = 106
	rows, err = loader.Load(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	row, err = prices.FindOneBySymbolDate(ctx, "ITEST1", tradeDate)
	require.NoError(t, err)
	assert.Equal(t, 106.0, row.Close)

	all, err := prices.ListBySymbol(ctx, "ITEST1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Empty dataset is a successful no-op.
	rows, err = loader.Load(ctx, Dataset{})
	require.NoError(t, err)
	assert.Equal(t, 0, rows)

	_, err = prices.FindOneBySymbolDate(ctx, "ITEST-MISSING", tradeDate)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
