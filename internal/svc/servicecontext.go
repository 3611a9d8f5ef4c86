package svc

import (
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"eodflow/internal/cache"
	"eodflow/internal/config"
	"eodflow/internal/etl"
	"eodflow/internal/model"
	"eodflow/internal/snapshot"
	quotespkg "eodflow/pkg/quotes"
	_ "eodflow/pkg/quotes/alphavantage"
)

type ServiceContext struct {
	Config config.Config

	QuotesConfig   *quotespkg.Config
	QuoteProviders map[string]quotespkg.Provider
	DefaultQuotes  quotespkg.Provider

	Snapshots *snapshot.Store
	TTL       cache.TTLSet
	Redis     *redis.Redis

	DBConn      sqlx.SqlConn
	DailyPrices *model.DailyPricesModel
	Loader      etl.Loader
	Pipeline    *etl.Pipeline
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    cache.NewTTLSet(c.TTL),
	}

	// The quotes section is hydrated during config.Load.
	quotesCfg := c.Quotes.Value
	if quotesCfg == nil {
		log.Fatalf("quotes config is required (set Quotes.File in the main config)")
	}
	providers, err := quotesCfg.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build quote providers: %v", err)
	}
	svc.QuotesConfig = quotesCfg
	svc.QuoteProviders = providers

	defaultName := quotesCfg.Default
	if defaultName == "" && len(providers) == 1 {
		for name := range providers {
			defaultName = name
		}
	}
	svc.DefaultQuotes = providers[defaultName]
	if svc.DefaultQuotes == nil {
		log.Fatalf("no default quote provider; set 'default' in the quotes config")
	}

	store, err := snapshot.NewStore(c.SnapshotPath())
	if err != nil {
		log.Fatalf("failed to init snapshot store: %v", err)
	}
	svc.Snapshots = store

	if strings.TrimSpace(c.Redis.Host) != "" {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		svc.Redis = rds
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		log.Fatalf("postgres DSN is required")
	}
	conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	svc.DBConn = conn
	svc.DailyPrices = model.NewDailyPricesModel(conn)

	var loaderOpts []etl.LoaderOption
	if svc.Redis != nil {
		loaderOpts = append(loaderOpts, etl.WithLatestCloseCache(svc.Redis, cache.PriceTTL(svc.TTL)))
	}
	loader := etl.NewSQLLoader(svc.DailyPrices, loaderOpts...)
	svc.Loader = loader

	extractor := etl.NewExtractor(svc.DefaultQuotes, store,
		etl.WithOverwrite(c.Pipeline.Overwrite))
	transformer := etl.NewTransformer(store)
	pipelineOpts := []etl.PipelineOption{etl.WithWorkers(c.Pipeline.Workers)}
	if svc.Redis != nil {
		pipelineOpts = append(pipelineOpts,
			etl.WithRunSummaryCache(svc.Redis, cache.RunLastTTL(svc.TTL)))
	}
	svc.Pipeline = etl.NewPipeline(extractor, transformer, loader, pipelineOpts...)

	return svc
}
