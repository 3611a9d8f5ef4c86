package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"eodflow/internal/cli"
	"eodflow/internal/config"
	"eodflow/internal/etl"
	"eodflow/internal/svc"
)

var (
	configFile  = flag.String("config", "etc/eodflow.yaml", "path to the main config file")
	every       = flag.Duration("every", 0, "run on an interval instead of once (e.g. 24h)")
	migrate     = flag.Bool("migrate", false, "create the daily_prices schema and exit")
	overwrite   = flag.Bool("overwrite", false, "refetch snapshots even when today's already exist")
	symbolsFlag = flag.String("symbols", "", "comma-separated symbol override")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.MustLoad(*configFile)
	if *overwrite {
		cfg.Pipeline.Overwrite = true
	}
	if *symbolsFlag != "" {
		cfg.Symbols = splitSymbols(*symbolsFlag)
	}

	logx.MustSetup(cfg.Log)
	defer logx.Close()
	cli.LogConfigSummary(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sctx := svc.NewServiceContext(*cfg)

	if *migrate {
		if err := sctx.DailyPrices.EnsureSchema(ctx); err != nil {
			log.Fatalf("[main] migrate failed: %v", err)
		}
		log.Println("[main] daily_prices schema is in place")
		return
	}

	if len(cfg.Symbols) == 0 {
		log.Fatalf("[main] no symbols configured; set Symbols in %s or pass -symbols", *configFile)
	}

	if *every <= 0 {
		report, err := sctx.Pipeline.RunOnce(ctx, cfg.Symbols)
		printReport(report)
		if err != nil {
			log.Fatalf("[main] run failed: %v", err)
		}
		return
	}

	log.Printf("[main] running every %s. Press Ctrl+C to stop.", *every)
	runAndReport(ctx, sctx, cfg.Symbols)

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[main] shutdown signal received, stopping")
			return
		case <-ticker.C:
			runAndReport(ctx, sctx, cfg.Symbols)
		}
	}
}

func runAndReport(ctx context.Context, sctx *svc.ServiceContext, symbols []string) {
	report, err := sctx.Pipeline.RunOnce(ctx, symbols)
	printReport(report)
	if err != nil {
		logx.Errorf("pipeline run failed: %v", err)
	}
}

func printReport(r *etl.Report) {
	if r == nil {
		return
	}
	fetched, skipped, failed := r.Counts()
	log.Printf("[run] %d fetched, %d skipped, %d failed, %d bars parsed, %d rows written (%s)",
		fetched, skipped, failed, r.Bars, r.RowsWritten,
		r.Finished.Sub(r.Started).Round(time.Millisecond))
	for _, f := range r.Failed() {
		log.Printf("[run]   failed %s: %v", f.Symbol, f.Err)
	}
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
