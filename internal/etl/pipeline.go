package etl

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"eodflow/internal/cache"
)

// SymbolStatus classifies the extraction outcome for one symbol.
type SymbolStatus string

const (
	// StatusFetched means a fresh payload was fetched and archived.
	StatusFetched SymbolStatus = "fetched"
	// StatusSkipped means today's snapshot already existed.
	StatusSkipped SymbolStatus = "skipped"
	// StatusFailed means the symbol could not be fetched or archived.
	StatusFailed SymbolStatus = "failed"
)

// SymbolResult is the extraction outcome for one symbol.
type SymbolResult struct {
	Symbol string
	Status SymbolStatus
	Date   string
	Err    error
}

// Report summarises one pipeline run.
type Report struct {
	Results     []SymbolResult
	Bars        int
	RowsWritten int
	Started     time.Time
	Finished    time.Time
}

// Counts returns the number of fetched, skipped and failed symbols.
func (r *Report) Counts() (fetched, skipped, failed int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusFetched:
			fetched++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return
}

// Failed returns the results for symbols that failed extraction.
func (r *Report) Failed() []SymbolResult {
	var out []SymbolResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// runSummaryCache is the subset of the redis client used to store run
// summaries.
type runSummaryCache interface {
	SetexCtx(ctx context.Context, key, value string, seconds int) error
}

// Pipeline wires extraction, transformation and loading into one run.
type Pipeline struct {
	extractor   *Extractor
	transformer *Transformer
	loader      Loader
	workers     int
	runCache    runSummaryCache
	runTTL      time.Duration
	now         func() time.Time
	logger      logx.Logger
}

// PipelineOption customises Pipeline construction.
type PipelineOption func(*Pipeline)

// WithWorkers sets the extraction concurrency. Values below one run
// sequentially.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) { p.workers = n }
}

// WithRunSummaryCache stores a serialized summary of each successful run
// under the run-summary cache key, best effort.
func WithRunSummaryCache(rds runSummaryCache, ttl time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.runCache = rds
		p.runTTL = ttl
	}
}

// WithPipelineClock overrides the time source, for tests.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPipelineLogger overrides the pipeline logger.
func WithPipelineLogger(l logx.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline constructs a Pipeline.
func NewPipeline(extractor *Extractor, transformer *Transformer, loader Loader, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor:   extractor,
		transformer: transformer,
		loader:      loader,
		workers:     1,
		now:         time.Now,
		logger:      logx.WithContext(context.Background()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce executes one full extract-transform-load cycle for symbols.
// Extraction failures are recorded per symbol and do not stop the run:
// transformation still covers every symbol, falling back to a failed
// symbol's most recent archived snapshot. A symbol with no snapshot at
// all aborts the run before loading, unless the transformer was built
// with WithTolerateMissing. Transform and load errors abort the run,
// returning the partial report alongside the error.
func (p *Pipeline) RunOnce(ctx context.Context, symbols []string) (*Report, error) {
	report := &Report{Started: p.now().UTC()}

	symbols = normalizeSymbols(symbols)
	report.Results = p.extractAll(ctx, symbols)

	ds, err := p.transformer.Transform(ctx, symbols)
	if err != nil {
		report.Finished = p.now().UTC()
		return report, err
	}
	report.Bars = len(ds)

	rows, err := p.loader.Load(ctx, ds)
	report.Finished = p.now().UTC()
	if err != nil {
		return report, err
	}
	report.RowsWritten = rows

	fetched, skipped, failed := report.Counts()
	p.logger.Infof("run complete: %d fetched, %d skipped, %d failed, %d bars, %d rows in %s",
		fetched, skipped, failed, report.Bars, report.RowsWritten,
		report.Finished.Sub(report.Started).Round(time.Millisecond))
	p.cacheRunSummary(ctx, report)
	return report, nil
}

// cacheRunSummary stores the latest run report in Redis. Failures are
// logged and never fail the run.
func (p *Pipeline) cacheRunSummary(ctx context.Context, report *Report) {
	if p.runCache == nil {
		return
	}
	seconds := int(p.runTTL / time.Second)
	if seconds <= 0 {
		return
	}

	fetched, skipped, failed := report.Counts()
	payload, err := json.Marshal(map[string]any{
		"started":      report.Started.Format(time.RFC3339),
		"finished":     report.Finished.Format(time.RFC3339),
		"fetched":      fetched,
		"skipped":      skipped,
		"failed":       failed,
		"bars":         report.Bars,
		"rows_written": report.RowsWritten,
	})
	if err != nil {
		p.logger.Errorf("marshal run summary: %v", err)
		return
	}
	if err := p.runCache.SetexCtx(ctx, cache.RunLastKey(), string(payload), seconds); err != nil {
		p.logger.Errorf("cache run summary: %v", err)
	}
}

func (p *Pipeline) extractAll(ctx context.Context, symbols []string) []SymbolResult {
	results := make([]SymbolResult, len(symbols))

	workers := p.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				symbol := symbols[i]
				date, written, err := p.extractor.Extract(ctx, symbol)
				switch {
				case err != nil:
					p.logger.Errorf("extract %s: %v", symbol, err)
					results[i] = SymbolResult{Symbol: symbol, Status: StatusFailed, Date: date, Err: err}
				case written:
					results[i] = SymbolResult{Symbol: symbol, Status: StatusFetched, Date: date}
				default:
					results[i] = SymbolResult{Symbol: symbol, Status: StatusSkipped, Date: date}
				}
			}
		}()
	}

	for i := range symbols {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
