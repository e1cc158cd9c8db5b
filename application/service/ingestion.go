// Package service orchestrates ingestion and search over the domain types.
package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/config"
)

// Stage names where a row failed.
type Stage string

// Stages.
const (
	StageValidation  Stage = "validation"
	StageEmbedding   Stage = "embedding"
	StagePersistence Stage = "persistence"
)

// RowFailure records one rejected row.
type RowFailure struct {
	Index int
	Name  string
	Stage Stage
	Err   error
}

// Summary reports an ingestion run.
type Summary struct {
	Start     int
	Stop      int
	Processed int
	Succeeded int
	Failed    int
	Failures  []RowFailure
	Elapsed   time.Duration
	Cancelled bool
}

// NextStart returns the offset the next contiguous run should start from.
func (s Summary) NextStart() int {
	return s.Start + s.Processed
}

// Progress is reported after every row or batch.
type Progress struct {
	Processed int
	Succeeded int
	Failed    int
	Total     int
}

// IngestOption configures a single run.
type IngestOption func(*ingestRun)

type ingestRun struct {
	start     int
	stop      int
	batchSize int
	progress  func(Progress)
}

// WithRange restricts the run to rows [start, stop). A negative stop means
// the end of the source; a stop past the end is clamped.
func WithRange(start, stop int) IngestOption {
	return func(r *ingestRun) {
		r.start = start
		r.stop = stop
	}
}

// WithBatchSize sets rows per embedding request. 1 is single-row mode.
func WithBatchSize(n int) IngestOption {
	return func(r *ingestRun) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithProgress registers a callback invoked after each row or batch.
func WithProgress(fn func(Progress)) IngestOption {
	return func(r *ingestRun) { r.progress = fn }
}

// Ingestion validates, embeds, and stores color rows one row or batch at a time.
type Ingestion struct {
	store    color.Store
	embedder search.Embedder
	cfg      config.IngestConfig
	logger   *slog.Logger
}

// NewIngestion creates an Ingestion.
func NewIngestion(store color.Store, embedder search.Embedder, cfg config.IngestConfig, logger *slog.Logger) *Ingestion {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestion{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With("component", "ingestion", "backend", embedder.Backend().Name()),
	}
}

// Run processes rows[start:stop] sequentially. Per-row failures are recorded
// in the summary and never abort the run. Cancellation is observed between
// rows and during pauses; Run then returns the partial summary and ctx.Err().
func (i *Ingestion) Run(ctx context.Context, rows []color.Row, opts ...IngestOption) (Summary, error) {
	run := ingestRun{stop: -1, batchSize: i.cfg.BatchSize()}
	for _, opt := range opts {
		opt(&run)
	}
	if run.batchSize < 1 {
		run.batchSize = 1
	}

	start, stop, err := resolveRange(run.start, run.stop, len(rows))
	if err != nil {
		return Summary{}, err
	}

	began := time.Now()
	summary := Summary{Start: start, Stop: stop}
	ctx = search.WithInputType(ctx, search.InputDocument)

	i.logger.Info("ingestion started",
		"start", start, "stop", stop, "batch_size", run.batchSize)

	longPauses := 0
	lastReport := 0
	for pos := start; pos < stop; pos += run.batchSize {
		if pos > start {
			pause := i.cfg.RequestDelay()
			if every := i.cfg.LongPauseEvery(); every > 0 && summary.Processed/every > longPauses {
				longPauses = summary.Processed / every
				pause = i.cfg.LongPause()
				i.logger.Debug("long pause", "after", summary.Processed, "pause", pause)
			}
			if err := sleep(ctx, pause); err != nil {
				summary.Cancelled = true
				break
			}
		}
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		end := min(pos+run.batchSize, stop)
		if !i.processBatch(ctx, rows[pos:end], pos, &summary) {
			summary.Cancelled = true
			break
		}

		if run.progress != nil {
			run.progress(Progress{
				Processed: summary.Processed,
				Succeeded: summary.Succeeded,
				Failed:    summary.Failed,
				Total:     stop - start,
			})
		}
		if every := i.cfg.ReportEvery(); every > 0 && summary.Processed/every > lastReport {
			lastReport = summary.Processed / every
			i.logger.Info("ingestion progress",
				"processed", summary.Processed,
				"total", stop-start,
				"succeeded", summary.Succeeded,
				"failed", summary.Failed)
		}
	}

	summary.Elapsed = time.Since(began)
	i.logger.Info("ingestion finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"next_start", summary.NextStart(),
		"cancelled", summary.Cancelled,
		"elapsed", summary.Elapsed)

	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

// processBatch handles rows whose first index is offset. It returns false,
// leaving summary untouched, when ctx was cancelled before anything was written.
func (i *Ingestion) processBatch(ctx context.Context, rows []color.Row, offset int, summary *Summary) bool {
	type pending struct {
		index int
		color color.Color
	}

	var failures []RowFailure
	valid := make([]pending, 0, len(rows))
	for n, row := range rows {
		c, err := color.Validate(row)
		if err != nil {
			failures = append(failures, RowFailure{Index: offset + n, Name: row.Name, Stage: StageValidation, Err: err})
			continue
		}
		valid = append(valid, pending{index: offset + n, color: c})
	}

	var results []search.ItemResult
	if len(valid) > 0 {
		names := make([]string, len(valid))
		for n, p := range valid {
			names[n] = p.color.Name()
		}
		var err error
		results, err = i.embedder.EmbedBatch(ctx, names)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			results = make([]search.ItemResult, len(valid))
			for n := range results {
				results[n] = search.ItemResult{Index: n, Err: err}
			}
		}
	}

	// Writes are not interrupted once the vectors are in hand.
	writeCtx := context.WithoutCancel(ctx)
	column := i.embedder.Backend().Column()
	succeeded := 0
	for n, p := range valid {
		var res search.ItemResult
		if n < len(results) {
			res = results[n]
		}
		if !res.OK() {
			err := res.Err
			if err == nil {
				err = search.ErrNoEmbedding
			}
			failures = append(failures, RowFailure{Index: p.index, Name: p.color.Name(), Stage: StageEmbedding, Err: err})
			continue
		}
		if _, err := i.store.Upsert(writeCtx, p.color, column, res.Vector); err != nil {
			failures = append(failures, RowFailure{Index: p.index, Name: p.color.Name(), Stage: StagePersistence, Err: err})
			continue
		}
		succeeded++
	}

	slices.SortFunc(failures, func(a, b RowFailure) int { return cmp.Compare(a.Index, b.Index) })
	for _, f := range failures {
		i.logger.Warn("row failed",
			"row", f.Index, "name", f.Name, "stage", string(f.Stage), "error", f.Err)
	}
	summary.Processed += len(rows)
	summary.Succeeded += succeeded
	summary.Failed += len(failures)
	summary.Failures = append(summary.Failures, failures...)
	return true
}

func resolveRange(start, stop, total int) (int, int, error) {
	if stop < 0 || stop > total {
		stop = total
	}
	if start < 0 || start > stop {
		return 0, 0, fmt.Errorf("%w: [%d, %d) of %d rows", ErrInvalidRange, start, stop, total)
	}
	return start, stop, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
