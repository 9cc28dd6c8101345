// Package orchestrator discovers a source tree, runs the configured
// processors against each asset according to the media-type-aware
// scheduling algorithm, resolves deferrals to a fixed point, and writes
// surviving assets to the target tree.
//
// Grounded on the contract in the distilled specification's Orchestrator
// section (no single original-implementation file covers this: the Rust
// original's orchestration logic was never distilled into the retrieval
// pack, so this package is built directly from that contract), using the
// teacher's structured-logging and worker-pool idioms throughout.
package orchestrator

import (
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/logfields"
	"github.com/aerstatic/aer/internal/metrics"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/processor"
	"github.com/aerstatic/aer/internal/sets"
	"github.com/aerstatic/aer/internal/templatelang"
	"github.com/aerstatic/aer/internal/value"
)

// Config describes one build: where assets come from, where they go,
// and the processor chain and context they're run against.
type Config struct {
	SourceRoot string
	TargetRoot string
	Processors []processor.Processor
	Context    *value.Table
	CleanURLs  bool

	// WorkerLimit bounds batch concurrency; <= 0 defaults to
	// runtime.GOMAXPROCS(0).
	WorkerLimit int

	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// assetState tracks one asset's remaining processor queue through the
// scheduling algorithm.
type assetState struct {
	asset     *asset.Asset
	pending   []processor.Processor
	completed sets.Set[string]
}

func newAssetState(a *asset.Asset, processors []processor.Processor) *assetState {
	return &assetState{
		asset:     a,
		pending:   acceptingProcessors(processors, a.MediaType),
		completed: sets.New[string](),
	}
}

func acceptingProcessors(processors []processor.Processor, mt asset.MediaType) []processor.Processor {
	var out []processor.Processor
	for _, p := range processors {
		if p.Accepts(mt) {
			out = append(out, p)
		}
	}
	return out
}

// rebuildPending reconstructs the pending queue from the configured
// processor order, restricted to the asset's current media type and
// excluding processors that have already completed against it. Called
// whenever a processor invocation changes the asset's media type.
func (s *assetState) rebuildPending(processors []processor.Processor) {
	s.pending = s.pending[:0]
	for _, p := range processors {
		if s.completed.Has(p.Name()) {
			continue
		}
		if p.Accepts(s.asset.MediaType) {
			s.pending = append(s.pending, p)
		}
	}
}

// Run discovers cfg.SourceRoot, processes every asset to a fixed point,
// and writes the result under cfg.TargetRoot.
func Run(cfg Config) (Report, error) {
	start := time.Now()

	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := Report{BuildID: uuid.NewString()}
	logger.Info("build started", logfields.BuildID(report.BuildID), "source", cfg.SourceRoot)

	assets, parts, err := discover(cfg.SourceRoot, value.NewTable())
	if err != nil {
		return report, err
	}
	report.PartsCached = len(parts)

	sharedCtx := cfg.Context.Clone()
	for _, p := range parts {
		sharedCtx.Set(templatelang.PartKeyPrefix+p.path, value.Text(p.raw))
	}
	for _, a := range assets {
		a.Context = sharedCtx.Clone()
	}

	states := make([]*assetState, len(assets))
	for i, a := range assets {
		states[i] = newAssetState(a, cfg.Processors)
	}

	done, err := runToFixedPoint(cfg, recorder, logger, states, sharedCtx, &report)
	if err != nil {
		return report, err
	}

	if err := writeAll(cfg, done, &report); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	recorder.ObserveBuildDuration(report.Duration)
	logger.Info("build finished",
		logfields.BuildID(report.BuildID),
		"processor_runs", report.ProcessorRuns,
		"written", report.AssetsWritten,
		"write_skipped", report.AssetsWriteSkipped,
		"errored", len(report.AssetsErrored),
	)
	return report, nil
}

// runToFixedPoint runs batches until no asset has a non-empty pending
// queue, applying the cycle heuristic to break infinite deferral. It
// returns every asset's final state (including ones abandoned due to a
// cycle), in discovery order.
func runToFixedPoint(
	cfg Config,
	recorder metrics.Recorder,
	logger *slog.Logger,
	states []*assetState,
	sharedCtx *value.Table,
	report *Report,
) ([]*assetState, error) {
	batch := make([]*assetState, 0, len(states))
	for _, st := range states {
		if len(st.pending) > 0 {
			batch = append(batch, st)
			continue
		}
		// No configured processor accepts this asset's type: it's
		// already in its final form before the first batch even runs.
		publishAsset(sharedCtx, st.asset)
	}
	for _, st := range batch {
		st.asset.Context = sharedCtx.Clone().Merge(st.asset.Context)
	}

	for len(batch) > 0 {
		recorder.SetBatchSize(len(batch))

		var mu sync.Mutex
		var fatal error
		wg := newWorkerGroup(cfg.WorkerLimit)

		for _, st := range batch {
			st := st
			wg.Go(func() {
				for len(st.pending) > 0 {
					deferred, err := runStep(cfg, recorder, logger, st, report, &mu)
					if err != nil {
						mu.Lock()
						if fatal == nil {
							fatal = err
						}
						mu.Unlock()
						return
					}
					if deferred {
						return
					}
				}
			})
		}
		wg.Wait()

		if fatal != nil {
			return nil, fatal
		}

		var deferredThisBatch, finishedThisBatch []*assetState
		for _, st := range batch {
			if len(st.pending) == 0 {
				finishedThisBatch = append(finishedThisBatch, st)
			} else {
				deferredThisBatch = append(deferredThisBatch, st)
			}
		}

		var cycleParticipants []string
		var stillDeferred []*assetState
		for _, st := range deferredThisBatch {
			if st.asset.TotalDeferrals() > len(deferredThisBatch) {
				cycleParticipants = append(cycleParticipants, st.asset.SourcePath)
				st.asset.RecordError("orchestrator", "deferral cycle detected, abandoning retry")
				finishedThisBatch = append(finishedThisBatch, st)
				continue
			}
			stillDeferred = append(stillDeferred, st)
		}
		if len(cycleParticipants) > 0 {
			recorder.IncDeferralCycle()
			report.CycleParticipants = append(report.CycleParticipants, cycleParticipants...)
			logger.Warn("deferral cycle detected", "assets", strings.Join(cycleParticipants, ", "))
		}

		for _, st := range finishedThisBatch {
			publishAsset(sharedCtx, st.asset)
		}

		for _, st := range states {
			st.asset.Context = sharedCtx.Clone().Merge(st.asset.Context)
		}

		batch = stillDeferred
	}

	return states, nil
}

// runStep runs the processor at the head of st's pending queue exactly
// once, updating st in place. It returns deferred=true when the
// processor returned Deferred (the asset should wait for the next
// batch), and a non-nil error only for a Fatal processor failure.
func runStep(cfg Config, recorder metrics.Recorder, logger *slog.Logger, st *assetState, report *Report, mu *sync.Mutex) (deferred bool, err error) {
	head := st.pending[0]
	beforeType := st.asset.MediaType

	runStart := time.Now()
	result, runErr := head.Run(st.asset)
	recorder.ObserveProcessorDuration(head.Name(), time.Since(runStart))

	mu.Lock()
	report.ProcessorRuns++
	mu.Unlock()

	if runErr != nil {
		switch {
		case procerr.Is(runErr, procerr.KindDeferred):
			recorder.IncProcessorResult(head.Name(), metrics.ProcessorDeferred)
			st.asset.RecordDeferral(head.Name())
			return true, nil
		case procerr.Is(runErr, procerr.KindFatal):
			return false, runErr
		default:
			recorder.IncProcessorResult(head.Name(), metrics.ProcessorRecoverable)
			st.asset.RecordError(head.Name(), runErr.Error())
			st.completed.Add(head.Name())
			st.pending = st.pending[1:]
			return false, nil
		}
	}

	if result.Outcome == processor.Skipped {
		recorder.IncProcessorResult(head.Name(), metrics.ProcessorSkipped)
		if head.Name() == "minify_html" {
			logger.Warn("minifier failed, asset left unchanged", "processor", head.Name(), "asset", st.asset.SourcePath)
		}
	} else {
		recorder.IncProcessorResult(head.Name(), metrics.ProcessorSuccess)
	}
	st.completed.Add(head.Name())
	st.pending = st.pending[1:]

	if !st.asset.MediaType.Equal(beforeType) {
		st.rebuildPending(cfg.Processors)
	}
	return false, nil
}

// publishAsset records a's final metadata into sharedCtx's per-directory
// published-assets list, so `{~ for x in assets "dir"}` in a later batch
// can see it.
func publishAsset(sharedCtx *value.Table, a *asset.Asset) {
	meta := a.Context.Clone()
	meta.Set("path", value.Text(a.SourcePath))
	meta.Set("target_path", value.Text(a.TargetPath))

	dir := path.Dir(a.SourcePath)
	key := templatelang.AssetsKeyPrefix + dir
	existing, _ := sharedCtx.Get(key)
	items, _ := existing.AsList()
	sharedCtx.Set(key, value.ListOf(append(items, value.TableValue(meta))))
}

// writeAll writes every non-part asset's final content under
// cfg.TargetRoot, applying the clean_urls rewrite and skipping writes
// whose bytes already match the existing file.
func writeAll(cfg Config, states []*assetState, report *Report) error {
	var mu sync.Mutex
	var fatal error
	wg := newWorkerGroup(cfg.WorkerLimit)

	for _, st := range states {
		st := st
		if st.asset.IsPart {
			continue
		}
		wg.Go(func() {
			if err := writeOne(cfg, st.asset, report, &mu); err != nil {
				mu.Lock()
				if fatal == nil {
					fatal = err
				}
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	for _, st := range states {
		if len(st.asset.Errors) > 0 {
			mu.Lock()
			for _, e := range st.asset.Errors {
				report.AssetsErrored = append(report.AssetsErrored, AssetFailure{
					Path:      st.asset.SourcePath,
					Processor: e.Processor,
					Message:   e.Message,
				})
			}
			mu.Unlock()
		}
	}

	return fatal
}

func writeOne(cfg Config, a *asset.Asset, report *Report, mu *sync.Mutex) error {
	targetPath := a.TargetPath
	if cfg.CleanURLs && a.MediaType.Equal(asset.HTML) {
		targetPath = cleanURLTarget(targetPath)
	}

	fullPath := path.Join(cfg.TargetRoot, targetPath)
	newBytes := a.Content.AsBytes()

	if existing, err := os.ReadFile(fullPath); err == nil && bytesEqual(existing, newBytes) {
		mu.Lock()
		report.AssetsWriteSkipped++
		mu.Unlock()
		return nil
	}

	if err := os.MkdirAll(path.Dir(fullPath), 0o755); err != nil {
		return procerr.WrapFatal(err, "failed to create target directory for "+targetPath)
	}
	if err := os.WriteFile(fullPath, newBytes, 0o644); err != nil {
		return procerr.WrapFatal(err, "failed to write "+targetPath)
	}

	mu.Lock()
	report.AssetsWritten++
	mu.Unlock()
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cleanURLTarget rewrites a non-index.html target "dir/page.html" to
// "dir/page/index.html".
func cleanURLTarget(targetPath string) string {
	dir, base := path.Split(targetPath)
	if base == "index.html" {
		return targetPath
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	return path.Join(dir, stem, "index.html")
}
