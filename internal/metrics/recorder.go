// Package metrics defines the observability hooks the orchestrator calls
// as it runs a build, and a Prometheus-backed implementation.
//
// Adapted from the teacher's internal/metrics.Recorder/NoopRecorder split
// (per-stage duration histograms + outcome counters), retargeted from
// build-stage/repo-clone metrics to per-processor/per-batch metrics.
package metrics

import "time"

// AssetOutcome enumerates per-asset terminal states. The orchestrator
// does not record them: it never calls IncAssetOutcome.
type AssetOutcome string

const (
	AssetWritten      AssetOutcome = "written"
	AssetWriteSkipped AssetOutcome = "write_skipped"
	AssetErrored      AssetOutcome = "errored"
)

// Recorder defines the observability hooks for a build; the orchestrator
// calls every method except IncAssetOutcome. All methods must be safe to
// call on a nil-valued implementation's zero value when using NoopRecorder (so metrics wiring
// is strictly optional).
type Recorder interface {
	ObserveProcessorDuration(processor string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncProcessorResult(processor string, result ProcessorResultLabel)
	IncAssetOutcome(outcome AssetOutcome)
	SetBatchSize(n int)
	IncDeferralCycle()
}

// ProcessorResultLabel enumerates the per-invocation outcomes a processor
// run can have, for the stage_results-equivalent counter.
type ProcessorResultLabel string

const (
	ProcessorSuccess     ProcessorResultLabel = "success"
	ProcessorSkipped     ProcessorResultLabel = "skipped"
	ProcessorRecoverable ProcessorResultLabel = "recoverable"
	ProcessorDeferred    ProcessorResultLabel = "deferred"
)

// NoopRecorder is a Recorder that does nothing; it's the default when no
// metrics backend is configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveProcessorDuration(string, time.Duration)  {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}
func (NoopRecorder) IncProcessorResult(string, ProcessorResultLabel) {}
func (NoopRecorder) IncAssetOutcome(AssetOutcome)                    {}
func (NoopRecorder) SetBatchSize(int)                                {}
func (NoopRecorder) IncDeferralCycle()                               {}
