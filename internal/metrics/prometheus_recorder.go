package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	processorDuration *prom.HistogramVec
	buildDuration     prom.Histogram
	processorResults  *prom.CounterVec
	assetOutcomes     *prom.CounterVec
	batchSize         prom.Gauge
	deferralCycles    prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// against reg (a fresh registry is created when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.processorDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "aer",
			Name:      "processor_duration_seconds",
			Help:      "Duration of individual processor invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"processor"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "aer",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.processorResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "aer",
			Name:      "processor_results_total",
			Help:      "Processor invocation results by outcome",
		}, []string{"processor", "result"})
		pr.assetOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "aer",
			Name:      "asset_outcomes_total",
			Help:      "Terminal asset outcomes for a build",
		}, []string{"outcome"})
		pr.batchSize = prom.NewGauge(prom.GaugeOpts{
			Namespace: "aer",
			Name:      "batch_size",
			Help:      "Number of assets in the most recently started batch",
		})
		pr.deferralCycles = prom.NewCounter(prom.CounterOpts{
			Namespace: "aer",
			Name:      "deferral_cycles_total",
			Help:      "Count of deferral cycles detected and broken",
		})
		reg.MustRegister(pr.processorDuration, pr.buildDuration, pr.processorResults, pr.assetOutcomes, pr.batchSize, pr.deferralCycles)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveProcessorDuration(processor string, d time.Duration) {
	if p == nil || p.processorDuration == nil {
		return
	}
	p.processorDuration.WithLabelValues(processor).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProcessorResult(processor string, result ProcessorResultLabel) {
	if p == nil || p.processorResults == nil {
		return
	}
	p.processorResults.WithLabelValues(processor, string(result)).Inc()
}

func (p *PrometheusRecorder) IncAssetOutcome(outcome AssetOutcome) {
	if p == nil || p.assetOutcomes == nil {
		return
	}
	p.assetOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetBatchSize(n int) {
	if p == nil || p.batchSize == nil {
		return
	}
	p.batchSize.Set(float64(n))
}

func (p *PrometheusRecorder) IncDeferralCycle() {
	if p == nil || p.deferralCycles == nil {
		return
	}
	p.deferralCycles.Inc()
}
