package check

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Trial is one timed batch of evaluations.
type Trial struct {
	Elapsed time.Duration
	// Checksum sums the row and column counts of every evaluation in the trial.
	Checksum int
}

// Metrics are the harness timings exported to Prometheus.
type Metrics struct {
	TrialSeconds prometheus.Histogram
	CycleSeconds prometheus.Histogram
	Cycles       prometheus.Counter
}

// NewMetrics registers the harness collectors with reg; a nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TrialSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calibcheck",
			Name:      "trial_duration_seconds",
			Help:      "Wall time of one harness trial.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		CycleSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calibcheck",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one config load, calibration and PV pass.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: "calibcheck",
			Name:      "cycles_total",
			Help:      "Number of completed evaluation cycles.",
		}),
	}
}

// Harness times repeated full evaluations.
type Harness struct {
	Tests   int
	Reps    int
	Out     io.Writer
	Metrics *Metrics
	Logger  *zap.Logger
}

// Run performs Reps trials of Tests evaluations each and prints one line per trial.
func (h Harness) Run(ctx context.Context, p *Pipeline) ([]Trial, error) {
	if h.Tests < 1 || h.Reps < 1 {
		return nil, fmt.Errorf("check: harness needs positive tests and reps, got %d and %d", h.Tests, h.Reps)
	}
	out := h.Out
	if out == nil {
		out = io.Discard
	}
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	unit := "thread"
	if p.Threads() != 1 {
		unit = "threads"
	}
	trials := make([]Trial, 0, h.Reps)
	for rep := 0; rep < h.Reps; rep++ {
		start := time.Now()
		checksum := 0
		for i := 0; i < h.Tests; i++ {
			cycle := time.Now()
			ev, err := p.Evaluate(ctx)
			if err != nil {
				return trials, err
			}
			checksum += ev.Results.ColumnCount() + ev.Results.RowCount()
			if h.Metrics != nil {
				h.Metrics.CycleSeconds.Observe(time.Since(cycle).Seconds())
				h.Metrics.Cycles.Inc()
			}
		}
		elapsed := time.Since(start)
		if h.Metrics != nil {
			h.Metrics.TrialSeconds.Observe(elapsed.Seconds())
		}
		fmt.Fprintf(out, "Performance: %d config load + curve calibrations + pv check (%d %s) in %d ms\n",
			h.Tests, p.Threads(), unit, elapsed.Milliseconds())
		logger.Debug("harness trial", zap.Int("rep", rep), zap.Duration("elapsed", elapsed), zap.Int("checksum", checksum))
		trials = append(trials, Trial{Elapsed: elapsed, Checksum: checksum})
	}
	return trials, nil
}
