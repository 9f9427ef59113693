package calc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
)

type options struct {
	threads int
	timeout time.Duration
	logger  *zap.Logger
	factory MarketDataFactory
	links   LinkResolver
	engine  func(*Runner) Engine
}

// Option configures an Orchestrator.
type Option func(*options)

// WithThreads sets the runner size. The default is 1.
func WithThreads(n int) Option { return func(o *options) { o.threads = n } }

// WithTimeout bounds each Compute call. Zero means no bound.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithLogger sets the logger of the orchestrator and the default engine.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithMarketDataFactory sets how the default engine builds rates.
func WithMarketDataFactory(f MarketDataFactory) Option { return func(o *options) { o.factory = f } }

// WithLinkResolver sets how the default engine resolves linked trades. The default is NoLinks.
func WithLinkResolver(r LinkResolver) Option { return func(o *options) { o.links = r } }

// WithEngine replaces the default engine; build receives the orchestrator's runner.
func WithEngine(build func(*Runner) Engine) Option { return func(o *options) { o.engine = build } }

// Orchestrator owns one Runner and one Engine for its lifetime.
type Orchestrator struct {
	runner  *Runner
	engine  Engine
	timeout time.Duration
	logger  *zap.Logger
}

// NewOrchestrator creates the runner and engine. Callers must Close it.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := options{threads: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	runner := NewRunner(o.threads)
	var engine Engine
	if o.engine != nil {
		engine = o.engine(runner)
	} else {
		engine = NewDefaultEngine(runner, o.factory, o.links, o.logger)
	}
	return &Orchestrator{runner: runner, engine: engine, timeout: o.timeout, logger: o.logger}
}

// Threads is the size of the underlying runner.
func (o *Orchestrator) Threads() int { return o.runner.Size() }

// Compute blocks until every cell of the trades x columns matrix is populated.
func (o *Orchestrator) Compute(ctx context.Context, trades []swap.Trade, columns []Column, rules *CalculationRules, snap *marketdata.Snapshot) (*Results, error) {
	if o.runner.Closed() {
		return nil, ErrRunnerClosed
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	start := time.Now()
	results, err := o.engine.Calculate(ctx, trades, columns, rules, snap)
	if err != nil {
		o.logger.Debug("compute aborted", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	o.logger.Debug("compute finished",
		zap.Int("rows", results.RowCount()),
		zap.Int("columns", results.ColumnCount()),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

// ComputeRequest is Compute for a prepared Request.
func (o *Orchestrator) ComputeRequest(ctx context.Context, req Request, snap *marketdata.Snapshot) (*Results, error) {
	return o.Compute(ctx, req.Trades, req.Columns, req.Rules, snap)
}

// Close stops accepting work and waits for in-flight tasks.
func (o *Orchestrator) Close() { o.runner.Close() }
