package check

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/meenmo/calibcheck/calc"
	"github.com/meenmo/calibcheck/calc/standard"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/curve"
)

const tracerName = "github.com/meenmo/calibcheck/check"

// Console messages around a run.
const (
	MsgStart    = "Starting curve calibration: configuration and data loaded from files"
	MsgComputed = "Computed PV for all instruments used in the calibration set"
	MsgPassed   = "Checked PV for all instruments used in the calibration set are near to zero"
)

// Pipeline loads the configuration, calibrates the curve group and prices every
// calibration trade.
type Pipeline struct {
	cfg     Config
	loader  Loader
	orch    *calc.Orchestrator
	pricing calc.PricingRules
	logger  *zap.Logger
	tracer  trace.Tracer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger; nil discards logs.
func WithLogger(l *zap.Logger) PipelineOption { return func(p *Pipeline) { p.logger = l } }

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) PipelineOption { return func(p *Pipeline) { p.tracer = t } }

// WithPricingRules replaces standard.PricingRules.
func WithPricingRules(r calc.PricingRules) PipelineOption { return func(p *Pipeline) { p.pricing = r } }

// NewPipeline creates a pipeline computing on orch, which the caller owns.
func NewPipeline(cfg Config, loader Loader, orch *calc.Orchestrator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{cfg: cfg, loader: loader, orch: orch, pricing: standard.PricingRules()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	return p
}

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() Config { return p.cfg }

// Threads is the number of calculation threads.
func (p *Pipeline) Threads() int { return p.orch.Threads() }

// Evaluation is one full pass: the trades and their positionally aligned results.
type Evaluation struct {
	RunID    string
	Group    curve.GroupDefinition
	Snapshot *marketdata.Snapshot
	Trades   []swap.Trade
	Results  *calc.Results
}

// Evaluate runs load, calibration and pricing once. Every error it returns is
// structural; numerical problems are left in the results.
func (p *Pipeline) Evaluate(ctx context.Context) (*Evaluation, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	ctx, span := p.tracer.Start(ctx, "calibcheck.evaluate", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("curve_group", p.cfg.CurveGroup),
	))
	defer span.End()

	ev, err := p.evaluate(ctx, runID, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("evaluation failed", zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("trades", len(ev.Trades)))
	return ev, nil
}

func (p *Pipeline) evaluate(ctx context.Context, runID string, log *zap.Logger) (*Evaluation, error) {
	start := time.Now()
	res := p.cfg.Resources

	_, load := p.tracer.Start(ctx, "calibcheck.load")
	defs, err := p.loader.CurveGroups(res.Groups, res.Settings, res.Calibrations)
	if err != nil {
		load.End()
		return nil, fmt.Errorf("load curve groups: %w", err)
	}
	group, err := ResolveGroup(defs, p.cfg.CurveGroup)
	if err != nil {
		load.End()
		return nil, err
	}
	quotes, err := p.loader.Quotes(p.cfg.ValuationDate, res.Quotes)
	load.End()
	if err != nil {
		return nil, fmt.Errorf("load quotes: %w", err)
	}
	snap := marketdata.NewBuilder(p.cfg.ValuationDate).AddAll(quotes).Build()

	trades, err := ExtractTrades(group, snap)
	if err != nil {
		return nil, fmt.Errorf("extract trades: %w", err)
	}
	req := BuildRequest(trades, p.cfg.CurveGroup, group, p.pricing)
	log.Debug("request built",
		zap.Int("quotes", snap.Len()),
		zap.Int("curves", len(group.Curves)),
		zap.Int("trades", len(trades)))

	cctx, compute := p.tracer.Start(ctx, "calibcheck.compute")
	results, err := p.orch.ComputeRequest(cctx, req, snap)
	compute.End()
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	log.Info("evaluation finished",
		zap.Int("rows", results.RowCount()),
		zap.Duration("elapsed", time.Since(start)))

	return &Evaluation{RunID: runID, Group: group, Snapshot: snap, Trades: trades, Results: results}, nil
}

// ValidateOptions derives the validation options from the configuration.
func (p *Pipeline) ValidateOptions() ValidateOptions {
	return ValidateOptions{Tolerance: p.cfg.TolerancePV, StrictMultiCurrency: p.cfg.StrictMultiCurrency}
}

// Run evaluates once, validates the present values and prints the per-trade lines to w.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (Report, error) {
	fmt.Fprintln(w, MsgStart)
	ev, err := p.Evaluate(ctx)
	if err != nil {
		return Report{}, err
	}
	fmt.Fprintln(w, MsgComputed)

	_, span := p.tracer.Start(ctx, "calibcheck.validate")
	defer span.End()
	report, err := Validate(ev.Trades, ev.Results.Column(0), p.ValidateOptions())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}
	if _, err := report.WriteTo(w); err != nil {
		return report, err
	}
	if !report.Passed() {
		p.logger.Warn("PV check failed",
			zap.String("run_id", ev.RunID),
			zap.Int("violations", len(report.Violations())),
			zap.Int("failures", len(report.Failures())),
			zap.Error(report.Err()))
	}
	return report, nil
}

// Summary is the closing console message for report.
func Summary(report Report) string {
	if report.Passed() {
		return MsgPassed
	}
	return fmt.Sprintf("PV check failed: %d instrument(s) outside tolerance, %d computation failure(s)",
		len(report.Violations()), len(report.Failures()))
}
