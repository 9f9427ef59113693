// Command calibcheck calibrates a multi-curve group from CSV configuration and market
// quotes, prices every calibration trade on the calibrated curves and checks that each
// present value is zero within tolerance.
//
// Exit codes: 0 when every PV passes, 1 when the check fails, 2 on configuration or
// other structural errors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/meenmo/calibcheck/calc"
	"github.com/meenmo/calibcheck/calc/standard"
	"github.com/meenmo/calibcheck/check"
	"github.com/meenmo/calibcheck/config"
	"github.com/meenmo/calibcheck/loader"
	"github.com/meenmo/calibcheck/logging"
)

const (
	exitOK         = 0
	exitCheckFails = 1
	exitStructural = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	configPath  string
	perf        bool
	trace       bool
	metricsFile string
	verbose     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f flags
	code := exitOK

	root := &cobra.Command{
		Use:           "calibcheck",
		Short:         "Check that calibrated curves reprice their calibration instruments",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code = execute(cmd.Context(), f, stdout, stderr)
			return nil
		},
	}
	root.Flags().StringVar(&f.configPath, "config", "", "YAML configuration file (defaults are built in)")
	root.Flags().BoolVarP(&f.perf, "perf", "p", false, "run the performance harness after the check")
	root.Flags().BoolVar(&f.trace, "trace", false, "print pipeline spans to stderr")
	root.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	root.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "calibcheck: %v\n", err)
		return exitStructural
	}
	return code
}

func execute(ctx context.Context, f flags, stdout, stderr io.Writer) int {
	fileCfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "calibcheck: %v\n", err)
		return exitStructural
	}
	logCfg := fileCfg.Logging
	if f.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "calibcheck: %v\n", err)
		return exitStructural
	}
	defer func() { _ = logger.Sync() }()

	cfg := fileCfg.Check()
	var popts []check.PipelineOption
	popts = append(popts, check.WithLogger(logger))
	if f.trace {
		tp, err := newTracerProvider(stderr)
		if err != nil {
			logger.Error("tracing setup failed", zap.Error(err))
			return exitStructural
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("tracer shutdown", zap.Error(err))
			}
		}()
		popts = append(popts, check.WithTracer(tp.Tracer("calibcheck")))
	}

	orch := calc.NewOrchestrator(
		calc.WithThreads(cfg.Threads),
		calc.WithTimeout(cfg.Timeout),
		calc.WithLogger(logger),
		calc.WithMarketDataFactory(standard.MarketDataFactory(cfg.Solver)),
	)
	defer orch.Close()
	pipeline := check.NewPipeline(cfg, loader.New(logger), orch, popts...)

	registry := prometheus.NewRegistry()
	metrics := check.NewMetrics(registry)
	if f.metricsFile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(f.metricsFile, registry); err != nil {
				logger.Error("writing metrics", zap.String("file", f.metricsFile), zap.Error(err))
			}
		}()
	}

	report, err := pipeline.Run(ctx, stdout)
	if err != nil {
		logger.Error("calibration check aborted", zap.Error(err))
		fmt.Fprintf(stderr, "calibcheck: %v\n", err)
		return exitStructural
	}

	if f.perf {
		h := check.Harness{
			Tests:   cfg.Performance.Tests,
			Reps:    cfg.Performance.Reps,
			Out:     stdout,
			Metrics: metrics,
			Logger:  logger,
		}
		if _, err := h.Run(ctx, pipeline); err != nil {
			logger.Error("performance harness aborted", zap.Error(err))
			return exitStructural
		}
	}

	fmt.Fprintln(stdout, check.Summary(report))
	if !report.Passed() {
		return exitCheckFails
	}
	return exitOK
}

func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	res := resource.NewSchemaless(attribute.String("service.name", "calibcheck"))
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
	), nil
}
