// Command gametest runs the demo scenario suites and exits with the suite
// verdict: 0 when every required test passed, 1 otherwise and 2 when the
// configuration or the registered tests are invalid.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/comalice/gametestx"
	"github.com/comalice/gametestx/filter"
	"github.com/comalice/gametestx/internal/config"
	"github.com/comalice/gametestx/internal/demo"
	"github.com/comalice/gametestx/internal/metrics"
	"github.com/comalice/gametestx/internal/report"
	"github.com/comalice/gametestx/internal/tracing"
	"github.com/comalice/gametestx/realtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const exitUsage = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	tags       string
	filter     string
	list       bool
	jsonPath   string
	yamlPath   string
	dotPath    string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("gametest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.tags, "tags", "", "comma separated suite tags to run (default from config)")
	fs.StringVar(&o.filter, "filter", "", "expression further restricting the selected tests")
	fs.BoolVar(&o.list, "list", false, "list the selected tests and exit")
	fs.StringVar(&o.jsonPath, "json", "", "write the report as JSON to this file")
	fs.StringVar(&o.yamlPath, "yaml", "", "write the report as YAML to this file")
	fs.StringVar(&o.dotPath, "dot", "", "write a Graphviz view of the run to this file")
	return o, fs.Parse(args)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return exitUsage
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "gametest: %v\n", err)
		return exitUsage
	}
	applyFlags(cfg, opts)

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "gametest: %v\n", err)
		return exitUsage
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "gametest", cfg.Tracing.Endpoint, cfg.Tracing.Insecure)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		return exitUsage
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	reg := gametestx.NewRegistry()
	if err := demo.Register(reg, demo.NewWorld()); err != nil {
		logger.Error("invalid test registrations", "error", err)
		return exitUsage
	}
	sel, err := buildFilter(cfg.Run)
	if err != nil {
		logger.Error("invalid filter", "error", err)
		return exitUsage
	}

	if opts.list {
		for _, d := range reg.SelectSuite(sel) {
			fmt.Fprintf(stdout, "%s\t%s\n", d.ID(), strings.Join(d.Tags, ","))
		}
		return gametestx.ExitSuccess
	}

	writers, err := reportWriters(cfg.Report)
	if err != nil {
		logger.Error("invalid report output", "error", err)
		return exitUsage
	}

	rep, err := runSuite(ctx, cfg, reg, sel, logger)
	if rep == nil {
		logger.Error("suite did not run", "error", err)
		return exitUsage
	}
	if err != nil {
		logger.Warn("suite interrupted", "error", err)
	}
	if err := report.WriteAll(rep, writers...); err != nil {
		logger.Error("failed to write report", "error", err)
	}
	if err := report.WriteSummary(stdout, rep); err != nil {
		logger.Error("failed to write summary", "error", err)
	}
	return rep.ExitCode
}

// runSuite runs the selected tests while serving metrics and streaming
// finished results to the log.
func runSuite(ctx context.Context, cfg *config.Config, reg *gametestx.Registry, sel gametestx.Filter, logger *slog.Logger) (*gametestx.Report, error) {
	results := make(chan gametestx.Result, 64)
	publisher := report.NewChannelPublisher(results)

	sched := gametestx.NewScheduler(reg,
		gametestx.WithLogger(logger),
		gametestx.WithStructures(catalog(cfg)),
		gametestx.WithGrid(cfg.Sandbox.Grid()),
		gametestx.WithMaxConcurrent(cfg.Run.MaxConcurrent),
		gametestx.WithMaxRunTicks(uint64(cfg.Run.MaxRunTicks)),
		gametestx.WithMetrics(metrics.Recorder{}),
		gametestx.WithPublisher(publisher),
	)

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	g, gCtx := errgroup.WithContext(srvCtx)

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(gCtx, cfg.Metrics.Addr, logger)
		})
	}

	g.Go(func() error {
		for res := range results {
			logger.Debug("result published", "test", res.ID, "state", res.State.String(), "ticks", res.ElapsedTicks)
		}
		return nil
	})

	var (
		rep    *gametestx.Report
		runErr error
	)
	g.Go(func() error {
		defer stopServer()
		defer publisher.Close()
		if cfg.Clock.TickRate > 0 {
			rt := realtime.NewRuntime(sched, realtime.Config{TickRate: cfg.Clock.TickRate, Logger: logger})
			rep, runErr = rt.Run(ctx, sel)
		} else {
			rep, runErr = sched.RunSuite(ctx, sel)
		}
		if dropped := publisher.Dropped(); dropped > 0 {
			logger.Warn("results dropped by publisher", "count", dropped)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
	return rep, runErr
}

func applyFlags(cfg *config.Config, o options) {
	if o.tags != "" {
		cfg.Run.Tags = strings.Split(o.tags, ",")
	}
	if o.filter != "" {
		cfg.Run.Filter = o.filter
	}
	if o.jsonPath != "" {
		cfg.Report.JSON = o.jsonPath
	}
	if o.yamlPath != "" {
		cfg.Report.YAML = o.yamlPath
	}
	if o.dotPath != "" {
		cfg.Report.DOT = o.dotPath
	}
}

func buildFilter(rc config.RunConfig) (gametestx.Filter, error) {
	sel := gametestx.Tags(rc.Tags...)
	if rc.Filter == "" {
		return sel, nil
	}
	expr, err := filter.Compile(rc.Filter)
	if err != nil {
		return nil, err
	}
	return filter.And(sel, expr), nil
}

// catalog resolves configured structures first, then the demo ones.
func catalog(cfg *config.Config) gametestx.StructureCatalog {
	if cfg.Structures == nil {
		cfg.Structures = make(map[string]gametestx.Size)
	}
	for name, size := range demo.Structures {
		if _, ok := cfg.Structures[name]; !ok {
			cfg.Structures[name] = size
		}
	}
	return cfg.Catalog()
}

func reportWriters(rc config.ReportConfig) ([]report.Writer, error) {
	var writers []report.Writer
	if rc.JSON != "" {
		w, err := report.NewJSONWriter(rc.JSON)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	if rc.YAML != "" {
		w, err := report.NewYAMLWriter(rc.YAML)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	if rc.DOT != "" {
		w, err := report.NewDOTWriter(rc.DOT)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, nil
}

func newLogger(lc config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown error", "error", err)
		}
	}()

	logger.Info("metrics server started", "addr", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
