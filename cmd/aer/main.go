// Command aer compiles a source tree of Markdown, templates, styles,
// and scripts into a static site.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/aerstatic/aer/internal/config"
	"github.com/aerstatic/aer/internal/devserver"
	"github.com/aerstatic/aer/internal/events"
	"github.com/aerstatic/aer/internal/metrics"
	"github.com/aerstatic/aer/internal/orchestrator"
	"github.com/aerstatic/aer/internal/palette"
	"github.com/aerstatic/aer/internal/schedule"
	"github.com/aerstatic/aer/internal/store"
)

// CLI is the root kong command tree.
var CLI struct {
	Config  string `short:"c" help:"Path to the Aer.toml configuration file." default:"Aer.toml"`
	Profile string `short:"p" help:"Named profile to merge over the default profile."`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Build struct{} `cmd:"" help:"Build the site once and exit."`

	Serve struct {
		Addr    string `help:"Address the dev server listens on." default:"localhost:8080"`
		History string `help:"Path to the build-history SQLite database." default:"aer-history.db"`
	} `cmd:"" help:"Run the dev server: watch, rebuild, and serve with live reload."`

	Palette struct{} `cmd:"" help:"Interactively pick named colors and write them into Aer.toml."`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Name("aer"), kong.Description("A static-site asset compiler."))

	level := slog.LevelInfo
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild(logger)
	case "serve":
		err = runServe(logger)
	case "palette":
		err = runPalette(logger)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		logger.Error("aer failed", "error", err)
		os.Exit(1)
	}
}

func loadProfile(logger *slog.Logger) (*config.Profile, error) {
	profile, err := config.Load(CLI.Config, CLI.Profile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return profile, nil
}

func runBuild(logger *slog.Logger) error {
	profile, err := loadProfile(logger)
	if err != nil {
		return err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	report, err := buildOnce(profile, recorder, logger)
	if err != nil {
		return err
	}

	logger.Info("build complete",
		"processor_runs", report.ProcessorRuns,
		"written", report.AssetsWritten,
		"write_skipped", report.AssetsWriteSkipped,
		"errored", len(report.AssetsErrored),
	)
	if report.Failed() {
		return fmt.Errorf("build completed with %d errored asset(s)", len(report.AssetsErrored))
	}
	return nil
}

func buildOnce(profile *config.Profile, recorder metrics.Recorder, logger *slog.Logger) (orchestrator.Report, error) {
	procs, err := profile.BuildProcessors()
	if err != nil {
		return orchestrator.Report{}, fmt.Errorf("build processor pipeline: %w", err)
	}

	return orchestrator.Run(orchestrator.Config{
		SourceRoot: profile.Paths.Source,
		TargetRoot: profile.Paths.Target,
		Processors: procs,
		Context:    profile.Context,
		CleanURLs:  profile.Paths.CleanURLs,
		Metrics:    recorder,
		Logger:     logger,
	})
}

func runServe(logger *slog.Logger) error {
	profile, err := loadProfile(logger)
	if err != nil {
		return err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	hist, err := store.Open(CLI.Serve.History)
	if err != nil {
		return fmt.Errorf("open build history: %w", err)
	}
	defer hist.Close()

	publisher, err := events.Connect(events.Config{URL: profile.Events.URL, Subject: profile.Events.Subject})
	if err != nil {
		return fmt.Errorf("connect events: %w", err)
	}
	defer publisher.Close()

	rebuild := func(ctx context.Context) (orchestrator.Report, error) {
		report, err := buildOnce(profile, recorder, logger)
		if err == nil {
			_ = publisher.Publish(report)
		}
		return report, err
	}

	srv := devserver.New(devserver.Config{
		Addr:       CLI.Serve.Addr,
		TargetRoot: profile.Paths.Target,
		Rebuild:    rebuild,
		Store:      hist,
		Registry:   registry,
		Logger:     logger,
	})

	if _, err := rebuild(context.Background()); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	watcher, err := devserver.NewSourceWatcher(profile.Paths.Source, devserver.WatcherConfig{}, srv.RebuildAndBroadcast, logger)
	if err != nil {
		return fmt.Errorf("start source watcher: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched, err := schedule.New(logger)
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if profile.Schedule.Every != "" {
		interval, perr := time.ParseDuration(profile.Schedule.Every)
		if perr != nil {
			return fmt.Errorf("parse schedule.every %q: %w", profile.Schedule.Every, perr)
		}
		if err := sched.EveryRebuild(interval, func() error {
			_, err := rebuild(ctx)
			return err
		}); err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 2)
	go func() { errCh <- watcher.Run(ctx) }()
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	}
}

func runPalette(logger *slog.Logger) error {
	model := palette.New()
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("palette: %w", err)
	}

	result, ok := final.(palette.Model)
	if !ok {
		return fmt.Errorf("palette: unexpected program result")
	}

	swatches := map[string]string{}
	for _, s := range result.Swatches() {
		swatches[s.Name] = s.Hex
	}
	if len(swatches) == 0 {
		logger.Info("no colors selected, Aer.toml left unchanged")
		return nil
	}

	if err := config.WritePalette(CLI.Config, swatches); err != nil {
		return fmt.Errorf("write palette: %w", err)
	}
	logger.Info("palette written", "colors", len(swatches), "config", CLI.Config)
	return nil
}
