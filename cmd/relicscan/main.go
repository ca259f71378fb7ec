// Command relicscan watches for the relic reward screen, reads the offered
// items and reports the most valuable pick.
//
// Usage: relicscan [-config relicscan.toml] [-once] [-json]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relicscan/internal/app"
	"relicscan/internal/capture"
	"relicscan/internal/catalog"
	"relicscan/internal/config"
	"relicscan/internal/metrics"
	"relicscan/internal/ocr"
	"relicscan/internal/ocr/tesseract"
	"relicscan/internal/pipeline"
	"relicscan/internal/resolve"
	"relicscan/internal/trigger"
	"relicscan/internal/version"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	flagConfig  = flag.String("config", "", "Path to a TOML config file")
	flagOnce    = flag.Bool("once", false, "Run a single detection cycle and exit")
	flagJSON    = flag.Bool("json", false, "Write results as JSON lines instead of a table")
	flagDebug   = flag.String("debug-image", "", "Write an annotated copy of each frame to this path")
	flagVersion = flag.Bool("version", false, "Print version and exit")
)

// catalogReloadInterval is how often the catalog files are polled.
const catalogReloadInterval = 2 * time.Second

func main() {
	flag.Parse()
	if *flagVersion {
		fmt.Printf("relicscan %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	_ = godotenv.Load()
	setupLogger(slog.LevelInfo)

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.LogLevel()
	setupLogger(level)
	if *flagDebug != "" {
		cfg.Debug.Image = *flagDebug
	}

	if err := run(cfg); err != nil {
		slog.Error("relicscan stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	})))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting relicscan", "version", version.Version, "workers", cfg.OCR.Workers)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics shutdown error", "error", err)
			}
		}()
	}

	pool := ocr.NewPool(cfg.OCR.Workers, tesseract.Factory(tesseract.Options{
		Language:    cfg.OCR.Language,
		Whitelist:   whitelist(cfg),
		MinScaleDim: cfg.OCR.MinScale,
		Border:      cfg.OCR.Border,
	}))
	defer pool.Close()

	// A missing catalog is not fatal: cycles are skipped until a reload
	// brings a valid one.
	p, err := buildPipeline(cfg, pool, m)
	if err != nil {
		slog.Error("catalog unavailable", "path", cfg.Catalog.Path, "error", err)
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	var overlay app.Overlay = &app.TableOverlay{Out: os.Stdout}
	if *flagJSON {
		overlay = &app.JSONOverlay{Out: os.Stdout}
	}

	runner := app.NewRunner(src, p, overlay, m, app.RunnerOptions{
		DedupeDistance: cfg.Dedupe.Distance,
		DedupeWindow:   cfg.Dedupe.Window,
		DebugImage:     cfg.Debug.Image,
	})

	if *flagOnce {
		_, err := runner.Cycle(ctx)
		return err
	}

	if reloader := app.NewCatalogReloader(catalogReloadInterval, cfg.Catalog.Path, cfg.Catalog.Prices); reloader != nil {
		reloader.OnChange(func() {
			next, err := buildPipeline(cfg, pool, m)
			if err != nil {
				slog.Warn("catalog reload failed, keeping previous", "error", err)
				return
			}
			runner.SetPipeline(next)
		})
		reloader.Start()
		defer reloader.Stop()
		slog.Info("watching catalog", "paths", reloader.Paths())
	}

	triggers, err := startTriggers(ctx, cfg)
	if err != nil {
		return err
	}

	slog.Debug("runner ready", "runner", runner.String())
	if err := runner.Run(ctx, triggers); err != nil {
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

// buildPipeline loads the catalog and price sheet and wires a pipeline.
func buildPipeline(cfg *config.Config, pool *ocr.Pool, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Prices != "" {
		var unknown []string
		cat, unknown, err = catalog.LoadPrices(cat, cfg.Catalog.Prices)
		if err != nil {
			return nil, err
		}
		if len(unknown) > 0 {
			slog.Warn("prices for items not in catalog", "count", len(unknown), "first", unknown[0])
		}
	}
	slog.Info("catalog loaded", "catalog", cat.String())

	th, err := cfg.ThemeOverride()
	if err != nil {
		return nil, err
	}
	opts := pipeline.Options{
		Workers:     cfg.OCR.Workers,
		SlotTimeout: cfg.OCR.Timeout,
		Threshold:   cfg.Resolve.Threshold,
		Theme:       th,
		Metrics:     m,
	}
	if cfg.Resolve.Category != "" {
		opts.Hint = &resolve.Hint{Category: cfg.Resolve.Category}
	}
	return pipeline.New(cat, pool, opts), nil
}

func newSource(cfg *config.Config) (capture.Source, error) {
	offset := image.Pt(cfg.Capture.OffsetX, cfg.Capture.OffsetY)
	if cfg.Capture.File != "" {
		slog.Info("replaying screenshot", "file", cfg.Capture.File)
		return &capture.FileSource{Path: cfg.Capture.File, Offset: offset}, nil
	}
	return capture.NewCommandSource(capture.CommandOptions{
		Tool:    cfg.Capture.Tool,
		Window:  cfg.Capture.Window,
		Command: cfg.Capture.Command,
		Offset:  offset,
	})
}

func startTriggers(ctx context.Context, cfg *config.Config) (<-chan struct{}, error) {
	var inputs []<-chan struct{}
	if cfg.Trigger.LogPath != "" {
		w := trigger.NewLogWatcher(cfg.Trigger.LogPath)
		w.Debounce = cfg.Trigger.Debounce
		w.Delay = cfg.Trigger.Delay
		if len(cfg.Trigger.Markers) > 0 {
			w.Markers = cfg.Trigger.Markers
		}
		ch, err := w.Start(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to watch game log: %w", err)
		}
		inputs = append(inputs, ch)
		slog.Info("watching game log", "path", cfg.Trigger.LogPath)
	}
	if cfg.Trigger.Signal {
		ch, err := (&trigger.Signal{}).Start(ctx)
		if err != nil {
			slog.Warn("hotkey signal unavailable", "error", err)
		} else {
			inputs = append(inputs, ch)
			slog.Info("hotkey armed", "signal", "SIGUSR1", "pid", os.Getpid())
		}
	}
	if len(inputs) == 0 {
		return nil, errors.New("no trigger configured: set trigger.log_path or trigger.signal")
	}
	return trigger.Merge(ctx, inputs...), nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("metrics server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return srv
}

func whitelist(cfg *config.Config) string {
	if chars, ok := cfg.OCRWhitelist(); ok {
		return chars
	}
	return tesseract.ItemNameChars
}
