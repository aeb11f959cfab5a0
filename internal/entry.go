// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/starford/imagesim/internal/apperr"
	"github.com/starford/imagesim/internal/cache"
	"github.com/starford/imagesim/internal/checksum"
	"github.com/starford/imagesim/internal/matrix"
	"github.com/starford/imagesim/internal/report"
	"github.com/starford/imagesim/internal/sampler"
	"github.com/starford/imagesim/internal/scheduler"
	"github.com/starford/imagesim/internal/storage"
)

// Run compares the configured images and writes the similarity report.
// It returns apperr.ErrNoImages when no paths were given.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = newLogger(app.logOutput, cfg.App)
		slog.SetDefault(logger)
	}

	if len(app.paths) == 0 {
		return apperr.ErrNoImages
	}

	started := time.Now()
	logger.Info("Started", slog.Int("images", len(app.paths)), slog.Time("at", started))

	paths := slices.Clone(app.paths)
	slices.Sort(paths)
	logger.Info("Sorted", slog.Duration("elapsed", time.Since(started)))

	smp, err := sampler.New(
		sampler.WithMaxSize(cfg.Sampler.MaxSize),
		sampler.WithFilter(cfg.Sampler.Filter),
		sampler.WithAutoOrientation(cfg.Sampler.AutoOrientation),
	)
	if err != nil {
		return fmt.Errorf("init sampler: %w", err)
	}

	profiles := cache.New(smp,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithJanitor(cfg.Cache.Janitor),
	)
	defer profiles.Close()

	metas := storage.NewMetaCache()

	schedOpts := []scheduler.Option{
		scheduler.WithConcurrency(cfg.Scheduler.Workers()),
		scheduler.WithMode(cfg.Scheduler.Mode),
		scheduler.WithLogger(logger),
		scheduler.WithNamer(metas.Name),
	}
	var bar *progressbar.ProgressBar
	if cfg.App.Progress {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(app.logOutput),
			progressbar.OptionSetDescription("comparing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		schedOpts = append(schedOpts, scheduler.WithProgress(bar))
	}

	sched := scheduler.New(profiles, cfg.Similarity.BuildMetric(), schedOpts...)

	logger.Info("Comparing",
		slog.String("mode", cfg.Scheduler.Mode),
		slog.Int("concurrency", cfg.Scheduler.Workers()),
		slog.String("metric", cfg.Similarity.Metric))

	results, err := sched.Run(ctx, paths)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		logger.Error("Comparison failed", slog.String("error", err.Error()))
		return fmt.Errorf("compare images: %w", err)
	}

	cs := profiles.Stats()
	st := sched.Stats()
	logger.Info("Calculated",
		slog.Duration("elapsed", time.Since(started)),
		slog.Int64("comparisons", st.Comparisons),
		slog.Int64("max_in_flight", st.MaxInFlight),
		slog.Int64("decodes", cs.Loads),
		slog.Int64("cache_hits", cs.Hits),
		slog.Int64("cache_evictions", cs.Evictions),
		slog.Int64("stat_calls", metas.Stats()))

	rep, err := report.Build(paths, results, metas.Name)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if err := writeReport(cfg.Report.Path, rep); err != nil {
		return err
	}
	logger.Info("Saved",
		slog.String("path", cfg.Report.Path),
		slog.Int("sections", len(rep.Sections)),
		slog.Int("peaks", rep.PeakCount()),
		slog.Duration("elapsed", time.Since(started)))

	if cfg.Export.Enabled() {
		if err := exportMatrix(cfg.Export, paths, results, metas); err != nil {
			return err
		}
		logger.Info("Exported matrix", slog.String("path", cfg.Export.SQLitePath))
	}

	return nil
}

func newLogger(w io.Writer, cfg ApplicationConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// writeReport replaces the report file in one atomic step.
func writeReport(path string, rep *report.Report) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return apperr.Write(path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Write(path, err)
	}
	out, err := storage.NewFS(dir)
	if err != nil {
		return apperr.Write(path, err)
	}
	if err := saveReport(out, filepath.Base(abs), rep); err != nil {
		return apperr.Write(path, err)
	}
	return nil
}

func saveReport(sink storage.Sink, name string, rep *report.Report) error {
	return sink.Write(name, rep.Bytes())
}

func exportMatrix(cfg ExportConfig, paths []string, results *scheduler.Results, metas *storage.MetaCache) error {
	images := make([]matrix.Image, len(paths))
	for i, p := range paths {
		img := matrix.Image{Index: i, Path: p, Name: metas.Name(p)}
		if meta, err := metas.Lookup(p); err == nil {
			img.Size = meta.Size
		}
		if cfg.Checksums {
			sum, err := checksum.File(p)
			if err != nil {
				return fmt.Errorf("export matrix: %w", err)
			}
			img.Checksum = sum
		}
		images[i] = img
	}

	db, err := matrix.Create(cfg.SQLitePath)
	if err != nil {
		return apperr.Write(cfg.SQLitePath, err)
	}
	defer db.Close()

	if err := db.Write(images, results); err != nil {
		return apperr.Write(cfg.SQLitePath, err)
	}
	return nil
}
