package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"atmodensity/internal/atmosphere"
	"atmodensity/internal/charts"
	"atmodensity/internal/config"
	"atmodensity/internal/datasets"
	"atmodensity/internal/logger"
	"atmodensity/internal/models"
	"atmodensity/internal/observability"
	"atmodensity/internal/pipeline"
	"atmodensity/internal/reports"
	"atmodensity/internal/solar"
	"atmodensity/internal/storage"
)

func main() {
	planPath := flag.String("plan", "", "YAML run plan, overrides RUN_PLAN")
	renderPath := flag.String("render", "", "re-render an existing .nc dataset into IMG_DIR and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	if *planPath != "" {
		cfg.PlanFile = *planPath
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	var code int
	if *renderPath != "" {
		code = renderDataset(cfg, *renderPath)
	} else {
		code = runBatch(ctx, cfg)
	}
	stop()
	os.Exit(code)
}

// runBatch wires the model client, writers, renderer and optional publisher
// and returns the process exit code: 0 when at least one year succeeded.
func runBatch(ctx context.Context, cfg *config.Config) int {
	log := logger.GetGlobalLogger().WithComponent("main")

	batch, err := cfg.Batch()
	if err != nil {
		log.Error("Invalid batch configuration", err)
		return 2
	}

	writer, extras, err := datasets.FromFormats(cfg.DatasetFormats)
	if err != nil {
		log.Error("Invalid dataset formats", err)
		return 2
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	opts := []pipeline.StepOption{
		pipeline.WithExtraWriters(extras...),
		pipeline.WithSubsolarMarker(batch.MarkSubsolar),
		pipeline.WithClock(clock),
		pipeline.WithMetrics(metrics),
	}

	client, err := storage.NewStorageClient(ctx, storage.DeploymentMode(cfg.PublishMode), cfg)
	switch {
	case errors.Is(err, storage.ErrPublishingDisabled):
	case err != nil:
		log.Error("Failed to initialize artifact storage", err, map[string]interface{}{"mode": cfg.PublishMode})
		return 1
	default:
		publisher := storage.NewPublisher(client, clock.Now())
		defer publisher.Close()
		opts = append(opts, pipeline.WithPublisher(publisher))
		log.Info("Publishing artifacts", map[string]interface{}{
			"mode":   cfg.PublishMode,
			"folder": publisher.Folder(),
		})
	}

	model := atmosphere.NewClient(cfg.ModelURL, cfg.ModelTimeout)
	step := pipeline.NewStep(model, writer, charts.NewDensityRenderer(), opts...)

	var reporter pipeline.Reporter
	if cfg.ReportDir != "" {
		reporter = reports.NewHTMLReporter(cfg.ReportDir)
	}

	log.Info("Starting density batch", map[string]interface{}{
		"environment": cfg.Environment,
		"model_url":   cfg.ModelURL,
		"years":       batch.Years,
		"img_dir":     batch.ImgDir,
		"nc_dir":      batch.NCDir,
	})
	report := pipeline.NewRunner(step, reporter).RunBatch(ctx, batch)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error("Failed to export metrics", err)
		}
	}

	if !report.AnySuccess() {
		log.Warn("No year of the batch succeeded", map[string]interface{}{"failed": len(report.Failed())})
		return 1
	}
	return 0
}

// renderDataset draws the density figure of a dataset written by an earlier run
func renderDataset(cfg *config.Config, path string) int {
	log := logger.GetGlobalLogger().WithComponent("main")

	ds, err := datasets.ReadNetCDF(path)
	if err != nil {
		log.Error("Failed to read dataset", err, map[string]interface{}{"path": path})
		return 1
	}

	var marker *models.LatLon
	if cfg.MarkSubsolar {
		m := solar.Subsolar(ds.Timestamp())
		marker = &m
	}

	image, err := charts.NewDensityRenderer().Render(ds, cfg.ImgDir, marker)
	if err != nil {
		log.Error("Failed to render dataset", err, map[string]interface{}{"path": path})
		return 1
	}
	log.Info("Dataset rendered", map[string]interface{}{"image": image})
	return 0
}
