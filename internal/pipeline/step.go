package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"atmodensity/internal/charts"
	"atmodensity/internal/datasets"
	"atmodensity/internal/logger"
	"atmodensity/internal/models"
	"atmodensity/internal/observability"
	"atmodensity/internal/solar"
)

// Model evaluates the atmospheric density model for one timestamp over a grid.
// Nil index fields are left to the model default.
type Model interface {
	Run(ctx context.Context, t time.Time, altKm float64, grid models.Grid, idx models.Indices) (*models.Dataset, error)
}

// Renderer draws a dataset into a single image under outDir
type Renderer interface {
	Render(ds *models.Dataset, outDir string, marker *models.LatLon) (string, error)
}

// Publisher copies a written artifact to its publish target
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

// Step computes, persists and renders one year of a batch
type Step struct {
	model     Model
	writer    datasets.Writer
	extras    []datasets.Writer
	renderer  Renderer
	publisher Publisher
	subsolar  bool
	clock     clockwork.Clock
	metrics   *observability.Metrics
	log       *logger.Logger
}

// StepOption configures optional Step collaborators
type StepOption func(*Step)

// WithExtraWriters adds dataset writers that run after the primary one.
// Their failures are logged and do not fail the year.
func WithExtraWriters(w ...datasets.Writer) StepOption {
	return func(s *Step) { s.extras = append(s.extras, w...) }
}

// WithPublisher uploads the artifacts of every successful year
func WithPublisher(p Publisher) StepOption {
	return func(s *Step) { s.publisher = p }
}

// WithSubsolarMarker enables the sub-solar point marker on rendered panels
func WithSubsolarMarker(enabled bool) StepOption {
	return func(s *Step) { s.subsolar = enabled }
}

func WithClock(c clockwork.Clock) StepOption {
	return func(s *Step) { s.clock = c }
}

func WithMetrics(m *observability.Metrics) StepOption {
	return func(s *Step) { s.metrics = m }
}

// NewStep creates a Step around the model, primary dataset writer and renderer
func NewStep(model Model, writer datasets.Writer, renderer Renderer, opts ...StepOption) *Step {
	s := &Step{
		model:    model,
		writer:   writer,
		renderer: renderer,
		clock:    clockwork.NewRealClock(),
		log:      logger.GetGlobalLogger().WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	return s
}

// ComputeAndRender runs the model for req, writes the dataset to ncDir and the figure to imgDir.
// Errors and panics are caught and reported in the returned Outcome.
func (s *Step) ComputeAndRender(ctx context.Context, req models.RunRequest, grid models.Grid, imgDir, ncDir string) models.Outcome {
	start := s.clock.Now()
	t := req.Time()
	out := models.Outcome{Year: req.Year, Date: t}

	fields := map[string]interface{}{
		"year":        req.Year,
		"time":        t.Format(models.TimestampLayout),
		"altitude_km": req.AltitudeKm,
	}
	s.log.Info("computing density", fields)

	// time.Date normalizes Feb 31 into March; such a year is not computed
	err := s.stage(StageConfig, req.Year, func() error {
		if t.Month() != time.Month(req.Month) || t.Day() != req.Day {
			return fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, req.Year, req.Month, req.Day)
		}
		return nil
	})
	if err != nil {
		return s.finish(out, start, err)
	}

	var ds *models.Dataset
	err = s.stage(StageCompute, req.Year, func() error {
		var err error
		ds, err = s.model.Run(ctx, t, req.AltitudeKm, grid, req.Indices)
		if err != nil {
			return err
		}
		if ds == nil {
			return ErrNoDataset
		}
		out.Ap, out.F107, out.F107A = ds.Ap, ds.F107, ds.F107A
		return nil
	})
	if err != nil {
		return s.finish(out, start, err)
	}

	err = s.stage(StagePersist, req.Year, func() error {
		dir, err := charts.ExpandDir(ncDir)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dataset directory: %w", err)
		}
		out.DatasetPath = filepath.Join(dir, req.DatasetFilename(s.writer.Ext()))
		if err := s.writer.Write(ds, out.DatasetPath); err != nil {
			out.DatasetPath = ""
			return err
		}
		for _, w := range s.extras {
			path := filepath.Join(dir, req.DatasetFilename(w.Ext()))
			if err := w.Write(ds, path); err != nil {
				s.log.Warn("extra dataset writer failed", map[string]interface{}{
					"year": req.Year, "path": path, "error": err.Error(),
				})
				continue
			}
			out.ExtraPaths = append(out.ExtraPaths, path)
		}
		return nil
	})
	if err != nil {
		return s.finish(out, start, err)
	}

	var marker *models.LatLon
	if s.subsolar {
		m := solar.Subsolar(t)
		marker = &m
	}
	err = s.stage(StageRender, req.Year, func() error {
		var err error
		out.ImagePath, err = s.renderer.Render(ds, imgDir, marker)
		return err
	})
	if err != nil {
		return s.finish(out, start, err)
	}

	s.publish(ctx, &out)
	return s.finish(out, start, nil)
}

// stage runs fn, converting a panic into an error and wrapping failures in a StageError
func (s *Step) stage(st Stage, year int, fn func() error) (err error) {
	began := s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		s.metrics.StageDuration.WithLabelValues(string(st)).Observe(s.clock.Since(began).Seconds())
		if err != nil {
			s.metrics.StageFailures.WithLabelValues(string(st)).Inc()
			err = &StageError{Stage: st, Year: year, Err: err}
		}
	}()
	return fn()
}

func (s *Step) publish(ctx context.Context, out *models.Outcome) {
	if s.publisher == nil {
		return
	}
	paths := append([]string{out.DatasetPath}, out.ExtraPaths...)
	paths = append(paths, out.ImagePath)
	for _, p := range paths {
		location, err := s.publisher.Publish(ctx, p)
		if err != nil {
			s.log.Warn("failed to publish artifact", map[string]interface{}{
				"year": out.Year, "path": p, "error": err.Error(),
			})
			continue
		}
		s.metrics.ArtifactsPublished.Inc()
		out.Published = append(out.Published, location)
	}
}

func (s *Step) finish(out models.Outcome, start time.Time, err error) models.Outcome {
	out.Duration = s.clock.Since(start)
	s.metrics.YearDuration.Observe(out.Duration.Seconds())

	if err != nil {
		out.Status = models.StatusFailure
		out.Err = err
		out.Error = err.Error()
		var se *StageError
		if errors.As(err, &se) {
			out.Stage = string(se.Stage)
		}
		s.metrics.YearsProcessed.WithLabelValues(string(models.StatusFailure)).Inc()
		s.log.Error("year failed", err, map[string]interface{}{
			"year":  out.Year,
			"stage": out.Stage,
		})
		return out
	}

	out.Status = models.StatusSuccess
	s.metrics.YearsProcessed.WithLabelValues(string(models.StatusSuccess)).Inc()
	s.log.Info("year completed", map[string]interface{}{
		"year":     out.Year,
		"dataset":  out.DatasetPath,
		"image":    out.ImagePath,
		"duration": out.Duration.String(),
	})
	return out
}
