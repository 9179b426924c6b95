package pipeline

import (
	"context"
	"time"

	"atmodensity/internal/config"
	"atmodensity/internal/grid"
	"atmodensity/internal/logger"
	"atmodensity/internal/models"
)

// Reporter writes a summary of a finished batch
type Reporter interface {
	Write(report *models.BatchReport) (string, error)
}

// Runner drives a Step over every year of a batch
type Runner struct {
	step     *Step
	reporter Reporter
	log      *logger.Logger
}

// NewRunner creates a Runner; reporter may be nil
func NewRunner(step *Step, reporter Reporter) *Runner {
	return &Runner{
		step:     step,
		reporter: reporter,
		log:      logger.GetGlobalLogger().WithComponent("pipeline"),
	}
}

// RunBatch processes the years of b in order and returns one Outcome per year.
// A failing year never stops the batch; cancellation of ctx does, and the
// years not yet started are recorded as cancelled.
func (r *Runner) RunBatch(ctx context.Context, b config.Batch) *models.BatchReport {
	m := r.step.metrics
	m.BatchRunning.Set(1)
	defer m.BatchRunning.Set(0)

	report := &models.BatchReport{Started: r.step.clock.Now()}
	defer r.complete(report)

	r.log.Info("batch started", map[string]interface{}{
		"years":       len(b.Years),
		"altitude_km": b.AltitudeKm,
		"grid":        []float64{b.GridLatStep, b.GridLonStep},
	})

	if err := b.Validate(); err != nil {
		r.log.Error("invalid batch configuration", err)
		r.failRemaining(report, b, 0, StageConfig, err)
		return report
	}

	g, err := grid.LatLonWorld(b.GridLatStep, b.GridLonStep)
	if err != nil {
		r.log.Error("failed to build grid", err)
		r.failRemaining(report, b, 0, StageConfig, err)
		return report
	}

	for i := range b.Years {
		if err := ctx.Err(); err != nil {
			r.log.Warn("batch cancelled", map[string]interface{}{
				"remaining": len(b.Years) - i,
			})
			r.failRemaining(report, b, i, StageCancelled, err)
			break
		}
		report.Outcomes = append(report.Outcomes, r.step.ComputeAndRender(ctx, b.Request(i), g, b.ImgDir, b.NCDir))
	}
	return report
}

func (r *Runner) failRemaining(report *models.BatchReport, b config.Batch, from int, st Stage, err error) {
	for _, year := range b.Years[from:] {
		se := &StageError{Stage: st, Year: year, Err: err}
		report.Outcomes = append(report.Outcomes, models.Outcome{
			Year:   year,
			Date:   time.Date(year, time.Month(b.Month), b.Day, b.Hour, 0, 0, 0, time.UTC),
			Status: models.StatusFailure,
			Stage:  string(st),
			Err:    se,
			Error:  se.Error(),
		})
		r.step.metrics.YearsProcessed.WithLabelValues(string(models.StatusFailure)).Inc()
	}
}

func (r *Runner) complete(report *models.BatchReport) {
	report.Finished = r.step.clock.Now()

	r.log.Info("batch finished", map[string]interface{}{
		"succeeded": len(report.Succeeded()),
		"failed":    len(report.Failed()),
		"duration":  report.Finished.Sub(report.Started).String(),
	})

	if r.reporter == nil || len(report.Outcomes) == 0 {
		return
	}
	path, err := r.reporter.Write(report)
	if err != nil {
		r.log.Error("failed to write batch report", err)
		return
	}
	r.log.Info("batch report written", map[string]interface{}{"path": path})
}
