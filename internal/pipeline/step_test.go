package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atmodensity/internal/grid"
	"atmodensity/internal/models"
	"atmodensity/internal/observability"
)

func testRequest(year int) models.RunRequest {
	return models.RunRequest{
		Year: year, Month: 10, Day: 1, Hour: 10,
		AltitudeKm: 400, GridLatStep: 10, GridLonStep: 20,
	}
}

func testGrid(t *testing.T) models.Grid {
	t.Helper()
	g, err := grid.LatLonWorld(10, 20)
	require.NoError(t, err)
	return g
}

func TestStep_Success(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	model := &fakeModel{clock: clock, took: 3 * time.Second}
	writer := &fakeWriter{ext: ".nc"}
	renderer := &fakeRenderer{}
	metrics := observability.NewMetrics()

	step := NewStep(model, writer, renderer, WithClock(clock), WithMetrics(metrics))
	ncDir := t.TempDir()
	out := step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), "img", ncDir)

	require.True(t, out.OK(), out.Error)
	assert.Equal(t, 2015, out.Year)
	assert.Equal(t, time.Date(2015, 10, 1, 10, 0, 0, 0, time.UTC), out.Date)
	assert.Equal(t, filepath.Join(ncDir, "400.0_2015-10-01.nc"), out.DatasetPath)
	assert.Equal(t, filepath.Join("img", "400.0_2015-10-01 10:00.png"), out.ImagePath)
	assert.Equal(t, 3*time.Second, out.Duration)
	assert.Equal(t, 4.0, out.Ap)
	assert.Equal(t, []string{out.DatasetPath}, writer.written)
	require.Len(t, renderer.markers, 1)
	assert.Nil(t, renderer.markers[0])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.YearsProcessed.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.YearsProcessed.WithLabelValues("failure")))
}

func TestStep_IndicesPassedIndependently(t *testing.T) {
	model := &fakeModel{}
	step := NewStep(model, &fakeWriter{ext: ".nc"}, &fakeRenderer{})

	req := testRequest(2016)
	req.Indices = models.Indices{Ap: models.Float(12)}
	out := step.ComputeAndRender(context.Background(), req, testGrid(t), t.TempDir(), t.TempDir())

	require.True(t, out.OK())
	require.Len(t, model.calls, 1)
	call := model.calls[0]
	assert.Equal(t, 400.0, call.alt)
	require.NotNil(t, call.idx.Ap)
	assert.Equal(t, 12.0, *call.idx.Ap)
	assert.Nil(t, call.idx.F107)
	assert.Nil(t, call.idx.F107A)
	assert.Equal(t, 12.0, out.Ap)
	assert.Equal(t, 80.0, out.F107)
}

func TestStep_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		model     *fakeModel
		writer    *fakeWriter
		renderer  *fakeRenderer
		wantStage Stage
	}{
		{"compute", &fakeModel{failAll: true}, &fakeWriter{ext: ".nc"}, &fakeRenderer{}, StageCompute},
		{"persist", &fakeModel{}, &fakeWriter{ext: ".nc", err: errors.New("disk full")}, &fakeRenderer{}, StagePersist},
		{"render", &fakeModel{}, &fakeWriter{ext: ".nc"}, &fakeRenderer{err: errors.New("font missing")}, StageRender},
		{"render panic", &fakeModel{}, &fakeWriter{ext: ".nc"}, &fakeRenderer{panics: true}, StageRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetrics()
			step := NewStep(tt.model, tt.writer, tt.renderer, WithMetrics(metrics))

			var out models.Outcome
			require.NotPanics(t, func() {
				out = step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), t.TempDir())
			})

			assert.False(t, out.OK())
			assert.Equal(t, string(tt.wantStage), out.Stage)
			assert.NotEmpty(t, out.Error)

			var se *StageError
			require.True(t, errors.As(out.Err, &se))
			assert.Equal(t, tt.wantStage, se.Stage)
			assert.Equal(t, 2015, se.Year)

			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageFailures.WithLabelValues(string(tt.wantStage))))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.YearsProcessed.WithLabelValues("failure")))
		})
	}
}

func TestStep_ComputeErrorIsWrapped(t *testing.T) {
	step := NewStep(&fakeModel{failAll: true}, &fakeWriter{ext: ".nc"}, &fakeRenderer{})
	out := step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), t.TempDir())
	assert.ErrorIs(t, out.Err, errModel)
}

func TestStep_ExtraWriterFailureIsWarning(t *testing.T) {
	good := &fakeWriter{ext: ".parquet"}
	bad := &fakeWriter{ext: ".csv", err: errors.New("unsupported")}
	step := NewStep(&fakeModel{}, &fakeWriter{ext: ".nc"}, &fakeRenderer{}, WithExtraWriters(bad, good))

	ncDir := t.TempDir()
	out := step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), ncDir)

	require.True(t, out.OK())
	assert.Equal(t, []string{filepath.Join(ncDir, "400.0_2015-10-01.parquet")}, out.ExtraPaths)
}

func TestStep_Publish(t *testing.T) {
	metrics := observability.NewMetrics()
	pub := &fakePublisher{fail: map[string]bool{".png": true}}
	step := NewStep(&fakeModel{}, &fakeWriter{ext: ".nc"}, &fakeRenderer{}, WithPublisher(pub), WithMetrics(metrics))

	out := step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), t.TempDir())

	require.True(t, out.OK(), "publish failures must not fail the year")
	assert.Equal(t, []string{"mem://400.0_2015-10-01.nc"}, out.Published)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ArtifactsPublished))
}

func TestStep_NotPublishedOnFailure(t *testing.T) {
	pub := &fakePublisher{}
	step := NewStep(&fakeModel{failAll: true}, &fakeWriter{ext: ".nc"}, &fakeRenderer{}, WithPublisher(pub))

	out := step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), t.TempDir())
	assert.False(t, out.OK())
	assert.Empty(t, pub.published)
}

func TestStep_SubsolarMarker(t *testing.T) {
	renderer := &fakeRenderer{}
	step := NewStep(&fakeModel{}, &fakeWriter{ext: ".nc"}, renderer, WithSubsolarMarker(true))

	out := step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), t.TempDir())
	require.True(t, out.OK())
	require.Len(t, renderer.markers, 1)
	require.NotNil(t, renderer.markers[0])
	assert.InDelta(t, -3.1, renderer.markers[0].Lat, 0.5)
	assert.InDelta(t, 27.5, renderer.markers[0].Lon, 1.0)
}

func TestStep_CreatesDatasetDirectory(t *testing.T) {
	ncDir := filepath.Join(t.TempDir(), "nested", "nc")
	step := NewStep(&fakeModel{}, &fakeWriter{ext: ".nc"}, &fakeRenderer{})

	out := step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), ncDir)
	require.True(t, out.OK())

	info, err := os.Stat(ncDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStep_InvalidCalendarDate(t *testing.T) {
	tests := []struct {
		name       string
		year       int
		month, day int
	}{
		{"february 31", 2015, 2, 31},
		{"february 29 outside a leap year", 2015, 2, 29},
		{"april 31", 2016, 4, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{}
			writer := &fakeWriter{ext: ".nc"}
			metrics := observability.NewMetrics()
			step := NewStep(model, writer, &fakeRenderer{}, WithMetrics(metrics))

			req := testRequest(tt.year)
			req.Month, req.Day = tt.month, tt.day
			out := step.ComputeAndRender(context.Background(), req, testGrid(t), t.TempDir(), t.TempDir())

			assert.False(t, out.OK())
			assert.Equal(t, string(StageConfig), out.Stage)
			assert.ErrorIs(t, out.Err, ErrInvalidDate)
			assert.Empty(t, model.calls, "model must not run for a date that does not exist")
			assert.Empty(t, writer.written)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageFailures.WithLabelValues(string(StageConfig))))
		})
	}
}

func TestStep_LeapDay(t *testing.T) {
	writer := &fakeWriter{ext: ".nc"}
	step := NewStep(&fakeModel{}, writer, &fakeRenderer{})

	req := testRequest(2016)
	req.Month, req.Day = 2, 29
	ncDir := t.TempDir()
	out := step.ComputeAndRender(context.Background(), req, testGrid(t), t.TempDir(), ncDir)

	require.True(t, out.OK(), out.Error)
	assert.Equal(t, []string{filepath.Join(ncDir, "400.0_2016-02-29.nc")}, writer.written)
}

func TestStep_NilDatasetIsComputeFailure(t *testing.T) {
	writer := &fakeWriter{ext: ".nc"}
	step := NewStep(&fakeModel{nilYear: map[int]bool{2015: true}}, writer, &fakeRenderer{})

	var out models.Outcome
	require.NotPanics(t, func() {
		out = step.ComputeAndRender(context.Background(), testRequest(2015), testGrid(t), t.TempDir(), t.TempDir())
	})

	assert.False(t, out.OK())
	assert.Equal(t, string(StageCompute), out.Stage)
	assert.ErrorIs(t, out.Err, ErrNoDataset)
	assert.Empty(t, writer.written)
}
