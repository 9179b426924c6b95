package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"atmodensity/internal/grid"
	"atmodensity/internal/models"
)

var msisSpecies = []string{"He", "O", "N2", "O2", "Ar", "H", "N", "AnomalousO", models.TotalSpecies}

var errModel = errors.New("model diverged")

type modelCall struct {
	t   time.Time
	alt float64
	idx models.Indices
}

// fakeModel builds a smooth dataset over the requested grid and can fail selected years
type fakeModel struct {
	mu       sync.Mutex
	calls    []modelCall
	failYear map[int]bool
	nilYear  map[int]bool
	failAll  bool
	clock    *clockwork.FakeClock
	took     time.Duration
	onRun    func(year int)
}

func (m *fakeModel) Run(ctx context.Context, t time.Time, altKm float64, g models.Grid, idx models.Indices) (*models.Dataset, error) {
	m.mu.Lock()
	m.calls = append(m.calls, modelCall{t: t, alt: altKm, idx: idx})
	m.mu.Unlock()

	if m.onRun != nil {
		m.onRun(t.Year())
	}
	if m.clock != nil {
		m.clock.Advance(m.took)
	}
	if m.failAll || m.failYear[t.Year()] {
		return nil, errModel
	}
	if m.nilYear[t.Year()] {
		return nil, nil
	}
	return datasetFor(t, altKm, g, idx), nil
}

func datasetFor(t time.Time, altKm float64, g models.Grid, idx models.Indices) *models.Dataset {
	lat, lon := grid.Axes(g)
	ds := &models.Dataset{
		Time:    []time.Time{t},
		AltKm:   []float64{altKm},
		Lat:     lat,
		Lon:     lon,
		Ap:      4,
		F107:    80,
		F107A:   82,
		Species: msisSpecies,
		Fields:  map[string]models.Field{},
	}
	if idx.Ap != nil {
		ds.Ap = *idx.Ap
	}
	if idx.F107 != nil {
		ds.F107 = *idx.F107
	}
	if idx.F107A != nil {
		ds.F107A = *idx.F107A
	}
	for k, s := range msisSpecies {
		vals := make([]float64, len(lat)*len(lon))
		for i := range lat {
			for j := range lon {
				vals[i*len(lon)+j] = float64(k+1) * 1e7 * (2 + float64(i) - 0.05*float64(j))
			}
		}
		ds.Fields[s] = models.Field{
			Dims:   []string{"time", "alt_km", "lat", "lon"},
			Shape:  []int{1, 1, len(lat), len(lon)},
			Values: vals,
		}
	}
	return ds
}

// fakeWriter records dataset paths without touching disk
type fakeWriter struct {
	ext     string
	err     error
	written []string
}

func (w *fakeWriter) Ext() string { return w.ext }

func (w *fakeWriter) Write(ds *models.Dataset, path string) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, path)
	return nil
}

// fakeRenderer returns the image path the real renderer would use
type fakeRenderer struct {
	err     error
	panics  bool
	markers []*models.LatLon
}

func (r *fakeRenderer) Render(ds *models.Dataset, outDir string, marker *models.LatLon) (string, error) {
	if r.panics {
		panic("colormap exploded")
	}
	r.markers = append(r.markers, marker)
	if r.err != nil {
		return "", r.err
	}
	return filepath.Join(outDir, models.ImageFilename(ds.Altitude(), ds.Timestamp())), nil
}

type fakePublisher struct {
	fail      map[string]bool
	published []string
}

func (p *fakePublisher) Publish(ctx context.Context, localPath string) (string, error) {
	if p.fail[filepath.Ext(localPath)] {
		return "", errors.New("bucket unavailable")
	}
	p.published = append(p.published, localPath)
	return "mem://" + filepath.Base(localPath), nil
}

type fakeReporter struct {
	reports []*models.BatchReport
	err     error
}

func (r *fakeReporter) Write(report *models.BatchReport) (string, error) {
	r.reports = append(r.reports, report)
	return "summary.html", r.err
}
