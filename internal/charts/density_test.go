package charts

import (
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atmodensity/internal/models"
)

var msisSpecies = []string{"He", "O", "N2", "O2", "Ar", "H", "N", "AnomalousO", models.TotalSpecies}

// testDataset builds a 1x1xLATxLON dataset with one smoothly varying field per species
func testDataset(species []string) *models.Dataset {
	lat := []float64{-90, -60, -30, 0, 30, 60, 90}
	lon := []float64{-180, -120, -60, 0, 60, 120, 180}
	dims := []string{"time", "alt_km", "lat", "lon"}
	shape := []int{1, 1, len(lat), len(lon)}

	ds := &models.Dataset{
		Time:    []time.Time{time.Date(2015, 10, 1, 10, 0, 0, 0, time.UTC)},
		AltKm:   []float64{400},
		Lat:     lat,
		Lon:     lon,
		Ap:      7,
		F107:    90,
		F107A:   85,
		Species: species,
		Fields:  map[string]models.Field{},
	}
	for k, s := range species {
		vals := make([]float64, len(lat)*len(lon))
		for i := range lat {
			for j := range lon {
				vals[i*len(lon)+j] = float64(k+1) * 1e6 * (1 + float64(i) + 0.1*float64(j))
			}
		}
		ds.Fields[s] = models.Field{Dims: dims, Shape: shape, Values: vals}
	}
	return ds
}

func TestLayoutPanelsAndUnits(t *testing.T) {
	layout, err := Layout(testDataset(msisSpecies))
	require.NoError(t, err)
	require.Len(t, layout.Panels, 9)

	for _, p := range layout.Panels {
		if p.Species == models.TotalSpecies {
			assert.Equal(t, "Density: Total (g/cm^3)", p.Title)
		} else {
			assert.Equal(t, "Density: "+p.Species+" (cm^-3)", p.Title)
		}
	}

	assert.Equal(t, LatitudeLabel, layout.Panels[0].YLabel)
	assert.Equal(t, LatitudeLabel, layout.Panels[3].YLabel)
	assert.Equal(t, LatitudeLabel, layout.Panels[6].YLabel)
	assert.Empty(t, layout.Panels[1].YLabel)

	for _, i := range []int{6, 7, 8} {
		assert.Equal(t, LongitudeLabel, layout.Panels[i].XLabel)
		assert.True(t, layout.Panels[i].XTicks)
	}
	assert.Empty(t, layout.Panels[4].XLabel)
	assert.False(t, layout.Panels[4].XTicks)

	assert.Equal(t, 2, layout.Panels[8].Row)
	assert.Equal(t, 2, layout.Panels[8].Col)
}

func TestLayoutBanner(t *testing.T) {
	layout, err := Layout(testDataset(msisSpecies))
	require.NoError(t, err)

	assert.Equal(t, "2015-10-01 10:00", layout.Timestamp)
	assert.Equal(t, "400.0_2015-10-01 10:00.png", layout.Filename)
	assert.Contains(t, layout.Title, "400km")
	for _, want := range []string{"DateTime=2015-10-01 10:00", "alt.(km)=400", "Ap=7", "F10.7A=85", "F10.7=90"} {
		assert.Contains(t, layout.Subtitle, want)
	}
	assert.Equal(t, [4]float64{-180, 180, -90, 90}, layout.Extent)
}

func TestLayoutValueRange(t *testing.T) {
	ds := testDataset([]string{"O"})
	f := ds.Fields["O"]
	f.Values[0] = math.NaN()
	f.Values[1] = 1
	ds.Fields["O"] = f

	layout, err := Layout(ds)
	require.NoError(t, err)
	assert.Equal(t, 1.0, layout.Panels[0].Min)
	assert.Equal(t, f.Values[len(f.Values)-1], layout.Panels[0].Max)
}

func TestLayoutTooManySpecies(t *testing.T) {
	species := append(append([]string{}, msisSpecies...), "NO")
	_, err := Layout(testDataset(species))
	assert.True(t, errors.Is(err, ErrTooManySpecies))
}

func TestLayoutRejectsNonGridField(t *testing.T) {
	ds := testDataset([]string{"O"})
	ds.Fields["O"] = models.Field{Dims: []string{"lat"}, Shape: []int{7}, Values: make([]float64, 7)}

	_, err := Layout(ds)
	assert.True(t, errors.Is(err, ErrNotGridded))
}

func TestRenderWritesSinglePNG(t *testing.T) {
	dir := t.TempDir()
	r := NewDensityRenderer()

	path, err := r.Render(testDataset(msisSpecies), dir, &models.LatLon{Lat: 3.1, Lon: 30})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "400.0_2015-10-01 10:00.png"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, DefaultHeight, img.Bounds().Dy())
}

func TestRenderFlatField(t *testing.T) {
	ds := testDataset([]string{"Ar"})
	f := ds.Fields["Ar"]
	for i := range f.Values {
		f.Values[i] = 5
	}

	_, err := NewDensityRenderer().Render(ds, t.TempDir(), nil)
	assert.NoError(t, err)
}

func TestRenderErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	species := append(append([]string{}, msisSpecies...), "NO")

	_, err := NewDensityRenderer().Render(testDataset(species), dir, nil)
	require.Error(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestColorbarTicks(t *testing.T) {
	ticks := ColorbarTicks(1e6, 5e6)
	require.Len(t, ticks, 5)
	assert.Equal(t, "1.00e+06", ticks[0].Label)
	assert.Equal(t, "5.00e+06", ticks[4].Label)

	flat := ColorbarTicks(2.5e-15, 2.5e-15)
	require.Len(t, flat, 1)
	assert.Equal(t, "2.50e-15", flat[0].Label)
}

func TestExpandDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandDir("~/plots")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "plots"), got)

	got, _ = ExpandDir("")
	assert.Equal(t, ".", got)

	got, _ = ExpandDir("/data/img")
	assert.Equal(t, "/data/img", got)

	got, _ = ExpandDir("~user/plots")
	assert.True(t, strings.HasPrefix(got, "~"), "only the current user's home is expanded")
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, uint8(0), colorFor(math.NaN(), 0, 1).A)
	assert.Equal(t, colorFor(3, 3, 3), colorFor(7, 7, 7))
	assert.NotEqual(t, colorFor(0, 0, 1), colorFor(1, 0, 1))
}
