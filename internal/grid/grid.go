package grid

import (
	"fmt"
	"math"

	"atmodensity/internal/models"
)

// LatLonWorld builds a global meshgrid with latitudes -90..90 and longitudes -180..180.
// Rows follow latitude and columns follow longitude.
func LatLonWorld(latStep, lonStep float64) (models.Grid, error) {
	if latStep <= 0 || lonStep <= 0 {
		return models.Grid{}, fmt.Errorf("grid steps must be positive, got lat=%g lon=%g", latStep, lonStep)
	}

	lats := axis(-90, 90, latStep)
	lons := axis(-180, 180, lonStep)

	g := models.Grid{
		Lat: make([][]float64, len(lats)),
		Lon: make([][]float64, len(lats)),
	}
	for i, lat := range lats {
		g.Lat[i] = make([]float64, len(lons))
		g.Lon[i] = make([]float64, len(lons))
		for j, lon := range lons {
			g.Lat[i][j] = lat
			g.Lon[i][j] = lon
		}
	}
	return g, nil
}

// axis returns start, start+step, ... up to and including stop when it lies on the step
func axis(start, stop, step float64) []float64 {
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Axes returns the 1-D latitude and longitude vectors of a meshgrid
func Axes(g models.Grid) (lat, lon []float64) {
	rows, cols := g.Shape()
	lat = make([]float64, rows)
	lon = make([]float64, cols)
	for i := 0; i < rows; i++ {
		lat[i] = g.Lat[i][0]
	}
	if rows > 0 {
		copy(lon, g.Lon[0])
	}
	return lat, lon
}
