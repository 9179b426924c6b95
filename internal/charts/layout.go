package charts

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"atmodensity/internal/models"
)

// Grid dimensions of the composite figure
const (
	PanelRows = 3
	PanelCols = 3
	MaxPanels = PanelRows * PanelCols
)

// Fixed axis limits of every panel
const (
	LonMin = -180.0
	LonMax = 180.0
	LatMin = -90.0
	LatMax = 90.0
)

const (
	LatitudeLabel  = "latitude (deg)"
	LongitudeLabel = "longitude (deg)"
)

var (
	ErrTooManySpecies = errors.New("dataset has more species than panels")
	ErrNotGridded     = errors.New("species field is not a lat/lon grid")
)

// Panel is the plan of one subplot
type Panel struct {
	Index   int
	Row     int
	Col     int
	Species string
	Title   string
	XLabel  string
	YLabel  string
	// XTicks is false for panels above the bottom row, which share its longitude axis
	XTicks bool
	Min    float64
	Max    float64
	Field  models.Field
}

// FigureLayout is the complete, renderer independent plan of a density figure
type FigureLayout struct {
	Title     string
	Subtitle  string
	Timestamp string
	Filename  string
	// Data extent as (lon first, lon last, lat first, lat last)
	Extent [4]float64
	Panels []Panel
}

// PanelTitle labels Total in mass density units and every other species in number density units
func PanelTitle(species string) string {
	return fmt.Sprintf("Density: %s (%s)", species, models.Units(species))
}

// Layout squeezes ds and plans the title banner and one panel per species
func Layout(ds *models.Dataset) (*FigureLayout, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if len(ds.Species) > MaxPanels {
		return nil, fmt.Errorf("%w: %d species for %d panels", ErrTooManySpecies, len(ds.Species), MaxPanels)
	}
	if len(ds.Lat) == 0 || len(ds.Lon) == 0 {
		return nil, fmt.Errorf("%w: empty lat/lon coordinates", ErrNotGridded)
	}

	sq := ds.Squeeze()
	ts := ds.Timestamp().UTC().Format(models.TimestampLayout)
	alt := ds.Altitude()

	fl := &FigureLayout{
		Title: fmt.Sprintf("%gkm High Global Atmospheric Density", alt),
		Subtitle: fmt.Sprintf("DateTime=%s   alt.(km)=%g   Ap=%g   F10.7A=%g   F10.7=%g",
			ts, alt, ds.Ap, ds.F107A, ds.F107),
		Timestamp: ts,
		Filename:  models.ImageFilename(alt, ds.Timestamp().UTC()),
		Extent:    [4]float64{sq.Lon[0], sq.Lon[len(sq.Lon)-1], sq.Lat[0], sq.Lat[len(sq.Lat)-1]},
	}

	for i, s := range sq.Species {
		f := sq.Fields[s]
		if len(f.Shape) != 2 || f.Shape[0] != len(sq.Lat) || f.Shape[1] != len(sq.Lon) {
			return nil, fmt.Errorf("%w: %s has dims %v shape %v", ErrNotGridded, s, f.Dims, f.Shape)
		}
		p := Panel{
			Index:   i,
			Row:     i / PanelCols,
			Col:     i % PanelCols,
			Species: s,
			Title:   PanelTitle(s),
			Field:   f,
		}
		if p.Col == 0 {
			p.YLabel = LatitudeLabel
		}
		if p.Row == PanelRows-1 {
			p.XLabel = LongitudeLabel
			p.XTicks = true
		}
		p.Min, p.Max = valueRange(f.Values)
		fl.Panels = append(fl.Panels, p)
	}
	return fl, nil
}

// valueRange returns the finite min and max of values, or 0,0 when none are finite
func valueRange(values []float64) (float64, float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0
	}
	return floats.Min(finite), floats.Max(finite)
}
