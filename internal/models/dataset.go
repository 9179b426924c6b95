package models

import (
	"errors"
	"fmt"
	"time"
)

// TotalSpecies is the synthetic mass-density channel produced by the model
const TotalSpecies = "Total"

// Field is an N-dimensional row-major array with named dimensions
type Field struct {
	Dims   []string  `json:"dims"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

// Validate checks that Dims, Shape and Values agree
func (f Field) Validate() error {
	if len(f.Dims) != len(f.Shape) {
		return fmt.Errorf("field has %d dims but %d shape entries", len(f.Dims), len(f.Shape))
	}
	n := 1
	for _, s := range f.Shape {
		n *= s
	}
	if n != len(f.Values) {
		return fmt.Errorf("field shape implies %d values, got %d", n, len(f.Values))
	}
	return nil
}

// Squeeze drops every dimension of length one
func (f Field) Squeeze() Field {
	out := Field{Values: f.Values}
	for i, s := range f.Shape {
		if s == 1 {
			continue
		}
		out.Dims = append(out.Dims, f.Dims[i])
		out.Shape = append(out.Shape, s)
	}
	return out
}

// At2 returns element (i, j) of a 2-D field
func (f Field) At2(i, j int) float64 {
	return f.Values[i*f.Shape[1]+j]
}

// Dataset is the gridded output of one atmospheric model run
type Dataset struct {
	Time    []time.Time      `json:"time"`
	AltKm   []float64        `json:"alt_km"`
	Lat     []float64        `json:"lat"`
	Lon     []float64        `json:"lon"`
	Ap      float64          `json:"Ap"`
	F107    float64          `json:"f107"`
	F107A   float64          `json:"f107s"`
	Species []string         `json:"species"`
	Fields  map[string]Field `json:"fields"`
}

var ErrEmptyDataset = errors.New("dataset has no time or altitude coordinate")

// Timestamp returns the first (usually only) model time
func (d *Dataset) Timestamp() time.Time {
	if len(d.Time) == 0 {
		return time.Time{}
	}
	return d.Time[0]
}

// Altitude returns the first (usually only) altitude in km
func (d *Dataset) Altitude() float64 {
	if len(d.AltKm) == 0 {
		return 0
	}
	return d.AltKm[0]
}

// Validate checks coordinates and that every listed species has a consistent field
func (d *Dataset) Validate() error {
	if len(d.Time) == 0 || len(d.AltKm) == 0 {
		return ErrEmptyDataset
	}
	for _, s := range d.Species {
		f, ok := d.Fields[s]
		if !ok {
			return fmt.Errorf("species %q has no field", s)
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("species %q: %w", s, err)
		}
	}
	return nil
}

// Squeeze returns a shallow copy whose fields have all singleton dimensions removed
func (d *Dataset) Squeeze() *Dataset {
	out := *d
	out.Fields = make(map[string]Field, len(d.Fields))
	for name, f := range d.Fields {
		out.Fields[name] = f.Squeeze()
	}
	return &out
}

// Units returns the density unit of a species: mass density for Total, number density otherwise
func Units(species string) string {
	if species == TotalSpecies {
		return "g/cm^3"
	}
	return "cm^-3"
}

// Coord returns the coordinate vector of a named dimension
func (d *Dataset) Coord(dim string) ([]float64, bool) {
	switch dim {
	case "alt_km":
		return d.AltKm, true
	case "lat":
		return d.Lat, true
	case "lon":
		return d.Lon, true
	case "time":
		out := make([]float64, len(d.Time))
		for i, t := range d.Time {
			out[i] = float64(t.Unix()) / 3600
		}
		return out, true
	}
	return nil, false
}
