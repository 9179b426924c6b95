package datasets

import (
	"fmt"
	"os"
	"time"

	"github.com/ctessum/cdf"

	"atmodensity/internal/models"
)

// Dimension order of every persisted species variable
var dimOrder = []string{"time", "alt_km", "lat", "lon"}

const timeUnits = "hours since 1970-01-01 00:00:00"

// NetCDFWriter writes NetCDF classic files with one float64 variable per species
type NetCDFWriter struct{}

func (NetCDFWriter) Ext() string { return ".nc" }

// Write creates path and writes coordinates, species and run metadata
func (NetCDFWriter) Write(ds *models.Dataset, path string) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	lengths := make([]int, len(dimOrder))
	coords := make(map[string][]float64, len(dimOrder))
	for i, dim := range dimOrder {
		c, _ := ds.Coord(dim)
		if len(c) == 0 {
			return fmt.Errorf("dataset has empty %s coordinate", dim)
		}
		lengths[i] = len(c)
		coords[dim] = c
	}

	h := cdf.NewHeader(dimOrder, lengths)
	h.AddAttribute("", "title", "Global atmospheric density")
	h.AddAttribute("", "Ap", []float64{ds.Ap})
	h.AddAttribute("", "f107", []float64{ds.F107})
	h.AddAttribute("", "f107s", []float64{ds.F107A})

	for _, dim := range dimOrder {
		h.AddVariable(dim, []string{dim}, []float64{0})
	}
	h.AddAttribute("time", "units", timeUnits)
	h.AddAttribute("alt_km", "units", "km")
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddAttribute("lon", "units", "degrees_east")

	for _, s := range ds.Species {
		f := ds.Fields[s]
		for i, dim := range f.Dims {
			c, ok := coords[dim]
			if !ok {
				return fmt.Errorf("species %q has unknown dimension %q", s, dim)
			}
			if f.Shape[i] != len(c) {
				return fmt.Errorf("species %q: %s has length %d, coordinate has %d", s, dim, f.Shape[i], len(c))
			}
		}
		h.AddVariable(s, f.Dims, []float64{0})
		h.AddAttribute(s, "units", models.Units(s))
	}
	h.Define()

	return writeFile(path, func(w *os.File) error {
		nc, err := cdf.Create(w, h)
		if err != nil {
			return fmt.Errorf("failed to write netcdf header: %w", err)
		}

		for _, dim := range dimOrder {
			if err := writeVar(nc, dim, coords[dim]); err != nil {
				return err
			}
		}
		for _, s := range ds.Species {
			if err := writeVar(nc, s, ds.Fields[s].Values); err != nil {
				return err
			}
		}

		if err := cdf.UpdateNumRecs(w); err != nil {
			return fmt.Errorf("failed to finalize netcdf file: %w", err)
		}
		return nil
	})
}

// writeFile fills path+".tmp" and renames it over path. On failure the temp file is removed and path is untouched
func writeFile(path string, fill func(w *os.File) error) error {
	tmpPath := path + ".tmp"
	w, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}

	err = fill(w)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close dataset file: %w", cerr)
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move dataset file into place: %w", err)
	}
	return nil
}

func writeVar(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	if _, err := f.Writer(name, start, end).Write(data); err != nil {
		return fmt.Errorf("writing variable %s to netcdf file: %w", name, err)
	}
	return nil
}

// ReadNetCDF loads a dataset previously written by NetCDFWriter
func ReadNetCDF(path string) (*models.Dataset, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer r.Close()

	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read netcdf header: %w", err)
	}

	ds := &models.Dataset{Fields: make(map[string]models.Field)}
	ds.Ap = scalarAttr(f, "Ap")
	ds.F107 = scalarAttr(f, "f107")
	ds.F107A = scalarAttr(f, "f107s")

	coords := make(map[string][]float64, len(dimOrder))
	for _, dim := range dimOrder {
		buf := make([]float64, product(f.Header.Lengths(dim)))
		if _, err := f.Reader(dim, nil, nil).Read(buf); err != nil {
			return nil, fmt.Errorf("reading coordinate %s: %w", dim, err)
		}
		coords[dim] = buf
	}
	for _, h := range coords["time"] {
		ds.Time = append(ds.Time, time.Unix(int64(h*3600), 0).UTC())
	}
	ds.AltKm = coords["alt_km"]
	ds.Lat = coords["lat"]
	ds.Lon = coords["lon"]

	for _, v := range f.Header.Variables() {
		if _, isCoord := coords[v]; isCoord {
			continue
		}
		shape := f.Header.Lengths(v)
		vals := make([]float64, product(shape))
		if _, err := f.Reader(v, nil, nil).Read(vals); err != nil {
			return nil, fmt.Errorf("reading variable %s: %w", v, err)
		}
		ds.Species = append(ds.Species, v)
		ds.Fields[v] = models.Field{
			Dims:   f.Header.Dimensions(v),
			Shape:  shape,
			Values: vals,
		}
	}
	return ds, nil
}

func scalarAttr(f *cdf.File, name string) float64 {
	if v, ok := f.Header.GetAttribute("", name).([]float64); ok && len(v) > 0 {
		return v[0]
	}
	return 0
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
