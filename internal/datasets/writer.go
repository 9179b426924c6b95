package datasets

import (
	"fmt"
	"strings"

	"atmodensity/internal/models"
)

// Writer persists a dataset to a single file
type Writer interface {
	// Ext is the file extension including the dot
	Ext() string
	Write(ds *models.Dataset, path string) error
}

// New returns the writer registered for a format name
func New(format string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "netcdf", "nc":
		return NetCDFWriter{}, nil
	case "parquet":
		return ParquetWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown dataset format %q", format)
	}
}

// FromFormats builds the primary NetCDF writer and any extra writers named in formats
func FromFormats(formats []string) (Writer, []Writer, error) {
	var extras []Writer
	seen := map[string]bool{".nc": true}
	for _, f := range formats {
		if strings.TrimSpace(f) == "" {
			continue
		}
		w, err := New(f)
		if err != nil {
			return nil, nil, err
		}
		if seen[w.Ext()] {
			continue
		}
		seen[w.Ext()] = true
		extras = append(extras, w)
	}
	return NetCDFWriter{}, extras, nil
}
