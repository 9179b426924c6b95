package datasets

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"atmodensity/internal/models"
)

// DensityRow is one grid cell of one species in long format
type DensityRow struct {
	Timestamp int64   `parquet:"timestamp"`
	AltKm     float64 `parquet:"alt_km"`
	Lat       float64 `parquet:"lat"`
	Lon       float64 `parquet:"lon"`
	Species   string  `parquet:"species"`
	Units     string  `parquet:"units"`
	Density   float64 `parquet:"density"`
	Ap        float64 `parquet:"ap"`
	F107      float64 `parquet:"f107"`
	F107A     float64 `parquet:"f107a"`
}

// ParquetWriter writes the squeezed lat/lon fields as DensityRow records
type ParquetWriter struct{}

func (ParquetWriter) Ext() string { return ".parquet" }

func (ParquetWriter) Write(ds *models.Dataset, path string) error {
	rows, err := Rows(ds)
	if err != nil {
		return err
	}

	return writeFile(path, func(f *os.File) error {
		w := parquet.NewGenericWriter[DensityRow](f)
		if _, err := w.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close parquet writer: %w", err)
		}
		return nil
	})
}

// Rows flattens every species field into lat-major rows
func Rows(ds *models.Dataset) ([]DensityRow, error) {
	sq := ds.Squeeze()
	ts := ds.Timestamp().Unix()
	alt := ds.Altitude()

	var rows []DensityRow
	for _, s := range sq.Species {
		f := sq.Fields[s]
		if len(f.Shape) != 2 || f.Shape[0] != len(sq.Lat) || f.Shape[1] != len(sq.Lon) {
			return nil, fmt.Errorf("species %q is not a lat/lon field: dims %v shape %v", s, f.Dims, f.Shape)
		}
		units := models.Units(s)
		for i, lat := range sq.Lat {
			for j, lon := range sq.Lon {
				rows = append(rows, DensityRow{
					Timestamp: ts,
					AltKm:     alt,
					Lat:       lat,
					Lon:       lon,
					Species:   s,
					Units:     units,
					Density:   f.At2(i, j),
					Ap:        ds.Ap,
					F107:      ds.F107,
					F107A:     ds.F107A,
				})
			}
		}
	}
	return rows, nil
}
