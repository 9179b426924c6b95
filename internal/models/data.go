package models

import (
	"fmt"
	"path"
	"path/filepath"
	"time"
)

// Indices holds the solar and geomagnetic drivers passed to the density model.
// Each field is optional on its own; a nil field is left to the model default.
type Indices struct {
	F107A *float64 `json:"f107s,omitempty" yaml:"f107a,omitempty"` // 81-day average F10.7 flux
	F107  *float64 `json:"f107,omitempty" yaml:"f107,omitempty"`   // Daily F10.7 flux
	Ap    *float64 `json:"Ap,omitempty" yaml:"ap,omitempty"`       // Daily geomagnetic Ap index
}

// IsZero reports whether no index is overridden
func (i Indices) IsZero() bool {
	return i.F107A == nil && i.F107 == nil && i.Ap == nil
}

// Complete reports whether all three indices are set
func (i Indices) Complete() bool {
	return i.F107A != nil && i.F107 != nil && i.Ap != nil
}

// Float returns a pointer to v, handy for building Indices literals
func Float(v float64) *float64 {
	return &v
}

// RunRequest describes one model evaluation for a single target date
type RunRequest struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Day         int     `json:"day"`
	Hour        int     `json:"hour"`
	AltitudeKm  float64 `json:"altitude_km"`
	GridLatStep float64 `json:"grid_lat_step"`
	GridLonStep float64 `json:"grid_lon_step"`
	Indices     Indices `json:"indices"`
}

// Time returns the UTC model timestamp of the request
func (r RunRequest) Time() time.Time {
	return time.Date(r.Year, time.Month(r.Month), r.Day, r.Hour, 0, 0, 0, time.UTC)
}

// DatasetFilename returns the deterministic persisted dataset name, e.g. "400.0_2015-10-01.nc"
func (r RunRequest) DatasetFilename(ext string) string {
	return DatasetFilename(r.AltitudeKm, r.Time(), ext)
}

// DatasetFilename formats "<altitude>_<date><ext>"
func DatasetFilename(altKm float64, t time.Time, ext string) string {
	return fmt.Sprintf("%.1f_%s%s", altKm, t.Format(DateLayout), ext)
}

// ImageFilename formats "<altitude>_<truncated timestamp>.png"
func ImageFilename(altKm float64, t time.Time) string {
	return fmt.Sprintf("%.1f_%s.png", altKm, t.Format(TimestampLayout))
}

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04"
)

// Grid holds 2-D latitude and longitude coordinate arrays of identical shape
type Grid struct {
	Lat [][]float64 `json:"glat"`
	Lon [][]float64 `json:"glon"`
}

// Shape returns the number of rows (latitudes) and columns (longitudes)
func (g Grid) Shape() (int, int) {
	if len(g.Lat) == 0 {
		return 0, 0
	}
	return len(g.Lat), len(g.Lat[0])
}

// LatLon is a point on the globe in degrees
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RemoteFileSpec identifies one remote index file and where to store it locally
type RemoteFileSpec struct {
	Host           string `json:"host"`
	RemoteDir      string `json:"remote_dir"`
	RemoteFilename string `json:"remote_filename"`
	LocalDir       string `json:"local_dir"`
}

// RemotePath joins the remote directory and file name
func (s RemoteFileSpec) RemotePath() string {
	return path.Join(s.RemoteDir, s.RemoteFilename)
}

// LocalPath joins the local directory and file name
func (s RemoteFileSpec) LocalPath() string {
	return filepath.Join(s.LocalDir, s.RemoteFilename)
}
