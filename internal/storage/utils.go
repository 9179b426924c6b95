package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GenerateRunFolderPath generates a consistent folder path for one batch run
// Format: YYYY/MM/DD/DensityBatch-YYYY-MM-DD-HH-MM-SS
func GenerateRunFolderPath(timestamp time.Time) string {
	timestamp = timestamp.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/DensityBatch-%04d-%02d-%02d-%02d-%02d-%02d",
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		timestamp.Hour(), timestamp.Minute(), timestamp.Second())
}

var contentTypes = map[string]string{
	".json":    "application/json",
	".txt":     "text/plain",
	".html":    "text/html",
	".md":      "text/markdown",
	".png":     "image/png",
	".nc":      "application/x-netcdf",
	".parquet": "application/vnd.apache.parquet",
	".prom":    "text/plain",
}

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
