package storage

import (
	"testing"
	"time"
)

func TestGenerateRunFolderPath(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 2, 0, time.UTC)
	want := "2024/03/07/DensityBatch-2024-03-07-09-05-02"
	if got := GenerateRunFolderPath(ts); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	// Non-UTC input is normalized
	est := time.FixedZone("EST", -5*3600)
	if got := GenerateRunFolderPath(time.Date(2024, 3, 6, 23, 0, 0, 0, est)); got != "2024/03/07/DensityBatch-2024-03-07-04-00-00" {
		t.Errorf("Unexpected folder for EST timestamp: %s", got)
	}
}

func TestGetContentType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"400.0_2015-10-01 10:00.png", "image/png"},
		{"400.0_2015-10-01.nc", "application/x-netcdf"},
		{"400.0_2015-10-01.parquet", "application/vnd.apache.parquet"},
		{"summary.HTML", "text/html"},
		{"summary.md", "text/markdown"},
		{"batch.json", "application/json"},
		{"metrics.prom", "text/plain"},
		{"archive.tar.gz", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, test := range tests {
		if got := GetContentType(test.filename); got != test.expected {
			t.Errorf("GetContentType(%s) = %s, want %s", test.filename, got, test.expected)
		}
	}
}
