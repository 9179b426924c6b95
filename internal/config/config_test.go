package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ImgDir != "." || cfg.NCDir != "." {
					t.Errorf("Expected default dirs '.', got img=%s nc=%s", cfg.ImgDir, cfg.NCDir)
				}
				if cfg.StartYear != 2008 || cfg.EndYear != 2019 || cfg.YearStep != 1 {
					t.Errorf("Unexpected default year range %d-%d/%d", cfg.StartYear, cfg.EndYear, cfg.YearStep)
				}
				if cfg.Month != 10 || cfg.Day != 1 || cfg.Hour != 10 {
					t.Errorf("Unexpected default calendar %d/%d %dh", cfg.Month, cfg.Day, cfg.Hour)
				}
				if cfg.AltitudeKm != 400 {
					t.Errorf("Expected default altitude 400, got %v", cfg.AltitudeKm)
				}
				if cfg.GridLatStep != 10 || cfg.GridLonStep != 20 {
					t.Errorf("Unexpected default grid steps %v/%v", cfg.GridLatStep, cfg.GridLonStep)
				}
				if len(cfg.DatasetFormats) != 1 || cfg.DatasetFormats[0] != "netcdf" {
					t.Errorf("Expected default dataset format netcdf, got %v", cfg.DatasetFormats)
				}
				if cfg.FTPTimeout != 0 {
					t.Errorf("Expected FTP timeout disabled by default, got %v", cfg.FTPTimeout)
				}
				if cfg.PublishMode != "none" {
					t.Errorf("Expected publish mode none, got %s", cfg.PublishMode)
				}
				if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
					t.Errorf("Unexpected log defaults %s/%s", cfg.LogLevel, cfg.LogFormat)
				}
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"IMG_DIR":         "/data/img",
				"NC_DIR":          "/data/nc",
				"START_YEAR":      "2014",
				"END_YEAR":        "2016",
				"ALTITUDE_KM":     "250.5",
				"MARK_SUBSOLAR":   "true",
				"DATASET_FORMATS": "netcdf,parquet",
				"MODEL_TIMEOUT":   "30s",
				"FTP_TIMEOUT":     "45s",
				"PUBLISH_MODE":    "gcs",
				"GCS_BUCKET":      "density-plots",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ImgDir != "/data/img" || cfg.NCDir != "/data/nc" {
					t.Errorf("Unexpected dirs img=%s nc=%s", cfg.ImgDir, cfg.NCDir)
				}
				if cfg.StartYear != 2014 || cfg.EndYear != 2016 {
					t.Errorf("Unexpected years %d-%d", cfg.StartYear, cfg.EndYear)
				}
				if cfg.AltitudeKm != 250.5 {
					t.Errorf("Expected altitude 250.5, got %v", cfg.AltitudeKm)
				}
				if !cfg.MarkSubsolar {
					t.Error("Expected MarkSubsolar true")
				}
				if len(cfg.DatasetFormats) != 2 || cfg.DatasetFormats[1] != "parquet" {
					t.Errorf("Expected [netcdf parquet], got %v", cfg.DatasetFormats)
				}
				if cfg.ModelTimeout != 30*time.Second || cfg.FTPTimeout != 45*time.Second {
					t.Errorf("Unexpected timeouts %v/%v", cfg.ModelTimeout, cfg.FTPTimeout)
				}
				if cfg.PublishMode != "gcs" || cfg.GCSBucket != "density-plots" {
					t.Errorf("Unexpected publish settings %s/%s", cfg.PublishMode, cfg.GCSBucket)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load(context.Background())
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoadInvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONTH", "october")

	if _, err := Load(context.Background()); err == nil {
		t.Error("Expected error for non-numeric MONTH")
	}
}

func TestConfigBatchFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("START_YEAR", "2015")
	t.Setenv("END_YEAR", "2017")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	b, err := cfg.Batch()
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if len(b.Years) != 3 || b.Years[0] != 2015 || b.Years[2] != 2017 {
		t.Errorf("Expected years 2015..2017, got %v", b.Years)
	}

	req := b.Request(1)
	if req.Year != 2016 || req.Month != 10 || req.Day != 1 || req.Hour != 10 {
		t.Errorf("Unexpected request %+v", req)
	}
	if !req.Indices.IsZero() {
		t.Error("Expected no index overrides without a plan")
	}
}

func TestConfigBatchWithPlanFile(t *testing.T) {
	clearEnv(t)

	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	plan := `
years: [2015, 2016]
hour: 12
altitude_km: 300
grid:
  lat_step: 5
  lon_step: 15
indices:
  f107a: [85, null]
  ap: [7, 12]
`
	if err := os.WriteFile(planPath, []byte(plan), 0644); err != nil {
		t.Fatalf("Failed to write plan: %v", err)
	}
	t.Setenv("RUN_PLAN", planPath)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	b, err := cfg.Batch()
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if len(b.Years) != 2 || b.Hour != 12 || b.AltitudeKm != 300 {
		t.Errorf("Plan not applied: %+v", b)
	}
	if b.GridLatStep != 5 || b.GridLonStep != 15 {
		t.Errorf("Unexpected grid steps %v/%v", b.GridLatStep, b.GridLonStep)
	}

	first := b.Request(0).Indices
	if first.F107A == nil || *first.F107A != 85 || first.F107 != nil || first.Ap == nil || *first.Ap != 7 {
		t.Errorf("Unexpected first-year indices %+v", first)
	}

	second := b.Request(1).Indices
	if second.F107A != nil {
		t.Error("Expected null f107a entry to stay unset")
	}
	if second.Ap == nil || *second.Ap != 12 {
		t.Errorf("Expected Ap=12 for second year, got %v", second.Ap)
	}
}

func TestConfigBatchMissingPlan(t *testing.T) {
	clearEnv(t)
	t.Setenv("RUN_PLAN", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := cfg.Batch(); err == nil {
		t.Error("Expected error for missing plan file")
	}
}

// clearEnv unsets every variable Config reads so host settings cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"IMG_DIR", "NC_DIR", "START_YEAR", "END_YEAR", "YEAR_STEP", "MONTH", "DAY", "HOUR",
		"ALTITUDE_KM", "GRID_LAT_STEP", "GRID_LON_STEP", "RUN_PLAN", "MARK_SUBSOLAR",
		"DATASET_FORMATS", "MODEL_URL", "MODEL_TIMEOUT", "INDEX_DIR", "FTP_TIMEOUT",
		"PUBLISH_MODE", "PUBLISH_DIR", "GCP_PROJECT_ID", "GCS_BUCKET", "MINIO_ENDPOINT",
		"MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_REGION", "MINIO_USE_SSL",
		"REPORT_DIR", "METRICS_TEXTFILE", "ENVIRONMENT", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, env := range envVars {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}
