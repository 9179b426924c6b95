package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the density batch service
type Config struct {
	// Output locations
	ImgDir string `env:"IMG_DIR,default=."`
	NCDir  string `env:"NC_DIR,default=."`

	// Calendar and model parameters shared by every year of a batch
	StartYear   int     `env:"START_YEAR,default=2008"`
	EndYear     int     `env:"END_YEAR,default=2019"`
	YearStep    int     `env:"YEAR_STEP,default=1"`
	Month       int     `env:"MONTH,default=10"`
	Day         int     `env:"DAY,default=1"`
	Hour        int     `env:"HOUR,default=10"`
	AltitudeKm  float64 `env:"ALTITUDE_KM,default=400"`
	GridLatStep float64 `env:"GRID_LAT_STEP,default=10"`
	GridLonStep float64 `env:"GRID_LON_STEP,default=20"`

	// Optional YAML run plan overriding the values above
	PlanFile     string `env:"RUN_PLAN"`
	MarkSubsolar bool   `env:"MARK_SUBSOLAR,default=false"`

	// Dataset persistence formats, netcdf is always written first
	DatasetFormats []string `env:"DATASET_FORMATS,default=netcdf"`

	// Atmospheric model service
	ModelURL     string        `env:"MODEL_URL,default=http://localhost:8000"`
	ModelTimeout time.Duration `env:"MODEL_TIMEOUT,default=120s"`

	// Index file retrieval; zero timeout means the dial is not bounded
	IndexDir   string        `env:"INDEX_DIR,default=./indices"`
	FTPTimeout time.Duration `env:"FTP_TIMEOUT,default=0s"`

	// Artifact publishing: none, local, gcs or minio
	PublishMode    string `env:"PUBLISH_MODE,default=none"`
	PublishDir     string `env:"PUBLISH_DIR,default=./published"`
	GCPProjectID   string `env:"GCP_PROJECT_ID"`
	GCSBucket      string `env:"GCS_BUCKET"`
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOBucket    string `env:"MINIO_BUCKET,default=atmodensity"`
	MinIORegion    string `env:"MINIO_REGION"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL,default=true"`

	// Batch summary report and metrics export; empty disables them
	ReportDir       string `env:"REPORT_DIR"`
	MetricsTextfile string `env:"METRICS_TEXTFILE"`

	// Service configuration
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=text"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

// Batch builds the batch parameters from the environment, applying the run plan if one is set
func (c *Config) Batch() (Batch, error) {
	b := Batch{
		Years:        YearRange(c.StartYear, c.EndYear, c.YearStep),
		ImgDir:       c.ImgDir,
		NCDir:        c.NCDir,
		Month:        c.Month,
		Day:          c.Day,
		Hour:         c.Hour,
		AltitudeKm:   c.AltitudeKm,
		GridLatStep:  c.GridLatStep,
		GridLonStep:  c.GridLonStep,
		MarkSubsolar: c.MarkSubsolar,
	}

	if c.PlanFile != "" {
		plan, err := LoadPlan(c.PlanFile)
		if err != nil {
			return Batch{}, err
		}
		plan.Apply(&b)
	}

	if err := b.Validate(); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// YearRange returns start..end inclusive with the given step
func YearRange(start, end, step int) []int {
	if step <= 0 {
		step = 1
	}
	var years []int
	for y := start; y <= end; y += step {
		years = append(years, y)
	}
	return years
}
