package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.YearsProcessed.WithLabelValues("success").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.YearsProcessed.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.YearsProcessed.WithLabelValues("success")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.YearsProcessed.WithLabelValues("failure").Add(2)
	m.StageFailures.WithLabelValues("render").Inc()
	m.BatchRunning.Set(1)

	path := filepath.Join(t.TempDir(), "atmodensity.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.Contains(text, `atmodensity_years_processed_total{outcome="failure"} 2`))
	assert.True(t, strings.Contains(text, `atmodensity_stage_failures_total{stage="render"} 1`))
	assert.True(t, strings.Contains(text, "atmodensity_batch_running 1"))
}

func TestFetchMetrics(t *testing.T) {
	m := NewMetrics()
	m.FetchRequests.WithLabelValues("ftp.ngdc.noaa.gov", "success").Inc()
	m.FetchBytes.Add(2048)

	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchRequests)+testutil.CollectAndCount(m.FetchBytes))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.FetchBytes))
}
