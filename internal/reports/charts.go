package reports

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"atmodensity/internal/models"
)

// IndicesChart renders an interactive line chart of the resolved Ap, F10.7 and F10.7A per successful year
func IndicesChart(report *models.BatchReport) (string, error) {
	ok := report.Succeeded()
	if len(ok) == 0 {
		return "", fmt.Errorf("no successful years to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  "900px",
			Height: "400px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Model Drivers",
			Subtitle: "Geomagnetic and solar flux indices used per year",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Year",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Index",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    true,
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: true,
		}),
	)

	xAxis := make([]string, len(ok))
	ap := make([]opts.LineData, len(ok))
	f107 := make([]opts.LineData, len(ok))
	f107a := make([]opts.LineData, len(ok))
	for i, o := range ok {
		xAxis[i] = strconv.Itoa(o.Year)
		ap[i] = opts.LineData{Value: o.Ap}
		f107[i] = opts.LineData{Value: o.F107}
		f107a[i] = opts.LineData{Value: o.F107A}
	}

	line.SetXAxis(xAxis).
		AddSeries("Ap", ap).
		AddSeries("F10.7", f107).
		AddSeries("F10.7A", f107a).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: false}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render indices chart: %w", err)
	}
	return buf.String(), nil
}
