package charts

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"atmodensity/internal/logger"
	"atmodensity/internal/models"
)

// Figure size in pixels
const (
	DefaultWidth  = 2000
	DefaultHeight = 1000
)

const (
	bannerHeight  = 90
	panelTitleH   = 22
	marginLeft    = 70
	marginBottom  = 42
	marginRight   = 110
	colorbarGap   = 10
	colorbarWidth = 14
	colorbarSteps = 64
	colorbarTicks = 5
	markerRadius  = 5.0
	tickLength    = 4
	titleFontSize = 16.0
	labelFontSize = 10.0
	tickFontSize  = 8.0
)

var (
	colorFrame = drawing.Color{R: 0, G: 0, B: 0, A: 255}
	colorText  = drawing.Color{R: 33, G: 37, B: 41, A: 255}
	colorNaN   = drawing.Color{R: 255, G: 255, B: 255, A: 0}
)

var (
	lonTicks = []float64{-180, -90, 0, 90, 180}
	latTicks = []float64{-90, -45, 0, 45, 90}
)

// DensityRenderer draws the 3x3 species figure of one dataset into a PNG
type DensityRenderer struct {
	Width  int
	Height int
	log    *logger.Logger
}

// NewDensityRenderer creates a renderer with the default figure size
func NewDensityRenderer() *DensityRenderer {
	return &DensityRenderer{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		log:    logger.GetGlobalLogger().WithComponent("charts"),
	}
}

// Render writes "<altitude>_<timestamp>.png" under outDir and returns its path.
// outDir defaults to the working directory and may start with "~".
// A non-nil marker is drawn as a white dot on every panel.
func (dr *DensityRenderer) Render(ds *models.Dataset, outDir string, marker *models.LatLon) (string, error) {
	layout, err := Layout(ds)
	if err != nil {
		return "", err
	}

	dir, err := ExpandDir(outDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	r, err := chart.PNG(dr.Width, dr.Height)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return "", fmt.Errorf("failed to load font: %w", err)
	}
	r.SetFont(font)

	fillRect(r, 0, 0, dr.Width, dr.Height, drawing.ColorWhite)
	dr.drawBanner(r, layout)

	cellW := dr.Width / PanelCols
	cellH := (dr.Height - bannerHeight) / PanelRows
	for _, p := range layout.Panels {
		cell := chart.Box{
			Left:   p.Col * cellW,
			Top:    bannerHeight + p.Row*cellH,
			Right:  (p.Col + 1) * cellW,
			Bottom: bannerHeight + (p.Row+1)*cellH,
		}
		dr.drawPanel(r, cell, layout.Extent, p, marker)
	}

	path := filepath.Join(dir, layout.Filename)
	if err := WritePlot(r, path); err != nil {
		return "", err
	}

	dr.log.Info("density figure written", map[string]interface{}{
		"path":     path,
		"panels":   len(layout.Panels),
		"subsolar": marker != nil,
	})
	return path, nil
}

// WritePlot saves a rendered figure as PNG at path
func WritePlot(r chart.Renderer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := r.Save(f); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}

// ExpandDir resolves an empty dir to "." and a leading "~" to the user home
func ExpandDir(dir string) (string, error) {
	if dir == "" {
		return ".", nil
	}
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", dir, err)
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}

func (dr *DensityRenderer) drawBanner(r chart.Renderer, layout *FigureLayout) {
	r.SetFontColor(colorText)
	r.SetFontSize(titleFontSize + 2)
	drawCentered(r, layout.Title, dr.Width/2, 34)
	r.SetFontSize(titleFontSize)
	drawCentered(r, layout.Subtitle, dr.Width/2, 68)
}

func (dr *DensityRenderer) drawPanel(r chart.Renderer, cell chart.Box, extent [4]float64, p Panel, marker *models.LatLon) {
	plot := chart.Box{
		Left:   cell.Left + marginLeft,
		Top:    cell.Top + panelTitleH + 6,
		Right:  cell.Right - marginRight,
		Bottom: cell.Bottom - marginBottom,
	}

	r.SetFontColor(colorText)
	r.SetFontSize(labelFontSize + 1)
	drawCentered(r, p.Title, (plot.Left+plot.Right)/2, cell.Top+panelTitleH)

	drawRaster(r, plot, extent, p)

	if marker != nil {
		x, y := project(plot, marker.Lon, marker.Lat)
		r.SetFillColor(drawing.ColorWhite)
		r.SetStrokeColor(drawing.ColorWhite)
		r.SetStrokeWidth(1)
		r.Circle(markerRadius, x, y)
		r.FillStroke()
	}

	strokeRect(r, plot)
	drawAxes(r, plot, p)
	drawColorbar(r, plot, p)
}

// drawRaster paints every grid cell over the data extent, rows at their latitude
func drawRaster(r chart.Renderer, plot chart.Box, extent [4]float64, p Panel) {
	rows, cols := p.Field.Shape[0], p.Field.Shape[1]
	lon0, lon1, lat0, lat1 := extent[0], extent[1], extent[2], extent[3]
	if lon1 == lon0 {
		lon0, lon1 = LonMin, LonMax
	}
	if lat1 == lat0 {
		lat0, lat1 = LatMin, LatMax
	}
	dx := (lon1 - lon0) / float64(cols)
	dy := (lat1 - lat0) / float64(rows)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c := colorFor(p.Field.At2(i, j), p.Min, p.Max)
			if c.A == 0 {
				continue
			}
			x0, y0 := project(plot, lon0+float64(j)*dx, lat0+float64(i)*dy)
			x1, y1 := project(plot, lon0+float64(j+1)*dx, lat0+float64(i+1)*dy)
			fillRect(r, x0, y1, x1, y0, c)
		}
	}
}

// colorFor maps v onto viridis; NaN is transparent and a flat field takes the mid color
func colorFor(v, vmin, vmax float64) drawing.Color {
	if math.IsNaN(v) {
		return colorNaN
	}
	if vmax <= vmin {
		return chart.Viridis(0.5, 0, 1)
	}
	return chart.Viridis(math.Max(vmin, math.Min(vmax, v)), vmin, vmax)
}

func drawAxes(r chart.Renderer, plot chart.Box, p Panel) {
	r.SetStrokeColor(colorFrame)
	r.SetStrokeWidth(1)
	r.SetFontColor(colorText)
	r.SetFontSize(tickFontSize)

	for _, lat := range latTicks {
		_, y := project(plot, LonMin, lat)
		line(r, plot.Left-tickLength, y, plot.Left, y)
		label := fmt.Sprintf("%g", lat)
		tb := r.MeasureText(label)
		r.Text(label, plot.Left-tickLength-4-tb.Width(), y+tb.Height()/2)
	}
	for _, lon := range lonTicks {
		x, _ := project(plot, lon, LatMin)
		line(r, x, plot.Bottom, x, plot.Bottom+tickLength)
		if !p.XTicks {
			continue
		}
		label := fmt.Sprintf("%g", lon)
		tb := r.MeasureText(label)
		r.Text(label, x-tb.Width()/2, plot.Bottom+tickLength+4+tb.Height())
	}

	r.SetFontSize(labelFontSize)
	if p.XLabel != "" {
		drawCentered(r, p.XLabel, (plot.Left+plot.Right)/2, plot.Bottom+marginBottom-6)
	}
	if p.YLabel != "" {
		tb := r.MeasureText(p.YLabel)
		r.SetTextRotation(chart.DegreesToRadians(270))
		r.Text(p.YLabel, plot.Left-marginLeft+14, (plot.Top+plot.Bottom)/2+tb.Width()/2)
		r.ClearTextRotation()
	}
}

// drawColorbar draws a vertical gradient right of the plot with %.2e tick labels
func drawColorbar(r chart.Renderer, plot chart.Box, p Panel) {
	bar := chart.Box{
		Left:   plot.Right + colorbarGap,
		Top:    plot.Top,
		Right:  plot.Right + colorbarGap + colorbarWidth,
		Bottom: plot.Bottom,
	}
	h := float64(bar.Bottom - bar.Top)
	for k := 0; k < colorbarSteps; k++ {
		frac := (float64(k) + 0.5) / colorbarSteps
		v := p.Min + frac*(p.Max-p.Min)
		y0 := bar.Bottom - int(math.Round(float64(k)*h/colorbarSteps))
		y1 := bar.Bottom - int(math.Round(float64(k+1)*h/colorbarSteps))
		fillRect(r, bar.Left, y1, bar.Right, y0, colorFor(v, p.Min, p.Max))
	}
	strokeRect(r, bar)

	r.SetFontColor(colorText)
	r.SetFontSize(tickFontSize)
	for _, t := range ColorbarTicks(p.Min, p.Max) {
		frac := 0.5
		if p.Max > p.Min {
			frac = (t.Value - p.Min) / (p.Max - p.Min)
		}
		y := bar.Bottom - int(math.Round(frac*h))
		line(r, bar.Right, y, bar.Right+tickLength, y)
		tb := r.MeasureText(t.Label)
		r.Text(t.Label, bar.Right+tickLength+3, y+tb.Height()/2)
	}
}

// ColorbarTicks returns evenly spaced colorbar ticks labelled in scientific notation
func ColorbarTicks(vmin, vmax float64) []chart.Tick {
	if vmax <= vmin {
		return []chart.Tick{{Value: vmin, Label: fmt.Sprintf("%.2e", vmin)}}
	}
	ticks := make([]chart.Tick, colorbarTicks)
	for i := range ticks {
		v := vmin + float64(i)*(vmax-vmin)/float64(colorbarTicks-1)
		ticks[i] = chart.Tick{Value: v, Label: fmt.Sprintf("%.2e", v)}
	}
	return ticks
}

// project maps a lon/lat pair onto the fixed +-180/+-90 panel box
func project(plot chart.Box, lon, lat float64) (int, int) {
	x := float64(plot.Left) + (lon-LonMin)/(LonMax-LonMin)*float64(plot.Right-plot.Left)
	y := float64(plot.Bottom) - (lat-LatMin)/(LatMax-LatMin)*float64(plot.Bottom-plot.Top)
	return int(math.Round(x)), int(math.Round(y))
}

func fillRect(r chart.Renderer, left, top, right, bottom int, c drawing.Color) {
	if right <= left || bottom <= top {
		return
	}
	r.SetFillColor(c)
	r.SetStrokeColor(c)
	r.SetStrokeWidth(0)
	r.MoveTo(left, top)
	r.LineTo(right, top)
	r.LineTo(right, bottom)
	r.LineTo(left, bottom)
	r.LineTo(left, top)
	r.Close()
	r.Fill()
}

func strokeRect(r chart.Renderer, b chart.Box) {
	r.SetStrokeColor(colorFrame)
	r.SetStrokeWidth(1)
	r.MoveTo(b.Left, b.Top)
	r.LineTo(b.Right, b.Top)
	r.LineTo(b.Right, b.Bottom)
	r.LineTo(b.Left, b.Bottom)
	r.LineTo(b.Left, b.Top)
	r.Stroke()
}

func line(r chart.Renderer, x0, y0, x1, y1 int) {
	r.MoveTo(x0, y0)
	r.LineTo(x1, y1)
	r.Stroke()
}

func drawCentered(r chart.Renderer, text string, cx, baseline int) {
	tb := r.MeasureText(text)
	r.Text(text, cx-tb.Width()/2, baseline)
}
