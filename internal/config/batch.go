package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"atmodensity/internal/models"
)

// IndexOverrides holds per-year index lists parallel to Batch.Years.
// A nil list, or a null entry, leaves that index to the model default.
type IndexOverrides struct {
	F107A []*float64 `yaml:"f107a"`
	F107  []*float64 `yaml:"f107"`
	Ap    []*float64 `yaml:"ap"`
}

// ForYear returns the overrides for the i-th year of the batch
func (o IndexOverrides) ForYear(i int) models.Indices {
	return models.Indices{
		F107A: pick(o.F107A, i),
		F107:  pick(o.F107, i),
		Ap:    pick(o.Ap, i),
	}
}

func pick(list []*float64, i int) *float64 {
	if i < 0 || i >= len(list) || list[i] == nil {
		return nil
	}
	v := *list[i]
	return &v
}

// Batch is the explicit parameter set of one batch run
type Batch struct {
	Years        []int
	ImgDir       string
	NCDir        string
	Month        int
	Day          int
	Hour         int
	AltitudeKm   float64
	GridLatStep  float64
	GridLonStep  float64
	Overrides    IndexOverrides
	MarkSubsolar bool
}

var ErrNoYears = errors.New("batch has no years")

// Validate checks calendar ranges, grid steps and override list lengths
func (b Batch) Validate() error {
	if len(b.Years) == 0 {
		return ErrNoYears
	}
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("month %d out of range 1-12", b.Month)
	}
	if b.Day < 1 || b.Day > 31 {
		return fmt.Errorf("day %d out of range 1-31", b.Day)
	}
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0-23", b.Hour)
	}
	if b.GridLatStep <= 0 || b.GridLonStep <= 0 {
		return fmt.Errorf("grid steps must be positive, got lat=%g lon=%g", b.GridLatStep, b.GridLonStep)
	}
	for name, list := range map[string][]*float64{"f107a": b.Overrides.F107A, "f107": b.Overrides.F107, "ap": b.Overrides.Ap} {
		if list != nil && len(list) != len(b.Years) {
			return fmt.Errorf("%s override list has %d entries for %d years", name, len(list), len(b.Years))
		}
	}
	return nil
}

// Request builds the RunRequest for the i-th year
func (b Batch) Request(i int) models.RunRequest {
	return models.RunRequest{
		Year:        b.Years[i],
		Month:       b.Month,
		Day:         b.Day,
		Hour:        b.Hour,
		AltitudeKm:  b.AltitudeKm,
		GridLatStep: b.GridLatStep,
		GridLonStep: b.GridLonStep,
		Indices:     b.Overrides.ForYear(i),
	}
}

// Plan is the YAML run plan; unset keys keep the environment values
type Plan struct {
	Years     []int `yaml:"years"`
	YearRange *struct {
		Start int `yaml:"start"`
		End   int `yaml:"end"`
		Step  int `yaml:"step"`
	} `yaml:"year_range"`
	ImgDir     *string  `yaml:"img_dir"`
	NCDir      *string  `yaml:"nc_dir"`
	Month      *int     `yaml:"month"`
	Day        *int     `yaml:"day"`
	Hour       *int     `yaml:"hour"`
	AltitudeKm *float64 `yaml:"altitude_km"`
	Grid       *struct {
		LatStep float64 `yaml:"lat_step"`
		LonStep float64 `yaml:"lon_step"`
	} `yaml:"grid"`
	Indices      *IndexOverrides `yaml:"indices"`
	MarkSubsolar *bool           `yaml:"mark_subsolar"`
}

// LoadPlan reads a YAML run plan from disk
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run plan %s: %w", path, err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a YAML run plan
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse run plan: %w", err)
	}
	return &p, nil
}

// Apply overlays the plan onto b; an explicit years list wins over year_range
func (p *Plan) Apply(b *Batch) {
	switch {
	case len(p.Years) > 0:
		b.Years = append([]int(nil), p.Years...)
	case p.YearRange != nil:
		b.Years = YearRange(p.YearRange.Start, p.YearRange.End, p.YearRange.Step)
	}
	if p.ImgDir != nil {
		b.ImgDir = *p.ImgDir
	}
	if p.NCDir != nil {
		b.NCDir = *p.NCDir
	}
	if p.Month != nil {
		b.Month = *p.Month
	}
	if p.Day != nil {
		b.Day = *p.Day
	}
	if p.Hour != nil {
		b.Hour = *p.Hour
	}
	if p.AltitudeKm != nil {
		b.AltitudeKm = *p.AltitudeKm
	}
	if p.Grid != nil {
		b.GridLatStep = p.Grid.LatStep
		b.GridLonStep = p.Grid.LonStep
	}
	if p.Indices != nil {
		b.Overrides = *p.Indices
	}
	if p.MarkSubsolar != nil {
		b.MarkSubsolar = *p.MarkSubsolar
	}
}
