package solar

import (
	"math"
	"time"

	"atmodensity/internal/models"
)

const j2000 = 2451545.0

// Subsolar returns the point where the sun is at zenith at t, using the
// low precision solar coordinates of the Astronomical Almanac (about 0.01 deg).
func Subsolar(t time.Time) models.LatLon {
	t = t.UTC()
	n := julianDay(t) - j2000

	meanLon := normalize360(280.460 + 0.9856474*n)
	anomaly := rad(normalize360(357.528 + 0.9856003*n))
	eclLon := rad(meanLon + 1.915*math.Sin(anomaly) + 0.020*math.Sin(2*anomaly))
	obliquity := rad(23.439 - 0.0000004*n)

	decl := math.Asin(math.Sin(obliquity) * math.Sin(eclLon))
	ra := math.Atan2(math.Cos(obliquity)*math.Sin(eclLon), math.Cos(eclLon))

	// equation of time in minutes
	eot := 4 * normalize180(meanLon-deg(ra))

	utcHours := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	lon := -15 * (utcHours - 12 + eot/60)

	return models.LatLon{
		Lat: deg(decl),
		Lon: normalize180(lon),
	}
}

func julianDay(t time.Time) float64 {
	return float64(t.Unix())/86400 + 2440587.5
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func normalize360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// normalize180 wraps d into [-180, 180)
func normalize180(d float64) float64 {
	d = normalize360(d + 180)
	return d - 180
}
