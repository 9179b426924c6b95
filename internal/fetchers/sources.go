package fetchers

import (
	"fmt"
	"strconv"
	"strings"

	"atmodensity/internal/models"
)

// Source is a fixed remote layout holding one family of index files
type Source struct {
	Name string
	Host string
	Dir  string
}

var (
	// ApSource holds yearly geomagnetic Kp/Ap files named by bare year
	ApSource = Source{
		Name: "ap",
		Host: "ftp.ngdc.noaa.gov",
		Dir:  "STP/GEOMAGNETIC_DATA/INDICES/KP_AP/",
	}

	// F107Source holds yearly solar and geomagnetic summaries named <year>_<code>.txt
	F107Source = Source{
		Name: "f107",
		Host: "ftp.swpc.noaa.gov",
		Dir:  "pub/indices/old_indices/",
	}
)

// Reference files published next to the Ap yearly files
const (
	ApFormatFile = "kp_ap.fmt"
	ApReadme     = "readme.txt"
)

// Solar summary codes accepted by SolarFile
const (
	DailySolarData       = "DSD"
	DailyGeomagneticData = "DGD"
	DailyParticleData    = "DPD"
)

var solarCodes = map[string]bool{
	DailySolarData:       true,
	DailyGeomagneticData: true,
	DailyParticleData:    true,
}

// Spec builds the RemoteFileSpec for filename stored under localDir
func (s Source) Spec(filename, localDir string) models.RemoteFileSpec {
	return models.RemoteFileSpec{
		Host:           s.Host,
		RemoteDir:      s.Dir,
		RemoteFilename: filename,
		LocalDir:       localDir,
	}
}

// ApFile returns the Ap index file name for year
func ApFile(year int) string {
	return strconv.Itoa(year)
}

// SolarFile returns "<year>_<code>.txt" for one of DSD, DGD or DPD
func SolarFile(year int, code string) (string, error) {
	code = strings.ToUpper(code)
	if !solarCodes[code] {
		return "", fmt.Errorf("unknown solar index code %q", code)
	}
	return fmt.Sprintf("%d_%s.txt", year, code), nil
}

// ReferenceSpecs returns the Ap format description and readme, which are not per year
func ReferenceSpecs(localDir string) []models.RemoteFileSpec {
	return []models.RemoteFileSpec{
		ApSource.Spec(ApFormatFile, localDir),
		ApSource.Spec(ApReadme, localDir),
	}
}

// SpecsFor builds the fetch list for years and a kind of ap, dsd, dgd, dpd, ref or all.
// ref fetches only the Ap reference files; all appends them after the yearly files.
func SpecsFor(years []int, kind, localDir string) ([]models.RemoteFileSpec, error) {
	var kinds []string
	withRef := false
	switch k := strings.ToLower(kind); k {
	case "all":
		kinds = []string{"ap", "dsd", "dgd", "dpd"}
		withRef = true
	case "ref":
		return ReferenceSpecs(localDir), nil
	case "ap", "dsd", "dgd", "dpd":
		kinds = []string{k}
	default:
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}

	var specs []models.RemoteFileSpec
	for _, year := range years {
		for _, k := range kinds {
			if k == "ap" {
				specs = append(specs, ApSource.Spec(ApFile(year), localDir))
				continue
			}
			name, err := SolarFile(year, k)
			if err != nil {
				return nil, err
			}
			specs = append(specs, F107Source.Spec(name, localDir))
		}
	}
	if withRef {
		specs = append(specs, ReferenceSpecs(localDir)...)
	}
	return specs, nil
}
