package analysis

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed crops.yaml
var cropsYAML []byte

// Phenology status labels, derived from the deviation of observed NDVI
// against the crop's expected curve.
const (
	StatusAhead    = "ahead"
	StatusNormal   = "normal"
	StatusBehind   = "behind"
	StatusCritical = "critical"
	StatusNoData   = "no_data"
)

// CropOther is the bucket for crops with no reference profile.
const CropOther = "otro"

type phenoStep struct {
	UntilDOY int     `yaml:"until_doy"`
	Value    float64 `yaml:"value"`
}

type phenoPhase struct {
	UntilDOY int    `yaml:"until_doy"`
	Name     string `yaml:"name"`
}

type cropProfile struct {
	Aliases      []string     `yaml:"aliases"`
	ExpectedNDVI []phenoStep  `yaml:"expected_ndvi"`
	Phases       []phenoPhase `yaml:"phases"`
}

type cropCatalog struct {
	Crops map[string]cropProfile `yaml:"crops"`
}

var catalog cropCatalog

// aliasIndex maps every alias (and canonical name) to its canonical crop.
var aliasIndex map[string]string

func init() {
	if err := yaml.Unmarshal(cropsYAML, &catalog); err != nil {
		panic(fmt.Sprintf("analysis: bad embedded crop catalog: %v", err))
	}
	aliasIndex = make(map[string]string)
	for name, profile := range catalog.Crops {
		aliasIndex[name] = name
		for _, alias := range profile.Aliases {
			aliasIndex[alias] = name
		}
	}
}

// NormalizeCrop maps free-form crop labels to a canonical profile name.
// Unknown crops collapse to CropOther.
func NormalizeCrop(crop string) string {
	key := strings.ToLower(strings.TrimSpace(crop))
	if canonical, ok := aliasIndex[key]; ok {
		return canonical
	}
	return CropOther
}

// ExpectedNDVI returns the reference NDVI for a crop at a given day of year,
// or nil when the crop has no profile.
func ExpectedNDVI(crop string, doy int) *float64 {
	profile, ok := catalog.Crops[NormalizeCrop(crop)]
	if !ok {
		return nil
	}
	for _, step := range profile.ExpectedNDVI {
		if doy < step.UntilDOY {
			v := step.Value
			return &v
		}
	}
	if n := len(profile.ExpectedNDVI); n > 0 {
		v := profile.ExpectedNDVI[n-1].Value
		return &v
	}
	return nil
}

// PhenoPhase names the growth phase a crop is in at a given day of year.
// Crops without a profile report an empty phase.
func PhenoPhase(crop string, doy int) string {
	profile, ok := catalog.Crops[NormalizeCrop(crop)]
	if !ok {
		return ""
	}
	for _, phase := range profile.Phases {
		if doy < phase.UntilDOY {
			return phase.Name
		}
	}
	if n := len(profile.Phases); n > 0 {
		return profile.Phases[n-1].Name
	}
	return ""
}

// PhenoStatus classifies the NDVI deviation percentage against the expected
// curve. A nil deviation means no reference was available.
func PhenoStatus(deviationPct *float64) string {
	if deviationPct == nil {
		return StatusNoData
	}
	switch {
	case *deviationPct > 15:
		return StatusAhead
	case *deviationPct > -10:
		return StatusNormal
	case *deviationPct > -25:
		return StatusBehind
	default:
		return StatusCritical
	}
}
