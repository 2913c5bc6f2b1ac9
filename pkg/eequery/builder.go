// Package eequery constructs compute-service request specs. All methods are
// pure functions with no side effects; every fixed constant of the analysis
// contract (datasets, masks, band algebra, scales) lives here.
package eequery

import (
	"github.com/paulmach/orb/geojson"
)

// Fixed parameters of the analysis contract.
const (
	OpticalDataset = "COPERNICUS/S2_SR_HARMONIZED"
	ThermalDataset = "MODIS/061/MOD11A2"
	ThermalBand    = "LST_Day_1km"

	// MaxCloudPct pre-filters scenes on catalog cloud-cover metadata.
	MaxCloudPct = 30.0
	// StressNDVIThreshold marks pixels as stressed below this composite NDVI.
	StressNDVIThreshold = 0.35

	NativeScale     = 10.0   // meters, zonal statistics
	HistoricalScale = 20.0   // meters, anomaly baseline
	SeriesScale     = 20.0   // meters, per-scene time series
	ThermalScale    = 1000.0 // meters, land surface temperature
	MaxPixels       = 1e9    // reduction ceiling safeguard
)

// LinearScale converts raw band values as value*Mult + Add.
type LinearScale struct {
	Mult float64 `json:"mult"`
	Add  float64 `json:"add"`
}

// IndexSpec defines one spectral index as band algebra evaluated per pixel.
// Bands maps expression variables to dataset band names.
type IndexSpec struct {
	Name       string            `json:"name"`
	Expression string            `json:"expression"`
	Bands      map[string]string `json:"bands"`
}

// CompositeSpec describes a filtered, masked, indexed image collection and
// the temporal reducer that collapses it into a single composite. It is the
// unit the remote service computes over; nothing is evaluated locally.
type CompositeSpec struct {
	Dataset   string            `json:"dataset"`
	Geometry  *geojson.Geometry `json:"geometry"`
	StartDate string            `json:"start_date"` // inclusive
	EndDate   string            `json:"end_date"`   // exclusive

	CloudProperty string  `json:"cloud_property,omitempty"`
	MaxCloudPct   float64 `json:"max_cloud_pct,omitempty"`

	// Quality masking: QualityBits must all be clear in QualityBand, and no
	// pixel may carry one of ExcludeClasses in ClassBand.
	QualityBand    string `json:"quality_band,omitempty"`
	QualityBits    []int  `json:"quality_bits,omitempty"`
	ClassBand      string `json:"class_band,omitempty"`
	ExcludeClasses []int  `json:"exclude_classes,omitempty"`

	ReflectanceScale float64      `json:"reflectance_scale,omitempty"`
	Bands            []string     `json:"bands,omitempty"`
	Linear           *LinearScale `json:"linear,omitempty"`
	Indices          []IndexSpec  `json:"indices,omitempty"`

	// Reducer is the temporal reducer: "median" for display composites,
	// "mean" for the historical anomaly baseline.
	Reducer string `json:"reducer"`
}

// CompositeParams defines the variable inputs for composite queries.
type CompositeParams struct {
	Geometry  *geojson.Geometry
	StartDate string
	EndDate   string
}

// Builder constructs compute-service request specs.
// Zero value is ready to use.
type Builder struct{}

// BuildCompositeQuery returns the Sentinel-2 masked, indexed median
// composite over the ROI and date range.
func (b Builder) BuildCompositeQuery(p CompositeParams) CompositeSpec {
	return CompositeSpec{
		Dataset:          OpticalDataset,
		Geometry:         p.Geometry,
		StartDate:        p.StartDate,
		EndDate:          p.EndDate,
		CloudProperty:    "CLOUDY_PIXEL_PERCENTAGE",
		MaxCloudPct:      MaxCloudPct,
		QualityBand:      "QA60",
		QualityBits:      []int{10, 11},
		ClassBand:        "SCL",
		ExcludeClasses:   []int{3, 8, 9, 10, 11},
		ReflectanceScale: 1.0 / 10000.0,
		Indices:          b.indices(),
		Reducer:          "median",
	}
}

// BuildHistoricalQuery returns the same collection collapsed by temporal
// mean, used as the anomaly z-score baseline.
func (b Builder) BuildHistoricalQuery(p CompositeParams) CompositeSpec {
	spec := b.BuildCompositeQuery(p)
	spec.Reducer = "mean"
	return spec
}

// BuildThermalQuery returns the 8-day land-surface-temperature median
// composite, converted to Celsius.
func (b Builder) BuildThermalQuery(p CompositeParams) CompositeSpec {
	return CompositeSpec{
		Dataset:   ThermalDataset,
		Geometry:  p.Geometry,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Bands:     []string{ThermalBand},
		Linear:    &LinearScale{Mult: 0.02, Add: -273.15},
		Reducer:   "median",
	}
}

func (b Builder) indices() []IndexSpec {
	return []IndexSpec{
		{
			Name:       "NDVI",
			Expression: "(NIR - RED) / (NIR + RED)",
			Bands:      map[string]string{"NIR": "B8", "RED": "B4"},
		},
		{
			Name:       "NDWI",
			Expression: "(NIR - SWIR) / (NIR + SWIR)",
			Bands:      map[string]string{"NIR": "B8", "SWIR": "B11"},
		},
		{
			Name:       "EVI",
			Expression: "2.5 * ((NIR - RED) / (NIR + 6 * RED - 7.5 * BLUE + 1))",
			Bands:      map[string]string{"NIR": "B8", "RED": "B4", "BLUE": "B2"},
		},
		{
			Name:       "NDCI",
			Expression: "(RE - RED) / (RE + RED)",
			Bands:      map[string]string{"RE": "B5", "RED": "B4"},
		},
		{
			// Soil-adjusted: L=0.5 soil-brightness correction.
			Name:       "SAVI",
			Expression: "((NIR - RED) / (NIR + RED + 0.5)) * 1.5",
			Bands:      map[string]string{"NIR": "B8", "RED": "B4"},
		},
	}
}
