package models

// KPIRecord is the flat metric set computed by an execute invocation.
// Every key below is always present in the JSON output: statistics whose
// underlying reducer returned no data are coalesced to 0 for indices and
// null for thermal and phenology fields, never omitted. Values are rounded
// to display precision at this boundary only (3 decimals for indices, 2 for
// area and z-score, 1 for stress percentage and thermal).
type KPIRecord struct {
	NDVIMean   float64 `json:"ndvi_mean"`
	NDVIP10    float64 `json:"ndvi_p10"`
	NDVIP50    float64 `json:"ndvi_p50"`
	NDVIP90    float64 `json:"ndvi_p90"`
	NDVIStdDev float64 `json:"ndvi_stddev"`

	NDWIMean float64 `json:"ndwi_mean"`
	NDWIP10  float64 `json:"ndwi_p10"`
	NDWIP90  float64 `json:"ndwi_p90"`

	EVIMean float64 `json:"evi_mean"`
	EVIP10  float64 `json:"evi_p10"`
	EVIP90  float64 `json:"evi_p90"`

	NDCIMean float64 `json:"ndci_mean"`
	SAVIMean float64 `json:"savi_mean"`

	// NDVIZScore is the anomaly of the composite NDVI mean against the
	// historical collection mean, in historical standard deviations.
	NDVIZScore float64 `json:"ndvi_zscore"`

	StressAreaHa  float64 `json:"stress_area_ha"`
	StressAreaPct float64 `json:"stress_area_pct"`

	ThermalMeanC *float64 `json:"thermal_mean_c"`
	ThermalMinC  *float64 `json:"thermal_min_c"`
	ThermalMaxC  *float64 `json:"thermal_max_c"`

	ImageCount      int     `json:"image_count"`
	ValidPixelCount int64   `json:"valid_pixel_count"`
	AreaHa          float64 `json:"area_ha"`

	// Phenological context. Expected NDVI and deviation are null for crops
	// without a reference curve.
	NDVIExpected     *float64 `json:"ndvi_expected"`
	NDVIDeviationPct *float64 `json:"ndvi_deviation_pct"`
	PhenoPhase       string   `json:"pheno_phase"`
	PhenoStatus      string   `json:"pheno_status"`
}
