package eequery

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() *geojson.Geometry {
	return geojson.NewGeometry(orb.Polygon{
		{{-6.19, 36.66}, {-6.17, 36.65}, {-6.17, 36.66}, {-6.19, 36.66}},
	})
}

func testParams() CompositeParams {
	return CompositeParams{
		Geometry:  testGeometry(),
		StartDate: "2025-01-01",
		EndDate:   "2025-02-01",
	}
}

func TestBuildCompositeQuery_Constants(t *testing.T) {
	var b Builder
	spec := b.BuildCompositeQuery(testParams())

	assert.Equal(t, "COPERNICUS/S2_SR_HARMONIZED", spec.Dataset)
	assert.Equal(t, "CLOUDY_PIXEL_PERCENTAGE", spec.CloudProperty)
	assert.Equal(t, 30.0, spec.MaxCloudPct)
	assert.Equal(t, "QA60", spec.QualityBand)
	assert.Equal(t, []int{10, 11}, spec.QualityBits)
	assert.Equal(t, "SCL", spec.ClassBand)
	assert.Equal(t, []int{3, 8, 9, 10, 11}, spec.ExcludeClasses)
	assert.InEpsilon(t, 1.0/10000.0, spec.ReflectanceScale, 1e-12)
	assert.Equal(t, "median", spec.Reducer)
	assert.Equal(t, "2025-01-01", spec.StartDate)
	assert.Equal(t, "2025-02-01", spec.EndDate)
}

func TestBuildCompositeQuery_Indices(t *testing.T) {
	var b Builder
	spec := b.BuildCompositeQuery(testParams())

	require.Len(t, spec.Indices, 5)

	byName := map[string]IndexSpec{}
	for _, idx := range spec.Indices {
		byName[idx.Name] = idx
	}

	ndvi := byName["NDVI"]
	assert.Equal(t, "(NIR - RED) / (NIR + RED)", ndvi.Expression)
	assert.Equal(t, map[string]string{"NIR": "B8", "RED": "B4"}, ndvi.Bands)

	ndwi := byName["NDWI"]
	assert.Equal(t, "B11", ndwi.Bands["SWIR"])

	evi := byName["EVI"]
	assert.Contains(t, evi.Expression, "7.5 * BLUE")
	assert.Equal(t, "B2", evi.Bands["BLUE"])

	ndci := byName["NDCI"]
	assert.Equal(t, "B5", ndci.Bands["RE"], "chlorophyll index uses the red-edge band")

	savi := byName["SAVI"]
	assert.Contains(t, savi.Expression, "0.5", "SAVI carries the fixed soil-brightness constant")
}

func TestBuildHistoricalQuery_MeanReducer(t *testing.T) {
	var b Builder
	spec := b.BuildHistoricalQuery(testParams())

	assert.Equal(t, "mean", spec.Reducer)
	// Everything else matches the display composite.
	assert.Equal(t, "COPERNICUS/S2_SR_HARMONIZED", spec.Dataset)
	assert.Len(t, spec.Indices, 5)
}

func TestBuildThermalQuery(t *testing.T) {
	var b Builder
	spec := b.BuildThermalQuery(testParams())

	assert.Equal(t, "MODIS/061/MOD11A2", spec.Dataset)
	assert.Equal(t, []string{"LST_Day_1km"}, spec.Bands)
	require.NotNil(t, spec.Linear)
	assert.Equal(t, 0.02, spec.Linear.Mult)
	assert.Equal(t, -273.15, spec.Linear.Add)
	assert.Equal(t, "median", spec.Reducer)
	assert.Empty(t, spec.Indices)
	assert.Zero(t, spec.MaxCloudPct)
}
