// Package analysis runs the agronomic KPI pipeline: composite statistics,
// stress surface, anomaly z-score, temperature and phenological context.
// All pixel work happens on the remote compute service; this package only
// sequences reductions and shapes their results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/agrovisio/satfield/internal/ee"
	"github.com/agrovisio/satfield/internal/roi"
	"github.com/agrovisio/satfield/pkg/eequery"
	"github.com/agrovisio/satfield/pkg/models"
)

// ErrEmptyCollection indicates no scene passed the cloud and date filters.
// It is a data condition, not a failure; callers report it and exit cleanly.
var ErrEmptyCollection = errors.New("no scenes match the requested window")

// fallbackStdDev replaces a missing or zero historical standard deviation so
// the z-score stays finite.
const fallbackStdDev = 0.1

// Result is the full outcome of one analysis run.
type Result struct {
	KPIs      models.KPIRecord      `json:"kpis"`
	Scenes    []ee.Scene            `json:"scenes"`
	Composite eequery.CompositeSpec `json:"-"`
	Geometry  *geojson.Geometry     `json:"-"`
}

// Analyzer sequences the remote reductions for one job.
type Analyzer struct {
	svc     ee.Service
	builder eequery.Builder
}

func NewAnalyzer(svc ee.Service) *Analyzer {
	return &Analyzer{svc: svc}
}

// Run computes the KPI record for a job over a resolved ROI geometry.
// Returns ErrEmptyCollection when no scene survives filtering.
func (a *Analyzer) Run(ctx context.Context, job models.Job, geom *geojson.Geometry) (*Result, error) {
	params := eequery.CompositeParams{
		Geometry:  geom,
		StartDate: job.StartDate,
		EndDate:   job.EndDate,
	}
	composite := a.builder.BuildCompositeQuery(params)

	scenes, err := a.svc.QueryScenes(ctx, composite)
	if err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrEmptyCollection, job.StartDate, job.EndDate)
	}
	slog.Info("scene query complete", "job_id", job.ID, "scenes", len(scenes))

	values, err := a.svc.ReduceRegion(ctx, ee.ReduceRegionRequest{
		Source:      composite,
		Geometry:    geom,
		Reducers:    []string{"mean", "percentile", "stdDev", "count"},
		Percentiles: []int{10, 50, 90},
		Scale:       eequery.NativeScale,
		MaxPixels:   eequery.MaxPixels,
	})
	if err != nil {
		return nil, fmt.Errorf("reducing composite statistics: %w", err)
	}

	areaHa := roi.AreaHa(geom)

	stressHa, stressPct, err := a.reduceStress(ctx, composite, geom, areaHa)
	if err != nil {
		return nil, err
	}

	zScore, err := a.anomalyZScore(ctx, params, geom, statOr(values, "NDVI_mean", 0))
	if err != nil {
		return nil, err
	}

	thermal := a.reduceThermal(ctx, geom, job.StartDate, job.EndDate)

	doy := latestSceneDOY(scenes)
	pheno := phenoContext(job.Crop, doy, statOr(values, "NDVI_mean", 0))

	kpis := models.KPIRecord{
		NDVIMean:   round3(statOr(values, "NDVI_mean", 0)),
		NDVIP10:    round3(statOr(values, "NDVI_p10", 0)),
		NDVIP50:    round3(statOr(values, "NDVI_p50", 0)),
		NDVIP90:    round3(statOr(values, "NDVI_p90", 0)),
		NDVIStdDev: round3(statOr(values, "NDVI_stdDev", 0)),

		NDWIMean: round3(statOr(values, "NDWI_mean", 0)),
		NDWIP10:  round3(statOr(values, "NDWI_p10", 0)),
		NDWIP90:  round3(statOr(values, "NDWI_p90", 0)),

		EVIMean: round3(statOr(values, "EVI_mean", 0)),
		EVIP10:  round3(statOr(values, "EVI_p10", 0)),
		EVIP90:  round3(statOr(values, "EVI_p90", 0)),

		NDCIMean: round3(statOr(values, "NDCI_mean", 0)),
		SAVIMean: round3(statOr(values, "SAVI_mean", 0)),

		NDVIZScore: round2(zScore),

		StressAreaHa:  round2(stressHa),
		StressAreaPct: round1(stressPct),

		ThermalMeanC: round1Ptr(thermal.MeanC),
		ThermalMinC:  round1Ptr(thermal.MinC),
		ThermalMaxC:  round1Ptr(thermal.MaxC),

		ImageCount:      len(scenes),
		ValidPixelCount: int64(statOr(values, "NDVI_count", 0)),
		AreaHa:          round2(areaHa),

		NDVIExpected:     pheno.expected,
		NDVIDeviationPct: pheno.deviationPct,
		PhenoPhase:       pheno.phase,
		PhenoStatus:      pheno.status,
	}

	return &Result{
		KPIs:      kpis,
		Scenes:    scenes,
		Composite: composite,
		Geometry:  geom,
	}, nil
}

// reduceStress computes the surface in hectares where composite NDVI falls
// below the stress threshold, and its share of the ROI. A zero-area ROI
// reports zero percent rather than dividing by zero.
func (a *Analyzer) reduceStress(ctx context.Context, composite eequery.CompositeSpec, geom *geojson.Geometry, areaHa float64) (ha, pct float64, err error) {
	values, err := a.svc.ReduceRegion(ctx, ee.ReduceRegionRequest{
		Source:    composite,
		Geometry:  geom,
		Bands:     []string{"NDVI"},
		Reducers:  []string{"pixelAreaSum"},
		Scale:     eequery.NativeScale,
		MaxPixels: eequery.MaxPixels,
		Mask:      &ee.MaskSpec{Band: "NDVI", LessThan: eequery.StressNDVIThreshold},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("reducing stress area: %w", err)
	}

	ha = statOr(values, "area_sum", 0) / 1e4
	if areaHa > 0 {
		pct = ha / areaHa * 100
	}
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	return ha, pct, nil
}

// anomalyZScore compares the composite NDVI mean against the per-scene mean
// of a historical collection. A missing baseline yields zero.
func (a *Analyzer) anomalyZScore(ctx context.Context, params eequery.CompositeParams, geom *geojson.Geometry, ndviMean float64) (float64, error) {
	hist, err := a.svc.ReduceCollection(ctx, ee.CollectionReduceRequest{
		Source:   a.builder.BuildHistoricalQuery(params),
		Geometry: geom,
		Band:     "NDVI",
		Scale:    eequery.HistoricalScale,
	})
	if err != nil {
		return 0, fmt.Errorf("reducing historical baseline: %w", err)
	}
	if hist.Mean == nil {
		return 0, nil
	}
	std := fallbackStdDev
	if hist.StdDev != nil && *hist.StdDev > 0 {
		std = *hist.StdDev
	}
	return (ndviMean - *hist.Mean) / std, nil
}

type phenoResult struct {
	expected     *float64
	deviationPct *float64
	phase        string
	status       string
}

// phenoContext contrasts the observed NDVI mean with the crop's expected
// curve at the given day of year.
func phenoContext(crop string, doy int, ndviMean float64) phenoResult {
	res := phenoResult{
		phase:  PhenoPhase(crop, doy),
		status: StatusNoData,
	}
	expected := ExpectedNDVI(crop, doy)
	if expected == nil || *expected == 0 {
		return res
	}
	dev := (ndviMean - *expected) / *expected * 100

	exp := round3(*expected)
	devRounded := round1(dev)
	res.expected = &exp
	res.deviationPct = &devRounded
	res.status = PhenoStatus(&dev)
	return res
}

// latestSceneDOY returns the day of year of the most recent scene date.
// Unparseable or missing dates fall back to today.
func latestSceneDOY(scenes []ee.Scene) int {
	latest := ""
	for _, s := range scenes {
		if s.Date > latest {
			latest = s.Date
		}
	}
	if t, err := time.Parse("2006-01-02", latest); err == nil {
		return t.YearDay()
	}
	return time.Now().YearDay()
}
