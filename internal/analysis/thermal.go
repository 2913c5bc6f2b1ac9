package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/paulmach/orb/geojson"

	"github.com/agrovisio/satfield/internal/ee"
	"github.com/agrovisio/satfield/pkg/eequery"
)

// ErrThermalUnavailable indicates no usable surface-temperature data for the
// requested window. Thermal stats degrade to null, the run continues.
var ErrThermalUnavailable = errors.New("thermal data unavailable")

type thermalStats struct {
	MeanC *float64
	MinC  *float64
	MaxC  *float64
}

// reduceThermal computes surface-temperature statistics over the ROI. Any
// failure is logged and reported as empty stats; thermal never aborts a run.
func (a *Analyzer) reduceThermal(ctx context.Context, geom *geojson.Geometry, startDate, endDate string) thermalStats {
	spec := a.builder.BuildThermalQuery(eequery.CompositeParams{
		Geometry:  geom,
		StartDate: startDate,
		EndDate:   endDate,
	})
	values, err := a.svc.ReduceRegion(ctx, ee.ReduceRegionRequest{
		Source:    spec,
		Geometry:  geom,
		Bands:     []string{eequery.ThermalBand},
		Reducers:  []string{"mean", "min", "max"},
		Scale:     eequery.ThermalScale,
		MaxPixels: eequery.MaxPixels,
	})
	if err != nil {
		slog.Warn("thermal reduction failed, continuing without temperature", "error", err)
		return thermalStats{}
	}
	stats := thermalStats{
		MeanC: ptrStat(values, eequery.ThermalBand+"_mean"),
		MinC:  ptrStat(values, eequery.ThermalBand+"_min"),
		MaxC:  ptrStat(values, eequery.ThermalBand+"_max"),
	}
	if stats.MeanC == nil {
		slog.Warn("thermal reduction returned no mean", "error", ErrThermalUnavailable)
	}
	return stats
}
