// Package mock provides a substitutable fake for ee.Service. Every pipeline
// and orchestrator test runs against it; no test touches the real service.
package mock

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/agrovisio/satfield/internal/ee"
	"github.com/agrovisio/satfield/pkg/eequery"
)

// Service satisfies ee.Service for testing. Set the function fields to
// override behavior per test; unset fields fall back to empty results.
type Service struct {
	BufferGeometryFunc   func(ctx context.Context, geom *geojson.Geometry, meters float64) (*geojson.Geometry, error)
	QueryScenesFunc      func(ctx context.Context, spec eequery.CompositeSpec) ([]ee.Scene, error)
	ReduceRegionFunc     func(ctx context.Context, req ee.ReduceRegionRequest) (map[string]*float64, error)
	ReduceCollectionFunc func(ctx context.Context, req ee.CollectionReduceRequest) (ee.CollectionStats, error)
	ExportImageFunc      func(ctx context.Context, req ee.ImageExport) (string, error)
	ExportTableFunc      func(ctx context.Context, req ee.TableExport) (string, error)
	StartTaskFunc        func(ctx context.Context, taskID string) error
	ListTasksFunc        func(ctx context.Context) ([]ee.Task, error)

	// Submissions records every export request, in order.
	Submissions []string
	// Started records every StartTask call, in order.
	Started []string
}

func (s *Service) BufferGeometry(ctx context.Context, geom *geojson.Geometry, meters float64) (*geojson.Geometry, error) {
	if s.BufferGeometryFunc != nil {
		return s.BufferGeometryFunc(ctx, geom, meters)
	}
	return geom, nil
}

func (s *Service) QueryScenes(ctx context.Context, spec eequery.CompositeSpec) ([]ee.Scene, error) {
	if s.QueryScenesFunc != nil {
		return s.QueryScenesFunc(ctx, spec)
	}
	return []ee.Scene{}, nil
}

func (s *Service) ReduceRegion(ctx context.Context, req ee.ReduceRegionRequest) (map[string]*float64, error) {
	if s.ReduceRegionFunc != nil {
		return s.ReduceRegionFunc(ctx, req)
	}
	return map[string]*float64{}, nil
}

func (s *Service) ReduceCollection(ctx context.Context, req ee.CollectionReduceRequest) (ee.CollectionStats, error) {
	if s.ReduceCollectionFunc != nil {
		return s.ReduceCollectionFunc(ctx, req)
	}
	return ee.CollectionStats{}, nil
}

func (s *Service) ExportImage(ctx context.Context, req ee.ImageExport) (string, error) {
	s.Submissions = append(s.Submissions, req.Description)
	if s.ExportImageFunc != nil {
		return s.ExportImageFunc(ctx, req)
	}
	return fmt.Sprintf("TASK_%d", len(s.Submissions)), nil
}

func (s *Service) ExportTable(ctx context.Context, req ee.TableExport) (string, error) {
	s.Submissions = append(s.Submissions, req.Description)
	if s.ExportTableFunc != nil {
		return s.ExportTableFunc(ctx, req)
	}
	return fmt.Sprintf("TASK_%d", len(s.Submissions)), nil
}

func (s *Service) StartTask(ctx context.Context, taskID string) error {
	s.Started = append(s.Started, taskID)
	if s.StartTaskFunc != nil {
		return s.StartTaskFunc(ctx, taskID)
	}
	return nil
}

func (s *Service) ListTasks(ctx context.Context) ([]ee.Task, error) {
	if s.ListTasksFunc != nil {
		return s.ListTasksFunc(ctx)
	}
	return []ee.Task{}, nil
}

// NewHealthyService returns a Service whose reductions yield a plausible,
// internally consistent statistics set for a mid-season field.
func NewHealthyService() *Service {
	return &Service{
		QueryScenesFunc: func(_ context.Context, _ eequery.CompositeSpec) ([]ee.Scene, error) {
			return []ee.Scene{
				{ID: "S2A_20250105", Date: "2025-01-05", CloudCover: 4.2},
				{ID: "S2B_20250117", Date: "2025-01-17", CloudCover: 9.8},
				{ID: "S2A_20250129", Date: "2025-01-29", CloudCover: 1.3},
			}, nil
		},
		ReduceRegionFunc: func(_ context.Context, req ee.ReduceRegionRequest) (map[string]*float64, error) {
			if req.Mask != nil {
				// Stress-area reduction: 10 ha of stressed pixels.
				return map[string]*float64{"area_sum": f(100000)}, nil
			}
			if req.Source.Dataset == eequery.ThermalDataset {
				return map[string]*float64{
					"LST_Day_1km_mean": f(21.4),
					"LST_Day_1km_min":  f(12.9),
					"LST_Day_1km_max":  f(33.6),
				}, nil
			}
			return map[string]*float64{
				"NDVI_mean": f(0.5012), "NDVI_p10": f(0.3107), "NDVI_p50": f(0.5123),
				"NDVI_p90": f(0.6894), "NDVI_stdDev": f(0.1205), "NDVI_count": f(10000),
				"NDWI_mean": f(0.2109), "NDWI_p10": f(0.0816), "NDWI_p90": f(0.3392),
				"EVI_mean": f(0.4125), "EVI_p10": f(0.2514), "EVI_p90": f(0.5521),
				"NDCI_mean": f(0.1843), "SAVI_mean": f(0.3752),
			}, nil
		},
		ReduceCollectionFunc: func(_ context.Context, _ ee.CollectionReduceRequest) (ee.CollectionStats, error) {
			return ee.CollectionStats{Mean: f(0.44), StdDev: f(0.06), Count: 14}, nil
		},
	}
}

// NewFailingService returns a Service whose every operation returns err.
func NewFailingService(err error) *Service {
	return &Service{
		BufferGeometryFunc: func(_ context.Context, _ *geojson.Geometry, _ float64) (*geojson.Geometry, error) {
			return nil, err
		},
		QueryScenesFunc: func(_ context.Context, _ eequery.CompositeSpec) ([]ee.Scene, error) {
			return nil, err
		},
		ReduceRegionFunc: func(_ context.Context, _ ee.ReduceRegionRequest) (map[string]*float64, error) {
			return nil, err
		},
		ReduceCollectionFunc: func(_ context.Context, _ ee.CollectionReduceRequest) (ee.CollectionStats, error) {
			return ee.CollectionStats{}, err
		},
		ExportImageFunc: func(_ context.Context, _ ee.ImageExport) (string, error) {
			return "", err
		},
		ExportTableFunc: func(_ context.Context, _ ee.TableExport) (string, error) {
			return "", err
		},
		StartTaskFunc: func(_ context.Context, _ string) error {
			return err
		},
		ListTasksFunc: func(_ context.Context) ([]ee.Task, error) {
			return nil, err
		},
	}
}

func f(v float64) *float64 { return &v }

// Compile-time check that Service implements ee.Service.
var _ ee.Service = (*Service)(nil)
