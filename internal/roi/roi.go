// Package roi parses and normalizes field boundaries into compute-service
// geometries. Geometry math beyond area (buffering in particular) is
// delegated to the remote service.
package roi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agrovisio/satfield/internal/ee"
)

// ErrInvalidGeometry marks a boundary that is not parseable JSON or lacks a
// recognizable geometry structure. It aborts the whole invocation.
var ErrInvalidGeometry = errors.New("invalid roi geometry")

//go:embed geojson.schema.json
var geojsonSchema string

var boundarySchema = jsonschema.MustCompileString("geojson.schema.json", geojsonSchema)

// Parse normalizes raw GeoJSON into a single geometry. A FeatureCollection
// becomes the union of its feature geometries, a Feature contributes its
// geometry, anything else is treated as a bare geometry.
func Parse(raw []byte) (*geojson.Geometry, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if err := boundarySchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return unionFeatures(fc)
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: feature without geometry", ErrInvalidGeometry)
		}
		return geojson.NewGeometry(f.Geometry), nil
	default:
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return g, nil
	}
}

// unionFeatures merges all feature geometries. Purely polygonal input yields
// a MultiPolygon; mixed input falls back to a geometry collection.
func unionFeatures(fc *geojson.FeatureCollection) (*geojson.Geometry, error) {
	var geoms []orb.Geometry
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		geoms = append(geoms, f.Geometry)
	}
	if len(geoms) == 0 {
		return nil, fmt.Errorf("%w: feature collection without geometries", ErrInvalidGeometry)
	}
	if len(geoms) == 1 {
		return geojson.NewGeometry(geoms[0]), nil
	}

	var mp orb.MultiPolygon
	for _, g := range geoms {
		switch v := g.(type) {
		case orb.Polygon:
			mp = append(mp, v)
		case orb.MultiPolygon:
			mp = append(mp, v...)
		default:
			return geojson.NewGeometry(orb.Collection(geoms)), nil
		}
	}
	return geojson.NewGeometry(mp), nil
}

// AreaHa returns the geodesic area of the geometry in hectares.
func AreaHa(g *geojson.Geometry) float64 {
	if g == nil {
		return 0
	}
	return geo.Area(g.Geometry()) / 1e4
}

// Builder resolves raw boundaries into ready-to-use ROI geometries.
type Builder struct {
	svc ee.Service
}

func NewBuilder(svc ee.Service) *Builder {
	return &Builder{svc: svc}
}

// Build parses the raw boundary and, for a positive buffer distance, dilates
// it outward through the compute service. A zero buffer performs no remote
// call at all.
func (b *Builder) Build(ctx context.Context, raw []byte, bufferMeters float64) (*geojson.Geometry, error) {
	geom, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	if bufferMeters > 0 {
		buffered, err := b.svc.BufferGeometry(ctx, geom, bufferMeters)
		if err != nil {
			return nil, fmt.Errorf("buffering roi: %w", err)
		}
		geom = buffered
	}

	return geom, nil
}
