package roi

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovisio/satfield/internal/ee/mock"
)

const polygonJSON = `{
	"type": "Polygon",
	"coordinates": [[
		[-6.192790515087148, 36.66142740600855],
		[-6.172362811229726, 36.655643665060126],
		[-6.17425108637621, 36.665282991898934],
		[-6.192790515087148, 36.66142740600855]
	]]
}`

func TestParse_BareGeometry(t *testing.T) {
	g, err := Parse([]byte(polygonJSON))
	require.NoError(t, err)
	assert.Equal(t, "Polygon", g.Type)
}

func TestParse_Feature(t *testing.T) {
	raw := `{"type":"Feature","properties":{"name":"parcela 7"},"geometry":` + polygonJSON + `}`
	g, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Polygon", g.Type)
}

func TestParse_FeatureCollectionUnion(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.01,0],[0.01,0.01],[0,0]]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[1,1],[1.01,1],[1.01,1.01],[1,1]]]}}
	]}`
	g, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, "MultiPolygon", g.Type)

	mp, ok := g.Geometry().(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, mp, 2)
}

func TestParse_FeatureCollectionSingleFeature(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":` + polygonJSON + `}
	]}`
	g, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Polygon", g.Type)
}

func TestParse_FeatureCollectionMixedTypes(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.01,0],[0.01,0.01],[0,0]]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,1]}}
	]}`
	g, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "GeometryCollection", g.Type)
}

func TestParse_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{“boundary”`},
		{name: "no type discriminator", raw: `{"coordinates":[[1,2]]}`},
		{name: "unknown type", raw: `{"type":"Parcel"}`},
		{name: "polygon without coordinates", raw: `{"type":"Polygon"}`},
		{name: "feature with null geometry", raw: `{"type":"Feature","properties":{},"geometry":null}`},
		{name: "empty feature collection", raw: `{"type":"FeatureCollection","features":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}
}

func TestAreaHa_SquareAtEquator(t *testing.T) {
	// 0.009 degrees is just over 1 km at the equator, so this square is
	// close to 100 ha.
	g := geojson.NewGeometry(orb.Polygon{
		{{0, 0}, {0.009, 0}, {0.009, 0.009}, {0, 0.009}, {0, 0}},
	})
	ha := AreaHa(g)
	assert.InDelta(t, 100.0, ha, 1.0)
}

func TestAreaHa_NilGeometry(t *testing.T) {
	assert.Zero(t, AreaHa(nil))
}

func TestBuild_PositiveBufferDelegates(t *testing.T) {
	buffered := geojson.NewGeometry(orb.Polygon{
		{{-1, -1}, {2, -1}, {2, 2}, {-1, 2}, {-1, -1}},
	})

	var gotMeters float64
	svc := &mock.Service{
		BufferGeometryFunc: func(_ context.Context, g *geojson.Geometry, meters float64) (*geojson.Geometry, error) {
			gotMeters = meters
			return buffered, nil
		},
	}

	b := NewBuilder(svc)
	g, err := b.Build(context.Background(), []byte(polygonJSON), 25)
	require.NoError(t, err)
	assert.Equal(t, 25.0, gotMeters)
	assert.Equal(t, buffered, g)
}

func TestBuild_ZeroBufferSkipsRemoteCall(t *testing.T) {
	svc := &mock.Service{
		BufferGeometryFunc: func(_ context.Context, g *geojson.Geometry, _ float64) (*geojson.Geometry, error) {
			t.Fatal("BufferGeometry must not be called for zero buffer")
			return g, nil
		},
	}

	b := NewBuilder(svc)
	g, err := b.Build(context.Background(), []byte(polygonJSON), 0)
	require.NoError(t, err)
	assert.Equal(t, "Polygon", g.Type)
}

func TestBuild_InvalidGeometryIsFatal(t *testing.T) {
	b := NewBuilder(&mock.Service{})
	_, err := b.Build(context.Background(), []byte(`not geojson`), 0)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}
