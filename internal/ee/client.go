// Package ee is the client for the remote geospatial compute service. All
// image processing, statistics reduction and export execution happens on the
// service; this package only builds requests and reads results.
package ee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/agrovisio/satfield/internal/config"
	"github.com/agrovisio/satfield/pkg/eequery"
)

const authScope = "https://www.googleapis.com/auth/earthengine"

// Service is the interface to the remote compute service. Components take
// this interface, never a concrete client, so tests can substitute a fake.
type Service interface {
	// BufferGeometry dilates the geometry outward by the given distance in meters.
	BufferGeometry(ctx context.Context, geom *geojson.Geometry, meters float64) (*geojson.Geometry, error)
	// QueryScenes lists the scenes a composite spec would draw from.
	QueryScenes(ctx context.Context, spec eequery.CompositeSpec) ([]Scene, error)
	// ReduceRegion reduces a composite over a geometry to zonal statistics.
	// Reducers the service could not evaluate come back as nil values.
	ReduceRegion(ctx context.Context, req ReduceRegionRequest) (map[string]*float64, error)
	// ReduceCollection aggregates the per-scene spatial mean of one band
	// across the whole collection.
	ReduceCollection(ctx context.Context, req CollectionReduceRequest) (CollectionStats, error)
	// ExportImage submits an asynchronous raster export and returns the task id.
	ExportImage(ctx context.Context, req ImageExport) (string, error)
	// ExportTable submits an asynchronous tabular export and returns the task id.
	ExportTable(ctx context.Context, req TableExport) (string, error)
	// StartTask explicitly starts a submitted task.
	StartTask(ctx context.Context, taskID string) error
	// ListTasks returns the remote task registry for the authenticated project.
	ListTasks(ctx context.Context) ([]Task, error)
}

// Scene is one catalog entry matched by a composite spec.
type Scene struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"` // acquisition date, YYYY-MM-DD
	CloudCover float64 `json:"cloud_cover"`
}

// MaskSpec restricts a reduction to pixels where Band < LessThan.
type MaskSpec struct {
	Band     string  `json:"band"`
	LessThan float64 `json:"less_than"`
}

// ReduceRegionRequest defines one zonal-statistics reduction.
type ReduceRegionRequest struct {
	Source      eequery.CompositeSpec `json:"source"`
	Geometry    *geojson.Geometry     `json:"geometry"`
	Bands       []string              `json:"bands,omitempty"`
	Reducers    []string              `json:"reducers"` // mean, stdDev, count, min, max, pixelAreaSum
	Percentiles []int                 `json:"percentiles,omitempty"`
	Scale       float64               `json:"scale"`
	MaxPixels   float64               `json:"max_pixels"`
	Mask        *MaskSpec             `json:"mask,omitempty"`
}

// CollectionReduceRequest aggregates per-scene spatial means over time.
type CollectionReduceRequest struct {
	Source   eequery.CompositeSpec `json:"source"`
	Geometry *geojson.Geometry     `json:"geometry"`
	Band     string                `json:"band"`
	Scale    float64               `json:"scale"`
}

// CollectionStats is the temporal aggregate of a collection reduction.
// Nil fields mean the service had no data for them.
type CollectionStats struct {
	Mean   *float64 `json:"mean"`
	StdDev *float64 `json:"std_dev"`
	Count  int      `json:"count"`
}

// ImageExport submits one single-band raster artifact.
type ImageExport struct {
	Source         eequery.CompositeSpec `json:"source"`
	Band           string                `json:"band"`
	Description    string                `json:"description"`
	FileNamePrefix string                `json:"file_name_prefix"`
	Folder         string                `json:"folder"`
	Region         *geojson.Geometry     `json:"region"`
	Scale          float64               `json:"scale"`
	MaxPixels      float64               `json:"max_pixels"`
	Format         string                `json:"format"`
	CloudOptimized bool                  `json:"cloud_optimized"`
	// RequestID is a client-generated idempotency key the service may use
	// to reject duplicate submissions.
	RequestID string `json:"request_id"`
}

// SeriesSpec asks the service to reduce every scene of the collection to the
// spatial mean of the given bands, one row per scene tagged with its
// acquisition date.
type SeriesSpec struct {
	Source   eequery.CompositeSpec `json:"source"`
	Geometry *geojson.Geometry     `json:"geometry"`
	Bands    []string              `json:"bands"`
	Reducer  string                `json:"reducer"`
	Scale    float64               `json:"scale"`
}

// TableExport submits one tabular artifact: either inline rows or a
// server-side series computation, never both.
type TableExport struct {
	Description    string           `json:"description"`
	FileNamePrefix string           `json:"file_name_prefix"`
	Folder         string           `json:"folder"`
	Format         string           `json:"format"`
	Rows           []map[string]any `json:"rows,omitempty"`
	Series         *SeriesSpec      `json:"series,omitempty"`
	RequestID      string           `json:"request_id"`
}

// Task is one registry entry. State is the raw remote value; classification
// into lifecycle states happens in the status aggregator.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	State       string `json:"state"`
	Type        string `json:"type"`
}

// HTTPClient implements Service against the compute service's REST API.
type HTTPClient struct {
	baseURL string
	project string
	client  *http.Client
}

// NewHTTPClient builds a client authenticated with the configured service
// account. A key that cannot be parsed into JWT credentials is an
// initialization failure; no request is attempted.
func NewHTTPClient(cfg config.EEConfig) (*HTTPClient, error) {
	jwt, err := google.JWTConfigFromJSON([]byte(cfg.ServiceAccountKey), authScope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &oauthTransport{source: jwt.TokenSource(context.Background())},
	}

	return &HTTPClient{
		baseURL: cfg.BaseURL,
		project: cfg.Project,
		client:  client,
	}, nil
}

func (c *HTTPClient) BufferGeometry(ctx context.Context, geom *geojson.Geometry, meters float64) (*geojson.Geometry, error) {
	body := bufferRequest{Geometry: geom, DistanceMeters: meters}
	var resp bufferResponse
	if err := c.post(ctx, "geometry:buffer", body, &resp); err != nil {
		return nil, err
	}
	return resp.Geometry, nil
}

func (c *HTTPClient) QueryScenes(ctx context.Context, spec eequery.CompositeSpec) ([]Scene, error) {
	var resp scenesResponse
	if err := c.post(ctx, "scenes:query", scenesRequest{Spec: spec}, &resp); err != nil {
		return nil, err
	}
	if resp.Scenes == nil {
		return []Scene{}, nil
	}
	return resp.Scenes, nil
}

func (c *HTTPClient) ReduceRegion(ctx context.Context, req ReduceRegionRequest) (map[string]*float64, error) {
	var resp valuesResponse
	if err := c.post(ctx, "values:compute", req, &resp); err != nil {
		return nil, err
	}
	if resp.Values == nil {
		return map[string]*float64{}, nil
	}
	return resp.Values, nil
}

func (c *HTTPClient) ReduceCollection(ctx context.Context, req CollectionReduceRequest) (CollectionStats, error) {
	var stats CollectionStats
	if err := c.post(ctx, "collections:aggregate", req, &stats); err != nil {
		return CollectionStats{}, err
	}
	return stats, nil
}

func (c *HTTPClient) ExportImage(ctx context.Context, req ImageExport) (string, error) {
	var resp exportResponse
	if err := c.post(ctx, "exports:image", req, &resp); err != nil {
		return "", err
	}
	return resp.Task.ID, nil
}

func (c *HTTPClient) ExportTable(ctx context.Context, req TableExport) (string, error) {
	var resp exportResponse
	if err := c.post(ctx, "exports:table", req, &resp); err != nil {
		return "", err
	}
	return resp.Task.ID, nil
}

func (c *HTTPClient) StartTask(ctx context.Context, taskID string) error {
	path := fmt.Sprintf("tasks/%s:start", url.PathEscape(taskID))
	err := c.post(ctx, path, struct{}{}, nil)
	if err != nil && errors.Is(err, ErrCompute) {
		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
	}
	return err
}

func (c *HTTPClient) ListTasks(ctx context.Context) ([]Task, error) {
	u := fmt.Sprintf("%s/v1/projects/%s/tasks", c.baseURL, url.PathEscape(c.project))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	var tasksResp tasksResponse
	if err := json.NewDecoder(resp.Body).Decode(&tasksResp); err != nil {
		return nil, fmt.Errorf("decoding tasks response: %w", err)
	}
	if tasksResp.Tasks == nil {
		return []Task{}, nil
	}
	return tasksResp.Tasks, nil
}

// post sends one JSON request under the project prefix and decodes the
// response into out when out is non-nil.
func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/projects/%s/%s", c.baseURL, url.PathEscape(c.project), path)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// oauthTransport injects the service-account bearer token into every request.
type oauthTransport struct {
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.source.Token()
	if err != nil {
		return nil, fmt.Errorf("fetching access token: %w", err)
	}
	clone := req.Clone(req.Context())
	tok.SetAuthHeader(clone)
	return http.DefaultTransport.RoundTrip(clone)
}

// statusError carries the HTTP status alongside the ErrCompute sentinel.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("%v: status %d: %s", ErrCompute, e.code, e.message)
	}
	return fmt.Sprintf("%v: status %d", ErrCompute, e.code)
}

func (e *statusError) Unwrap() error { return ErrCompute }

func newStatusError(resp *http.Response) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &statusError{code: resp.StatusCode, message: body.Error.Message}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// --- wire types ---

type bufferRequest struct {
	Geometry       *geojson.Geometry `json:"geometry"`
	DistanceMeters float64           `json:"distance_meters"`
}

type bufferResponse struct {
	Geometry *geojson.Geometry `json:"geometry"`
}

type scenesRequest struct {
	Spec eequery.CompositeSpec `json:"spec"`
}

type scenesResponse struct {
	Scenes []Scene `json:"scenes"`
}

type valuesResponse struct {
	Values map[string]*float64 `json:"values"`
}

type exportResponse struct {
	Task Task `json:"task"`
}

type tasksResponse struct {
	Tasks []Task `json:"tasks"`
}

// Compile-time check that HTTPClient implements Service.
var _ Service = (*HTTPClient)(nil)
