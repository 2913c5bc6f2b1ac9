// Package export submits the fixed artifact set of an analysis run to the
// remote compute service as asynchronous export tasks.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/agrovisio/satfield/internal/analysis"
	"github.com/agrovisio/satfield/internal/ee"
	"github.com/agrovisio/satfield/pkg/eequery"
	"github.com/agrovisio/satfield/pkg/models"
)

// rasterBands maps raster artifact tags to the composite band they export.
var rasterBands = map[string]string{
	models.ArtifactNDVIMap: "NDVI",
	models.ArtifactNDWIMap: "NDWI",
	models.ArtifactEVIMap:  "EVI",
	models.ArtifactNDCIMap: "NDCI",
}

// Orchestrator submits one export task per artifact and starts each task
// right after submission.
type Orchestrator struct {
	svc    ee.Service
	folder string
}

func NewOrchestrator(svc ee.Service, driveFolder string) *Orchestrator {
	return &Orchestrator{svc: svc, folder: driveFolder}
}

// Submit creates the six export tasks for a finished analysis run. Every
// submission carries a fresh idempotency key so a retried invocation cannot
// duplicate artifacts on the service side. A submission failure aborts; a
// start failure is logged and the remaining tasks proceed, since a submitted
// task can still be started by a later start-tasks invocation.
func (o *Orchestrator) Submit(ctx context.Context, job models.Job, result *analysis.Result) ([]models.ExportTask, error) {
	tasks := make([]models.ExportTask, 0, len(models.ArtifactTypes()))

	for _, artifact := range models.ArtifactTypes() {
		description := TaskDescription(job.ID, artifact)
		fileName := models.ArtifactFileName(artifact, job.ID)
		prefix := strings.TrimSuffix(strings.TrimSuffix(fileName, ".tif"), ".csv")

		var (
			taskID string
			err    error
		)
		switch artifact {
		case models.ArtifactKPIs:
			taskID, err = o.svc.ExportTable(ctx, ee.TableExport{
				Description:    description,
				FileNamePrefix: prefix,
				Folder:         o.folder,
				Format:         "CSV",
				Rows:           []map[string]any{kpiRow(job, result.KPIs)},
				RequestID:      uuid.New().String(),
			})
		case models.ArtifactTimeseries:
			taskID, err = o.svc.ExportTable(ctx, ee.TableExport{
				Description:    description,
				FileNamePrefix: prefix,
				Folder:         o.folder,
				Format:         "CSV",
				Series: &ee.SeriesSpec{
					Source:   result.Composite,
					Geometry: result.Geometry,
					Bands:    []string{"NDVI", "NDWI", "EVI"},
					Reducer:  "mean",
					Scale:    eequery.SeriesScale,
				},
				RequestID: uuid.New().String(),
			})
		default:
			taskID, err = o.svc.ExportImage(ctx, ee.ImageExport{
				Source:         result.Composite,
				Band:           rasterBands[artifact],
				Description:    description,
				FileNamePrefix: prefix,
				Folder:         o.folder,
				Region:         result.Geometry,
				Scale:          eequery.NativeScale,
				MaxPixels:      eequery.MaxPixels,
				Format:         "GeoTIFF",
				CloudOptimized: true,
				RequestID:      uuid.New().String(),
			})
		}
		if err != nil {
			return nil, fmt.Errorf("submitting %s export: %w", artifact, err)
		}

		if err := o.svc.StartTask(ctx, taskID); err != nil {
			slog.Warn("starting export task failed, task remains submitted",
				"task_id", taskID, "artifact", artifact, "error", err)
		}

		tasks = append(tasks, models.ExportTask{
			Description: description,
			Type:        artifact,
			FileName:    fileName,
			TaskID:      taskID,
			State:       models.TaskReady,
		})
		slog.Info("export task submitted", "job_id", job.ID, "artifact", artifact, "task_id", taskID)
	}

	return tasks, nil
}

// TaskDescription builds the remote task description that correlates a task
// back to its job, as "{job_id}_{ARTIFACT}".
func TaskDescription(jobID, artifactType string) string {
	return jobID + "_" + strings.ToUpper(artifactType)
}

// kpiRow flattens the KPI record into one table row, tagged with the job
// identity and analysis window.
func kpiRow(job models.Job, kpis models.KPIRecord) map[string]any {
	row := map[string]any{}
	raw, _ := json.Marshal(kpis)
	_ = json.Unmarshal(raw, &row)
	row["job_id"] = job.ID
	row["crop"] = job.Crop
	row["start_date"] = job.StartDate
	row["end_date"] = job.EndDate
	return row
}
