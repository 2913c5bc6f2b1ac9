// Package status reads the remote task registry and derives per-job
// lifecycle summaries. Nothing here is persisted: every query starts from a
// fresh registry snapshot.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/agrovisio/satfield/internal/ee"
	"github.com/agrovisio/satfield/pkg/models"
)

// Classify buckets a raw remote state string into a lifecycle state.
// Cancellation transients count as running; anything unrecognized is pending.
func Classify(remote string) models.TaskState {
	switch strings.ToUpper(remote) {
	case "READY":
		return models.TaskReady
	case "RUNNING", "CANCELLING", "CANCEL_REQUESTED":
		return models.TaskRunning
	case "COMPLETED":
		return models.TaskCompleted
	case "FAILED":
		return models.TaskFailed
	default:
		return models.TaskPending
	}
}

// Summarize derives the aggregate view of a task set. A job is complete only
// when it has at least one task and every task completed.
func Summarize(tasks []models.ExportTask) models.StatusSummary {
	var s models.StatusSummary
	s.Total = len(tasks)
	for _, t := range tasks {
		switch t.State {
		case models.TaskReady:
			s.Ready++
		case models.TaskRunning:
			s.Running++
		case models.TaskCompleted:
			s.Completed++
		case models.TaskFailed:
			s.Failed++
		default:
			s.Pending++
		}
	}
	s.AllComplete = s.Total > 0 && s.Completed == s.Total && s.Running == 0 && s.Pending == 0
	s.AnyFailed = s.Failed > 0
	if s.Total > 0 {
		s.ProgressPct = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// Aggregator correlates registry tasks back to jobs.
type Aggregator struct {
	svc ee.Service
}

func NewAggregator(svc ee.Service) *Aggregator {
	return &Aggregator{svc: svc}
}

// Snapshot lists the registry and returns the tasks belonging to a job with
// their summary. Correlation is by substring: a task belongs to the job when
// its description contains the job id. Job ids that prefix other job ids
// will also match the longer id's tasks.
func (a *Aggregator) Snapshot(ctx context.Context, jobID string) ([]models.ExportTask, models.StatusSummary, error) {
	remote, err := a.svc.ListTasks(ctx)
	if err != nil {
		return nil, models.StatusSummary{}, fmt.Errorf("listing tasks: %w", err)
	}

	tasks := make([]models.ExportTask, 0, len(remote))
	for _, t := range remote {
		if !strings.Contains(t.Description, jobID) {
			continue
		}
		artifact := artifactFromDescription(t.Description)
		task := models.ExportTask{
			Description: t.Description,
			Type:        artifact,
			TaskID:      t.ID,
			State:       Classify(t.State),
		}
		if artifact != "" {
			task.FileName = models.ArtifactFileName(artifact, jobID)
		}
		tasks = append(tasks, task)
	}

	return tasks, Summarize(tasks), nil
}

// StartReady starts every task of the job still in READY. Start failures are
// logged and skipped; the remaining tasks are still attempted.
func (a *Aggregator) StartReady(ctx context.Context, jobID string) ([]string, error) {
	tasks, _, err := a.Snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}

	started := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.State != models.TaskReady {
			continue
		}
		if err := a.svc.StartTask(ctx, t.TaskID); err != nil {
			slog.Warn("starting task failed", "task_id", t.TaskID, "error", err)
			continue
		}
		started = append(started, t.TaskID)
	}
	return started, nil
}

// DownloadResult reports whether a job's artifacts are ready and, when they
// are, the file manifest to collect from the output folder.
type DownloadResult struct {
	Status    string               `json:"status"` // "ready" or "waiting"
	Ready     bool                 `json:"download_ready"`
	Files     []string             `json:"files,omitempty"`
	OutputDir string               `json:"output_dir,omitempty"`
	Summary   models.StatusSummary `json:"summary"`
}

// Download gates artifact collection on full completion. While any task is
// still in flight it reports not ready and lists nothing; no partial
// manifests. The output directory is created only once the job is complete.
func (a *Aggregator) Download(ctx context.Context, jobID, outputDir string) (*DownloadResult, error) {
	tasks, summary, err := a.Snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}

	result := &DownloadResult{Status: "waiting", Summary: summary}
	if !summary.AllComplete {
		return result, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	files := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.FileName != "" {
			files = append(files, t.FileName)
		}
	}

	result.Status = "ready"
	result.Ready = true
	result.Files = files
	result.OutputDir = outputDir
	return result, nil
}

// artifactFromDescription recovers the artifact type from the task
// description suffix. Unknown descriptions yield an empty type.
func artifactFromDescription(description string) string {
	for _, artifact := range models.ArtifactTypes() {
		if strings.HasSuffix(description, "_"+strings.ToUpper(artifact)) {
			return artifact
		}
	}
	return ""
}
