package models

import "strings"

// TaskState is the lifecycle state of one remote export task, as observed
// from the task registry. State is owned exclusively by the remote compute
// service and is never cached locally across invocations.
type TaskState string

const (
	// TaskReady means the task was submitted but has not started running.
	TaskReady TaskState = "READY"
	// TaskRunning covers every in-progress state reported by the service.
	TaskRunning TaskState = "RUNNING"
	// TaskCompleted is the terminal success state.
	TaskCompleted TaskState = "COMPLETED"
	// TaskFailed is the terminal failure state.
	TaskFailed TaskState = "FAILED"
	// TaskPending buckets every state string we do not recognize.
	TaskPending TaskState = "PENDING"
)

// Artifact type tags for the fixed export set.
const (
	ArtifactNDVIMap    = "ndvi_map"
	ArtifactNDWIMap    = "ndwi_map"
	ArtifactEVIMap     = "evi_map"
	ArtifactNDCIMap    = "ndci_map"
	ArtifactKPIs       = "kpis"
	ArtifactTimeseries = "timeseries"
)

// ArtifactTypes lists every artifact of the fixed export set, in submission
// order.
func ArtifactTypes() []string {
	return []string{
		ArtifactNDVIMap,
		ArtifactNDWIMap,
		ArtifactEVIMap,
		ArtifactNDCIMap,
		ArtifactKPIs,
		ArtifactTimeseries,
	}
}

// ArtifactFileName returns the output file name an artifact is written
// under. Raster maps export as GeoTIFF, tabular artifacts as CSV.
func ArtifactFileName(artifactType, jobID string) string {
	suffix := strings.ToUpper(artifactType) + "_" + jobID
	switch artifactType {
	case ArtifactKPIs, ArtifactTimeseries:
		return suffix + ".csv"
	default:
		return suffix + ".tif"
	}
}

// ExportTask represents one remote asynchronous unit of work producing a
// downloadable artifact.
type ExportTask struct {
	// Description embeds the job ID as "{job_id}_{artifact_suffix}". This is
	// the only correlation mechanism between a job and its remote tasks.
	Description string    `json:"description"`
	Type        string    `json:"type"`
	FileName    string    `json:"file_name"`
	TaskID      string    `json:"task_id"`
	State       TaskState `json:"state"`
}

// StatusSummary is derived, never stored: it is recomputed from a fresh
// registry snapshot on every status query.
type StatusSummary struct {
	Total       int  `json:"total"`
	Ready       int  `json:"ready"`
	Running     int  `json:"running"`
	Completed   int  `json:"completed"`
	Failed      int  `json:"failed"`
	Pending     int  `json:"pending"`
	AllComplete bool `json:"all_complete"`
	AnyFailed   bool `json:"any_failed"`
	ProgressPct int  `json:"progress_pct"`
}
