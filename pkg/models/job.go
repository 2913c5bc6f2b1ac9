// Package models contains shared data models used across the satfield codebase.
package models

// Job describes one logical analysis request. A job has no persisted
// lifecycle of its own: it exists only as the set of remote export tasks
// whose description contains its ID.
type Job struct {
	// ID is externally assigned and opaque. It doubles as the correlation
	// key: a remote task belongs to this job iff ID is a substring of the
	// task description.
	ID           string  `json:"job_id"`
	Crop         string  `json:"crop_type"`
	AnalysisType string  `json:"analysis_type"`
	StartDate    string  `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate      string  `json:"end_date"`   // YYYY-MM-DD, exclusive
	BufferMeters float64 `json:"buffer_meters"`
	DriveFolder  string  `json:"drive_folder"`
}
