package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ImportRun records one import or scrape execution in the operational store.
type ImportRun struct {
	ID          int64      `json:"id" db:"id"`
	Source      string     `json:"source" db:"source"` // site id or "csv"
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at" db:"finished_at"`
	Status      RunStatus  `json:"status" db:"status"`
	RowsFound   int        `json:"rows_found" db:"rows_found"`
	Imported    int        `json:"imported" db:"imported"`
	Skipped     int        `json:"skipped" db:"skipped"`
	ErrorsCount int        `json:"errors_count" db:"errors_count"`
}

type SourceStats struct {
	Source            string     `json:"source" db:"source"`
	LastRunAt         *time.Time `json:"last_run_at" db:"last_run_at"`
	LastRunStatus     string     `json:"last_run_status" db:"last_run_status"`
	TotalImported     int        `json:"total_imported" db:"total_imported"`
	TotalSkipped      int        `json:"total_skipped" db:"total_skipped"`
	SuccessRate       float64    `json:"success_rate" db:"success_rate"`
	AvgRunDurationSec int        `json:"avg_run_duration_sec" db:"avg_run_duration_sec"`
}
