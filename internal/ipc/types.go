package ipc

import (
	"encoding/json"
	"time"

	"docpress/internal/daemon"
	"docpress/internal/history"
)

// ConvertStartRequest submits a new streaming conversion.
type ConvertStartRequest struct {
	Command    string         `json:"command"`
	InputPaths []string       `json:"input_paths"`
	OutputDir  string         `json:"output_dir,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// ConvertStartResponse carries the token identifying the launched job.
type ConvertStartResponse struct {
	Token string `json:"token"`
}

// ConvertEventsRequest tails a job's event journal from a cursor.
type ConvertEventsRequest struct {
	Token string `json:"token"`
	After uint64 `json:"after"`
	Limit int    `json:"limit,omitempty"`
	Wait  bool   `json:"wait,omitempty"`
}

// ConvertEventsResponse returns journal events and, once the job is done and
// drained, its terminal result.
type ConvertEventsResponse struct {
	Events []daemon.JobEvent `json:"events,omitempty"`
	Next   uint64            `json:"next"`
	Done   bool              `json:"done"`
	Result *daemon.Result    `json:"result,omitempty"`
}

// LicenseRequest runs a short-lived worker command.
type LicenseRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// LicenseResponse carries the worker's decoded stdout document.
type LicenseResponse struct {
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	ActiveJobs    int            `json:"active_jobs"`
	JobStats      map[string]int `json:"job_stats,omitempty"`
	HistoryDBPath string         `json:"history_db_path"`
	LockPath      string         `json:"lock_path"`
	SocketPath    string         `json:"socket_path"`
	LogPath       string         `json:"log_path"`
	PID           int            `json:"pid"`
}

// JobSummary mirrors a history row for IPC callers.
type JobSummary struct {
	Token           string    `json:"token"`
	Command         string    `json:"command"`
	InputPaths      []string  `json:"input_paths,omitempty"`
	OutputDir       string    `json:"output_dir,omitempty"`
	Status          string    `json:"status"`
	ProgressStage   string    `json:"progress_stage,omitempty"`
	ProgressPercent float64   `json:"progress_percent"`
	ProgressMessage string    `json:"progress_message,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ExitCode        *int64    `json:"exit_code,omitempty"`
	StderrTail      string    `json:"stderr_tail,omitempty"`
	ResultJSON      string    `json:"result_json,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HistoryListRequest filters history listing by status.
type HistoryListRequest struct {
	Statuses []string `json:"statuses,omitempty"`
}

// HistoryListResponse contains history entries, newest first.
type HistoryListResponse struct {
	Jobs []JobSummary `json:"jobs"`
}

// HistoryDescribeRequest fetches a single job by token.
type HistoryDescribeRequest struct {
	Token string `json:"token"`
}

// HistoryDescribeResponse contains a single history entry.
type HistoryDescribeResponse struct {
	Job JobSummary `json:"job"`
}

// HistoryClearRequest removes all history entries.
type HistoryClearRequest struct{}

// HistoryClearResponse reports the number of removed entries.
type HistoryClearResponse struct {
	Removed int64 `json:"removed"`
}

// HistoryClearFailedRequest removes failed history entries.
type HistoryClearFailedRequest struct{}

// HistoryClearFailedResponse reports the number of removed entries.
type HistoryClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

func jobSummary(job *history.Job) JobSummary {
	if job == nil {
		return JobSummary{}
	}
	return JobSummary{
		Token:           job.Token,
		Command:         job.Command,
		InputPaths:      job.InputPaths(),
		OutputDir:       job.OutputDir,
		Status:          string(job.Status),
		ProgressStage:   job.ProgressStage,
		ProgressPercent: job.ProgressPercent,
		ProgressMessage: job.ProgressMessage,
		ErrorMessage:    job.ErrorMessage,
		ExitCode:        job.ExitCode,
		StderrTail:      job.StderrTail,
		ResultJSON:      job.ResultJSON,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
