package api

import (
	"time"

	"splice/internal/history"
)

// timestampFormat is used for RFC3339 timestamps in API payloads.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse is the single failure shape every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// JobRecord describes one concluded merge job in transport form.
type JobRecord struct {
	ID                    string  `json:"id"`
	Status                string  `json:"status"`
	ErrorMessage          string  `json:"errorMessage,omitempty"`
	InputCount            int     `json:"inputCount"`
	InputBytes            int64   `json:"inputBytes"`
	OutputBytes           int64   `json:"outputBytes"`
	OutputDurationSeconds float64 `json:"outputDurationSeconds"`
	CreatedAt             string  `json:"createdAt,omitempty"`
	CompletedAt           string  `json:"completedAt,omitempty"`
}

// JobListResponse wraps a collection of job records.
type JobListResponse struct {
	Jobs []JobRecord `json:"jobs"`
}

// JobResponse wraps a single job record.
type JobResponse struct {
	Job JobRecord `json:"job"`
}

// DependencyStatus captures availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running          bool               `json:"running"`
	PID              int                `json:"pid"`
	WorkspaceDir     string             `json:"workspaceDir"`
	ActiveWorkspaces int                `json:"activeWorkspaces"`
	WorkspaceBytes   int64              `json:"workspaceBytes"`
	DatabasePath     string             `json:"databasePath"`
	LockFilePath     string             `json:"lockFilePath"`
	JobCounts        map[string]int     `json:"jobCounts"`
	Dependencies     []DependencyStatus `json:"dependencies"`
}

// FromRecord converts a journal record into its transport form.
func FromRecord(record history.Record) JobRecord {
	return JobRecord{
		ID:                    record.ID,
		Status:                record.Status,
		ErrorMessage:          record.ErrorMessage,
		InputCount:            record.InputCount,
		InputBytes:            record.InputBytes,
		OutputBytes:           record.OutputBytes,
		OutputDurationSeconds: record.OutputDurationSeconds,
		CreatedAt:             formatTimestamp(record.CreatedAt),
		CompletedAt:           formatTimestamp(record.CompletedAt),
	}
}

// FromRecords converts a slice of journal records.
func FromRecords(records []history.Record) []JobRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]JobRecord, 0, len(records))
	for _, record := range records {
		out = append(out, FromRecord(record))
	}
	return out
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(timestampFormat)
}
