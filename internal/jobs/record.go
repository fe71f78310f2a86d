package jobs

import "time"

// Status is the lifecycle state of a tracked job.
// Terminal states are absorbing: the only way out is deletion after the
// retention window.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusInterrupted marks a job that was persisted as running by a
	// process that no longer exists. It is a recovery artifact assigned
	// during startup reconciliation, never a live state.
	StatusInterrupted Status = "interrupted"
)

// Terminal reports whether s is an absorbing state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusInterrupted
}

// Progress tracks file-count granularity progress for a job.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
}

// Record is the full state of one tracked upload job. The JSON form of this
// struct is the persisted per-job progress document; its field names are
// part of the on-disk format.
type Record struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	SourcePath  string     `json:"sourcePath"`
	StartDate   string     `json:"startDate,omitempty"`
	EndDate     string     `json:"endDate,omitempty"`
	DryRun      bool       `json:"dryRun"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	ExitCode    *int       `json:"exitCode,omitempty"`
	Output      string     `json:"output"`
	Error       string     `json:"error"`
	CurrentFile string     `json:"currentFile"`
	Progress    Progress   `json:"progress"`
}

// clone returns an independent copy safe to hand out of the tracker.
func (r *Record) clone() *Record {
	c := *r
	if r.EndTime != nil {
		t := *r.EndTime
		c.EndTime = &t
	}
	if r.ExitCode != nil {
		code := *r.ExitCode
		c.ExitCode = &code
	}
	return &c
}
