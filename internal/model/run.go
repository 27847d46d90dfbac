package model

import "time"

// Batch run status constants.
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// validTransitions maps each run status to the set of statuses it may
// transition to.
var validTransitions = map[string]map[string]bool{
	RunPending: {
		RunRunning: true,
		RunFailed:  true,
	},
	RunRunning: {
		RunCompleted: true,
		RunFailed:    true,
	},
}

// ValidTransition reports whether transitioning a batch run from one status
// to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// BatchRun is the persisted record of one engine execution of a batch.
type BatchRun struct {
	ID         string     `json:"id"`
	BatchID    string     `json:"batch_id"`
	Backend    string     `json:"backend"`
	Workers    int        `json:"workers"`
	WorkDir    string     `json:"work_dir"`
	Status     string     `json:"status"`
	TaskCount  int        `json:"task_count"`
	Error      string     `json:"error,omitempty"`
	DurationMS *int       `json:"duration_ms,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
