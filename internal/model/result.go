package model

import "sort"

// TaskResult records the observed outcome of one task.
type TaskResult struct {
	TaskID     int      `json:"task_id"`
	Status     string   `json:"status"`
	Outputs    []string `json:"outputs,omitempty"` // declared output paths observed on disk
	Error      string   `json:"error,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
}

// BatchResult maps every task id in a batch to its result. Pools always fill
// it completely: a task that never ran still gets an entry.
type BatchResult struct {
	BatchID string             `json:"batch_id"`
	Results map[int]TaskResult `json:"results"`
}

// NewBatchResult creates an empty result set for the given batch.
func NewBatchResult(batchID string) *BatchResult {
	return &BatchResult{
		BatchID: batchID,
		Results: make(map[int]TaskResult),
	}
}

// Add records one task result.
func (r *BatchResult) Add(tr TaskResult) {
	r.Results[tr.TaskID] = tr
}

// MissingIDs returns the sorted ids of tasks whose declared outputs never
// appeared. Missing conflates "never started" and "started then crashed";
// output polling cannot tell them apart.
func (r *BatchResult) MissingIDs() []int {
	return r.idsWithStatus(StatusMissing)
}

// FailedIDs returns the sorted ids of tasks that failed during execution.
func (r *BatchResult) FailedIDs() []int {
	return r.idsWithStatus(StatusFailed)
}

// CountByStatus returns how many tasks finished in each status.
func (r *BatchResult) CountByStatus() map[string]int {
	counts := make(map[string]int)
	for _, tr := range r.Results {
		counts[tr.Status]++
	}
	return counts
}

func (r *BatchResult) idsWithStatus(status string) []int {
	var ids []int
	for id, tr := range r.Results {
		if tr.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
