package pool

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/seantiz/atlas/internal/job"
	"github.com/seantiz/atlas/internal/model"
)

// RecordName is the batch record filename within the batch working
// directory. The directory must be visible to every compute node.
const RecordName = "atlas.batch.json"

// Record is the serialized batch container handed to worker ranks. The
// schema is internal; there is no cross-version compatibility guarantee.
type Record struct {
	BatchID string     `json:"batch_id"`
	WorkDir string     `json:"work_dir"`
	Jobs    []job.Spec `json:"jobs"`
}

// NewRecord builds a record from a batch. Every task must expose a job.Spec
// to survive serialization; anything else cannot cross a process boundary.
func NewRecord(b *model.Batch) (*Record, error) {
	rec := &Record{BatchID: b.ID, WorkDir: b.WorkDir}
	for _, t := range b.Tasks() {
		s, ok := t.(interface{ Spec() job.Spec })
		if !ok {
			return nil, fmt.Errorf("task %d (%T) is not serializable for distributed execution", t.ID(), t)
		}
		rec.Jobs = append(rec.Jobs, s.Spec())
	}
	return rec, nil
}

// Write stores the record at path via a temp file and rename, so a rank can
// never read a partially written record.
func (r *Record) Write(path string) error {
	data, err := json.Marshal(r)
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	return nil
}

// LoadRecord reads and decodes a batch record.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SerializationError{Path: path, Err: err}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &SerializationError{Path: path, Err: err}
	}
	return &rec, nil
}

// Batch reconstructs the executable batch from the record, preserving the
// original batch id.
func (r *Record) Batch() (*model.Batch, error) {
	tasks := make([]model.Task, 0, len(r.Jobs))
	for _, spec := range r.Jobs {
		tasks = append(tasks, job.New(spec))
	}

	b, err := model.NewBatch(r.WorkDir, tasks)
	if err != nil {
		return nil, fmt.Errorf("reconstruct batch %s: %w", r.BatchID, err)
	}
	b.ID = r.BatchID
	return b, nil
}
