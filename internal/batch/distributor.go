// Package batch turns named domain work items into an ordered, executable
// task batch with deterministic output naming, so downstream consumers can
// re-derive the task-to-file mapping from the identifier alone, without
// holding the task objects.
package batch

import (
	"fmt"

	"github.com/seantiz/atlas/internal/job"
	"github.com/seantiz/atlas/internal/model"
)

// Item is one named unit of domain work: a ready-to-run input script plus
// the template kind that determines its file products.
type Item struct {
	Name   string
	Kind   string
	Script string
	Env    map[string]string
}

// Distributor converts items into computation jobs with sequential ids and
// output filenames derived only from (name, id, template). Insertion order
// is fixed at construction and never reordered.
type Distributor struct {
	workDir   string
	binary    string
	templates TemplateSet
	timeoutS  int
}

// NewDistributor creates a distributor for one batch working directory.
// timeoutS, when positive, becomes the per-task timeout in seconds.
func NewDistributor(workDir, binary string, templates TemplateSet, timeoutS int) *Distributor {
	return &Distributor{
		workDir:   workDir,
		binary:    binary,
		templates: templates,
		timeoutS:  timeoutS,
	}
}

// BaseName returns the deterministic filename stem for a task: the item name
// with the task id baked in. Because the id is unique within the batch, so
// is every filename derived from the stem.
func BaseName(name string, id int) string {
	return fmt.Sprintf("%s_%04d", name, id)
}

// OutputsFor re-derives a task's expected outputs from its identifier alone.
func (d *Distributor) OutputsFor(kind, name string, id int) ([]string, error) {
	tmpl, err := d.templates.Resolve(kind)
	if err != nil {
		return nil, err
	}

	base := BaseName(name, id)
	outputs := make([]string, len(tmpl.Suffixes))
	for i, suffix := range tmpl.Suffixes {
		outputs[i] = base + suffix
	}
	return outputs, nil
}

// Distribute builds the batch. Ids are assigned by position; the resulting
// batch enforces output-path uniqueness on construction.
func (d *Distributor) Distribute(items []Item) (*model.Batch, error) {
	tasks := make([]model.Task, 0, len(items))
	for i, item := range items {
		outputs, err := d.OutputsFor(item.Kind, item.Name, i)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item.Name, err)
		}

		tasks = append(tasks, job.New(job.Spec{
			ID:       i,
			Script:   item.Script,
			Log:      BaseName(item.Name, i) + ".out",
			Binary:   d.binary,
			WorkDir:  d.workDir,
			Env:      item.Env,
			TimeoutS: d.timeoutS,
			Outputs:  outputs,
		}))
	}

	return model.NewBatch(d.workDir, tasks)
}
