package batch

import "fmt"

// Template describes the file products of one supported computation kind.
type Template struct {
	Kind     string   // key used by work items, e.g. "topology"
	Suffixes []string // output suffixes produced per item, e.g. ".psf", ".pdb"
}

// TemplateSet is the set of computation templates a pipeline supports. It is
// plain configuration handed to constructors, not a process-wide registry,
// so distributors stay independently testable.
type TemplateSet map[string]Template

// NewTemplateSet builds a template set keyed by kind. A later template with
// the same kind replaces an earlier one.
func NewTemplateSet(templates ...Template) TemplateSet {
	ts := make(TemplateSet, len(templates))
	for _, t := range templates {
		ts[t.Kind] = t
	}
	return ts
}

// Resolve returns the template for the given kind.
func (ts TemplateSet) Resolve(kind string) (Template, error) {
	t, ok := ts[kind]
	if !ok {
		return Template{}, fmt.Errorf("computation template %q is not configured", kind)
	}
	return t, nil
}
