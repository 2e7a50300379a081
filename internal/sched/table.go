package sched

import (
	"fmt"
	"strings"
)

// Table is the immutable, densely indexed task registry.
type Table struct {
	descs  []Descriptor
	byName map[string]TaskID
}

// NewTable builds a table for ids [0, count). Every id must be present exactly
// once and every descriptor needs a Run func; violations are fatal.
func NewTable(count int, descs ...Descriptor) (*Table, error) {
	if count <= 0 {
		return nil, ErrEmptyTable
	}
	t := &Table{
		descs:  make([]Descriptor, count),
		byName: make(map[string]TaskID, count),
	}
	seen := make([]bool, count)
	for _, d := range descs {
		if d.ID < 0 || int(d.ID) >= count {
			return nil, fmt.Errorf("%w: id=%d name=%q count=%d", ErrTaskOutOfRange, d.ID, d.Name, count)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: id=%d name=%q (already %q)", ErrDuplicateTask, d.ID, d.Name, t.descs[d.ID].Name)
		}
		if d.Run == nil {
			return nil, fmt.Errorf("%w: id=%d name=%q", ErrNoRunFunc, d.ID, d.Name)
		}
		if d.Period < 0 {
			return nil, fmt.Errorf("%w: id=%d name=%q period=%s", ErrInvalidPeriod, d.ID, d.Name, d.Period)
		}
		if strings.TrimSpace(d.Name) == "" {
			d.Name = fmt.Sprintf("TASK_%d", d.ID)
		}
		if prev, ok := t.byName[d.Name]; ok {
			return nil, fmt.Errorf("%w: name=%q ids=%d,%d", ErrDuplicateTask, d.Name, prev, d.ID)
		}
		seen[d.ID] = true
		t.descs[d.ID] = d
		t.byName[d.Name] = d.ID
	}
	for id, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: id=%d", ErrMissingTask, id)
		}
	}
	return t, nil
}

// Len returns the number of tasks.
func (t *Table) Len() int { return len(t.descs) }

// Descriptor returns the descriptor registered for id.
func (t *Table) Descriptor(id TaskID) (Descriptor, bool) {
	if id < 0 || int(id) >= len(t.descs) {
		return Descriptor{}, false
	}
	return t.descs[id], true
}

// Lookup resolves a task name (case-insensitive).
func (t *Table) Lookup(name string) (TaskID, bool) {
	if id, ok := t.byName[name]; ok {
		return id, true
	}
	for n, id := range t.byName {
		if strings.EqualFold(n, name) {
			return id, true
		}
	}
	return NoTask, false
}

// Name returns the task name or "" for an unknown id.
func (t *Table) Name(id TaskID) string {
	d, _ := t.Descriptor(id)
	return d.Name
}
