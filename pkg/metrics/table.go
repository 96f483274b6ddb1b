package metrics

import "github.com/panbanda/defectmine/pkg/models"

// Table is the Feature Table: every metric value keyed by (release, class).
// Its key set is the size column, in the order windows were added.
type Table struct {
	values map[models.CompositeKey]*[numKinds]int
	set    map[models.CompositeKey]*[numKinds]bool
	keys   []models.CompositeKey
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		values: make(map[models.CompositeKey]*[numKinds]int),
		set:    make(map[models.CompositeKey]*[numKinds]bool),
	}
}

// Add merges one window's columns under release. Only classes, in order,
// become row keys; values for other paths are kept but never emitted.
func (t *Table) Add(release int, cols Columns, classes []string) {
	for kind, values := range cols {
		for path, v := range values {
			key := models.Key(release, path)
			vals, ok := t.values[key]
			if !ok {
				vals = new([numKinds]int)
				t.values[key] = vals
				t.set[key] = new([numKinds]bool)
			}
			vals[kind] = v
			t.set[key][kind] = true
		}
	}
	sizes := cols[Size]
	for _, path := range classes {
		if _, ok := sizes[path]; ok {
			t.keys = append(t.keys, models.Key(release, path))
		}
	}
}

// Keys returns the row keys.
func (t *Table) Keys() []models.CompositeKey {
	out := make([]models.CompositeKey, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of row keys.
func (t *Table) Len() int {
	return len(t.keys)
}

// Value returns the metric for key and whether it was computed.
func (t *Table) Value(key models.CompositeKey, kind Kind) (int, bool) {
	set, ok := t.set[key]
	if !ok || !set[kind] {
		return 0, false
	}
	return t.values[key][kind], true
}
