package sql

import (
	"maps"
	"slices"
	"sort"
)

// Values is an ordered column to value mapping used for INSERT rows, UPDATE
// SET clauses and upsert assignments. Columns keep the order in which they
// were first set.
//
// Values is immutable: Set returns a new mapping and the receiver is left
// untouched, so a Values can be shared between queries.
type Values struct {
	columns []string
	values  map[string]any
}

// NewValues returns an empty Values.
func NewValues() Values {
	return Values{}
}

// ValuesOf returns Values holding the entries of m, ordered by column name.
func ValuesOf(m map[string]any) Values {
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return Values{columns: cols, values: maps.Clone(m)}
}

// Set returns a copy of v with col set to val. Setting an existing column
// replaces its value and keeps its position.
func (v Values) Set(col string, val any) Values {
	vals := maps.Clone(v.values)
	if vals == nil {
		vals = make(map[string]any, 1)
	}
	cols := v.columns
	if _, ok := vals[col]; !ok {
		cols = append(slices.Clip(cols), col)
	}
	vals[col] = val
	return Values{columns: cols, values: vals}
}

// Get returns the value of col and whether it was set.
func (v Values) Get(col string) (any, bool) {
	val, ok := v.values[col]
	return val, ok
}

// Columns returns the columns in order.
func (v Values) Columns() []string {
	return slices.Clone(v.columns)
}

// Len returns the number of columns.
func (v Values) Len() int {
	return len(v.columns)
}
