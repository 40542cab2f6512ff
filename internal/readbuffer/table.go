// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package readbuffer

import (
	"math"
	"sort"

	"github.com/westerndigitalcorporation/tierdb/internal/mutablebuffer"
)

// Column holds one field's values for every row of a table. Rows that don't
// have the field hold NaN.
type Column struct {
	Name   string
	Values []float64
}

// Table is the columnar form of a table. Columns are sorted by name and each
// has exactly len(Times) values.
type Table struct {
	Name    string
	Times   []int64
	Columns []Column
}

// Rows returns the number of rows in the table.
func (t *Table) Rows() int {
	return len(t.Times)
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	i := sort.Search(len(t.Columns), func(i int) bool { return t.Columns[i].Name >= name })
	if i < len(t.Columns) && t.Columns[i].Name == name {
		return &t.Columns[i]
	}
	return nil
}

// FromSnapshot converts the row oriented contents of a mutable buffer chunk
// into columnar tables, sorted by name.
func FromSnapshot(s *mutablebuffer.Snapshot) []*Table {
	out := make([]*Table, 0, len(s.Tables))
	for _, ts := range s.Tables {
		out = append(out, buildTable(ts))
	}
	return out
}

func buildTable(ts mutablebuffer.TableSnapshot) *Table {
	// Gather the union of field names first so every column gets a slot for
	// every row.
	fields := make(map[string]bool)
	for _, r := range ts.Rows {
		for f := range r.Fields {
			fields[f] = true
		}
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	t := &Table{
		Name:    ts.Name,
		Times:   make([]int64, len(ts.Rows)),
		Columns: make([]Column, len(names)),
	}
	for i, name := range names {
		t.Columns[i] = Column{Name: name, Values: make([]float64, len(ts.Rows))}
	}
	for i, r := range ts.Rows {
		t.Times[i] = r.Time
		for _, c := range t.Columns {
			v, ok := r.Fields[c.Name]
			if !ok {
				v = math.NaN()
			}
			c.Values[i] = v
		}
	}
	return t
}
