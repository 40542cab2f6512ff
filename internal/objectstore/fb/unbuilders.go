// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package fb

import (
	"sort"

	"github.com/westerndigitalcorporation/tierdb/internal/readbuffer"
)

// ToTables decodes all tables of the chunk file.
func (f *ChunkFileF) ToTables() []*readbuffer.Table {
	out := make([]*readbuffer.Table, f.TablesLength())
	var t TableF
	for i := range out {
		f.Tables(&t, i)
		out[i] = t.ToTable()
	}
	return out
}

// ToTable decodes a table.
func (t *TableF) ToTable() *readbuffer.Table {
	out := &readbuffer.Table{
		Name:    string(t.Name()),
		Times:   make([]int64, t.TimesLength()),
		Columns: make([]readbuffer.Column, t.ColumnsLength()),
	}
	for i := range out.Times {
		out.Times[i] = t.Times(i)
	}
	var c ColumnF
	for i := range out.Columns {
		t.Columns(&c, i)
		col := readbuffer.Column{Name: string(c.Name()), Values: make([]float64, c.ValuesLength())}
		for j := range col.Values {
			col.Values[j] = c.Values(j)
		}
		out.Columns[i] = col
	}
	return out
}

// FindTable looks up a table by name. Tables are sorted by name, see
// BuildChunkFile.
func (f *ChunkFileF) FindTable(name string, obj *TableF) bool {
	n := f.TablesLength()
	i := sort.Search(n, func(i int) bool {
		f.Tables(obj, i)
		return string(obj.Name()) >= name
	})
	if i < n {
		f.Tables(obj, i)
		return string(obj.Name()) == name
	}
	return false
}
