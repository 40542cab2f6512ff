// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package readbuffer

import (
	"math"
	"reflect"
	"testing"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/internal/mutablebuffer"
)

func testSnapshot(id core.ChunkID, tables ...string) *mutablebuffer.Snapshot {
	c := mutablebuffer.New(id)
	for _, name := range tables {
		c.Write(name, []mutablebuffer.Row{
			{Time: 1, Fields: map[string]float64{"a": 1}},
			{Time: 2, Fields: map[string]float64{"b": 2}},
		})
	}
	return c.Snapshot()
}

func TestFromSnapshot(t *testing.T) {
	tables := FromSnapshot(testSnapshot(1, "cpu"))
	if len(tables) != 1 {
		t.Fatalf("expected one table, got %d", len(tables))
	}
	tbl := tables[0]
	if tbl.Name != "cpu" || tbl.Rows() != 2 {
		t.Fatalf("unexpected table %+v", tbl)
	}
	if !reflect.DeepEqual(tbl.Times, []int64{1, 2}) {
		t.Errorf("times = %v", tbl.Times)
	}
	a, b := tbl.Column("a"), tbl.Column("b")
	if a == nil || b == nil || tbl.Column("c") != nil {
		t.Fatalf("column lookup is wrong")
	}
	if a.Values[0] != 1 || !math.IsNaN(a.Values[1]) {
		t.Errorf("column a = %v", a.Values)
	}
	if !math.IsNaN(b.Values[0]) || b.Values[1] != 2 {
		t.Errorf("column b = %v", b.Values)
	}
}

// Queries must be scoped to both the partition and the chunk ids.
func TestScopedQueries(t *testing.T) {
	d := NewDatabase()
	if rows := d.LoadChunk("p1", testSnapshot(7, "cpu", "mem")); rows != 4 {
		t.Errorf("loaded %d rows, expected 4", rows)
	}
	d.LoadChunk("p1", testSnapshot(8, "disk"))
	d.LoadChunk("p2", testSnapshot(7, "net"))

	if !d.HasTable("p1", "cpu", []core.ChunkID{7}) {
		t.Errorf("cpu should be in p1/7")
	}
	if d.HasTable("p1", "disk", []core.ChunkID{7}) {
		t.Errorf("disk is not in p1/7")
	}
	if !d.HasTable("p1", "disk", []core.ChunkID{7, 8}) {
		t.Errorf("disk is in p1/8")
	}
	if d.HasTable("p1", "net", []core.ChunkID{7}) || d.HasTable("p3", "cpu", []core.ChunkID{7}) {
		t.Errorf("queries leaked across partitions")
	}

	names := core.NewTableNameSet()
	d.AllTableNames("p1", []core.ChunkID{7}, names)
	if !reflect.DeepEqual(names.Names(), []string{"cpu", "mem"}) {
		t.Errorf("names = %v", names.Names())
	}
	d.AllTableNames("p2", []core.ChunkID{7}, names)
	if !reflect.DeepEqual(names.Names(), []string{"cpu", "mem", "net"}) {
		t.Errorf("names should accumulate, got %v", names.Names())
	}

	if !reflect.DeepEqual(d.ChunkIDs("p1"), []core.ChunkID{7, 8}) {
		t.Errorf("ChunkIDs = %v", d.ChunkIDs("p1"))
	}
}

func TestTableAndDrop(t *testing.T) {
	d := NewDatabase()
	d.LoadChunk("p1", testSnapshot(7, "cpu"))

	if _, err := d.Table("p0", 7, "cpu"); err != core.ErrNoSuchPartition {
		t.Errorf("expected ErrNoSuchPartition, got %s", err)
	}
	if _, err := d.Table("p1", 8, "cpu"); err != core.ErrNoSuchChunk {
		t.Errorf("expected ErrNoSuchChunk, got %s", err)
	}
	if _, err := d.Table("p1", 7, "mem"); err != core.ErrNoSuchTable {
		t.Errorf("expected ErrNoSuchTable, got %s", err)
	}
	tbl, err := d.Table("p1", 7, "cpu")
	if err != core.NoError || tbl.Rows() != 2 {
		t.Fatalf("Table failed: %s", err)
	}

	if !d.DropChunk("p1", 7) {
		t.Errorf("drop should succeed")
	}
	if d.DropChunk("p1", 7) {
		t.Errorf("second drop should fail")
	}
	if d.HasTable("p1", "cpu", []core.ChunkID{7}) {
		t.Errorf("dropped chunk is still queryable")
	}
	// The table we already had is still readable.
	if tbl.Rows() != 2 {
		t.Errorf("dropping the chunk changed a table handed out earlier")
	}
}

// Loading a chunk id twice replaces the first copy.
func TestLoadChunkReplaces(t *testing.T) {
	d := NewDatabase()
	d.LoadChunk("p1", testSnapshot(7, "cpu"))
	d.LoadChunk("p1", testSnapshot(7, "mem"))

	if d.HasTable("p1", "cpu", []core.ChunkID{7}) {
		t.Errorf("old copy of chunk 7 is still there")
	}
	if !d.HasTable("p1", "mem", []core.ChunkID{7}) {
		t.Errorf("new copy of chunk 7 is missing")
	}
	if ids := d.ChunkIDs("p1"); len(ids) != 1 || ids[0] != 7 {
		t.Errorf("ChunkIDs = %v", ids)
	}
}
