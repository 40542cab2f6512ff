// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package mutablebuffer implements the write optimized in-memory tier. A Chunk
// accepts rows for any number of tables until it is marked closing, after
// which it only accepts rows for tables it already has.
package mutablebuffer

import (
	"sort"
	"sync"

	log "github.com/golang/glog"
	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

// Row is a single timestamped set of field values.
type Row struct {
	Time   int64
	Fields map[string]float64
}

// rowOverhead approximates the fixed cost of a row for size accounting.
const rowOverhead = 32

func (r Row) size() int {
	n := rowOverhead
	for k := range r.Fields {
		n += len(k) + 8
	}
	return n
}

type table struct {
	rows []Row
}

// Chunk is a mutable buffer chunk. It is safe for concurrent use.
type Chunk struct {
	id core.ChunkID

	lock    sync.Mutex
	tables  map[string]*table
	closing bool
	rows    int
	size    int
}

// New returns an empty chunk.
func New(id core.ChunkID) *Chunk {
	return &Chunk{id: id, tables: make(map[string]*table)}
}

// ID returns the id of the chunk this buffer backs.
func (c *Chunk) ID() core.ChunkID {
	return c.id
}

// Write appends rows to the given table, creating it if needed. Once the
// chunk is closing, writes that would create a new table fail with
// ErrReadOnlyChunk.
func (c *Chunk) Write(tableName string, rows []Row) core.Error {
	if tableName == "" || len(tableName) > core.MaxTableNameLength || len(rows) == 0 {
		return core.ErrInvalidArgument
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	t, ok := c.tables[tableName]
	if !ok {
		if c.closing {
			log.V(1).Infof("[mutablebuffer] chunk %d is closing, rejecting new table %q", c.id, tableName)
			return core.ErrReadOnlyChunk
		}
		t = &table{}
		c.tables[tableName] = t
		log.V(2).Infof("[mutablebuffer] chunk %d: new table %q", c.id, tableName)
	}
	for _, r := range rows {
		r = Row{Time: r.Time, Fields: copyFields(r.Fields)}
		t.rows = append(t.rows, r)
		c.size += r.size()
	}
	c.rows += len(rows)
	return core.NoError
}

// MarkClosing signals that the chunk will be closed soon.
func (c *Chunk) MarkClosing() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.closing {
		log.V(1).Infof("[mutablebuffer] chunk %d closing with %d rows in %d tables", c.id, c.rows, len(c.tables))
	}
	c.closing = true
}

// IsClosing returns true if MarkClosing was called.
func (c *Chunk) IsClosing() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closing
}

// HasTable returns true if the chunk holds rows for the given table.
func (c *Chunk) HasTable(name string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.tables[name]
	return ok
}

// AllTableNames adds the names of all tables in this chunk to names.
func (c *Chunk) AllTableNames(names *core.TableNameSet) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for name := range c.tables {
		names.Add(name)
	}
}

// Rows returns the total number of rows written.
func (c *Chunk) Rows() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.rows
}

// Size returns an approximation of the memory used by the rows, in bytes.
func (c *Chunk) Size() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.size
}

// TableSnapshot is an immutable copy of one table's rows.
type TableSnapshot struct {
	Name string
	Rows []Row
}

// Snapshot is an immutable copy of a chunk's contents.
type Snapshot struct {
	ChunkID core.ChunkID
	Tables  []TableSnapshot // sorted by name
}

// Snapshot copies the current contents of the chunk. Field maps are shared
// with the chunk, which never mutates a row after it was written.
func (c *Chunk) Snapshot() *Snapshot {
	c.lock.Lock()
	defer c.lock.Unlock()

	s := &Snapshot{ChunkID: c.id, Tables: make([]TableSnapshot, 0, len(c.tables))}
	for name, t := range c.tables {
		rows := make([]Row, len(t.rows))
		copy(rows, t.rows)
		s.Tables = append(s.Tables, TableSnapshot{Name: name, Rows: rows})
	}
	sort.Slice(s.Tables, func(i, j int) bool { return s.Tables[i].Name < s.Tables[j].Name })
	return s
}

func copyFields(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
