// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package readbuffer implements the read optimized in-memory tier. One
// Database holds the columnar data of many chunks across many partitions, and
// every query is scoped to a partition key and a set of chunk ids.
package readbuffer

import (
	"sort"
	"sync"

	log "github.com/golang/glog"
	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/internal/mutablebuffer"
)

type chunkTables map[string]*Table

// Database is the read buffer. It is safe for concurrent use.
type Database struct {
	lock       sync.RWMutex
	partitions map[string]map[core.ChunkID]chunkTables
}

// NewDatabase returns an empty read buffer.
func NewDatabase() *Database {
	return &Database{partitions: make(map[string]map[core.ChunkID]chunkTables)}
}

// LoadChunk converts a snapshot of a mutable buffer chunk into columnar form
// and installs it under the given partition. Loading a chunk id that is
// already present replaces it. Returns the number of rows loaded.
func (d *Database) LoadChunk(partitionKey string, s *mutablebuffer.Snapshot) int {
	// Conversion happens outside the lock.
	tables := make(chunkTables, len(s.Tables))
	rows := 0
	for _, t := range FromSnapshot(s) {
		tables[t.Name] = t
		rows += t.Rows()
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	p, ok := d.partitions[partitionKey]
	if !ok {
		p = make(map[core.ChunkID]chunkTables)
		d.partitions[partitionKey] = p
	}
	if _, ok := p[s.ChunkID]; ok {
		log.Infof("[readbuffer] replacing chunk %s:%d", partitionKey, s.ChunkID)
	}
	p[s.ChunkID] = tables
	log.V(1).Infof("[readbuffer] loaded chunk %s:%d, %d tables, %d rows", partitionKey, s.ChunkID, len(tables), rows)
	return rows
}

// DropChunk removes a chunk. Returns false if it wasn't present.
func (d *Database) DropChunk(partitionKey string, id core.ChunkID) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	p, ok := d.partitions[partitionKey]
	if !ok {
		return false
	}
	if _, ok = p[id]; !ok {
		return false
	}
	delete(p, id)
	if len(p) == 0 {
		delete(d.partitions, partitionKey)
	}
	log.V(1).Infof("[readbuffer] dropped chunk %s:%d", partitionKey, id)
	return true
}

// HasTable returns true if any of the given chunks in the partition holds the
// table.
func (d *Database) HasTable(partitionKey, tableName string, ids []core.ChunkID) bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	p := d.partitions[partitionKey]
	for _, id := range ids {
		if _, ok := p[id][tableName]; ok {
			return true
		}
	}
	return false
}

// AllTableNames adds the names of all tables in the given chunks of the
// partition to names.
func (d *Database) AllTableNames(partitionKey string, ids []core.ChunkID, names *core.TableNameSet) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	p := d.partitions[partitionKey]
	for _, id := range ids {
		for name := range p[id] {
			names.Add(name)
		}
	}
}

// Table returns a table of a chunk. Tables are immutable once loaded so the
// result can be read without holding any lock.
func (d *Database) Table(partitionKey string, id core.ChunkID, tableName string) (*Table, core.Error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	p, ok := d.partitions[partitionKey]
	if !ok {
		return nil, core.ErrNoSuchPartition
	}
	c, ok := p[id]
	if !ok {
		return nil, core.ErrNoSuchChunk
	}
	t, ok := c[tableName]
	if !ok {
		return nil, core.ErrNoSuchTable
	}
	return t, core.NoError
}

// ChunkIDs returns the ids of the chunks loaded for a partition, ascending.
func (d *Database) ChunkIDs(partitionKey string) []core.ChunkID {
	d.lock.RLock()
	defer d.lock.RUnlock()
	p := d.partitions[partitionKey]
	ids := make([]core.ChunkID, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
