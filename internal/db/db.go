// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package db ties the storage tiers together. It owns the catalog and drives
// chunks from the mutable buffer through the read buffer and into the object
// store.
package db

import (
	"context"

	sigar "github.com/cloudfoundry/gosigar"
	log "github.com/golang/glog"

	"github.com/westerndigitalcorporation/tierdb/internal/catalog"
	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/internal/metrics"
	"github.com/westerndigitalcorporation/tierdb/internal/mutablebuffer"
	"github.com/westerndigitalcorporation/tierdb/internal/objectstore"
	"github.com/westerndigitalcorporation/tierdb/internal/readbuffer"
	"github.com/westerndigitalcorporation/tierdb/pkg/retry"
)

const (
	// How many times a write looks for an open chunk before giving up. A
	// write only needs another try if the chunk it found was closed under it.
	maxWriteAttempts = 10
)

// Operation names used as metric labels.
const (
	opWrite    = "write"
	opRollOver = "rollover"
	opMove     = "move"
	opPersist  = "persist"
	opDrop     = "drop"
)

// OpNames lists the operations tracked by the db's op metric.
var OpNames = []string{opWrite, opRollOver, opMove, opPersist, opDrop}

var opm = metrics.NewOpMetric("db", "ops", "op")

// DB is a database whose data lives in chunks spread across storage tiers.
// It is safe for concurrent use.
type DB struct {
	cfg        Config
	catalog    *catalog.Catalog
	readBuffer *readbuffer.Database
	store      *objectstore.Store
	retrier    retry.Retrier

	// Returns the amount of free system memory.
	freeMem func() (uint64, error)
}

// Open opens the object store described by cfg and registers every chunk
// found there in the catalog.
func Open(cfg Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := objectstore.Open(cfg.ObjectStore)
	if err != nil {
		return nil, err
	}
	d := &DB{
		cfg:        cfg,
		catalog:    catalog.New(),
		readBuffer: readbuffer.NewDatabase(),
		store:      store,
		retrier: retry.Retrier{
			MinSleep:      cfg.PersistMinSleep,
			MaxSleep:      cfg.PersistMaxSleep,
			MaxNumRetries: cfg.PersistMaxRetries,
			Retriable:     core.IsRetriable,
		},
		freeMem: sigarFreeMem,
	}
	if err := d.recover(); err != nil {
		store.Close()
		return nil, err
	}
	return d, nil
}

// recover adds all persisted chunks to the catalog.
func (d *DB) recover() error {
	keys, cerr := d.store.PartitionKeys()
	if cerr != core.NoError {
		return cerr.Error()
	}
	n := 0
	for _, key := range keys {
		ids, cerr := d.store.ChunkIDs(key)
		if cerr != core.NoError {
			return cerr.Error()
		}
		p := d.catalog.GetOrCreatePartition(key)
		for _, id := range ids {
			c, cerr := d.store.Load(key, id)
			if cerr != core.NoError {
				// The record stays on disk and its id stays taken.
				log.Errorf("[db] skipping persisted chunk %s:%d: %s", key, id, cerr)
				p.ReserveID(id)
				continue
			}
			if err := p.AddChunk(id, catalog.ObjectStoreState(c)); err != nil {
				return err
			}
			n++
		}
	}
	log.Infof("[db] recovered %d persisted chunks in %d partitions", n, len(keys))
	return nil
}

// Close closes the object store.
func (d *DB) Close() error {
	return d.store.Close()
}

// Write appends rows to a table of the partition's open chunk, starting a new
// open chunk if there is none.
func (d *DB) Write(partitionKey, tableName string, rows []mutablebuffer.Row) (err error) {
	op := opm.Start(opWrite)
	defer op.EndWithError(&err)

	if partitionKey == "" {
		return core.ErrInvalidArgument.Error()
	}
	p := d.catalog.GetOrCreatePartition(partitionKey)

	for i := 0; i < maxWriteAttempts; i++ {
		id, ok := p.OpenChunkID()
		if !ok {
			if err = d.checkMemory(); err != nil {
				return err
			}
			id, _ = p.CreateOpenChunk(newMutableBuffer)
		}

		full := false
		err = p.WithChunk(id, func(c *catalog.Chunk) error {
			mb, err := writeBuffer(c)
			if err != nil {
				return err
			}
			if cerr := mb.Write(tableName, rows); cerr != core.NoError {
				return cerr.Error()
			}
			full = d.cfg.MaxChunkRows > 0 && mb.Rows() >= d.cfg.MaxChunkRows
			return nil
		})

		switch {
		case err == nil:
			if full && p.DetachChunk(id) {
				d.closeChunk(p, id)
			}
			return nil
		case core.ErrInvalidState.Is(err), core.ErrNoSuchChunk.Is(err), core.ErrReadOnlyChunk.Is(err):
			// The chunk was closed or dropped after we looked it up, or it
			// is closing and can't take a new table. Move on to a new one.
			log.V(1).Infof("[db] chunk %s:%d can't take the write, retrying: %s", partitionKey, id, err)
			p.DetachChunk(id)
		default:
			return err
		}
	}
	log.Errorf("[db] gave up writing to %s/%s after %d attempts: %s", partitionKey, tableName, maxWriteAttempts, err)
	return err
}

// RollOver closes the partition's open chunk so that following writes start
// a new one. It returns the id of the closed chunk.
func (d *DB) RollOver(partitionKey string) (id core.ChunkID, err error) {
	op := opm.Start(opRollOver)
	defer op.EndWithError(&err)

	p, ok := d.catalog.Partition(partitionKey)
	if !ok {
		return 0, core.ErrNoSuchPartition.Error()
	}
	id, ok = p.DetachOpenChunk()
	if !ok {
		return 0, core.ErrNoSuchChunk.Error()
	}
	return id, d.closeChunk(p, id)
}

// closeChunk moves a detached chunk through Closing to Closed.
func (d *DB) closeChunk(p *catalog.Partition, id core.ChunkID) error {
	err := p.WithChunk(id, func(c *catalog.Chunk) error {
		if err := c.SetClosing(); err != nil {
			return err
		}
		return c.SetClosed()
	})
	if err != nil {
		log.Errorf("[db] failed to close chunk %s:%d: %s", p.Key(), id, err)
		return err
	}
	log.Infof("[db] closed chunk %s:%d", p.Key(), id)
	return nil
}

// MoveChunk copies a chunk's mutable buffer into the read buffer and switches
// the chunk over to it. The copy happens without holding the chunk's lock;
// queries keep being answered by the mutable buffer until it is done.
func (d *DB) MoveChunk(partitionKey string, id core.ChunkID) (err error) {
	op := opm.Start(opMove)
	defer op.EndWithError(&err)

	p, ok := d.catalog.Partition(partitionKey)
	if !ok {
		return core.ErrNoSuchPartition.Error()
	}

	var shared *catalog.SharedBuffer
	err = p.WithChunk(id, func(c *catalog.Chunk) (err error) {
		shared, err = c.SetMoving()
		return err
	})
	if err != nil {
		return err
	}
	p.DetachChunk(id)

	snap, err := snapshot(shared)
	if err != nil {
		return err
	}
	rows := d.readBuffer.LoadChunk(partitionKey, snap)

	err = p.WithChunk(id, func(c *catalog.Chunk) error {
		return c.SetMoved(d.readBuffer)
	})
	if err != nil {
		log.Errorf("[db] failed to finish moving chunk %s:%d: %s", partitionKey, id, err)
		d.readBuffer.DropChunk(partitionKey, id)
		return err
	}
	log.Infof("[db] moved chunk %s:%d to the read buffer, %d rows", partitionKey, id, rows)
	return nil
}

// PersistChunk writes a Closed chunk to the object store and switches the
// chunk over to the persisted copy.
func (d *DB) PersistChunk(ctx context.Context, partitionKey string, id core.ChunkID) (err error) {
	op := opm.Start(opPersist)
	defer op.EndWithError(&err)

	p, ok := d.catalog.Partition(partitionKey)
	if !ok {
		return core.ErrNoSuchPartition.Error()
	}

	var shared *catalog.SharedBuffer
	err = p.WithChunk(id, func(c *catalog.Chunk) error {
		s := c.State()
		if s.Kind() != catalog.StateClosed {
			return &catalog.UnexpectedStateError{
				PartitionKey: partitionKey,
				ChunkID:      id,
				Operation:    "persisting",
				Expected:     "Closed",
				Actual:       s.Name(),
			}
		}
		shared = s.SharedBuffer()
		return nil
	})
	if err != nil {
		return err
	}

	snap, err := snapshot(shared)
	if err != nil {
		return err
	}
	tables := readbuffer.FromSnapshot(snap)

	var persisted *objectstore.Chunk
	err = d.retrier.Do(ctx, func(attempt int) error {
		var cerr core.Error
		persisted, cerr = d.store.Put(partitionKey, id, tables)
		if cerr != core.NoError {
			log.Errorf("[db] attempt %d to persist chunk %s:%d failed: %s", attempt, partitionKey, id, cerr)
		}
		return cerr.Error()
	})
	if err != nil {
		return err
	}

	err = p.WithChunk(id, func(c *catalog.Chunk) error {
		_, err := c.SetObjectStore(persisted)
		return err
	})
	if err != nil {
		log.Errorf("[db] chunk %s:%d was written but changed state meanwhile: %s", partitionKey, id, err)
		if core.ErrNoSuchChunk.Is(err) {
			// Dropped while we were writing it. Don't let it come back on
			// the next Open.
			d.store.Delete(partitionKey, id)
		}
		return err
	}
	log.Infof("[db] persisted chunk %s:%d, %d bytes", partitionKey, id, persisted.Size())
	return nil
}

// DropChunk removes a chunk from the database along with its copy in the read
// buffer or the object store.
func (d *DB) DropChunk(partitionKey string, id core.ChunkID) (err error) {
	op := opm.Start(opDrop)
	defer op.EndWithError(&err)

	p, ok := d.catalog.Partition(partitionKey)
	if !ok {
		return core.ErrNoSuchPartition.Error()
	}
	state, err := p.DropChunk(id)
	if err != nil {
		return err
	}
	switch state.Kind() {
	case catalog.StateMoved:
		d.readBuffer.DropChunk(partitionKey, id)
	case catalog.StateObjectStore:
		if cerr := d.store.Delete(partitionKey, id); cerr != core.NoError {
			log.Errorf("[db] chunk %s:%d dropped but its persisted copy remains: %s", partitionKey, id, cerr)
			return cerr.Error()
		}
	}
	return nil
}

// HasTable returns true if any chunk of the partition has the table.
func (d *DB) HasTable(partitionKey, tableName string) bool {
	p, ok := d.catalog.Partition(partitionKey)
	return ok && p.HasTable(tableName)
}

// TableNames returns the sorted names of all tables in the partition.
func (d *DB) TableNames(partitionKey string) []string {
	names := core.NewTableNameSet()
	if p, ok := d.catalog.Partition(partitionKey); ok {
		p.TableNames(names)
	}
	return names.Names()
}

// Table returns a columnar copy of one table of a chunk, read from whichever
// tier currently backs the chunk.
func (d *DB) Table(partitionKey string, id core.ChunkID, tableName string) (*readbuffer.Table, error) {
	p, ok := d.catalog.Partition(partitionKey)
	if !ok {
		return nil, core.ErrNoSuchPartition.Error()
	}
	var tbl *readbuffer.Table
	err := p.WithChunk(id, func(c *catalog.Chunk) error {
		s := c.State()
		switch s.Kind() {
		case catalog.StateOpen, catalog.StateClosing:
			buf, err := writeBuffer(c)
			if err != nil {
				return err
			}
			tbl = findTable(buf.Snapshot(), tableName)
		case catalog.StateClosed, catalog.StateMoving:
			snap, err := snapshot(s.SharedBuffer())
			if err != nil {
				return err
			}
			tbl = findTable(snap, tableName)
		case catalog.StateMoved:
			var cerr core.Error
			tbl, cerr = d.readBuffer.Table(partitionKey, id, tableName)
			return cerr.Error()
		case catalog.StateObjectStore:
			pc, ok := s.Persisted().(*objectstore.Chunk)
			if !ok {
				return core.ErrInvalidArgument.Error()
			}
			var cerr core.Error
			tbl, cerr = pc.Table(tableName)
			return cerr.Error()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, core.ErrNoSuchTable.Error()
	}
	return tbl, nil
}

// ChunkTables returns a columnar copy of every table of a chunk, sorted by
// name.
func (d *DB) ChunkTables(partitionKey string, id core.ChunkID) ([]*readbuffer.Table, error) {
	p, ok := d.catalog.Partition(partitionKey)
	if !ok {
		return nil, core.ErrNoSuchPartition.Error()
	}
	var tables []*readbuffer.Table
	err := p.WithChunk(id, func(c *catalog.Chunk) error {
		s := c.State()
		switch s.Kind() {
		case catalog.StateOpen, catalog.StateClosing:
			buf, err := writeBuffer(c)
			if err != nil {
				return err
			}
			tables = readbuffer.FromSnapshot(buf.Snapshot())
		case catalog.StateClosed, catalog.StateMoving:
			snap, err := snapshot(s.SharedBuffer())
			if err != nil {
				return err
			}
			tables = readbuffer.FromSnapshot(snap)
		case catalog.StateMoved:
			names := core.NewTableNameSet()
			s.ReadBuffer().AllTableNames(partitionKey, []core.ChunkID{id}, names)
			for _, name := range names.Names() {
				t, cerr := d.readBuffer.Table(partitionKey, id, name)
				if cerr != core.NoError {
					return cerr.Error()
				}
				tables = append(tables, t)
			}
		case catalog.StateObjectStore:
			pc, ok := s.Persisted().(*objectstore.Chunk)
			if !ok {
				return core.ErrInvalidArgument.Error()
			}
			tables = pc.Tables()
		}
		return nil
	})
	return tables, err
}

func findTable(snap *mutablebuffer.Snapshot, tableName string) *readbuffer.Table {
	for _, t := range readbuffer.FromSnapshot(snap) {
		if t.Name == tableName {
			return t
		}
	}
	return nil
}

// Summaries describes every chunk in the database.
func (d *DB) Summaries() []catalog.ChunkSummary {
	return d.catalog.Summaries()
}

// UpdateMetrics refreshes gauges that are computed from the catalog.
func (d *DB) UpdateMetrics() {
	d.catalog.UpdateMetrics()
}

// OpStats returns a summary line per tracked operation.
func (d *DB) OpStats() map[string]string {
	out := make(map[string]string, len(OpNames))
	for _, name := range OpNames {
		out[name] = opm.String(name)
	}
	return out
}

// checkMemory rejects new open chunks when the machine is low on memory.
func (d *DB) checkMemory() error {
	if d.cfg.FreeMemLimit == 0 {
		return nil
	}
	free, err := d.freeMem()
	if err != nil {
		log.Errorf("[db] failed to get memory info: %s", err)
		return nil
	}
	if free < d.cfg.FreeMemLimit {
		log.Errorf("[db] out of memory for a new open chunk: %d bytes free, need %d", free, d.cfg.FreeMemLimit)
		return core.ErrTooBusy.Error()
	}
	return nil
}

func sigarFreeMem() (uint64, error) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return 0, err
	}
	return mem.ActualFree, nil
}

func newMutableBuffer(id core.ChunkID) catalog.MutableBuffer {
	return mutablebuffer.New(id)
}

// writeBuffer returns the chunk's mutable buffer for writing.
func writeBuffer(c *catalog.Chunk) (*mutablebuffer.Chunk, error) {
	buf, err := c.MutableBuffer()
	if err != nil {
		return nil, err
	}
	mb, ok := buf.(*mutablebuffer.Chunk)
	if !ok {
		log.Errorf("[db] chunk %s has a foreign buffer %T", c.Addr(), buf)
		return nil, core.ErrInvalidArgument.Error()
	}
	return mb, nil
}

// snapshotter is the read-only part of a mutable buffer chunk needed to
// migrate it to another tier.
type snapshotter interface {
	catalog.BufferReader
	Snapshot() *mutablebuffer.Snapshot
}

// snapshot copies the contents of a shared buffer.
func snapshot(shared *catalog.SharedBuffer) (*mutablebuffer.Snapshot, error) {
	r, ok := shared.Reader().(snapshotter)
	if !ok {
		log.Errorf("[db] shared buffer holds a foreign buffer %T", shared.Reader())
		return nil, core.ErrInvalidArgument.Error()
	}
	return r.Snapshot(), nil
}
