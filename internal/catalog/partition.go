// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"sort"
	"sync"

	log "github.com/golang/glog"
	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

// Partition owns the chunks stored under one partition key and provides the
// exclusive access that chunk transitions require.
type Partition struct {
	key   string
	locks *chunkLocks

	// Protects everything below.
	lock   sync.RWMutex
	chunks map[core.ChunkID]*Chunk
	nextID core.ChunkID
	open   core.ChunkID // chunk receiving writes, zero if none
}

func newPartition(key string) *Partition {
	return &Partition{
		key:    key,
		locks:  newChunkLocks(),
		chunks: make(map[core.ChunkID]*Chunk),
		nextID: core.FirstChunkID,
	}
}

// Key returns the partition key.
func (p *Partition) Key() string {
	return p.key
}

// OpenChunkID returns the id of the chunk currently receiving writes.
func (p *Partition) OpenChunkID() (core.ChunkID, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.open, p.open.IsValid()
}

// CreateOpenChunk returns the id of the chunk receiving writes, creating a new
// Open chunk with a buffer from newBuffer if there is none. The second return
// is true if a chunk was created.
func (p *Partition) CreateOpenChunk(newBuffer func(core.ChunkID) MutableBuffer) (core.ChunkID, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.open.IsValid() {
		return p.open, false
	}
	id := p.nextID
	p.nextID = id.Next()
	p.chunks[id] = NewChunk(p.key, id, OpenState(newBuffer(id)))
	p.open = id
	log.V(1).Infof("[catalog] created open chunk %s:%d", p.key, id)
	return id, true
}

// DetachOpenChunk stops routing new writes to the current open chunk and
// returns its id. The chunk itself is not touched; writers that already
// looked up the id keep writing to it until it is closed.
func (p *Partition) DetachOpenChunk() (core.ChunkID, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	id := p.open
	p.open = 0
	return id, id.IsValid()
}

// DetachChunk stops routing new writes to the chunk if it is the open one.
// It returns true if it was.
func (p *Partition) DetachChunk(id core.ChunkID) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if id.IsValid() && p.open == id {
		p.open = 0
		return true
	}
	return false
}

// AddChunk adds an existing chunk in the given state, e.g. one found in the
// object store at startup.
func (p *Partition) AddChunk(id core.ChunkID, state ChunkState) error {
	if !id.IsValid() {
		return core.ErrInvalidArgument.Error()
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if _, ok := p.chunks[id]; ok {
		return core.ErrInvalidArgument.Error()
	}
	p.chunks[id] = NewChunk(p.key, id, state)
	if id >= p.nextID {
		p.nextID = id.Next()
	}
	if state.Kind() == StateOpen && !p.open.IsValid() {
		p.open = id
	}
	return nil
}

// ReserveID makes sure no chunk created later gets id, without adding a
// chunk. Used for persisted chunks that exist but couldn't be loaded.
func (p *Partition) ReserveID(id core.ChunkID) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if id >= p.nextID {
		p.nextID = id.Next()
	}
}

// WithChunk calls fn with exclusive access to the chunk. It returns
// ErrNoSuchChunk if the partition doesn't have it, otherwise fn's result.
func (p *Partition) WithChunk(id core.ChunkID, fn func(*Chunk) error) error {
	p.lock.RLock()
	c, ok := p.chunks[id]
	p.lock.RUnlock()
	if !ok {
		return core.ErrNoSuchChunk.Error()
	}

	p.locks.lockChunk(id)
	defer p.locks.unlockChunk(id)
	return fn(c)
}

// ChunkIDs returns the ids of all chunks, ascending.
func (p *Partition) ChunkIDs() []core.ChunkID {
	p.lock.RLock()
	defer p.lock.RUnlock()
	ids := make([]core.ChunkID, 0, len(p.chunks))
	for id := range p.chunks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ForEachChunk calls fn for every chunk in id order, each under its lock.
// Chunks dropped concurrently are skipped.
func (p *Partition) ForEachChunk(fn func(*Chunk)) {
	for _, id := range p.ChunkIDs() {
		p.WithChunk(id, func(c *Chunk) error {
			fn(c)
			return nil
		})
	}
}

// HasTable returns true if any chunk has the table.
func (p *Partition) HasTable(tableName string) bool {
	found := false
	p.ForEachChunk(func(c *Chunk) {
		found = found || c.HasTable(tableName)
	})
	return found
}

// TableNames adds the table names of all chunks to names.
func (p *Partition) TableNames(names *core.TableNameSet) {
	p.ForEachChunk(func(c *Chunk) {
		c.TableNames(names)
	})
}

// DropChunk removes a chunk from the partition and returns the state it was
// in, so the caller can release whatever tier backed it. Handles to the chunk
// handed out earlier remain valid.
func (p *Partition) DropChunk(id core.ChunkID) (ChunkState, error) {
	p.locks.lockChunk(id)
	defer p.locks.unlockChunk(id)

	p.lock.Lock()
	defer p.lock.Unlock()
	c, ok := p.chunks[id]
	if !ok {
		return ChunkState{}, core.ErrNoSuchChunk.Error()
	}
	delete(p.chunks, id)
	if p.open == id {
		p.open = 0
	}
	state := c.State()
	log.Infof("[catalog] dropped chunk %s:%d in state %s", p.key, id, state.Name())
	return state, nil
}
