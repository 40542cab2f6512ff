// Copyright (c) 2015 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"sync"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

// chunkLocks provides exclusive access to individual chunks of a partition.
// Transitions on different chunks proceed in parallel; transitions and
// queries on the same chunk are serialized.
type chunkLocks struct {
	// Protects cond and held.
	lock sync.Mutex

	// Signals when something is unlocked.
	cond sync.Cond

	// If present, the chunk is locked.
	held map[core.ChunkID]bool
}

func newChunkLocks() *chunkLocks {
	l := new(chunkLocks)
	l.cond.L = &l.lock
	l.held = make(map[core.ChunkID]bool)
	return l
}

// lockChunk blocks until it has exclusive access to the chunk.
func (l *chunkLocks) lockChunk(id core.ChunkID) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for l.held[id] {
		l.cond.Wait()
	}
	l.held[id] = true
}

// unlockChunk releases a chunk locked with lockChunk.
func (l *chunkLocks) unlockChunk(id core.ChunkID) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.held[id] {
		panic("wasn't locked!")
	}
	delete(l.held, id)
	l.cond.Broadcast()
}
