// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"fmt"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

// Chunk is the catalog's view of a unit of stored data as it moves between
// storage tiers. A chunk has exactly one state at a time; the state decides
// which tier answers queries about the chunk.
//
// Chunk methods are not synchronized. Callers that mutate a chunk must hold
// whatever exclusive access the owner provides (see Partition.WithChunk).
//
// Every SetXxx transition inspects a copy of the current state, builds the new
// state in locals and installs it with a single assignment. An illegal
// transition returns an UnexpectedStateError and leaves the chunk untouched,
// so the chunk is only ever seen in its old or its new state, never in
// StateInvalid.
type Chunk struct {
	partitionKey string
	id           core.ChunkID
	state        ChunkState
}

// NewChunk creates a chunk in the given state. Freshly ingested data should
// start Open, but any valid state is accepted so that chunks can be rebuilt
// from other tiers.
func NewChunk(partitionKey string, id core.ChunkID, state ChunkState) *Chunk {
	if state.kind == StateInvalid {
		panic(fmt.Sprintf("chunk %s:%d created in state %s", partitionKey, id, state.Name()))
	}
	return &Chunk{partitionKey: partitionKey, id: id, state: state}
}

// ID returns the chunk id.
func (c *Chunk) ID() core.ChunkID {
	return c.id
}

// Key returns the key of the partition the chunk belongs to.
func (c *Chunk) Key() string {
	return c.partitionKey
}

// Addr returns the chunk's global address.
func (c *Chunk) Addr() core.ChunkAddr {
	return core.ChunkAddr{PartitionKey: c.partitionKey, ID: c.id}
}

// State returns the current state.
func (c *Chunk) State() ChunkState {
	return c.state
}

// HasTable returns true if the tier currently backing the chunk contains the
// table.
func (c *Chunk) HasTable(tableName string) bool {
	s := &c.state
	switch s.kind {
	case StateOpen, StateClosing:
		return s.buffer.HasTable(tableName)
	case StateClosed, StateMoving:
		return s.shared.HasTable(tableName)
	case StateMoved:
		return s.readBuffer.HasTable(c.partitionKey, tableName, []core.ChunkID{c.id})
	case StateObjectStore:
		return s.persisted.HasTable(tableName)
	}
	return false
}

// TableNames adds the names of the chunk's tables to names.
func (c *Chunk) TableNames(names *core.TableNameSet) {
	s := &c.state
	switch s.kind {
	case StateOpen, StateClosing:
		s.buffer.AllTableNames(names)
	case StateClosed, StateMoving:
		s.shared.AllTableNames(names)
	case StateMoved:
		s.readBuffer.AllTableNames(c.partitionKey, []core.ChunkID{c.id}, names)
	case StateObjectStore:
		s.persisted.AllTableNames(names)
	}
}

// MutableBuffer returns the exclusively owned write buffer. The chunk must be
// Open or Closing.
func (c *Chunk) MutableBuffer() (MutableBuffer, error) {
	switch c.state.kind {
	case StateOpen, StateClosing:
		return c.state.buffer, nil
	}
	return nil, c.unexpectedState("mutable buffer reference", "Open or Closing", c.state)
}

// SetClosing moves the chunk to Closing and tells its buffer. Closing a
// chunk that is already Closing is allowed.
func (c *Chunk) SetClosing() error {
	s := c.state
	switch s.kind {
	case StateOpen, StateClosing:
		s.buffer.MarkClosing()
		c.state = ClosingState(s.buffer)
		return nil
	}
	return c.unexpectedState("setting closing", "Open or Closing", s)
}

// SetClosed closes the chunk for writes. The buffer becomes shared and can no
// longer be written through the chunk.
func (c *Chunk) SetClosed() error {
	s := c.state
	switch s.kind {
	case StateOpen, StateClosing:
		s.buffer.MarkClosing()
		c.state = ClosedState(NewSharedBuffer(s.buffer))
		return nil
	}
	return c.unexpectedState("setting closed", "Open or Closing", s)
}

// SetMoving marks the chunk as being moved to the read buffer and returns the
// shared buffer to copy from. The returned handle stays usable after the
// chunk moves on.
func (c *Chunk) SetMoving() (*SharedBuffer, error) {
	s := c.state
	switch s.kind {
	case StateOpen, StateClosing:
		shared := NewSharedBuffer(s.buffer)
		c.state = MovingState(shared)
		return shared, nil
	case StateClosed:
		c.state = MovingState(s.shared)
		return s.shared, nil
	}
	return nil, c.unexpectedState("setting moving", "Open, Closing or Closed", s)
}

// SetMoved finishes a move: the chunk is now served by db and drops its
// reference to the mutable buffer.
func (c *Chunk) SetMoved(db ReadBuffer) error {
	if db == nil {
		return core.ErrInvalidArgument.Error()
	}
	if s := c.state; s.kind != StateMoving {
		return c.unexpectedState("setting moved", "Moving", s)
	}
	c.state = MovedState(db)
	return nil
}

// SetObjectStore marks the chunk as persisted and returns the handle.
func (c *Chunk) SetObjectStore(persisted PersistedChunk) (PersistedChunk, error) {
	if persisted == nil {
		return nil, core.ErrInvalidArgument.Error()
	}
	// TODO: Closed is the only source state until we decide whether Moving
	// and Moved chunks can be persisted directly.
	if s := c.state; s.kind != StateClosed {
		return nil, c.unexpectedState("setting object store", "Closed", s)
	}
	c.state = ObjectStoreState(persisted)
	return persisted, nil
}

func (c *Chunk) unexpectedState(op, expected string, actual ChunkState) error {
	return &UnexpectedStateError{
		PartitionKey: c.partitionKey,
		ChunkID:      c.id,
		Operation:    op,
		Expected:     expected,
		Actual:       actual.Name(),
	}
}
