// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

// BufferReader is the read-only view of a mutable buffer.
type BufferReader interface {
	HasTable(name string) bool
	AllTableNames(names *core.TableNameSet)
}

// MutableBuffer is the write tier as seen by a chunk.
type MutableBuffer interface {
	BufferReader
	// MarkClosing tells the buffer it will be closed soon.
	MarkClosing()
}

// ReadBuffer is the read optimized tier. One ReadBuffer serves many chunks,
// so every query is scoped to a partition and a set of chunk ids.
type ReadBuffer interface {
	HasTable(partitionKey, tableName string, ids []core.ChunkID) bool
	AllTableNames(partitionKey string, ids []core.ChunkID, names *core.TableNameSet)
}

// PersistedChunk is the persisted tier for a single chunk.
type PersistedChunk interface {
	HasTable(name string) bool
	AllTableNames(names *core.TableNameSet)
}

// SharedBuffer is a read-only handle to a mutable buffer that has stopped
// being exclusively owned by its chunk. Any number of readers may hold it, and
// it stays valid no matter what happens to the chunk afterwards.
type SharedBuffer struct {
	buf BufferReader
}

// NewSharedBuffer wraps buf. The caller gives up the right to write to it.
func NewSharedBuffer(buf MutableBuffer) *SharedBuffer {
	return &SharedBuffer{buf: buf}
}

// HasTable returns true if the buffer holds the table.
func (s *SharedBuffer) HasTable(name string) bool {
	return s.buf.HasTable(name)
}

// AllTableNames adds the buffer's table names to names.
func (s *SharedBuffer) AllTableNames(names *core.TableNameSet) {
	s.buf.AllTableNames(names)
}

// Reader returns the wrapped buffer for read-only use, e.g. to snapshot it
// while migrating to another tier.
func (s *SharedBuffer) Reader() BufferReader {
	return s.buf
}

// StateKind is the tag of a ChunkState.
type StateKind int

const (
	// StateInvalid is the zero value. NewChunk rejects it and no transition
	// produces it, so a Chunk never holds it.
	StateInvalid StateKind = iota
	// StateOpen chunks accept new writes.
	StateOpen
	// StateClosing chunks still accept writes but will be closed soon.
	StateClosing
	// StateClosed chunks are read-only and held in memory.
	StateClosed
	// StateMoving chunks are being copied into the read buffer. The mutable
	// buffer is still the authoritative copy.
	StateMoving
	// StateMoved chunks live in the read buffer.
	StateMoved
	// StateObjectStore chunks are persisted.
	StateObjectStore
)

var stateNames = [...]string{
	StateInvalid:     "Invalid",
	StateOpen:        "Open",
	StateClosing:     "Closing",
	StateClosed:      "Closed",
	StateMoving:      "Moving",
	StateMoved:       "Moved",
	StateObjectStore: "ObjectStore",
}

// AllStates lists every externally visible state.
var AllStates = []StateKind{StateOpen, StateClosing, StateClosed, StateMoving, StateMoved, StateObjectStore}

func (k StateKind) String() string {
	if k >= 0 && int(k) < len(stateNames) {
		return stateNames[k]
	}
	return "Unknown"
}

// ChunkState is the state of a chunk together with the storage tier handle
// that backs it. Only the handle matching the kind is set. Build one with the
// XxxState functions below.
type ChunkState struct {
	kind       StateKind
	buffer     MutableBuffer  // Open, Closing
	shared     *SharedBuffer  // Closed, Moving
	readBuffer ReadBuffer     // Moved
	persisted  PersistedChunk // ObjectStore
}

// OpenState returns an Open state owning buf exclusively.
func OpenState(buf MutableBuffer) ChunkState {
	return ChunkState{kind: StateOpen, buffer: buf}
}

// ClosingState returns a Closing state owning buf exclusively.
func ClosingState(buf MutableBuffer) ChunkState {
	return ChunkState{kind: StateClosing, buffer: buf}
}

// ClosedState returns a Closed state holding a shared buffer.
func ClosedState(buf *SharedBuffer) ChunkState {
	return ChunkState{kind: StateClosed, shared: buf}
}

// MovingState returns a Moving state holding a shared buffer.
func MovingState(buf *SharedBuffer) ChunkState {
	return ChunkState{kind: StateMoving, shared: buf}
}

// MovedState returns a Moved state backed by the read buffer.
func MovedState(db ReadBuffer) ChunkState {
	return ChunkState{kind: StateMoved, readBuffer: db}
}

// ObjectStoreState returns an ObjectStore state backed by a persisted chunk.
func ObjectStoreState(c PersistedChunk) ChunkState {
	return ChunkState{kind: StateObjectStore, persisted: c}
}

// Kind returns the state's tag.
func (s ChunkState) Kind() StateKind {
	return s.kind
}

// Name returns a stable label for the state, for use in errors and metrics.
func (s ChunkState) Name() string {
	return s.kind.String()
}

// SharedBuffer returns the shared buffer of a Closed or Moving state, or nil.
func (s ChunkState) SharedBuffer() *SharedBuffer {
	return s.shared
}

// ReadBuffer returns the read buffer of a Moved state, or nil.
func (s ChunkState) ReadBuffer() ReadBuffer {
	return s.readBuffer
}

// Persisted returns the persisted chunk of an ObjectStore state, or nil.
func (s ChunkState) Persisted() PersistedChunk {
	return s.persisted
}
