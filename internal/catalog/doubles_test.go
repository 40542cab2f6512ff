// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/pkg/testutil"
)

// testBuffer is a MutableBuffer that records its calls.
type testBuffer struct {
	*testutil.Recorder
	tables []string

	// Called from MarkClosing, if set.
	onClosing func()
}

func newTestBuffer(tables ...string) *testBuffer {
	return &testBuffer{Recorder: testutil.NewRecorder("mutable buffer"), tables: tables}
}

func (b *testBuffer) HasTable(name string) bool {
	b.Record("HasTable", name)
	for _, t := range b.tables {
		if t == name {
			return true
		}
	}
	return false
}

func (b *testBuffer) AllTableNames(names *core.TableNameSet) {
	b.Record("AllTableNames")
	for _, t := range b.tables {
		names.Add(t)
	}
}

func (b *testBuffer) MarkClosing() {
	b.Record("MarkClosing")
	if b.onClosing != nil {
		b.onClosing()
	}
}

// testReadBuffer is a ReadBuffer that records its calls.
type testReadBuffer struct {
	*testutil.Recorder
	tables []string
}

func newTestReadBuffer(tables ...string) *testReadBuffer {
	return &testReadBuffer{Recorder: testutil.NewRecorder("read buffer"), tables: tables}
}

func (r *testReadBuffer) HasTable(partitionKey, tableName string, ids []core.ChunkID) bool {
	r.Record("HasTable", partitionKey, tableName, ids)
	for _, t := range r.tables {
		if t == tableName {
			return true
		}
	}
	return false
}

func (r *testReadBuffer) AllTableNames(partitionKey string, ids []core.ChunkID, names *core.TableNameSet) {
	r.Record("AllTableNames", partitionKey, ids)
	for _, t := range r.tables {
		names.Add(t)
	}
}

// testPersisted is a PersistedChunk that records its calls.
type testPersisted struct {
	*testutil.Recorder
	tables []string
}

func newTestPersisted(tables ...string) *testPersisted {
	return &testPersisted{Recorder: testutil.NewRecorder("persisted chunk"), tables: tables}
}

func (p *testPersisted) HasTable(name string) bool {
	p.Record("HasTable", name)
	for _, t := range p.tables {
		if t == name {
			return true
		}
	}
	return false
}

func (p *testPersisted) AllTableNames(names *core.TableNameSet) {
	p.Record("AllTableNames")
	for _, t := range p.tables {
		names.Add(t)
	}
}

// stateOf builds a state of the given kind backed by fresh doubles.
func stateOf(kind StateKind) ChunkState {
	switch kind {
	case StateOpen:
		return OpenState(newTestBuffer("cpu"))
	case StateClosing:
		return ClosingState(newTestBuffer("cpu"))
	case StateClosed:
		return ClosedState(NewSharedBuffer(newTestBuffer("cpu")))
	case StateMoving:
		return MovingState(NewSharedBuffer(newTestBuffer("cpu")))
	case StateMoved:
		return MovedState(newTestReadBuffer("cpu"))
	case StateObjectStore:
		return ObjectStoreState(newTestPersisted("cpu"))
	}
	return ChunkState{}
}
