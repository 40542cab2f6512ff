// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/pkg/testutil"
)

// chunkOp is one operation that can be applied to a chunk, together with the
// states it's legal in and the state it leads to.
type chunkOp struct {
	name     string
	expected string
	legal    map[StateKind]StateKind
	apply    func(c *Chunk) error
}

var chunkOps = []chunkOp{
	{
		name:     "mutable buffer reference",
		expected: "Open or Closing",
		legal:    map[StateKind]StateKind{StateOpen: StateOpen, StateClosing: StateClosing},
		apply: func(c *Chunk) error {
			_, err := c.MutableBuffer()
			return err
		},
	},
	{
		name:     "setting closing",
		expected: "Open or Closing",
		legal:    map[StateKind]StateKind{StateOpen: StateClosing, StateClosing: StateClosing},
		apply:    func(c *Chunk) error { return c.SetClosing() },
	},
	{
		name:     "setting closed",
		expected: "Open or Closing",
		legal:    map[StateKind]StateKind{StateOpen: StateClosed, StateClosing: StateClosed},
		apply:    func(c *Chunk) error { return c.SetClosed() },
	},
	{
		name:     "setting moving",
		expected: "Open, Closing or Closed",
		legal:    map[StateKind]StateKind{StateOpen: StateMoving, StateClosing: StateMoving, StateClosed: StateMoving},
		apply: func(c *Chunk) error {
			_, err := c.SetMoving()
			return err
		},
	},
	{
		name:     "setting moved",
		expected: "Moving",
		legal:    map[StateKind]StateKind{StateMoving: StateMoved},
		apply:    func(c *Chunk) error { return c.SetMoved(newTestReadBuffer()) },
	},
	{
		name:     "setting object store",
		expected: "Closed",
		legal:    map[StateKind]StateKind{StateClosed: StateObjectStore},
		apply: func(c *Chunk) error {
			_, err := c.SetObjectStore(newTestPersisted())
			return err
		},
	},
}

// checkUnexpectedState verifies that err describes an illegal operation on
// chunk "p1":7 while it was in state actual.
func checkUnexpectedState(t *testing.T, err error, op, expected, actual string) {
	t.Helper()
	var use *UnexpectedStateError
	if !errors.As(err, &use) {
		t.Fatalf("expected an UnexpectedStateError, got %v", err)
	}
	want := UnexpectedStateError{PartitionKey: "p1", ChunkID: 7, Operation: op, Expected: expected, Actual: actual}
	if *use != want {
		t.Errorf("got %+v, want %+v", *use, want)
	}
	if !errors.Is(err, core.ErrInvalidState.Error()) {
		t.Errorf("%v should classify as %s", err, core.ErrInvalidState)
	}
	if !core.ErrInvalidState.Is(err) {
		t.Errorf("core.ErrInvalidState.Is(%v) is false", err)
	}
}

// Every operation in every state either succeeds with the documented target
// state or fails leaving the state untouched.
func TestChunkTransitionLegality(t *testing.T) {
	for _, op := range chunkOps {
		for _, kind := range AllStates {
			c := NewChunk("p1", 7, stateOf(kind))
			before := c.State()
			err := op.apply(c)

			if to, ok := op.legal[kind]; ok {
				if err != nil {
					t.Errorf("%s from %s: unexpected error %v", op.name, kind, err)
					continue
				}
				if got := c.State().Kind(); got != to {
					t.Errorf("%s from %s: ended in %s, want %s", op.name, kind, got, to)
				}
				continue
			}

			if err == nil {
				t.Errorf("%s from %s: expected an error", op.name, kind)
				continue
			}
			checkUnexpectedState(t, err, op.name, op.expected, kind.String())
			if c.State() != before {
				t.Errorf("%s from %s: state changed on failure", op.name, kind)
			}
		}
	}
}

// No sequence of operations, legal or not, leaves a chunk in StateInvalid.
func TestChunkNeverInvalid(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	for run := 0; run < 200; run++ {
		c := NewChunk("p1", 7, stateOf(AllStates[rng.Intn(len(AllStates))]))
		for step := 0; step < 20; step++ {
			op := chunkOps[rng.Intn(len(chunkOps))]
			before := c.State()
			err := op.apply(c)
			if c.State().Kind() == StateInvalid {
				t.Fatalf("run %d step %d: %s left the chunk Invalid", run, step, op.name)
			}
			if err != nil && c.State() != before {
				t.Fatalf("run %d step %d: failed %s changed the state", run, step, op.name)
			}
		}
	}
}

func TestNewChunkInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected NewChunk to panic")
		}
	}()
	NewChunk("p1", 7, ChunkState{})
}

func TestSetClosingIdempotent(t *testing.T) {
	buf := newTestBuffer("cpu")
	c := NewChunk("p1", 7, OpenState(buf))

	for i := 0; i < 2; i++ {
		if err := c.SetClosing(); err != nil {
			t.Fatalf("SetClosing #%d: %v", i+1, err)
		}
		if c.State().Kind() != StateClosing {
			t.Fatalf("expected Closing, got %s", c.State().Name())
		}
	}
	if n := buf.Count("MarkClosing"); n != 2 {
		t.Errorf("MarkClosing called %d times, want 2", n)
	}
	got, err := c.MutableBuffer()
	if err != nil {
		t.Fatalf("MutableBuffer: %v", err)
	}
	if got != MutableBuffer(buf) {
		t.Errorf("closing replaced the buffer")
	}
}

func TestSetClosedSharesBuffer(t *testing.T) {
	buf := newTestBuffer("cpu")
	c := NewChunk("p1", 7, ClosingState(buf))
	if err := c.SetClosed(); err != nil {
		t.Fatalf("SetClosed: %v", err)
	}
	shared := c.State().SharedBuffer()
	if shared == nil || shared.Reader() != BufferReader(buf) {
		t.Fatalf("Closed state doesn't share the original buffer")
	}

	// Moving from Closed reuses the existing shared handle.
	h, err := c.SetMoving()
	if err != nil {
		t.Fatalf("SetMoving: %v", err)
	}
	if h != shared {
		t.Errorf("SetMoving wrapped the buffer a second time")
	}
}

// A handle returned by a transition stays usable after later transitions.
func TestHandleSurvivesTransitions(t *testing.T) {
	buf := newTestBuffer("cpu")
	c := NewChunk("p1", 7, OpenState(buf))
	h, err := c.SetMoving()
	if err != nil {
		t.Fatalf("SetMoving: %v", err)
	}
	if err := c.SetMoved(newTestReadBuffer("mem")); err != nil {
		t.Fatalf("SetMoved: %v", err)
	}
	buf.Reset()
	if !h.HasTable("cpu") {
		t.Errorf("shared handle lost its data after SetMoved")
	}
	buf.ExpectCalls(t, testutil.Call{Method: "HasTable", Args: []interface{}{"cpu"}})

	p := newTestPersisted("disk")
	c2 := NewChunk("p1", 8, ClosedState(NewSharedBuffer(newTestBuffer())))
	got, err := c2.SetObjectStore(p)
	if err != nil {
		t.Fatalf("SetObjectStore: %v", err)
	}
	if got != PersistedChunk(p) || c2.State().Persisted() != PersistedChunk(p) {
		t.Errorf("SetObjectStore didn't hand back the persisted chunk")
	}
}

// Table queries go to the tier backing the current state and nowhere else.
func TestChunkDispatch(t *testing.T) {
	buf := newTestBuffer("cpu")
	rb := newTestReadBuffer("cpu", "mem")
	pc := newTestPersisted("disk")

	c := NewChunk("p1", 7, OpenState(buf))
	if !c.HasTable("cpu") || c.HasTable("mem") {
		t.Errorf("Open chunk answered wrong")
	}
	buf.ExpectCalls(t,
		testutil.Call{Method: "HasTable", Args: []interface{}{"cpu"}},
		testutil.Call{Method: "HasTable", Args: []interface{}{"mem"}})
	buf.Reset()

	if err := c.SetClosed(); err != nil {
		t.Fatalf("SetClosed: %v", err)
	}
	names := core.NewTableNameSet()
	c.TableNames(names)
	if !reflect.DeepEqual(names.Names(), []string{"cpu"}) {
		t.Errorf("Closed chunk names: %v", names.Names())
	}
	buf.ExpectCalls(t,
		testutil.Call{Method: "MarkClosing"},
		testutil.Call{Method: "AllTableNames"})
	buf.Reset()

	if _, err := c.SetMoving(); err != nil {
		t.Fatalf("SetMoving: %v", err)
	}
	if err := c.SetMoved(rb); err != nil {
		t.Fatalf("SetMoved: %v", err)
	}
	if !c.HasTable("mem") {
		t.Errorf("Moved chunk should have mem")
	}
	names = core.NewTableNameSet()
	c.TableNames(names)
	if !reflect.DeepEqual(names.Names(), []string{"cpu", "mem"}) {
		t.Errorf("Moved chunk names: %v", names.Names())
	}
	rb.ExpectCalls(t,
		testutil.Call{Method: "HasTable", Args: []interface{}{"p1", "mem", []core.ChunkID{7}}},
		testutil.Call{Method: "AllTableNames", Args: []interface{}{"p1", []core.ChunkID{7}}})
	buf.ExpectNoCalls(t)

	c2 := NewChunk("p1", 8, ObjectStoreState(pc))
	if !c2.HasTable("disk") || c2.HasTable("cpu") {
		t.Errorf("ObjectStore chunk answered wrong")
	}
	names = core.NewTableNameSet()
	c2.TableNames(names)
	if !reflect.DeepEqual(names.Names(), []string{"disk"}) {
		t.Errorf("ObjectStore chunk names: %v", names.Names())
	}
	if n := len(pc.Calls()); n != 3 {
		t.Errorf("persisted chunk got %d calls, want 3", n)
	}
}

// Walk a chunk from Open to Moved, checking what is answered along the way.
func TestChunkLifecycle(t *testing.T) {
	buf := newTestBuffer("cpu")
	rb := newTestReadBuffer("cpu")
	c := NewChunk("p1", 7, OpenState(buf))

	if c.Key() != "p1" || c.ID() != 7 {
		t.Fatalf("bad identity %s", c.Addr())
	}
	if !c.HasTable("cpu") {
		t.Errorf("Open chunk should have cpu")
	}
	if c.HasTable("mem") {
		t.Errorf("Open chunk shouldn't have mem")
	}
	if err := c.SetClosing(); err != nil {
		t.Fatalf("SetClosing: %v", err)
	}
	if c.State().Name() != "Closing" {
		t.Errorf("expected Closing, got %s", c.State().Name())
	}
	h, err := c.SetMoving()
	if err != nil {
		t.Fatalf("SetMoving: %v", err)
	}
	if c.State().Name() != "Moving" {
		t.Errorf("expected Moving, got %s", c.State().Name())
	}
	if err := c.SetMoved(rb); err != nil {
		t.Fatalf("SetMoved: %v", err)
	}
	if c.State().Name() != "Moved" {
		t.Errorf("expected Moved, got %s", c.State().Name())
	}
	if !c.HasTable("cpu") {
		t.Errorf("Moved chunk should have cpu")
	}
	rb.ExpectCalls(t, testutil.Call{Method: "HasTable", Args: []interface{}{"p1", "cpu", []core.ChunkID{7}}})
	if !h.HasTable("cpu") {
		t.Errorf("handle from SetMoving should still answer")
	}

	// The mutable buffer is gone for good once the chunk has moved.
	_, err = c.MutableBuffer()
	checkUnexpectedState(t, err, "mutable buffer reference", "Open or Closing", "Moved")
	if c.State().Kind() != StateMoved {
		t.Errorf("failed lookup changed the state to %s", c.State().Name())
	}
}

func TestIllegalObjectStoreJump(t *testing.T) {
	pc := newTestPersisted("cpu")
	c := NewChunk("p1", 7, OpenState(newTestBuffer("cpu")))
	before := c.State()

	_, err := c.SetObjectStore(pc)
	checkUnexpectedState(t, err, "setting object store", "Closed", "Open")
	want := "Internal Error: unexpected chunk state for p1:7 during setting object store. Expected Closed, got Open"
	if err.Error() != want {
		t.Errorf("got message %q, want %q", err.Error(), want)
	}
	if c.State() != before {
		t.Errorf("failed transition changed the state")
	}
	pc.ExpectNoCalls(t)
}

func TestNilHandlesRejected(t *testing.T) {
	c := NewChunk("p1", 7, MovingState(NewSharedBuffer(newTestBuffer())))
	if err := c.SetMoved(nil); !core.ErrInvalidArgument.Is(err) {
		t.Errorf("SetMoved(nil): got %v", err)
	}
	c = NewChunk("p1", 7, ClosedState(NewSharedBuffer(newTestBuffer())))
	if _, err := c.SetObjectStore(nil); !core.ErrInvalidArgument.Is(err) {
		t.Errorf("SetObjectStore(nil): got %v", err)
	}
	if c.State().Kind() != StateClosed {
		t.Errorf("rejected argument changed the state")
	}
}

// A buffer that looks at its chunk while being told to close sees the state
// from before the transition.
func TestReentrantObserverSeesOldState(t *testing.T) {
	for _, op := range []func(*Chunk) error{
		(*Chunk).SetClosing,
		(*Chunk).SetClosed,
	} {
		buf := newTestBuffer("cpu")
		c := NewChunk("p1", 7, OpenState(buf))
		var seen []StateKind
		buf.onClosing = func() {
			seen = append(seen, c.State().Kind())
			if !c.HasTable("cpu") {
				t.Errorf("chunk couldn't answer queries during its transition")
			}
		}
		if err := op(c); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
		if !reflect.DeepEqual(seen, []StateKind{StateOpen}) {
			t.Errorf("observer saw %v, want [Open]", seen)
		}
	}
}

func TestStateNames(t *testing.T) {
	want := []string{"Open", "Closing", "Closed", "Moving", "Moved", "ObjectStore"}
	for i, k := range AllStates {
		if stateOf(k).Name() != want[i] {
			t.Errorf("state %d named %q, want %q", k, stateOf(k).Name(), want[i])
		}
	}
	if (ChunkState{}).Name() != "Invalid" {
		t.Errorf("zero state should be Invalid")
	}
	if StateKind(42).String() != "Unknown" {
		t.Errorf("out of range kind should be Unknown")
	}
}
