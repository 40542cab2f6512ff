// Copyright (c) 2017 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package testutil

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

// Recorder is a small helper for writing test doubles that need to report
// which of their methods were invoked. It's intended to be embedded in another
// struct whose methods call Record.
type Recorder struct {
	name  string
	lock  sync.Mutex
	calls []Call
}

// Call is one recorded invocation.
type Call struct {
	Method string
	Args   []interface{}
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprintf("%#v", a)
	}
	return fmt.Sprintf("%s(%s)", c.Method, strings.Join(args, ", "))
}

// NewRecorder creates a new Recorder. The name is used in failure messages.
func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

// Record registers an invocation of method with the given arguments.
func (r *Recorder) Record(method string, args ...interface{}) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.calls = append(r.calls, Call{Method: method, Args: args})
}

// Calls returns a copy of the recorded invocations, in order.
func (r *Recorder) Calls() []Call {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many times method was invoked.
func (r *Recorder) Count(method string) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset forgets all recorded invocations.
func (r *Recorder) Reset() {
	r.lock.Lock()
	r.calls = nil
	r.lock.Unlock()
}

// ExpectCalls checks that exactly the given invocations were recorded, in
// order. Arguments are compared with reflect.DeepEqual.
func (r *Recorder) ExpectCalls(t *testing.T, want ...Call) {
	t.Helper()
	got := r.Calls()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s: unexpected calls\n got %v\nwant %v", r.name, got, want)
	}
}

// ExpectNoCalls checks that nothing was recorded.
func (r *Recorder) ExpectNoCalls(t *testing.T) {
	t.Helper()
	if got := r.Calls(); len(got) != 0 {
		t.Errorf("%s: expected no calls, got %v", r.name, got)
	}
}
