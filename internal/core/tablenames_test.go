// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"reflect"
	"testing"
)

func TestTableNameSet(t *testing.T) {
	s := NewTableNameSet()
	if s.Len() != 0 || len(s.Names()) != 0 {
		t.Fatalf("new set should be empty")
	}

	for _, n := range []string{"mem", "cpu", "disk", "cpu"} {
		s.Add(n)
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 names, got %d", s.Len())
	}
	if !s.Has("cpu") || s.Has("net") {
		t.Errorf("membership is wrong")
	}
	if got, want := s.Names(), []string{"cpu", "disk", "mem"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
