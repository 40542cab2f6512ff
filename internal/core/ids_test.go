// Copyright (c) 2016 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"bytes"
	"testing"
)

func TestParseChunkID(t *testing.T) {
	tests := []struct {
		in    string
		id    ChunkID
		valid bool
	}{
		{"1", 1, true},
		{"4294967295", 4294967295, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"4294967296", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		id, err := ParseChunkID(tc.in)
		if tc.valid != (err == nil) {
			t.Errorf("ParseChunkID(%q): unexpected error %v", tc.in, err)
			continue
		}
		if id != tc.id {
			t.Errorf("ParseChunkID(%q) = %d, want %d", tc.in, id, tc.id)
		}
	}
}

// Keys must sort in the same order as the ids.
func TestChunkIDKeyOrder(t *testing.T) {
	ids := []ChunkID{1, 2, 255, 256, 65536, 1 << 31}
	for i := 1; i < len(ids); i++ {
		if bytes.Compare(ids[i-1].Key(), ids[i].Key()) >= 0 {
			t.Errorf("key of %d doesn't sort before key of %d", ids[i-1], ids[i])
		}
		back, err := ChunkIDFromKey(ids[i].Key())
		if err != nil || back != ids[i] {
			t.Errorf("ChunkIDFromKey(%d.Key()) = %d, %v", ids[i], back, err)
		}
	}
	if _, err := ChunkIDFromKey([]byte{1, 2}); err != ErrInvalidID {
		t.Errorf("short key should be rejected")
	}
}

func TestChunkAddrString(t *testing.T) {
	a := ChunkAddr{PartitionKey: "p1", ID: 7}
	if a.String() != "p1:7" {
		t.Errorf("got %q", a.String())
	}
	if ChunkID(0).IsValid() || !FirstChunkID.IsValid() {
		t.Errorf("zero is the guard id")
	}
}
