// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"github.com/google/btree"
)

// TableNameSet is an ordered set of table names. Storage tiers accumulate into
// a caller supplied set so names can be gathered across many chunks without
// allocating per call.
type TableNameSet struct {
	names *btree.BTreeG[string]
}

// NewTableNameSet returns an empty set.
func NewTableNameSet() *TableNameSet {
	return &TableNameSet{names: btree.NewOrderedG[string](16)}
}

// Add inserts name. Adding a name twice is a no-op.
func (s *TableNameSet) Add(name string) {
	s.names.ReplaceOrInsert(name)
}

// Has returns true if name is in the set.
func (s *TableNameSet) Has(name string) bool {
	return s.names.Has(name)
}

// Len returns the number of names in the set.
func (s *TableNameSet) Len() int {
	return s.names.Len()
}

// Names returns the names in ascending order.
func (s *TableNameSet) Names() []string {
	out := make([]string, 0, s.names.Len())
	s.names.Ascend(func(name string) bool {
		out = append(out, name)
		return true
	})
	return out
}
