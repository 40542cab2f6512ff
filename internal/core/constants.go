// Copyright (c) 2015 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package core

// Global constants that several components need to agree on are defined here.
// If a constant is only needed for single component, probably it should not be
// placed here.
const (
	// MaxTableNameLength bounds table names accepted by the mutable buffer.
	// Persisted chunks store names as flatbuffer strings, which have no
	// practical limit, but there's no reason to allow unbounded names.
	MaxTableNameLength = 256

	// FirstChunkID is the id assigned to the first chunk of a partition.
	// Zero is kept as a guard value.
	FirstChunkID ChunkID = 1
)
