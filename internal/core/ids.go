// Copyright (c) 2016 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

/*

Chunks are identified within the partition that owns them:

 - PartitionKey is an opaque string naming a partition (e.g. "2021-03-04").
 - ChunkID is the 32 bits (or 4 bytes) in-partition ID of a chunk.

     +---------------------------+-----------------------+
     |  PartitionKey (variable)  |  ChunkID (4 bytes)    |
     +---------------------------+-----------------------+

 ChunkIDs are only unique within their partition, so anything global (logs,
 the object store, metrics) uses the pair.

*/

// ErrInvalidID is the error returned when a string representation of an ID is invalid.
var ErrInvalidID = errors.New("invalid id format")

// ChunkID identifies a chunk within its partition. Valid ChunkIDs start from 1.
type ChunkID uint32

// IsValid returns if 'c' is a valid ChunkID.
func (c ChunkID) IsValid() bool {
	return c != ChunkID(0)
}

// Next returns the ChunkID following c.
func (c ChunkID) Next() ChunkID {
	return c + 1
}

func (c ChunkID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// ParseChunkID parses the decimal string form of a ChunkID.
func ParseChunkID(s string) (ChunkID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0, ErrInvalidID
	}
	return ChunkID(v), nil
}

// Key returns the big-endian byte encoding of c, which sorts the same way as
// the numeric value. Used as a key in the object store.
func (c ChunkID) Key() []byte {
	var key [4]byte
	binary.BigEndian.PutUint32(key[:], uint32(c))
	return key[:]
}

// ChunkIDFromKey is the reverse of ChunkID.Key.
func ChunkIDFromKey(key []byte) (ChunkID, error) {
	if len(key) != 4 {
		return 0, ErrInvalidID
	}
	return ChunkID(binary.BigEndian.Uint32(key)), nil
}

// ChunkAddr is the globally unique address of a chunk.
type ChunkAddr struct {
	// What partition does this chunk belong to?
	PartitionKey string

	// What is the chunk's ID within the partition?
	ID ChunkID
}

func (a ChunkAddr) String() string {
	return fmt.Sprintf("%s:%d", a.PartitionKey, a.ID)
}
