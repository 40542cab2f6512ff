// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package objectstore

import (
	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/internal/objectstore/fb"
	"github.com/westerndigitalcorporation/tierdb/internal/readbuffer"
)

// Chunk is a handle to a persisted chunk. It holds the decoded chunk file in
// memory and is immutable, so it can be shared freely.
type Chunk struct {
	partitionKey string
	id           core.ChunkID
	size         int // compressed size on disk
	file         *fb.ChunkFileF
}

func newChunk(buf []byte, size int) *Chunk {
	f := fb.GetRootAsChunkFileF(buf, 0)
	return &Chunk{
		partitionKey: string(f.PartitionKey()),
		id:           core.ChunkID(f.ChunkId()),
		size:         size,
		file:         f,
	}
}

// PartitionKey returns the key of the partition the chunk belongs to.
func (c *Chunk) PartitionKey() string {
	return c.partitionKey
}

// ID returns the chunk id.
func (c *Chunk) ID() core.ChunkID {
	return c.id
}

// Size returns the number of bytes the chunk takes in the store.
func (c *Chunk) Size() int {
	return c.size
}

// HasTable returns true if the chunk contains the table.
func (c *Chunk) HasTable(name string) bool {
	var t fb.TableF
	return c.file.FindTable(name, &t)
}

// AllTableNames adds the names of all tables in the chunk to names.
func (c *Chunk) AllTableNames(names *core.TableNameSet) {
	var t fb.TableF
	for i := 0; i < c.file.TablesLength(); i++ {
		c.file.Tables(&t, i)
		names.Add(string(t.Name()))
	}
}

// RowCount returns the number of rows stored for a table.
func (c *Chunk) RowCount(name string) (int, core.Error) {
	var t fb.TableF
	if !c.file.FindTable(name, &t) {
		return 0, core.ErrNoSuchTable
	}
	return t.TimesLength(), core.NoError
}

// Table decodes a table into columnar form.
func (c *Chunk) Table(name string) (*readbuffer.Table, core.Error) {
	var t fb.TableF
	if !c.file.FindTable(name, &t) {
		return nil, core.ErrNoSuchTable
	}
	return t.ToTable(), core.NoError
}

// Tables decodes every table of the chunk, sorted by name.
func (c *Chunk) Tables() []*readbuffer.Table {
	return c.file.ToTables()
}
