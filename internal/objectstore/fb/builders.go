// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package fb

import (
	"sort"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/internal/readbuffer"
)

// BuildChunkFile encodes the columnar tables of a chunk. Tables are written
// sorted by name regardless of the order they are passed in.
func BuildChunkFile(partitionKey string, id core.ChunkID, tables []*readbuffer.Table) []byte {
	bu := flatbuffers.NewBuilder(1024)

	putColumn := func(c *readbuffer.Column) flatbuffers.UOffsetT {
		name := bu.CreateString(c.Name)
		ColumnFStartValuesVector(bu, len(c.Values))
		for i := len(c.Values) - 1; i >= 0; i-- {
			bu.PrependFloat64(c.Values[i])
		}
		values := bu.EndVector(len(c.Values))
		ColumnFStart(bu)
		ColumnFAddName(bu, name)
		ColumnFAddValues(bu, values)
		return ColumnFEnd(bu)
	}

	putTable := func(t *readbuffer.Table) flatbuffers.UOffsetT {
		// Children have to be finished before the parent object is started.
		cOffs := make([]flatbuffers.UOffsetT, len(t.Columns))
		for i := range t.Columns {
			cOffs[i] = putColumn(&t.Columns[i])
		}
		name := bu.CreateString(t.Name)

		TableFStartTimesVector(bu, len(t.Times))
		for i := len(t.Times) - 1; i >= 0; i-- {
			bu.PrependInt64(t.Times[i])
		}
		times := bu.EndVector(len(t.Times))

		TableFStartColumnsVector(bu, len(cOffs))
		for i := len(cOffs) - 1; i >= 0; i-- {
			bu.PrependUOffsetT(cOffs[i])
		}
		columns := bu.EndVector(len(cOffs))

		TableFStart(bu)
		TableFAddName(bu, name)
		TableFAddTimes(bu, times)
		TableFAddColumns(bu, columns)
		return TableFEnd(bu)
	}

	sorted := make([]*readbuffer.Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	tOffs := make([]flatbuffers.UOffsetT, len(sorted))
	for i, t := range sorted {
		tOffs[i] = putTable(t)
	}
	key := bu.CreateString(partitionKey)

	ChunkFileFStartTablesVector(bu, len(tOffs))
	for i := len(tOffs) - 1; i >= 0; i-- {
		bu.PrependUOffsetT(tOffs[i])
	}
	tVec := bu.EndVector(len(tOffs))

	ChunkFileFStart(bu)
	ChunkFileFAddPartitionKey(bu, key)
	ChunkFileFAddChunkId(bu, uint32(id))
	ChunkFileFAddTables(bu, tVec)
	bu.Finish(ChunkFileFEnd(bu))
	return bu.FinishedBytes()
}
