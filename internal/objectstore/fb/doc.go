// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package fb

// You must have flatc installed to regenerate chunk_generated.go. Get it here:
// https://google.github.io/flatbuffers/
//go:generate flatc --go --gen-onefile -o . chunk.fbs

/*

Persisted chunks are encoded with FlatBuffers and stored in BoltDB by the
object store (after snappy compression).

The conventions follow the curator's metadata encoding:

- The FlatBuffer types are named with an "F" suffix.

- Each root type has a Build___ function (in builders.go) that takes plain Go
values and returns an encoded FlatBuffer as a []byte.

- ToTables (in unbuilders.go) decodes back into the read buffer's columnar
tables. Anything that just answers questions about a persisted chunk (table
names, row counts) should use the FlatBuffers objects directly instead.

Tables in a ChunkFileF are sorted by name, which lets lookups binary search.

*/
