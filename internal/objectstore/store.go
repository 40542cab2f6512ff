// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package objectstore implements the persisted tier. Chunks are encoded as
// FlatBuffers, compressed with snappy and kept in a BoltDB file with one
// bucket per partition.
package objectstore

import (
	"bytes"
	"encoding/binary"
	"hash/crc64"
	"os"
	"sync"

	"github.com/boltdb/bolt"
	"github.com/golang/groupcache/lru"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	log "github.com/golang/glog"
	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/internal/objectstore/fb"
	"github.com/westerndigitalcorporation/tierdb/internal/readbuffer"
)

const (
	mode os.FileMode = 0600

	// Chunks are written in mostly increasing id order within a partition.
	chunkFillPct = 0.90

	// Values are laid out as an 8 byte big-endian CRC64 of the uncompressed
	// FlatBuffer followed by the snappy encoded FlatBuffer.
	crcLen = 8
)

var crcTable = crc64.MakeTable(crc64.ECMA)

var (
	mBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "objectstore",
		Name:      "bytes_written",
		Help:      "compressed bytes written to the object store",
	})
	mCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "objectstore",
		Name:      "cache_lookups",
		Help:      "lookups of the open chunk cache",
	}, []string{"result"})
	mCacheHits   = mCacheLookups.WithLabelValues("hit")
	mCacheMisses = mCacheLookups.WithLabelValues("miss")
)

type cacheKey core.ChunkAddr

// Store is the persisted tier. It is safe for concurrent use.
type Store struct {
	db *bolt.DB

	// Protects cache. The lru package is not thread safe.
	lock  sync.Mutex
	cache *lru.Cache
}

// Open opens the store at cfg.Path, creating it if it doesn't exist.
func Open(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := bolt.Open(cfg.Path, mode, nil)
	if err != nil {
		log.Errorf("[objectstore] failed to open %s: %s", cfg.Path, err)
		return nil, err
	}
	log.Infof("[objectstore] opened %s", cfg.Path)
	return &Store{db: db, cache: lru.New(cfg.CacheSize)}, nil
}

// Close closes the underlying database. Handles returned earlier stay valid.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put persists the tables of a chunk and returns a handle to it. It fails with
// ErrChunkExists if a different record is already stored under the id; storing
// the identical record again succeeds, so a retried Put is harmless. Delete the
// chunk first to replace it.
func (s *Store) Put(partitionKey string, id core.ChunkID, tables []*readbuffer.Table) (*Chunk, core.Error) {
	if partitionKey == "" || !id.IsValid() {
		return nil, core.ErrInvalidArgument
	}

	raw := fb.BuildChunkFile(partitionKey, id, tables)
	val := make([]byte, crcLen, crcLen+snappy.MaxEncodedLen(len(raw)))
	binary.BigEndian.PutUint64(val, crc64.Checksum(raw, crcTable))
	val = append(val, snappy.Encode(nil, raw)...)

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(partitionKey))
		if err != nil {
			return err
		}
		if old := b.Get(id.Key()); old != nil {
			if bytes.Equal(old, val) {
				return nil
			}
			return core.ErrChunkExists.Error()
		}
		b.FillPercent = chunkFillPct
		return b.Put(id.Key(), val)
	})
	if err != nil {
		if core.ErrChunkExists.Is(err) {
			log.Errorf("[objectstore] refusing to overwrite chunk %s:%d", partitionKey, id)
			return nil, core.ErrChunkExists
		}
		log.Errorf("[objectstore] failed to write chunk %s:%d: %s", partitionKey, id, err)
		return nil, core.ErrIO
	}
	mBytesWritten.Add(float64(len(val)))

	c := newChunk(raw, len(val))
	s.cachePut(cacheKey{PartitionKey: partitionKey, ID: id}, c)
	return c, core.NoError
}

// Load returns a handle to a persisted chunk.
func (s *Store) Load(partitionKey string, id core.ChunkID) (*Chunk, core.Error) {
	key := cacheKey{PartitionKey: partitionKey, ID: id}
	if c := s.cacheGet(key); c != nil {
		mCacheHits.Inc()
		return c, core.NoError
	}
	mCacheMisses.Inc()

	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(partitionKey))
		if b == nil {
			return core.ErrNoSuchPartition.Error()
		}
		v := b.Get(id.Key())
		if v == nil {
			return core.ErrNoSuchChunk.Error()
		}
		// Bolt memory is only valid during the transaction.
		val = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if cerr, ok := core.AsError(err); ok {
			return nil, cerr
		}
		log.Errorf("[objectstore] failed to read chunk %s:%d: %s", partitionKey, id, err)
		return nil, core.ErrIO
	}

	raw, cerr := decodeValue(val)
	if cerr != core.NoError {
		log.Errorf("[objectstore] chunk %s:%d is corrupt", partitionKey, id)
		return nil, cerr
	}
	c := newChunk(raw, len(val))
	if c.PartitionKey() != partitionKey || c.ID() != id {
		log.Errorf("[objectstore] chunk %s:%d claims to be %s:%d", partitionKey, id, c.PartitionKey(), c.ID())
		return nil, core.ErrCorruptData
	}
	s.cachePut(key, c)
	return c, core.NoError
}

// Delete removes a persisted chunk. Handles to it stay valid.
func (s *Store) Delete(partitionKey string, id core.ChunkID) core.Error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(partitionKey))
		if b == nil {
			return core.ErrNoSuchPartition.Error()
		}
		if b.Get(id.Key()) == nil {
			return core.ErrNoSuchChunk.Error()
		}
		return b.Delete(id.Key())
	})
	if err != nil {
		if cerr, ok := core.AsError(err); ok {
			return cerr
		}
		log.Errorf("[objectstore] failed to delete chunk %s:%d: %s", partitionKey, id, err)
		return core.ErrIO
	}

	s.lock.Lock()
	s.cache.Remove(cacheKey{PartitionKey: partitionKey, ID: id})
	s.lock.Unlock()
	log.Infof("[objectstore] deleted chunk %s:%d", partitionKey, id)
	return core.NoError
}

// ChunkIDs returns the ids of all chunks persisted for a partition, ascending.
func (s *Store) ChunkIDs(partitionKey string) ([]core.ChunkID, core.Error) {
	var ids []core.ChunkID
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(partitionKey))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			id, err := core.ChunkIDFromKey(k)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		log.Errorf("[objectstore] failed to list partition %s: %s", partitionKey, err)
		return nil, core.ErrIO
	}
	return ids, core.NoError
}

// PartitionKeys returns the keys of all partitions with persisted chunks.
func (s *Store) PartitionKeys() ([]string, core.Error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			keys = append(keys, string(name))
			return nil
		})
	})
	if err != nil {
		log.Errorf("[objectstore] failed to list partitions: %s", err)
		return nil, core.ErrIO
	}
	return keys, core.NoError
}

func decodeValue(val []byte) ([]byte, core.Error) {
	if len(val) < crcLen {
		return nil, core.ErrCorruptData
	}
	raw, err := snappy.Decode(nil, val[crcLen:])
	if err != nil {
		return nil, core.ErrCorruptData
	}
	if crc64.Checksum(raw, crcTable) != binary.BigEndian.Uint64(val[:crcLen]) {
		return nil, core.ErrCorruptData
	}
	return raw, core.NoError
}

func (s *Store) cacheGet(key cacheKey) *Chunk {
	s.lock.Lock()
	defer s.lock.Unlock()
	if v, ok := s.cache.Get(key); ok {
		return v.(*Chunk)
	}
	return nil
}

func (s *Store) cachePut(key cacheKey, c *Chunk) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache.Add(key, c)
}
