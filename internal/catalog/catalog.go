// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package catalog tracks chunks of stored data through their lifecycle across
// storage tiers: Open and Closing chunks are backed by a mutable buffer,
// Closed and Moving chunks by a shared read-only view of it, Moved chunks by
// the read buffer and ObjectStore chunks by a persisted file.
package catalog

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

var mChunks = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "catalog",
	Name:      "chunks",
	Help:      "number of chunks in each state",
}, []string{"state"})

// Catalog holds the partitions of a database.
type Catalog struct {
	lock       sync.RWMutex
	partitions map[string]*Partition
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{partitions: make(map[string]*Partition)}
}

// Partition returns the partition with the given key.
func (c *Catalog) Partition(key string) (*Partition, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	p, ok := c.partitions[key]
	return p, ok
}

// GetOrCreatePartition returns the partition with the given key, creating it
// if needed.
func (c *Catalog) GetOrCreatePartition(key string) *Partition {
	if p, ok := c.Partition(key); ok {
		return p
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if p, ok := c.partitions[key]; ok {
		return p
	}
	p := newPartition(key)
	c.partitions[key] = p
	return p
}

// PartitionKeys returns the keys of all partitions, sorted.
func (c *Catalog) PartitionKeys() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	keys := make([]string, 0, len(c.partitions))
	for k := range c.partitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ChunkSummary describes a chunk for listings.
type ChunkSummary struct {
	Addr  core.ChunkAddr
	State StateKind
}

// Summaries returns a summary of every chunk, ordered by partition key and id.
func (c *Catalog) Summaries() []ChunkSummary {
	var out []ChunkSummary
	for _, key := range c.PartitionKeys() {
		p, _ := c.Partition(key)
		p.ForEachChunk(func(ch *Chunk) {
			out = append(out, ChunkSummary{Addr: ch.Addr(), State: ch.State().Kind()})
		})
	}
	return out
}

// UpdateMetrics refreshes the per-state chunk gauges.
func (c *Catalog) UpdateMetrics() {
	counts := make(map[StateKind]int)
	for _, s := range c.Summaries() {
		counts[s.State]++
	}
	for _, k := range AllStates {
		mChunks.WithLabelValues(k.String()).Set(float64(counts[k]))
	}
}
