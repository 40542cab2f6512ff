// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package db

import (
	"fmt"
	"time"

	"github.com/westerndigitalcorporation/tierdb/internal/objectstore"
)

// Config encapsulates parameters for DB.
type Config struct {
	ObjectStore objectstore.Config // Where and how chunks are persisted.

	FreeMemLimit uint64 // No new open chunks if free system memory drops below this (bytes), 0 to disable.
	MaxChunkRows int    // Roll an open chunk over once it holds this many rows, 0 to disable.

	// --- Persistence ---
	PersistMinSleep   time.Duration // Initial backoff between attempts to write a chunk.
	PersistMaxSleep   time.Duration // Longest backoff between attempts to write a chunk.
	PersistMaxRetries int           // How many times to try writing a chunk.
}

// Validate validates the configuration object has reasonable(not obviously
// wrong) values.
func (c *Config) Validate() error {
	if err := c.ObjectStore.Validate(); err != nil {
		return err
	}
	if c.MaxChunkRows < 0 {
		return fmt.Errorf("max chunk rows can not be negative")
	}
	if c.PersistMaxRetries <= 0 {
		return fmt.Errorf("persist retries must be positive")
	}
	if c.PersistMaxSleep < c.PersistMinSleep {
		return fmt.Errorf("persist max sleep %s is less than min sleep %s", c.PersistMaxSleep, c.PersistMinSleep)
	}
	return nil
}

// DefaultProdConfig specifies the default values for Config that is used for
// production environment. ObjectStore.Path must still be filled in.
var DefaultProdConfig = Config{
	ObjectStore: objectstore.DefaultConfig,

	// We won't start a new open chunk if the amount of free system memory is
	// below this limit (byte). Writes to existing chunks still go through.
	FreeMemLimit: 1024 * 1024 * 1024,

	// Close chunks at about a million rows.
	MaxChunkRows: 1 << 20,

	// Bolt rarely fails, and when it does it's usually the disk. Give it a
	// few seconds.
	PersistMinSleep:   100 * time.Millisecond,
	PersistMaxSleep:   5 * time.Second,
	PersistMaxRetries: 5,
}

// DefaultTestConfig specifies the default values for Config that is used for
// testing environment.
var DefaultTestConfig = Config{
	ObjectStore: objectstore.Config{CacheSize: 16},

	// Tests must not depend on the memory of the machine running them.
	FreeMemLimit: 0,

	// Only roll over when a test asks for it.
	MaxChunkRows: 0,

	PersistMinSleep:   time.Millisecond,
	PersistMaxSleep:   10 * time.Millisecond,
	PersistMaxRetries: 3,
}
