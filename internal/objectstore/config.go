// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package objectstore

import (
	"fmt"
)

// Config encapsulates parameters for the object store.
type Config struct {
	Path      string // Path of the BoltDB file.
	CacheSize int    // How many opened chunks to keep decoded in memory, 0 for no limit.
}

// Validate validates the configuration object has reasonable(not obviously
// wrong) values.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("object store path can not be empty")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("object store cache size can not be negative")
	}
	return nil
}

// DefaultConfig specifies the default values for Config. Path must still be
// filled in.
var DefaultConfig = Config{
	CacheSize: 256,
}
