// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"fmt"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

// UnexpectedStateError is returned when a chunk is asked to do something its
// current state doesn't allow. The chunk is left exactly as it was.
type UnexpectedStateError struct {
	PartitionKey string
	ChunkID      core.ChunkID
	Operation    string // e.g. "setting moving"
	Expected     string // e.g. "Open, Closing or Closed"
	Actual       string // name of the state the chunk was in
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf("Internal Error: unexpected chunk state for %s:%d during %s. Expected %s, got %s",
		e.PartitionKey, e.ChunkID, e.Operation, e.Expected, e.Actual)
}

// Unwrap classifies the error as core.ErrInvalidState.
func (e *UnexpectedStateError) Unwrap() error {
	return core.ErrInvalidState.Error()
}
