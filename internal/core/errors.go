// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"errors"
)

// Error is our own defined error type for classifying failures across the
// storage tiers.
type Error int

const (
	// NoError means no error.
	NoError = Error(iota)

	//------ Catalog level errors ------//

	// ErrInvalidState is returned if a chunk is asked to do something that is
	// not legal for the state it is currently in.
	ErrInvalidState

	// ErrNoSuchChunk is returned when an operation requires a chunk to exist
	// but it does not.
	ErrNoSuchChunk

	// ErrNoSuchPartition is returned when an operation requires a partition to
	// exist but it does not.
	ErrNoSuchPartition

	// ErrChunkExists is returned when storing a chunk under an id that is
	// already taken.
	ErrChunkExists

	//------ Storage tier errors ------//

	// ErrReadOnlyChunk is returned when a write would create a new table in a
	// mutable buffer chunk that is closing.
	ErrReadOnlyChunk

	// ErrNoSuchTable is returned when a table is not present in a tier.
	ErrNoSuchTable

	// ErrCorruptData is returned if a persisted chunk fails its checksum or
	// can't be decoded.
	ErrCorruptData

	// ErrIO is returned if there is an OS-level IO error.
	ErrIO

	//------ Errors from any level ------//

	// ErrInvalidArgument is returned if an argument is bad or confusing (eg
	// empty table name).
	ErrInvalidArgument

	// ErrTooBusy means the server is too busy to do whatever it was asked to
	// do, e.g. because free memory is below the configured limit.
	ErrTooBusy

	// ErrCanceled is returned when a request is canceled.
	ErrCanceled

	// ErrUnknown is an error that we're not really sure about.
	ErrUnknown
)

var description = map[Error]string{
	NoError: "no error",

	// Catalog level errors.
	ErrInvalidState:    "invalid chunk state",
	ErrNoSuchChunk:     "chunk does not exist",
	ErrNoSuchPartition: "partition does not exist",
	ErrChunkExists:     "chunk already exists",

	// Storage tier errors.
	ErrReadOnlyChunk: "chunk is closing and does not accept new tables",
	ErrNoSuchTable:   "table does not exist",
	ErrCorruptData:   "persisted chunk is corrupt",
	ErrIO:            "I/O level error",

	// Errors from any level, really.
	ErrInvalidArgument: "invalid argument",
	ErrTooBusy:         "too busy",
	ErrCanceled:        "request canceled",
	ErrUnknown:         "unknown error!!!! contact a programming professional to diagnose",
}

// String returns a human readable error message.
func (e Error) String() string {
	if s, ok := description[e]; ok {
		return s
	}
	return "NO DESCRIPTION FOR ERROR FIX THIS"
}

// Error returns a golang error object with an error message corresponding to
// this core.Error.
func (e Error) Error() error {
	if e == NoError {
		return nil
	}
	return goError(e)
}

// Is checks whether the generic Go error 'g' is actually the receiver Error
// underneath, looking through wrapped errors.
func (e Error) Is(g error) bool {
	c, ok := AsError(g)
	return ok && c == e
}

// goError is a wrapper type to make our Error act like Go's 'error'
type goError Error

// Error implements the 'error' interface.
func (g goError) Error() string {
	return (Error)(g).String()
}

// AsError gets the underlying core.Error from an error, unwrapping as needed.
func AsError(err error) (Error, bool) {
	var g goError
	if errors.As(err, &g) {
		return Error(g), true
	}
	return NoError, false
}

// IsRetriableError checks if we should retry on a given returned error.
// We consider errors that might be transient to be retriable errors.
func IsRetriableError(err Error) bool {
	switch err {
	case ErrIO, // Disk hiccup, the next write might land.
		ErrTooBusy: // Make sense to backoff a little bit and retry.
		return true
	}
	return false
}

// IsRetriable checks if err is 1) a core.Error 2) retriable.
func IsRetriable(err error) bool {
	if c, ok := AsError(err); ok {
		return IsRetriableError(c)
	}
	return false
}
