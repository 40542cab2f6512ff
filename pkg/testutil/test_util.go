// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package testutil holds helpers shared by the tierdb tests: scratch space
// for BoltDB files and a Recorder for building test doubles of the storage
// tiers.
//
// Packages that use TempDir or TempFile should route their tests through
// TestMain so the scratch space is removed after a passing run:
//
//	func TestMain(m *testing.M) {
//		testutil.TestMain(m)
//	}
//
// Failing runs leave their files behind for inspection.
package testutil

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var (
	// Scratch directory of this test binary, created on first use.
	scratch string
	// Set if we had to create a parent for scratch ourselves.
	createdParent string
)

// TempDir returns a scratch directory private to this test binary. Tests that
// need isolation from each other should use TempFile or make a subdirectory.
func TempDir() string {
	if scratch == "" {
		dir, err := os.MkdirTemp(scratchParent(), filepath.Base(os.Args[0]))
		if err != nil {
			log.Fatalf("failed to create scratch dir: %s", err)
		}
		scratch = dir
	}
	return scratch
}

// TempFile returns the path of a file that doesn't exist yet, inside a fresh
// directory named after the test. BoltDB creates the file itself on Open.
func TempFile(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp(TempDir(), strings.Replace(t.Name(), "/", "_", -1))
	if err != nil {
		t.Fatalf("failed to create directory for %s: %s", name, err)
	}
	return filepath.Join(dir, name)
}

// scratchParent returns $TMPDIR if set, or else a timestamped directory under
// the working directory.
func scratchParent() string {
	if tmp := os.Getenv("TMPDIR"); tmp != "" {
		return tmp
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working dir: %s", err)
	}
	parent := filepath.Join(wd, time.Now().Format("20060102.150405.test"))
	if err := os.Mkdir(parent, 0755); err != nil && !os.IsExist(err) {
		log.Fatalf("failed to create %s: %s", parent, err)
	}
	createdParent = parent
	return parent
}

func removeScratch() {
	if scratch != "" {
		os.RemoveAll(scratch)
	}
	if createdParent != "" {
		os.RemoveAll(createdParent)
	}
}

// TestMain runs the tests and removes the scratch space if they all passed.
func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()
	if code == 0 {
		removeScratch()
	}
	os.Exit(code)
}
