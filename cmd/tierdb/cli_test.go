// Copyright (c) 2019 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"reflect"
	"testing"

	"github.com/westerndigitalcorporation/tierdb/internal/catalog"
	"github.com/westerndigitalcorporation/tierdb/internal/db"
	"github.com/westerndigitalcorporation/tierdb/internal/mutablebuffer"
	"github.com/westerndigitalcorporation/tierdb/pkg/testutil"
)

func TestMain(m *testing.M) {
	testutil.TestMain(m)
}

func TestParseRow(t *testing.T) {
	row, err := parseRow("10,usage=0.5,idle=3")
	if err != nil {
		t.Fatalf("parseRow: %s", err)
	}
	want := mutablebuffer.Row{Time: 10, Fields: map[string]float64{"usage": 0.5, "idle": 3}}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("got %+v, want %+v", row, want)
	}

	if row, err := parseRow("7"); err != nil || row.Time != 7 || len(row.Fields) != 0 {
		t.Errorf("time only: %+v, %v", row, err)
	}
	for _, bad := range []string{"", "x,usage=1", "1,usage", "1,=3", "1,usage=abc"} {
		if _, err := parseRow(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestCommands(t *testing.T) {
	cfg := db.DefaultTestConfig
	cfg.ObjectStore.Path = testutil.TempFile(t, "objects.db")
	d, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open db: %s", err)
	}
	c := newTierCli(d)
	defer c.stop()

	for _, args := range [][]string{
		{"write", "-p", "p1", "-t", "cpu", "1,usage=0.5", "2,usage=0.7"},
		{"rollover", "-p", "p1"},
		{"persist", "-p", "p1", "-c", "1"},
		{"write", "-p", "p1", "-t", "mem", "3,free=10"},
		{"move", "-p", "p1", "-c", "2"},
		{"chunks"},
		{"tables", "-p", "p1"},
		{"read", "-p", "p1", "-c", "1", "-t", "cpu"},
		{"read", "-p", "p1", "-c", "2"},
		{"stats"},
	} {
		if err := c.run(append([]string{"tierdb"}, args...)); err != nil {
			t.Fatalf("%v: %s", args, err)
		}
	}

	want := []catalog.StateKind{catalog.StateObjectStore, catalog.StateMoved}
	var got []catalog.StateKind
	for _, s := range d.Summaries() {
		got = append(got, s.State)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("chunk states %v, want %v", got, want)
	}
	if names := d.TableNames("p1"); !reflect.DeepEqual(names, []string{"cpu", "mem"}) {
		t.Errorf("tables %v", names)
	}

	if err := c.run([]string{"tierdb", "drop", "-p", "p1", "-c", "2"}); err != nil {
		t.Fatalf("drop: %s", err)
	}
	if names := d.TableNames("p1"); !reflect.DeepEqual(names, []string{"cpu"}) {
		t.Errorf("tables after drop %v", names)
	}
}
