// Copyright (c) 2016 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/codegangsta/cli"
	shlex "github.com/flynn-archive/go-shlex"
	"github.com/peterh/liner"

	log "github.com/golang/glog"
	"github.com/westerndigitalcorporation/tierdb/internal/core"
	"github.com/westerndigitalcorporation/tierdb/internal/db"
	"github.com/westerndigitalcorporation/tierdb/internal/mutablebuffer"
	"github.com/westerndigitalcorporation/tierdb/internal/readbuffer"
)

var usage = `
	tierdb is a tool to write data into a local tiered database and move its
	chunks between storage tiers by hand.

	You can issue one command at a time:

		tierdb [-path <file>] <subcommand> [<flags>...]

	or start a command line interpreter:

		tierdb [-path <file>] shell

	Rows are given as arguments of the form time,field=value,field=value:

		tierdb -path /tmp/t.db write -p host1 -t cpu 10,usage=0.5 11,usage=0.7
	`

// tierCli runs commands against an open database.
type tierCli struct {
	db *db.DB
	// the command line framework we'll use to launch commands.
	app *cli.App
	// True if we are running a shell.
	inShell bool
}

// newTierCli creates a new tierCli object.
func newTierCli(d *db.DB) *tierCli {
	t := &tierCli{db: d}
	app := cli.NewApp()
	app.Name = "tierdb"
	app.Usage = usage

	partitionFlag := cli.StringFlag{
		Name:  "partition, p",
		Usage: "partition key",
	}
	tableFlag := cli.StringFlag{
		Name:  "table, t",
		Usage: "table name",
	}
	chunkFlag := cli.StringFlag{
		Name:  "chunk, c",
		Usage: "chunk id",
	}

	app.Commands = []cli.Command{
		{
			Name:      "write",
			Aliases:   []string{"w"},
			Usage:     "Writes rows to a table, starting a new open chunk if needed.",
			ArgsUsage: "<time,field=value,...>...",
			Flags:     []cli.Flag{partitionFlag, tableFlag},
			Action:    t.cmdWrite,
		},
		{
			Name:   "rollover",
			Usage:  "Closes the open chunk of a partition.",
			Flags:  []cli.Flag{partitionFlag},
			Action: t.cmdRollOver,
		},
		{
			Name:   "move",
			Usage:  "Moves a chunk into the read buffer.",
			Flags:  []cli.Flag{partitionFlag, chunkFlag},
			Action: t.cmdMove,
		},
		{
			Name:   "persist",
			Usage:  "Writes a closed chunk to the object store.",
			Flags:  []cli.Flag{partitionFlag, chunkFlag},
			Action: t.cmdPersist,
		},
		{
			Name:   "drop",
			Usage:  "Removes a chunk from every tier.",
			Flags:  []cli.Flag{partitionFlag, chunkFlag},
			Action: t.cmdDrop,
		},
		{
			Name:    "chunks",
			Aliases: []string{"ls"},
			Usage:   "Lists all chunks and their states.",
			Action:  t.cmdChunks,
		},
		{
			Name:   "tables",
			Usage:  "Lists the tables of a partition.",
			Flags:  []cli.Flag{partitionFlag},
			Action: t.cmdTables,
		},
		{
			Name:   "read",
			Usage:  "Prints a table of a chunk, or all of them if no table is given.",
			Flags:  []cli.Flag{partitionFlag, chunkFlag, tableFlag},
			Action: t.cmdRead,
		},
		{
			Name:   "stats",
			Usage:  "Prints operation counts and latencies.",
			Action: t.cmdStats,
		},
		{
			Name:   "shell",
			Usage:  "Starts a command line interpreter.",
			Action: t.cmdShell,
		},
	}
	t.app = app

	// By default 'HelpName' will be the parent command name + command name.
	// Overwrite 'HelpName' to be command name only.
	for i := range t.app.Commands {
		t.app.Commands[i].HelpName = t.app.Commands[i].Name
	}
	return t
}

// run starts a command specified by users.
func (t *tierCli) run(args []string) error {
	return t.app.Run(args)
}

// stop closes the database.
func (t *tierCli) stop() {
	if err := t.db.Close(); err != nil {
		log.Errorf("failed to close database: %s", err)
	}
}

func getPartition(c *cli.Context) (string, bool) {
	key := c.String("partition")
	if key == "" {
		log.Errorf("No partition given. Use --partition/-p.")
		return "", false
	}
	return key, true
}

func getChunkID(c *cli.Context) (core.ChunkID, bool) {
	id, err := core.ParseChunkID(c.String("chunk"))
	if err != nil {
		log.Errorf("No valid chunk id given. Use --chunk/-c.")
		return 0, false
	}
	return id, true
}

// parseRow parses "time,field=value,..." into a row.
func parseRow(s string) (mutablebuffer.Row, error) {
	parts := strings.Split(s, ",")
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return mutablebuffer.Row{}, fmt.Errorf("bad time %q: %s", parts[0], err)
	}
	row := mutablebuffer.Row{Time: ts, Fields: make(map[string]float64, len(parts)-1)}
	for _, kv := range parts[1:] {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			return mutablebuffer.Row{}, fmt.Errorf("bad field %q, want name=value", kv)
		}
		v, err := strconv.ParseFloat(kv[eq+1:], 64)
		if err != nil {
			return mutablebuffer.Row{}, fmt.Errorf("bad value for %q: %s", kv[:eq], err)
		}
		row.Fields[kv[:eq]] = v
	}
	return row, nil
}

// cmdWrite implements the "write" subcommand.
func (t *tierCli) cmdWrite(c *cli.Context) {
	key, ok := getPartition(c)
	if !ok {
		return
	}
	var rows []mutablebuffer.Row
	for _, arg := range c.Args() {
		row, err := parseRow(arg)
		if err != nil {
			log.Errorf("Failed to parse row: %s", err)
			return
		}
		rows = append(rows, row)
	}
	if err := t.db.Write(key, c.String("table"), rows); err != nil {
		log.Errorf("Write failed: %s", err)
		return
	}
	log.Infof("Wrote %d rows", len(rows))
}

// cmdRollOver implements the "rollover" subcommand.
func (t *tierCli) cmdRollOver(c *cli.Context) {
	key, ok := getPartition(c)
	if !ok {
		return
	}
	id, err := t.db.RollOver(key)
	if err != nil {
		log.Errorf("Roll over failed: %s", err)
		return
	}
	log.Infof("Closed chunk %s:%d", key, id)
}

// cmdMove implements the "move" subcommand.
func (t *tierCli) cmdMove(c *cli.Context) {
	key, ok := getPartition(c)
	if !ok {
		return
	}
	id, ok := getChunkID(c)
	if !ok {
		return
	}
	if err := t.db.MoveChunk(key, id); err != nil {
		log.Errorf("Move failed: %s", err)
		return
	}
	log.Infof("Moved chunk %s:%d", key, id)
}

// cmdPersist implements the "persist" subcommand.
func (t *tierCli) cmdPersist(c *cli.Context) {
	key, ok := getPartition(c)
	if !ok {
		return
	}
	id, ok := getChunkID(c)
	if !ok {
		return
	}
	if err := t.db.PersistChunk(context.Background(), key, id); err != nil {
		log.Errorf("Persist failed: %s", err)
		return
	}
	log.Infof("Persisted chunk %s:%d", key, id)
}

// cmdDrop implements the "drop" subcommand.
func (t *tierCli) cmdDrop(c *cli.Context) {
	key, ok := getPartition(c)
	if !ok {
		return
	}
	id, ok := getChunkID(c)
	if !ok {
		return
	}
	if err := t.db.DropChunk(key, id); err != nil {
		log.Errorf("Drop failed: %s", err)
		return
	}
	log.Infof("Dropped chunk %s:%d", key, id)
}

// cmdChunks implements the "chunks" subcommand.
func (t *tierCli) cmdChunks(c *cli.Context) {
	for _, s := range t.db.Summaries() {
		fmt.Printf("%-24s %s\n", s.Addr, s.State)
	}
}

// cmdTables implements the "tables" subcommand.
func (t *tierCli) cmdTables(c *cli.Context) {
	key, ok := getPartition(c)
	if !ok {
		return
	}
	for _, name := range t.db.TableNames(key) {
		fmt.Println(name)
	}
}

// cmdRead implements the "read" subcommand.
func (t *tierCli) cmdRead(c *cli.Context) {
	key, ok := getPartition(c)
	if !ok {
		return
	}
	id, ok := getChunkID(c)
	if !ok {
		return
	}
	var tables []*readbuffer.Table
	if name := c.String("table"); name != "" {
		tbl, err := t.db.Table(key, id, name)
		if err != nil {
			log.Errorf("Read failed: %s", err)
			return
		}
		tables = append(tables, tbl)
	} else {
		var err error
		if tables, err = t.db.ChunkTables(key, id); err != nil {
			log.Errorf("Read failed: %s", err)
			return
		}
	}
	for i, tbl := range tables {
		if len(tables) > 1 {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("# %s\n", tbl.Name)
		}
		printTable(tbl)
	}
}

func printTable(tbl *readbuffer.Table) {
	header := []string{"time"}
	for _, col := range tbl.Columns {
		header = append(header, col.Name)
	}
	fmt.Println(strings.Join(header, "\t"))
	for i, ts := range tbl.Times {
		line := []string{strconv.FormatInt(ts, 10)}
		for _, col := range tbl.Columns {
			line = append(line, strconv.FormatFloat(col.Values[i], 'g', -1, 64))
		}
		fmt.Println(strings.Join(line, "\t"))
	}
}

// cmdStats implements the "stats" subcommand.
func (t *tierCli) cmdStats(c *cli.Context) {
	stats := t.db.OpStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-10s %s\n", name, stats[name])
	}
}

// cmdShell implements "shell" subcommand.
func (t *tierCli) cmdShell(c *cli.Context) {
	if t.inShell {
		log.Errorf("Already in a shell.")
		return
	}
	t.inShell = true
	defer func() { t.inShell = false }()

	// Make cli not exit on errors.
	cli.OsExiter = func(int) {}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	// Add commands auto completion.
	line.SetCompleter(func(input string) (c []string) {
		for _, cmd := range t.app.Commands {
			if strings.HasPrefix(cmd.Name, input) {
				c = append(c, cmd.Name)
			}
		}
		return
	})

	defer line.Close()

	for {
		input, err := line.Prompt("(tierdb) ")
		if err != nil {
			log.Errorf("error: %v", err)
			return
		}

		// We use 'shlex' because we want split input line in to tokens using
		// shell-style rules for quoting and commenting.
		args, err := shlex.Split(input)
		if err != nil {
			log.Errorf("error:%v", err)
			continue
		}

		// Skip empty line.
		if 0 == len(args) {
			continue
		}

		if args[0] == "exit" {
			return
		}

		if t.run(append([]string{"tierdb"}, args...)) == nil {
			// Adds succeeded command to command history.
			line.AppendHistory(input)
		}
	}
}
