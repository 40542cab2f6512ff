// Copyright (c) 2016 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/westerndigitalcorporation/tierdb/internal/db"
)

/*

Configuring parameters follows three steps:

  (1) Default config parameters come from 'db.DefaultProdConfig'.

  (2) An optional configuration file (in json format) can be given with '-cfg' to override the default values.

  (3) Optional flags override individual parameters set in the previous two steps, e.g., '-path=ZZZ'.

*/

var (
	dbCfg = db.DefaultProdConfig

	// Config file name.
	cfgFile = flag.String("cfg", "", "configuration file for the database")

	// Config parameters.
	path         = flag.String("path", "", "path of the object store file")
	freeMemLimit = flag.Uint64("freeMemLimit", 0, "don't start new chunks if free memory drops below this many bytes")
	maxChunkRows = flag.Int("maxChunkRows", -1, "roll chunks over at this many rows, 0 to disable")

	// Where to serve metrics and status, empty to disable.
	addr = flag.String("addr", "", "address for the status and metrics http server")
)

// loadConfig reads the configuration file, if any, and then applies the
// command-line flags to override specified values.
func loadConfig() {
	if *cfgFile != "" {
		f, err := os.Open(*cfgFile)
		if err != nil {
			log.Fatalf("couldn't open the provided config file: %s", err)
		}
		dec := json.NewDecoder(f)
		if err = dec.Decode(&dbCfg); err != nil {
			log.Fatalf("failed to decode the config file: %s", err)
		}
		f.Close()
	}

	// NOTE: There is no way to tell if a flag was set by the user, so we use
	// meaningless defaults and only override when a flag differs from them.
	if *path != "" {
		dbCfg.ObjectStore.Path = *path
	}
	if *freeMemLimit != 0 {
		dbCfg.FreeMemLimit = *freeMemLimit
	}
	if *maxChunkRows >= 0 {
		dbCfg.MaxChunkRows = *maxChunkRows
	}
}

// serveStatus serves prometheus metrics and a plain text chunk listing.
func serveStatus(d *db.DB, addr string) {
	metrics := promhttp.Handler()
	http.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		d.UpdateMetrics()
		metrics.ServeHTTP(w, r)
	})
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		for _, s := range d.Summaries() {
			fmt.Fprintf(w, "%s\t%s\n", s.Addr, s.State)
		}
	})
	log.Infof("[tierdb] serving status on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Errorf("[tierdb] status server stopped: %s", err)
	}
}

func main() {
	// We should send our own log output to stderr.
	flag.Set("logtostderr", "true")
	flag.Parse()
	loadConfig()

	d, err := db.Open(dbCfg)
	if err != nil {
		log.Fatalf("failed to open database: %s", err)
	}
	if *addr != "" {
		go serveStatus(d, *addr)
	}

	c := newTierCli(d)

	// Catch INT and TERM signals so the object store is closed cleanly when
	// the process is forced to quit.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		c.stop()
		os.Exit(1)
	}()

	c.run(append([]string{os.Args[0]}, flag.Args()...))
	c.stop()
}
