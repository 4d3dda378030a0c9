// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command replay runs a CSV recording (time_ms,ax,ay,az) through the
// odometry pipeline with the configured tuning.
//
//	replay -config inertial_config.txt -plot walk.png walk.csv
package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/inertial_odometer/internal/app"
	"github.com/relabs-tech/inertial_odometer/internal/config"
)

func main() {
	configPath := flag.String("config", "./inertial_config.txt", "path to configuration file")
	plotPath := flag.String("plot", "", "write a distance/speed plot (e.g. walk.png)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: replay [-config file] [-plot out.png] recording.csv")
	}

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunReplay(flag.Arg(0), *plotPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
