// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/app"
	"github.com/relabs-tech/inertial_odometer/internal/config"
)

func main() {
	configPath := flag.String("config", "", "optional configuration file (defaults are used without one)")
	flag.Parse()

	log.Println("starting inertial-odometer (mock console)")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	printEvery := 250 * time.Millisecond
	if err := app.RunMockConsole(cfg.Odometry(), cfg.AccelInterval(), printEvery); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
