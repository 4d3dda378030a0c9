// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/odometry"
	"github.com/relabs-tech/inertial_odometer/internal/sensors"
)

// RunMockConsole runs the mock source through a local tracker and prints
// a line every printEvery, without MQTT.
func RunMockConsole(cfg odometry.Config, interval, printEvery time.Duration) error {
	tracker, err := NewTracker(cfg)
	if err != nil {
		return err
	}

	lines := make(chan string, 1)
	var last time.Time
	tracker.Observe(func(s odometry.Snapshot) {
		if time.Since(last) < printEvery {
			return
		}
		last = time.Now()
		select {
		case lines <- formatSnapshot(s):
		default:
		}
	})

	src := sensors.NewPoller("mock", sensors.NewMockSource(sensors.DefaultMockProfile, time.Now().UnixNano()), interval)
	if err := tracker.Start(src, interval); err != nil {
		return err
	}
	defer tracker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case line := <-lines:
			fmt.Println(line)
		case <-sigCh:
			return nil
		}
	}
}
