// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_odometer/internal/config"
	"github.com/relabs-tech/inertial_odometer/internal/imu"
	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

// RunConsoleMQTT prints odometry snapshots and, with showRaw, the raw
// samples seen on the broker.
func RunConsoleMQTT(showRaw bool) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	if err := subscribeSnapshots(client, cfg.TopicOdometry, "console", func(s odometry.Snapshot) {
		fmt.Println(formatSnapshot(s))
	}); err != nil {
		return err
	}

	if showRaw {
		token := client.Subscribe(cfg.TopicAccelRaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var s imu.AccelSample
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("console: accel unmarshal error: %v", err)
				return
			}
			fmt.Printf("[RAW ] %-6s ax=%8.3f ay=%8.3f az=%8.3f\n", s.Source, s.Ax, s.Ay, s.Az)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", cfg.TopicAccelRaw)
	}

	waitForSignal()

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// formatSnapshot renders one console line.
func formatSnapshot(s odometry.Snapshot) string {
	state := "STILL"
	if s.IsMoving {
		state = "MOVE "
	}
	return fmt.Sprintf(
		"[ODO ] %s  DIST=%9.3fm  SPEED=%7.3fm/s  V=(%7.3f %7.3f %7.3f)  TICK=%d",
		state, s.DistanceMeters, s.Speed, s.Velocity.X, s.Velocity.Y, s.Velocity.Z, s.Ticks,
	)
}
