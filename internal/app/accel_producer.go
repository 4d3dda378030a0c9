// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_odometer/internal/config"
	"github.com/relabs-tech/inertial_odometer/internal/imu"
	"github.com/relabs-tech/inertial_odometer/internal/sensors"
)

// RunAccelProducer publishes raw samples from the local accelerometer (IMU,
// mock or serial) so an odometer elsewhere can run with SAMPLE_SOURCE=mqtt.
// Interval commands on TOPIC_ACCEL_INTERVAL retune the source.
func RunAccelProducer() error {
	log.Println("starting accelerometer producer")

	cfg := config.Get()
	if cfg.SampleSource == config.SourceMQTT {
		return fmt.Errorf("producer: SAMPLE_SOURCE=mqtt would republish its own input")
	}

	src, err := openSource(cfg, nil)
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Subscribe(cfg.TopicAccelInterval, 0, func(_ mqtt.Client, msg mqtt.Message) {
		d, err := parseIntervalCommand(msg.Payload())
		if err != nil {
			log.Printf("producer: %v", err)
			return
		}
		log.Printf("producer: update interval set to %v", d)
		src.SetUpdateInterval(d)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("producer: listening for interval commands on %s", cfg.TopicAccelInterval)

	var (
		published int
		lastLog   time.Time
	)
	src.SetUpdateInterval(cfg.AccelInterval())
	sub, err := src.Subscribe(func(s imu.AccelSample) {
		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("json marshal error (accel): %v", err)
			return
		}
		if token := client.Publish(cfg.TopicAccelRaw, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (accel): %v", token.Error())
			return
		}
		published++

		if time.Since(lastLog) >= cfg.LogInterval() {
			lastLog = time.Now()
			log.Printf("%s tick: %s ax=%.3f ay=%.3f az=%.3f (%d published)",
				s.Time.Format(time.RFC3339), s.Source, s.Ax, s.Ay, s.Az, published)
		}
	})
	if err != nil {
		return err
	}
	log.Printf("producer: publishing %s samples to %s", cfg.SampleSource, cfg.TopicAccelRaw)

	waitForSignal()

	log.Println("producer: shutting down")
	sub.Remove()
	return nil
}

// parseIntervalCommand decodes {"interval_ms": N}.
func parseIntervalCommand(payload []byte) (time.Duration, error) {
	var cmd sensors.IntervalCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return 0, fmt.Errorf("interval command unmarshal error: %w", err)
	}
	if cmd.IntervalMS <= 0 {
		return 0, fmt.Errorf("interval command: interval_ms must be > 0, got %d", cmd.IntervalMS)
	}
	return time.Duration(cmd.IntervalMS) * time.Millisecond, nil
}
