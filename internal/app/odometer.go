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
	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

// RunOdometer feeds the configured source through the tracker, publishes
// every snapshot (retained) and resets on any message on the reset topic.
func RunOdometer() error {
	log.Println("starting inertial odometer")

	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDOdometer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	src, err := openSource(cfg, client)
	if err != nil {
		return err
	}

	tracker, err := NewTracker(cfg.Odometry())
	if err != nil {
		return err
	}

	if cfg.RecordPath != "" {
		rec, err := CreateRecorder(cfg.RecordPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Printf("recorder: close error: %v", err)
			}
			log.Printf("recorder: %d samples written", rec.Rows())
		}()
		tracker.ObserveSamples(rec.Record)
	}

	tracker.Observe(snapshotPublisher(client, cfg.TopicOdometry))
	tracker.Observe(tickLogger("odometer", cfg.LogInterval()))

	if err := subscribeReset(client, cfg.TopicOdometryReset, tracker); err != nil {
		return err
	}

	if err := tracker.Start(src, cfg.AccelInterval()); err != nil {
		return err
	}
	log.Printf("odometer: %s source at %v, publishing to %s", cfg.SampleSource, cfg.AccelInterval(), cfg.TopicOdometry)

	waitForSignal()

	log.Println("odometer: shutting down")
	tracker.Stop()
	final := tracker.Latest()
	log.Printf("odometer: session %s ended at %.3f m after %d ticks", final.SessionID, final.DistanceMeters, final.Ticks)
	return nil
}

// subscribeReset resets tracker on any message on topic. The reset runs on
// its own goroutine; it publishes, which must not happen inside a paho
// callback.
func subscribeReset(client mqtt.Client, topic string, tracker *Tracker) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		log.Printf("odometer: reset requested on %s", msg.Topic())
		go tracker.Reset()
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("odometer: subscribe %s: %w", topic, token.Error())
	}
	log.Printf("odometer: listening for resets on %s", topic)
	return nil
}

// snapshotPublisher publishes each snapshot as retained JSON on topic.
func snapshotPublisher(client mqtt.Client, topic string) SnapshotObserver {
	return func(s odometry.Snapshot) {
		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("json marshal error (odometry): %v", err)
			return
		}
		if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (odometry): %v", token.Error())
		}
	}
}

// tickLogger logs at most one snapshot per interval, plus every
// moving/stationary transition.
func tickLogger(role string, every time.Duration) SnapshotObserver {
	var (
		last    time.Time
		moving  bool
		started bool
	)
	return func(s odometry.Snapshot) {
		now := time.Now()
		changed := started && s.IsMoving != moving
		if !changed && now.Sub(last) < every {
			return
		}
		last, moving, started = now, s.IsMoving, true

		state := "stationary"
		if s.IsMoving {
			state = "moving"
		}
		log.Printf("%s tick %d: distance=%.3fm speed=%.3fm/s %s | filtered ax=%.3f ay=%.3f az=%.3f",
			role, s.Ticks, s.DistanceMeters, s.Speed, state,
			s.Filtered.X, s.Filtered.Y, s.Filtered.Z,
		)
	}
}
