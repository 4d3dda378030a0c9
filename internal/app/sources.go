// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_odometer/internal/config"
	"github.com/relabs-tech/inertial_odometer/internal/imu"
	"github.com/relabs-tech/inertial_odometer/internal/odometry"
	"github.com/relabs-tech/inertial_odometer/internal/sensors"
)

// openSource builds the source named by SAMPLE_SOURCE. client is only used
// by the "mqtt" source and may be nil otherwise.
func openSource(cfg *config.Config, client mqtt.Client) (imu.Source, error) {
	switch cfg.SampleSource {
	case config.SourceIMU:
		r, err := sensors.NewIMUSource()
		if err != nil {
			return nil, err
		}
		return sensors.NewPoller("imu", r, cfg.AccelInterval()), nil

	case config.SourceMock:
		log.Println("using mock accelerometer source")
		r := sensors.NewMockSource(sensors.DefaultMockProfile, time.Now().UnixNano())
		return sensors.NewPoller("mock", r, cfg.AccelInterval()), nil

	case config.SourceSerial:
		src, err := sensors.OpenSerialSource(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return nil, err
		}
		return src, nil

	case config.SourceMQTT:
		if client == nil {
			return nil, fmt.Errorf("mqtt source needs a connected client")
		}
		return sensors.NewMQTTSource(client, cfg.TopicAccelRaw, cfg.TopicAccelInterval), nil

	default:
		return nil, fmt.Errorf("unknown sample source: %q", cfg.SampleSource)
	}
}

// connectMQTT connects with default options.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("connected to MQTT broker at %s as %s", broker, clientID)
	return client, nil
}

// subscribeSnapshots calls fn with every snapshot published on topic.
func subscribeSnapshots(client mqtt.Client, topic, role string, fn func(odometry.Snapshot)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s odometry.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("%s: snapshot unmarshal error: %v", role, err)
			return
		}
		fn(s)
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("%s: subscribe %s: %w", role, topic, token.Error())
	}
	log.Printf("%s: subscribed to %s", role, topic)
	return nil
}

// waitForSignal blocks until Ctrl+C or SIGTERM.
func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
