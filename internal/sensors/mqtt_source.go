// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_odometer/internal/imu"
)

// IntervalCommand is published on the interval topic to retune a remote
// producer.
type IntervalCommand struct {
	IntervalMS int64 `json:"interval_ms"`
}

// mqttBacklog bounds the samples queued between the MQTT callback and the handler.
const mqttBacklog = 64

// MQTTSource receives raw samples published by a remote producer
// (see app.RunAccelProducer).
type MQTTSource struct {
	client        mqtt.Client
	topic         string
	intervalTopic string

	mu     sync.Mutex
	active *mqttSubscription
}

// NewMQTTSource uses an already connected client.
func NewMQTTSource(client mqtt.Client, topic, intervalTopic string) *MQTTSource {
	return &MQTTSource{client: client, topic: topic, intervalTopic: intervalTopic}
}

// SetUpdateInterval publishes a retained IntervalCommand for the producer.
func (s *MQTTSource) SetUpdateInterval(d time.Duration) {
	if d <= 0 || s.intervalTopic == "" {
		return
	}
	payload, err := json.Marshal(IntervalCommand{IntervalMS: d.Milliseconds()})
	if err != nil {
		log.Printf("mqtt source: interval marshal error: %v", err)
		return
	}
	if token := s.client.Publish(s.intervalTopic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("mqtt source: interval publish error: %v", token.Error())
	}
}

// Subscribe subscribes to the raw topic. Messages are queued and handed to h
// from a single goroutine, in arrival order, so the MQTT callback never blocks.
func (s *MQTTSource) Subscribe(h imu.Handler) (imu.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, ErrAlreadySubscribed
	}

	sub := &mqttSubscription{
		src:   s,
		queue: make(chan imu.AccelSample, mqttBacklog),
		done:  make(chan struct{}),
	}

	token := s.client.Subscribe(s.topic, 0, sub.onMessage)
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("mqtt source: subscribe %s: %w", s.topic, token.Error())
	}
	log.Printf("mqtt source: subscribed to %s", s.topic)

	s.active = sub
	go sub.loop(h)
	return sub, nil
}

type mqttSubscription struct {
	src   *MQTTSource
	queue chan imu.AccelSample
	done  chan struct{}

	mu     sync.Mutex // guards closed against late callbacks
	closed bool
	once   sync.Once
}

func (sub *mqttSubscription) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var s imu.AccelSample
	if err := json.Unmarshal(msg.Payload(), &s); err != nil {
		log.Printf("mqtt source: payload unmarshal error: %v", err)
		return
	}
	if s.Time.IsZero() {
		s.Time = time.Now()
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.queue <- s:
	default:
		log.Printf("mqtt source: handler behind, dropping sample from %s", s.Time.Format(time.RFC3339Nano))
	}
}

func (sub *mqttSubscription) loop(h imu.Handler) {
	defer close(sub.done)
	for s := range sub.queue {
		h(s)
	}
}

// Remove unsubscribes, drains queued samples and waits for the handler.
func (sub *mqttSubscription) Remove() {
	sub.once.Do(func() {
		s := sub.src
		if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
			log.Printf("mqtt source: unsubscribe error: %v", token.Error())
		}

		sub.mu.Lock()
		sub.closed = true
		close(sub.queue)
		sub.mu.Unlock()
		<-sub.done

		s.mu.Lock()
		if s.active == sub {
			s.active = nil
		}
		s.mu.Unlock()
	})
}
