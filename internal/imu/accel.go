// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/motion"
)

// AccelSample is one raw accelerometer reading in m/s², as delivered by a
// source and published on the raw MQTT topic.
type AccelSample struct {
	Source string `json:"source"` // "imu", "mock", "serial", ...

	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Time time.Time `json:"time"`
}

// Accel returns the acceleration as a vector.
func (s AccelSample) Accel() motion.Vector3 {
	return motion.Vector3{X: s.Ax, Y: s.Ay, Z: s.Az}
}

// Handler receives ticks. A source never calls one handler concurrently.
type Handler func(AccelSample)

// Subscription is returned by Source.Subscribe. Remove detaches the handler
// and returns once no delivery is in flight.
type Subscription interface {
	Remove()
}

// Source delivers acceleration ticks at a target interval.
type Source interface {
	SetUpdateInterval(d time.Duration)
	Subscribe(h Handler) (Subscription, error)
}

// Reader is a pull-style accelerometer, polled by sensors.Poller.
type Reader interface {
	ReadAccel() (AccelSample, error)
}
