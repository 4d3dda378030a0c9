// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/inertial_odometer/internal/imu"
	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

// ErrTrackerStarted is returned by Start when a source is already attached.
var ErrTrackerStarted = errors.New("tracker: already started")

// SnapshotObserver receives every published snapshot.
type SnapshotObserver func(odometry.Snapshot)

// SampleObserver receives every raw sample before it is filtered.
type SampleObserver func(imu.AccelSample)

// Tracker owns the process' odometry pipeline. Samples from the source and
// resets from MQTT or HTTP are serialized on one mutex. Observers run under
// that mutex, in tick order, and must not call back into the Tracker.
type Tracker struct {
	mu       sync.Mutex
	pipeline *odometry.Pipeline
	session  string
	latest   odometry.Snapshot
	rejected uint64

	snapshotObservers []SnapshotObserver
	sampleObservers   []SampleObserver

	sub      imu.Subscription
	starting bool
}

// NewTracker builds the pipeline and opens the first session.
func NewTracker(cfg odometry.Config) (*Tracker, error) {
	p, err := odometry.New(cfg)
	if err != nil {
		return nil, err
	}
	t := &Tracker{pipeline: p, session: uuid.NewString()}
	t.latest = t.stamp(p.Snapshot())
	return t, nil
}

// Observe registers fn for snapshots. Register before Start.
func (t *Tracker) Observe(fn SnapshotObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshotObservers = append(t.snapshotObservers, fn)
}

// ObserveSamples registers fn for raw samples. Register before Start.
func (t *Tracker) ObserveSamples(fn SampleObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampleObservers = append(t.sampleObservers, fn)
}

// Start sets the source interval and subscribes once.
func (t *Tracker) Start(src imu.Source, interval time.Duration) error {
	t.mu.Lock()
	if t.sub != nil || t.starting {
		t.mu.Unlock()
		return ErrTrackerStarted
	}
	t.starting = true
	t.mu.Unlock()

	// Subscribe runs without t.mu; the first delivery takes it.
	if interval > 0 {
		src.SetUpdateInterval(interval)
	}
	sub, err := src.Subscribe(t.HandleSample)

	t.mu.Lock()
	t.starting = false
	if err == nil {
		t.sub = sub
	}
	session := t.session
	t.mu.Unlock()

	if err != nil {
		return err
	}
	log.Printf("tracker: started session %s", session)
	return nil
}

// Stop detaches from the source. No sample is handled after it returns.
func (t *Tracker) Stop() {
	t.mu.Lock()
	sub := t.sub
	t.sub = nil
	t.mu.Unlock()

	// Remove waits for the in-flight delivery, which needs t.mu.
	if sub != nil {
		sub.Remove()
	}
}

// HandleSample runs one tick. Non-finite samples are logged and dropped.
func (t *Tracker) HandleSample(s imu.AccelSample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, fn := range t.sampleObservers {
		fn(s)
	}

	snap, err := t.pipeline.OnRawSample(s.Accel(), s.Time)
	if err != nil {
		t.rejected++
		if t.rejected == 1 || t.rejected%100 == 0 {
			log.Printf("tracker: dropped sample from %s (%d so far): %v", s.Source, t.rejected, err)
		}
		return
	}

	t.publish(snap)
}

// Reset zeroes distance and velocity and starts a new session.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pipeline.Reset()
	t.session = uuid.NewString()
	log.Printf("tracker: reset, new session %s", t.session)
	t.publish(t.pipeline.Snapshot())
}

// Latest returns the last published snapshot.
func (t *Tracker) Latest() odometry.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// SessionID identifies the current run between resets.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Rejected counts samples dropped as non-finite.
func (t *Tracker) Rejected() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rejected
}

func (t *Tracker) stamp(s odometry.Snapshot) odometry.Snapshot {
	s.SessionID = t.session
	return s
}

// publish must be called with t.mu held.
func (t *Tracker) publish(s odometry.Snapshot) {
	t.latest = t.stamp(s)
	for _, fn := range t.snapshotObservers {
		fn(t.latest)
	}
}
