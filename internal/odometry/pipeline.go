// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package odometry turns raw triaxial acceleration ticks into a running
// traveled distance and a moving/stationary flag.
//
// Per tick:
//
//	raw -> 3x kalman.Scalar -> filtered -> StationaryClassifier
//	    -> Integrator (decay | integrate) -> Snapshot
//
// A Pipeline is not safe for concurrent use. The caller delivers one tick at a
// time; independent pipelines share nothing.
package odometry

import (
	"errors"
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/kalman"
	"github.com/relabs-tech/inertial_odometer/internal/motion"
)

// ErrNonFiniteSample is returned for a raw sample holding NaN or ±Inf.
// The tick is dropped and no state changes.
var ErrNonFiniteSample = errors.New("odometry: non-finite acceleration sample")

// Snapshot is the observable state after a tick.
type Snapshot struct {
	DistanceMeters float64        `json:"distance_m"`
	IsMoving       bool           `json:"is_moving"`
	Velocity       motion.Vector3 `json:"velocity"`
	Speed          float64        `json:"speed"`
	Filtered       motion.Vector3 `json:"filtered"`
	Ticks          uint64         `json:"ticks"`
	Time           time.Time      `json:"time"`
	SessionID      string         `json:"session_id,omitempty"`
}

// Pipeline is the tick controller. It owns the estimators, the classifier
// window and the motion state.
type Pipeline struct {
	cfg Config

	kx, ky, kz *kalman.Scalar
	classifier *motion.StationaryClassifier
	integrator *motion.Integrator

	state    motion.State
	filtered motion.Vector3
	ticks    uint64
}

// New builds a pipeline from cfg. It fails only on an invalid Config.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	newAxis := func() *kalman.Scalar {
		return kalman.NewScalar(cfg.ProcessNoise, cfg.MeasurementNoise, cfg.InitialEstimate, cfg.InitialCovariance)
	}
	return &Pipeline{
		cfg:        cfg,
		kx:         newAxis(),
		ky:         newAxis(),
		kz:         newAxis(),
		classifier: motion.NewStationaryClassifier(cfg.Window, cfg.Threshold),
		integrator: motion.NewIntegrator(cfg.Decay),
	}, nil
}

// OnRawSample runs one tick and returns the resulting snapshot.
func (p *Pipeline) OnRawSample(sample motion.Vector3, ts time.Time) (Snapshot, error) {
	if !sample.IsFinite() {
		return p.Snapshot(), ErrNonFiniteSample
	}

	var dt float64
	if p.state.HasLastTick {
		dt = ts.Sub(p.state.LastTick).Seconds()
		if dt < 0 {
			// clock stepped back; treat as simultaneous
			dt = 0
		}
	}
	p.state.LastTick = ts
	p.state.HasLastTick = true

	p.filtered = motion.Vector3{
		X: p.kx.Update(sample.X),
		Y: p.ky.Update(sample.Y),
		Z: p.kz.Update(sample.Z),
	}

	stationary := p.classifier.Classify(p.filtered)
	p.integrator.Tick(&p.state, p.filtered, dt, stationary)
	p.state.IsMoving = !stationary
	p.ticks++

	return p.Snapshot(), nil
}

// Snapshot returns the current observable state without ticking.
func (p *Pipeline) Snapshot() Snapshot {
	return Snapshot{
		DistanceMeters: p.state.Distance,
		IsMoving:       p.state.IsMoving,
		Velocity:       p.state.Velocity,
		Speed:          p.state.Velocity.Magnitude(),
		Filtered:       p.filtered,
		Ticks:          p.ticks,
		Time:           p.state.LastTick,
	}
}

// Reset zeroes distance, velocity and motion flag, empties the classifier
// window and forgets the last timestamp. Estimators keep their state unless
// Config.ResetEstimators is set.
func (p *Pipeline) Reset() {
	p.state.Reset()
	p.classifier.Reset()
	p.filtered = motion.Vector3{}
	p.ticks = 0
	if p.cfg.ResetEstimators {
		p.kx.Reset()
		p.ky.Reset()
		p.kz.Reset()
	}
}

// State returns a copy of the motion state.
func (p *Pipeline) State() motion.State { return p.state }

// WindowLen returns the number of samples held by the classifier.
func (p *Pipeline) WindowLen() int { return p.classifier.Len() }

// Estimators returns the X, Y and Z estimators, for inspection.
func (p *Pipeline) Estimators() (x, y, z *kalman.Scalar) { return p.kx, p.ky, p.kz }

// Config returns the tuning the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }
