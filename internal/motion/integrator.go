// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"
	"time"
)

// State is the dead-reckoning state advanced once per tick.
// Distance only grows; it goes back to zero through Reset.
type State struct {
	Velocity    Vector3
	Distance    float64
	IsMoving    bool
	LastTick    time.Time // valid when HasLastTick
	HasLastTick bool
}

// Reset zeroes the state.
func (s *State) Reset() {
	*s = State{}
}

// Integrator advances a State: velocity decay while at rest, Euler velocity
// and trapezoidal distance while moving.
type Integrator struct {
	Decay float64 // per-tick velocity factor while stationary, < 1
}

// NewIntegrator returns an integrator with the given stationary decay factor.
func NewIntegrator(decay float64) *Integrator {
	return &Integrator{Decay: decay}
}

// Tick runs one integration step on state.
//
// Moving:
//
//	v'    = v + a·dt
//	delta = 0.5·dt·|v + v'|
//
// The distance step takes the norm of the summed velocities, not the sum of
// the two speeds. This under-counts whenever the velocity changes direction
// inside a tick; it is kept as is so totals stay comparable with existing
// recordings.
func (in *Integrator) Tick(state *State, sample Vector3, dt float64, stationary bool) {
	if stationary {
		state.Velocity = state.Velocity.Scale(in.Decay)
		return
	}

	// No elapsed time, nothing to integrate. Also covers the first tick.
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}

	v := state.Velocity
	next := v.Add(sample.Scale(dt))
	delta := 0.5 * dt * v.Add(next).Magnitude()

	state.Distance += delta
	state.Velocity = next
}
