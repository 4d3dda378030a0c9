// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math/rand"
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/imu"
)

// MockProfile shapes the synthetic walk produced by the mock source.
// One cycle is: rest, accelerate along X, cruise, brake.
type MockProfile struct {
	Rest       time.Duration
	Accelerate time.Duration
	Cruise     time.Duration
	Brake      time.Duration
	Accel      float64 // m/s² during accelerate/brake
	Noise      float64 // std dev of the additive noise, m/s²
}

// DefaultMockProfile is a slow push with light sensor noise.
var DefaultMockProfile = MockProfile{
	Rest:       2 * time.Second,
	Accelerate: time.Second,
	Cruise:     time.Second,
	Brake:      time.Second,
	Accel:      1.5,
	Noise:      0.05,
}

type mockSource struct {
	profile MockProfile
	start   time.Time
	now     func() time.Time
	rng     *rand.Rand
}

// NewMockSource creates a mock accelerometer that replays MockProfile in a
// loop, starting now.
func NewMockSource(profile MockProfile, seed int64) imu.Reader {
	return newMockSource(profile, seed, time.Now)
}

func newMockSource(profile MockProfile, seed int64, now func() time.Time) *mockSource {
	return &mockSource{
		profile: profile,
		start:   now(),
		now:     now,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (m *mockSource) ReadAccel() (imu.AccelSample, error) {
	t := m.now()
	ax := m.profile.AccelAt(t.Sub(m.start))

	return imu.AccelSample{
		Source: "mock",
		Ax:     ax + m.noise(),
		Ay:     m.noise(),
		Az:     m.noise(),
		Time:   t,
	}, nil
}

func (m *mockSource) noise() float64 {
	if m.profile.Noise <= 0 {
		return 0
	}
	return m.rng.NormFloat64() * m.profile.Noise
}

// AccelAt returns the noiseless X acceleration at elapsed time since start.
func (p MockProfile) AccelAt(elapsed time.Duration) float64 {
	cycle := p.Rest + p.Accelerate + p.Cruise + p.Brake
	if cycle <= 0 {
		return 0
	}
	at := elapsed % cycle

	switch {
	case at < p.Rest:
		return 0
	case at < p.Rest+p.Accelerate:
		return p.Accel
	case at < p.Rest+p.Accelerate+p.Cruise:
		return 0
	default:
		return -p.Accel
	}
}
