// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProfileAccelAt(t *testing.T) {
	p := DefaultMockProfile

	assert.Equal(t, 0.0, p.AccelAt(0))
	assert.Equal(t, 0.0, p.AccelAt(1999*time.Millisecond))
	assert.Equal(t, 1.5, p.AccelAt(2*time.Second))
	assert.Equal(t, 0.0, p.AccelAt(3500*time.Millisecond))
	assert.Equal(t, -1.5, p.AccelAt(4500*time.Millisecond))

	// second cycle
	assert.Equal(t, 0.0, p.AccelAt(5*time.Second))
	assert.Equal(t, 1.5, p.AccelAt(7500*time.Millisecond))
}

func TestMockProfileEmptyCycle(t *testing.T) {
	assert.Equal(t, 0.0, MockProfile{Accel: 3}.AccelAt(time.Second))
}

func TestMockSourceNoiseless(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	p := DefaultMockProfile
	p.Noise = 0

	m := newMockSource(p, 1, func() time.Time { return now })

	now = start.Add(2500 * time.Millisecond)
	s, err := m.ReadAccel()
	require.NoError(t, err)
	assert.Equal(t, "mock", s.Source)
	assert.Equal(t, now, s.Time)
	assert.Equal(t, 1.5, s.Ax)
	assert.Zero(t, s.Ay)
	assert.Zero(t, s.Az)
}

func TestMockSourceSeeded(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	a := newMockSource(DefaultMockProfile, 7, clock)
	b := newMockSource(DefaultMockProfile, 7, clock)
	for i := 0; i < 5; i++ {
		sa, _ := a.ReadAccel()
		sb, _ := b.ReadAccel()
		assert.Equal(t, sa, sb)
	}
}
