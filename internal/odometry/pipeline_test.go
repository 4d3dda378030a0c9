// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package odometry

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_odometer/internal/motion"
)

const tick = 16 * time.Millisecond

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(DefaultConfig())
	require.NoError(t, err)
	return p
}

// feed sends n copies of s, tick apart, starting at *now, and returns every snapshot.
func feed(t *testing.T, p *Pipeline, now *time.Time, s motion.Vector3, n int) []Snapshot {
	t.Helper()
	out := make([]Snapshot, 0, n)
	for i := 0; i < n; i++ {
		snap, err := p.OnRawSample(s, *now)
		require.NoError(t, err)
		out = append(out, snap)
		*now = now.Add(tick)
	}
	return out
}

func TestPipeline_EndToEnd(t *testing.T) {
	tests := []struct {
		name       string
		covariance float64
	}{
		{"unit prior", 1},
		{"zero prior", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.InitialCovariance = tc.covariance
			p, err := New(cfg)
			require.NoError(t, err)
			now := epoch

			rest := feed(t, p, &now, motion.Vector3{}, 10)
			last := rest[len(rest)-1]
			assert.False(t, last.IsMoving)
			assert.Equal(t, 0.0, last.DistanceMeters)
			assert.Equal(t, uint64(10), last.Ticks)

			push := feed(t, p, &now, motion.Vector3{X: 1}, 5)

			// rolling mean magnitude crosses 0.2 on the third push sample
			assert.False(t, push[0].IsMoving)
			assert.False(t, push[1].IsMoving)
			for i := 2; i < len(push); i++ {
				assert.True(t, push[i].IsMoving, "push tick %d", i)
			}

			prev := push[1].DistanceMeters
			assert.Equal(t, 0.0, prev)
			for i := 2; i < len(push); i++ {
				assert.Greater(t, push[i].DistanceMeters, prev, "distance must grow on push tick %d", i)
				prev = push[i].DistanceMeters
			}
			assert.InDelta(t, 0.0011071193886, push[4].DistanceMeters, 1e-9)
			assert.Greater(t, push[4].Speed, 0.0)
		})
	}
}

func TestPipeline_FirstTickHasNoDeltaTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window = 1
	cfg.Threshold = 0
	p, err := New(cfg)
	require.NoError(t, err)

	snap, err := p.OnRawSample(motion.Vector3{X: 5}, epoch)
	require.NoError(t, err)

	assert.True(t, snap.IsMoving)
	assert.Equal(t, 0.0, snap.DistanceMeters)
	assert.Equal(t, motion.Vector3{}, snap.Velocity)

	// same timestamp again: still nothing to integrate
	snap, err = p.OnRawSample(motion.Vector3{X: 5}, epoch)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.DistanceMeters)
	assert.Equal(t, motion.Vector3{}, snap.Velocity)

	snap, err = p.OnRawSample(motion.Vector3{X: 5}, epoch.Add(tick))
	require.NoError(t, err)
	assert.Greater(t, snap.DistanceMeters, 0.0)
}

func TestPipeline_ZeroTimestampIsABaseline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window = 1
	cfg.Threshold = 0
	p, err := New(cfg)
	require.NoError(t, err)

	var zero time.Time
	snap, err := p.OnRawSample(motion.Vector3{X: 1}, zero)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.DistanceMeters)
	assert.True(t, p.State().HasLastTick)

	snap, err = p.OnRawSample(motion.Vector3{X: 1}, zero.Add(time.Second))
	require.NoError(t, err)
	assert.Greater(t, snap.DistanceMeters, 0.0)
	assert.Greater(t, snap.Speed, 0.0)
}

func TestPipeline_BackwardsTimestampClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window = 1
	cfg.Threshold = 0
	p, err := New(cfg)
	require.NoError(t, err)

	_, err = p.OnRawSample(motion.Vector3{X: 5}, epoch)
	require.NoError(t, err)
	snap, err := p.OnRawSample(motion.Vector3{X: 5}, epoch.Add(-time.Second))
	require.NoError(t, err)

	assert.Equal(t, 0.0, snap.DistanceMeters)
	assert.Equal(t, epoch.Add(-time.Second), p.State().LastTick)
}

func TestPipeline_NonFiniteSampleRejected(t *testing.T) {
	p := newTestPipeline(t)
	now := epoch
	feed(t, p, &now, motion.Vector3{X: 1}, 12)

	before := p.Snapshot()
	bx, by, bz := p.Estimators()
	est := []float64{bx.Estimate(), by.Estimate(), bz.Estimate(), bx.Covariance()}

	for _, bad := range []motion.Vector3{
		{X: math.NaN()},
		{Y: math.Inf(1)},
		{Z: math.Inf(-1)},
	} {
		snap, err := p.OnRawSample(bad, now)
		require.ErrorIs(t, err, ErrNonFiniteSample)
		assert.Equal(t, before, snap)
	}

	assert.Equal(t, before, p.Snapshot())
	assert.Equal(t, est, []float64{bx.Estimate(), by.Estimate(), bz.Estimate(), bx.Covariance()})
	assert.Equal(t, 10, p.WindowLen())
}

func TestPipeline_Reset(t *testing.T) {
	p := newTestPipeline(t)
	now := epoch
	feed(t, p, &now, motion.Vector3{}, 10)
	feed(t, p, &now, motion.Vector3{X: 2, Y: 1}, 20)
	require.Greater(t, p.Snapshot().DistanceMeters, 0.0)
	require.True(t, p.Snapshot().IsMoving)

	kx, _, _ := p.Estimators()
	estimate, covariance := kx.Estimate(), kx.Covariance()

	p.Reset()

	snap := p.Snapshot()
	assert.Equal(t, 0.0, snap.DistanceMeters)
	assert.False(t, snap.IsMoving)
	assert.Equal(t, motion.Vector3{}, snap.Velocity)
	assert.Equal(t, uint64(0), snap.Ticks)
	assert.Equal(t, 0, p.WindowLen())
	assert.True(t, p.State().LastTick.IsZero())
	assert.False(t, p.State().HasLastTick)

	// estimators carry over by default
	assert.Equal(t, estimate, kx.Estimate())
	assert.Equal(t, covariance, kx.Covariance())

	// warm-up again after reset
	after := feed(t, p, &now, motion.Vector3{X: 2}, 9)
	for _, s := range after {
		assert.False(t, s.IsMoving)
	}
}

func TestPipeline_ResetEstimators(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResetEstimators = true
	cfg.InitialEstimate = 0.25
	p, err := New(cfg)
	require.NoError(t, err)
	now := epoch
	feed(t, p, &now, motion.Vector3{X: 3, Y: 3, Z: 3}, 15)

	p.Reset()

	kx, ky, kz := p.Estimators()
	for _, k := range []interface{ Estimate() float64 }{kx, ky, kz} {
		assert.Equal(t, 0.25, k.Estimate())
	}
	assert.Equal(t, 1.0, kx.Covariance())
}

func TestPipeline_SnapshotMatchesState(t *testing.T) {
	p := newTestPipeline(t)
	now := epoch
	feed(t, p, &now, motion.Vector3{}, 10)
	got := feed(t, p, &now, motion.Vector3{Y: 3}, 6)
	last := got[len(got)-1]

	st := p.State()
	want := Snapshot{
		DistanceMeters: st.Distance,
		IsMoving:       st.IsMoving,
		Velocity:       st.Velocity,
		Speed:          st.Velocity.Magnitude(),
		Filtered:       last.Filtered,
		Ticks:          16,
		Time:           now.Add(-tick),
	}
	if diff := cmp.Diff(want, last, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative process noise", func(c *Config) { c.ProcessNoise = -0.1 }},
		{"negative measurement noise", func(c *Config) { c.MeasurementNoise = -1 }},
		{"negative covariance", func(c *Config) { c.InitialCovariance = -1 }},
		{"zero window", func(c *Config) { c.Window = 0 }},
		{"negative threshold", func(c *Config) { c.Threshold = -0.2 }},
		{"decay of one", func(c *Config) { c.Decay = 1 }},
		{"negative decay", func(c *Config) { c.Decay = -0.1 }},
		{"nan threshold", func(c *Config) { c.Threshold = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a := newTestPipeline(t)
	b := newTestPipeline(t)
	now := epoch
	feed(t, a, &now, motion.Vector3{}, 10)
	feed(t, a, &now, motion.Vector3{X: 4}, 10)

	assert.Greater(t, a.Snapshot().DistanceMeters, 0.0)
	assert.Equal(t, Snapshot{}, b.Snapshot())
}
