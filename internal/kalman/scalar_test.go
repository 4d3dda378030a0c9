// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package kalman

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalar_FirstUpdate(t *testing.T) {
	s := NewScalar(0.1, 0.1, 0, 1)

	got := s.Update(1)

	// P' = 1.1, K = 1.1/1.2
	k := 1.1 / 1.2
	assert.InDelta(t, k, got, 1e-12)
	assert.InDelta(t, (1-k)*1.1, s.Covariance(), 1e-12)
	assert.Equal(t, got, s.Estimate())
}

func TestScalar_ZeroNoiseGuard(t *testing.T) {
	s := NewScalar(0, 0, 0, 0)

	got := s.Update(5.0)

	assert.Equal(t, 5.0, got)
	assert.Equal(t, 0.0, s.Covariance())
	assert.False(t, math.IsNaN(s.Estimate()))

	// still guarded on the next call
	assert.Equal(t, -2.5, s.Update(-2.5))
	assert.Equal(t, 0.0, s.Covariance())
}

func TestScalar_ZeroMeasurementNoiseTrustsMeasurement(t *testing.T) {
	s := NewScalar(0.1, 0, 3, 0)

	assert.Equal(t, 7.0, s.Update(7.0))
	assert.Equal(t, 0.0, s.Covariance())
	assert.Equal(t, -1.0, s.Update(-1.0))
}

func TestScalar_ConvergesToConstantSignal(t *testing.T) {
	const truth = 2.0
	rng := rand.New(rand.NewSource(42))
	s := NewScalar(0.001, 0.5, 0, 1)

	var last float64
	for i := 0; i < 2000; i++ {
		last = s.Update(truth + rng.NormFloat64()*0.3)
		require.GreaterOrEqual(t, s.Covariance(), 0.0, "covariance went negative at step %d", i)
	}

	assert.InDelta(t, truth, last, 0.25)

	// Steady state of P = (P+Q)R/(P+Q+R): P² + QP - QR = 0
	q, r := 0.001, 0.5
	want := (-q + math.Sqrt(q*q+4*q*r)) / 2
	assert.InDelta(t, want, s.Covariance(), 1e-9)
}

func TestScalar_NegativeConfigClamped(t *testing.T) {
	s := NewScalar(-1, -1, 0, -1)

	assert.Equal(t, 4.0, s.Update(4.0))
	assert.Equal(t, 0.0, s.Covariance())
}

func TestScalar_Reset(t *testing.T) {
	s := NewScalar(0.1, 0.1, 0.5, 2)
	for i := 0; i < 10; i++ {
		s.Update(10)
	}
	require.NotEqual(t, 0.5, s.Estimate())

	s.Reset()

	assert.Equal(t, 0.5, s.Estimate())
	assert.Equal(t, 2.0, s.Covariance())
}
