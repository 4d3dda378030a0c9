// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package kalman implements the per-axis recursive estimator used to smooth
// raw accelerometer readings.
package kalman

// Scalar is a 1-D Kalman filter with a random-walk process model and no
// control input. One instance is kept per spatial axis.
//
// Usage:
//
//	kx := kalman.NewScalar(0.1, 0.1, 0, 1)
//	smoothed := kx.Update(rawAx)
type Scalar struct {
	x float64 // estimate
	p float64 // error covariance, never negative

	q float64 // process noise
	r float64 // measurement noise

	x0, p0 float64 // prior, restored by Reset
}

// NewScalar creates an estimator.
// processNoise:      Q, higher = more agility
// measurementNoise:  R, higher = trust measurements less
// initialEstimate:   starting estimate
// initialCovariance: starting covariance (1.0 is a sane default)
//
// Negative noise or covariance values are clamped to 0.
func NewScalar(processNoise, measurementNoise, initialEstimate, initialCovariance float64) *Scalar {
	q := nonNegative(processNoise)
	r := nonNegative(measurementNoise)
	p := nonNegative(initialCovariance)
	return &Scalar{
		x:  initialEstimate,
		p:  p,
		q:  q,
		r:  r,
		x0: initialEstimate,
		p0: p,
	}
}

// Update folds one measurement into the estimate and returns the new estimate.
func (s *Scalar) Update(measurement float64) float64 {
	// Predict: P = P + Q
	p := s.p + s.q

	// Q = R = P = 0 leaves the gain undefined; trust the measurement.
	den := p + s.r
	if den <= 0 {
		s.x = measurement
		s.p = 0
		return measurement
	}

	// Gain and correction
	k := p / den
	s.x += k * (measurement - s.x)

	// P = (1 - K) P; k is in [0, 1] so this stays >= 0, clamp rounding anyway
	s.p = nonNegative((1 - k) * p)
	return s.x
}

// Estimate returns the current estimate.
func (s *Scalar) Estimate() float64 { return s.x }

// Covariance returns the current error covariance.
func (s *Scalar) Covariance() float64 { return s.p }

// Reset restores the prior the estimator was created with.
func (s *Scalar) Reset() {
	s.x = s.x0
	s.p = s.p0
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
