// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package odometry

import (
	"fmt"
	"math"
)

// Config holds the fixed tuning of one pipeline.
type Config struct {
	// Per-axis estimator
	ProcessNoise      float64
	MeasurementNoise  float64
	InitialEstimate   float64
	InitialCovariance float64

	// Stationary classification
	Window    int     // W, number of filtered samples averaged
	Threshold float64 // mean magnitude below which the object is at rest

	// Velocity factor applied per stationary tick
	Decay float64

	// Also restore estimator priors on Reset. Off by default so the noise
	// model carries over between tracking runs.
	ResetEstimators bool
}

// DefaultConfig returns the tuning for ~60 Hz (16 ms) delivery.
func DefaultConfig() Config {
	return Config{
		ProcessNoise:      0.1,
		MeasurementNoise:  0.1,
		InitialEstimate:   0,
		InitialCovariance: 1,
		Window:            10,
		Threshold:         0.2,
		Decay:             0.9,
	}
}

// Validate checks the ranges the pipeline relies on.
func (c Config) Validate() error {
	finite := map[string]float64{
		"process noise":      c.ProcessNoise,
		"measurement noise":  c.MeasurementNoise,
		"initial estimate":   c.InitialEstimate,
		"initial covariance": c.InitialCovariance,
		"threshold":          c.Threshold,
		"decay":              c.Decay,
	}
	for name, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("odometry: %s must be finite, got %v", name, v)
		}
	}
	if c.ProcessNoise < 0 {
		return fmt.Errorf("odometry: process noise must be >= 0, got %v", c.ProcessNoise)
	}
	if c.MeasurementNoise < 0 {
		return fmt.Errorf("odometry: measurement noise must be >= 0, got %v", c.MeasurementNoise)
	}
	if c.InitialCovariance < 0 {
		return fmt.Errorf("odometry: initial covariance must be >= 0, got %v", c.InitialCovariance)
	}
	if c.Window < 1 {
		return fmt.Errorf("odometry: window must be >= 1, got %d", c.Window)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("odometry: threshold must be >= 0, got %v", c.Threshold)
	}
	if c.Decay < 0 || c.Decay >= 1 {
		return fmt.Errorf("odometry: decay must be in [0, 1), got %v", c.Decay)
	}
	return nil
}
