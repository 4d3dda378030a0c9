// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "gonum.org/v1/gonum/stat"

// StationaryClassifier decides moving vs. stationary from the mean magnitude
// of the last W filtered samples.
type StationaryClassifier struct {
	threshold float64

	// ring buffer, oldest at pos once full
	data []Vector3
	pos  int
	full bool

	mags []float64 // scratch for the mean
}

// NewStationaryClassifier creates a classifier with window size w (at least 1)
// and a strict magnitude threshold.
func NewStationaryClassifier(w int, threshold float64) *StationaryClassifier {
	if w < 1 {
		w = 1
	}
	return &StationaryClassifier{
		threshold: threshold,
		data:      make([]Vector3, w),
		mags:      make([]float64, 0, w),
	}
}

// Classify appends the sample to the window and reports whether the object is
// at rest. Until the window is full the answer is always true.
func (c *StationaryClassifier) Classify(sample Vector3) bool {
	c.push(sample)
	if !c.full {
		return true
	}
	return c.MeanMagnitude() < c.threshold
}

func (c *StationaryClassifier) push(v Vector3) {
	c.data[c.pos] = v
	c.pos++
	if c.pos >= len(c.data) {
		c.pos = 0
		c.full = true
	}
}

// MeanMagnitude returns the mean Euclidean magnitude over the current window,
// or 0 when the window is empty.
func (c *StationaryClassifier) MeanMagnitude() float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	c.mags = c.mags[:0]
	for _, v := range c.Window() {
		c.mags = append(c.mags, v.Magnitude())
	}
	return stat.Mean(c.mags, nil)
}

// Len returns the number of samples held, never more than the window size.
func (c *StationaryClassifier) Len() int {
	if c.full {
		return len(c.data)
	}
	return c.pos
}

// Size returns the configured window size W.
func (c *StationaryClassifier) Size() int { return len(c.data) }

// Window returns a copy of the held samples, oldest first.
func (c *StationaryClassifier) Window() []Vector3 {
	out := make([]Vector3, c.Len())
	if c.full {
		copy(out, c.data[c.pos:])
		copy(out[len(c.data)-c.pos:], c.data[:c.pos])
	} else {
		copy(out, c.data[:c.pos])
	}
	return out
}

// Reset empties the window.
func (c *StationaryClassifier) Reset() {
	clear(c.data)
	c.pos = 0
	c.full = false
}
