// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector3 is an acceleration, velocity or filtered sample.
// Units are whatever the caller feeds in (m/s² for acceleration).
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) vec() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func fromVec(p r3.Vec) Vector3 { return Vector3{X: p.X, Y: p.Y, Z: p.Z} }

// Add returns v + w.
func (v Vector3) Add(w Vector3) Vector3 {
	return fromVec(r3.Add(v.vec(), w.vec()))
}

// Scale returns f * v.
func (v Vector3) Scale(f float64) Vector3 {
	return fromVec(r3.Scale(f, v.vec()))
}

// Magnitude returns sqrt(x² + y² + z²).
//
// r3.Norm goes through math.Hypot; the square root of the plain sum of
// squares is kept here so results match the reference numbers bit for bit.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(r3.Norm2(v.vec()))
}

// IsFinite reports whether no component is NaN or ±Inf.
func (v Vector3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
