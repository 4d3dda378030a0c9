// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

func litPixels(img *image1bit.VerticalLSB) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

func TestRenderOdometry(t *testing.T) {
	waiting := renderOdometry(odometry.Snapshot{}, false)
	assert.Equal(t, 128, waiting.Bounds().Dx())
	assert.Equal(t, 64, waiting.Bounds().Dy())
	assert.Positive(t, litPixels(waiting))

	still := renderOdometry(odometry.Snapshot{DistanceMeters: 1}, true)
	moving := renderOdometry(odometry.Snapshot{DistanceMeters: 1, IsMoving: true}, true)
	assert.NotEqual(t, still.Pix, moving.Pix)
}

func TestDisplayDataLatest(t *testing.T) {
	var d displayData
	_, ok := d.latest()
	assert.False(t, ok)

	d.update(odometry.Snapshot{Ticks: 3})
	s, ok := d.latest()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), s.Ticks)
}

func TestFormatSnapshot(t *testing.T) {
	line := formatSnapshot(odometry.Snapshot{DistanceMeters: 2.5, IsMoving: true, Ticks: 7})
	assert.Contains(t, line, "MOVE")
	assert.Contains(t, line, "DIST=    2.500m")
	assert.Contains(t, line, "TICK=7")
}
