// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_odometer/internal/motion"
)

func TestParseAccelLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want motion.Vector3
	}{
		{"comma", "0.5,-1.25,9.8", motion.Vector3{X: 0.5, Y: -1.25, Z: 9.8}},
		{"spaces", "  1 , 2 ,3  \r\n", motion.Vector3{X: 1, Y: 2, Z: 3}},
		{"semicolon", "1;2;3", motion.Vector3{X: 1, Y: 2, Z: 3}},
		{"tab", "1\t2\t3", motion.Vector3{X: 1, Y: 2, Z: 3}},
		{"exponent", "1e-3,0,0", motion.Vector3{X: 0.001}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAccelLine(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAccelLineErrors(t *testing.T) {
	for _, line := range []string{"", "1,2", "1,2,3,4", "1,x,3", "RATE 16"} {
		_, err := ParseAccelLine(line)
		assert.Error(t, err, "line %q", line)
	}
}
