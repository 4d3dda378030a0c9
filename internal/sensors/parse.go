// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relabs-tech/inertial_odometer/internal/motion"
)

// ParseAccelLine parses "ax,ay,az" (m/s²). Whitespace around fields is
// ignored; ';' and tabs are accepted as separators too.
func ParseAccelLine(line string) (motion.Vector3, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(line), func(r rune) bool {
		return r == ',' || r == ';' || r == '\t'
	})
	if len(fields) != 3 {
		return motion.Vector3{}, fmt.Errorf("expected 3 fields, got %d in %q", len(fields), line)
	}

	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return motion.Vector3{}, fmt.Errorf("field %d %q: %w", i+1, f, err)
		}
		v[i] = x
	}
	return motion.Vector3{X: v[0], Y: v[1], Z: v[2]}, nil
}
