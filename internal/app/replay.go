// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image/color"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/relabs-tech/inertial_odometer/internal/config"
	"github.com/relabs-tech/inertial_odometer/internal/imu"
	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

// ReplayResult is the outcome of feeding a recording through a fresh pipeline.
type ReplayResult struct {
	Final    odometry.Snapshot
	Series   []odometry.Snapshot // one per accepted sample
	Rejected int                 // non-finite samples
}

// Replay runs samples through a new pipeline built from cfg.
func Replay(cfg odometry.Config, samples []imu.AccelSample) (ReplayResult, error) {
	p, err := odometry.New(cfg)
	if err != nil {
		return ReplayResult{}, err
	}

	res := ReplayResult{Series: make([]odometry.Snapshot, 0, len(samples))}
	for _, s := range samples {
		snap, err := p.OnRawSample(s.Accel(), s.Time)
		if err != nil {
			res.Rejected++
			continue
		}
		res.Series = append(res.Series, snap)
	}
	res.Final = p.Snapshot()
	return res, nil
}

// PlotReplay saves distance and speed over time as a PNG (or any format
// gonum/plot infers from the extension).
func PlotReplay(series []odometry.Snapshot, path string) error {
	if len(series) == 0 {
		return fmt.Errorf("plot: no samples")
	}

	p := plot.New()
	p.Title.Text = "Traveled distance"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "m, m/s"

	start := series[0].Time
	dist := make(plotter.XYs, 0, len(series))
	speed := make(plotter.XYs, 0, len(series))
	for _, s := range series {
		x := s.Time.Sub(start).Seconds()
		dist = append(dist, plotter.XY{X: x, Y: s.DistanceMeters})
		speed = append(speed, plotter.XY{X: x, Y: s.Speed})
	}

	distLine, err := plotter.NewLine(dist)
	if err != nil {
		return fmt.Errorf("plot: distance line: %w", err)
	}
	distLine.Width = vg.Points(1)
	p.Add(distLine)
	p.Legend.Add("distance", distLine)

	speedLine, err := plotter.NewLine(speed)
	if err != nil {
		return fmt.Errorf("plot: speed line: %w", err)
	}
	speedLine.Width = vg.Points(1)
	speedLine.Color = color.RGBA{R: 200, A: 255}
	speedLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(speedLine)
	p.Legend.Add("speed", speedLine)

	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}

// RunReplay replays a CSV recording with the configured tuning and prints the
// final snapshot. plotPath may be empty.
func RunReplay(recordingPath, plotPath string) error {
	cfg := config.Get()

	f, err := os.Open(recordingPath)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	samples, err := ReadRecording(f)
	f.Close()
	if err != nil {
		return err
	}
	log.Printf("replay: %d samples from %s", len(samples), recordingPath)

	res, err := Replay(cfg.Odometry(), samples)
	if err != nil {
		return err
	}
	if res.Rejected > 0 {
		log.Printf("replay: dropped %d non-finite samples", res.Rejected)
	}

	fmt.Printf("[ODO] ticks=%d distance=%.3fm moving=%t speed=%.3fm/s\n",
		res.Final.Ticks, res.Final.DistanceMeters, res.Final.IsMoving, res.Final.Speed)

	if plotPath != "" {
		if err := PlotReplay(res.Series, plotPath); err != nil {
			return err
		}
		log.Printf("replay: plot written to %s", plotPath)
	}
	return nil
}
