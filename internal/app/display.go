// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_odometer/internal/config"
	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// displayData holds the latest snapshot for the OLED loop.
type displayData struct {
	mu   sync.RWMutex
	snap odometry.Snapshot
	have bool
}

func (d *displayData) update(s odometry.Snapshot) {
	d.mu.Lock()
	d.snap = s
	d.have = true
	d.mu.Unlock()
}

func (d *displayData) latest() (odometry.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap, d.have
}

// RunDisplay shows the odometry snapshot on an SSD1306 at 0x3C.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.DisplayI2CBus, err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on bus %q", cfg.DisplayI2CBus)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeSnapshots(client, cfg.TopicOdometry, "display", data.update); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		s, ok := data.latest()
		if err := dev.Draw(dev.Bounds(), renderOdometry(s, ok), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderOdometry draws distance, speed and state in four rows.
func renderOdometry(s odometry.Snapshot, have bool) *image1bit.VerticalLSB {
	img, d := newFrame()

	if !have {
		drawLine(d, 0, 26, "Odometer")
		drawLine(d, 0, 39, "Waiting...")
		return img
	}

	state := "STILL"
	if s.IsMoving {
		state = "MOVING"
	}
	drawLine(d, 0, 13, fmt.Sprintf("D: %8.2f m", s.DistanceMeters))
	drawLine(d, 0, 26, fmt.Sprintf("V: %7.2f m/s", s.Speed))
	drawLine(d, 0, 39, state)
	drawLine(d, 0, 52, fmt.Sprintf("T: %d", s.Ticks))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, d := newFrame()
	drawLine(d, 10, 26, "Inertial Pi")
	drawLine(d, 20, 43, "Odometer")
	return img
}
