// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_odometer/internal/config"
	"github.com/relabs-tech/inertial_odometer/internal/imu"
)

// StandardGravity converts g to m/s².
const StandardGravity = 9.80665

type imuSource struct {
	name    string
	imu     *mpu9250.MPU9250
	lsbPerG float64
}

// NewIMUSource initializes the MPU9250 configured in IMU_SPI_DEVICE /
// IMU_CS_PIN and returns a reader producing acceleration in m/s².
func NewIMUSource() (imu.Reader, error) {
	cfg := config.Get()
	return newIMUSource("imu", cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelLSBPerG)
}

func newIMUSource(name, spiDev, csPin string, lsbPerG float64) (imu.Reader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%s: CS pin %q not found", name, csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("%s: SPI transport (%s): %w", name, spiDev, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("%s: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s: initialization: %w", name, err)
	}

	// Self-test and offset calibration are best effort; the filter absorbs
	// residual bias.
	if _, err := dev.SelfTest(); err != nil {
		log.Printf("Warning: %s self-test failed: %v", name, err)
	} else {
		log.Printf("%s: self-test passed", name)
	}
	if err := dev.Calibrate(); err != nil {
		log.Printf("Warning: %s calibration failed: %v", name, err)
	} else {
		log.Printf("%s: calibration complete", name)
	}

	if lsbPerG <= 0 {
		lsbPerG = 16384 // ±2g
	}
	log.Printf("%s: accelerometer scale %.0f LSB/g", name, lsbPerG)

	return &imuSource{name: name, imu: dev, lsbPerG: lsbPerG}, nil
}

// ReadAccel reads the three accelerometer axes and converts counts to m/s².
func (s *imuSource) ReadAccel() (imu.AccelSample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.AccelSample{}, fmt.Errorf("%s accel X: %w", s.name, err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.AccelSample{}, fmt.Errorf("%s accel Y: %w", s.name, err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.AccelSample{}, fmt.Errorf("%s accel Z: %w", s.name, err)
	}

	return imu.AccelSample{
		Source: s.name,
		Ax:     CountsToMS2(ax, s.lsbPerG),
		Ay:     CountsToMS2(ay, s.lsbPerG),
		Az:     CountsToMS2(az, s.lsbPerG),
	}, nil
}

// CountsToMS2 converts a raw accelerometer reading to m/s².
func CountsToMS2(counts int16, lsbPerG float64) float64 {
	return float64(counts) / lsbPerG * StandardGravity
}
