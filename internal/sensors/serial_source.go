// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/inertial_odometer/internal/imu"
)

// SerialSource reads an accelerometer that streams "ax,ay,az" lines (m/s²)
// over a serial port. The device paces the ticks; SetUpdateInterval sends it
// a "RATE <ms>" command.
type SerialSource struct {
	name string
	port io.ReadWriteCloser
	now  func() time.Time

	mu     sync.Mutex
	active *serialSubscription
}

// OpenSerialSource opens portName at baud, 8N1.
func OpenSerialSource(portName string, baud int) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	log.Printf("serial: port opened on %s at %d baud", portName, baud)
	return NewSerialSource("serial", port), nil
}

// NewSerialSource wraps an already open port.
func NewSerialSource(name string, port io.ReadWriteCloser) *SerialSource {
	return &SerialSource{name: name, port: port, now: time.Now}
}

// SetUpdateInterval asks the device to stream at the given period.
func (s *SerialSource) SetUpdateInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	if _, err := fmt.Fprintf(s.port, "RATE %d\n", d.Milliseconds()); err != nil {
		log.Printf("%s: interval command error: %v", s.name, err)
	}
}

// Subscribe starts reading lines and delivers each parsed sample to h,
// stamped with its arrival time. Malformed lines are skipped.
func (s *SerialSource) Subscribe(h imu.Handler) (imu.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, ErrAlreadySubscribed
	}

	sub := &serialSubscription{src: s, done: make(chan struct{})}
	s.active = sub
	go sub.loop(h)
	return sub, nil
}

type serialSubscription struct {
	src  *SerialSource
	done chan struct{}
	once sync.Once
}

func (sub *serialSubscription) loop(h imu.Handler) {
	defer close(sub.done)

	s := sub.src
	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		v, err := ParseAccelLine(line)
		if err != nil {
			// partial lines after open are common
			continue
		}

		h(imu.AccelSample{
			Source: s.name,
			Ax:     v.X,
			Ay:     v.Y,
			Az:     v.Z,
			Time:   s.now(),
		})
	}
	if err := scanner.Err(); err != nil {
		log.Printf("%s: read error: %v", s.name, err)
	}
}

// Remove closes the port, which ends the read loop, and waits for it.
// The source cannot be subscribed again afterwards.
func (sub *serialSubscription) Remove() {
	sub.once.Do(func() {
		if err := sub.src.port.Close(); err != nil {
			log.Printf("%s: close error: %v", sub.src.name, err)
		}
		<-sub.done
	})
}
