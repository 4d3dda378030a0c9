// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_odometer/internal/imu"
)

// pipePort feeds the reader from a pipe and records writes.
type pipePort struct {
	*io.PipeReader

	mu      sync.Mutex
	written bytes.Buffer
}

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *pipePort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func newPipePort() (*pipePort, *io.PipeWriter) {
	r, w := io.Pipe()
	return &pipePort{PipeReader: r}, w
}

func TestSerialSourceParsesLines(t *testing.T) {
	port, w := newPipePort()
	src := NewSerialSource("serial", port)
	stamp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return stamp }

	ch := make(chan imu.AccelSample, 10)
	sub, err := src.Subscribe(func(s imu.AccelSample) { ch <- s })
	require.NoError(t, err)

	go func() {
		_, _ = io.WriteString(w, "2.5\n# boot banner\n\n1,2,3\nbad,line\n-0.5, 0, 9.81\n")
	}()

	got := collect(t, ch, 2)
	sub.Remove()

	assert.Equal(t, imu.AccelSample{Source: "serial", Ax: 1, Ay: 2, Az: 3, Time: stamp}, got[0])
	assert.Equal(t, imu.AccelSample{Source: "serial", Ax: -0.5, Ay: 0, Az: 9.81, Time: stamp}, got[1])
}

func TestSerialSourceRateCommand(t *testing.T) {
	port, _ := newPipePort()
	src := NewSerialSource("serial", port)

	src.SetUpdateInterval(16 * time.Millisecond)
	src.SetUpdateInterval(0)
	src.SetUpdateInterval(100 * time.Millisecond)

	assert.Equal(t, "RATE 16\nRATE 100\n", port.Written())
}

func TestSerialSourceSingleSubscriber(t *testing.T) {
	port, _ := newPipePort()
	src := NewSerialSource("serial", port)

	sub, err := src.Subscribe(func(imu.AccelSample) {})
	require.NoError(t, err)
	_, err = src.Subscribe(func(imu.AccelSample) {})
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	sub.Remove()
	sub.Remove()
}
