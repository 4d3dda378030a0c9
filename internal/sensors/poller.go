// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/imu"
)

// ErrAlreadySubscribed is returned when a source already has an active handler.
var ErrAlreadySubscribed = errors.New("sensors: source already has a subscriber")

// DefaultUpdateInterval is ~60 Hz.
const DefaultUpdateInterval = 16 * time.Millisecond

// Poller turns an imu.Reader into an imu.Source by reading it on a ticker.
// Each tick is read and delivered before the next one is taken, so the
// handler is never re-entered.
type Poller struct {
	name   string
	reader imu.Reader

	mu       sync.Mutex
	interval time.Duration
	active   *pollSubscription
	now      func() time.Time
}

// NewPoller wraps reader. name is used in log lines.
func NewPoller(name string, reader imu.Reader, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	return &Poller{
		name:     name,
		reader:   reader,
		interval: interval,
		now:      time.Now,
	}
}

// SetUpdateInterval changes the polling period, also while subscribed.
func (p *Poller) SetUpdateInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = d
	if p.active != nil {
		// latest value wins
		select {
		case <-p.active.intervalCh:
		default:
		}
		p.active.intervalCh <- d
	}
}

// UpdateInterval returns the current polling period.
func (p *Poller) UpdateInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Subscribe starts polling and delivers every successful read to h.
// Only one subscription may be active at a time.
func (p *Poller) Subscribe(h imu.Handler) (imu.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		return nil, ErrAlreadySubscribed
	}

	sub := &pollSubscription{
		poller:     p,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		intervalCh: make(chan time.Duration, 1),
	}
	p.active = sub
	go sub.loop(p.interval, h)
	return sub, nil
}

type pollSubscription struct {
	poller     *Poller
	stop       chan struct{}
	done       chan struct{}
	intervalCh chan time.Duration
	once       sync.Once
}

func (s *pollSubscription) loop(interval time.Duration, h imu.Handler) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case d := <-s.intervalCh:
			ticker.Reset(d)
		case <-ticker.C:
			sample, err := s.poller.reader.ReadAccel()
			if err != nil {
				log.Printf("%s: read error: %v", s.poller.name, err)
				continue
			}
			if sample.Time.IsZero() {
				sample.Time = s.poller.now()
			}
			if sample.Source == "" {
				sample.Source = s.poller.name
			}
			h(sample)
		}
	}
}

// Remove stops polling and waits for the last delivery to return.
func (s *pollSubscription) Remove() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done

		s.poller.mu.Lock()
		if s.poller.active == s {
			s.poller.active = nil
		}
		s.poller.mu.Unlock()
	})
}
