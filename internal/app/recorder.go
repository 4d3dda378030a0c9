// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/imu"
)

var recordingHeader = []string{"time_ms", "ax", "ay", "az"}

// Recorder appends raw samples to a CSV file as time_ms,ax,ay,az, where
// time_ms is Unix milliseconds.
type Recorder struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	rows   int
}

// CreateRecorder creates (or truncates) path and writes the header.
func CreateRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: create %s: %w", path, err)
	}
	r := NewRecorder(f)
	r.closer = f
	if err := r.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	log.Printf("recorder: writing samples to %s", path)
	return r, nil
}

// NewRecorder writes rows to w without a header.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: csv.NewWriter(w)}
}

func (r *Recorder) writeHeader() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Write(recordingHeader); err != nil {
		return fmt.Errorf("recorder: header: %w", err)
	}
	return nil
}

// Record writes one row. Rows are flushed every 64 samples and on Close.
func (r *Recorder) Record(s imu.AccelSample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := []string{
		strconv.FormatInt(s.Time.UnixMilli(), 10),
		strconv.FormatFloat(s.Ax, 'g', -1, 64),
		strconv.FormatFloat(s.Ay, 'g', -1, 64),
		strconv.FormatFloat(s.Az, 'g', -1, 64),
	}
	if err := r.w.Write(row); err != nil {
		log.Printf("recorder: write error: %v", err)
		return
	}
	r.rows++
	if r.rows%64 == 0 {
		r.w.Flush()
	}
}

// Rows returns the number of samples written.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Close flushes pending rows and closes the file, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.w.Flush()
	err := r.w.Error()
	if r.closer != nil {
		err = errors.Join(err, r.closer.Close())
		r.closer = nil
	}
	return err
}

// ReadRecording parses a CSV recording. The header row is optional; blank
// lines are skipped.
func ReadRecording(in io.Reader) ([]imu.AccelSample, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = len(recordingHeader)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var samples []imu.AccelSample
	for n := 0; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recording: %w", err)
		}
		if n == 0 && strings.EqualFold(rec[0], recordingHeader[0]) {
			continue
		}

		s, err := parseRecordingRow(rec)
		if err != nil {
			row, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("recording line %d: %w", row, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseRecordingRow(rec []string) (imu.AccelSample, error) {
	ms, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return imu.AccelSample{}, fmt.Errorf("time_ms %q: %w", rec[0], err)
	}

	var v [3]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return imu.AccelSample{}, fmt.Errorf("%s %q: %w", recordingHeader[i+1], rec[i+1], err)
		}
	}

	return imu.AccelSample{
		Source: "replay",
		Ax:     v[0],
		Ay:     v[1],
		Az:     v[2],
		Time:   time.UnixMilli(ms).UTC(),
	}, nil
}
