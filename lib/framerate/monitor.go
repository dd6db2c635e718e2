// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framerate

import (
	"slices"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/bureau-foundation/probed/lib/clock"
)

// DefaultWindow is the number of recent frame intervals the median is
// computed over.
const DefaultWindow = 240

// Stats is a snapshot of a Monitor.
type Stats struct {
	Frames     int64         `json:"frames"`
	Elapsed    time.Duration `json:"-"`
	ElapsedSec float64       `json:"elapsed_seconds"`
	OverallFPS float64       `json:"overall_fps"`
	LastFPS    float64       `json:"last_fps"`
	MedianFPS  float64       `json:"median_fps"`
}

// Monitor records frame completions. Safe for concurrent use.
type Monitor struct {
	clock  clock.Clock
	window int

	mu         sync.Mutex
	started    time.Time
	lastFrame  time.Time
	frameTimes *queue.Queue
	frames     int64
	lastFPS    float64
}

// New returns a Monitor whose median covers the last window frame
// intervals. A window of zero or less uses DefaultWindow. A nil clock
// uses the real clock.
func New(c clock.Clock, window int) *Monitor {
	if c == nil {
		c = clock.Real()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	now := c.Now()
	return &Monitor{
		clock:      c,
		window:     window,
		started:    now,
		lastFrame:  now,
		frameTimes: queue.New(),
	}
}

// Update records the completion of a frame. The interval since the
// previous frame (or since construction or reset) contributes to the
// statistics only when it is positive; the frame is always counted.
func (m *Monitor) Update() {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	interval := now.Sub(m.lastFrame)
	m.lastFrame = now
	m.frames++
	if interval <= 0 {
		return
	}
	m.lastFPS = 1 / interval.Seconds()
	m.frameTimes.Add(interval)
	for m.frameTimes.Length() > m.window {
		m.frameTimes.Remove()
	}
}

// Reset discards all samples and restarts the elapsed-time origin.
func (m *Monitor) Reset() {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = now
	m.lastFrame = now
	m.frameTimes = queue.New()
	m.frames = 0
	m.lastFPS = 0
}

// LastFrameFPS returns the rate implied by the most recent positive
// frame interval, or 0 before the first one.
func (m *Monitor) LastFrameFPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFPS
}

// MedianFPS returns the rate implied by the median frame interval in
// the window, or 0 when the window is empty.
func (m *Monitor) MedianFPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.medianLocked()
}

// Stats returns a consistent snapshot of every statistic.
func (m *Monitor) Stats() Stats {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := now.Sub(m.started)
	stats := Stats{
		Frames:     m.frames,
		Elapsed:    elapsed,
		ElapsedSec: elapsed.Seconds(),
		LastFPS:    m.lastFPS,
		MedianFPS:  m.medianLocked(),
	}
	if elapsed > 0 {
		stats.OverallFPS = float64(m.frames) / elapsed.Seconds()
	}
	return stats
}

func (m *Monitor) medianLocked() float64 {
	count := m.frameTimes.Length()
	if count == 0 {
		return 0
	}
	sorted := make([]time.Duration, count)
	for i := range count {
		sorted[i] = m.frameTimes.Get(i).(time.Duration)
	}
	slices.Sort(sorted)

	var median time.Duration
	if count%2 == 0 {
		median = (sorted[count/2-1] + sorted[count/2]) / 2
	} else {
		median = sorted[count/2]
	}
	if median <= 0 {
		return 0
	}
	return 1 / median.Seconds()
}
