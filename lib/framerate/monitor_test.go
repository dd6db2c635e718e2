// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framerate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/probe"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEmptyMonitor(t *testing.T) {
	monitor := New(clock.Fake(epoch), 0)
	if fps := monitor.LastFrameFPS(); fps != 0 {
		t.Errorf("LastFrameFPS = %v, want 0", fps)
	}
	if fps := monitor.MedianFPS(); fps != 0 {
		t.Errorf("MedianFPS = %v, want 0", fps)
	}
	stats := monitor.Stats()
	if stats.Frames != 0 || stats.OverallFPS != 0 {
		t.Errorf("Stats = %+v, want zero", stats)
	}
}

func TestLastAndMedian(t *testing.T) {
	fake := clock.Fake(epoch)
	monitor := New(fake, 0)

	for _, interval := range []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		50 * time.Millisecond,
	} {
		fake.Advance(interval)
		monitor.Update()
	}

	if fps := monitor.LastFrameFPS(); fps != 20 {
		t.Errorf("LastFrameFPS = %v, want 20", fps)
	}
	if fps := monitor.MedianFPS(); fps != 50 {
		t.Errorf("MedianFPS = %v, want 50 (median interval 20ms)", fps)
	}

	fake.Advance(40 * time.Millisecond)
	monitor.Update()
	// Sorted intervals 10, 20, 40, 50: median 30ms.
	if fps := monitor.MedianFPS(); fps < 33.33 || fps > 33.34 {
		t.Errorf("MedianFPS = %v, want ~33.33", fps)
	}
}

func TestZeroIntervalCountsFrameOnly(t *testing.T) {
	fake := clock.Fake(epoch)
	monitor := New(fake, 0)

	fake.Advance(100 * time.Millisecond)
	monitor.Update()
	monitor.Update()

	stats := monitor.Stats()
	if stats.Frames != 2 {
		t.Errorf("Frames = %d, want 2", stats.Frames)
	}
	if stats.LastFPS != 10 || stats.MedianFPS != 10 {
		t.Errorf("Stats = %+v, want last and median 10", stats)
	}
	if stats.OverallFPS != 20 {
		t.Errorf("OverallFPS = %v, want 20", stats.OverallFPS)
	}
}

func TestWindowBoundsMedian(t *testing.T) {
	fake := clock.Fake(epoch)
	monitor := New(fake, 3)

	for range 5 {
		fake.Advance(100 * time.Millisecond)
		monitor.Update()
	}
	for range 3 {
		fake.Advance(10 * time.Millisecond)
		monitor.Update()
	}

	// The slow frames have left the window.
	if fps := monitor.MedianFPS(); fps != 100 {
		t.Errorf("MedianFPS = %v, want 100", fps)
	}
	if frames := monitor.Stats().Frames; frames != 8 {
		t.Errorf("Frames = %d, want 8", frames)
	}
}

func TestReset(t *testing.T) {
	fake := clock.Fake(epoch)
	monitor := New(fake, 0)

	fake.Advance(time.Second)
	monitor.Update()
	monitor.Reset()

	stats := monitor.Stats()
	if stats.Frames != 0 || stats.LastFPS != 0 || stats.MedianFPS != 0 || stats.Elapsed != 0 {
		t.Errorf("Stats after Reset = %+v, want zero", stats)
	}

	fake.Advance(250 * time.Millisecond)
	monitor.Update()
	if fps := monitor.LastFrameFPS(); fps != 4 {
		t.Errorf("LastFrameFPS = %v, want 4 (interval measured from reset)", fps)
	}
}

func TestProbe(t *testing.T) {
	fake := clock.Fake(epoch)
	monitor := New(fake, 0)
	framesProbe := monitor.Probe("fps")

	if name := framesProbe.Name(); name != "fps" {
		t.Errorf("Name = %q, want fps", name)
	}

	fake.Advance(500 * time.Millisecond)
	monitor.Update()

	value, ok := framesProbe.Read()
	if !ok {
		t.Fatal("Read reported no value")
	}
	var decoded map[string]float64
	if err := json.Unmarshal([]byte(value.Text()), &decoded); err != nil {
		t.Fatalf("Read returned invalid JSON %q: %v", value.Text(), err)
	}
	if decoded["frames"] != 1 || decoded["last_fps"] != 2 || decoded["elapsed_seconds"] != 0.5 {
		t.Errorf("decoded = %v", decoded)
	}

	framesProbe.Write(probe.String("bogus"))
	if frames := monitor.Stats().Frames; frames != 1 {
		t.Errorf("Frames after ignored write = %d, want 1", frames)
	}

	framesProbe.Write(probe.String("reset"))
	if frames := monitor.Stats().Frames; frames != 0 {
		t.Errorf("Frames after reset = %d, want 0", frames)
	}
}
