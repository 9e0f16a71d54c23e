// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps: cfg.FramesPerSecond,
	}
	if cfg.FramesPerSecond > 0 {
		t.interval = time.Second / time.Duration(cfg.FramesPerSecond)
		t.fpsTicker = time.NewTicker(t.interval)
	}
	return t
}

// Time paces frames to the configured rate
type Time struct {
	fps       int
	interval  time.Duration
	fpsTicker *time.Ticker
}

// Fps gets the set frames per second, 0 when unlimited
func (t *Time) Fps() int {
	return t.fps
}

// Interval gets the time between two frames, 0 when unlimited
func (t *Time) Interval() time.Duration {
	return t.interval
}

// Frames returns a channel delivering one tick per frame,
// nil when the rate is unlimited
func (t *Time) Frames() <-chan time.Time {
	if t.fpsTicker == nil {
		return nil
	}
	return t.fpsTicker.C
}

// Stop releases the ticker
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}
