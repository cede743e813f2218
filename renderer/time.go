// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import "time"

// NewTime creates a new time service.
func NewTime(cfg TimeConfiguration) Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / time.Duration(cfg.FramesPerSecond)
	}

	pollDelay := cfg.EventPollDelayMs
	if pollDelay == 0 {
		pollDelay = 1
	}

	return Time{
		fps:         cfg.FramesPerSecond,
		fpsTicker:   time.NewTicker(interval),
		eventTicker: time.NewTicker(time.Duration(pollDelay) * time.Millisecond),
	}
}

// Time contains the frame pacing and event loop tickers.
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventTicker *time.Ticker
}

// Fps gets the set frames per second.
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker.
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop.
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Stop stops both tickers.
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
