// Package ratelimit paces sequential campaign sends.
package ratelimit

import (
	"context"
	"time"
)

// Pacer enforces a fixed inter-send delay derived from an emails-per-
// minute target. The first Wait returns immediately; each later Wait
// blocks for the configured interval. A zero or negative rate disables
// pacing entirely.
type Pacer struct {
	interval time.Duration
	started  bool
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer for the given emails-per-minute rate.
func NewPacer(perMinute float64) *Pacer {
	return NewPacerWithSleep(perMinute, sleepContext)
}

// NewPacerWithSleep creates a pacer with a custom wait function, used by
// tests that must not block for real.
func NewPacerWithSleep(perMinute float64, sleep func(ctx context.Context, d time.Duration) error) *Pacer {
	var interval time.Duration
	if perMinute > 0 {
		interval = time.Duration(float64(time.Minute) / perMinute)
	}
	return &Pacer{
		interval: interval,
		sleep:    sleep,
	}
}

// Interval returns the configured inter-send delay.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next send may proceed. It returns the context's
// error if the context has been cancelled, even when pacing is disabled
// and no sleep would occur.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.started {
		p.started = true
		return nil
	}
	if p.interval <= 0 {
		return nil
	}
	return p.sleep(ctx, p.interval)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
