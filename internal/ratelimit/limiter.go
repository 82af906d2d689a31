package ratelimit

import (
	"log"
	"sync"
	"time"

	"salehero-chat/internal/observability"
)

// Defaults match the production send path: at most 3 sends per sliding
// second, then a 5 second cooldown counted down once per second.
const (
	DefaultWindow      = time.Second
	DefaultMaxInWindow = 3
	DefaultCooldown    = 5 * time.Second
	DefaultTick        = time.Second
)

// LogSource reports the current length of the session message log. The
// limiter watches log growth as its only completion signal: the broker sends
// no per-message ack, so a send is considered finished once the echoed
// message lands in the log.
type LogSource interface {
	Len() int
}

// PublishFunc hands admitted content to the transport session.
type PublishFunc func(content string) error

// Options tunes the limiter. Durations shrink in tests so nothing sleeps for
// real seconds.
type Options struct {
	Window      time.Duration
	MaxInWindow int
	Cooldown    time.Duration
	Tick        time.Duration
	Now         func() time.Time
	// OnCooldownTick receives the remaining whole ticks after each decrement,
	// ending with 0.
	OnCooldownTick func(remaining int)
	// OnFlightCleared fires when log growth releases the in-flight guard.
	OnFlightCleared func()
}

// Limiter guards the outbound send path: a sliding-window rate limit, a
// cooldown after bursts, and an in-flight guard against double submits.
type Limiter struct {
	mu       sync.Mutex
	opts     Options
	logSrc   LogSource
	publish  PublishFunc
	sends    []time.Time
	inFlight bool
	baseline int
	cooldown int
}

// New builds a Limiter over the given log source and publish function.
func New(logSrc LogSource, publish PublishFunc, opts Options) *Limiter {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.MaxInWindow <= 0 {
		opts.MaxInWindow = DefaultMaxInWindow
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Limiter{opts: opts, logSrc: logSrc, publish: publish}
}

// TrySend admits or rejects one outbound message. Rejections are expected,
// recoverable conditions, not errors: the caller disables its input while
// CooldownRemaining is positive.
func (l *Limiter) TrySend(content string) bool {
	l.mu.Lock()
	if l.cooldown > 0 {
		l.mu.Unlock()
		observability.IncSendRejected("cooldown")
		return false
	}
	if l.inFlight {
		l.mu.Unlock()
		observability.IncSendRejected("in_flight")
		return false
	}

	now := l.opts.Now()
	l.trimWindow(now)
	if len(l.sends) >= l.opts.MaxInWindow {
		l.startCooldownLocked()
		l.mu.Unlock()
		observability.IncSendRejected("rate")
		return false
	}

	l.sends = append(l.sends, now)
	l.inFlight = true
	l.baseline = l.logSrc.Len()
	publish := l.publish
	l.mu.Unlock()

	if err := publish(content); err != nil {
		log.Printf("rate limiter: publish failed: %v", err)
		l.mu.Lock()
		l.inFlight = false
		l.mu.Unlock()
	}
	return true
}

// LogGrew must be called whenever the session log grows. Growth past the
// flight's baseline releases the in-flight guard.
func (l *Limiter) LogGrew() {
	l.mu.Lock()
	if !l.inFlight || l.logSrc.Len() <= l.baseline {
		l.mu.Unlock()
		return
	}
	l.inFlight = false
	cb := l.opts.OnFlightCleared
	l.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// CooldownRemaining reports the ticks left before sending re-enables.
func (l *Limiter) CooldownRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cooldown
}

// InFlight reports whether a send is awaiting its echo.
func (l *Limiter) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

func (l *Limiter) trimWindow(now time.Time) {
	cutoff := now.Add(-l.opts.Window)
	kept := l.sends[:0]
	for _, ts := range l.sends {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.sends = kept
}

func (l *Limiter) startCooldownLocked() {
	l.cooldown = int(l.opts.Cooldown / l.opts.Tick)
	go l.runCooldown()
}

func (l *Limiter) runCooldown() {
	ticker := time.NewTicker(l.opts.Tick)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		l.cooldown--
		remaining := l.cooldown
		cb := l.opts.OnCooldownTick
		l.mu.Unlock()

		if cb != nil {
			cb(remaining)
		}
		if remaining <= 0 {
			return
		}
	}
}
