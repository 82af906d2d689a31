package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLog struct {
	mu  sync.Mutex
	len int
}

func (f *fakeLog) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.len
}

func (f *fakeLog) grow() {
	f.mu.Lock()
	f.len++
	f.mu.Unlock()
}

type harness struct {
	logSrc    *fakeLog
	limiter   *Limiter
	now       time.Time
	published []string
	mu        sync.Mutex
}

func newHarness(opts Options) *harness {
	h := &harness{logSrc: &fakeLog{}, now: time.Unix(1000, 0)}
	if opts.Now == nil {
		opts.Now = func() time.Time { return h.now }
	}
	if opts.Tick == 0 {
		opts.Tick = 20 * time.Millisecond
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = 100 * time.Millisecond // 5 ticks
	}
	h.limiter = New(h.logSrc, func(content string) error {
		h.mu.Lock()
		h.published = append(h.published, content)
		h.mu.Unlock()
		return nil
	}, opts)
	return h
}

func (h *harness) publishCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.published)
}

// echo simulates the broker echoing the last send back into the log.
func (h *harness) echo() {
	h.logSrc.grow()
	h.limiter.LogGrew()
}

func TestThreeSendsPassFourthCoolsDown(t *testing.T) {
	h := newHarness(Options{})

	for i := 0; i < 3; i++ {
		require.True(t, h.limiter.TrySend("msg"), "send %d within the window must pass", i+1)
		h.echo()
		h.now = h.now.Add(100 * time.Millisecond)
	}
	require.Equal(t, 3, h.publishCount())

	assert.False(t, h.limiter.TrySend("msg"), "4th send inside the window must be rejected")
	assert.Equal(t, 5, h.limiter.CooldownRemaining())
	assert.Equal(t, 3, h.publishCount())

	// While cooling down every attempt is rejected, window state aside.
	h.now = h.now.Add(2 * time.Second)
	assert.False(t, h.limiter.TrySend("msg"))

	require.Eventually(t, func() bool { return h.limiter.CooldownRemaining() == 0 },
		time.Second, time.Millisecond)
	assert.True(t, h.limiter.TrySend("msg"), "sending must re-enable after the cooldown")
}

func TestWindowSlides(t *testing.T) {
	h := newHarness(Options{})

	for i := 0; i < 3; i++ {
		require.True(t, h.limiter.TrySend("msg"))
		h.echo()
	}

	// Outside the 1s window the old timestamps are trimmed.
	h.now = h.now.Add(1100 * time.Millisecond)
	assert.True(t, h.limiter.TrySend("msg"))
	assert.Equal(t, 0, h.limiter.CooldownRemaining())
}

func TestInFlightGuard(t *testing.T) {
	h := newHarness(Options{})

	require.True(t, h.limiter.TrySend("first"))
	assert.True(t, h.limiter.InFlight())
	assert.False(t, h.limiter.TrySend("second"), "double submit before log growth must be rejected")
	require.Equal(t, 1, h.publishCount(), "only one publish may reach the transport")

	h.echo()
	assert.False(t, h.limiter.InFlight())
	assert.True(t, h.limiter.TrySend("second"))
	assert.Equal(t, 2, h.publishCount())
}

func TestFlightClearedCallback(t *testing.T) {
	cleared := make(chan struct{}, 1)
	h := newHarness(Options{OnFlightCleared: func() { cleared <- struct{}{} }})

	require.True(t, h.limiter.TrySend("msg"))
	h.echo()

	select {
	case <-cleared:
	default:
		t.Fatal("flight-cleared callback did not fire")
	}
}

func TestCooldownCountsDownToZero(t *testing.T) {
	var mu sync.Mutex
	var ticks []int
	h := newHarness(Options{OnCooldownTick: func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}})

	for i := 0; i < 3; i++ {
		require.True(t, h.limiter.TrySend("msg"))
		h.echo()
	}
	require.False(t, h.limiter.TrySend("msg"))

	require.Eventually(t, func() bool { return h.limiter.CooldownRemaining() == 0 },
		time.Second, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{4, 3, 2, 1, 0}, ticks)
}

func TestPublishErrorReleasesFlight(t *testing.T) {
	logSrc := &fakeLog{}
	failing := New(logSrc, func(string) error { return assert.AnError }, Options{})

	assert.True(t, failing.TrySend("msg"), "admission happened even though publish failed")
	assert.False(t, failing.InFlight(), "a failed publish never produces an echo, the guard must release")
}
