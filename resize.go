package tuicore

import "tuicore/internal/tlog"

// Regime is the coalescer's current classification of incoming resize
// events: Steady assumes the user is done adjusting and debounces
// briefly before delivering, Burst assumes a drag is in progress and
// switches to a longer quiet-window before delivering, trading latency
// for not redrawing on every intermediate size during a fast drag.
type Regime uint8

const (
	RegimeSteady Regime = iota
	RegimeBurst
)

// ResizeCoalescerConfig tunes the Steady/Burst thresholds. All durations
// are in milliseconds against the caller-supplied timestamp, never a
// wall-clock read, so behavior is fully reproducible given a recorded
// event trace.
type ResizeCoalescerConfig struct {
	// SteadyDebounceMS is how long to wait after the most recent resize
	// before delivering it, while still in the Steady regime.
	SteadyDebounceMS int64
	// BurstTriggerCount is how many resizes within BurstWindowMS must
	// arrive before the coalescer switches into Burst.
	BurstTriggerCount int
	// BurstWindowMS is the sliding window BurstTriggerCount is measured
	// over.
	BurstWindowMS int64
	// BurstQuietMS is how long the input must go quiet, once in Burst,
	// before the coalescer delivers and drops back to Steady.
	BurstQuietMS int64
	// HardDeadlineMS bounds total latency: even mid-burst, a pending
	// resize older than this is delivered unconditionally on the next
	// tick.
	HardDeadlineMS int64
}

// DefaultResizeCoalescerConfig returns reasonable defaults: fast enough
// to feel responsive while still coalescing a drag-resize's flood of
// intermediate sizes.
func DefaultResizeCoalescerConfig() ResizeCoalescerConfig {
	return ResizeCoalescerConfig{
		SteadyDebounceMS:  16,
		BurstTriggerCount: 4,
		BurstWindowMS:     100,
		BurstQuietMS:      120,
		HardDeadlineMS:    250,
	}
}

type resizeEvent struct {
	w, h int
	t    int64
}

// ResizeCoalescer absorbs a flood of terminal resize notifications into
// a bounded-latency stream of "deliver this size" decisions, always
// reporting the latest size seen regardless of how many were coalesced
// away (latest-wins: an intermediate size is never delivered once a
// newer one has replaced it).
//
// Every timestamp arrives as an explicit argument rather than a wall
// clock read, so a recorded sequence of HandleResizeAt/TickAt calls
// always reproduces the same sequence of deliveries.
type ResizeCoalescer struct {
	cfg ResizeCoalescerConfig

	regime Regime

	pending   *resizeEvent
	firstPend int64 // timestamp pending became pending, for the hard deadline

	recent []int64 // timestamps of recent resizes, for burst detection
}

// NewResizeCoalescer creates a coalescer with cfg.
func NewResizeCoalescer(cfg ResizeCoalescerConfig) *ResizeCoalescer {
	return &ResizeCoalescer{cfg: cfg, regime: RegimeSteady}
}

// Regime reports the coalescer's current classification.
func (c *ResizeCoalescer) Regime() Regime { return c.regime }

// HandleResizeAt records a resize to (w, h) observed at time t
// (milliseconds, caller-defined epoch). It never itself returns a
// delivery; call TickAt to learn whether a pending resize is now ready.
func (c *ResizeCoalescer) HandleResizeAt(w, h int, t int64) {
	if c.pending == nil {
		c.firstPend = t
	}
	c.pending = &resizeEvent{w: w, h: h, t: t}

	c.recent = append(c.recent, t)
	cutoff := t - c.cfg.BurstWindowMS
	kept := c.recent[:0]
	for _, ts := range c.recent {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	c.recent = kept

	if c.regime == RegimeSteady && len(c.recent) >= c.cfg.BurstTriggerCount {
		c.regime = RegimeBurst
	}
}

// TickAt is called periodically (e.g. once per loop iteration) with the
// current time t. It returns the size to deliver and true if a pending
// resize is ready to be acted on, clearing the pending state; otherwise
// it returns (Size{}, false).
func (c *ResizeCoalescer) TickAt(t int64) (Size, bool) {
	if c.pending == nil {
		return Size{}, false
	}

	age := t - c.firstPend
	if age >= c.cfg.HardDeadlineMS {
		tlog.Trace("%s: resize applied after %dms pending", ErrCoalescerDeadline, age)
		return c.deliver()
	}

	switch c.regime {
	case RegimeSteady:
		if t-c.pending.t >= c.cfg.SteadyDebounceMS {
			return c.deliver()
		}
	case RegimeBurst:
		if t-c.pending.t >= c.cfg.BurstQuietMS {
			c.regime = RegimeSteady
			return c.deliver()
		}
	}
	return Size{}, false
}

func (c *ResizeCoalescer) deliver() (Size, bool) {
	p := c.pending
	c.pending = nil
	c.firstPend = 0
	c.recent = nil
	return Size{Width: uint16(p.w), Height: uint16(p.h)}, true
}

// HasPending reports whether a resize is awaiting delivery.
func (c *ResizeCoalescer) HasPending() bool {
	return c.pending != nil
}
