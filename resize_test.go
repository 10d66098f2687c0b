package tuicore

import "testing"

func TestResizeCoalescerSteadyDebounce(t *testing.T) {
	c := NewResizeCoalescer(DefaultResizeCoalescerConfig())
	c.HandleResizeAt(80, 24, 0)

	if _, ok := c.TickAt(5); ok {
		t.Error("should not deliver before the steady debounce elapses")
	}
	size, ok := c.TickAt(20)
	if !ok {
		t.Fatal("expected delivery once the steady debounce elapses")
	}
	if size.Width != 80 || size.Height != 24 {
		t.Errorf("delivered size = %+v, want (80,24)", size)
	}
	if c.HasPending() {
		t.Error("pending state should be cleared after delivery")
	}
}

func TestResizeCoalescerLatestWinsWithinDebounce(t *testing.T) {
	c := NewResizeCoalescer(DefaultResizeCoalescerConfig())
	c.HandleResizeAt(10, 10, 0)
	c.HandleResizeAt(20, 20, 5)
	c.HandleResizeAt(30, 30, 10)

	size, ok := c.TickAt(30)
	if !ok {
		t.Fatal("expected a delivery")
	}
	if size.Width != 30 || size.Height != 30 {
		t.Errorf("latest-wins delivered %+v, want (30,30)", size)
	}
}

// S4: 100 resizes injected over 50ms, sizes varying up to 300x100, final
// size (137, 42). After draining, the delivered size must be exactly
// the last one injected, with nothing left pending.
func TestScenarioS4BurstLatestWins(t *testing.T) {
	c := NewResizeCoalescer(DefaultResizeCoalescerConfig())

	for i := 0; i < 99; i++ {
		t := int64(i / 2) // two resizes per millisecond, all within 50ms
		w := (i*37)%300 + 1
		h := (i*13)%100 + 1
		c.HandleResizeAt(w, h, t)
	}
	c.HandleResizeAt(137, 42, 49)

	if c.Regime() != RegimeBurst {
		t.Fatalf("100 resizes in 50ms should have escalated to RegimeBurst, got %v", c.Regime())
	}

	var delivered Size
	var got bool
	for tick := int64(50); tick <= 49+DefaultResizeCoalescerConfig().HardDeadlineMS+10; tick++ {
		if size, ok := c.TickAt(tick); ok {
			delivered = size
			got = true
			break
		}
	}

	if !got {
		t.Fatal("expected exactly one delivery after draining the burst")
	}
	if delivered.Width != 137 || delivered.Height != 42 {
		t.Errorf("delivered = %+v, want (137,42)", delivered)
	}
	if c.HasPending() {
		t.Error("no resize should remain pending after delivery")
	}
}

func TestResizeCoalescerHardDeadlineForcesDelivery(t *testing.T) {
	cfg := ResizeCoalescerConfig{
		SteadyDebounceMS:  1000, // would never fire on its own within the test window
		BurstTriggerCount: 1000,
		BurstWindowMS:     1000,
		BurstQuietMS:      1000,
		HardDeadlineMS:    50,
	}
	c := NewResizeCoalescer(cfg)
	c.HandleResizeAt(10, 10, 0)

	if _, ok := c.TickAt(40); ok {
		t.Error("should not deliver before the hard deadline")
	}
	size, ok := c.TickAt(51)
	if !ok {
		t.Fatal("hard deadline should force delivery regardless of regime")
	}
	if size.Width != 10 || size.Height != 10 {
		t.Errorf("delivered = %+v, want (10,10)", size)
	}
}

func TestResizeCoalescerNoPendingTickIsNoop(t *testing.T) {
	c := NewResizeCoalescer(DefaultResizeCoalescerConfig())
	if _, ok := c.TickAt(1000); ok {
		t.Error("TickAt with nothing pending should never deliver")
	}
}
