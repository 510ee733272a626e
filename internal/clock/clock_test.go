package clock

import (
	"testing"
	"time"
)

func TestManualAdvanceFiresInOrder(t *testing.T) {
	c := NewManual(0)
	var fired []string
	c.AfterFunc(30*time.Millisecond, func() { fired = append(fired, "b") })
	c.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	stopped := c.AfterFunc(20*time.Millisecond, func() { fired = append(fired, "x") })
	if !stopped.Stop() {
		t.Fatal("Stop on live timer returned false")
	}
	if stopped.Stop() {
		t.Error("second Stop returned true")
	}

	c.Advance(25 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("after 25ms fired = %v, want [a]", fired)
	}
	if c.Now() != 25 {
		t.Errorf("Now = %v, want 25", c.Now())
	}
	c.Advance(5 * time.Millisecond)
	if len(fired) != 2 || fired[1] != "b" {
		t.Fatalf("after 30ms fired = %v, want [a b]", fired)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", c.Pending())
	}
}

func TestManualTimerScheduledFromCallback(t *testing.T) {
	c := NewManual(0)
	var at []float64
	c.AfterFunc(10*time.Millisecond, func() {
		at = append(at, c.Now())
		c.AfterFunc(10*time.Millisecond, func() { at = append(at, c.Now()) })
	})
	c.Advance(100 * time.Millisecond)
	if len(at) != 2 || at[0] != 10 || at[1] != 20 {
		t.Errorf("fired at %v, want [10 20]", at)
	}
}

func TestSystemNowMonotonic(t *testing.T) {
	s := NewSystem()
	a := s.Now()
	b := s.Now()
	if b < a {
		t.Errorf("Now went backwards: %v then %v", a, b)
	}
}
