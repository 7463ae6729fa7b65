package ptz

import (
	"testing"
	"time"
)

func TestNewWithZeroPinsIsNoOp(t *testing.T) {
	c, err := New(Pins{}, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Center(); err != nil {
		t.Fatalf("Center on a no-op controller must not error, got: %v", err)
	}
	if err := c.Track(5, -5); err != nil {
		t.Fatalf("Track on a no-op controller must not error, got: %v", err)
	}
}

func TestNewDefaultsPulseWidth(t *testing.T) {
	c, err := New(Pins{}, -1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.pulseWidth != 50*time.Millisecond {
		t.Fatalf("pulseWidth = %v, want the 50ms default for a non-positive input", c.pulseWidth)
	}
}
