package cache

import (
	"testing"
	"time"
)

func TestEventKey(t *testing.T) {
	got := eventKey("7c2d1d4e")
	want := "event:7c2d1d4e:processed"
	if got != want {
		t.Errorf("eventKey = %q, want %q", got, want)
	}
}

func TestDefaultTTL(t *testing.T) {
	if DefaultTTL != time.Hour {
		t.Errorf("DefaultTTL = %v, want 1h", DefaultTTL)
	}
}
