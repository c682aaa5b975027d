package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewID_IsVersion7AndOrdered(t *testing.T) {
	g := NewIDGenerator()
	prev := g.NewID()
	for i := 0; i < 100; i++ {
		next := g.NewID()
		id, err := uuid.Parse(next)
		if err != nil {
			t.Fatalf("uuid.Parse(%q): %v", next, err)
		}
		if id.Version() != 7 {
			t.Fatalf("version = %d, want 7", id.Version())
		}
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestDeterministicID(t *testing.T) {
	a, b := DeterministicID(42), DeterministicID(42)
	if a != b {
		t.Errorf("DeterministicID not stable: %s vs %s", a, b)
	}
	if DeterministicID(43) == a {
		t.Error("different seeds produced the same id")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("%s is not a valid UUID: %v", a, err)
	}
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	c.Advance(36 * time.Hour)
	if got := c.Now(); !got.Equal(start.Add(36 * time.Hour)) {
		t.Errorf("Now() = %v", got)
	}
	if d := DaysUntil(start, c.Now()); d != 1 {
		t.Errorf("DaysUntil = %d, want 1", d)
	}
}

func TestRelativeTimeString(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds", now.Add(-10 * time.Second), "just now"},
		{"one minute", now.Add(-time.Minute), "1 minute ago"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"yesterday", now.Add(-30 * time.Hour), "yesterday"},
		{"days", now.Add(-72 * time.Hour), "3 days ago"},
		{"old", now.AddDate(0, -3, 0), "2024-03-15"},
		{"future", now.Add(time.Hour), "in the future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeTimeString(tt.t, now); got != tt.want {
				t.Errorf("RelativeTimeString() = %q, want %q", got, tt.want)
			}
		})
	}
}
