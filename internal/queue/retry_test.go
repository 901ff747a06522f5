package queue

import (
	"testing"
	"time"
)

func TestNextRetryAt_Doubles(t *testing.T) {
	p := RetryPolicy{BaseDelay: 1 * time.Minute, MaxDelay: 6 * time.Hour, MaxAttempts: 5}
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	// attempt 1 => base*2
	if got := p.NextRetryAt(now, 1); !got.Equal(now.Add(2 * time.Minute)) {
		t.Fatalf("attempt 1: got %s, want +2m", got.Sub(now))
	}

	// attempt 2 => base*4
	if got := p.NextRetryAt(now, 2); !got.Equal(now.Add(4 * time.Minute)) {
		t.Fatalf("attempt 2: got %s, want +4m", got.Sub(now))
	}

	// attempt 4 => base*16
	if got := p.NextRetryAt(now, 4); !got.Equal(now.Add(16 * time.Minute)) {
		t.Fatalf("attempt 4: got %s, want +16m", got.Sub(now))
	}
}

func TestNextRetryAt_Capped(t *testing.T) {
	p := RetryPolicy{BaseDelay: 1 * time.Minute, MaxDelay: 10 * time.Minute, MaxAttempts: 5}
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	// attempt 4 => 16m uncapped, capped to 10m
	if got := p.NextRetryAt(now, 4); !got.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("capped: got %s, want +10m", got.Sub(now))
	}

	// huge attempt count must not overflow the shift
	if got := p.NextRetryAt(now, 200); !got.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("overflow guard: got %s, want +10m", got.Sub(now))
	}
}

func TestNextRetryAt_AttemptLessThanOne(t *testing.T) {
	p := DefaultRetryPolicy()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	want := p.NextRetryAt(now, 1)
	if got := p.NextRetryAt(now, 0); !got.Equal(want) {
		t.Fatalf("attempt 0 should behave like attempt 1: got %s, want %s", got, want)
	}
}

func TestNextRetryAt_ZeroValuePolicyUsesDefaults(t *testing.T) {
	var p RetryPolicy
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	got := p.NextRetryAt(now, 1)
	if got.Before(now) || got.Equal(now) {
		t.Fatalf("expected a positive delay, got %s", got.Sub(now))
	}
}

func TestExhausted(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5}

	if p.Exhausted(4) {
		t.Fatalf("4 of 5 attempts should not be exhausted")
	}
	if !p.Exhausted(5) {
		t.Fatalf("5 of 5 attempts should be exhausted")
	}
	if !p.Exhausted(6) {
		t.Fatalf("6 of 5 attempts should be exhausted")
	}
}
