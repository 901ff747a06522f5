package queue

import "time"

type RetryPolicy struct {
	BaseDelay   time.Duration // delay unit, e.g. 1m
	MaxDelay    time.Duration // backoff cap, e.g. 6h
	MaxAttempts int           // attempts before a job turns failed
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   1 * time.Minute,
		MaxDelay:    6 * time.Hour,
		MaxAttempts: 5,
	}
}

// NextRetryAt computes when a job should be tried again after its Nth
// recorded failure: now + base * 2^attempts, capped at MaxDelay.
// attempts is 1-based (1 => base*2).
func (p RetryPolicy) NextRetryAt(now time.Time, attempts int) time.Time {
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 1 * time.Minute
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 6 * time.Hour
	}

	// past ~32 doublings the shift would overflow long before any
	// realistic cap; treat it as capped
	delay := max
	if attempts < 32 {
		delay = base << attempts
		if delay <= 0 || delay > max {
			delay = max
		}
	}

	return now.Add(delay).UTC()
}

// Exhausted reports whether a job with the given number of recorded
// attempts has used up its retry budget.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}
