package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	TypeFixed       = "fixed"
	TypeExponential = "exponential"
	TypeUnbounded   = "unbounded"
)

// Policy decides how long to wait after a failed attempt and when to stop.
// Attempts are counted from zero.
type Policy interface {
	Delay(attempt int) time.Duration
	Exhausted(attempt int) bool
}

type fixed struct {
	delay      time.Duration
	maxRetries int
}

// Fixed waits the same delay between attempts and gives up after
// maxRetries attempts.
func Fixed(delay time.Duration, maxRetries int) Policy {
	return fixed{delay: delay, maxRetries: maxRetries}
}

func (f fixed) Delay(int) time.Duration { return f.delay }

func (f fixed) Exhausted(attempt int) bool { return attempt >= f.maxRetries }

func (f fixed) String() string {
	return fmt.Sprintf("fixed(%s x %d)", f.delay, f.maxRetries)
}

type exponential struct {
	initial    time.Duration
	max        time.Duration
	maxRetries int
}

// Exponential doubles the delay after every attempt, capped at max, and
// gives up after maxRetries attempts.
func Exponential(initial, max time.Duration, maxRetries int) Policy {
	return exponential{initial: initial, max: max, maxRetries: maxRetries}
}

func (e exponential) Delay(attempt int) time.Duration {
	d := e.initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= e.max || d <= 0 {
			return e.max
		}
	}
	if d > e.max {
		return e.max
	}
	return d
}

func (e exponential) Exhausted(attempt int) bool { return attempt >= e.maxRetries }

func (e exponential) String() string {
	return fmt.Sprintf("exponential(%s..%s x %d)", e.initial, e.max, e.maxRetries)
}

type unbounded struct {
	delay time.Duration
}

// Unbounded polls forever at a fixed delay.
func Unbounded(delay time.Duration) Policy {
	return unbounded{delay: delay}
}

func (u unbounded) Delay(int) time.Duration { return u.delay }

func (u unbounded) Exhausted(int) bool { return false }

func (u unbounded) String() string {
	return fmt.Sprintf("unbounded(%s)", u.delay)
}

// FromType builds the policy named by policyType.
func FromType(policyType string, delay, maxDelay time.Duration, maxRetries int) (Policy, error) {
	switch policyType {
	case TypeFixed:
		return Fixed(delay, maxRetries), nil
	case TypeExponential:
		return Exponential(delay, maxDelay, maxRetries), nil
	case TypeUnbounded:
		return Unbounded(delay), nil
	default:
		return nil, fmt.Errorf("retry: unknown policy %q", policyType)
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
