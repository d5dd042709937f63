package trends

import (
	"context"
	"math/rand"
	"time"
)

const backoffJitterMax = 800 * time.Millisecond

// Backoff retries a function with exponential backoff plus random jitter.
// The delay before retry n is (2^n)*Base + U(0, 800ms), matching the pacing
// the trends provider tolerates.
type Backoff struct {
	MaxAttempts int
	Base        time.Duration

	sleep  func(time.Duration)
	jitter func() float64
}

func NewBackoff(maxAttempts int, base time.Duration) *Backoff {
	return &Backoff{
		MaxAttempts: maxAttempts,
		Base:        base,
		jitter:      rand.Float64,
	}
}

// Do runs fn up to MaxAttempts times. The error of the final attempt is
// returned; context cancellation aborts both execution and backoff sleeps.
func (b *Backoff) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == b.MaxAttempts {
			break
		}

		delay := time.Duration(1<<uint(attempt))*b.Base +
			time.Duration(b.jitter()*float64(backoffJitterMax))
		if err := b.wait(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

func (b *Backoff) wait(ctx context.Context, delay time.Duration) error {
	if b.sleep != nil {
		b.sleep(delay)
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// Pacer inserts a politeness delay between successive per-keyword requests
// to stay under the provider's rate limits. The pause is Base + U(100, 600)ms.
type Pacer struct {
	Base time.Duration

	sleep  func(time.Duration)
	jitter func() float64
}

func NewPacer(base time.Duration) *Pacer {
	return &Pacer{
		Base:   base,
		jitter: rand.Float64,
	}
}

func (p *Pacer) Pause() {
	delay := p.Base + 100*time.Millisecond +
		time.Duration(p.jitter()*float64(500*time.Millisecond))
	if p.sleep != nil {
		p.sleep(delay)
		return
	}
	time.Sleep(delay)
}
