package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"rewritebot/types"

	"github.com/eapache/go-resiliency/retrier"
)

// Class decides which attempt budget an error draws from.
type Class int

const (
	// Permanent errors stop immediately.
	Permanent Class = iota
	// RateLimited errors draw from the rate-limit budget.
	RateLimited
	// Transient errors (network, timeouts, 5xx, malformed output) draw from
	// their own budget.
	Transient
)

func (c Class) String() string {
	switch c {
	case RateLimited:
		return "rate_limited"
	case Transient:
		return "transient"
	default:
		return "permanent"
	}
}

// Policy retries a call with capped exponential backoff. Rate-limit and
// transient failures each get MaxAttempts tries.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Classify maps an error to its budget. Defaults to DefaultClassify.
	Classify func(error) Class
	// Sleep waits between attempts. Defaults to a ctx-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait.
	OnRetry func(attempt int, class Class, delay time.Duration, err error)
}

// Error wraps the last failure with the number of calls made.
type Error struct {
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *Error) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Attempts reports how many calls produced err, or 0.
func Attempts(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Attempts
	}
	return 0
}

// Delays returns the wait after the 1st, 2nd, ... failure within one budget.
func (p Policy) Delays() []time.Duration {
	n := p.MaxAttempts
	if n < 1 {
		n = 1
	}
	delays := retrier.ExponentialBackoff(n, p.BaseDelay)
	for i, d := range delays {
		if p.MaxDelay > 0 && d > p.MaxDelay {
			delays[i] = p.MaxDelay
		}
	}
	return delays
}

// Do calls fn until it succeeds, fails permanently, or a budget runs out.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassify
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	delays := p.Delays()

	used := map[Class]int{}
	attempts := 0
	prev := map[Class]time.Duration{}
	for {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return &Error{Attempts: attempts, Err: err}
		}

		class := classify(err)
		if class == Permanent {
			return &Error{Attempts: attempts, Err: err}
		}
		used[class]++
		if used[class] >= maxAttempts {
			return &Error{Attempts: attempts, Exhausted: true, Err: err}
		}

		// Within one budget delays never shrink, even after a long Retry-After.
		delay := max(prev[class], delays[used[class]-1])
		var rl *types.RateLimitError
		if errors.As(err, &rl) {
			delay = max(delay, rl.RetryAfter)
		}
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
		prev[class] = delay
		if p.OnRetry != nil {
			p.OnRetry(attempts, class, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return &Error{Attempts: attempts, Err: err}
		}
	}
}

// DefaultClassify understands the pipeline's error taxonomy and net errors.
func DefaultClassify(err error) Class {
	if errors.Is(err, context.Canceled) {
		return Permanent
	}

	var rl *types.RateLimitError
	if errors.As(err, &rl) {
		return RateLimited
	}
	var rs *types.RewriteServiceError
	if errors.As(err, &rs) {
		if rs.Permanent {
			return Permanent
		}
		return Transient
	}
	var fe *types.FetchError
	if errors.As(err, &fe) {
		if fe.StatusCode == 429 {
			return RateLimited
		}
		if fe.Temporary() {
			return Transient
		}
		return Permanent
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	return Permanent
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
