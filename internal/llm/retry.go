package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient failures with capped exponential backoff
// and jitter. Rate limits honour RetryAfter when the vendor reports one.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p. At least one attempt is always made.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(1, r.config.MaxAttempts)
	budget := retryBudget{emptyReplies: 1}

	for attempt := 0; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt+1 >= attempts || !budget.allows(err) {
			return nil, err
		}

		timer := time.NewTimer(r.backoff(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryBudget tracks the retries left for one Generate call.
type retryBudget struct {
	emptyReplies int
}

func (b *retryBudget) allows(err error) bool {
	var (
		auth  *ErrAuthentication
		empty *ErrEmptyResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, &auth):
		return false
	case errors.As(err, &empty):
		if b.emptyReplies == 0 {
			return false
		}
		b.emptyReplies--
		return true
	default:
		// Rate limits, outages and network errors.
		return true
	}
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := min(float64(r.config.InitialWait)*math.Pow(r.config.Multiplier, float64(attempt)), float64(r.config.MaxWait))
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait+jitter, 0))
}
