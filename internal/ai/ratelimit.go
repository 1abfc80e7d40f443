package ai

import (
	"context"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"golang.org/x/time/rate"
)

// RateLimited spaces out calls to the wrapped Completer.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited allows requestsPerSecond calls per second with bursts of up to burst calls.
func NewRateLimited(next Completer, requestsPerSecond float64, burst int) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimited) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "wait for rate limiter")
	}
	return r.next.Complete(ctx, req)
}
