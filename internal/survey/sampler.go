package survey

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultBackoff is the base delay between attempts of a draw. The n-th retry waits n times this long.
const DefaultBackoff = 300 * time.Millisecond

// SampleGenerator produces a single sample.
type SampleGenerator interface {
	Generate(ctx context.Context, params GenerateParams) (Sample, error)
}

// BatchParams describe sampleSize independent draws for one persona and question.
type BatchParams struct {
	GenerateParams
	SampleSize  int
	Concurrency int
	Retries     int
}

// Sampler draws batches of samples with bounded concurrency.
type Sampler struct {
	generator SampleGenerator
	backoff   time.Duration
	logger    *slog.Logger
	metrics   *Metrics
}

func NewSampler(generator SampleGenerator, backoff time.Duration, logger *slog.Logger, metrics *Metrics) *Sampler {
	return &Sampler{
		generator: generator,
		backoff:   backoff,
		logger:    logger.With(slog.String("source", "Sampler")),
		metrics:   metrics,
	}
}

// Sample returns exactly params.SampleSize samples in no particular order.
//
// A draw that fails after params.Retries retries is replaced with FallbackSample. The only error returned is the
// cancellation of ctx.
func (s *Sampler) Sample(ctx context.Context, params BatchParams) ([]Sample, error) {
	if params.SampleSize <= 0 {
		return []Sample{}, nil
	}
	samples := make([]Sample, params.SampleSize)

	var g errgroup.Group
	g.SetLimit(max(params.Concurrency, 1))
	for i := range samples {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			sample, err := s.draw(ctx, params)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err() //nolint:wrapcheck // cancellation is reported as is
				}
				s.logger.LogAttrs(ctx, slog.LevelWarn, "draw failed, using fallback sample",
					slog.Int("attempts", max(params.Retries, 0)+1), errors.SlogError(err))
				s.metrics.observeSample(outcomeFallback)
				sample = FallbackSample()
			} else {
				s.metrics.observeSample(outcomeGenerated)
			}
			samples[i] = sample
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // cancellation is reported as is
	}
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // cancellation is reported as is
	}
	return samples, nil
}

func (s *Sampler) draw(ctx context.Context, params BatchParams) (Sample, error) {
	// Retries is clamped to non-negative before the conversion.
	attempts := uint(max(params.Retries, 0)) + 1 //nolint:gosec // see above

	return retry.DoWithData( //nolint:wrapcheck // the last attempt's error is logged by the caller
		func() (Sample, error) {
			return s.generator.Generate(ctx, params.GenerateParams)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return s.backoff * time.Duration(n+1) //nolint:gosec // attempt counts are small
		}),
		retry.OnRetry(func(n uint, err error) {
			// Also invoked after the final attempt, which is not followed by a retry.
			if n+1 >= attempts {
				return
			}
			s.metrics.observeRetry()
			s.logger.LogAttrs(ctx, slog.LevelDebug, "retrying draw",
				slog.Uint64("attempt", uint64(n)+1), errors.SlogError(err))
		}),
	)
}
