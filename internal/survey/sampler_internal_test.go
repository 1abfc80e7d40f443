package survey

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/testhelpers"
)

type generatorFunc func(ctx context.Context, params GenerateParams) (Sample, error)

func (f generatorFunc) Generate(ctx context.Context, params GenerateParams) (Sample, error) {
	return f(ctx, params)
}

var errGeneration = errors.NewSentinel("generation failed")

func newTestSampler(generator SampleGenerator, backoff time.Duration) (*Sampler, *Metrics) {
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewSampler(generator, backoff, testhelpers.NewLogger(io.Discard), metrics), metrics
}

func TestSampler_AlwaysFailingReturnsFallbacks(t *testing.T) {
	for _, sampleSize := range []int{1, 7, 20} {
		t.Run(fmt.Sprintf("sample size %d", sampleSize), func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			sampler, metrics := newTestSampler(generatorFunc(func(context.Context, GenerateParams) (Sample, error) {
				calls.Add(1)
				return Sample{}, errGeneration
			}), 0)

			samples, err := sampler.Sample(context.Background(), BatchParams{
				SampleSize:  sampleSize,
				Concurrency: 5,
				Retries:     2,
			})
			require.NoError(t, err)
			require.Len(t, samples, sampleSize)
			for _, sample := range samples {
				require.Equal(t, FallbackSample(), sample)
			}
			require.Equal(t, int32(sampleSize*3), calls.Load())
			require.InDelta(t, float64(sampleSize*2), testutil.ToFloat64(metrics.retries), 0)
			require.InDelta(t, float64(sampleSize), testutil.ToFloat64(metrics.samples.WithLabelValues(outcomeFallback)), 0)
		})
	}
}

func TestSampler_ConcurrencyCap(t *testing.T) {
	tests := []struct {
		concurrency int
		sampleSize  int
	}{
		{concurrency: 1, sampleSize: 5},
		{concurrency: 2, sampleSize: 9},
		{concurrency: 5, sampleSize: 20},
		{concurrency: 5, sampleSize: 50},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d n=%d", tt.concurrency, tt.sampleSize), func(t *testing.T) {
			t.Parallel()
			var inFlight, maxInFlight atomic.Int32
			sampler, _ := newTestSampler(generatorFunc(func(context.Context, GenerateParams) (Sample, error) {
				current := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					observed := maxInFlight.Load()
					if current <= observed || maxInFlight.CompareAndSwap(observed, current) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				return Sample{Preference: models.VariantB, Rationale: "ok", Confidence: 1}, nil
			}), 0)

			samples, err := sampler.Sample(context.Background(), BatchParams{
				SampleSize:  tt.sampleSize,
				Concurrency: tt.concurrency,
				Retries:     2,
			})
			require.NoError(t, err)
			require.Len(t, samples, tt.sampleSize)
			require.LessOrEqual(t, maxInFlight.Load(), int32(tt.concurrency))
			require.GreaterOrEqual(t, maxInFlight.Load(), int32(1))
		})
	}
}

func TestSampler_RetriesBeforeFallingBack(t *testing.T) {
	var calls atomic.Int32
	sampler, metrics := newTestSampler(generatorFunc(func(context.Context, GenerateParams) (Sample, error) {
		if calls.Add(1) <= 2 {
			return Sample{}, errGeneration
		}
		return Sample{Preference: models.VariantB, Rationale: "third time lucky", Confidence: 0.9}, nil
	}), 0)

	samples, err := sampler.Sample(context.Background(), BatchParams{SampleSize: 1, Concurrency: 1, Retries: 2})
	require.NoError(t, err)
	require.Equal(t, []Sample{{Preference: models.VariantB, Rationale: "third time lucky", Confidence: 0.9}}, samples)
	require.InDelta(t, 2, testutil.ToFloat64(metrics.retries), 0)
	require.InDelta(t, 1, testutil.ToFloat64(metrics.samples.WithLabelValues(outcomeGenerated)), 0)
	require.InDelta(t, 0, testutil.ToFloat64(metrics.samples.WithLabelValues(outcomeFallback)), 0)
}

func TestSampler_LinearBackoff(t *testing.T) {
	backoff := 20 * time.Millisecond
	var attempts []time.Time
	sampler, _ := newTestSampler(generatorFunc(func(context.Context, GenerateParams) (Sample, error) {
		attempts = append(attempts, time.Now())
		return Sample{}, errGeneration
	}), backoff)

	samples, err := sampler.Sample(context.Background(), BatchParams{SampleSize: 1, Concurrency: 1, Retries: 2})
	require.NoError(t, err)
	require.Equal(t, []Sample{FallbackSample()}, samples)
	require.Len(t, attempts, 3)
	require.GreaterOrEqual(t, attempts[1].Sub(attempts[0]), backoff)
	require.GreaterOrEqual(t, attempts[2].Sub(attempts[1]), 2*backoff)
}

func TestSampler_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	sampler, _ := newTestSampler(generatorFunc(func(ctx context.Context, _ GenerateParams) (Sample, error) {
		if calls.Add(1) == 3 {
			cancel()
		}
		<-ctx.Done()
		return Sample{}, ctx.Err()
	}), time.Second)

	samples, err := sampler.Sample(ctx, BatchParams{SampleSize: 10, Concurrency: 3, Retries: 2})
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, samples)
}

func TestSampler_EmptyBatch(t *testing.T) {
	sampler, _ := newTestSampler(generatorFunc(func(context.Context, GenerateParams) (Sample, error) {
		t.Fatal("generator must not be called")
		return Sample{}, nil
	}), 0)

	samples, err := sampler.Sample(context.Background(), BatchParams{SampleSize: 0, Concurrency: 5, Retries: 2})
	require.NoError(t, err)
	require.Empty(t, samples)
}
