package client

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_fetch_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pitchsplits_fetch_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchsplits_fetch_retry_exhausted_total",
		Help: "Total number of fetches that exhausted all attempts, by last error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first request.
	MaxAttempts int

	// InitialBackoff is the pause after the first failed attempt.
	InitialBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration:
// three attempts pausing 0.5s and then 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// Backoff returns the pause that follows the failed attempt with the given
// zero-based index: InitialBackoff * BackoffMultiplier^attempt.
func (rc RetryConfig) Backoff(attempt int) time.Duration {
	mult := rc.BackoffMultiplier
	if mult <= 0 {
		mult = 2.0
	}
	return time.Duration(float64(rc.InitialBackoff) * math.Pow(mult, float64(attempt)))
}

// retryWithBackoff calls fn until it succeeds or MaxAttempts is reached,
// sleeping Backoff(i) between attempts. It returns the number of attempts made.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func(attempt int) error) (int, error) {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 0 {
				logger.Debug().
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return attempt + 1, nil
		}
		lastErr = err
		class := classOf(err)

		if attempt == maxAttempts-1 {
			retryExhaustedTotal.WithLabelValues(string(class)).Inc()
			return attempt + 1, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, maxAttempts, lastErr)
		}

		pause := cfg.Backoff(attempt)
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(pause.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", string(class)).
			Int("attempt", attempt+1).
			Dur("backoff", pause).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	return maxAttempts, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, maxAttempts, lastErr)
}
