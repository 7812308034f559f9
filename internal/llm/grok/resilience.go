package grok

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

const (
	retryInitialBackoff = 500 * time.Millisecond
	retryMaxBackoff     = 8 * time.Second
	retryMultiplier     = 2.0
)

// serviceBreaker trips the analysis service open across a multi-document run
// so a dead endpoint fails the remaining documents fast instead of burning
// the full retry budget on each one.
type serviceBreaker struct {
	cb *gobreaker.CircuitBreaker[[]byte]
}

func newServiceBreaker() *serviceBreaker {
	return &serviceBreaker{
		cb: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "analysis-service",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				// Client-side mistakes (auth, malformed request) say nothing
				// about service health.
				return err == nil || !retryable(err)
			},
		}),
	}
}

func (b *serviceBreaker) execute(fn func() ([]byte, error)) ([]byte, error) {
	out, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, common.NewServiceError(0, "analysis service unavailable (circuit open)", err)
	}
	return out, err
}

// retryable reports whether the failure is transient: network errors, rate
// limiting, and 5xx. Auth and malformed-request errors are never retried.
func retryable(err error) bool {
	if common.IsKind(err, common.KindAuthentication) {
		return false
	}
	var ae *common.AppError
	if errors.As(err, &ae) && ae.Kind == common.KindAnalysisService {
		if ae.Status == 0 { // transport-level failure
			return true
		}
		return ae.Status == 429 || ae.Status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// withRetry runs fn with exponential backoff for transient failures, bounded
// by maxAttempts. The context cancels both the wait and further attempts.
func withRetry(ctx context.Context, logger *slog.Logger, maxAttempts int, fn func() ([]byte, error)) ([]byte, error) {
	backoff := retryInitialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, common.NewServiceError(0, "analysis request canceled", err)
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) || attempt == maxAttempts {
			return nil, err
		}

		logger.Warn("grok.retry",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * retryMultiplier)
		if backoff > retryMaxBackoff {
			backoff = retryMaxBackoff
		}
	}
	return nil, lastErr
}
