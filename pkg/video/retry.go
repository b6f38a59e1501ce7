package video

import (
	"context"
	"time"

	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/logging"
)

// RetryPolicy defines bounded retry behavior for provider calls.
type RetryPolicy struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor"`
}

// DefaultRetryPolicy returns the default retry policy for provider calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

// CalculateBackoff calculates the backoff duration for a given retry attempt.
func (p RetryPolicy) CalculateBackoff(retryCount int) time.Duration {
	if retryCount <= 0 {
		return p.InitialBackoff
	}

	backoff := p.InitialBackoff
	for i := 0; i < retryCount; i++ {
		backoff = time.Duration(float64(backoff) * p.BackoffFactor)
		if backoff > p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return backoff
}

// ShouldRetry determines whether an error should trigger another attempt.
// Only transient provider failures are retried; definitive rejections and
// context cancellation are not.
func (p RetryPolicy) ShouldRetry(err error, retryCount int) bool {
	if retryCount >= p.MaxRetries {
		return false
	}
	return perrors.IsRetryable(err)
}

// retryClient decorates a Client with bounded exponential backoff. Every
// operation in the Client contract is idempotent (user upserts by definition,
// call creation by call id, token generation is a pure signing operation), so
// retrying is safe across the board.
type retryClient struct {
	inner  Client
	policy RetryPolicy
	logger logging.Logger
}

// NewRetryClient wraps the given client with the retry policy.
func NewRetryClient(inner Client, policy RetryPolicy, logger logging.Logger) Client {
	return &retryClient{
		inner:  inner,
		policy: policy,
		logger: logger.With(logging.F("component", "video_retry")),
	}
}

func (c *retryClient) UpsertUsers(ctx context.Context, users []User) error {
	return c.do(ctx, "upsert_users", func() error {
		return c.inner.UpsertUsers(ctx, users)
	})
}

func (c *retryClient) CreateCall(ctx context.Context, callType, id string, req CreateCallRequest) (*Call, error) {
	var call *Call
	err := c.do(ctx, "create_call", func() error {
		var err error
		call, err = c.inner.CreateCall(ctx, callType, id, req)
		return err
	})
	return call, err
}

func (c *retryClient) GenerateUserToken(ctx context.Context, req TokenRequest) (string, error) {
	var token string
	err := c.do(ctx, "generate_token", func() error {
		var err error
		token, err = c.inner.GenerateUserToken(ctx, req)
		return err
	})
	return token, err
}

func (c *retryClient) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !c.policy.ShouldRetry(lastErr, attempt) {
			return lastErr
		}

		backoff := c.policy.CalculateBackoff(attempt)
		c.logger.Warn("provider call failed, retrying",
			logging.F("operation", op),
			logging.F("attempt", attempt+1),
			logging.F("backoff", backoff),
			logging.Err(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
