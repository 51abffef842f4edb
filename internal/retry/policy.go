// Package retry wraps cenkalti/backoff with the bounded exponential policy
// used for remote operations. Errors marked permanent abort immediately;
// everything else is retried until the attempt budget is exhausted.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	minimumAttemptCountConstant          = 1
	delayDoublingMultiplierConstant      = 2.0
	noRandomizationFactorConstant        = 0.0
	invalidAttemptCountTemplateConstant  = "retry attempts must be at least %d"
	invalidInitialDelayTemplateConstant  = "retry initial delay must be positive, got %s"
)

// Policy retries operations with capped exponential backoff.
type Policy struct {
	maxAttempts  int
	initialDelay time.Duration
}

// NewPolicy validates and constructs a retry policy.
func NewPolicy(maxAttempts int, initialDelay time.Duration) (Policy, error) {
	if maxAttempts < minimumAttemptCountConstant {
		return Policy{}, fmt.Errorf(invalidAttemptCountTemplateConstant, minimumAttemptCountConstant)
	}
	if initialDelay <= 0 {
		return Policy{}, fmt.Errorf(invalidInitialDelayTemplateConstant, initialDelay)
	}
	return Policy{maxAttempts: maxAttempts, initialDelay: initialDelay}, nil
}

// MaxAttempts reports the configured attempt budget.
func (policy Policy) MaxAttempts() int {
	return policy.maxAttempts
}

// Execute runs the operation, retrying transient failures with doubling delays
// until it succeeds, returns a permanent error, the attempt budget runs out,
// or the context is canceled.
func (policy Policy) Execute(executionContext context.Context, operation backoff.Operation) error {
	exponentialBackOff := backoff.NewExponentialBackOff()
	exponentialBackOff.InitialInterval = policy.initialDelay
	exponentialBackOff.Multiplier = delayDoublingMultiplierConstant
	exponentialBackOff.RandomizationFactor = noRandomizationFactorConstant
	exponentialBackOff.MaxElapsedTime = 0

	boundedBackOff := backoff.WithMaxRetries(
		backoff.WithContext(exponentialBackOff, executionContext),
		uint64(policy.maxAttempts-minimumAttemptCountConstant),
	)

	return backoff.Retry(operation, boundedBackOff)
}

// MarkPermanent flags an error so Execute stops retrying immediately.
func MarkPermanent(operationError error) error {
	if operationError == nil {
		return nil
	}
	return backoff.Permanent(operationError)
}
