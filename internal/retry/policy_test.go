package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/codeqlup/internal/retry"
)

const (
	testSucceedsFirstAttemptCaseNameConstant    = "succeeds_first_attempt"
	testSucceedsAfterTransientCaseNameConstant  = "succeeds_after_transient_failures"
	testExhaustsAttemptBudgetCaseNameConstant   = "exhausts_attempt_budget"
	testPermanentStopsRetryingCaseNameConstant  = "permanent_error_stops_retrying"
	testInvalidAttemptCountCaseNameConstant     = "invalid_attempt_count"
	testInvalidInitialDelayCaseNameConstant     = "invalid_initial_delay"
	testPolicyMaxAttemptsConstant               = 3
	testPolicyInitialDelayConstant              = time.Millisecond
	testTransientFailureMessageConstant         = "transient failure"
	testPermanentFailureMessageConstant         = "permanent failure"
)

func TestNewPolicyValidation(testInstance *testing.T) {
	testCases := []struct {
		name         string
		maxAttempts  int
		initialDelay time.Duration
		expectError  bool
	}{
		{
			name:         testInvalidAttemptCountCaseNameConstant,
			maxAttempts:  0,
			initialDelay: testPolicyInitialDelayConstant,
			expectError:  true,
		},
		{
			name:         testInvalidInitialDelayCaseNameConstant,
			maxAttempts:  testPolicyMaxAttemptsConstant,
			initialDelay: 0,
			expectError:  true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := retry.NewPolicy(testCase.maxAttempts, testCase.initialDelay)
			require.Error(testInstance, creationError)
		})
	}
}

func TestPolicyExecute(testInstance *testing.T) {
	transientError := errors.New(testTransientFailureMessageConstant)
	permanentError := errors.New(testPermanentFailureMessageConstant)

	testCases := []struct {
		name               string
		failuresBeforePass int
		permanent          bool
		expectError        error
		expectedCallCount  int
	}{
		{
			name:              testSucceedsFirstAttemptCaseNameConstant,
			expectedCallCount: 1,
		},
		{
			name:               testSucceedsAfterTransientCaseNameConstant,
			failuresBeforePass: 2,
			expectedCallCount:  3,
		},
		{
			name:               testExhaustsAttemptBudgetCaseNameConstant,
			failuresBeforePass: testPolicyMaxAttemptsConstant + 1,
			expectError:        transientError,
			expectedCallCount:  testPolicyMaxAttemptsConstant,
		},
		{
			name:              testPermanentStopsRetryingCaseNameConstant,
			permanent:         true,
			expectError:       permanentError,
			expectedCallCount: 1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			policy, creationError := retry.NewPolicy(testPolicyMaxAttemptsConstant, testPolicyInitialDelayConstant)
			require.NoError(testInstance, creationError)
			require.Equal(testInstance, testPolicyMaxAttemptsConstant, policy.MaxAttempts())

			callCount := 0
			operation := func() error {
				callCount++
				if testCase.permanent {
					return retry.MarkPermanent(permanentError)
				}
				if callCount <= testCase.failuresBeforePass {
					return transientError
				}
				return nil
			}

			executionError := policy.Execute(context.Background(), operation)
			if testCase.expectError != nil {
				require.ErrorIs(testInstance, executionError, testCase.expectError)
			} else {
				require.NoError(testInstance, executionError)
			}
			require.Equal(testInstance, testCase.expectedCallCount, callCount)
		})
	}
}

func TestPolicyExecuteHonorsContextCancellation(testInstance *testing.T) {
	policy, creationError := retry.NewPolicy(testPolicyMaxAttemptsConstant, time.Second)
	require.NoError(testInstance, creationError)

	cancellableContext, cancelFunction := context.WithCancel(context.Background())

	callCount := 0
	operation := func() error {
		callCount++
		cancelFunction()
		return errors.New(testTransientFailureMessageConstant)
	}

	executionError := policy.Execute(cancellableContext, operation)
	require.Error(testInstance, executionError)
	require.Equal(testInstance, 1, callCount)
}
