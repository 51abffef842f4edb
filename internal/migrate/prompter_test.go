package migrate_test

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/codeqlup/internal/migrate"
)

const (
	testPromptMessageConstant               = "Process 3 repositories"
	testAffirmativeShortAnswerCaseName      = "short_affirmative"
	testAffirmativeLongAnswerCaseName       = "long_affirmative"
	testUppercaseAffirmativeAnswerCaseName  = "uppercase_affirmative"
	testNegativeAnswerCaseNameConstant      = "negative_answer"
	testEmptyAnswerCaseNameConstant         = "empty_answer_declines"
	testUnrecognizedAnswerCaseNameConstant  = "unrecognized_answer_declines"
)

func TestIOConfirmationPrompter(testInstance *testing.T) {
	testCases := []struct {
		name           string
		inputLine      string
		expectApproved bool
	}{
		{
			name:           testAffirmativeShortAnswerCaseName,
			inputLine:      "y\n",
			expectApproved: true,
		},
		{
			name:           testAffirmativeLongAnswerCaseName,
			inputLine:      "yes\n",
			expectApproved: true,
		},
		{
			name:           testUppercaseAffirmativeAnswerCaseName,
			inputLine:      "YES\n",
			expectApproved: true,
		},
		{
			name:      testNegativeAnswerCaseNameConstant,
			inputLine: "n\n",
		},
		{
			name:      testEmptyAnswerCaseNameConstant,
			inputLine: "\n",
		},
		{
			name:      testUnrecognizedAnswerCaseNameConstant,
			inputLine: "maybe\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			prompter := migrate.NewIOConfirmationPrompter(strings.NewReader(testCase.inputLine), outputBuffer)

			approved, promptError := prompter.Confirm(testPromptMessageConstant)
			require.NoError(testInstance, promptError)
			require.Equal(testInstance, testCase.expectApproved, approved)
			require.Contains(testInstance, outputBuffer.String(), testPromptMessageConstant)
		})
	}
}

func TestIOConfirmationPrompterSerializesConcurrentConfirmations(testInstance *testing.T) {
	const concurrentWorkerCount = 8

	inputBuilder := strings.Builder{}
	for workerIndex := 0; workerIndex < concurrentWorkerCount; workerIndex++ {
		inputBuilder.WriteString("y\n")
	}

	outputBuffer := &bytes.Buffer{}
	prompter := migrate.NewIOConfirmationPrompter(strings.NewReader(inputBuilder.String()), outputBuffer)

	var approvedCount atomic.Int64
	confirmationErrors := make(chan error, concurrentWorkerCount)
	var workerGroup sync.WaitGroup
	for workerIndex := 0; workerIndex < concurrentWorkerCount; workerIndex++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			approved, confirmationError := prompter.Confirm(testPromptMessageConstant)
			if confirmationError != nil {
				confirmationErrors <- confirmationError
				return
			}
			if approved {
				approvedCount.Add(1)
			}
		}()
	}
	workerGroup.Wait()
	close(confirmationErrors)

	for confirmationError := range confirmationErrors {
		require.NoError(testInstance, confirmationError)
	}
	require.Equal(testInstance, int64(concurrentWorkerCount), approvedCount.Load())
	require.Equal(testInstance, concurrentWorkerCount, strings.Count(outputBuffer.String(), testPromptMessageConstant))
}

func TestWorkingCopyPathIncludesOwner(testInstance *testing.T) {
	require.Equal(testInstance, "clones/octocat-hello-world", migrate.WorkingCopyPath("clones", "octocat/hello-world"))
}
