package githubcli_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/codeqlup/internal/execshell"
	"github.com/temirov/codeqlup/internal/githubcli"
)

const (
	testRepositoryIdentifierConstant            = "octocat/hello-world"
	testSearchQueryConstant                     = "uses:github/codeql-action/init@v2 in:file language:YAML"
	testSearchPerPageConstant                   = 10
	testBranchNameConstant                      = "update-codeql-v3"
	testDefaultBranchNameConstant               = "main"
	testCommitSHAConstant                       = "abc123def456"
	testExistingBlobSHAConstant                 = "blob789"
	testWorkflowPathConstant                    = ".github/workflows/codeql.yml"
	testCommitMessageConstant                   = "Update CodeQL to v3"
	testPullRequestTitleConstant                = "Upgrade CodeQL Action to v3"
	testPullRequestURLConstant                  = "https://github.com/octocat/hello-world/pull/42"
	testSearchSuccessCaseNameConstant           = "search_success"
	testSearchMissingItemsCaseNameConstant      = "search_missing_items"
	testSearchEmptyQueryCaseNameConstant        = "search_empty_query"
	testSearchInvalidPerPageCaseNameConstant    = "search_invalid_per_page"
	testCommitNewFileCaseNameConstant           = "commit_new_file"
	testCommitExistingFileCaseNameConstant      = "commit_existing_file"
	testResolveBranchHeadSuccessCaseName        = "resolve_branch_head_success"
	testResolveBranchHeadMissingSHACaseName     = "resolve_branch_head_missing_sha"
	testCreatePullRequestSuccessCaseName        = "create_pull_request_success"
	testCreatePullRequestMissingURLCaseName     = "create_pull_request_missing_url"
	testSearchResponsePayloadConstant           = `{"total_count":2,"items":[{"path":".github/workflows/codeql.yml","repository":{"full_name":"octocat/hello-world"}},{"path":".github/workflows/scan.yml","repository":{"full_name":"octocat/second"}}]}`
	testSearchResponseMissingItemsConstant      = `{"total_count":0}`
	testBranchReferenceResponseConstant         = `{"ref":"refs/heads/main","object":{"sha":"abc123def456"}}`
	testBranchReferenceMissingSHAResponse       = `{"ref":"refs/heads/main","object":{}}`
	testContentsLookupResponseConstant          = `{"sha":"blob789"}`
	testPullRequestResponseConstant             = `{"number":42,"html_url":"https://github.com/octocat/hello-world/pull/42"}`
	testPullRequestResponseMissingURLConstant   = `{"number":42}`
)

type scriptedExecutor struct {
	results          []execshell.ExecutionResult
	errors           []error
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	invocationIndex := len(executor.recordedCommands)
	executor.recordedCommands = append(executor.recordedCommands, details)

	var executionError error
	if invocationIndex < len(executor.errors) {
		executionError = executor.errors[invocationIndex]
	}
	var executionResult execshell.ExecutionResult
	if invocationIndex < len(executor.results) {
		executionResult = executor.results[invocationIndex]
	}
	return executionResult, executionError
}

func TestNewClientRequiresExecutor(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(nil)
	require.Nil(testInstance, client)
	require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
}

func TestSearchCode(testInstance *testing.T) {
	testCases := []struct {
		name            string
		searchQuery     string
		resultsPerPage  int
		responsePayload string
		expectError     bool
		expectedMatches int
		expectedTotal   int
	}{
		{
			name:            testSearchSuccessCaseNameConstant,
			searchQuery:     testSearchQueryConstant,
			resultsPerPage:  testSearchPerPageConstant,
			responsePayload: testSearchResponsePayloadConstant,
			expectedMatches: 2,
			expectedTotal:   2,
		},
		{
			name:            testSearchMissingItemsCaseNameConstant,
			searchQuery:     testSearchQueryConstant,
			resultsPerPage:  testSearchPerPageConstant,
			responsePayload: testSearchResponseMissingItemsConstant,
			expectError:     true,
		},
		{
			name:           testSearchEmptyQueryCaseNameConstant,
			searchQuery:    "   ",
			resultsPerPage: testSearchPerPageConstant,
			expectError:    true,
		},
		{
			name:           testSearchInvalidPerPageCaseNameConstant,
			searchQuery:    testSearchQueryConstant,
			resultsPerPage: 0,
			expectError:    true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedExecutor{
				results: []execshell.ExecutionResult{{StandardOutput: testCase.responsePayload}},
			}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			searchPage, searchError := client.SearchCode(context.Background(), testCase.searchQuery, testCase.resultsPerPage)
			if testCase.expectError {
				require.Error(testInstance, searchError)
				return
			}

			require.NoError(testInstance, searchError)
			require.Equal(testInstance, testCase.expectedTotal, searchPage.TotalCount)
			require.Len(testInstance, searchPage.Matches, testCase.expectedMatches)
			require.Equal(testInstance, testRepositoryIdentifierConstant, searchPage.Matches[0].RepositoryFullName)
			require.Equal(testInstance, testWorkflowPathConstant, searchPage.Matches[0].MatchedPath)
		})
	}
}

func TestResolveBranchHead(testInstance *testing.T) {
	testCases := []struct {
		name            string
		responsePayload string
		expectError     bool
		expectedSHA     string
	}{
		{
			name:            testResolveBranchHeadSuccessCaseName,
			responsePayload: testBranchReferenceResponseConstant,
			expectedSHA:     testCommitSHAConstant,
		},
		{
			name:            testResolveBranchHeadMissingSHACaseName,
			responsePayload: testBranchReferenceMissingSHAResponse,
			expectError:     true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedExecutor{
				results: []execshell.ExecutionResult{{StandardOutput: testCase.responsePayload}},
			}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			resolvedSHA, resolutionError := client.ResolveBranchHead(context.Background(), testRepositoryIdentifierConstant, testDefaultBranchNameConstant)
			if testCase.expectError {
				require.Error(testInstance, resolutionError)
				require.IsType(testInstance, githubcli.ResponseDecodingError{}, resolutionError)
				return
			}

			require.NoError(testInstance, resolutionError)
			require.Equal(testInstance, testCase.expectedSHA, resolvedSHA)
		})
	}
}

func TestCreateBranchSendsReferencePayload(testInstance *testing.T) {
	executor := &scriptedExecutor{
		results: []execshell.ExecutionResult{{}},
	}
	client, creationError := githubcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	branchError := client.CreateBranch(context.Background(), testRepositoryIdentifierConstant, testBranchNameConstant, testCommitSHAConstant)
	require.NoError(testInstance, branchError)
	require.Len(testInstance, executor.recordedCommands, 1)

	var recordedPayload map[string]string
	require.NoError(testInstance, json.Unmarshal(executor.recordedCommands[0].StandardInput, &recordedPayload))
	require.Equal(testInstance, "refs/heads/"+testBranchNameConstant, recordedPayload["ref"])
	require.Equal(testInstance, testCommitSHAConstant, recordedPayload["sha"])
}

func TestCommitFileBlobResolution(testInstance *testing.T) {
	workflowContents := []byte("name: CodeQL\n")

	testCases := []struct {
		name              string
		lookupResult      execshell.ExecutionResult
		lookupError       error
		expectPayloadSHA  bool
		expectedBlobValue string
	}{
		{
			name: testCommitNewFileCaseNameConstant,
			lookupError: execshell.CommandFailedError{
				Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
				Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "gh: Not Found (HTTP 404)"},
			},
		},
		{
			name:              testCommitExistingFileCaseNameConstant,
			lookupResult:      execshell.ExecutionResult{StandardOutput: testContentsLookupResponseConstant},
			expectPayloadSHA:  true,
			expectedBlobValue: testExistingBlobSHAConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedExecutor{
				results: []execshell.ExecutionResult{testCase.lookupResult, {}},
				errors:  []error{testCase.lookupError, nil},
			}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			commitError := client.CommitFile(context.Background(), testRepositoryIdentifierConstant, githubcli.CommitFileOptions{
				FilePath:      testWorkflowPathConstant,
				BranchName:    testBranchNameConstant,
				CommitMessage: testCommitMessageConstant,
				Content:       workflowContents,
			})
			require.NoError(testInstance, commitError)
			require.Len(testInstance, executor.recordedCommands, 2)

			var commitPayload map[string]string
			require.NoError(testInstance, json.Unmarshal(executor.recordedCommands[1].StandardInput, &commitPayload))
			require.Equal(testInstance, testCommitMessageConstant, commitPayload["message"])
			require.Equal(testInstance, testBranchNameConstant, commitPayload["branch"])
			require.Equal(testInstance, base64.StdEncoding.EncodeToString(workflowContents), commitPayload["content"])

			recordedBlobSHA, blobSHAPresent := commitPayload["sha"]
			require.Equal(testInstance, testCase.expectPayloadSHA, blobSHAPresent)
			if testCase.expectPayloadSHA {
				require.Equal(testInstance, testCase.expectedBlobValue, recordedBlobSHA)
			}
		})
	}
}

func TestCommitFileLookupFailurePropagates(testInstance *testing.T) {
	lookupFailure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "gh: Service Unavailable (HTTP 503)"},
	}
	executor := &scriptedExecutor{
		results: []execshell.ExecutionResult{{}},
		errors:  []error{lookupFailure},
	}
	client, creationError := githubcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	commitError := client.CommitFile(context.Background(), testRepositoryIdentifierConstant, githubcli.CommitFileOptions{
		FilePath:      testWorkflowPathConstant,
		BranchName:    testBranchNameConstant,
		CommitMessage: testCommitMessageConstant,
		Content:       []byte("name: CodeQL\n"),
	})
	require.Error(testInstance, commitError)
	require.IsType(testInstance, githubcli.OperationError{}, commitError)
	require.Len(testInstance, executor.recordedCommands, 1)
}

func TestCreatePullRequest(testInstance *testing.T) {
	testCases := []struct {
		name            string
		responsePayload string
		expectError     bool
	}{
		{
			name:            testCreatePullRequestSuccessCaseName,
			responsePayload: testPullRequestResponseConstant,
		},
		{
			name:            testCreatePullRequestMissingURLCaseName,
			responsePayload: testPullRequestResponseMissingURLConstant,
			expectError:     true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedExecutor{
				results: []execshell.ExecutionResult{{StandardOutput: testCase.responsePayload}},
			}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			pullRequestURL, pullRequestError := client.CreatePullRequest(context.Background(), testRepositoryIdentifierConstant, githubcli.PullRequestOptions{
				Title:      testPullRequestTitleConstant,
				Body:       "Automated upgrade",
				HeadBranch: testBranchNameConstant,
				BaseBranch: testDefaultBranchNameConstant,
			})
			if testCase.expectError {
				require.Error(testInstance, pullRequestError)
				require.IsType(testInstance, githubcli.ResponseDecodingError{}, pullRequestError)
				return
			}

			require.NoError(testInstance, pullRequestError)
			require.Equal(testInstance, testPullRequestURLConstant, pullRequestURL)
		})
	}
}

func TestCloneURL(testInstance *testing.T) {
	require.Equal(testInstance, "https://github.com/octocat/hello-world.git", githubcli.CloneURL(" octocat/hello-world "))
}
