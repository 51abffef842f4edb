package githubcli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/temirov/codeqlup/internal/execshell"
)

const (
	repoSubcommandConstant                     = "repo"
	viewSubcommandConstant                     = "view"
	apiSubcommandConstant                      = "api"
	jsonFlagConstant                           = "--json"
	methodFlagConstant                         = "-X"
	inputFlagConstant                          = "--input"
	stdinReferenceConstant                     = "-"
	acceptHeaderFlagConstant                   = "-H"
	acceptHeaderValueConstant                  = "Accept: application/vnd.github+json"
	postMethodConstant                         = "POST"
	putMethodConstant                          = "PUT"
	repositoryFieldNameConstant                = "repository"
	queryFieldNameConstant                     = "query"
	branchFieldNameConstant                    = "branch"
	commitSHAFieldNameConstant                 = "commit_sha"
	filePathFieldNameConstant                  = "file_path"
	commitMessageFieldNameConstant             = "commit_message"
	pullRequestTitleFieldNameConstant          = "title"
	pullRequestHeadFieldNameConstant           = "head_branch"
	pullRequestBaseFieldNameConstant           = "base_branch"
	requiredValueMessageConstant               = "value required"
	positiveValueMessageConstant               = "value must be positive"
	executorNotConfiguredMessageConstant       = "github cli executor not configured"
	missingSearchItemsMessageConstant          = "search response missing items"
	missingReferenceSHAMessageConstant         = "reference response missing object sha"
	missingPullRequestURLMessageConstant       = "pull request response missing html_url"
	repoViewJSONFieldsConstant                 = "defaultBranchRef,nameWithOwner,description"
	operationErrorMessageTemplateConstant      = "%s operation failed"
	operationErrorWithCauseTemplateConstant    = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant      = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant       = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant          = "%s: %s"
	codeSearchEndpointTemplateConstant         = "search/code?q=%s&per_page=%s"
	branchReferenceEndpointTemplateConstant    = "repos/%s/git/ref/heads/%s"
	referenceCollectionEndpointTemplate        = "repos/%s/git/refs"
	contentsEndpointTemplateConstant           = "repos/%s/contents/%s?ref=%s"
	contentsUpdateEndpointTemplateConstant     = "repos/%s/contents/%s"
	pullRequestsEndpointTemplateConstant       = "repos/%s/pulls"
	branchReferencePayloadTemplateConstant     = "refs/heads/%s"
	notFoundStatusMarkerConstant               = "HTTP 404"
	searchCodeOperationNameConstant            = OperationName("SearchCode")
	repositoryMetadataOperationNameConstant    = OperationName("ResolveRepoMetadata")
	resolveBranchHeadOperationNameConstant     = OperationName("ResolveBranchHead")
	createBranchOperationNameConstant          = OperationName("CreateBranch")
	commitFileOperationNameConstant            = OperationName("CommitFile")
	createPullRequestOperationNameConstant     = OperationName("CreatePullRequest")
	cloneURLTemplateConstant                   = "https://github.com/%s.git"
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner string
	Description   string
	DefaultBranch string
}

// CodeSearchMatch identifies a repository whose workflow files matched a code search query.
type CodeSearchMatch struct {
	RepositoryFullName string
	MatchedPath        string
}

// CodeSearchPage carries one page of code search matches alongside the reported total.
type CodeSearchPage struct {
	TotalCount int
	Matches    []CodeSearchMatch
}

// CommitFileOptions configures CommitFile invocations.
type CommitFileOptions struct {
	FilePath      string
	BranchName    string
	CommitMessage string
	Content       []byte
}

// PullRequestOptions configures CreatePullRequest invocations.
type PullRequestOptions struct {
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// CloneURL derives the HTTPS clone URL for an owner/name repository identifier.
func CloneURL(repositoryFullName string) string {
	return fmt.Sprintf(cloneURLTemplateConstant, strings.TrimSpace(repositoryFullName))
}

// SearchCode runs a GitHub code search and returns one page of matches.
func (client *Client) SearchCode(executionContext context.Context, searchQuery string, resultsPerPage int) (CodeSearchPage, error) {
	trimmedQuery := strings.TrimSpace(searchQuery)
	if len(trimmedQuery) == 0 {
		return CodeSearchPage{}, InvalidInputError{FieldName: queryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if resultsPerPage <= 0 {
		return CodeSearchPage{}, InvalidInputError{FieldName: "per_page", Message: positiveValueMessageConstant}
	}

	searchEndpoint := fmt.Sprintf(
		codeSearchEndpointTemplateConstant,
		url.QueryEscape(trimmedQuery),
		strconv.Itoa(resultsPerPage),
	)

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
			searchEndpoint,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return CodeSearchPage{}, OperationError{Operation: searchCodeOperationNameConstant, Cause: executionError}
	}

	var response struct {
		TotalCount int `json:"total_count"`
		Items      *[]struct {
			Path       string `json:"path"`
			Repository struct {
				FullName string `json:"full_name"`
			} `json:"repository"`
		} `json:"items"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return CodeSearchPage{}, ResponseDecodingError{Operation: searchCodeOperationNameConstant, Cause: decodingError}
	}
	if response.Items == nil {
		return CodeSearchPage{}, ResponseDecodingError{Operation: searchCodeOperationNameConstant, Cause: errors.New(missingSearchItemsMessageConstant)}
	}

	searchPage := CodeSearchPage{TotalCount: response.TotalCount}
	for _, responseItem := range *response.Items {
		searchPage.Matches = append(searchPage.Matches, CodeSearchMatch{
			RepositoryFullName: responseItem.Repository.FullName,
			MatchedPath:        responseItem.Path,
		})
	}

	return searchPage, nil
}

// ResolveRepoMetadata retrieves canonical metadata for a repository using gh repo view.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return RepositoryMetadata{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repoViewJSONFieldsConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryMetadata{}, OperationError{Operation: repositoryMetadataOperationNameConstant, Cause: executionError}
	}

	var response struct {
		NameWithOwner    string `json:"nameWithOwner"`
		Description      string `json:"description"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RepositoryMetadata{}, ResponseDecodingError{Operation: repositoryMetadataOperationNameConstant, Cause: decodingError}
	}

	return RepositoryMetadata{
		NameWithOwner: response.NameWithOwner,
		Description:   response.Description,
		DefaultBranch: response.DefaultBranchRef.Name,
	}, nil
}

// ResolveBranchHead returns the commit SHA at the tip of a branch.
func (client *Client) ResolveBranchHead(executionContext context.Context, repository string, branchName string) (string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return "", InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	referenceEndpoint := fmt.Sprintf(branchReferenceEndpointTemplateConstant, repositoryIdentifier, trimmedBranchName)
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
			referenceEndpoint,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return "", OperationError{Operation: resolveBranchHeadOperationNameConstant, Cause: executionError}
	}

	var response struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return "", ResponseDecodingError{Operation: resolveBranchHeadOperationNameConstant, Cause: decodingError}
	}
	if len(response.Object.SHA) == 0 {
		return "", ResponseDecodingError{Operation: resolveBranchHeadOperationNameConstant, Cause: errors.New(missingReferenceSHAMessageConstant)}
	}

	return response.Object.SHA, nil
}

// CreateBranch creates a branch reference pointing at the provided commit SHA.
func (client *Client) CreateBranch(executionContext context.Context, repository string, branchName string, commitSHA string) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedCommitSHA := strings.TrimSpace(commitSHA)
	if len(trimmedCommitSHA) == 0 {
		return InvalidInputError{FieldName: commitSHAFieldNameConstant, Message: requiredValueMessageConstant}
	}

	referencePayload := map[string]string{
		"ref": fmt.Sprintf(branchReferencePayloadTemplateConstant, trimmedBranchName),
		"sha": trimmedCommitSHA,
	}
	encodedPayload, encodingError := json.Marshal(referencePayload)
	if encodingError != nil {
		return PayloadEncodingError{Operation: createBranchOperationNameConstant, Cause: encodingError}
	}

	referenceEndpoint := fmt.Sprintf(referenceCollectionEndpointTemplate, repositoryIdentifier)
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant,
			postMethodConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
			referenceEndpoint,
			inputFlagConstant,
			stdinReferenceConstant,
		},
		StandardInput: encodedPayload,
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: createBranchOperationNameConstant, Cause: executionError}
	}

	return nil
}

// CommitFile creates or updates a file on a branch through the contents endpoint.
// When the file already exists on the branch its blob SHA is resolved first so
// the update replaces the previous revision instead of being rejected.
func (client *Client) CommitFile(executionContext context.Context, repository string, options CommitFileOptions) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedFilePath := strings.TrimSpace(options.FilePath)
	if len(trimmedFilePath) == 0 {
		return InvalidInputError{FieldName: filePathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedBranchName := strings.TrimSpace(options.BranchName)
	if len(trimmedBranchName) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedCommitMessage := strings.TrimSpace(options.CommitMessage)
	if len(trimmedCommitMessage) == 0 {
		return InvalidInputError{FieldName: commitMessageFieldNameConstant, Message: requiredValueMessageConstant}
	}

	existingBlobSHA, resolutionError := client.resolveExistingBlobSHA(executionContext, repositoryIdentifier, trimmedFilePath, trimmedBranchName)
	if resolutionError != nil {
		return resolutionError
	}

	contentsPayload := map[string]string{
		"message": trimmedCommitMessage,
		"content": base64.StdEncoding.EncodeToString(options.Content),
		"branch":  trimmedBranchName,
	}
	if len(existingBlobSHA) > 0 {
		contentsPayload["sha"] = existingBlobSHA
	}

	encodedPayload, encodingError := json.Marshal(contentsPayload)
	if encodingError != nil {
		return PayloadEncodingError{Operation: commitFileOperationNameConstant, Cause: encodingError}
	}

	contentsEndpoint := fmt.Sprintf(contentsUpdateEndpointTemplateConstant, repositoryIdentifier, trimmedFilePath)
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant,
			putMethodConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
			contentsEndpoint,
			inputFlagConstant,
			stdinReferenceConstant,
		},
		StandardInput: encodedPayload,
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: commitFileOperationNameConstant, Cause: executionError}
	}

	return nil
}

// CreatePullRequest opens a pull request and returns its HTML URL.
func (client *Client) CreatePullRequest(executionContext context.Context, repository string, options PullRequestOptions) (string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedTitle := strings.TrimSpace(options.Title)
	if len(trimmedTitle) == 0 {
		return "", InvalidInputError{FieldName: pullRequestTitleFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedHeadBranch := strings.TrimSpace(options.HeadBranch)
	if len(trimmedHeadBranch) == 0 {
		return "", InvalidInputError{FieldName: pullRequestHeadFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedBaseBranch := strings.TrimSpace(options.BaseBranch)
	if len(trimmedBaseBranch) == 0 {
		return "", InvalidInputError{FieldName: pullRequestBaseFieldNameConstant, Message: requiredValueMessageConstant}
	}

	pullRequestPayload := map[string]string{
		"title": trimmedTitle,
		"body":  options.Body,
		"head":  trimmedHeadBranch,
		"base":  trimmedBaseBranch,
	}
	encodedPayload, encodingError := json.Marshal(pullRequestPayload)
	if encodingError != nil {
		return "", PayloadEncodingError{Operation: createPullRequestOperationNameConstant, Cause: encodingError}
	}

	pullRequestsEndpoint := fmt.Sprintf(pullRequestsEndpointTemplateConstant, repositoryIdentifier)
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant,
			postMethodConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
			pullRequestsEndpoint,
			inputFlagConstant,
			stdinReferenceConstant,
		},
		StandardInput: encodedPayload,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return "", OperationError{Operation: createPullRequestOperationNameConstant, Cause: executionError}
	}

	var response struct {
		HTMLURL string `json:"html_url"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return "", ResponseDecodingError{Operation: createPullRequestOperationNameConstant, Cause: decodingError}
	}
	if len(response.HTMLURL) == 0 {
		return "", ResponseDecodingError{Operation: createPullRequestOperationNameConstant, Cause: errors.New(missingPullRequestURLMessageConstant)}
	}

	return response.HTMLURL, nil
}

// resolveExistingBlobSHA reads the current blob SHA for a file on a branch.
// Only a 404 on the lookup means the file does not exist yet; any other
// failure is surfaced so a transient error cannot drop the SHA and make the
// subsequent update be rejected as a conflicting create.
func (client *Client) resolveExistingBlobSHA(executionContext context.Context, repository string, filePath string, branchName string) (string, error) {
	contentsEndpoint := fmt.Sprintf(contentsEndpointTemplateConstant, repository, filePath, url.QueryEscape(branchName))
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
			contentsEndpoint,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		var commandFailedError execshell.CommandFailedError
		if errors.As(executionError, &commandFailedError) && strings.Contains(commandFailedError.Result.StandardError, notFoundStatusMarkerConstant) {
			return "", nil
		}
		return "", OperationError{Operation: commitFileOperationNameConstant, Cause: executionError}
	}

	var response struct {
		SHA string `json:"sha"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return "", ResponseDecodingError{Operation: commitFileOperationNameConstant, Cause: decodingError}
	}

	return response.SHA, nil
}
