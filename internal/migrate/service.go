package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/codeqlup/internal/execshell"
	"github.com/temirov/codeqlup/internal/githubcli"
	"github.com/temirov/codeqlup/internal/retry"
)

const (
	remoteClientNotConfiguredMessageConstant   = "remote repository client not configured"
	gitExecutorNotConfiguredMessageConstant    = "git executor not configured"
	prompterNotConfiguredMessageConstant       = "confirmation prompter not configured"
	searchFailedLogMessageConstant             = "Code search failed; nothing to process"
	noRepositoriesLogMessageConstant           = "No repositories matched the search query"
	matchedRepositoriesLogMessageConstant      = "Repositories matched the search query"
	runDeclinedLogMessageConstant              = "Run declined at confirmation prompt"
	runInterruptedLogMessageConstant           = "Interrupt received; waiting for in-flight repositories"
	dryRunLogMessageConstant                   = "Dry run; repository would be cloned and patched"
	pullRequestDeclinedLogMessageConstant      = "Pull request declined at confirmation prompt"
	repositoryProcessedLogMessageConstant      = "Repository processed"
	cleanupFailureLogMessageConstant           = "Working copy cleanup failed"
	globalConfirmationPromptTemplateConstant   = "Process %d repositories"
	pullRequestConfirmationPromptTemplate      = "Open pull request for %s"
	repositoryFieldNameConstant                = "repository"
	matchedRepositoriesFieldNameConstant       = "matched_repositories"
	branchFieldNameConstant                    = "branch"
	pullRequestURLFieldNameConstant            = "pull_request_url"
	outcomeActionsFieldNameConstant            = "actions"
	outcomeErrorsFieldNameConstant             = "errors"
	cloneFailureTemplateConstant               = "clone failed: %s"
	workflowUpdateFailureTemplateConstant      = "workflow update failed: %s"
	workflowReadFailureTemplateConstant        = "unable to read updated workflow %s: %s"
	metadataFailureTemplateConstant            = "metadata resolution failed: %s"
	missingDefaultBranchTemplateConstant       = "repository metadata missing default branch"
	branchHeadFailureTemplateConstant          = "base branch resolution failed: %s"
	branchCreationFailureTemplateConstant      = "branch creation failed: %s"
	commitFailureTemplateConstant              = "commit of %s failed: %s"
	pullRequestFailureTemplateConstant         = "pull request creation failed: %s"
	confirmationFailureTemplateConstant        = "confirmation prompt failed: %s"
	cleanupFailureTemplateConstant             = "cleanup of %s failed: %s"
	transientHTTPErrorMarkerConstant           = "HTTP 5"
	clientSideHTTPErrorMarkerConstant          = "HTTP 4"
)

// Sentinel construction errors.
var (
	// ErrRemoteClientNotConfigured indicates the service was built without a remote client.
	ErrRemoteClientNotConfigured = errors.New(remoteClientNotConfiguredMessageConstant)
	// ErrGitExecutorNotConfigured indicates the service was built without a git executor.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)
	// ErrPrompterNotConfigured indicates confirmations are required but no prompter was supplied.
	ErrPrompterNotConfigured = errors.New(prompterNotConfiguredMessageConstant)
)

// RemoteRepositoryClient is the subset of githubcli.Client the pipeline uses.
type RemoteRepositoryClient interface {
	SearchCode(executionContext context.Context, searchQuery string, resultsPerPage int) (githubcli.CodeSearchPage, error)
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
	ResolveBranchHead(executionContext context.Context, repository string, branchName string) (string, error)
	CreateBranch(executionContext context.Context, repository string, branchName string, commitSHA string) error
	CommitFile(executionContext context.Context, repository string, options githubcli.CommitFileOptions) error
	CreatePullRequest(executionContext context.Context, repository string, options githubcli.PullRequestOptions) (string, error)
}

// ServiceDependencies carries the collaborators required to build a Service.
type ServiceDependencies struct {
	Logger        *zap.Logger
	RemoteClient  RemoteRepositoryClient
	GitExecutor   GitCommandExecutor
	Prompter      ConfirmationPrompter
	Clock         Clock
	RetryPolicy   retry.Policy
	Configuration CommandConfiguration
}

// Service drives the upgrade pipeline across all discovered repositories.
type Service struct {
	logger          *zap.Logger
	remoteClient    RemoteRepositoryClient
	prompter        ConfirmationPrompter
	clock           Clock
	retryPolicy     retry.Policy
	configuration   CommandConfiguration
	workflowUpdater *WorkflowUpdater
	validator       *WorkflowValidator
	cloner          *RepositoryCloner
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RemoteClient == nil {
		return nil, ErrRemoteClientNotConfigured
	}
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	configuration := dependencies.Configuration.Sanitize()

	if dependencies.Prompter == nil && !configuration.Force {
		return nil, ErrPrompterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &Service{
		logger:          logger,
		remoteClient:    dependencies.RemoteClient,
		prompter:        dependencies.Prompter,
		clock:           clock,
		retryPolicy:     dependencies.RetryPolicy,
		configuration:   configuration,
		workflowUpdater: NewWorkflowUpdater(logger),
		validator:       NewWorkflowValidator(),
		cloner:          NewRepositoryCloner(dependencies.GitExecutor, logger),
	}, nil
}

// Execute searches for matching repositories and runs the pipeline across a
// bounded worker pool. A search failure is logged and yields an empty summary
// rather than a run-level error. An interrupt stops scheduling new
// repositories while in-flight pipelines run to completion.
func (service *Service) Execute(executionContext context.Context) (RunSummary, error) {
	var searchPage githubcli.CodeSearchPage
	searchError := service.retryRemote(executionContext, func() error {
		var operationError error
		searchPage, operationError = service.remoteClient.SearchCode(executionContext, service.configuration.SearchQuery, service.configuration.ResultsPerPage)
		return operationError
	})
	if searchError != nil {
		service.logger.Warn(searchFailedLogMessageConstant, zap.Error(searchError))
		return RunSummary{}, nil
	}

	repositoryTasks := buildRepositoryTasks(searchPage)
	if len(repositoryTasks) == 0 {
		service.logger.Info(noRepositoriesLogMessageConstant)
		return RunSummary{}, nil
	}

	service.logger.Info(matchedRepositoriesLogMessageConstant, zap.Int(matchedRepositoriesFieldNameConstant, len(repositoryTasks)))

	if !service.configuration.Force {
		approved, confirmationError := service.prompter.Confirm(fmt.Sprintf(globalConfirmationPromptTemplateConstant, len(repositoryTasks)))
		if confirmationError != nil {
			return RunSummary{}, confirmationError
		}
		if !approved {
			service.logger.Info(runDeclinedLogMessageConstant)
			return RunSummary{}, nil
		}
	}

	outcomeChannel := make(chan RepositoryOutcome, len(repositoryTasks))
	workerGroup := &errgroup.Group{}
	workerGroup.SetLimit(service.configuration.WorkerCount)

	// In-flight pipelines finish naturally after an interrupt; only the
	// scheduling loop observes cancellation.
	pipelineContext := context.WithoutCancel(executionContext)

	interrupted := false
	for _, repositoryTask := range repositoryTasks {
		if executionContext.Err() != nil {
			interrupted = true
			service.logger.Warn(runInterruptedLogMessageConstant)
			break
		}

		scheduledTask := repositoryTask
		workerGroup.Go(func() error {
			outcomeChannel <- service.processRepository(pipelineContext, scheduledTask)
			return nil
		})
	}

	waitError := workerGroup.Wait()
	close(outcomeChannel)
	if waitError != nil {
		return RunSummary{}, waitError
	}

	summary := RunSummary{Interrupted: interrupted}
	for repositoryOutcome := range outcomeChannel {
		summary.Outcomes = append(summary.Outcomes, repositoryOutcome)
		if repositoryOutcome.Succeeded {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
		}
	}

	if executionContext.Err() != nil {
		summary.Interrupted = true
	}

	return summary, nil
}

func buildRepositoryTasks(searchPage githubcli.CodeSearchPage) []RepositoryTask {
	seenRepositories := map[string]bool{}
	var repositoryTasks []RepositoryTask

	for _, searchMatch := range searchPage.Matches {
		repositoryFullName := strings.TrimSpace(searchMatch.RepositoryFullName)
		if len(repositoryFullName) == 0 || seenRepositories[repositoryFullName] {
			continue
		}
		seenRepositories[repositoryFullName] = true
		repositoryTasks = append(repositoryTasks, RepositoryTask{
			RepositoryFullName: repositoryFullName,
			CloneURL:           githubcli.CloneURL(repositoryFullName),
			MatchedPath:        searchMatch.MatchedPath,
		})
	}

	return repositoryTasks
}

func (service *Service) processRepository(executionContext context.Context, repositoryTask RepositoryTask) RepositoryOutcome {
	outcome := RepositoryOutcome{Repository: repositoryTask.RepositoryFullName}

	if service.configuration.DryRun {
		service.logger.Info(dryRunLogMessageConstant,
			zap.String(repositoryFieldNameConstant, repositoryTask.RepositoryFullName),
			zap.String(branchFieldNameConstant, service.configuration.BranchName),
		)
		outcome.Actions = append(outcome.Actions, ActionDryRun)
		outcome.Succeeded = true
		return outcome
	}

	workingCopyPath := WorkingCopyPath(service.configuration.CloneRoot, repositoryTask.RepositoryFullName)

	cloneError := service.cloner.Clone(executionContext, repositoryTask.CloneURL, workingCopyPath)
	if cloneError != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf(cloneFailureTemplateConstant, cloneError))
		service.finishOutcome(&outcome, workingCopyPath)
		return outcome
	}
	outcome.Actions = append(outcome.Actions, ActionClone)

	updateOutcome, updateError := service.workflowUpdater.UpdateWorkflows(workingCopyPath)
	if updateError != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf(workflowUpdateFailureTemplateConstant, updateError))
		service.finishOutcome(&outcome, workingCopyPath)
		return outcome
	}

	if !updateOutcome.Updated() {
		outcome.Actions = append(outcome.Actions, ActionNoUpdatesNeeded)
		service.finishOutcome(&outcome, workingCopyPath)
		return outcome
	}
	outcome.Actions = append(outcome.Actions, ActionWorkflowsUpdated)

	service.validateUpdatedWorkflows(&outcome, workingCopyPath, updateOutcome.UpdatedFiles)

	if !service.configuration.Force {
		approved, confirmationError := service.prompter.Confirm(fmt.Sprintf(pullRequestConfirmationPromptTemplate, repositoryTask.RepositoryFullName))
		if confirmationError != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf(confirmationFailureTemplateConstant, confirmationError))
			service.finishOutcome(&outcome, workingCopyPath)
			return outcome
		}
		if !approved {
			service.logger.Info(pullRequestDeclinedLogMessageConstant, zap.String(repositoryFieldNameConstant, repositoryTask.RepositoryFullName))
			service.finishOutcome(&outcome, workingCopyPath)
			return outcome
		}
	}

	service.openPullRequest(executionContext, &outcome, repositoryTask, workingCopyPath, updateOutcome.UpdatedFiles)

	service.finishOutcome(&outcome, workingCopyPath)
	return outcome
}

func (service *Service) validateUpdatedWorkflows(outcome *RepositoryOutcome, workingCopyPath string, updatedFiles []string) {
	for _, updatedFile := range updatedFiles {
		workflowContent, readError := os.ReadFile(filepath.Join(workingCopyPath, updatedFile))
		if readError != nil {
			outcome.ValidationIssues = append(outcome.ValidationIssues, fmt.Sprintf(workflowReadFailureTemplateConstant, updatedFile, readError))
			continue
		}
		if _, issues := service.validator.Validate(workflowContent); len(issues) > 0 {
			for _, validationIssue := range issues {
				outcome.ValidationIssues = append(outcome.ValidationIssues, fmt.Sprintf("%s: %s", updatedFile, validationIssue))
			}
		}
	}
	outcome.Actions = append(outcome.Actions, ActionValidated)
}

func (service *Service) openPullRequest(executionContext context.Context, outcome *RepositoryOutcome, repositoryTask RepositoryTask, workingCopyPath string, updatedFiles []string) {
	var repositoryMetadata githubcli.RepositoryMetadata
	metadataError := service.retryRemote(executionContext, func() error {
		var operationError error
		repositoryMetadata, operationError = service.remoteClient.ResolveRepoMetadata(executionContext, repositoryTask.RepositoryFullName)
		return operationError
	})
	if metadataError != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf(metadataFailureTemplateConstant, metadataError))
		return
	}

	defaultBranch := strings.TrimSpace(repositoryMetadata.DefaultBranch)
	if len(defaultBranch) == 0 {
		outcome.Errors = append(outcome.Errors, missingDefaultBranchTemplateConstant)
		return
	}

	var baseCommitSHA string
	branchHeadError := service.retryRemote(executionContext, func() error {
		var operationError error
		baseCommitSHA, operationError = service.remoteClient.ResolveBranchHead(executionContext, repositoryTask.RepositoryFullName, defaultBranch)
		return operationError
	})
	if branchHeadError != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf(branchHeadFailureTemplateConstant, branchHeadError))
		return
	}

	branchCreationError := service.retryRemote(executionContext, func() error {
		return service.remoteClient.CreateBranch(executionContext, repositoryTask.RepositoryFullName, service.configuration.BranchName, baseCommitSHA)
	})
	if branchCreationError != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf(branchCreationFailureTemplateConstant, branchCreationError))
		return
	}
	outcome.Actions = append(outcome.Actions, ActionBranchCreated)

	committedFileCount := 0
	for _, updatedFile := range updatedFiles {
		workflowContent, readError := os.ReadFile(filepath.Join(workingCopyPath, updatedFile))
		if readError != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf(workflowReadFailureTemplateConstant, updatedFile, readError))
			continue
		}

		commitFilePath := filepath.ToSlash(updatedFile)
		commitError := service.retryRemote(executionContext, func() error {
			return service.remoteClient.CommitFile(executionContext, repositoryTask.RepositoryFullName, githubcli.CommitFileOptions{
				FilePath:      commitFilePath,
				BranchName:    service.configuration.BranchName,
				CommitMessage: service.configuration.CommitMessage,
				Content:       workflowContent,
			})
		})
		if commitError != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf(commitFailureTemplateConstant, commitFilePath, commitError))
			continue
		}
		committedFileCount++
	}

	if committedFileCount == 0 {
		return
	}
	outcome.Actions = append(outcome.Actions, ActionFilesCommitted)

	var pullRequestURL string
	pullRequestError := service.retryRemote(executionContext, func() error {
		var operationError error
		pullRequestURL, operationError = service.remoteClient.CreatePullRequest(executionContext, repositoryTask.RepositoryFullName, githubcli.PullRequestOptions{
			Title:      service.configuration.PullRequestTitle,
			Body:       service.configuration.PullRequestBody,
			HeadBranch: service.configuration.BranchName,
			BaseBranch: defaultBranch,
		})
		return operationError
	})
	if pullRequestError != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf(pullRequestFailureTemplateConstant, pullRequestError))
		return
	}

	outcome.Actions = append(outcome.Actions, ActionPullRequestCreated)
	outcome.PullRequestURL = pullRequestURL
}

// finishOutcome fixes the success flag, then attempts working copy cleanup.
// Cleanup failures are recorded but never change the success flag.
func (service *Service) finishOutcome(outcome *RepositoryOutcome, workingCopyPath string) {
	outcome.Succeeded = len(outcome.Errors) == 0

	if service.configuration.SkipCleanup {
		service.logOutcome(outcome)
		return
	}

	if removeError := os.RemoveAll(workingCopyPath); removeError != nil {
		service.logger.Warn(cleanupFailureLogMessageConstant,
			zap.String(workingCopyFieldNameConstant, workingCopyPath),
			zap.Error(removeError),
		)
		outcome.Errors = append(outcome.Errors, fmt.Sprintf(cleanupFailureTemplateConstant, workingCopyPath, removeError))
	} else {
		outcome.Actions = append(outcome.Actions, ActionCleanedUp)
	}

	service.logOutcome(outcome)
}

func (service *Service) logOutcome(outcome *RepositoryOutcome) {
	actionNames := make([]string, 0, len(outcome.Actions))
	for _, recordedAction := range outcome.Actions {
		actionNames = append(actionNames, string(recordedAction))
	}

	service.logger.Info(repositoryProcessedLogMessageConstant,
		zap.String(repositoryFieldNameConstant, outcome.Repository),
		zap.Strings(outcomeActionsFieldNameConstant, actionNames),
		zap.Strings(outcomeErrorsFieldNameConstant, outcome.Errors),
		zap.String(pullRequestURLFieldNameConstant, outcome.PullRequestURL),
	)
}

func (service *Service) retryRemote(executionContext context.Context, operation func() error) error {
	return service.retryPolicy.Execute(executionContext, func() error {
		operationError := operation()
		if operationError == nil {
			return nil
		}
		if isPermanentRemoteFailure(operationError) {
			return retry.MarkPermanent(operationError)
		}
		return operationError
	})
}

// isPermanentRemoteFailure classifies remote errors. Input validation and
// malformed responses never benefit from a retry; gh reporting a client-side
// HTTP status means the request itself is wrong or forbidden.
func isPermanentRemoteFailure(operationError error) bool {
	var invalidInputError githubcli.InvalidInputError
	if errors.As(operationError, &invalidInputError) {
		return true
	}
	var decodingError githubcli.ResponseDecodingError
	if errors.As(operationError, &decodingError) {
		return true
	}
	var encodingError githubcli.PayloadEncodingError
	if errors.As(operationError, &encodingError) {
		return true
	}

	var commandFailedError execshell.CommandFailedError
	if errors.As(operationError, &commandFailedError) {
		standardError := commandFailedError.Result.StandardError
		if strings.Contains(standardError, clientSideHTTPErrorMarkerConstant) && !strings.Contains(standardError, transientHTTPErrorMarkerConstant) {
			return true
		}
	}

	return false
}
