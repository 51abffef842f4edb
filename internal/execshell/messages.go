package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitCloneSubcommandNameConstant = "clone"
)

const (
	gitCloneStartTemplateConstant            = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant          = "Cloned %s into %s"
	gitCloneFailureTemplateConstant          = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant = "Unable to clone %s into %s: %s"
)

const (
	githubRepoSubcommandNameConstant          = "repo"
	githubRepoViewSubcommandNameConstant      = "view"
	githubAPICommandNameConstant              = "api"
	githubMethodFlagConstant                  = "-X"
	githubHeaderFlagConstant                  = "-H"
	githubInputFlagConstant                   = "--input"
	githubFieldFlagConstant                   = "-f"
	githubRawFieldFlagConstant                = "-F"
	githubSearchCodeEndpointPrefixConstant    = "search/code"
	githubRepositoryEndpointPrefixConstant    = "repos/"
	githubGitReferenceEndpointSegmentConstant = "/git/ref"
	githubContentsEndpointSegmentConstant     = "/contents/"
	githubPullsEndpointSuffixConstant         = "/pulls"
	githubPostMethodConstant                  = "POST"
	githubPutMethodConstant                   = "PUT"
	githubCurrentRepositoryLabelConstant      = "current repository"
)

const (
	githubRepoViewStartTemplateConstant                = "Retrieving repository details for %s"
	githubRepoViewSuccessTemplateConstant              = "Retrieved repository details for %s"
	githubRepoViewFailureTemplateConstant              = "Failed to retrieve repository details for %s (exit code %d%s)"
	githubRepoViewExecutionFailureTemplateConstant     = "Unable to retrieve repository details for %s: %s"
	githubSearchStartTemplateConstant                  = "Searching GitHub code"
	githubSearchSuccessTemplateConstant                = "GitHub code search completed"
	githubSearchFailureTemplateConstant                = "GitHub code search failed (exit code %d%s)"
	githubSearchExecutionFailureTemplateConstant       = "Unable to search GitHub code: %s"
	githubReferenceReadStartTemplateConstant           = "Resolving branch reference on %s"
	githubReferenceReadSuccessTemplateConstant         = "Resolved branch reference on %s"
	githubReferenceReadFailureTemplateConstant         = "Failed to resolve branch reference on %s (exit code %d%s)"
	githubReferenceReadExecutionFailureTemplate        = "Unable to resolve branch reference on %s: %s"
	githubReferenceCreateStartTemplateConstant         = "Creating branch on %s"
	githubReferenceCreateSuccessTemplateConstant       = "Created branch on %s"
	githubReferenceCreateFailureTemplateConstant       = "Failed to create branch on %s (exit code %d%s)"
	githubReferenceCreateExecutionFailureTemplate      = "Unable to create branch on %s: %s"
	githubContentsCommitStartTemplateConstant          = "Committing %s on %s"
	githubContentsCommitSuccessTemplateConstant        = "Committed %s on %s"
	githubContentsCommitFailureTemplateConstant        = "Failed to commit %s on %s (exit code %d%s)"
	githubContentsCommitExecutionFailureTemplate       = "Unable to commit %s on %s: %s"
	githubPullRequestCreateStartTemplateConstant       = "Opening pull request on %s"
	githubPullRequestCreateSuccessTemplateConstant     = "Opened pull request on %s"
	githubPullRequestCreateFailureTemplateConstant     = "Failed to open pull request on %s (exit code %d%s)"
	githubPullRequestCreateExecutionFailureTemplate    = "Unable to open pull request on %s: %s"
	githubContentsReadStartTemplateConstant            = "Checking existing content of %s on %s"
	githubContentsReadSuccessTemplateConstant          = "Checked existing content of %s on %s"
	githubContentsReadFailureTemplateConstant          = "Failed to check existing content of %s on %s (exit code %d%s)"
	githubContentsReadExecutionFailureTemplateConstant = "Unable to check existing content of %s on %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 || strings.TrimSpace(arguments[0]) != gitCloneSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	remoteURL := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
	destination := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCloneStartTemplateConstant, remoteURL, destination)
	case messageStageSuccess:
		return fmt.Sprintf(gitCloneSuccessTemplateConstant, remoteURL, destination)
	case messageStageFailure:
		return fmt.Sprintf(gitCloneFailureTemplateConstant, remoteURL, destination, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCloneExecutionFailureTemplateConstant, remoteURL, destination, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	primaryArgument := strings.TrimSpace(arguments[0])
	switch primaryArgument {
	case githubRepoSubcommandNameConstant:
		return formatter.describeGitHubRepoCommand(command, result, failure, stage)
	case githubAPICommandNameConstant:
		return formatter.describeGitHubAPICommand(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitHubRepoCommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 3 || strings.TrimSpace(arguments[1]) != githubRepoViewSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	repository := formatter.ensureValue(arguments[2])

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(githubRepoViewStartTemplateConstant, repository)
	case messageStageSuccess:
		return fmt.Sprintf(githubRepoViewSuccessTemplateConstant, repository)
	case messageStageFailure:
		return fmt.Sprintf(githubRepoViewFailureTemplateConstant, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(githubRepoViewExecutionFailureTemplateConstant, repository, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitHubAPICommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	endpoint := formatter.extractEndpoint(arguments)
	method := strings.TrimSpace(findFlagValue(arguments, githubMethodFlagConstant))

	switch {
	case strings.HasPrefix(endpoint, githubSearchCodeEndpointPrefixConstant):
		switch stage {
		case messageStageStart:
			return githubSearchStartTemplateConstant
		case messageStageSuccess:
			return githubSearchSuccessTemplateConstant
		case messageStageFailure:
			return fmt.Sprintf(githubSearchFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(githubSearchExecutionFailureTemplateConstant, formatter.describeFailure(failure))
		}
	case strings.Contains(endpoint, githubGitReferenceEndpointSegmentConstant):
		repository := formatter.extractRepositoryFromEndpoint(endpoint)
		if method == githubPostMethodConstant {
			switch stage {
			case messageStageStart:
				return fmt.Sprintf(githubReferenceCreateStartTemplateConstant, repository)
			case messageStageSuccess:
				return fmt.Sprintf(githubReferenceCreateSuccessTemplateConstant, repository)
			case messageStageFailure:
				return fmt.Sprintf(githubReferenceCreateFailureTemplateConstant, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
			case messageStageExecutionFailure:
				return fmt.Sprintf(githubReferenceCreateExecutionFailureTemplate, repository, formatter.describeFailure(failure))
			}
		}
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(githubReferenceReadStartTemplateConstant, repository)
		case messageStageSuccess:
			return fmt.Sprintf(githubReferenceReadSuccessTemplateConstant, repository)
		case messageStageFailure:
			return fmt.Sprintf(githubReferenceReadFailureTemplateConstant, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(githubReferenceReadExecutionFailureTemplate, repository, formatter.describeFailure(failure))
		}
	case strings.Contains(endpoint, githubContentsEndpointSegmentConstant):
		repository := formatter.extractRepositoryFromEndpoint(endpoint)
		contentPath := formatter.extractContentsPathFromEndpoint(endpoint)
		if method == githubPutMethodConstant {
			switch stage {
			case messageStageStart:
				return fmt.Sprintf(githubContentsCommitStartTemplateConstant, contentPath, repository)
			case messageStageSuccess:
				return fmt.Sprintf(githubContentsCommitSuccessTemplateConstant, contentPath, repository)
			case messageStageFailure:
				return fmt.Sprintf(githubContentsCommitFailureTemplateConstant, contentPath, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
			case messageStageExecutionFailure:
				return fmt.Sprintf(githubContentsCommitExecutionFailureTemplate, contentPath, repository, formatter.describeFailure(failure))
			}
		}
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(githubContentsReadStartTemplateConstant, contentPath, repository)
		case messageStageSuccess:
			return fmt.Sprintf(githubContentsReadSuccessTemplateConstant, contentPath, repository)
		case messageStageFailure:
			return fmt.Sprintf(githubContentsReadFailureTemplateConstant, contentPath, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(githubContentsReadExecutionFailureTemplateConstant, contentPath, repository, formatter.describeFailure(failure))
		}
	case strings.HasSuffix(endpoint, githubPullsEndpointSuffixConstant):
		repository := formatter.extractRepositoryFromEndpoint(endpoint)
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(githubPullRequestCreateStartTemplateConstant, repository)
		case messageStageSuccess:
			return fmt.Sprintf(githubPullRequestCreateSuccessTemplateConstant, repository)
		case messageStageFailure:
			return fmt.Sprintf(githubPullRequestCreateFailureTemplateConstant, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(githubPullRequestCreateExecutionFailureTemplate, repository, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

// extractEndpoint returns the first positional argument after "api", skipping
// flags together with the values of value-taking flags.
func (formatter CommandMessageFormatter) extractEndpoint(arguments []string) string {
	for argumentIndex := 1; argumentIndex < len(arguments); argumentIndex++ {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, "-") {
			if flagTakesValue(trimmedArgument) {
				argumentIndex++
			}
			continue
		}
		return trimmedArgument
	}
	return emptyStringConstant
}

func flagTakesValue(flagArgument string) bool {
	switch flagArgument {
	case githubMethodFlagConstant, githubHeaderFlagConstant, githubInputFlagConstant, githubFieldFlagConstant, githubRawFieldFlagConstant:
		return true
	default:
		return false
	}
}

func (formatter CommandMessageFormatter) extractRepositoryFromEndpoint(endpoint string) string {
	trimmedEndpoint := strings.TrimPrefix(strings.TrimSpace(endpoint), githubRepositoryEndpointPrefixConstant)
	endpointSegments := strings.Split(trimmedEndpoint, "/")
	if len(endpointSegments) < 2 || len(endpointSegments[0]) == 0 || len(endpointSegments[1]) == 0 {
		return githubCurrentRepositoryLabelConstant
	}
	return strings.Join(endpointSegments[:2], "/")
}

func (formatter CommandMessageFormatter) extractContentsPathFromEndpoint(endpoint string) string {
	separatorIndex := strings.Index(endpoint, githubContentsEndpointSegmentConstant)
	if separatorIndex < 0 {
		return fallbackUnknownValueLabelConstant
	}
	contentPath := endpoint[separatorIndex+len(githubContentsEndpointSegmentConstant):]
	if queryIndex := strings.Index(contentPath, "?"); queryIndex >= 0 {
		contentPath = contentPath[:queryIndex]
	}
	return formatter.ensureValue(contentPath)
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flag && argumentIndex+1 < len(arguments) {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return emptyStringConstant
}
