package migrate

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/codeqlup/internal/execshell"
	"github.com/temirov/codeqlup/internal/githubauth"
	"github.com/temirov/codeqlup/internal/githubcli"
	"github.com/temirov/codeqlup/internal/retry"
)

const (
	commandUseConstant                      = "migrate"
	commandShortDescriptionConstant         = "Upgrade CodeQL Action references from v2 to v3"
	commandLongDescriptionConstant          = "migrate searches GitHub for repositories whose workflows still pin codeql-action@v2, clones each match, rewrites the references to v3, and opens a pull request with the updated files."
	perPageFlagNameConstant                 = "per-page"
	perPageFlagUsageConstant                = "Maximum number of code search results to process"
	dryRunFlagNameConstant                  = "dry-run"
	dryRunFlagUsageConstant                 = "Report intended actions without cloning or mutating anything"
	branchNameFlagNameConstant              = "branch-name"
	branchNameFlagUsageConstant             = "Branch name used for the upgrade pull requests"
	skipCleanupFlagNameConstant             = "skip-cleanup"
	skipCleanupFlagUsageConstant            = "Keep cloned working copies after processing"
	workersFlagNameConstant                 = "workers"
	workersFlagUsageConstant                = "Number of repositories processed in parallel"
	forceFlagNameConstant                   = "force"
	forceFlagUsageConstant                  = "Skip confirmation prompts"
	reportFlagNameConstant                  = "report"
	reportFlagUsageConstant                 = "Write a JSON run report into the working directory"
	runInterruptedMessageConstant           = "run interrupted"
	retryPolicyCreationErrorTemplate        = "unable to construct retry policy: %w"
	githubClientCreationErrorTemplate       = "unable to construct GitHub client: %w"
	reportWriteFailureLogMessageConstant    = "Run report could not be written"
	reportWrittenLogMessageConstant         = "Run report written"
	runSummaryLogMessageConstant            = "Run completed"
	reportPathFieldNameConstant             = "report_path"
	totalRepositoriesFieldNameConstant      = "total_repositories"
	successCountFieldNameConstant           = "success_count"
	failureCountFieldNameConstant           = "failure_count"
)

// ErrRunInterrupted signals that the operator interrupted the run; the
// process exits non-zero while completed outcomes remain valid.
var ErrRunInterrupted = errors.New(runInterruptedMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs a pipeline service from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (*Service, error)

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  GitCommandExecutor
	RemoteClient                 RemoteRepositoryClient
	Prompter                     ConfirmationPrompter
	ServiceProvider              ServiceProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	WorkingDirectory             string
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigrate,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().Int(perPageFlagNameConstant, defaults.ResultsPerPage, perPageFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	command.Flags().String(branchNameFlagNameConstant, defaults.BranchName, branchNameFlagUsageConstant)
	command.Flags().Bool(skipCleanupFlagNameConstant, false, skipCleanupFlagUsageConstant)
	command.Flags().Int(workersFlagNameConstant, defaults.WorkerCount, workersFlagUsageConstant)
	command.Flags().Bool(forceFlagNameConstant, false, forceFlagUsageConstant)
	command.Flags().Bool(reportFlagNameConstant, false, reportFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMigrate(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)

	logger := builder.resolveLogger()

	if _, tokenError := githubauth.RequireToken(nil); tokenError != nil {
		return tokenError
	}

	gitExecutor, remoteClient, wiringError := builder.resolveClients(logger)
	if wiringError != nil {
		return wiringError
	}

	retryPolicy, policyError := retry.NewPolicy(configuration.RetryAttempts, configuration.RetryBaseDelay)
	if policyError != nil {
		return fmt.Errorf(retryPolicyCreationErrorTemplate, policyError)
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:        logger,
		RemoteClient:  remoteClient,
		GitExecutor:   gitExecutor,
		Prompter:      builder.resolvePrompter(),
		Clock:         SystemClock{},
		RetryPolicy:   retryPolicy,
		Configuration: configuration,
	})
	if serviceError != nil {
		return serviceError
	}

	summary, executionError := service.Execute(command.Context())
	if executionError != nil {
		return executionError
	}

	logger.Info(runSummaryLogMessageConstant,
		zap.Int(totalRepositoriesFieldNameConstant, len(summary.Outcomes)),
		zap.Int(successCountFieldNameConstant, summary.SuccessCount),
		zap.Int(failureCountFieldNameConstant, summary.FailureCount),
	)

	if configuration.ReportEnabled {
		reportWriter := NewReportWriter(SystemClock{}, builder.resolveWorkingDirectory())
		reportPath, reportError := reportWriter.Write(summary)
		if reportError != nil {
			logger.Warn(reportWriteFailureLogMessageConstant, zap.Error(reportError))
		} else {
			logger.Info(reportWrittenLogMessageConstant, zap.String(reportPathFieldNameConstant, reportPath))
		}
	}

	if summary.Interrupted {
		return ErrRunInterrupted
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider().Sanitize()
	}

	if command == nil {
		return configuration
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(perPageFlagNameConstant) {
		configuration.ResultsPerPage, _ = commandFlags.GetInt(perPageFlagNameConstant)
	}
	if commandFlags.Changed(dryRunFlagNameConstant) {
		configuration.DryRun, _ = commandFlags.GetBool(dryRunFlagNameConstant)
	}
	if commandFlags.Changed(branchNameFlagNameConstant) {
		configuration.BranchName, _ = commandFlags.GetString(branchNameFlagNameConstant)
	}
	if commandFlags.Changed(skipCleanupFlagNameConstant) {
		configuration.SkipCleanup, _ = commandFlags.GetBool(skipCleanupFlagNameConstant)
	}
	if commandFlags.Changed(workersFlagNameConstant) {
		configuration.WorkerCount, _ = commandFlags.GetInt(workersFlagNameConstant)
	}
	if commandFlags.Changed(forceFlagNameConstant) {
		configuration.Force, _ = commandFlags.GetBool(forceFlagNameConstant)
	}
	if commandFlags.Changed(reportFlagNameConstant) {
		configuration.ReportEnabled, _ = commandFlags.GetBool(reportFlagNameConstant)
	}

	return configuration.Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveClients(logger *zap.Logger) (GitCommandExecutor, RemoteRepositoryClient, error) {
	if builder.GitExecutor != nil && builder.RemoteClient != nil {
		return builder.GitExecutor, builder.RemoteClient, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if executorError != nil {
		return nil, nil, executorError
	}

	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		gitExecutor = shellExecutor
	}

	remoteClient := builder.RemoteClient
	if remoteClient == nil {
		githubClient, clientError := githubcli.NewClient(shellExecutor)
		if clientError != nil {
			return nil, nil, fmt.Errorf(githubClientCreationErrorTemplate, clientError)
		}
		remoteClient = githubClient
	}

	return gitExecutor, remoteClient, nil
}

func (builder *CommandBuilder) resolvePrompter() ConfirmationPrompter {
	if builder.Prompter != nil {
		return builder.Prompter
	}
	return NewIOConfirmationPrompter(os.Stdin, os.Stdout)
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (*Service, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveWorkingDirectory() string {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory
	}
	return "."
}
