package migrate

import (
	"fmt"
	"strings"
	"time"
)

// Default configuration values for the upgrade pipeline.
const (
	DefaultSearchQueryConstant      = "uses:github/codeql-action/init@v2 in:file language:YAML"
	DefaultResultsPerPageConstant   = 10
	DefaultBranchNameConstant       = "update-codeql-v3"
	DefaultWorkerCountConstant      = 4
	DefaultRetryAttemptCountConstant = 3
	DefaultRetryBaseDelayConstant   = 2 * time.Second
	DefaultCommitMessageConstant    = "Update CodeQL to v3"
	DefaultPullRequestTitleConstant = "Upgrade CodeQL Action to v3"
	DefaultPullRequestBodyConstant  = "This pull request updates CodeQL Action references from v2 to v3. CodeQL Action v2 is deprecated; see https://github.blog/changelog/2025-01-10-code-scanning-codeql-action-v2-is-now-deprecated/ for details."
	DefaultCloneRootConstant        = "."
)

// CommandConfiguration captures persisted configuration for the upgrade command.
type CommandConfiguration struct {
	SearchQuery      string        `mapstructure:"search_query"`
	ResultsPerPage   int           `mapstructure:"per_page"`
	BranchName       string        `mapstructure:"branch_name"`
	WorkerCount      int           `mapstructure:"workers"`
	DryRun           bool          `mapstructure:"dry_run"`
	Force            bool          `mapstructure:"force"`
	SkipCleanup      bool          `mapstructure:"skip_cleanup"`
	ReportEnabled    bool          `mapstructure:"report"`
	CloneRoot        string        `mapstructure:"clone_root"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
	CommitMessage    string        `mapstructure:"commit_message"`
	PullRequestTitle string        `mapstructure:"pull_request_title"`
	PullRequestBody  string        `mapstructure:"pull_request_body"`
}

// DefaultCommandConfiguration returns baseline configuration values for the upgrade command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SearchQuery:      DefaultSearchQueryConstant,
		ResultsPerPage:   DefaultResultsPerPageConstant,
		BranchName:       DefaultBranchNameConstant,
		WorkerCount:      DefaultWorkerCountConstant,
		CloneRoot:        DefaultCloneRootConstant,
		RetryAttempts:    DefaultRetryAttemptCountConstant,
		RetryBaseDelay:   DefaultRetryBaseDelayConstant,
		CommitMessage:    DefaultCommitMessageConstant,
		PullRequestTitle: DefaultPullRequestTitleConstant,
		PullRequestBody:  DefaultPullRequestBodyConstant,
	}
}

// DefaultConfigurationValues exposes the command defaults keyed beneath the
// provided configuration prefix for registration with Viper.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		fmt.Sprintf("%s.search_query", configurationPrefix):     defaults.SearchQuery,
		fmt.Sprintf("%s.per_page", configurationPrefix):         defaults.ResultsPerPage,
		fmt.Sprintf("%s.branch_name", configurationPrefix):      defaults.BranchName,
		fmt.Sprintf("%s.workers", configurationPrefix):          defaults.WorkerCount,
		fmt.Sprintf("%s.clone_root", configurationPrefix):       defaults.CloneRoot,
		fmt.Sprintf("%s.retry_attempts", configurationPrefix):   defaults.RetryAttempts,
		fmt.Sprintf("%s.retry_base_delay", configurationPrefix): defaults.RetryBaseDelay.String(),
		fmt.Sprintf("%s.commit_message", configurationPrefix):   defaults.CommitMessage,
	}
}

// Sanitize trims configured values and replaces out-of-range entries with defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.SearchQuery = strings.TrimSpace(configuration.SearchQuery)
	if len(sanitized.SearchQuery) == 0 {
		sanitized.SearchQuery = DefaultSearchQueryConstant
	}

	if sanitized.ResultsPerPage <= 0 {
		sanitized.ResultsPerPage = DefaultResultsPerPageConstant
	}

	sanitized.BranchName = strings.TrimSpace(configuration.BranchName)
	if len(sanitized.BranchName) == 0 {
		sanitized.BranchName = DefaultBranchNameConstant
	}

	if sanitized.WorkerCount <= 0 {
		sanitized.WorkerCount = DefaultWorkerCountConstant
	}

	sanitized.CloneRoot = strings.TrimSpace(configuration.CloneRoot)
	if len(sanitized.CloneRoot) == 0 {
		sanitized.CloneRoot = DefaultCloneRootConstant
	}

	if sanitized.RetryAttempts <= 0 {
		sanitized.RetryAttempts = DefaultRetryAttemptCountConstant
	}

	if sanitized.RetryBaseDelay <= 0 {
		sanitized.RetryBaseDelay = DefaultRetryBaseDelayConstant
	}

	sanitized.CommitMessage = strings.TrimSpace(configuration.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = DefaultCommitMessageConstant
	}

	sanitized.PullRequestTitle = strings.TrimSpace(configuration.PullRequestTitle)
	if len(sanitized.PullRequestTitle) == 0 {
		sanitized.PullRequestTitle = DefaultPullRequestTitleConstant
	}

	sanitized.PullRequestBody = strings.TrimSpace(configuration.PullRequestBody)
	if len(sanitized.PullRequestBody) == 0 {
		sanitized.PullRequestBody = DefaultPullRequestBodyConstant
	}

	return sanitized
}
