package migrate

import "time"

// RepositoryAction labels one completed pipeline stage inside an outcome record.
type RepositoryAction string

// Pipeline stage labels recorded in completion order.
const (
	ActionDryRun             RepositoryAction = "dry_run"
	ActionClone              RepositoryAction = "clone"
	ActionWorkflowsUpdated   RepositoryAction = "workflows_updated"
	ActionNoUpdatesNeeded    RepositoryAction = "no_updates_needed"
	ActionValidated          RepositoryAction = "validated"
	ActionBranchCreated      RepositoryAction = "branch_created"
	ActionFilesCommitted     RepositoryAction = "files_committed"
	ActionPullRequestCreated RepositoryAction = "pr_created"
	ActionCleanedUp          RepositoryAction = "cleaned_up"
)

// RepositoryTask identifies one repository discovered by code search.
type RepositoryTask struct {
	RepositoryFullName string
	CloneURL           string
	MatchedPath        string
}

// RepositoryOutcome accumulates the result of processing one repository.
// It is built incrementally inside a single worker and immutable once returned.
type RepositoryOutcome struct {
	Repository       string             `json:"repository"`
	Succeeded        bool               `json:"success"`
	Actions          []RepositoryAction `json:"actions"`
	Errors           []string           `json:"errors,omitempty"`
	ValidationIssues []string           `json:"validation_issues,omitempty"`
	PullRequestURL   string             `json:"pull_request_url,omitempty"`
}

// RunSummary aggregates the outcomes of one complete run.
type RunSummary struct {
	Outcomes     []RepositoryOutcome
	SuccessCount int
	FailureCount int
	Interrupted  bool
}

// Clock abstracts time lookups so reports and tests stay deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
