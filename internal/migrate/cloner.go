package migrate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/codeqlup/internal/execshell"
)

const (
	gitCloneSubcommandConstant       = "clone"
	cloneErrorTemplateConstant       = "clone of %s failed: %w"
	cloneCompletedLogMessageConstant = "Repository cloned"
	cloneURLFieldNameConstant        = "clone_url"
	workingCopyFieldNameConstant     = "working_copy"
	ownerNameSeparatorConstant       = "-"
	repositorySeparatorConstant      = "/"
)

// GitCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryCloner creates working copies by shelling out to git.
type RepositoryCloner struct {
	executor GitCommandExecutor
	logger   *zap.Logger
}

// NewRepositoryCloner constructs a RepositoryCloner.
func NewRepositoryCloner(executor GitCommandExecutor, logger *zap.Logger) *RepositoryCloner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepositoryCloner{executor: executor, logger: logger}
}

// Clone checks out the repository into destinationPath.
func (cloner *RepositoryCloner) Clone(executionContext context.Context, cloneURL string, destinationPath string) error {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{gitCloneSubcommandConstant, cloneURL, destinationPath},
	}

	_, executionError := cloner.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, cloneURL, executionError)
	}

	cloner.logger.Debug(cloneCompletedLogMessageConstant,
		zap.String(cloneURLFieldNameConstant, cloneURL),
		zap.String(workingCopyFieldNameConstant, destinationPath),
	)

	return nil
}

// WorkingCopyPath derives the local directory for a repository. The owner
// login is folded into the name so same-named repositories from different
// owners cannot collide while workers run in parallel.
func WorkingCopyPath(cloneRoot string, repositoryFullName string) string {
	directoryName := strings.ReplaceAll(strings.TrimSpace(repositoryFullName), repositorySeparatorConstant, ownerNameSeparatorConstant)
	return filepath.Join(cloneRoot, directoryName)
}
