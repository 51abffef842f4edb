package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	workflowsDirectoryConstant               = ".github/workflows"
	yamlExtensionConstant                    = ".yaml"
	ymlExtensionConstant                     = ".yml"
	workflowsDirectoryMissingMessageConstant = "workflows directory not found; nothing to update"
	workflowFileFieldNameConstant            = "workflow_file"
	workflowsRootFieldNameConstant           = "workflows_root"
	updateLogMessageConstant                 = "Updating workflow file"
	skipUpdateLogMessageConstant             = "No action references to update"
	updateCompletionLogMessageConstant       = "Workflow update completed"
	updatedWorkflowFilesFieldConstant        = "updated_workflows"
	inspectWorkflowsErrorTemplateConstant    = "unable to inspect workflows directory: %w"
	workflowsNotDirectoryTemplateConstant    = "workflows path is not a directory: %s"
	listWorkflowsErrorTemplateConstant       = "unable to list workflows directory: %w"
	readWorkflowErrorTemplateConstant        = "unable to read workflow file %s: %w"
	statWorkflowErrorTemplateConstant        = "unable to stat workflow file %s: %w"
	writeWorkflowErrorTemplateConstant       = "unable to write workflow file %s: %w"
)

// WorkflowUpdateOutcome reports which workflow files were rewritten.
type WorkflowUpdateOutcome struct {
	UpdatedFiles []string
}

// Updated reports whether any workflow file changed.
func (outcome WorkflowUpdateOutcome) Updated() bool {
	return len(outcome.UpdatedFiles) > 0
}

// WorkflowUpdater rewrites deprecated action references inside a working copy.
type WorkflowUpdater struct {
	logger *zap.Logger
}

// NewWorkflowUpdater constructs a WorkflowUpdater.
func NewWorkflowUpdater(logger *zap.Logger) *WorkflowUpdater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowUpdater{logger: logger}
}

// UpdateWorkflows applies the action reference substitutions to every YAML
// workflow file directly inside the working copy's workflows directory.
// A missing workflows directory means no update is needed, not an error.
func (updater *WorkflowUpdater) UpdateWorkflows(workingCopyPath string) (WorkflowUpdateOutcome, error) {
	updateOutcome := WorkflowUpdateOutcome{UpdatedFiles: []string{}}

	workflowsRoot := filepath.Join(workingCopyPath, workflowsDirectoryConstant)
	directoryInfo, statError := os.Stat(workflowsRoot)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			updater.logger.Info(workflowsDirectoryMissingMessageConstant, zap.String(workflowsRootFieldNameConstant, workflowsRoot))
			return updateOutcome, nil
		}
		return WorkflowUpdateOutcome{}, fmt.Errorf(inspectWorkflowsErrorTemplateConstant, statError)
	}

	if !directoryInfo.IsDir() {
		return WorkflowUpdateOutcome{}, fmt.Errorf(workflowsNotDirectoryTemplateConstant, workflowsRoot)
	}

	directoryEntries, listError := os.ReadDir(workflowsRoot)
	if listError != nil {
		return WorkflowUpdateOutcome{}, fmt.Errorf(listWorkflowsErrorTemplateConstant, listError)
	}

	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() || !isWorkflowFile(directoryEntry.Name()) {
			continue
		}

		workflowFilePath := filepath.Join(workflowsRoot, directoryEntry.Name())
		fileUpdated, processingError := updater.processWorkflowFile(workflowFilePath)
		if processingError != nil {
			return WorkflowUpdateOutcome{}, processingError
		}

		if fileUpdated {
			relativePath, relativeError := filepath.Rel(workingCopyPath, workflowFilePath)
			if relativeError != nil {
				relativePath = workflowFilePath
			}
			updateOutcome.UpdatedFiles = append(updateOutcome.UpdatedFiles, relativePath)
		}
	}

	updater.logger.Info(updateCompletionLogMessageConstant,
		zap.String(workflowsRootFieldNameConstant, workflowsRoot),
		zap.Strings(updatedWorkflowFilesFieldConstant, updateOutcome.UpdatedFiles),
	)

	return updateOutcome, nil
}

func (updater *WorkflowUpdater) processWorkflowFile(workflowFilePath string) (bool, error) {
	fileContent, readError := os.ReadFile(workflowFilePath)
	if readError != nil {
		return false, fmt.Errorf(readWorkflowErrorTemplateConstant, workflowFilePath, readError)
	}

	updatedContent := ApplyActionUpdates(string(fileContent))
	if updatedContent == string(fileContent) {
		updater.logger.Debug(skipUpdateLogMessageConstant, zap.String(workflowFileFieldNameConstant, workflowFilePath))
		return false, nil
	}

	fileInfo, infoError := os.Stat(workflowFilePath)
	if infoError != nil {
		return false, fmt.Errorf(statWorkflowErrorTemplateConstant, workflowFilePath, infoError)
	}

	writeError := os.WriteFile(workflowFilePath, []byte(updatedContent), fileInfo.Mode().Perm())
	if writeError != nil {
		return false, fmt.Errorf(writeWorkflowErrorTemplateConstant, workflowFilePath, writeError)
	}

	updater.logger.Info(updateLogMessageConstant, zap.String(workflowFileFieldNameConstant, workflowFilePath))

	return true, nil
}

func isWorkflowFile(fileName string) bool {
	lowerName := strings.ToLower(fileName)
	return strings.HasSuffix(lowerName, yamlExtensionConstant) || strings.HasSuffix(lowerName, ymlExtensionConstant)
}
