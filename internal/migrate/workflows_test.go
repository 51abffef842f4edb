package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/codeqlup/internal/migrate"
)

const (
	testWorkflowsSubdirectoryConstant           = ".github/workflows"
	testWorkflowFileNameConstant                = "codeql.yml"
	testNestedDirectoryNameConstant             = "nested"
	testMissingDirectoryCaseNameConstant        = "missing_workflows_directory"
	testNoMatchingFilesCaseNameConstant         = "no_matching_files"
	testDeprecatedReferenceCaseNameConstant     = "deprecated_reference_rewritten"
	testMixedFilesCaseNameConstant              = "only_deprecated_files_rewritten"
	testDeprecatedWorkflowContentConstant       = "jobs:\n  analyze:\n    steps:\n      - uses: github/codeql-action/init@v2\n"
	testUpgradedWorkflowContentConstant         = "jobs:\n  analyze:\n    steps:\n      - uses: github/codeql-action/init@v3\n"
	testUnrelatedWorkflowContentConstant        = "jobs:\n  build:\n    steps:\n      - uses: actions/checkout@v4\n"
	testUnrelatedWorkflowFileNameConstant       = "build.yaml"
	testNonWorkflowFileNameConstant             = "README.md"
)

func TestUpdateWorkflowsMissingDirectory(testInstance *testing.T) {
	workingCopyPath := testInstance.TempDir()

	updater := migrate.NewWorkflowUpdater(zap.NewNop())
	updateOutcome, updateError := updater.UpdateWorkflows(workingCopyPath)

	require.NoError(testInstance, updateError)
	require.False(testInstance, updateOutcome.Updated())
	require.Empty(testInstance, updateOutcome.UpdatedFiles)
}

func TestUpdateWorkflowsNoMatchingFiles(testInstance *testing.T) {
	workingCopyPath := testInstance.TempDir()
	workflowsRoot := filepath.Join(workingCopyPath, testWorkflowsSubdirectoryConstant)
	require.NoError(testInstance, os.MkdirAll(workflowsRoot, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(workflowsRoot, testNonWorkflowFileNameConstant), []byte("docs"), 0o644))

	updater := migrate.NewWorkflowUpdater(zap.NewNop())
	updateOutcome, updateError := updater.UpdateWorkflows(workingCopyPath)

	require.NoError(testInstance, updateError)
	require.False(testInstance, updateOutcome.Updated())

	unchangedContent, readError := os.ReadFile(filepath.Join(workflowsRoot, testNonWorkflowFileNameConstant))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "docs", string(unchangedContent))
}

func TestUpdateWorkflowsRewritesDeprecatedReferences(testInstance *testing.T) {
	workingCopyPath := testInstance.TempDir()
	workflowsRoot := filepath.Join(workingCopyPath, testWorkflowsSubdirectoryConstant)
	require.NoError(testInstance, os.MkdirAll(workflowsRoot, 0o755))

	deprecatedFilePath := filepath.Join(workflowsRoot, testWorkflowFileNameConstant)
	require.NoError(testInstance, os.WriteFile(deprecatedFilePath, []byte(testDeprecatedWorkflowContentConstant), 0o644))
	unrelatedFilePath := filepath.Join(workflowsRoot, testUnrelatedWorkflowFileNameConstant)
	require.NoError(testInstance, os.WriteFile(unrelatedFilePath, []byte(testUnrelatedWorkflowContentConstant), 0o644))

	// Workflow discovery is deliberately non-recursive.
	nestedDirectory := filepath.Join(workflowsRoot, testNestedDirectoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(nestedDirectory, 0o755))
	nestedFilePath := filepath.Join(nestedDirectory, testWorkflowFileNameConstant)
	require.NoError(testInstance, os.WriteFile(nestedFilePath, []byte(testDeprecatedWorkflowContentConstant), 0o644))

	updater := migrate.NewWorkflowUpdater(zap.NewNop())
	updateOutcome, updateError := updater.UpdateWorkflows(workingCopyPath)

	require.NoError(testInstance, updateError)
	require.True(testInstance, updateOutcome.Updated())
	require.Equal(testInstance, []string{filepath.Join(testWorkflowsSubdirectoryConstant, testWorkflowFileNameConstant)}, updateOutcome.UpdatedFiles)

	rewrittenContent, readError := os.ReadFile(deprecatedFilePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, testUpgradedWorkflowContentConstant, string(rewrittenContent))

	unrelatedContent, unrelatedReadError := os.ReadFile(unrelatedFilePath)
	require.NoError(testInstance, unrelatedReadError)
	require.Equal(testInstance, testUnrelatedWorkflowContentConstant, string(unrelatedContent))

	nestedContent, nestedReadError := os.ReadFile(nestedFilePath)
	require.NoError(testInstance, nestedReadError)
	require.Equal(testInstance, testDeprecatedWorkflowContentConstant, string(nestedContent))
}

func TestUpdateWorkflowsIsRepeatSafe(testInstance *testing.T) {
	workingCopyPath := testInstance.TempDir()
	workflowsRoot := filepath.Join(workingCopyPath, testWorkflowsSubdirectoryConstant)
	require.NoError(testInstance, os.MkdirAll(workflowsRoot, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(workflowsRoot, testWorkflowFileNameConstant), []byte(testDeprecatedWorkflowContentConstant), 0o644))

	updater := migrate.NewWorkflowUpdater(zap.NewNop())

	firstOutcome, firstError := updater.UpdateWorkflows(workingCopyPath)
	require.NoError(testInstance, firstError)
	require.True(testInstance, firstOutcome.Updated())

	secondOutcome, secondError := updater.UpdateWorkflows(workingCopyPath)
	require.NoError(testInstance, secondError)
	require.False(testInstance, secondOutcome.Updated())
}
