package migrate

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	invalidYAMLIssueConstant            = "invalid YAML content"
	missingJobsIssueConstant            = "missing top-level jobs section"
	missingLanguagesIssueTemplate       = "job %q: CodeQL init step missing languages option"
	codeqlInitStepPrefixConstant        = "github/codeql-action/init@"
	usesDirectivePrefixConstant         = "uses:"
	languagesOptionKeyConstant          = "languages"
)

type workflowDocument struct {
	Jobs map[string]workflowJob `yaml:"jobs"`
}

type workflowJob struct {
	Steps []workflowStep `yaml:"steps"`
}

type workflowStep struct {
	Uses string         `yaml:"uses"`
	With map[string]any `yaml:"with"`
}

// WorkflowValidator performs advisory structural checks on workflow files.
// Reported issues never block the upgrade pipeline; the original automation
// was permissive here and that behavior is preserved deliberately.
type WorkflowValidator struct{}

// NewWorkflowValidator constructs a WorkflowValidator.
func NewWorkflowValidator() *WorkflowValidator {
	return &WorkflowValidator{}
}

// Validate parses workflow content and reports structural issues. Parsing
// failures fail closed with a single issue instead of an error.
func (validator *WorkflowValidator) Validate(workflowContent []byte) (bool, []string) {
	var document workflowDocument
	if unmarshalError := yaml.Unmarshal(workflowContent, &document); unmarshalError != nil {
		return false, []string{invalidYAMLIssueConstant}
	}

	if len(document.Jobs) == 0 {
		return false, []string{missingJobsIssueConstant}
	}

	var issues []string
	for jobName, jobDefinition := range document.Jobs {
		for _, jobStep := range jobDefinition.Steps {
			if !isCodeQLInitStep(jobStep.Uses) {
				continue
			}
			if _, languagesDeclared := jobStep.With[languagesOptionKeyConstant]; !languagesDeclared {
				issues = append(issues, fmt.Sprintf(missingLanguagesIssueTemplate, jobName))
			}
		}
	}

	return len(issues) == 0, issues
}

func isCodeQLInitStep(usesReference string) bool {
	trimmedReference := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(usesReference), usesDirectivePrefixConstant))
	return strings.HasPrefix(trimmedReference, codeqlInitStepPrefixConstant)
}
