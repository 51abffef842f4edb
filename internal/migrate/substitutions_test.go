package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/codeqlup/internal/migrate"
)

const (
	testDeprecatedInitCaseNameConstant      = "deprecated_init_reference"
	testDeprecatedAnalyzeCaseNameConstant   = "deprecated_analyze_reference"
	testDeprecatedAutobuildCaseNameConstant = "deprecated_autobuild_reference"
	testNewerReferenceCaseNameConstant      = "newer_reference_untouched"
	testAlreadyUpgradedCaseNameConstant     = "already_upgraded_untouched"
	testUnrelatedContentCaseNameConstant    = "unrelated_content_untouched"
)

func TestApplyActionUpdates(testInstance *testing.T) {
	testCases := []struct {
		name            string
		inputContent    string
		expectedContent string
	}{
		{
			name:            testDeprecatedInitCaseNameConstant,
			inputContent:    "      - uses: github/codeql-action/init@v2\n",
			expectedContent: "      - uses: github/codeql-action/init@v3\n",
		},
		{
			name:            testDeprecatedAnalyzeCaseNameConstant,
			inputContent:    "      - uses: github/codeql-action/analyze@v2\n",
			expectedContent: "      - uses: github/codeql-action/analyze@v3\n",
		},
		{
			name:            testDeprecatedAutobuildCaseNameConstant,
			inputContent:    "      - uses: github/codeql-action/autobuild@v2\n",
			expectedContent: "      - uses: github/codeql-action/autobuild@v3\n",
		},
		{
			name:            testNewerReferenceCaseNameConstant,
			inputContent:    "      - uses: github/codeql-action/init@v4\n",
			expectedContent: "      - uses: github/codeql-action/init@v4\n",
		},
		{
			name:            testAlreadyUpgradedCaseNameConstant,
			inputContent:    "      - uses: github/codeql-action/init@v3\n",
			expectedContent: "      - uses: github/codeql-action/init@v3\n",
		},
		{
			name:            testUnrelatedContentCaseNameConstant,
			inputContent:    "      - uses: actions/checkout@v4\n",
			expectedContent: "      - uses: actions/checkout@v4\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedContent, migrate.ApplyActionUpdates(testCase.inputContent))
		})
	}
}

func TestApplyActionUpdatesIsIdempotent(testInstance *testing.T) {
	originalContent := "jobs:\n  analyze:\n    steps:\n      - uses: github/codeql-action/init@v2\n      - uses: github/codeql-action/analyze@v2\n"

	updatedOnce := migrate.ApplyActionUpdates(originalContent)
	updatedTwice := migrate.ApplyActionUpdates(updatedOnce)

	require.Equal(testInstance, updatedOnce, updatedTwice)
	require.NotContains(testInstance, updatedOnce, "@v2")
	require.Contains(testInstance, updatedOnce, "@v3")
}
