package migrate_test

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/codeqlup/internal/migrate"
)

type frozenClock struct {
	frozenTime time.Time
}

func (clock frozenClock) Now() time.Time {
	return clock.frozenTime
}

func TestReportWriterWritesTimestampedJSON(testInstance *testing.T) {
	outputDirectory := testInstance.TempDir()
	reportTime := time.Date(2026, time.August, 23, 14, 30, 0, 0, time.UTC)

	summary := migrate.RunSummary{
		Outcomes: []migrate.RepositoryOutcome{
			{
				Repository:     testServiceRepositoryConstant,
				Succeeded:      true,
				Actions:        []migrate.RepositoryAction{migrate.ActionClone, migrate.ActionWorkflowsUpdated, migrate.ActionPullRequestCreated},
				PullRequestURL: testServicePullRequestURLConstant,
			},
			{
				Repository: testServiceSecondRepositoryConstant,
				Errors:     []string{"clone failed"},
			},
		},
		SuccessCount: 1,
		FailureCount: 1,
	}

	reportWriter := migrate.NewReportWriter(frozenClock{frozenTime: reportTime}, outputDirectory)
	reportPath, writeError := reportWriter.Write(summary)
	require.NoError(testInstance, writeError)
	require.Contains(testInstance, reportPath, "codeqlup_report_20260823_143000.json")

	reportContents, readError := os.ReadFile(reportPath)
	require.NoError(testInstance, readError)

	var decodedReport migrate.RunReport
	require.NoError(testInstance, json.Unmarshal(reportContents, &decodedReport))
	require.Equal(testInstance, 2, decodedReport.TotalRepositories)
	require.Equal(testInstance, 1, decodedReport.SuccessCount)
	require.Equal(testInstance, 1, decodedReport.FailureCount)
	require.Len(testInstance, decodedReport.Results, 2)
	require.Equal(testInstance, testServicePullRequestURLConstant, decodedReport.Results[0].PullRequestURL)
	require.Equal(testInstance, reportTime.Format(time.RFC3339), decodedReport.Timestamp)
}
