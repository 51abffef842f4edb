package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	reportFileNameTemplateConstant   = "codeqlup_report_%s.json"
	reportTimestampLayoutConstant    = "20060102_150405"
	reportTimestampFieldLayoutConstant = time.RFC3339
	reportFilePermissionsConstant    = 0o644
	reportEncodeErrorTemplateConstant = "unable to encode run report: %w"
	reportWriteErrorTemplateConstant  = "unable to write run report: %w"
)

// RunReport is the JSON document emitted when reporting is enabled.
type RunReport struct {
	Timestamp         string              `json:"timestamp"`
	TotalRepositories int                 `json:"total_repositories"`
	SuccessCount      int                 `json:"success_count"`
	FailureCount      int                 `json:"failure_count"`
	Results           []RepositoryOutcome `json:"results"`
}

// ReportWriter serializes run summaries into timestamped JSON files.
type ReportWriter struct {
	clock           Clock
	outputDirectory string
}

// NewReportWriter constructs a ReportWriter targeting outputDirectory.
func NewReportWriter(clock Clock, outputDirectory string) *ReportWriter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportWriter{clock: clock, outputDirectory: outputDirectory}
}

// Write emits the report file and returns its path.
func (writer *ReportWriter) Write(summary RunSummary) (string, error) {
	reportTime := writer.clock.Now()

	runReport := RunReport{
		Timestamp:         reportTime.Format(reportTimestampFieldLayoutConstant),
		TotalRepositories: len(summary.Outcomes),
		SuccessCount:      summary.SuccessCount,
		FailureCount:      summary.FailureCount,
		Results:           summary.Outcomes,
	}

	encodedReport, encodeError := json.MarshalIndent(runReport, "", "  ")
	if encodeError != nil {
		return "", fmt.Errorf(reportEncodeErrorTemplateConstant, encodeError)
	}

	reportFileName := fmt.Sprintf(reportFileNameTemplateConstant, reportTime.Format(reportTimestampLayoutConstant))
	reportFilePath := filepath.Join(writer.outputDirectory, reportFileName)

	if writeError := os.WriteFile(reportFilePath, encodedReport, reportFilePermissionsConstant); writeError != nil {
		return "", fmt.Errorf(reportWriteErrorTemplateConstant, writeError)
	}

	return reportFilePath, nil
}
