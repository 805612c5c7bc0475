package common

import (
	"fmt"
	"slices"

	"talentsparkle/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateJobStatus accepts an empty filter or one of the job statuses
func ValidateJobStatus(status string) error {
	if status == "" || types.JobStatus(status).IsValid() {
		return nil
	}
	return fmt.Errorf("unknown job status '%s'. Use one of: %s, %s, %s",
		status, types.JobOpen, types.JobPaused, types.JobClosed)
}
