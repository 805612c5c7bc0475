package cli

import (
	"talentsparkle/internal/common"
	"talentsparkle/internal/seed"
	"talentsparkle/internal/types"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List job postings",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := common.ValidateJobStatus(jobsStatus); err != nil {
			return err
		}
		return resolveFormat(cmd, &jobsConfig.OutputFormat)
	},
	RunE: runJobs,
}

var (
	jobsConfig common.CommandConfig
	jobsStatus string
)

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "Only show jobs with this status: open, paused, closed")
	jobsCmd.Flags().StringVarP(&jobsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	jobsCmd.Flags().StringVar(&jobsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	registerFormatCompletion(jobsCmd)

	_ = jobsCmd.RegisterFlagCompletionFunc("status", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(types.JobOpen), string(types.JobPaused), string(types.JobClosed)}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	data, err := seed.Load()
	if err != nil {
		return err
	}
	st, err := common.OpenStore(ctx, cfg, data, common.Hooks{}, logger)
	if err != nil {
		return err
	}
	defer closeWithLog(st.Close, logger)

	return common.NewOutputHandler(logger).HandleOutput(filterJobs(st.Jobs(), types.JobStatus(jobsStatus)), jobsConfig)
}

// filterJobs keeps jobs with the given status; an empty status keeps all
func filterJobs(jobs []types.Job, status types.JobStatus) []types.Job {
	if status == "" {
		return jobs
	}
	out := make([]types.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	return out
}
