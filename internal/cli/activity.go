package cli

import (
	"fmt"

	"talentsparkle/internal/common"
	"talentsparkle/internal/seed"

	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Print the activity log, newest first",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if activityLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}
		return resolveFormat(cmd, &activityConfig.OutputFormat)
	},
	RunE: runActivity,
}

var (
	activityConfig common.CommandConfig
	activityLimit  int
)

func init() {
	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	activityCmd.Flags().StringVarP(&activityConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	activityCmd.Flags().StringVar(&activityConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	registerFormatCompletion(activityCmd)
}

func runActivity(cmd *cobra.Command, args []string) error {
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

	return common.NewOutputHandler(logger).HandleOutput(st.Activities(activityLimit), activityConfig)
}
