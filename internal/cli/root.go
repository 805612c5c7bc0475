package cli

import (
	"context"

	"talentsparkle/internal/common"
	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "talentsparkle",
	Short: "AI recruiting assistant for campus hiring",
	Long: `TalentSparkle keeps the jobs, candidates, interviews and campus drives of a
recruiting team and lets recruiters drive them through a chat assistant.
It serves a REST API and offers the same chat and store operations from
the command line.`,
	SilenceUsage: true,
}

// Execute attaches cfg and logger to ctx and runs the selected subcommand
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// resolveFormat fills in the configured default format and checks it is supported
func resolveFormat(cmd *cobra.Command, format *string) error {
	cfg := getConfigFromContext(cmd.Context())
	if *format == "" {
		*format = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(*format, cfg.App.SupportedFormats)
}

func registerFormatCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(versionCmd)
}
