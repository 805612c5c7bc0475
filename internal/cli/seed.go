package cli

import (
	"context"
	"fmt"
	"time"

	"talentsparkle/internal/common"
	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/seed"
	"talentsparkle/internal/store"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the sample jobs and candidates to the store",
	Long: `Write the sample jobs and generated candidates to the configured store.
Collections that already hold data are left alone unless --reset is given,
which replaces everything (interviews, campus drives and the activity log
included) with a fresh copy of the sample data.`,
	RunE: runSeed,
}

var seedReset bool

func init() {
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "Replace all stored data with the sample data")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	data, err := seed.Load()
	if err != nil {
		return err
	}

	st, err := openSeededStore(ctx, cfg, data, logger)
	if err != nil {
		return err
	}
	defer closeWithLog(st.Close, logger)

	if seedReset {
		if err := st.Replace(ctx, common.SeedSnapshot(data, cfg.Store, time.Now())); err != nil {
			return err
		}
		logger.Info("Store reset to sample data", "backend", cfg.Store.Backend)
	}

	snap := st.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "%s store holds %d jobs, %d candidates, %d interviews, %d campus drives, %d activities\n",
		cfg.Store.Backend, len(snap.Jobs), len(snap.Candidates), len(snap.Interviews),
		len(snap.CampusDrives), len(snap.Activities))
	return nil
}

// openSeededStore opens the store with seeding forced on, so any collection
// never written before is filled from the sample data and persisted.
func openSeededStore(ctx context.Context, cfg *config.Config, data *seed.Data, logger *errors.Logger) (*store.Store, error) {
	seeded := *cfg
	seeded.Store.Seed = true
	return common.OpenStore(ctx, &seeded, data, common.Hooks{}, logger)
}
