package common

import (
	"context"
	"time"

	"talentsparkle/internal/config"
	"talentsparkle/internal/dispatch"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/notify"
	"talentsparkle/internal/seed"
	"talentsparkle/internal/store"
)

// Hooks receives store and dispatch events, usually for metrics
type Hooks struct {
	OnMutation func(operation string)
	OnDispatch func(action, result string)
}

// SeedSnapshot returns the sample jobs and generated candidates
func SeedSnapshot(data *seed.Data, cfg config.StoreConfig, now time.Time) store.Snapshot {
	return store.Snapshot{
		Jobs:       data.Jobs,
		Candidates: seed.GenerateCandidates(seed.DefaultCandidateCount, data.JobIDs(), cfg.SeedValue, now),
	}
}

// OpenStore opens the configured persister and loads the store from it.
// With store.seed enabled, collections that were never saved start from
// the sample data.
func OpenStore(ctx context.Context, cfg *config.Config, data *seed.Data, hooks Hooks, logger *errors.Logger) (*store.Store, error) {
	p, err := store.NewPersister(ctx, cfg.Store)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreLoad, "failed to open store backend", err).
			WithContext("backend", cfg.Store.Backend)
	}

	opts := store.Options{
		Keys:       store.KeysWithPrefix(cfg.Store.KeyPrefix),
		Logger:     logger,
		OnMutation: hooks.OnMutation,
	}
	if cfg.Store.Seed {
		opts.Seed = func() store.Snapshot {
			return SeedSnapshot(data, cfg.Store, time.Now())
		}
	}

	s, err := store.New(ctx, p, opts)
	if err != nil {
		if cerr := p.Close(); cerr != nil {
			logger.Warn("Failed to close store backend", "error", cerr)
		}
		return nil, err
	}

	logger.Info("Store ready", "backend", cfg.Store.Backend, "key_prefix", cfg.Store.KeyPrefix)
	return s, nil
}

// NewDispatcher wires a dispatcher to s with the configured mailer and the
// sample universities and templates.
func NewDispatcher(ctx context.Context, cfg *config.Config, s *store.Store, data *seed.Data, hooks Hooks, logger *errors.Logger) (*dispatch.Dispatcher, error) {
	mailer, err := notify.NewMailer(ctx, cfg.Mail, logger)
	if err != nil {
		return nil, err
	}

	return dispatch.New(s, dispatch.Options{
		Config:       cfg.Dispatch,
		Universities: data.Universities,
		Templates:    data.Templates,
		Mailer:       mailer,
		Logger:       logger,
		OnDispatch:   hooks.OnDispatch,
	}), nil
}
