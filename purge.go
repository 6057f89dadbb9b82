package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/isdelr/tasker-be/internal/database"
	"github.com/isdelr/tasker-be/internal/scheduler"
	"github.com/isdelr/tasker-be/internal/store"
)

// NewPurgeSessionsCmd creates the purge-sessions subcommand.
func NewPurgeSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired sessions once",
		Long:  `Delete every expired session row and exit. The serve command does this on a schedule.`,
		RunE:  runPurgeSessions,
	}
}

func runPurgeSessions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	ctx := cmd.Context()
	pool, err := database.Connect(ctx, dbOptions(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	purger, err := scheduler.New(cfg.SessionPurgeSchedule, store.NewSessionStore(pool, cfg.SessionTTL))
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("schedule", cfg.SessionPurgeSchedule).Wrap(err)
	}
	n, err := purger.PurgeNow(ctx)
	if err != nil {
		return oops.Code("PURGE_FAILED").Wrap(err)
	}
	cmd.Printf("Purged %d expired sessions\n", n)
	return nil
}
