package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/isdelr/tasker-be/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending database migrations and exit.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
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

	cmd.Println("Running migrations...")
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}
