package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wheels/migration"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or revert the Postgres schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Driver != "postgres" {
			return fmt.Errorf("migrations only apply to the postgres store, got %q", cfg.Store.Driver)
		}
		down := len(args) == 1 && args[0] == "down"
		return migration.Run(cfg.DB.URL(), cfg.Migrations.Path, down)
	},
}
