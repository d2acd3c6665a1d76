package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktaskrevolution/ttr/internal/migrate"
)

var (
	migrateDryRun bool
	migrateForce  bool
	migrateBackup bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert a legacy code-indexed tree to the id-indexed layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := migrate.Run(migrate.Options{
			Root:   resolveRoot(),
			DryRun: migrateDryRun,
			Force:  migrateForce,
			Backup: migrateBackup,
		}, logger())
		if err != nil {
			return err
		}
		for _, a := range summary.Actions {
			fmt.Printf("%-8s %s -> %s\n", a.Kind, a.Source, a.Target)
		}
		fmt.Println(summary.Describe())
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Restore the store from the pre-migration backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := migrate.Rollback(resolveRoot()); err != nil {
			return err
		}
		fmt.Println("Store restored from backup")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "plan only, no writes")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "overwrite an existing partially-migrated target")
	migrateCmd.Flags().BoolVar(&migrateBackup, "backup", false, "copy the tree aside before migrating")
	migrateCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(migrateCmd)
}
