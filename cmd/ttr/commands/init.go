package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktaskrevolution/ttr/internal/config"
	"github.com/tasktaskrevolution/ttr/internal/engine"
)

var initManager string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store layout and an initial config manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := resolveRoot()
		cfg := config.DefaultConfig()
		cfg.ManagerName = initManager
		if _, err := engine.Initialise(root, cfg, logger()); err != nil {
			return err
		}
		fmt.Printf("Initialised store at %s\n", root)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initManager, "manager", "", "manager name recorded in the config manifest")
	rootCmd.AddCommand(initCmd)
}
