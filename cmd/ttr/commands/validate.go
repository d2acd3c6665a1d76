package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktaskrevolution/ttr/internal/engine"
)

var validateCmd = &cobra.Command{
	Use:   "validate <project-code>",
	Short: "Check a scheduled project for conflicts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engine.Open(resolveRoot(), logger())
		if err != nil {
			return err
		}
		status, err := eng.Validate(args[0])
		if err != nil {
			return err
		}
		if status.Valid {
			fmt.Println("Valid: no conflicts")
			return nil
		}
		for _, c := range status.Conflicts {
			fmt.Printf("%s: %s\n", c.Kind, c.Message)
		}
		return fmt.Errorf("%d conflict(s) found", len(status.Conflicts))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
