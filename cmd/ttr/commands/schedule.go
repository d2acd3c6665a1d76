package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tasktaskrevolution/ttr/internal/engine"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <project-code>",
	Short: "Compute the schedule for a project's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engine.Open(resolveRoot(), logger())
		if err != nil {
			return err
		}
		results, err := eng.Schedule(args[0])
		if err != nil {
			return err
		}

		ordered := make([]string, 0, len(results))
		for code := range results {
			ordered = append(ordered, code)
		}
		sort.Slice(ordered, func(i, j int) bool {
			return results[ordered[i]].Order < results[ordered[j]].Order
		})

		for _, code := range ordered {
			r := results[code]
			marker := " "
			if r.Critical {
				marker = "*"
			}
			fmt.Printf("%s %-12s %s .. %s  float=%d free=%d\n",
				marker, code, r.Start, r.End, r.TotalFloat, r.FreeFloat)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
