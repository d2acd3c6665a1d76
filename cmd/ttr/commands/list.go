package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tasktaskrevolution/ttr/internal/engine"
)

var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List entities of one kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engine.Open(resolveRoot(), logger())
		if err != nil {
			return err
		}
		switch args[0] {
		case "company", "companies":
			all, err := eng.Store().Companies().FindAll()
			if err != nil {
				return err
			}
			sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
			for _, c := range all {
				fmt.Printf("%-12s %-30s %s\n", c.Code, c.Name, c.Status)
			}
		case "project", "projects":
			all, err := eng.Store().Projects().FindAll()
			if err != nil {
				return err
			}
			sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
			for _, p := range all {
				fmt.Printf("%-12s %-30s %-12s %d task(s)\n", p.Code, p.Name, p.Status, len(p.Tasks))
			}
		case "resource", "resources":
			all, err := eng.Store().Resources().FindAll()
			if err != nil {
				return err
			}
			sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
			for _, r := range all {
				fmt.Printf("%-12s %-30s %-10s %s\n", r.Code, r.Name, r.Type, r.State)
			}
		default:
			return fmt.Errorf("unknown kind %q", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
