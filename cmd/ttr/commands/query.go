package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktaskrevolution/ttr/internal/engine"
	"github.com/tasktaskrevolution/ttr/internal/query"
)

var (
	querySortField string
	querySortDesc  bool
	queryOffset    int
	queryLimit     int
	queryAggregate string
	queryAggField  string
)

var queryCmd = &cobra.Command{
	Use:   "query <kind> <query-string>",
	Short: "Run a structured query over an entity kind",
	Long: `Run a filter expression over companies, projects, tasks or resources.

Example:
  ttr query task "status = 'InProgress' AND priority = 'High'"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engine.Open(resolveRoot(), logger())
		if err != nil {
			return err
		}

		opts := query.DefaultOptions()
		opts.Offset = queryOffset
		if queryLimit > 0 {
			opts.Limit = queryLimit
		}
		if querySortField != "" {
			opts.Sort = &query.SortOption{Field: querySortField, Descending: querySortDesc}
		}
		if queryAggregate != "" {
			agg, err := parseAggregation(queryAggregate, queryAggField)
			if err != nil {
				return err
			}
			opts.Aggregation = agg
		}

		res, err := eng.Query(args[0], args[1], opts)
		if err != nil {
			return err
		}

		for _, item := range res.Items {
			code, _ := item.Field("code")
			name, _ := item.Field("name")
			fmt.Printf("%-12s %s\n", valueText(code), valueText(name))
		}
		fmt.Printf("%d of %d matched\n", res.FilterCount, res.TotalCount)
		if res.Aggregation != nil {
			fmt.Printf("%s(%s) = %g\n", res.Aggregation.Kind, res.Aggregation.Field, res.Aggregation.Value)
		}
		return nil
	},
}

func parseAggregation(kind, field string) (*query.Aggregation, error) {
	switch kind {
	case "count":
		return &query.Aggregation{Kind: query.AggCount}, nil
	case "sum":
		return &query.Aggregation{Kind: query.AggSum, Field: field}, nil
	case "avg":
		return &query.Aggregation{Kind: query.AggAvg, Field: field}, nil
	case "min":
		return &query.Aggregation{Kind: query.AggMin, Field: field}, nil
	case "max":
		return &query.Aggregation{Kind: query.AggMax, Field: field}, nil
	}
	return nil, fmt.Errorf("unknown aggregation %q", kind)
}

func valueText(v query.Value) string {
	switch v.Kind {
	case query.ValueString:
		return v.Str
	case query.ValueNumber:
		return fmt.Sprintf("%g", v.Num)
	case query.ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case query.ValueDate:
		return v.Date.String()
	}
	return ""
}

func init() {
	queryCmd.Flags().StringVar(&querySortField, "sort", "", "sort field")
	queryCmd.Flags().BoolVar(&querySortDesc, "desc", false, "sort descending")
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "pagination offset")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "pagination limit (0 = unlimited)")
	queryCmd.Flags().StringVar(&queryAggregate, "aggregate", "", "aggregation: count, sum, avg, min, max")
	queryCmd.Flags().StringVar(&queryAggField, "aggregate-field", "", "numeric field for sum/avg/min/max")
	rootCmd.AddCommand(queryCmd)
}
