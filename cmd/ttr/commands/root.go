package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	storeRoot string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "ttr",
	Short: "File-backed project and resource planning engine",
	Long: `TTR is a declarative workload manager: companies, projects, tasks and
resources live as YAML manifests in a local directory tree, and schedules are
computed from the task dependency graph.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&storeRoot, "store", ".", "store root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
}

func initConfig() {
	viper.SetEnvPrefix("TTR")
	viper.AutomaticEnv()
}

// logger builds the CLI logger from the verbosity flag.
func logger() *zap.Logger {
	if verbose {
		log, err := zap.NewDevelopment()
		if err == nil {
			return log
		}
	}
	return zap.NewNop()
}

// resolveRoot honours the flag, then the TTR_STORE env binding.
func resolveRoot() string {
	if storeRoot != "." && storeRoot != "" {
		return storeRoot
	}
	if fromEnv := viper.GetString("store"); fromEnv != "" {
		return fromEnv
	}
	return "."
}
