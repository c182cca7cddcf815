package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configDir    string
	userConfigs  []string
	plainLogging bool

	rootCmd = &cobra.Command{
		Use:   "splash-scheduler",
		Short: "Run graph computations under a parallel splash scheduler",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "configDir", "./config", "directory to search for config.yaml")
	rootCmd.PersistentFlags().StringArrayVar(&userConfigs, "config", nil, "additional config files to merge in, applied in order")
	rootCmd.PersistentFlags().BoolVar(&plainLogging, "plainLogging", false, "disable coloured, timestamped log output")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
