package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cloudmeter",
	Short: "Cloud instance usage accounting from power-state events",
	Long: `cloudmeter tracks cloud compute instances through sparse power-on /
power-off events and converts them into usage reports: per-day running
seconds attributed to image tags, and per-account rollups of distinct
instances and images seen.

Quick start:
  cloudmeter serve            # Start the report API server

Reports:
  cloudmeter report daily     # Daily tag-attributed usage for a user
  cloudmeter report accounts  # Per-account overviews for a user

Management:
  cloudmeter token create     # Mint an API auth token`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "cloudmeter.yaml", "config file path")
}
