package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudmeter/cloudmeter/bootstrap"
	"github.com/cloudmeter/cloudmeter/config"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report API server",
	Long: `Start the cloudmeter API server.

The server will:
  - Load configuration from cloudmeter.yaml (or --config)
  - Connect to the database and run pending migrations
  - Serve usage reports and accept power-state events

Environment variables:
  CLOUDMETER_DATABASE_DSN  - Database path (default: cloudmeter.db)
  CLOUDMETER_SERVER_PORT   - Server port (default: 8080)
  CLOUDMETER_LOG_LEVEL     - Log level: debug, info, warn, error

Examples:
  cloudmeter serve
  cloudmeter serve --config /etc/cloudmeter/config.yaml
  cloudmeter serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var (
		app *bootstrap.App
		err error
	)

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		app, err = bootstrap.New(cfg)
	}
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
