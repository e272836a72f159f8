package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudmeter/cloudmeter/app"
	"github.com/cloudmeter/cloudmeter/bootstrap"
	"github.com/cloudmeter/cloudmeter/config"
	"github.com/cloudmeter/cloudmeter/domain/report"
)

var (
	reportUser        string
	reportStart       string
	reportEnd         string
	reportAccount     string
	reportNamePattern string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute usage reports against the configured database",
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily tag-attributed usage for a user",
	Long: `Compute per-day running seconds and distinct-instance counts for a
user's instances, attributed to recognized image tags.

Examples:
  cloudmeter report daily --user u1 --start 2018-01-01T00:00:00Z --end 2018-02-01T00:00:00Z
  cloudmeter report daily --user u1 --account acct-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *bootstrap.App, w report.Window) error {
			result, err := a.Reports.DailyUsage(ctx, reportUser, w, app.ReportOptions{
				AccountID:   reportAccount,
				NamePattern: reportNamePattern,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var reportAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Per-account overviews for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *bootstrap.App, w report.Window) error {
			overviews, err := a.Reports.AccountOverviews(ctx, reportUser, w, app.ReportOptions{
				AccountID:   reportAccount,
				NamePattern: reportNamePattern,
			})
			if err != nil {
				return err
			}
			return printJSON(overviews)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDailyCmd)
	reportCmd.AddCommand(reportAccountsCmd)

	for _, cmd := range []*cobra.Command{reportDailyCmd, reportAccountsCmd} {
		cmd.Flags().StringVar(&reportUser, "user", "", "user ID (required)")
		cmd.Flags().StringVar(&reportStart, "start", "", "window start (RFC3339, default: start of current UTC month)")
		cmd.Flags().StringVar(&reportEnd, "end", "", "window end (RFC3339, default: now)")
		cmd.Flags().StringVar(&reportAccount, "account", "", "restrict to one account ID")
		cmd.Flags().StringVar(&reportNamePattern, "name-pattern", "", "filter accounts by name words")
		cmd.MarkFlagRequired("user")
	}
}

func withApp(fn func(context.Context, *bootstrap.App, report.Window) error) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer a.Close()

	w, err := parseReportWindow()
	if err != nil {
		return err
	}
	return fn(context.Background(), a, w)
}

func parseReportWindow() (report.Window, error) {
	now := time.Now().UTC()
	w := report.Window{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   now,
	}

	var err error
	if reportStart != "" {
		if w.Start, err = time.Parse(time.RFC3339, reportStart); err != nil {
			return report.Window{}, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if reportEnd != "" {
		if w.End, err = time.Parse(time.RFC3339, reportEnd); err != nil {
			return report.Window{}, fmt.Errorf("invalid --end: %w", err)
		}
	}
	return w, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
