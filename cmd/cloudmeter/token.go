package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudmeter/cloudmeter/bootstrap"
	"github.com/cloudmeter/cloudmeter/config"
)

var tokenUser string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API auth tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint a new API auth token",
	Long: `Mint an API auth token for a user. The secret is printed once and
cannot be recovered later; only a hash is stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		a, err := bootstrap.New(cfg)
		if err != nil {
			return fmt.Errorf("error initializing: %w", err)
		}
		defer a.Close()

		t, secret, err := a.Tokens.Mint(context.Background(), tokenUser)
		if err != nil {
			return err
		}

		fmt.Printf("token id: %s\n", t.ID)
		fmt.Printf("secret:   %s\n", secret)
		fmt.Println("Store the secret now; it will not be shown again.")
		return nil
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token-id>",
	Short: "Revoke an API auth token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		a, err := bootstrap.New(cfg)
		if err != nil {
			return fmt.Errorf("error initializing: %w", err)
		}
		defer a.Close()

		if err := a.Tokens.Revoke(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("token revoked")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)

	tokenCreateCmd.Flags().StringVar(&tokenUser, "user", "", "user ID (required)")
	tokenCreateCmd.MarkFlagRequired("user")
}
