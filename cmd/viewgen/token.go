package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewgen/internal/auth"
	"github.com/goliatone/go-viewgen/internal/config"
)

func newTokenCommand(root *rootOptions) *cobra.Command {
	var userID, email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			svc, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(userID, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the subject claim")
	cmd.Flags().StringVar(&email, "email", "", "optional email claim")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
