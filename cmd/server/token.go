package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mikeolab/devops-real-app/internal/auth"
	"github.com/Mikeolab/devops-real-app/internal/config"
)

func newTokenCommand(configFile *string) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for reading leads",
		Long:  "Signs an HS256 token with JWT_SECRET so operators can call GET /leads.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := config.LoadFile(*configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET must be set to mint tokens")
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.Auth.TokenTTL
			}

			issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return err
			}
			token, err := issuer.Issue(subject, email)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&subject, "subject", "admin", "token subject")
	flags.StringVar(&email, "email", "", "email claim")
	flags.DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to AUTH_TOKEN_TTL; 0 never expires)")
	return cmd
}
