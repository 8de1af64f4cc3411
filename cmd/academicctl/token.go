package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/khoahotran/academic-records/pkg/auth"
)

func newTokenCmd(cli *cliContext) *cobra.Command {
	var userID string

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userID, err)
			}
			if cli.cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			jwtSvc := auth.NewJWTService(cli.cfg.Auth.JWTSecret, cli.cfg.Auth.TokenLifespan, cli.cfg.Auth.Issuer)
			token, err := jwtSvc.GenerateToken(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&userID, "user", "", "user id (UUID) the token is issued for")
	_ = tokenCmd.MarkFlagRequired("user")

	return tokenCmd
}
