package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/skincare-planner/internal/lib/jwt"
)

// tokenCmd выпускает токен для локальной разработки. В бою токены выпускает внешний сервис
// авторизации с тем же секретом.
func tokenCmd() *cobra.Command {
	var userID int64
	var role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if role != jwt.RoleUser && role != jwt.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User id")
	cmd.Flags().StringVar(&role, "role", jwt.RoleUser, "Role: user or admin")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
