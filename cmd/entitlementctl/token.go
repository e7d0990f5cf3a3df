package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/course-entitlement/internal/lib/jwt"
	"github.com/magabrotheeeer/course-entitlement/internal/models"
)

// cmdToken выпускает токен для ручной проверки API.
func cmdToken(opts *options) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with the service secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch models.Role(role) {
			case models.RoleStudent, models.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.JWTSecretKey == "" {
				return fmt.Errorf("jwt_secret_key is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}

			token, err := jwt.NewJWTMaker(cfg.JWTSecretKey, ttl).GenerateToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed into sub")
	cmd.Flags().StringVar(&role, "role", string(models.RoleStudent), "student or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to jwttoken.token_ttl")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
