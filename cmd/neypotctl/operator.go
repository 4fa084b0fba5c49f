package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"neypot.backend/internal/interfaces/http/middleware"
	"neypot.backend/pkg/jwt"
)

func newOperatorTokenCmd() *cobra.Command {
	var (
		email      string
		role       string
		ttl        time.Duration
		operatorID string
	)

	cmd := &cobra.Command{
		Use:   "operator-token",
		Short: "Mint a bearer JWT for the operator API",
		Example: `  neypotctl operator-token --email ops@example.com --role admin --ttl 8h
  curl -H "Authorization: Bearer $(neypotctl operator-token --email ops@example.com --role operator)" ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != middleware.RoleAdmin && role != middleware.RoleOperator {
				return fmt.Errorf("--role must be %q or %q", middleware.RoleAdmin, middleware.RoleOperator)
			}

			id := uuid.New()
			if operatorID != "" {
				parsed, err := uuid.Parse(operatorID)
				if err != nil {
					return fmt.Errorf("invalid --operator-id: %w", err)
				}
				id = parsed
			}

			cfg := loadConfig()
			service := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry)
			token, expiresAt, err := service.GenerateToken(id, email, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Operator email recorded in audit logs (required)")
	cmd.Flags().StringVar(&role, "role", middleware.RoleOperator, "admin or operator")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: JWT_EXPIRY)")
	cmd.Flags().StringVar(&operatorID, "operator-id", "", "Stable operator id (default: random)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
