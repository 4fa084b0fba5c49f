package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"neypot.backend/internal/domain/entities"
	"neypot.backend/pkg/crypto"
)

const timeLayout = "2006-01-02 15:04 MST"

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "token",
		Aliases: []string{"tokens"},
		Short:   "Manage ingest tokens",
		Long:    "Create, list, revoke, rotate and delete the tokens honeypot sensors send in X-API-TOKEN.",
	}

	cmd.AddCommand(newTokenCreateCmd())
	cmd.AddCommand(newTokenListCmd())
	cmd.AddCommand(newTokenRevokeCmd())
	cmd.AddCommand(newTokenRotateCmd())
	cmd.AddCommand(newTokenDeleteCmd())
	cmd.AddCommand(newTokenHashCmd())

	return cmd
}

func newTokenCreateCmd() *cobra.Command {
	var (
		tenantID  string
		name      string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new ingest token",
		Long:  "Issue a token for a tenant. The raw token is shown once and cannot be retrieved again.",
		Example: `  neypotctl token create --tenant-id 0190f5d2-... --name edge-sensor
  neypotctl token create --tenant-id 0190f5d2-... --name temp --expires-in 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid --tenant-id: %w", err)
			}
			input := &entities.CreateApiTokenInput{TenantID: id, Name: name}
			if expiresIn > 0 {
				at := time.Now().UTC().Add(expiresIn)
				input.ExpiresAt = &at
			}

			return withStack(func(ctx context.Context, s *stack) error {
				issued, err := s.tokens.Create(ctx, cliActor, input)
				if err != nil {
					return fmt.Errorf("create token: %w", err)
				}
				printIssued(cmd, issued)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "Tenant the token belongs to (required)")
	cmd.Flags().StringVar(&name, "name", "", "Human-readable token name (required)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Hard expiry relative to now, e.g. 720h (default: never)")
	_ = cmd.MarkFlagRequired("tenant-id")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func printIssued(cmd *cobra.Command, issued *entities.IssuedApiToken) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Ingest token created:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Token:  %s\n", issued.RawToken)
	fmt.Fprintf(out, "  ID:     %s\n", issued.ApiToken.ID)
	fmt.Fprintf(out, "  Name:   %s\n", issued.ApiToken.Name)
	fmt.Fprintf(out, "  Tenant: %s\n", issued.ApiToken.TenantID)
	if issued.ApiToken.ExpiresAt != nil {
		fmt.Fprintf(out, "  Expiry: %s\n", issued.ApiToken.ExpiresAt.Format(timeLayout))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Save this token now - it cannot be retrieved again.")
}

func newTokenListCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List ingest tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *uuid.UUID
			if tenantID != "" {
				id, err := uuid.Parse(tenantID)
				if err != nil {
					return fmt.Errorf("invalid --tenant-id: %w", err)
				}
				filter = &id
			}

			return withStack(func(ctx context.Context, s *stack) error {
				tokens, err := s.tokens.List(ctx, filter)
				if err != nil {
					return fmt.Errorf("list tokens: %w", err)
				}
				if len(tokens) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tokens. Use 'neypotctl token create' to issue one.")
					return nil
				}

				now := time.Now()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTENANT\tNAME\tPREVIEW\tSTATE\tLAST USED")
				for _, t := range tokens {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						t.ID, t.TenantID, t.Name, t.TokenPreview, t.State(now), formatOptionalTime(t.LastUsedAt))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "Only list tokens of this tenant")

	return cmd
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(timeLayout)
}

func newTokenRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a token immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid token id: %w", err)
			}
			return withStack(func(ctx context.Context, s *stack) error {
				token, err := s.tokens.Revoke(ctx, cliActor, id)
				if err != nil {
					return fmt.Errorf("revoke token: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked token %s (%s)\n", token.ID, token.TokenPreview)
				return nil
			})
		},
	}
}

func newTokenRotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <id>",
		Short: "Issue a replacement and open a grace window on the old token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid token id: %w", err)
			}
			return withStack(func(ctx context.Context, s *stack) error {
				result, err := s.tokens.Rotate(ctx, cliActor, id)
				if err != nil {
					return fmt.Errorf("rotate token: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Token %s accepted until %s\n",
					result.Previous.ID, formatOptionalTime(result.Previous.GracePeriodUntil))
				printIssued(cmd, result.Replacement)
				return nil
			})
		},
	}
}

func newTokenDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a token permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid token id: %w", err)
			}
			return withStack(func(ctx context.Context, s *stack) error {
				if err := s.tokens.Delete(ctx, cliActor, id); err != nil {
					return fmt.Errorf("delete token: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted token %s\n", id)
				return nil
			})
		},
	}
}

// token hash prints the stored lookup hash, for seeding or checking rows by hand.
func newTokenHashCmd() *cobra.Command {
	var legacy bool

	cmd := &cobra.Command{
		Use:   "hash <raw-token>",
		Short: "Print the stored hash of a raw token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if legacy {
				fmt.Fprintln(cmd.OutOrStdout(), crypto.LegacyHasher{}.Hash(args[0]))
				return nil
			}
			hasher, err := crypto.NewKeyedHasher(loadConfig().Token.HashKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hasher.Hash(args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the pre-migration 32-bit hash")

	return cmd
}
