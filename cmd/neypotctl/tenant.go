package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"neypot.backend/internal/domain/entities"
)

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	cmd.AddCommand(newTenantCreateCmd())
	cmd.AddCommand(newTenantListCmd())

	return cmd
}

func newTenantCreateCmd() *cobra.Command {
	var (
		name          string
		retentionDays int
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a tenant",
		Example: `  neypotctl tenant create --name acme --retention-days 90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(func(ctx context.Context, s *stack) error {
				tenant, err := s.tenants.Create(ctx, cliActor, &entities.CreateTenantInput{
					Name:          name,
					RetentionDays: retentionDays,
				})
				if err != nil {
					return fmt.Errorf("create tenant: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tenant created: %s (%s, retention %d days)\n", tenant.ID, tenant.Name, tenant.RetentionDays)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Tenant name (required)")
	cmd.Flags().IntVar(&retentionDays, "retention-days", entities.DefaultRetentionDays, "Days to keep events")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTenantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(func(ctx context.Context, s *stack) error {
				tenants, err := s.tenants.List(ctx)
				if err != nil {
					return fmt.Errorf("list tenants: %w", err)
				}
				if len(tenants) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tenants. Use 'neypotctl tenant create' to add one.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tRETENTION\tACTIVE")
				for _, t := range tenants {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.ID, t.Name, t.RetentionDays, yesNo(t.IsActive))
				}
				return w.Flush()
			})
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
