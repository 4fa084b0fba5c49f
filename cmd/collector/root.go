package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"neypot.backend/internal/collector"
	"neypot.backend/pkg/logger"
)

// TokenEnv is read when --token is not given.
const TokenEnv = "NEYPOT_TOKEN"

var signalContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newRootCmd() *cobra.Command {
	var jsonLogs bool

	cmd := &cobra.Command{
		Use:     "collector",
		Short:   "Forward honeypot logs to a NeyPot ingest endpoint",
		Version: collector.Version,
		Long: `collector tails honeypot service logs (nginx/apache, sshd/cowrie,
vsftpd/proftpd, mysql), turns matching lines into events and posts them to
the NeyPot ingest endpoint with an ingest token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if jsonLogs {
				logger.Init("production")
			} else {
				logger.Init("development")
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	cmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Log as JSON instead of console output")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newTestCmd())

	return cmd
}

// connectionFlags are shared by run and test.
type connectionFlags struct {
	token    string
	endpoint string
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.token, "token", "t", "", "Ingest token (default $"+TokenEnv+")")
	cmd.Flags().StringVarP(&f.endpoint, "endpoint", "e", collector.DefaultEndpoint, "Ingest endpoint URL")
}

func (f *connectionFlags) apply(cfg *collector.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("token") || cfg.Token == "" {
		cfg.Token = f.token
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv(TokenEnv)
	}
	if cmd.Flags().Changed("endpoint") || cfg.Endpoint == "" {
		cfg.Endpoint = f.endpoint
	}
}

func newRunCmd() *cobra.Command {
	var (
		conn       connectionFlags
		configPath string
		service    string
		logPath    string
		noFollow   bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tail logs and forward events",
		Example: `  collector run --config /etc/neypot/collector.yaml
  collector run --token $TOKEN --service http --log /var/log/nginx/access.log
  collector run --token $TOKEN --service ssh --log /var/log/auth.log --no-follow --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := collector.DefaultConfig()
			if configPath != "" {
				loaded, err := collector.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			conn.apply(cfg, cmd)
			if dryRun {
				cfg.DryRun = true
			}

			if service != "" || logPath != "" {
				if service == "" || logPath == "" {
					return fmt.Errorf("--service and --log must be given together")
				}
				follow := !noFollow
				cfg.Sources = append(cfg.Sources, collector.Source{Service: service, Path: logPath, Follow: &follow})
			}
			if cfg.DryRun && cfg.Token == "" {
				cfg.Token = "dry-run"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			c := collector.New(cfg, collector.NewSender(cfg))
			stats, err := c.Run(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Parsed %d events (%d lines skipped), sent %d, failed %d\n",
				stats.Parsed, stats.Skipped, stats.Sent, stats.Failed)
			return err
		},
	}

	conn.register(cmd)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&service, "service", "s", "", "Honeypot service: http, ssh, ftp or mysql")
	cmd.Flags().StringVarP(&logPath, "log", "l", "", "Log file to read")
	cmd.Flags().BoolVar(&noFollow, "no-follow", false, "Read the file once from the start and exit")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and score without sending")

	return cmd
}

func newTestCmd() *cobra.Command {
	var conn connectionFlags

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test event to check the token and endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := collector.DefaultConfig()
			conn.apply(cfg, cmd)
			if cfg.Token == "" {
				return fmt.Errorf("--token or $%s is required", TokenEnv)
			}

			reply, err := collector.TestConnection(cmd.Context(), collector.NewSender(cfg))
			if err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection OK: event %s stored (risk %d)\n", reply.EventID, reply.RiskScore)
			return nil
		},
	}

	conn.register(cmd)

	return cmd
}
