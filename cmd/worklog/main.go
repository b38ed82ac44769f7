package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/rpggio/worklog/internal/config"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	userID     string

	cfg    config.Config
	logger *slog.Logger
	close  func()
}

func newRootCmd() *cobra.Command {
	c := &cli{close: func() {}}

	root := &cobra.Command{
		Use:           "worklog",
		Short:         "Work log, task board and daily reports for project managers",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.configPath != "" {
				os.Setenv("WORKLOG_CONFIG_PATH", c.configPath)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			c.cfg = cfg
			c.logger, c.close = newLogger(cfg.Log)
			if c.userID == "" {
				c.userID = cfg.Auth.DefaultUser
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.userID, "user", "", "user to act as (default: auth.default_user)")

	root.AddCommand(
		serveCmd(c),
		stdioCmd(c),
		syncCmd(c),
		classifyCmd(c),
		reportCmd(c),
		embedCmd(c),
		apikeyCmd(c),
	)
	return root
}

// withApp opens the database, runs fn and closes everything again.
func (c *cli) withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
