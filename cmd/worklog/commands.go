package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/llm"
	"github.com/spf13/cobra"
)

func syncCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Backfill projects and tags from raw input and align states within each tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(ctx context.Context, a *app) error {
				res, err := a.services.Sync.Sync(ctx, c.userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}
}

func classifyCmd(c *cli) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Ask the model which unreviewed logs of the recent days are tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(ctx context.Context, a *app) error {
				if a.assist == nil {
					return llm.ErrNotConfigured
				}
				res, err := a.assist.ClassifyTasks(ctx, c.userID, dayOrToday(day, a))
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "last day to consider, YYYY-MM-DD (default today)")
	return cmd
}

func reportCmd(c *cli) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "report [date]",
		Short: "Generate the daily report of a day and print it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var day string
			if len(args) == 1 {
				day = args[0]
			}
			return c.withApp(func(ctx context.Context, a *app) error {
				day = dayOrToday(day, a)
				reports := a.services.Reports
				if show {
					rep, err := reports.Get(ctx, c.userID, day)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), rep.Content)
					return nil
				}
				rep, err := reports.Generate(ctx, c.userID, day)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rep.Content)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the stored report without regenerating it")
	return cmd
}

func embedCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed recent logs that have no embedding yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(ctx context.Context, a *app) error {
				if a.indexer == nil {
					return search.ErrNotConfigured
				}
				res, err := a.indexer.Backfill(ctx, c.userID, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", search.MaxBackfillLimit, "logs to embed in this run")
	return cmd
}

func apikeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}

	var description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for --user and print it once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(ctx context.Context, a *app) error {
				token, err := a.apiKeys.Create(ctx, c.userID, description)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	create.Flags().StringVar(&description, "description", "", "what the key is for")

	cmd.AddCommand(create)
	return cmd
}

func dayOrToday(day string, a *app) string {
	if day == "" {
		return worklog.Today(time.Now(), a.loc)
	}
	return day
}
