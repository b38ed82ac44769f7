package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/worklog/internal/mcp"
	"github.com/rpggio/worklog/internal/transport"
	"github.com/spf13/cobra"
)

func serveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over streamable HTTP plus the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Transport.Mode == "stdio" {
				return runStdio(c)
			}
			return runHTTP(c)
		},
	}
}

func stdioCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout for a local client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(c)
		},
	}
}

func (c *cli) mcpServer(a *app, mode string) *sdkmcp.Server {
	cfg := mcp.Config{
		Services:      a.services,
		Resolver:      a.apiKeys,
		AuthEnabled:   c.cfg.Auth.Enabled,
		DefaultUser:   c.userID,
		TransportMode: mode,
		Location:      a.loc,
		Logger:        c.logger,
	}
	return mcp.NewServer(cfg)
}

func runStdio(c *cli) error {
	return c.withApp(func(ctx context.Context, a *app) error {
		c.logger.Info("starting stdio transport", "auth", "disabled", "user", c.userID)
		err := c.mcpServer(a, "stdio").Run(ctx, &sdkmcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		c.logger.Info("shutting down")
		return nil
	})
}

func runHTTP(c *cli) error {
	return c.withApp(func(ctx context.Context, a *app) error {
		server := c.mcpServer(a, "http")
		mcpHandler := sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return server },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		)

		var auth func(http.Handler) http.Handler
		if c.cfg.Auth.Enabled {
			auth = transport.AuthMiddleware(a.apiKeys)
		} else {
			auth = transport.DefaultUserMiddleware(c.userID)
		}

		addr := fmt.Sprintf("%s:%d", c.cfg.Server.Host, c.cfg.Server.Port)
		httpServer := &http.Server{
			Addr: addr,
			Handler: transport.NewServer(transport.Options{
				MCP:      mcpHandler,
				Services: a.services,
				Auth:     auth,
				Location: a.loc,
				Logger:   c.logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			c.logger.Info("server listening", "addr", addr, "auth", c.cfg.Auth.Enabled)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.logger.Info("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("shutdown error", "error", err)
		}
		return nil
	})
}
