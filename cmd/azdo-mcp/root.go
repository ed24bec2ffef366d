package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/azdo-mcp/internal/azdo"
	"github.com/HendryAvila/azdo-mcp/internal/config"
	"github.com/HendryAvila/azdo-mcp/internal/server"
	"github.com/HendryAvila/azdo-mcp/internal/telemetry"
)

// app carries what every subcommand needs.
type app struct {
	loader   *config.Loader
	logger   *slog.Logger
	shutdown telemetry.ShutdownFunc
}

func newRootCmd(version string) *cobra.Command {
	var configFile string
	a := &app{}

	cmd := &cobra.Command{
		Use:          "azdo-mcp",
		Short:        "Azure DevOps MCP server (stdio)",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.loader = config.NewLoader(configFile)
			// Logs go to stderr: stdout is the MCP channel.
			a.logger = newLogger(cmd.ErrOrStderr(), a.loader.LogLevel())

			shutdown, err := telemetry.Setup(cmd.Context(), a.loader.OTelExporter(),
				server.Name, server.Version, cmd.ErrOrStderr())
			if err != nil {
				return &config.ConfigurationError{Field: "AZDO_OTEL_EXPORTER", Message: err.Error()}
			}
			a.shutdown = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shutdown == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.shutdown(ctx); err != nil {
				a.logger.Warn("flushing traces", "err", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (env: AZDO_CONFIG)")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newVersionCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Version = version

	return cmd
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			// A bad configuration is not fatal here: tools report it per
			// call, so the host can still list them and show the error.
			if _, err := a.loader.Connection(); err != nil {
				a.logger.Warn("configuration incomplete", "err", err)
			}

			s := server.New(a.loader, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stdio := mcpserver.NewStdioServer(s)
			stdio.SetErrorLogger(slog.NewLogLogger(a.logger.Handler(), slog.LevelError))

			a.logger.Info("serving on stdio", "version", server.Version)
			if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				return fmt.Errorf("serving: %w", err)
			}
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and list visible projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}
}

func runCheck(ctx context.Context, out io.Writer, a *app) error {
	conn, err := a.loader.Connection()
	if err != nil {
		return err
	}
	c, err := azdo.NewClient(conn,
		azdo.WithLogger(a.logger),
		azdo.WithUserAgent(server.UserAgent()),
		azdo.WithTracerProvider(telemetry.TracerProvider()),
	)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Server:  %s\n", conn.BaseURL)
	if conn.Collection != "" {
		_, _ = fmt.Fprintf(out, "Collection: %s\n", conn.Collection)
	}
	_, _ = fmt.Fprintf(out, "Auth:    %s\n", conn.Auth)

	projects, err := c.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Projects (%d):\n", len(projects))
	for _, p := range projects {
		name, _ := p["name"].(string)
		marker := " "
		if name == conn.DefaultProject {
			marker = "*"
		}
		_, _ = fmt.Fprintf(out, " %s %s\n", marker, name)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "azdo-mcp v%s\n", server.Version)
		},
	}
}
