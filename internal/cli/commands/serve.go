// Package commands provides CLI subcommands for webbridge.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/liteclaw/webbridge/internal/bot"
	"github.com/liteclaw/webbridge/internal/channels"
	"github.com/liteclaw/webbridge/internal/config"
	"github.com/liteclaw/webbridge/internal/gateway"
	"github.com/liteclaw/webbridge/internal/logging"
	"github.com/liteclaw/webbridge/internal/uploads"
	"github.com/liteclaw/webbridge/internal/web"
)

const serveLockName = "webbridge-serve.lock"

// NewServeCommand creates the serve subcommand.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webbridge gateway",
		Long:  `Start the HTTP gateway that answers web chat requests. Only one instance may run per state directory.`,
		Example: `  # Foreground with config defaults
  webbridge serve

  # Custom host, port and chat path
  webbridge serve --host 0.0.0.0 --port 9090 --path /botman`,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "Gateway port (default: from config)")
	cmd.Flags().String("host", "", "Gateway host (default: from config)")
	cmd.Flags().String("path", "", "Chat endpoint path (default: from config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Gateway.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Gateway.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("path") {
		cfg.Web.Path, _ = cmd.Flags().GetString("path")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	unlock, err := acquireServeLock(out)
	if err != nil {
		return err
	}
	defer unlock()

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
	app, err := newServeApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printServeBanner(out, cfg)

	app.janitor.Start()
	defer func() { <-app.janitor.Stop().Done() }()

	return app.server.Start(ctx)
}

// serveApp is the fully wired gateway.
type serveApp struct {
	registry *channels.Registry
	engine   *bot.Bot
	spool    *uploads.Spool
	janitor  *uploads.Janitor
	server   *gateway.Server
}

func newServeApp(cfg *config.Config, logger zerolog.Logger) (*serveApp, error) {
	registry := channels.NewRegistry(&logger)
	err := registry.Register(web.NewFactory(web.Config{
		MatchingData: cfg.Web.MatchingMap(),
		Attachments: web.DecoderConfig{
			MaxBytes:  cfg.Web.Attachments.MaxBytes,
			ProbeMime: cfg.Web.Attachments.ProbeMime,
		},
	}, logger))
	if err != nil {
		return nil, fmt.Errorf("register web driver: %w", err)
	}

	engine := bot.New(registry, logger)
	if cfg.Bot.Defaults {
		if err := bot.RegisterDefaults(engine); err != nil {
			return nil, fmt.Errorf("register default listeners: %w", err)
		}
	}

	spool, err := uploads.NewSpool(cfg.SpoolDir(), cfg.Web.Attachments.MaxBytes, logger)
	if err != nil {
		return nil, err
	}
	janitor, err := uploads.NewJanitor(spool.Dir(), cfg.Web.Attachments.SweepSchedule, cfg.Web.Attachments.MaxAge, logger)
	if err != nil {
		return nil, err
	}

	server := gateway.New(&gateway.Config{
		Host:            cfg.Gateway.Host,
		Port:            cfg.Gateway.Port,
		ChatPath:        cfg.Web.Path,
		BodyLimit:       cfg.Gateway.BodyLimit,
		ShutdownTimeout: cfg.Gateway.ShutdownTimeout,
	}, engine, registry, spool, logger)

	return &serveApp{
		registry: registry,
		engine:   engine,
		spool:    spool,
		janitor:  janitor,
		server:   server,
	}, nil
}

func acquireServeLock(out io.Writer) (func(), error) {
	lockDir := config.StateDir()
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	lockPath := filepath.Join(lockDir, serveLockName)
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("error checking lock file: %w", err)
	}
	if !locked {
		fmt.Fprintln(out, "❌ Error: webbridge is already running.")
		fmt.Fprintf(out, "   Lock file found at: %s\n", lockPath)
		return nil, fmt.Errorf("gateway already running")
	}

	return func() { _ = fileLock.Unlock() }, nil
}

func printServeBanner(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  webbridge")
	fmt.Fprintln(out, "  =========")
	fmt.Fprintf(out, "  ✓ HTTP server listening on http://%s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Fprintf(out, "  ✓ Chat endpoint: POST %s\n", cfg.Web.Path)
	fmt.Fprintf(out, "  ✓ Uploads spooled to %s\n", cfg.SpoolDir())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Press Ctrl+C to stop")
	fmt.Fprintln(out)
}
