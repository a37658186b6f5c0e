package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/logging"
	"github.com/csheth/studymind/internal/relay"
)

var (
	relayAddr         string
	relayMaxAge       time.Duration
	relayAllowOrigins []string
	relayDebug        bool
)

func newRelayCmd() *cobra.Command {
	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Run or talk to the PDF capture relay",
	}
	relayCmd.PersistentFlags().StringVar(&relayAddr, "addr", "", "relay address (default from config)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Hold the latest captured PDF for the dashboard",
		Args:  cobra.NoArgs,
		RunE:  runRelayServeCmd,
	}
	serveCmd.Flags().DurationVar(&relayMaxAge, "max-age", 0, "drop captures older than this (0 keeps them)")
	serveCmd.Flags().StringSliceVar(&relayAllowOrigins, "allow-origin", nil, "CORS origins allowed to publish")
	serveCmd.Flags().BoolVar(&relayDebug, "debug", false, "log debug output")

	relayCmd.AddCommand(serveCmd)
	relayCmd.AddCommand(&cobra.Command{
		Use:   "publish <pdf path or URL>",
		Short: "Capture a PDF and hand it to the relay",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelayPublishCmd,
	})
	relayCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show what the relay is holding",
		Args:  cobra.NoArgs,
		RunE:  runRelayShowCmd,
	})
	return relayCmd
}

func runRelayServeCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyStringFlag(cmd, "addr", &settings.RelayAddr, relayAddr)
	if cmd.Flags().Changed("max-age") {
		settings.RelayMaxAge = relayMaxAge
	}
	if cmd.Flags().Changed("allow-origin") {
		settings.RelayAllowOrigins = relayAllowOrigins
	}

	logger, err := logging.New(logging.Options{Path: settings.LogPath, Console: true, Debug: relayDebug})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting relay",
		zap.String("addr", settings.RelayAddr),
		zap.Duration("max_age", settings.RelayMaxAge),
		zap.Strings("allow_origins", settings.RelayAllowOrigins),
	)
	server := relay.NewServer(relay.NewMailbox(settings.RelayMaxAge), logger.Named("relay"), relay.ServerOptions{
		Addr:         settings.RelayAddr,
		AllowOrigins: settings.RelayAllowOrigins,
	})
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("relay stopped: %w", err)
	}
	return nil
}

func runRelayPublishCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyStringFlag(cmd, "addr", &settings.RelayAddr, relayAddr)

	fetcher, err := document.NewFetcher(settings.CacheDir, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to prepare pdf cache: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	env := relay.Capture(ctx, args[0], fetcher.Bytes)
	if err := relay.NewClient(settings.RelayAddr, nil).Publish(ctx, env); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	out := cmd.OutOrStdout()
	if env.Error != "" {
		_, err = fmt.Fprintf(out, "Published capture error for %s: %s\n", env.PDFURL, env.Error)
		return err
	}
	_, err = fmt.Fprintf(out, "Published %s (%s)\n", env.PDFURL, humanBytes(encodedSize(env.PDFDataBase64)))
	return err
}

func runRelayShowCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyStringFlag(cmd, "addr", &settings.RelayAddr, relayAddr)

	env, ok, err := relay.NewClient(settings.RelayAddr, nil).Consume(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		_, err = fmt.Fprintln(out, "No captured PDF is waiting.")
		return err
	}
	_, err = fmt.Fprint(out, describeEnvelope(env))
	return err
}

func describeEnvelope(env relay.Envelope) string {
	text := fmt.Sprintf("URL:        %s\nPublished:  %s\n", env.PDFURL, env.PublishedAt.Local().Format(time.RFC1123))
	if env.Error != "" {
		return text + fmt.Sprintf("Error:      %s\n", env.Error)
	}
	return text + fmt.Sprintf("Size:       %s\n", humanBytes(encodedSize(env.PDFDataBase64)))
}

func encodedSize(b64 string) int {
	return base64.StdEncoding.DecodedLen(len(b64))
}

func humanBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
