// Package main provides the CLI entrypoint for studymind.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/studymind/internal/config"
	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/llm"
	"github.com/csheth/studymind/internal/logging"
	"github.com/csheth/studymind/internal/prefs"
	"github.com/csheth/studymind/internal/relay"
	"github.com/csheth/studymind/internal/tui"
)

var (
	configPath string

	dashProvider    string
	dashModel       string
	dashEndpoint    string
	dashRelayAddr   string
	dashExportDir   string
	dashNoRelay     bool
	dashNoAltScreen bool
	dashDebug       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studymind [pdf path or URL]",
		Short:         "Study any PDF with an AI tutor",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runDashboardCmd,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/studymind/config.toml)")

	rootCmd.Flags().StringVar(&dashProvider, "provider", "", "AI provider (openai or openrouter)")
	rootCmd.Flags().StringVar(&dashModel, "model", "", "override the provider's default model")
	rootCmd.Flags().StringVar(&dashEndpoint, "endpoint", "", "override the provider's chat completions URL")
	rootCmd.Flags().StringVar(&dashRelayAddr, "relay-addr", "", "relay address to check for captured PDFs")
	rootCmd.Flags().StringVar(&dashExportDir, "export-dir", ".", "directory for exported answers")
	rootCmd.Flags().BoolVar(&dashNoRelay, "no-relay", false, "do not check the relay at startup")
	rootCmd.Flags().BoolVar(&dashNoAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	rootCmd.Flags().BoolVar(&dashDebug, "debug", false, "log debug output")

	rootCmd.AddCommand(newRelayCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newJournalCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyStringFlag(cmd, "model", &settings.Model, dashModel)
	applyStringFlag(cmd, "endpoint", &settings.Endpoint, dashEndpoint)
	applyStringFlag(cmd, "relay-addr", &settings.RelayAddr, dashRelayAddr)

	logger, err := logging.New(logging.Options{Path: settings.LogPath, Debug: dashDebug})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := prefs.Open(settings.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open prefs: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close prefs: %v\n", cerr)
		}
	}()

	creds, err := st.Load(cmd.Context())
	if err != nil {
		logErrf("failed to read stored credentials: %v\n", err)
	}
	provider := resolveProvider(cmd, settings.Provider, creds.Provider)
	apiKey := settings.APIKey
	if apiKey == "" {
		apiKey = creds.APIKey
	}
	logger.Info("starting dashboard",
		zap.String("provider", provider),
		logging.Secret("api_key", apiKey),
		zap.Bool("relay", !dashNoRelay),
	)

	fetcher, err := document.NewFetcher(settings.CacheDir, nil, logger.Named("fetch"))
	if err != nil {
		return fmt.Errorf("failed to prepare pdf cache: %w", err)
	}
	var relaySource tui.RelaySource
	if !dashNoRelay {
		relaySource = relay.NewClient(settings.RelayAddr, nil)
	}

	source := ""
	if len(args) > 0 {
		source = strings.TrimSpace(args[0])
	}

	model := tui.New(tui.Config{
		Provider: provider,
		APIKey:   apiKey,
		LLM: llm.Config{
			Provider:    provider,
			Model:       settings.Model,
			Endpoint:    settings.Endpoint,
			MaxTokens:   settings.MaxTokens,
			Temperature: settings.Temperature,
		},
		Loader:      fetcher,
		Relay:       relaySource,
		Prefs:       st,
		JournalPath: settings.JournalPath,
		ExportDir:   dashExportDir,
		Source:      source,
		Logger:      logger.Named("tui"),
	})

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !dashNoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadSettings() (config.Settings, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := config.Resolve(fileCfg)
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid config: %w", err)
	}
	return settings, nil
}

// resolveProvider picks the flag, then the provider last chosen in the
// dashboard, then the configured one.
func resolveProvider(cmd *cobra.Command, configured, stored string) string {
	if cmd.Flags().Changed("provider") {
		return strings.TrimSpace(dashProvider)
	}
	if stored = strings.TrimSpace(stored); stored != "" {
		return stored
	}
	return configured
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = strings.TrimSpace(value)
}

func openPrefs(ctx context.Context) (*prefs.Store, prefs.Credentials, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, prefs.Credentials{}, err
	}
	st, err := prefs.Open(settings.DBPath)
	if err != nil {
		return nil, prefs.Credentials{}, fmt.Errorf("failed to open prefs: %w", err)
	}
	creds, err := st.Load(ctx)
	if err != nil {
		_ = st.Close()
		return nil, prefs.Credentials{}, fmt.Errorf("failed to read prefs: %w", err)
	}
	return st, creds, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		_ = err
	}
}
