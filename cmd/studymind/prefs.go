package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/studymind/internal/config"
	"github.com/csheth/studymind/internal/journal"
	"github.com/csheth/studymind/internal/llm"
)

var (
	prefsSetKey      string
	prefsSetProvider string

	journalLast int
)

func newPrefsCmd() *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect or change the stored API key and provider",
	}
	prefsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show stored preferences",
		Args:  cobra.NoArgs,
		RunE:  runPrefsShowCmd,
	})

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store an API key or provider",
		Args:  cobra.NoArgs,
		RunE:  runPrefsSetCmd,
	}
	setCmd.Flags().StringVar(&prefsSetKey, "key", "", "API key to store")
	setCmd.Flags().StringVar(&prefsSetProvider, "provider", "", "provider to store (openai or openrouter)")
	prefsCmd.AddCommand(setCmd)

	prefsCmd.AddCommand(&cobra.Command{
		Use:   "forget",
		Short: "Remove the stored API key and provider",
		Args:  cobra.NoArgs,
		RunE:  runPrefsForgetCmd,
	})
	return prefsCmd
}

func runPrefsShowCmd(cmd *cobra.Command, _ []string) error {
	st, creds, err := openPrefs(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	provider := creds.Provider
	if provider == "" {
		provider = "(not set)"
	}
	key := maskKey(creds.APIKey)
	if key == "" {
		key = "(not set)"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Provider:  %s\nAPI key:   %s\n", provider, key)
	return err
}

func runPrefsSetCmd(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("key") && !cmd.Flags().Changed("provider") {
		return fmt.Errorf("nothing to set: pass --key or --provider")
	}
	if cmd.Flags().Changed("provider") {
		p, ok := llm.LookupProvider(prefsSetProvider)
		if !ok {
			return fmt.Errorf("unknown provider %q", prefsSetProvider)
		}
		prefsSetProvider = p.ID
	}

	st, _, err := openPrefs(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	if cmd.Flags().Changed("provider") {
		if err := st.SaveProvider(cmd.Context(), prefsSetProvider); err != nil {
			return fmt.Errorf("failed to save provider: %w", err)
		}
	}
	if cmd.Flags().Changed("key") {
		if err := st.SaveAPIKey(cmd.Context(), prefsSetKey); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Saved.")
	return err
}

func runPrefsForgetCmd(cmd *cobra.Command, _ []string) error {
	st, _, err := openPrefs(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Forget(cmd.Context()); err != nil {
		return fmt.Errorf("failed to forget credentials: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Stored API key and provider removed.")
	return err
}

// maskKey keeps the last four characters.
func maskKey(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return ""
	case len(key) <= 4:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Locate or create the config file",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigPath())
			return err
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE:  runConfigInitCmd,
	})
	return configCmd
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runConfigInitCmd(cmd *cobra.Command, _ []string) error {
	path := resolvedConfigPath()
	created, err := writeConfigTemplate(path)
	if err != nil {
		return err
	}
	if !created {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return err
}

func writeConfigTemplate(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}

func newJournalCmd() *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "List exported answers and quiz scores",
		Args:  cobra.NoArgs,
		RunE:  runJournalCmd,
	}
	journalCmd.Flags().IntVar(&journalLast, "last", 20, "show only the most recent N entries of each kind")
	return journalCmd
}

func runJournalCmd(cmd *cobra.Command, _ []string) error {
	if journalLast < 0 {
		return fmt.Errorf("last must be >= 0")
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	artifacts, err := journal.LoadArtifacts(settings.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	results, err := journal.LoadQuizResults(settings.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	return writeJournal(cmd.OutOrStdout(), tail(artifacts, journalLast), tail(results, journalLast))
}

func writeJournal(out io.Writer, artifacts []journal.Artifact, results []journal.QuizResult) error {
	if len(artifacts) == 0 && len(results) == 0 {
		_, err := fmt.Fprintln(out, "Journal is empty.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(artifacts) > 0 {
		fmt.Fprintln(tw, "EXPORTED\tDOCUMENT\tMODE\tACTION\tCHARS")
		for _, a := range artifacts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", a.CreatedAt.Local().Format(time.DateTime), a.DocumentName, a.Mode, a.Action, len([]rune(a.Text)))
		}
	}
	if len(results) > 0 {
		if len(artifacts) > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, "FINISHED\tDOCUMENT\tSCORE\tRESULT")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%d/%d (%d%%)\t%s\n", r.FinishedAt.Local().Format(time.DateTime), r.DocumentName, r.Score, r.Total, r.Percentage, r.Performance)
		}
	}
	return tw.Flush()
}

func tail[T any](items []T, n int) []T {
	if n == 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
