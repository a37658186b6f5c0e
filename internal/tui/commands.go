package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/journal"
	"github.com/csheth/studymind/internal/llm"
	"github.com/csheth/studymind/internal/relay"
	"github.com/csheth/studymind/internal/study"
)

const (
	loadTimeout       = 90 * time.Second
	generationTimeout = 2 * time.Minute
	validateTimeout   = 20 * time.Second
)

func loadSourceJob(source string, loader DocumentLoader) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, loadTimeout)
		defer cancel()
		var (
			doc *document.Document
			err error
		)
		if isURL(source) {
			if loader == nil {
				err = errors.New("URL loading is not configured")
			} else {
				doc, err = loader.Load(ctx, source)
			}
		} else {
			doc, err = document.LoadFile(expandHome(source))
		}
		if err != nil {
			return documentMsg{origin: source, err: err}, err
		}
		return documentMsg{doc: doc, origin: source}, nil
	}
}

// consumeRelayJob asks the relay for a captured PDF. An unreachable relay is
// not an error for the dashboard; it just starts on the welcome screen.
func consumeRelayJob(source RelaySource) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		env, ok, err := source.Consume(ctx)
		if err != nil {
			return relayIdleMsg{reason: err.Error()}, nil
		}
		if !ok {
			return relayIdleMsg{}, nil
		}
		if env.Error != "" {
			err := fmt.Errorf("error loading PDF from web: %s", env.Error)
			return documentMsg{origin: env.PDFURL, err: err}, err
		}
		if env.Empty() {
			return relayIdleMsg{reason: "relay envelope carried no PDF"}, nil
		}
		doc, err := document.DecodeBase64(relayDocumentName(env), env.PDFDataBase64)
		if err != nil {
			return documentMsg{origin: env.PDFURL, err: err}, err
		}
		doc.SourceURL = env.PDFURL
		return documentMsg{doc: doc, origin: "web capture"}, nil
	}
}

func relayDocumentName(env relay.Envelope) string {
	if u, err := document.ValidateURL(env.PDFURL); err == nil {
		if name := document.NameFromURL(u); name != "" {
			return name
		}
	}
	return "web.pdf"
}

func generateJob(gen *study.Generator, doc *document.Document, ticket study.Ticket) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, generationTimeout)
		defer cancel()
		artifact, err := gen.Run(ctx, doc, ticket)
		return generationMsg{ticket: ticket, artifact: artifact, err: err}, err
	}
}

func validateKeyJob(provider, apiKey string, factory ClientFactory) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, validateTimeout)
		defer cancel()
		client, err := factory(provider, apiKey)
		if err != nil {
			return keyValidatedMsg{provider: provider, err: err}, err
		}
		if err := client.ValidateKey(ctx); err != nil {
			return keyValidatedMsg{provider: provider, err: err}, err
		}
		return keyValidatedMsg{provider: provider, apiKey: apiKey, client: client}, nil
	}
}

func saveCredentialsJob(store CredentialStore, provider, apiKey string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := store.SaveAPIKey(ctx, apiKey)
		if err == nil {
			err = store.SaveProvider(ctx, provider)
		}
		return recordMsg{target: recordPrefs, err: err}, err
	}
}

func saveProviderJob(store CredentialStore, provider string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := store.SaveProvider(ctx, provider)
		return recordMsg{target: recordPrefs, err: err}, err
	}
}

func forgetCredentialsJob(store CredentialStore) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := store.Forget(ctx)
		return recordMsg{target: recordPrefs, err: err}, err
	}
}

func exportJob(dir, journalPath string, entry journal.Artifact) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		path, err := journal.Export(dir, entry.Text)
		if err != nil {
			return exportMsg{err: err}, err
		}
		if journalPath != "" {
			if err := journal.SaveArtifact(journalPath, entry); err != nil {
				return exportMsg{path: path, err: fmt.Errorf("exported but journal failed: %w", err)}, err
			}
		}
		return exportMsg{path: path}, nil
	}
}

func recordQuizJob(journalPath string, result journal.QuizResult) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		err := journal.SaveQuizResult(journalPath, result)
		return recordMsg{target: recordJournal, err: err}, err
	}
}

// defaultClientFactory builds an OpenAI-compatible gateway client.
func defaultClientFactory(base llm.Config) ClientFactory {
	return func(provider, apiKey string) (llm.Client, error) {
		cfg := base
		if !strings.EqualFold(provider, base.Provider) {
			// model and endpoint overrides belong to the configured provider
			cfg.Model, cfg.Endpoint = "", ""
		}
		cfg.Provider = provider
		cfg.APIKey = apiKey
		return llm.New(cfg)
	}
}

func isURL(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
