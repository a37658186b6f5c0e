package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/csheth/studymind/internal/journal"
	"github.com/csheth/studymind/internal/relay"
)

func TestMaskKey(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"abc":              "****",
		"  sk-abcdef9876 ": "****9876",
	}
	for in, want := range cases {
		if got := maskKey(in); got != want {
			t.Fatalf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Fatalf("humanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestDescribeEnvelope(t *testing.T) {
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	text := describeEnvelope(relay.Envelope{PDFURL: "https://example.com/a.pdf", PDFDataBase64: "JVBERi0x", PublishedAt: published})
	if !strings.Contains(text, "https://example.com/a.pdf") || !strings.Contains(text, "6 B") {
		t.Fatalf("unexpected description:\n%s", text)
	}

	text = describeEnvelope(relay.Envelope{PDFURL: "https://example.com/b.pdf", Error: "403 Forbidden", PublishedAt: published})
	if !strings.Contains(text, "Error:      403 Forbidden") || strings.Contains(text, "Size") {
		t.Fatalf("error envelope rendered as:\n%s", text)
	}
}

func TestWriteConfigTemplateKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studymind", "config.toml")
	created, err := writeConfigTemplate(path)
	if err != nil || !created {
		t.Fatalf("first write: created=%v err=%v", created, err)
	}
	if err := os.WriteFile(path, []byte("# mine\n"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	created, err = writeConfigTemplate(path)
	if err != nil || created {
		t.Fatalf("second write: created=%v err=%v", created, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "# mine\n" {
		t.Fatalf("existing config was replaced: %q", data)
	}
}

func TestWriteJournal(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJournal(&buf, nil, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "Journal is empty." {
		t.Fatalf("empty journal rendered as %q", buf.String())
	}

	buf.Reset()
	now := time.Now()
	err := writeJournal(&buf,
		[]journal.Artifact{{DocumentName: "notes.pdf", Mode: "summary", Action: "summary", Text: "abc", CreatedAt: now}},
		[]journal.QuizResult{{DocumentName: "notes.pdf", Score: 4, Total: 5, Percentage: 80, Performance: "Great job!", FinishedAt: now}},
	)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"EXPORTED", "summary", "FINISHED", "4/5 (80%)", "Great job!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("journal output missing %q:\n%s", want, out)
		}
	}
}

func TestTail(t *testing.T) {
	items := []int{1, 2, 3, 4}
	if got := tail(items, 2); len(got) != 2 || got[0] != 3 {
		t.Fatalf("tail = %v", got)
	}
	if got := tail(items, 0); len(got) != 4 {
		t.Fatalf("tail with zero limit = %v", got)
	}
}
