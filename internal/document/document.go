// Package document extracts and holds the text of a loaded PDF.
package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/csheth/studymind/internal/apperr"
)

// Document is the immutable text of one loaded PDF. A new load replaces it wholesale.
type Document struct {
	ID         string
	SourceName string
	SourceURL  string
	FullText   string
	PageTexts  []string
	PageCount  int
	LoadedAt   time.Time
}

var (
	inlineWhitespace = regexp.MustCompile(`[ \t\f\v]+`)
	blankRuns        = regexp.MustCompile(`\n{3,}`)
)

// Extract parses raw PDF bytes page by page.
func Extract(name string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", apperr.ErrInvalidInput, displayName(name))
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	count := reader.NumPage()
	pages := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return FromPages(name, pages), nil
}

// FromPages assembles a Document from already extracted page text.
func FromPages(name string, pages []string) *Document {
	cleaned := make([]string, len(pages))
	nonEmpty := make([]string, 0, len(pages))
	for i, page := range pages {
		cleaned[i] = normalizePage(page)
		if cleaned[i] != "" {
			nonEmpty = append(nonEmpty, cleaned[i])
		}
	}
	return &Document{
		ID:         uuid.NewString(),
		SourceName: displayName(name),
		FullText:   strings.Join(nonEmpty, "\n\n"),
		PageTexts:  cleaned,
		PageCount:  len(cleaned),
		LoadedAt:   time.Now().UTC(),
	}
}

// LoadFile reads and extracts a PDF from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Extract(filepath.Base(path), data)
}

// DecodeBase64 extracts a PDF handed over as base64, as the relay does.
func DecodeBase64(name, encoded string) (*Document, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ";base64,"); i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf data is not valid base64", apperr.ErrInvalidInput)
	}
	return Extract(name, data)
}

// PageText returns the 1-indexed page text, or "" when out of range.
func (d *Document) PageText(page int) string {
	if d == nil || page < 1 || page > len(d.PageTexts) {
		return ""
	}
	return d.PageTexts[page-1]
}

// Chars reports the length of the full text in characters.
func (d *Document) Chars() int {
	if d == nil {
		return 0
	}
	return len([]rune(d.FullText))
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: please enter a PDF URL", apperr.ErrInvalidInput)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q is not a valid URL", apperr.ErrInvalidInput, raw)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return parsed, nil
	default:
		return nil, fmt.Errorf("%w: only http and https URLs are supported", apperr.ErrInvalidInput)
	}
}

// NameFromURL derives a display name from the last path segment.
func NameFromURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	base := filepath.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return u.Host
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

func normalizePage(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = inlineWhitespace.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "document.pdf"
	}
	return name
}
