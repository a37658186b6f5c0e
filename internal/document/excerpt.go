package document

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

var (
	paragraphSplit   = regexp.MustCompile(`\n{2,}`)
	whitespaceSanity = regexp.MustCompile(`\s+`)
)

// Excerpt returns at most budget characters of text for a prompt. Repeated
// paragraphs (running headers, footers) and boilerplate such as reference
// lists are skipped before clipping. Text that is all boilerplate falls back
// to a plain clip so a prompt never goes out empty.
func Excerpt(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	seen := map[string]bool{}
	var kept []string
	for _, paragraph := range paragraphSplit.Split(text, -1) {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" || isBoilerplate(trimmed) {
			continue
		}
		hash := hashParagraph(whitespaceSanity.ReplaceAllString(trimmed, " "))
		if seen[hash] {
			continue
		}
		seen[hash] = true
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return Clip(text, budget)
	}
	return clipParagraphs(kept, budget)
}

// Clip trims text to at most limit characters.
func Clip(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func clipParagraphs(paragraphs []string, budget int) string {
	var builder strings.Builder
	remaining := budget
	for idx, paragraph := range paragraphs {
		if remaining <= 0 {
			break
		}
		if idx > 0 && builder.Len() > 0 {
			if remaining <= 2 {
				break
			}
			builder.WriteString("\n\n")
			remaining -= 2
		}
		runes := []rune(paragraph)
		if len(runes) > remaining {
			builder.WriteString(string(runes[:remaining]))
			break
		}
		builder.WriteString(paragraph)
		remaining -= len(runes)
	}
	return builder.String()
}

func isBoilerplate(paragraph string) bool {
	lower := strings.ToLower(strings.TrimSpace(paragraph))
	switch {
	case lower == "":
		return true
	case strings.HasPrefix(lower, "references"), strings.HasPrefix(lower, "bibliography"):
		return true
	case strings.HasPrefix(lower, "acknowledg"):
		return true
	case strings.HasPrefix(lower, "copyright"), strings.HasPrefix(lower, "all rights reserved"):
		return true
	}
	// page numbers, rules and other lines with almost no letters
	alpha := 0
	for _, r := range lower {
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	return alpha*5 < len([]rune(lower))
}

func hashParagraph(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
