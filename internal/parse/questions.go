package parse

import (
	"regexp"
	"strings"
)

var numbered = regexp.MustCompile(`^\d+\s*[.):\-]`)

// Questions keeps the lines that look like a numbered list item.
func Questions(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !numbered.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	if out == nil {
		return []string{}
	}
	return out
}

// StripNumbering removes the leading "3." style marker from a question.
func StripNumbering(question string) string {
	question = strings.TrimSpace(question)
	if loc := numbered.FindStringIndex(question); loc != nil {
		return strings.TrimSpace(question[loc[1]:])
	}
	return question
}
