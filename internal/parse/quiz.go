package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/csheth/studymind/internal/apperr"
)

const optionsPerQuestion = 4

type quizPayload struct {
	Questions []struct {
		Question    string          `json:"question"`
		Options     []string        `json:"options"`
		Correct     json.RawMessage `json:"correct"`
		Explanation string          `json:"explanation"`
	} `json:"questions"`
}

// Quiz decodes the first balanced JSON object in raw. Anything short of a
// fully scorable quiz is rejected rather than partially returned.
func Quiz(raw string) ([]QuizQuestion, error) {
	span, ok := FirstObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", apperr.ErrQuizFormat)
	}
	var payload quizPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrQuizFormat, err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", apperr.ErrQuizFormat)
	}

	out := make([]QuizQuestion, 0, len(payload.Questions))
	for i, q := range payload.Questions {
		prompt := strings.TrimSpace(q.Question)
		if prompt == "" {
			return nil, fmt.Errorf("%w: question %d is empty", apperr.ErrQuizFormat, i+1)
		}
		if len(q.Options) != optionsPerQuestion {
			return nil, fmt.Errorf("%w: question %d has %d options, want %d", apperr.ErrQuizFormat, i+1, len(q.Options), optionsPerQuestion)
		}
		correct, err := correctIndex(q.Correct)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", apperr.ErrQuizFormat, i+1, err)
		}
		options := make([]string, len(q.Options))
		for j, opt := range q.Options {
			options[j] = strings.TrimSpace(opt)
		}
		out = append(out, QuizQuestion{
			Prompt:       prompt,
			Options:      options,
			CorrectIndex: correct,
			Explanation:  strings.TrimSpace(q.Explanation),
		})
	}
	return out, nil
}

// correctIndex accepts 1, "1" or "B" and normalizes to a 0-based index.
func correctIndex(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing correct answer")
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return checkRange(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("correct answer %s is neither a number nor a string", string(raw))
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return checkRange(n)
	}
	s = strings.TrimRight(strings.ToUpper(s), ").")
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'D' {
		return int(s[0] - 'A'), nil
	}
	return 0, fmt.Errorf("correct answer %q is not recognised", s)
}

func checkRange(n int) (int, error) {
	if n < 0 || n >= optionsPerQuestion {
		return 0, fmt.Errorf("correct index %d out of range", n)
	}
	return n, nil
}

// FirstObject returns the first balanced {...} span. Braces inside JSON
// strings do not count toward the balance.
func FirstObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
