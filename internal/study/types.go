// Package study holds the per-dashboard study session: the active mode and
// level, generated artifacts, and the quiz and flashcard sub-machines.
package study

import (
	"errors"
	"fmt"
	"strings"

	"github.com/csheth/studymind/internal/apperr"
)

// Mode is the active learning activity.
type Mode int

const (
	ModeComprehension Mode = iota
	ModeQuiz
	ModeFlashcards
	ModeSummary
)

var modeNames = []string{"comprehension", "quiz", "flashcards", "summary"}

func (m Mode) String() string {
	if int(m) < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// Label is the title-cased name shown in the dashboard.
func (m Mode) Label() string {
	name := m.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// Modes lists the modes in key order (1-4).
func Modes() []Mode {
	return []Mode{ModeComprehension, ModeQuiz, ModeFlashcards, ModeSummary}
}

// ParseMode accepts a mode name.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return ModeComprehension, fmt.Errorf("%w: unknown study mode %q", apperr.ErrInvalidInput, s)
}

// Level is the comprehension dial applied to prompt phrasing.
type Level int

const (
	LevelBasic Level = iota
	LevelIntermediate
	LevelAdvanced
)

var levelNames = []string{"basic", "intermediate", "advanced"}

func (l Level) String() string {
	if int(l) < 0 || int(l) >= len(levelNames) {
		return "basic"
	}
	return levelNames[l]
}

// Next cycles basic → intermediate → advanced → basic.
func (l Level) Next() Level {
	return Level((int(l) + 1) % len(levelNames))
}

// ParseLevel accepts a level name.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelBasic, fmt.Errorf("%w: unknown comprehension level %q", apperr.ErrInvalidInput, s)
}

// Variant selects the summary prompt template.
type Variant string

const (
	VariantComprehensive Variant = "comprehensive"
	VariantSectioned     Variant = "sectioned"
	VariantExecutive     Variant = "executive"
	VariantDetailed      Variant = "detailed"
)

// Variants lists the summary styles in menu order.
func Variants() []Variant {
	return []Variant{VariantComprehensive, VariantSectioned, VariantExecutive, VariantDetailed}
}

func (v Variant) valid() bool {
	for _, known := range Variants() {
		if v == known {
			return true
		}
	}
	return false
}

// Description is the one-line blurb in the summary picker.
func (v Variant) Description() string {
	switch v {
	case VariantSectioned:
		return "Section-by-section walkthrough with headers"
	case VariantExecutive:
		return "Concise purpose, findings and takeaways"
	case VariantDetailed:
		return "In-depth analysis including methods and limitations"
	default:
		return "One cohesive narrative of the whole document"
	}
}

// Action is a generation request kind.
type Action int

const (
	ActionAnalyze Action = iota
	ActionSuggest
	ActionQuiz
	ActionFlashcards
	ActionSummary
	ActionAsk
)

func (a Action) String() string {
	switch a {
	case ActionAnalyze:
		return "analyze"
	case ActionSuggest:
		return "suggest"
	case ActionQuiz:
		return "quiz"
	case ActionFlashcards:
		return "flashcards"
	case ActionSummary:
		return "summary"
	case ActionAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// SummaryThreshold is the text length above which a summary variant must be picked.
const SummaryThreshold = 5000

var (
	ErrStaleResult      = errors.New("result belongs to a superseded request")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrQuizNotActive    = errors.New("no quiz in progress")
	ErrNoAnswerSelected = errors.New("select an answer first")
	ErrNoFlashcards     = fmt.Errorf("%w: no flashcards found in the AI response", apperr.ErrMalformedResponse)
)
