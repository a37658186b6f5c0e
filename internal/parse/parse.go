// Package parse turns raw model output into structured study artifacts.
//
// The heuristics here tolerate the formatting drift typical of chat models.
// Session code depends only on StructuredResponseParser, so a stricter
// grammar can replace Heuristic without touching it.
package parse

// Card is one flashcard as parsed, before any interaction state is attached.
type Card struct {
	Front string
	Back  string
}

// QuizQuestion is one scored multiple choice question.
type QuizQuestion struct {
	Prompt       string
	Options      []string
	CorrectIndex int
	Explanation  string
}

// StructuredResponseParser converts completion text into artifacts.
type StructuredResponseParser interface {
	// Questions returns numbered lines. Empty input yields an empty slice.
	Questions(raw string) []string
	// Flashcards returns complete cards. No markers yields an empty slice.
	Flashcards(raw string) []Card
	// Quiz returns the questions or an error wrapping apperr.ErrQuizFormat.
	Quiz(raw string) ([]QuizQuestion, error)
}

// Heuristic is the line and brace matching parser.
type Heuristic struct{}

var _ StructuredResponseParser = Heuristic{}

func (Heuristic) Questions(raw string) []string          { return Questions(raw) }
func (Heuristic) Flashcards(raw string) []Card           { return Flashcards(raw) }
func (Heuristic) Quiz(raw string) ([]QuizQuestion, error) { return Quiz(raw) }
