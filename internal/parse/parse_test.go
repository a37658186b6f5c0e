package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/studymind/internal/apperr"
)

func TestQuestionsKeepsNumberedLines(t *testing.T) {
	raw := "Here are some questions:\n\n1. What is ATP?\n2) Where is DNA stored?\n  3: Why do cells divide?\n4 - What is osmosis?\n- not numbered\n10. Last one"
	got := Questions(raw)
	assert.Equal(t, []string{
		"1. What is ATP?",
		"2) Where is DNA stored?",
		"3: Why do cells divide?",
		"4 - What is osmosis?",
		"10. Last one",
	}, got)
	assert.Empty(t, Questions(""))
	assert.NotNil(t, Questions("no numbers here"))
}

func TestStripNumbering(t *testing.T) {
	assert.Equal(t, "What is ATP?", StripNumbering("1. What is ATP?"))
	assert.Equal(t, "Where?", StripNumbering("12) Where?"))
	assert.Equal(t, "No number", StripNumbering("No number"))
}

func TestFlashcardsPairsInOrder(t *testing.T) {
	cards := Flashcards("Front: A\nBack: B\nFront: C\nBack: D")
	assert.Equal(t, []Card{{Front: "A", Back: "B"}, {Front: "C", Back: "D"}}, cards)
}

func TestFlashcardsDropsTrailingFront(t *testing.T) {
	cards := Flashcards("Front: A\nBack: B\nFront: C")
	assert.Equal(t, []Card{{Front: "A", Back: "B"}}, cards)
}

func TestFlashcardsToleratesMarkdownAndContinuations(t *testing.T) {
	raw := "Here are your cards:\n\n**Front:** Mitochondria\n**Back:** Powerhouse of the cell,\nproduces ATP.\n\n- FRONT: Ribosome\n  which organelle?\n- back: Builds proteins"
	cards := Flashcards(raw)
	require.Len(t, cards, 2)
	assert.Equal(t, Card{Front: "Mitochondria", Back: "Powerhouse of the cell, produces ATP."}, cards[0])
	assert.Equal(t, Card{Front: "Ribosome which organelle?", Back: "Builds proteins"}, cards[1])
}

func TestFlashcardsWithoutMarkersIsEmpty(t *testing.T) {
	cards := Flashcards("Sorry, I cannot help with that.")
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
	assert.Empty(t, Flashcards("Back: orphan\nFront: \nBack: missing front"))
}

func TestQuizExtractsWrappedJSON(t *testing.T) {
	raw := "Here is your quiz:\n{\"questions\":[{\"question\":\"Q\",\"options\":[\"A\",\"B\",\"C\",\"D\"],\"correct\":1,\"explanation\":\"E\"}]}\nEnjoy"
	questions, err := Quiz(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, QuizQuestion{Prompt: "Q", Options: []string{"A", "B", "C", "D"}, CorrectIndex: 1, Explanation: "E"}, questions[0])
}

func TestQuizAcceptsLetterAndStringAnswers(t *testing.T) {
	raw := "```json\n{\"questions\":[" +
		"{\"question\":\"Which {brace} wins?\",\"options\":[\"A) x\",\"B) y\",\"C) z\",\"D) w\"],\"correct\":\"C\"}," +
		"{\"question\":\"Second\",\"options\":[\"1\",\"2\",\"3\",\"4\"],\"correct\":\"3\"}" +
		"]}\n```"
	questions, err := Quiz(raw)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 2, questions[0].CorrectIndex)
	assert.Equal(t, "Which {brace} wins?", questions[0].Prompt)
	assert.Equal(t, 3, questions[1].CorrectIndex)
}

func TestQuizRejectsUnscorableInput(t *testing.T) {
	cases := map[string]string{
		"no braces":     "I could not create a quiz.",
		"unbalanced":    `{"questions":[`,
		"bad json":      `{questions: nope}`,
		"no questions":  `{"questions":[]}`,
		"three options": `{"questions":[{"question":"Q","options":["a","b","c"],"correct":0}]}`,
		"out of range":  `{"questions":[{"question":"Q","options":["a","b","c","d"],"correct":4}]}`,
		"no answer":     `{"questions":[{"question":"Q","options":["a","b","c","d"]}]}`,
		"blank prompt":  `{"questions":[{"question":" ","options":["a","b","c","d"],"correct":0}]}`,
	}
	for name, raw := range cases {
		_, err := Quiz(raw)
		assert.True(t, errors.Is(err, apperr.ErrQuizFormat), "%s: got %v", name, err)
	}
}

func TestFirstObjectHandlesEscapes(t *testing.T) {
	span, ok := FirstObject(`prefix {"a":"quote \" and } brace","b":{"c":1}} trailing {"x":2}`)
	require.True(t, ok)
	assert.Equal(t, `{"a":"quote \" and } brace","b":{"c":1}}`, span)
}

func TestHeuristicSatisfiesInterface(t *testing.T) {
	var p StructuredResponseParser = Heuristic{}
	assert.Len(t, p.Flashcards("Front: a\nBack: b"), 1)
}
