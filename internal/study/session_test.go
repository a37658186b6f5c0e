package study

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/studymind/internal/apperr"
	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/parse"
)

func sampleDoc(text string) *document.Document {
	return document.FromPages("biology.pdf", []string{text})
}

func sampleQuiz(n int) []parse.QuizQuestion {
	out := make([]parse.QuizQuestion, n)
	for i := range out {
		out[i] = parse.QuizQuestion{
			Prompt:       "Question",
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: 1,
			Explanation:  "Because B.",
		}
	}
	return out
}

func startQuiz(t *testing.T, s *Session, n int) {
	t.Helper()
	s.SetMode(ModeQuiz)
	ticket, err := s.Begin(Request{Action: ActionQuiz})
	require.NoError(t, err)
	require.NoError(t, s.Commit(ticket, Artifact{Quiz: sampleQuiz(n)}))
}

func TestBeginRequiresDocument(t *testing.T) {
	s := NewSession()
	_, err := s.Begin(Request{Action: ActionAnalyze})
	assert.ErrorIs(t, err, apperr.ErrNoDocumentLoaded)
	_, _, err = s.RequestSummary()
	assert.ErrorIs(t, err, apperr.ErrNoDocumentLoaded)
}

func TestLoadDocumentResetsEverything(t *testing.T) {
	for _, mode := range Modes() {
		s := NewSession()
		s.LoadDocument(sampleDoc("cells"))
		s.SetLevel(LevelAdvanced)

		ticket, err := s.Begin(Request{Action: ActionAnalyze})
		require.NoError(t, err)
		require.NoError(t, s.Commit(ticket, Artifact{Text: "analysis"}))
		startQuiz(t, s, 2)
		s.SetMode(mode)
		inflight, err := s.Begin(Request{Action: ActionAnalyze})
		require.NoError(t, err)

		s.LoadDocument(sampleDoc("plants"))

		assert.Equal(t, ModeComprehension, s.Mode(), mode.String())
		assert.Equal(t, LevelBasic, s.Level())
		assert.Equal(t, "", s.LastAIText())
		assert.Equal(t, QuizNotStarted, s.Quiz().Phase())
		assert.Zero(t, s.Deck().Len())
		assert.Empty(t, s.Suggestions())
		_, pending := s.Pending()
		assert.False(t, pending)
		assert.ErrorIs(t, s.Commit(inflight, Artifact{Text: "late"}), ErrStaleResult)
		assert.Equal(t, "", s.LastAIText())
	}
}

func TestSupersededTicketIsDropped(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	first, err := s.Begin(Request{Action: ActionAnalyze})
	require.NoError(t, err)
	second, err := s.Begin(Request{Action: ActionAnalyze})
	require.NoError(t, err)

	require.NoError(t, s.Commit(second, Artifact{Text: "new"}))
	assert.ErrorIs(t, s.Commit(first, Artifact{Text: "old"}), ErrStaleResult)
	assert.Equal(t, "new", s.LastAIText())
}

func TestSetModeClearsModeStateOnly(t *testing.T) {
	s := NewSession()
	doc := sampleDoc("cells")
	s.LoadDocument(doc)
	ticket, _ := s.Begin(Request{Action: ActionSuggest})
	require.NoError(t, s.Commit(ticket, Artifact{Text: "1. Q?", Questions: []string{"1. Q?"}}))
	pending, _ := s.Begin(Request{Action: ActionAnalyze})

	s.SetMode(ModeFlashcards)

	assert.Same(t, doc, s.Document())
	assert.Empty(t, s.Suggestions())
	assert.Equal(t, "1. Q?", s.LastAIText())
	assert.ErrorIs(t, s.Commit(pending, Artifact{Text: "late"}), ErrStaleResult)
}

func TestFailLeavesArtifactsUntouched(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	startQuiz(t, s, 3)
	_, err := s.AnswerQuiz(1)
	require.NoError(t, err)
	require.NoError(t, s.FinishQuiz())

	ticket, err := s.RetakeQuiz()
	require.NoError(t, err)
	require.NoError(t, s.Fail(ticket))
	assert.Equal(t, QuizNotStarted, s.Quiz().Phase())

	again, _ := s.Begin(Request{Action: ActionQuiz})
	err = s.Commit(again, Artifact{})
	assert.ErrorIs(t, err, apperr.ErrQuizFormat)
	assert.Equal(t, QuizNotStarted, s.Quiz().Phase())
	assert.ErrorIs(t, s.Fail(again), ErrStaleResult)
}

func TestAskValidation(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	_, err := s.Begin(Request{Action: ActionAsk, Question: "   "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.Begin(Request{Action: ActionAsk, Question: "Why?", Page: 9})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	ticket, err := s.Begin(Request{Action: ActionAsk, Question: "  Why?  ", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, "Why?", ticket.Question)
}

func TestSummaryThreshold(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc(strings.Repeat("a", SummaryThreshold)))
	ticket, needsChoice, err := s.RequestSummary()
	require.NoError(t, err)
	assert.False(t, needsChoice)
	assert.Equal(t, VariantComprehensive, ticket.Variant)

	s.LoadDocument(sampleDoc(strings.Repeat("a", SummaryThreshold+1)))
	_, needsChoice, err = s.RequestSummary()
	require.NoError(t, err)
	assert.True(t, needsChoice)
	assert.True(t, s.AwaitingVariant())
	_, pending := s.Pending()
	assert.False(t, pending)

	_, err = s.ChooseSummary("bullet points")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.True(t, s.AwaitingVariant())

	ticket, err = s.ChooseSummary(VariantExecutive)
	require.NoError(t, err)
	assert.False(t, s.AwaitingVariant())
	require.NoError(t, s.Commit(ticket, Artifact{Text: "summary"}))
	assert.Equal(t, VariantExecutive, s.SummaryVariant())

	s.SetMode(ModeSummary)
	assert.Equal(t, Request{Action: ActionSummary, Variant: VariantExecutive}, s.PrimaryRequest())
}

func TestUseSuggestionStripsNumbering(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	ticket, _ := s.Begin(Request{Action: ActionSuggest})
	require.NoError(t, s.Commit(ticket, Artifact{Questions: []string{"1. What is ATP?", "2) Why?"}}))
	q, err := s.UseSuggestion(1)
	require.NoError(t, err)
	assert.Equal(t, "Why?", q)
	_, err = s.UseSuggestion(5)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestFlashcardDeck(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	s.SetMode(ModeFlashcards)

	ticket, _ := s.Begin(Request{Action: ActionFlashcards})
	assert.True(t, errors.Is(s.Commit(ticket, Artifact{Text: "nothing"}), ErrNoFlashcards))
	assert.Zero(t, s.Deck().Len())

	ticket, _ = s.Begin(Request{Action: ActionFlashcards})
	cards := []parse.Card{{Front: "A", Back: "1"}, {Front: "B", Back: "2"}, {Front: "C", Back: "3"}}
	require.NoError(t, s.Commit(ticket, Artifact{Text: "raw", Cards: cards}))

	require.NoError(t, s.FlipCard(1))
	assert.True(t, s.Deck().Cards()[1].Flipped)
	assert.ErrorIs(t, s.FlipCard(3), apperr.ErrInvalidInput)

	s.FlipAll(true)
	for _, c := range s.Deck().Cards() {
		assert.True(t, c.Flipped)
	}
	s.FlipAll(false)

	s.ShuffleDeck(rand.New(rand.NewSource(7)))
	fronts := map[string]string{}
	for _, c := range s.Deck().Cards() {
		fronts[c.Front] = c.Back
	}
	assert.Equal(t, map[string]string{"A": "1", "B": "2", "C": "3"}, fronts)
}
