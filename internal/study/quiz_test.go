package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/studymind/internal/apperr"
)

func TestAnswerScoresOncePerQuestion(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	startQuiz(t, s, 2)

	res, err := s.AnswerQuiz(1)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.False(t, res.Last)
	assert.Equal(t, "Because B.", res.Explanation)

	_, err = s.AnswerQuiz(1)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, 1, s.Quiz().Score())
	assert.Equal(t, 1, s.Quiz().Selected())

	require.NoError(t, s.NextQuestion())
	assert.Equal(t, -1, s.Quiz().Selected())
	res, err = s.AnswerQuiz(3)
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.True(t, res.Last)
	require.NoError(t, s.NextQuestion())

	q := s.Quiz()
	assert.Equal(t, QuizFinished, q.Phase())
	assert.Equal(t, Result{Score: 1, Total: 2, Percentage: 50, Performance: "Keep studying!"}, q.Result())
	assert.LessOrEqual(t, q.Score(), q.Index())
}

func TestQuizGuards(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	_, err := s.AnswerQuiz(0)
	assert.ErrorIs(t, err, ErrQuizNotActive)

	startQuiz(t, s, 1)
	assert.ErrorIs(t, s.NextQuestion(), ErrNoAnswerSelected)
	_, err = s.AnswerQuiz(4)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.AnswerQuiz(-1)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.RetakeQuiz()
	assert.ErrorIs(t, err, ErrQuizNotActive)
}

func TestFinishEarlyKeepsInvariant(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	startQuiz(t, s, 5)
	_, err := s.AnswerQuiz(1)
	require.NoError(t, err)
	require.NoError(t, s.FinishQuiz())

	q := s.Quiz()
	assert.Equal(t, QuizFinished, q.Phase())
	assert.Equal(t, 1, q.Index())
	assert.LessOrEqual(t, q.Score(), q.Index())
	assert.Equal(t, 20, q.Result().Percentage)
	assert.ErrorIs(t, s.FinishQuiz(), ErrQuizNotActive)
}

func TestRetakeAndAbandon(t *testing.T) {
	s := NewSession()
	s.LoadDocument(sampleDoc("cells"))
	startQuiz(t, s, 1)
	_, _ = s.AnswerQuiz(1)
	require.NoError(t, s.NextQuestion())

	ticket, err := s.RetakeQuiz()
	require.NoError(t, err)
	assert.Equal(t, ActionQuiz, ticket.Action)
	assert.Equal(t, QuizNotStarted, s.Quiz().Phase())
	require.NoError(t, s.Commit(ticket, Artifact{Quiz: sampleQuiz(3)}))
	assert.Equal(t, QuizInProgress, s.Quiz().Phase())
	assert.Equal(t, 0, s.Quiz().Score())

	s.AbandonQuiz()
	assert.Equal(t, ModeComprehension, s.Mode())
	assert.Equal(t, QuizNotStarted, s.Quiz().Phase())
}

func TestPercentageBounds(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 0, Percentage(3, 0))
	for total := 1; total <= 12; total++ {
		for score := 0; score <= total; score++ {
			pct := Percentage(score, total)
			assert.GreaterOrEqual(t, pct, 0)
			assert.LessOrEqual(t, pct, 100)
		}
	}
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(9, 3))
	assert.Equal(t, 0, Quiz{}.Result().Percentage)
}

func TestPerformanceLabels(t *testing.T) {
	assert.Equal(t, "Excellent!", Performance(90))
	assert.Equal(t, "Good job!", Performance(70))
	assert.Equal(t, "Keep studying!", Performance(50))
	assert.Equal(t, "Practice more!", Performance(49))
}

func TestParseModeAndLevel(t *testing.T) {
	m, err := ParseMode("Flashcards")
	require.NoError(t, err)
	assert.Equal(t, ModeFlashcards, m)
	_, err = ParseMode("reading")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	l, err := ParseLevel("advanced")
	require.NoError(t, err)
	assert.Equal(t, LevelBasic, l.Next())
	assert.Equal(t, "Summary", ModeSummary.Label())
}
