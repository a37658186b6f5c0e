package study

import (
	"fmt"
	"math"

	"github.com/csheth/studymind/internal/apperr"
	"github.com/csheth/studymind/internal/parse"
)

// QuizPhase is the quiz sub-state.
type QuizPhase int

const (
	QuizNotStarted QuizPhase = iota
	QuizInProgress
	QuizFinished
)

func (p QuizPhase) String() string {
	switch p {
	case QuizInProgress:
		return "in progress"
	case QuizFinished:
		return "finished"
	default:
		return "not started"
	}
}

// Quiz tracks progress through a generated quiz. Each question is scored at
// most once.
type Quiz struct {
	questions []parse.QuizQuestion
	index     int
	score     int
	phase     QuizPhase
	answered  bool
	selected  int
}

// AnswerResult describes a scored answer.
type AnswerResult struct {
	Correct      bool
	CorrectIndex int
	Explanation  string
	// Last is set when no questions remain after this one.
	Last bool
}

// Result is the final score of a finished quiz.
type Result struct {
	Score       int
	Total       int
	Percentage  int
	Performance string
}

func newQuiz(questions []parse.QuizQuestion) Quiz {
	return Quiz{questions: questions, phase: QuizInProgress, selected: -1}
}

func (q Quiz) Phase() QuizPhase { return q.phase }
func (q Quiz) Index() int       { return q.index }
func (q Quiz) Score() int       { return q.score }
func (q Quiz) Total() int       { return len(q.questions) }
func (q Quiz) Answered() bool   { return q.answered }

// Selected is the option chosen for the current question, or -1.
func (q Quiz) Selected() int {
	if !q.answered {
		return -1
	}
	return q.selected
}

// Current returns the question being shown.
func (q Quiz) Current() (parse.QuizQuestion, bool) {
	if q.phase != QuizInProgress || q.index >= len(q.questions) {
		return parse.QuizQuestion{}, false
	}
	return q.questions[q.index], true
}

func (q *Quiz) answer(option int) (AnswerResult, error) {
	current, ok := q.Current()
	if !ok {
		return AnswerResult{}, ErrQuizNotActive
	}
	if q.answered {
		return AnswerResult{}, ErrAlreadyAnswered
	}
	if option < 0 || option >= len(current.Options) {
		return AnswerResult{}, fmt.Errorf("%w: option %d out of range", apperr.ErrInvalidInput, option+1)
	}
	q.answered = true
	q.selected = option
	correct := option == current.CorrectIndex
	if correct {
		q.score++
	}
	return AnswerResult{
		Correct:      correct,
		CorrectIndex: current.CorrectIndex,
		Explanation:  current.Explanation,
		Last:         q.index+1 == len(q.questions),
	}, nil
}

func (q *Quiz) next() error {
	if q.phase != QuizInProgress {
		return ErrQuizNotActive
	}
	if !q.answered {
		return ErrNoAnswerSelected
	}
	q.index++
	q.answered = false
	q.selected = -1
	if q.index >= len(q.questions) {
		q.phase = QuizFinished
	}
	return nil
}

func (q *Quiz) finish() error {
	if q.phase != QuizInProgress {
		return ErrQuizNotActive
	}
	if q.answered {
		q.index++
	}
	q.answered = false
	q.selected = -1
	q.phase = QuizFinished
	return nil
}

// Result scores the quiz against every question, answered or not.
func (q Quiz) Result() Result {
	total := len(q.questions)
	pct := Percentage(q.score, total)
	return Result{Score: q.score, Total: total, Percentage: pct, Performance: Performance(pct)}
}

// Percentage is round(100*score/total) clamped to [0,100]; 0 when total is 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(score) / float64(total)))
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// Performance labels a percentage.
func Performance(pct int) string {
	switch {
	case pct >= 90:
		return "Excellent!"
	case pct >= 70:
		return "Good job!"
	case pct >= 50:
		return "Keep studying!"
	default:
		return "Practice more!"
	}
}
