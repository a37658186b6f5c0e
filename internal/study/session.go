package study

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/csheth/studymind/internal/apperr"
	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/parse"
)

// Request describes one generation the user asked for.
type Request struct {
	Action   Action
	Variant  Variant
	Question string
	// Page scopes an ask to one 1-indexed page; 0 means the whole document.
	Page int
}

// Ticket identifies an in-flight generation. Only the most recent ticket
// for the current document may commit.
type Ticket struct {
	DocumentID string
	Generation uint64
	Mode       Mode
	Level      Level
	Request
}

// Artifact is a parsed generation result.
type Artifact struct {
	Text      string
	Questions []string
	Cards     []parse.Card
	Quiz      []parse.QuizQuestion
}

// Session is the state of one dashboard. It is not safe for concurrent use;
// the dashboard mutates it only from its update loop.
type Session struct {
	doc             *document.Document
	mode            Mode
	level           Level
	lastAIText      string
	lastAction      Action
	suggestions     []string
	quiz            Quiz
	deck            Deck
	summaryVariant  Variant
	awaitingVariant bool
	generation      uint64
	pending         *Ticket
}

// NewSession returns an idle session with no document.
func NewSession() *Session {
	return &Session{mode: ModeComprehension, level: LevelBasic}
}

// LoadDocument replaces the document and resets every artifact, the mode
// and the level. In-flight results for the old document become stale.
func (s *Session) LoadDocument(doc *document.Document) {
	generation := s.generation + 1
	*s = Session{
		doc:        doc,
		mode:       ModeComprehension,
		level:      LevelBasic,
		generation: generation,
	}
}

func (s *Session) Document() *document.Document { return s.doc }
func (s *Session) HasDocument() bool            { return s.doc != nil }
func (s *Session) Mode() Mode                   { return s.mode }
func (s *Session) Level() Level                 { return s.level }
func (s *Session) LastAIText() string           { return s.lastAIText }
func (s *Session) LastAction() Action           { return s.lastAction }
func (s *Session) Quiz() Quiz                   { return s.quiz }
func (s *Session) Deck() Deck                   { return s.deck }
func (s *Session) SummaryVariant() Variant      { return s.summaryVariant }
func (s *Session) AwaitingVariant() bool        { return s.awaitingVariant }

// Suggestions returns a copy of the suggested questions.
func (s *Session) Suggestions() []string {
	return append([]string(nil), s.suggestions...)
}

// Pending returns the in-flight ticket, if any.
func (s *Session) Pending() (Ticket, bool) {
	if s.pending == nil {
		return Ticket{}, false
	}
	return *s.pending, true
}

// SetMode switches activity. Mode-specific state is cleared and an
// in-flight request is superseded; the document and lastAIText survive.
func (s *Session) SetMode(m Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.suggestions = nil
	s.quiz = Quiz{}
	s.deck = Deck{}
	s.awaitingVariant = false
	s.supersede()
}

// SetLevel changes the comprehension level for subsequent requests.
func (s *Session) SetLevel(l Level) {
	s.level = l
}

// Begin registers a new request and returns its ticket, superseding any
// request still in flight.
func (s *Session) Begin(req Request) (Ticket, error) {
	if s.doc == nil {
		return Ticket{}, apperr.ErrNoDocumentLoaded
	}
	switch req.Action {
	case ActionAsk:
		req.Question = strings.TrimSpace(req.Question)
		if req.Question == "" {
			return Ticket{}, fmt.Errorf("%w: please enter a question", apperr.ErrInvalidInput)
		}
		if req.Page < 0 || req.Page > s.doc.PageCount {
			return Ticket{}, fmt.Errorf("%w: page %d out of range", apperr.ErrInvalidInput, req.Page)
		}
	case ActionSummary:
		if req.Variant == "" {
			req.Variant = VariantComprehensive
		}
		if !req.Variant.valid() {
			return Ticket{}, fmt.Errorf("%w: unknown summary type %q", apperr.ErrInvalidInput, req.Variant)
		}
	}
	s.generation++
	ticket := Ticket{
		DocumentID: s.doc.ID,
		Generation: s.generation,
		Mode:       s.mode,
		Level:      s.level,
		Request:    req,
	}
	s.pending = &ticket
	return ticket, nil
}

// PrimaryRequest is the request the main action key issues in the current mode.
func (s *Session) PrimaryRequest() Request {
	switch s.mode {
	case ModeQuiz:
		return Request{Action: ActionQuiz}
	case ModeFlashcards:
		return Request{Action: ActionFlashcards}
	case ModeSummary:
		return Request{Action: ActionSummary, Variant: s.summaryVariant}
	default:
		return Request{Action: ActionAnalyze}
	}
}

// RequestSummary starts a summary. Documents longer than SummaryThreshold
// characters need a variant first: needsChoice is returned and no ticket
// is issued until ChooseSummary.
func (s *Session) RequestSummary() (ticket Ticket, needsChoice bool, err error) {
	if s.doc == nil {
		return Ticket{}, false, apperr.ErrNoDocumentLoaded
	}
	if s.doc.Chars() > SummaryThreshold {
		s.awaitingVariant = true
		return Ticket{}, true, nil
	}
	ticket, err = s.Begin(Request{Action: ActionSummary, Variant: VariantComprehensive})
	return ticket, false, err
}

// ChooseSummary picks a variant and starts generation.
func (s *Session) ChooseSummary(v Variant) (Ticket, error) {
	if !v.valid() {
		return Ticket{}, fmt.Errorf("%w: unknown summary type %q", apperr.ErrInvalidInput, v)
	}
	ticket, err := s.Begin(Request{Action: ActionSummary, Variant: v})
	if err != nil {
		return Ticket{}, err
	}
	s.awaitingVariant = false
	return ticket, nil
}

// CancelSummaryChoice closes the variant picker without generating.
func (s *Session) CancelSummaryChoice() {
	s.awaitingVariant = false
}

// Commit applies a result if its ticket is still current. Nothing is
// changed when it returns an error.
func (s *Session) Commit(t Ticket, a Artifact) error {
	if !s.current(t) {
		return ErrStaleResult
	}
	switch t.Action {
	case ActionQuiz:
		if len(a.Quiz) == 0 {
			s.pending = nil
			return fmt.Errorf("%w: quiz has no questions", apperr.ErrQuizFormat)
		}
		s.quiz = newQuiz(a.Quiz)
	case ActionFlashcards:
		if len(a.Cards) == 0 {
			s.pending = nil
			return ErrNoFlashcards
		}
		s.deck = newDeck(a.Cards)
		s.lastAIText = a.Text
	case ActionSuggest:
		s.suggestions = append([]string(nil), a.Questions...)
		s.lastAIText = a.Text
	case ActionSummary:
		s.summaryVariant = t.Variant
		s.awaitingVariant = false
		s.lastAIText = a.Text
	default:
		s.lastAIText = a.Text
	}
	s.lastAction = t.Action
	s.pending = nil
	return nil
}

// Fail clears the pending request without touching any artifact.
func (s *Session) Fail(t Ticket) error {
	if !s.current(t) {
		return ErrStaleResult
	}
	s.pending = nil
	return nil
}

func (s *Session) current(t Ticket) bool {
	return s.pending != nil && s.doc != nil &&
		t.DocumentID == s.doc.ID && t.Generation == s.pending.Generation
}

func (s *Session) supersede() {
	if s.pending != nil {
		s.generation++
		s.pending = nil
	}
}

// UseSuggestion returns suggestion i without its list number, ready to ask.
func (s *Session) UseSuggestion(i int) (string, error) {
	if i < 0 || i >= len(s.suggestions) {
		return "", fmt.Errorf("%w: no suggestion %d", apperr.ErrInvalidInput, i+1)
	}
	return parse.StripNumbering(s.suggestions[i]), nil
}

// AnswerQuiz scores option for the current question.
func (s *Session) AnswerQuiz(option int) (AnswerResult, error) {
	return s.quiz.answer(option)
}

// NextQuestion advances, finishing the quiz after the last question.
func (s *Session) NextQuestion() error {
	return s.quiz.next()
}

// FinishQuiz ends the quiz early.
func (s *Session) FinishQuiz() error {
	return s.quiz.finish()
}

// RetakeQuiz discards the finished quiz and requests a new one.
func (s *Session) RetakeQuiz() (Ticket, error) {
	if s.quiz.phase != QuizFinished {
		return Ticket{}, ErrQuizNotActive
	}
	s.quiz = Quiz{}
	return s.Begin(Request{Action: ActionQuiz})
}

// AbandonQuiz drops the quiz and returns to comprehension mode.
func (s *Session) AbandonQuiz() {
	s.quiz = Quiz{}
	s.SetMode(ModeComprehension)
}

// FlipCard toggles card i.
func (s *Session) FlipCard(i int) error {
	return s.deck.flip(i)
}

// FlipAll shows every back when flipped is true, every front otherwise.
func (s *Session) FlipAll(flipped bool) {
	s.deck.setAll(flipped)
}

// ShuffleDeck reorders the cards.
func (s *Session) ShuffleDeck(r *rand.Rand) {
	s.deck.shuffle(r)
}
