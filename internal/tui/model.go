package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/studymind/internal/apperr"
	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/guide"
	"github.com/csheth/studymind/internal/journal"
	"github.com/csheth/studymind/internal/llm"
	"github.com/csheth/studymind/internal/parse"
	"github.com/csheth/studymind/internal/relay"
	"github.com/csheth/studymind/internal/study"
)

// DocumentLoader fetches and extracts a PDF by URL.
type DocumentLoader interface {
	Load(ctx context.Context, rawURL string) (*document.Document, error)
}

// RelaySource hands over a PDF captured by a page observer.
type RelaySource interface {
	Consume(ctx context.Context) (relay.Envelope, bool, error)
}

// CredentialStore persists the API key and provider choice.
type CredentialStore interface {
	SaveAPIKey(ctx context.Context, key string) error
	SaveProvider(ctx context.Context, provider string) error
	Forget(ctx context.Context) error
}

// ClientFactory builds a gateway client for a provider and key.
type ClientFactory func(provider, apiKey string) (llm.Client, error)

// Config wires runtime options into the TUI program.
type Config struct {
	Provider string
	APIKey   string
	// LLM holds gateway defaults; Provider and APIKey above take precedence.
	LLM       llm.Config
	NewClient ClientFactory

	Loader DocumentLoader
	Relay  RelaySource
	Prefs  CredentialStore

	JournalPath string
	ExportDir   string
	// Source is loaded at startup instead of asking the relay.
	Source string

	Logger *zap.Logger
	Rand   *rand.Rand
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.NewClient == nil {
		config.NewClient = defaultClientFactory(config.LLM)
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	composer := textinput.New()
	composer.CharLimit = 400
	composer.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	m := &model{
		config:        config,
		logger:        logger,
		jobs:          newJobBus(logger.Named("jobs")),
		stage:         stageInput,
		composer:      composer,
		spinner:       spin,
		viewport:      vp,
		layout:        newPageLayout(),
		session:       study.NewSession(),
		viewportDirty: true,
		infoMessage:   "Enter a PDF path or URL to begin.",
	}

	provider := config.Provider
	if provider == "" {
		provider = config.LLM.Provider
	}
	if p, ok := llm.LookupProvider(provider); ok {
		m.provider = p.ID
	} else {
		m.provider = llm.Providers()[0].ID
		if provider != "" {
			m.errorMessage = fmt.Sprintf("Unknown provider %q, using %s.", provider, m.provider)
		}
	}
	if key := strings.TrimSpace(config.APIKey); key != "" {
		client, err := config.NewClient(m.provider, key)
		if err != nil {
			m.errorMessage = apperr.Message(err)
		} else {
			m.apiKey = key
			m.client = client
		}
	}
	m.startComposer(composerModeSource, "")
	return m
}

type model struct {
	config Config
	logger *zap.Logger
	jobs   *jobBus
	stage  stage

	composer     textinput.Model
	composerMode composerMode
	spinner      spinner.Model
	viewport     viewport.Model
	layout       pageLayout

	session  *study.Session
	provider string
	apiKey   string
	client   llm.Client
	guide    []guide.Step

	page          int
	cursor        int
	variantCursor int
	askPage       int
	lastAnswer    *study.AnswerResult
	quizRecorded  bool
	relayManual   bool

	loadingMessage     string
	infoMessage        string
	errorMessage       string
	helpVisible        bool
	viewportDirty      bool
	pendingFocusAnchor string
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	switch {
	case strings.TrimSpace(m.config.Source) != "":
		cmds = append(cmds, m.loadSource(m.config.Source))
	case m.config.Relay != nil:
		m.infoMessage = "Checking for a PDF captured in the browser…"
		cmds = append(cmds, m.jobs.Start(jobKindRelay, consumeRelayJob(m.config.Relay)))
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		return m, nil
	case jobResultEnvelope:
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.composer.Width = m.layout.viewportWidth - 4
		m.markViewportDirty()
		return m, nil
	case tea.MouseMsg:
		if m.stage == stageDisplay {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.jobs.Cancel(jobKindGenerate)
			return m, tea.Quit
		}
		return m.handleKey(msg)
	case documentMsg:
		return m, m.handleDocument(msg)
	case relayIdleMsg:
		return m, m.handleRelayIdle(msg)
	case generationMsg:
		return m, m.handleGeneration(msg)
	case keyValidatedMsg:
		return m, m.handleKeyValidated(msg)
	case exportMsg:
		if msg.err != nil {
			m.errorMessage = apperr.Message(msg.err)
		} else {
			m.errorMessage = ""
			m.infoMessage = fmt.Sprintf("Saved AI answer to %s", msg.path)
		}
		return m, nil
	case recordMsg:
		m.handleRecord(msg)
		return m, nil
	}
	return m, nil
}

func (m *model) busy() bool {
	if m.stage == stageLoading {
		return true
	}
	if _, ok := m.session.Pending(); ok {
		return true
	}
	return m.jobs.Running(jobKindValidate) || m.jobs.Running(jobKindExport)
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageInput, stageComposer:
		cmd, _ := m.processComposerKey(key)
		return m, cmd
	case stageLoading:
		if key.Type == tea.KeyEsc {
			m.jobs.Cancel(jobKindLoad)
			m.stage = stageInput
			if m.session.HasDocument() {
				m.stage = stageDisplay
			}
			m.infoMessage = "Loading canceled."
			return m, nil
		}
		return m, nil
	case stageVariant:
		return m, m.handleVariantKey(key)
	case stageDisplay:
		return m.handleDisplayKey(key)
	}
	return m, nil
}

// processComposerKey routes keys to the composer. The bool reports whether
// the key was consumed.
func (m *model) processComposerKey(key tea.KeyMsg) (tea.Cmd, bool) {
	switch key.Type {
	case tea.KeyEsc:
		if m.composerMode == composerModeSource && !m.session.HasDocument() {
			m.composer.SetValue("")
			m.errorMessage = ""
			return nil, true
		}
		m.closeComposer()
		m.infoMessage = "Canceled."
		return nil, true
	case tea.KeyEnter:
		value := strings.TrimSpace(m.composer.Value())
		return m.submitComposer(value), true
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	return cmd, true
}

func (m *model) submitComposer(value string) tea.Cmd {
	switch m.composerMode {
	case composerModeSource:
		if value == "" {
			m.errorMessage = "Enter a PDF path or URL."
			return nil
		}
		if isURL(value) {
			if _, err := document.ValidateURL(value); err != nil {
				m.errorMessage = apperr.Message(err)
				return nil
			}
		}
		m.composer.SetValue("")
		return m.loadSource(value)
	case composerModeQuestion:
		if value == "" {
			m.errorMessage = "Please enter a question."
			return nil
		}
		page := m.askPage
		m.composer.SetValue("")
		m.closeComposer()
		return m.begin(study.Request{Action: study.ActionAsk, Question: value, Page: page})
	case composerModeKey:
		if value == "" {
			m.errorMessage = "Please enter an API key."
			return nil
		}
		m.composer.SetValue("")
		m.closeComposer()
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Validating API key with %s…", m.providerLabel())
		return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindValidate, validateKeyJob(m.provider, value, m.config.NewClient)))
	}
	return nil
}

func (m *model) startComposer(mode composerMode, prefill string) {
	m.composerMode = mode
	m.composer.EchoMode = textinput.EchoNormal
	switch mode {
	case composerModeSource:
		m.composer.Placeholder = "~/papers/lecture.pdf or https://example.com/paper.pdf"
	case composerModeQuestion:
		m.composer.Placeholder = "Ask a question about the document…"
	case composerModeKey:
		m.composer.Placeholder = "sk-…"
		m.composer.EchoMode = textinput.EchoPassword
		m.composer.EchoCharacter = '•'
	}
	m.composer.SetValue(prefill)
	m.composer.CursorEnd()
	m.composer.Focus()
	if m.session.HasDocument() {
		m.stage = stageComposer
	} else {
		m.stage = stageInput
	}
}

func (m *model) closeComposer() {
	m.composer.Blur()
	m.composer.SetValue("")
	m.composerMode = composerModeIdle
	if m.session.HasDocument() {
		m.stage = stageDisplay
		return
	}
	m.startComposer(composerModeSource, "")
}

func (m *model) loadSource(source string) tea.Cmd {
	source = strings.TrimSpace(source)
	m.jobs.Cancel(jobKindRelay)
	m.composer.Blur()
	m.stage = stageLoading
	m.errorMessage = ""
	m.loadingMessage = fmt.Sprintf("Loading %s…", source)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindLoad, loadSourceJob(source, m.config.Loader)))
}

func (m *model) handleDocument(msg documentMsg) tea.Cmd {
	m.relayManual = false
	if msg.err != nil {
		m.logger.Warn("document load failed", zap.String("origin", msg.origin), zap.Error(msg.err))
		m.errorMessage = apperr.Message(msg.err)
		if m.session.HasDocument() {
			m.stage = stageDisplay
			return nil
		}
		m.infoMessage = "Enter a PDF path or URL to begin."
		m.startComposer(composerModeSource, "")
		return nil
	}

	doc := msg.doc
	m.jobs.Cancel(jobKindGenerate)
	m.session.LoadDocument(doc)
	m.guide = guide.Build(guide.Metadata{
		Title:         doc.SourceName,
		Pages:         doc.PageCount,
		Chars:         doc.Chars(),
		LongThreshold: study.SummaryThreshold,
	})
	m.page = 1
	m.cursor = 0
	m.lastAnswer = nil
	m.quizRecorded = false
	m.composer.Blur()
	m.composerMode = composerModeIdle
	m.stage = stageDisplay
	m.errorMessage = ""
	m.viewport.SetYOffset(0)
	m.pendingFocusAnchor = anchorOutput
	m.logger.Info("document loaded",
		zap.String("document", doc.ID),
		zap.String("name", doc.SourceName),
		zap.String("origin", msg.origin),
		zap.Int("pages", doc.PageCount),
		zap.Int("chars", doc.Chars()),
	)
	if strings.TrimSpace(doc.FullText) == "" {
		m.infoMessage = fmt.Sprintf("Loaded %s, but no text could be extracted.", doc.SourceName)
	} else {
		m.infoMessage = fmt.Sprintf("Loaded %s (%d pages). Press enter to analyze.", doc.SourceName, doc.PageCount)
	}
	m.markViewportDirty()
	return nil
}

func (m *model) handleRelayIdle(msg relayIdleMsg) tea.Cmd {
	if msg.reason != "" {
		m.logger.Info("relay unavailable", zap.String("reason", msg.reason))
	}
	manual := m.relayManual
	m.relayManual = false
	if m.stage == stageLoading {
		return nil
	}
	switch {
	case manual && msg.reason != "":
		m.errorMessage = fmt.Sprintf("Relay unavailable: %s", msg.reason)
	case manual:
		m.infoMessage = "No captured PDF is waiting on the relay."
	case !m.session.HasDocument():
		m.infoMessage = "Enter a PDF path or URL to begin."
	}
	return nil
}

func (m *model) handleDisplayKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session.Mode() == study.ModeQuiz {
		if cmd, handled := m.handleQuizKey(key); handled {
			m.markViewportDirty()
			return m, cmd
		}
	}
	if m.session.Mode() == study.ModeFlashcards && m.session.Deck().Len() > 0 {
		if handled := m.handleDeckKey(key); handled {
			m.markViewportDirty()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch key.String() {
	case "1", "2", "3", "4":
		modes := study.Modes()
		m.switchMode(modes[int(key.String()[0]-'1')])
	case "l":
		m.session.SetLevel(m.session.Level().Next())
		m.infoMessage = fmt.Sprintf("Comprehension level: %s", m.session.Level())
	case "enter":
		cmd = m.runPrimary()
	case "s":
		if m.session.Mode() != study.ModeComprehension {
			m.infoMessage = "Question suggestions live in comprehension mode (press 1)."
			break
		}
		cmd = m.begin(study.Request{Action: study.ActionSuggest})
	case "up":
		if n := len(m.session.Suggestions()); n > 0 && m.session.Mode() == study.ModeComprehension {
			if m.cursor > 0 {
				m.cursor--
			}
		} else {
			m.viewport.LineUp(1)
		}
	case "down":
		if n := len(m.session.Suggestions()); n > 0 && m.session.Mode() == study.ModeComprehension {
			if m.cursor < n-1 {
				m.cursor++
			}
		} else {
			m.viewport.LineDown(1)
		}
	case "a":
		question, err := m.session.UseSuggestion(m.cursor)
		if err != nil {
			m.errorMessage = "Press s to generate suggested questions first."
			break
		}
		m.openQuestion(0, question)
	case "q":
		m.openQuestion(0, "")
	case "Q":
		m.openQuestion(m.page, "")
	case "[":
		m.turnPage(-1)
	case "]":
		m.turnPage(1)
	case "e":
		cmd = m.export()
	case "o":
		m.startComposer(composerModeSource, "")
		m.infoMessage = "Enter a PDF path or URL."
	case "w":
		cmd = m.checkRelay()
	case "k":
		m.startComposer(composerModeKey, "")
		m.infoMessage = fmt.Sprintf("Enter your %s API key.", m.providerLabel())
	case "P":
		cmd = m.cycleProvider()
	case "F":
		cmd = m.forgetKey()
	case "v":
		if m.session.Mode() != study.ModeSummary {
			m.infoMessage = "Summary types apply in summary mode (press 4)."
			break
		}
		m.openVariantPicker()
	case "?":
		m.helpVisible = !m.helpVisible
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	case "pgup":
		m.viewport.HalfViewUp()
	case "pgdown":
		m.viewport.HalfViewDown()
	case "esc":
		if m.helpVisible {
			m.helpVisible = false
			break
		}
		return m, tea.Quit
	default:
		return m, nil
	}
	m.markViewportDirty()
	return m, cmd
}

func (m *model) switchMode(mode study.Mode) {
	if mode == m.session.Mode() {
		return
	}
	if _, ok := m.session.Pending(); ok {
		m.jobs.Cancel(jobKindGenerate)
	}
	m.session.SetMode(mode)
	m.cursor = 0
	m.lastAnswer = nil
	m.quizRecorded = false
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("%s mode. %s", mode.Label(), primaryHint(mode))
	m.pendingFocusAnchor = anchorOutput
}

func primaryHint(mode study.Mode) string {
	switch mode {
	case study.ModeQuiz:
		return "Press enter to generate a quiz."
	case study.ModeFlashcards:
		return "Press enter to generate flashcards."
	case study.ModeSummary:
		return "Press enter to summarize."
	default:
		return "Press enter to analyze."
	}
}

func (m *model) runPrimary() tea.Cmd {
	if m.session.Mode() == study.ModeSummary {
		return m.requestSummary()
	}
	return m.begin(m.session.PrimaryRequest())
}

func (m *model) ready() bool {
	if !m.session.HasDocument() {
		m.errorMessage = apperr.Message(apperr.ErrNoDocumentLoaded)
		return false
	}
	if m.client == nil {
		m.errorMessage = apperr.Message(apperr.ErrMissingCredential)
		return false
	}
	return true
}

func (m *model) begin(req study.Request) tea.Cmd {
	if !m.ready() {
		return nil
	}
	ticket, err := m.session.Begin(req)
	if err != nil {
		m.errorMessage = apperr.Message(err)
		return nil
	}
	return m.startGeneration(ticket)
}

func (m *model) startGeneration(ticket study.Ticket) tea.Cmd {
	m.errorMessage = ""
	m.lastAnswer = nil
	m.loadingMessage = progressLabel(ticket)
	m.infoMessage = m.loadingMessage
	gen := study.NewGenerator(m.client, parse.Heuristic{}, m.logger.Named("generator"))
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindGenerate, generateJob(gen, m.session.Document(), ticket)))
}

func progressLabel(t study.Ticket) string {
	switch t.Action {
	case study.ActionSuggest:
		return "Generating question suggestions…"
	case study.ActionQuiz:
		return "Generating quiz…"
	case study.ActionFlashcards:
		return "Generating flashcards…"
	case study.ActionSummary:
		return fmt.Sprintf("Generating %s summary…", t.Variant)
	case study.ActionAsk:
		if t.Page > 0 {
			return fmt.Sprintf("Answering your question about page %d…", t.Page)
		}
		return "Answering your question…"
	default:
		return fmt.Sprintf("Analyzing at the %s level…", t.Level)
	}
}

func (m *model) handleGeneration(msg generationMsg) tea.Cmd {
	if msg.err != nil {
		if err := m.session.Fail(msg.ticket); errors.Is(err, study.ErrStaleResult) {
			return nil
		}
		if errors.Is(msg.err, context.Canceled) {
			return nil
		}
		m.logger.Warn("generation failed", zap.String("action", msg.ticket.Action.String()), zap.Error(msg.err))
		m.errorMessage = apperr.Message(msg.err)
		m.infoMessage = ""
		m.markViewportDirty()
		return nil
	}
	if err := m.session.Commit(msg.ticket, msg.artifact); err != nil {
		if errors.Is(err, study.ErrStaleResult) {
			return nil
		}
		m.errorMessage = apperr.Message(err)
		m.infoMessage = ""
		m.markViewportDirty()
		return nil
	}
	m.errorMessage = ""
	m.cursor = 0
	m.quizRecorded = false
	m.pendingFocusAnchor = anchorOutput
	switch msg.ticket.Action {
	case study.ActionSuggest:
		m.infoMessage = "Pick a question with ↑/↓ and press a to ask it."
	case study.ActionQuiz:
		m.infoMessage = fmt.Sprintf("Quiz ready: %d questions. Answer with a-d or ↑/↓ and enter.", m.session.Quiz().Total())
	case study.ActionFlashcards:
		m.infoMessage = fmt.Sprintf("%d flashcards ready. Press space to flip.", m.session.Deck().Len())
	case study.ActionSummary:
		m.infoMessage = fmt.Sprintf("%s summary ready. Press e to export.", titleCase(string(msg.ticket.Variant)))
	default:
		m.infoMessage = "Done. Press e to export the answer."
	}
	m.markViewportDirty()
	return nil
}

func (m *model) requestSummary() tea.Cmd {
	if !m.ready() {
		return nil
	}
	ticket, needsChoice, err := m.session.RequestSummary()
	if err != nil {
		m.errorMessage = apperr.Message(err)
		return nil
	}
	if needsChoice {
		m.openVariantPicker()
		m.infoMessage = "This document is long. Choose a summary type."
		return nil
	}
	return m.startGeneration(ticket)
}

func (m *model) openVariantPicker() {
	m.variantCursor = 0
	current := m.session.SummaryVariant()
	for i, v := range study.Variants() {
		if v == current {
			m.variantCursor = i
		}
	}
	m.stage = stageVariant
}

func (m *model) handleVariantKey(key tea.KeyMsg) tea.Cmd {
	variants := study.Variants()
	switch key.String() {
	case "up", "k":
		if m.variantCursor > 0 {
			m.variantCursor--
		}
	case "down", "j":
		if m.variantCursor < len(variants)-1 {
			m.variantCursor++
		}
	case "1", "2", "3", "4":
		idx := int(key.String()[0] - '1')
		if idx < len(variants) {
			m.variantCursor = idx
			return m.chooseVariant(variants[idx])
		}
	case "enter":
		return m.chooseVariant(variants[m.variantCursor])
	case "esc":
		m.session.CancelSummaryChoice()
		m.stage = stageDisplay
		m.infoMessage = "Summary canceled."
	}
	return nil
}

func (m *model) chooseVariant(v study.Variant) tea.Cmd {
	m.stage = stageDisplay
	if !m.ready() {
		return nil
	}
	ticket, err := m.session.ChooseSummary(v)
	if err != nil {
		m.errorMessage = apperr.Message(err)
		return nil
	}
	m.markViewportDirty()
	return m.startGeneration(ticket)
}

func (m *model) handleQuizKey(key tea.KeyMsg) (tea.Cmd, bool) {
	quiz := m.session.Quiz()
	switch quiz.Phase() {
	case study.QuizInProgress:
		current, _ := quiz.Current()
		switch key.String() {
		case "up":
			if !quiz.Answered() && m.cursor > 0 {
				m.cursor--
			}
			return nil, true
		case "down":
			if !quiz.Answered() && m.cursor < len(current.Options)-1 {
				m.cursor++
			}
			return nil, true
		case "a", "b", "c", "d":
			idx := int(key.String()[0] - 'a')
			if idx < len(current.Options) && !quiz.Answered() {
				m.cursor = idx
				return m.answerQuiz(), true
			}
			return nil, true
		case "enter":
			if quiz.Answered() {
				return m.nextQuestion(), true
			}
			return m.answerQuiz(), true
		case "n":
			return m.nextQuestion(), true
		case "f":
			return m.finishQuiz(), true
		case "x", "esc":
			m.abandonQuiz()
			return nil, true
		}
	case study.QuizFinished:
		switch key.String() {
		case "r", "enter":
			return m.retakeQuiz(), true
		case "x", "esc":
			m.abandonQuiz()
			return nil, true
		}
	}
	return nil, false
}

func (m *model) answerQuiz() tea.Cmd {
	res, err := m.session.AnswerQuiz(m.cursor)
	if err != nil {
		m.errorMessage = apperr.Message(err)
		return nil
	}
	m.errorMessage = ""
	m.lastAnswer = &res
	next := "Press n for the next question."
	if res.Last {
		next = "Press n to see your score."
	}
	if res.Correct {
		m.infoMessage = "Correct! " + next
	} else {
		m.infoMessage = fmt.Sprintf("Incorrect. The answer was %s. %s", optionLetter(res.CorrectIndex), next)
	}
	return nil
}

func (m *model) nextQuestion() tea.Cmd {
	if err := m.session.NextQuestion(); err != nil {
		m.errorMessage = apperr.Message(err)
		return nil
	}
	m.errorMessage = ""
	m.lastAnswer = nil
	m.cursor = 0
	if m.session.Quiz().Phase() == study.QuizFinished {
		return m.recordQuiz()
	}
	quiz := m.session.Quiz()
	m.infoMessage = fmt.Sprintf("Question %d of %d.", quiz.Index()+1, quiz.Total())
	return nil
}

func (m *model) finishQuiz() tea.Cmd {
	if err := m.session.FinishQuiz(); err != nil {
		m.errorMessage = apperr.Message(err)
		return nil
	}
	m.lastAnswer = nil
	return m.recordQuiz()
}

func (m *model) recordQuiz() tea.Cmd {
	if m.quizRecorded {
		return nil
	}
	m.quizRecorded = true
	result := m.session.Quiz().Result()
	m.infoMessage = fmt.Sprintf("Quiz complete: %d/%d (%d%%) %s Press r to retake.", result.Score, result.Total, result.Percentage, result.Performance)
	m.logger.Info("quiz finished", zap.Int("score", result.Score), zap.Int("total", result.Total))
	if m.config.JournalPath == "" {
		return nil
	}
	doc := m.session.Document()
	entry := journal.QuizResult{
		Score:       result.Score,
		Total:       result.Total,
		Percentage:  result.Percentage,
		Performance: result.Performance,
		FinishedAt:  time.Now().UTC(),
	}
	if doc != nil {
		entry.DocumentID = doc.ID
		entry.DocumentName = doc.SourceName
	}
	return m.jobs.Start(jobKindJournal, recordQuizJob(m.config.JournalPath, entry))
}

func (m *model) retakeQuiz() tea.Cmd {
	if !m.ready() {
		return nil
	}
	ticket, err := m.session.RetakeQuiz()
	if err != nil {
		m.errorMessage = apperr.Message(err)
		return nil
	}
	m.cursor = 0
	m.quizRecorded = false
	return m.startGeneration(ticket)
}

func (m *model) abandonQuiz() {
	if _, ok := m.session.Pending(); ok {
		m.jobs.Cancel(jobKindGenerate)
	}
	m.session.AbandonQuiz()
	m.cursor = 0
	m.lastAnswer = nil
	m.infoMessage = "Left the quiz. Back in comprehension mode."
}

func (m *model) handleDeckKey(key tea.KeyMsg) bool {
	deck := m.session.Deck()
	switch key.String() {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down":
		if m.cursor < deck.Len()-1 {
			m.cursor++
		}
	case " ":
		if err := m.session.FlipCard(m.cursor); err != nil {
			m.errorMessage = apperr.Message(err)
		}
	case "A":
		m.session.FlipAll(!allFlipped(deck.Cards()))
	case "R":
		m.session.FlipAll(false)
		m.infoMessage = "All cards reset to the front."
	case "S":
		m.session.ShuffleDeck(m.config.Rand)
		m.cursor = 0
		m.infoMessage = "Cards shuffled."
	default:
		return false
	}
	return true
}

func allFlipped(cards []study.Flashcard) bool {
	for _, c := range cards {
		if !c.Flipped {
			return false
		}
	}
	return len(cards) > 0
}

func (m *model) openQuestion(page int, prefill string) {
	if !m.session.HasDocument() {
		m.errorMessage = apperr.Message(apperr.ErrNoDocumentLoaded)
		return
	}
	m.askPage = page
	m.startComposer(composerModeQuestion, prefill)
	if page > 0 {
		m.infoMessage = fmt.Sprintf("Ask about page %d.", page)
	} else {
		m.infoMessage = "Ask about the whole document."
	}
}

func (m *model) turnPage(delta int) {
	doc := m.session.Document()
	if doc == nil || doc.PageCount == 0 {
		return
	}
	next := m.page + delta
	if next < 1 || next > doc.PageCount {
		return
	}
	m.page = next
	m.pendingFocusAnchor = anchorPage
}

func (m *model) export() tea.Cmd {
	text := m.session.LastAIText()
	if strings.TrimSpace(text) == "" {
		m.errorMessage = "Nothing to export yet."
		return nil
	}
	entry := journal.Artifact{
		Mode:      m.session.Mode().String(),
		Level:     m.session.Level().String(),
		Action:    m.session.LastAction().String(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if doc := m.session.Document(); doc != nil {
		entry.DocumentID = doc.ID
		entry.DocumentName = doc.SourceName
	}
	m.infoMessage = "Exporting…"
	return m.jobs.Start(jobKindExport, exportJob(m.config.ExportDir, m.config.JournalPath, entry))
}

func (m *model) checkRelay() tea.Cmd {
	if m.config.Relay == nil {
		m.errorMessage = "No relay is configured."
		return nil
	}
	m.relayManual = true
	m.infoMessage = "Checking the relay for a captured PDF…"
	return m.jobs.Start(jobKindRelay, consumeRelayJob(m.config.Relay))
}

func (m *model) cycleProvider() tea.Cmd {
	next := llm.NextProvider(m.provider)
	m.provider = next.ID
	m.client = nil
	if m.apiKey != "" {
		client, err := m.config.NewClient(m.provider, m.apiKey)
		if err != nil {
			m.errorMessage = apperr.Message(err)
		} else {
			m.client = client
		}
	}
	m.infoMessage = fmt.Sprintf("AI provider: %s", next.Label)
	if m.config.Prefs == nil {
		return nil
	}
	return m.jobs.Start(jobKindPrefs, saveProviderJob(m.config.Prefs, m.provider))
}

func (m *model) forgetKey() tea.Cmd {
	m.apiKey = ""
	m.client = nil
	m.infoMessage = "Stored API key removed. Press k to enter a new one."
	if m.config.Prefs == nil {
		return nil
	}
	return m.jobs.Start(jobKindPrefs, forgetCredentialsJob(m.config.Prefs))
}

func (m *model) handleKeyValidated(msg keyValidatedMsg) tea.Cmd {
	if msg.provider != m.provider {
		m.logger.Info("key check dropped after provider change",
			zap.String("checked", msg.provider), zap.String("current", m.provider))
		m.infoMessage = fmt.Sprintf("Provider changed to %s while checking the key. Press k to enter it again.", m.providerLabel())
		return nil
	}
	if msg.err != nil {
		m.errorMessage = apperr.Message(msg.err)
		m.infoMessage = "Press k to try another key."
		return nil
	}
	m.apiKey = msg.apiKey
	m.client = msg.client
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("API key verified and saved for %s.", m.providerLabel())
	if m.config.Prefs == nil {
		return nil
	}
	return m.jobs.Start(jobKindPrefs, saveCredentialsJob(m.config.Prefs, msg.provider, msg.apiKey))
}

func (m *model) handleRecord(msg recordMsg) {
	switch {
	case msg.err == nil:
		return
	case errors.Is(msg.err, context.Canceled):
		m.logger.Debug("write canceled", zap.String("target", string(msg.target)))
		return
	}
	m.logger.Warn("write failed", zap.String("target", string(msg.target)), zap.Error(msg.err))
	if msg.target == recordPrefs {
		m.errorMessage = fmt.Sprintf("Could not save preferences: %v", msg.err)
		return
	}
	m.errorMessage = fmt.Sprintf("Could not record to the journal: %v", msg.err)
}

func (m *model) providerLabel() string {
	if p, ok := llm.LookupProvider(m.provider); ok {
		return p.Label
	}
	return m.provider
}

func optionLetter(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
