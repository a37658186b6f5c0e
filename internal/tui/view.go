package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/studymind/internal/study"
)

func (m *model) View() string {
	switch m.stage {
	case stageInput:
		return m.viewInput()
	case stageLoading:
		return m.viewLoading()
	case stageComposer:
		return joinNonEmpty([]string{m.viewDisplay(), m.composerPanel()})
	case stageVariant:
		return joinNonEmpty([]string{m.viewDisplay(), m.variantPickerView()})
	case stageDisplay:
		return m.viewDisplay()
	default:
		return ""
	}
}

func (m *model) viewInput() string {
	parts := []string{m.heroView(), m.welcomeView(), m.composerPanel()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	return joinNonEmpty(parts)
}

func (m *model) viewLoading() string {
	body := fmt.Sprintf("%s %s", m.spinner.View(), m.loadingMessage)
	return joinNonEmpty([]string{m.heroView(), body, helperStyle.Render("Esc cancels.")})
}

func (m *model) viewDisplay() string {
	if !m.session.HasDocument() {
		return m.viewInput()
	}
	m.refreshViewportIfDirty()
	parts := []string{m.heroView(), m.statusBarView(), m.viewport.View()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if _, pending := m.session.Pending(); pending {
			message = fmt.Sprintf("%s %s", m.spinner.View(), m.loadingMessage)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView(), m.helpView())
	} else {
		parts = append(parts, helperStyle.Render("Press ? for keys."))
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	title := heroTitleStyle.Render("StudyMind AI")
	doc := m.session.Document()
	if doc == nil {
		return lipgloss.JoinVertical(lipgloss.Left, heroBoxStyle.Render(title), taglineStyle.Render(heroTagline))
	}
	name := heroTitleStyle.Render(wordwrap.String(doc.SourceName, 48))
	meta := []string{helperStyle.Render(fmt.Sprintf("%d pages · %d characters", doc.PageCount, doc.Chars()))}
	if doc.SourceURL != "" {
		meta = append(meta, helperStyle.Render(doc.SourceURL))
	}
	summary := heroBoxStyle.Render(strings.Join(append([]string{name}, meta...), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, heroBoxStyle.Render(title), heroSummaryStyle.Render(summary))
}

func (m *model) welcomeView() string {
	lines := []string{
		sectionHeaderStyle.Render("Welcome"),
		"Open a PDF from disk or the web and StudyMind will analyze it, quiz you,",
		"build flashcards and write summaries at the level you choose.",
		helperStyle.Render("PDFs captured with `studymind relay publish` open automatically."),
	}
	if m.client == nil {
		lines = append(lines, helperStyle.Render("No API key yet: after loading a document press k to add one."))
	}
	return strings.Join(lines, "\n")
}

func (m *model) statusBarView() string {
	stats := []string{
		fmt.Sprintf("Mode %s", m.session.Mode().Label()),
		fmt.Sprintf("Level %s", m.session.Level()),
	}
	if doc := m.session.Document(); doc != nil && doc.PageCount > 0 {
		stats = append(stats, fmt.Sprintf("Page %d/%d", m.page, doc.PageCount))
	}
	key := "no key"
	if m.client != nil {
		key = "key ✓"
	}
	stats = append(stats, fmt.Sprintf("%s (%s)", m.providerLabel(), key))
	if _, pending := m.session.Pending(); pending {
		stats = append(stats, "AI working…")
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) composerPanel() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render(m.composerTitle()),
		m.composer.View(),
		helperStyle.Render(m.composerHelpText()),
	})
}

func (m *model) composerTitle() string {
	switch m.composerMode {
	case composerModeQuestion:
		if m.askPage > 0 {
			return fmt.Sprintf("Ask about page %d", m.askPage)
		}
		return "Ask the document"
	case composerModeKey:
		return fmt.Sprintf("%s API key", m.providerLabel())
	default:
		return "Open a PDF"
	}
}

func (m *model) composerHelpText() string {
	switch m.composerMode {
	case composerModeKey:
		return "Enter validates and saves the key. Esc cancels."
	case composerModeQuestion:
		return "Enter asks. Esc cancels."
	default:
		if m.session.HasDocument() {
			return "Enter a file path or http(s) URL. Esc keeps the current document."
		}
		return "Enter a file path or http(s) URL. Esc clears. Ctrl+C quits."
	}
}

func (m *model) variantPickerView() string {
	rows := []string{sectionHeaderStyle.Render("Choose a summary type")}
	for i, v := range study.Variants() {
		label := fmt.Sprintf("%d. %-13s %s", i+1, v, v.Description())
		if i == m.variantCursor {
			rows = append(rows, cursorStyle.Render("› "+label))
			continue
		}
		rows = append(rows, "  "+label)
	}
	rows = append(rows, helperStyle.Render("↑/↓ and enter, or 1-4. Esc cancels."))
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyHints() []keyHint {
	hints := []keyHint{
		{"1-4", "Mode"},
		{"enter", primaryLabel(m.session.Mode())},
		{"l", "Cycle level"},
		{"q/Q", "Ask document/page"},
		{"[/]", "Turn page"},
		{"e", "Export answer"},
	}
	switch m.session.Mode() {
	case study.ModeComprehension:
		hints = append(hints, keyHint{"s", "Suggest questions"}, keyHint{"a", "Ask suggestion"})
	case study.ModeQuiz:
		hints = append(hints, keyHint{"a-d", "Answer"}, keyHint{"n", "Next"}, keyHint{"f", "Finish"}, keyHint{"r", "Retake"}, keyHint{"x", "Leave quiz"})
	case study.ModeFlashcards:
		hints = append(hints, keyHint{"space", "Flip"}, keyHint{"A", "Flip all"}, keyHint{"R", "Reset"}, keyHint{"S", "Shuffle"})
	case study.ModeSummary:
		hints = append(hints, keyHint{"v", "Summary type"})
	}
	return append(hints,
		keyHint{"o", "Open PDF"},
		keyHint{"w", "Check relay"},
		keyHint{"k", "Set API key"},
		keyHint{"P", "Switch provider"},
		keyHint{"F", "Forget key"},
		keyHint{"?", "Toggle help"},
	)
}

func primaryLabel(mode study.Mode) string {
	switch mode {
	case study.ModeQuiz:
		return "Start quiz"
	case study.ModeFlashcards:
		return "Make cards"
	case study.ModeSummary:
		return "Summarize"
	default:
		return "Analyze"
	}
}

func (m *model) keyLegendView() string {
	hints := m.keyHints()
	rows := []string{sectionHeaderStyle.Render("Key Reference")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(fmt.Sprintf(" %-18s", hint.Description))
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("How it works"),
		helperStyle.Render("• 1 comprehension, 2 quiz, 3 flashcards, 4 summary. Switching mode drops a request still in flight."),
		helperStyle.Render("• l cycles basic, intermediate and advanced. The level shapes analyses, answers and summaries."),
		helperStyle.Render("• Summaries of long documents ask for a type first: comprehensive, sectioned, executive or detailed."),
		helperStyle.Render("• e writes the latest answer to ai_answer.txt and records it in the journal."),
		helperStyle.Render("• Esc leaves overlays, Ctrl+C quits."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

var (
	subtitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	subjectStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pageTextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	correctStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a3be8c"))
	incorrectStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#bf616a"))
	cardBackStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd166")).Italic(true)
	scoreStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	heroBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Foreground(heroTextColor).Background(heroEmberColor).Padding(0, 2)
	heroSummaryStyle = lipgloss.NewStyle().PaddingLeft(2)
	taglineStyle     = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	helpBoxStyle     = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
)
