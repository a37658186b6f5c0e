package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/study"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
	}
}

// Update sizes the viewport to what is left after the hero, status bar
// and message lines.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	const chrome = 10
	contentHeight := height - chrome
	if contentHeight < 6 {
		contentHeight = 6
	}
	l.viewportHeight = contentHeight
}

type displayView struct {
	content string
	anchors map[string]int
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) refreshViewport() {
	m.viewportDirty = false
	if !m.session.HasDocument() {
		m.viewport.SetContent("")
		return
	}
	view := m.buildDisplayContent()
	m.viewport.SetContent(view.content)
	if m.pendingFocusAnchor != "" {
		if line, ok := view.anchors[m.pendingFocusAnchor]; ok {
			m.viewport.SetYOffset(m.clampYOffset(line, view.content))
		}
		m.pendingFocusAnchor = ""
	}
}

func (m *model) clampYOffset(offset int, content string) int {
	lines := strings.Count(content, "\n") + 1
	maxOffset := lines - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width - padding
	if width < 20 {
		width = 20
	}
	return width
}

func (m *model) buildDisplayContent() displayView {
	cb := &contentBuilder{}
	anchors := map[string]int{}

	anchors[anchorOutput] = cb.Line()
	switch m.session.Mode() {
	case study.ModeQuiz:
		m.writeQuiz(cb)
	case study.ModeFlashcards:
		m.writeDeck(cb)
	case study.ModeSummary:
		m.writeSummary(cb)
	default:
		m.writeComprehension(cb, anchors)
	}

	cb.WriteRune('\n')
	anchors[anchorPage] = cb.Line()
	m.writePage(cb)

	cb.WriteRune('\n')
	anchors[anchorGuide] = cb.Line()
	m.writeGuide(cb)

	return displayView{content: cb.String(), anchors: anchors}
}

func (m *model) writeAIText(cb *contentBuilder, text string) {
	body := wordwrap.String(strings.TrimSpace(text), m.wrapWidth(4))
	cb.WriteString(indentMultiline(body, "  "))
	cb.WriteRune('\n')
}

func (m *model) writeComprehension(cb *contentBuilder, anchors map[string]int) {
	header := fmt.Sprintf("Comprehension · %s level", m.session.Level())
	cb.WriteString(sectionHeaderStyle.Render(header))
	cb.WriteRune('\n')
	text := m.session.LastAIText()
	switch {
	case text != "":
		cb.WriteString(helperStyle.Render(outputLabel(m.session.LastAction())))
		cb.WriteRune('\n')
		m.writeAIText(cb, text)
	default:
		cb.WriteString(helperStyle.Render("Press enter to analyze the document, or q to ask a question."))
		cb.WriteRune('\n')
	}

	suggestions := m.session.Suggestions()
	if len(suggestions) == 0 {
		return
	}
	cb.WriteRune('\n')
	anchors[anchorSuggest] = cb.Line()
	cb.WriteString(sectionHeaderStyle.Render("Suggested Questions"))
	cb.WriteRune('\n')
	wrap := m.wrapWidth(6)
	for i, s := range suggestions {
		marker := "  "
		line := wordwrap.String(s, wrap)
		if i == m.cursor {
			marker = "› "
			line = cursorStyle.Render(line)
		}
		cb.WriteString(marker + strings.ReplaceAll(line, "\n", "\n  "))
		cb.WriteRune('\n')
	}
}

func outputLabel(action study.Action) string {
	switch action {
	case study.ActionAsk:
		return "Answer"
	case study.ActionSuggest:
		return "Suggestions"
	case study.ActionFlashcards:
		return "Flashcards (raw)"
	case study.ActionSummary:
		return "Summary"
	default:
		return "Analysis"
	}
}

func (m *model) writeQuiz(cb *contentBuilder) {
	quiz := m.session.Quiz()
	cb.WriteString(sectionHeaderStyle.Render("Quiz"))
	cb.WriteRune('\n')
	switch quiz.Phase() {
	case study.QuizFinished:
		result := quiz.Result()
		cb.WriteString(scoreStyle.Render(fmt.Sprintf("Score: %d/%d (%d%%)", result.Score, result.Total, result.Percentage)))
		cb.WriteRune('\n')
		cb.WriteString(subtitleStyle.Render(result.Performance))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("Press r to retake or x to leave the quiz."))
		cb.WriteRune('\n')
		return
	case study.QuizNotStarted:
		cb.WriteString(helperStyle.Render("Press enter to generate a quiz from this document."))
		cb.WriteRune('\n')
		return
	}

	question, ok := quiz.Current()
	if !ok {
		return
	}
	cb.WriteString(helperStyle.Render(fmt.Sprintf("Question %d of %d · score %d", quiz.Index()+1, quiz.Total(), quiz.Score())))
	cb.WriteRune('\n')
	cb.WriteString(wordwrap.String(question.Prompt, m.wrapWidth(2)))
	cb.WriteRune('\n')
	wrap := m.wrapWidth(8)
	for i, option := range question.Options {
		line := fmt.Sprintf("%s) %s", optionLetter(i), option)
		line = wordwrap.String(line, wrap)
		marker := "  "
		switch {
		case quiz.Answered() && i == question.CorrectIndex:
			line = correctStyle.Render(line + " ✓")
		case quiz.Answered() && i == quiz.Selected():
			line = incorrectStyle.Render(line + " ✗")
		case !quiz.Answered() && i == m.cursor:
			marker = "› "
			line = cursorStyle.Render(line)
		}
		cb.WriteString("  " + marker + strings.ReplaceAll(line, "\n", "\n      "))
		cb.WriteRune('\n')
	}
	if m.lastAnswer != nil && strings.TrimSpace(m.lastAnswer.Explanation) != "" {
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("Explanation"))
		cb.WriteRune('\n')
		m.writeAIText(cb, m.lastAnswer.Explanation)
	}
}

func (m *model) writeDeck(cb *contentBuilder) {
	deck := m.session.Deck()
	cb.WriteString(sectionHeaderStyle.Render("Flashcards"))
	cb.WriteRune('\n')
	if deck.Len() == 0 {
		cb.WriteString(helperStyle.Render("Press enter to generate flashcards from this document."))
		cb.WriteRune('\n')
		return
	}
	wrap := m.wrapWidth(8)
	for i, card := range deck.Cards() {
		marker := "  "
		if i == m.cursor {
			marker = "› "
		}
		front := fmt.Sprintf("%d. %s", i+1, card.Front)
		if i == m.cursor {
			front = cursorStyle.Render(front)
		}
		cb.WriteString(marker + front)
		cb.WriteRune('\n')
		if card.Flipped {
			back := wordwrap.String(card.Back, wrap)
			cb.WriteString(cardBackStyle.Render(indentMultiline(back, "     ")))
			cb.WriteRune('\n')
		}
	}
}

func (m *model) writeSummary(cb *contentBuilder) {
	header := "Summary"
	if v := m.session.SummaryVariant(); v != "" {
		header = fmt.Sprintf("Summary · %s", v)
	}
	cb.WriteString(sectionHeaderStyle.Render(header))
	cb.WriteRune('\n')
	if m.session.LastAction() == study.ActionSummary && m.session.LastAIText() != "" {
		m.writeAIText(cb, m.session.LastAIText())
		cb.WriteString(helperStyle.Render("Press v to try another summary type."))
		cb.WriteRune('\n')
		return
	}
	cb.WriteString(helperStyle.Render("Press enter to summarize the document."))
	cb.WriteRune('\n')
}

func (m *model) writePage(cb *contentBuilder) {
	doc := m.session.Document()
	cb.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Page %d of %d", m.page, doc.PageCount)))
	cb.WriteRune('\n')
	text := doc.PageText(m.page)
	if strings.TrimSpace(text) == "" {
		cb.WriteString(helperStyle.Render("No text on this page."))
		cb.WriteRune('\n')
		return
	}
	preview := document.Clip(text, pagePreviewLimit)
	cb.WriteString(pageTextStyle.Render(indentMultiline(wordwrap.String(preview, m.wrapWidth(4)), "  ")))
	cb.WriteRune('\n')
	cb.WriteString(helperStyle.Render("[ / ] turn pages · Q asks about this page"))
	cb.WriteRune('\n')
}

func (m *model) writeGuide(cb *contentBuilder) {
	if len(m.guide) == 0 {
		return
	}
	cb.WriteString(sectionHeaderStyle.Render("Study Plan"))
	cb.WriteRune('\n')
	wrap := m.wrapWidth(6)
	for i, step := range m.guide {
		cb.WriteString(subjectStyle.Render(fmt.Sprintf("%d. %s", i+1, step.Title)))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(indentMultiline(wordwrap.String(step.Description, wrap), "   ")))
		cb.WriteRune('\n')
	}
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
