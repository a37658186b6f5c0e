package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/csheth/studymind/internal/apperr"
)

func TestQuizPromptClipsToItsBudget(t *testing.T) {
	text := strings.Repeat("é", quizChars) + strings.Repeat("Ω", 100)
	content := QuizPrompt(text)[0].Content
	if strings.Contains(content, "Ω") {
		t.Fatalf("text past the quiz budget leaked into the prompt")
	}
	if strings.Count(content, "é") != quizChars {
		t.Fatalf("clipped on bytes instead of runes: %d", strings.Count(content, "é"))
	}
}

func TestAnalysisPromptUsesLevelAndBudget(t *testing.T) {
	text := strings.Repeat("a", analysisChars+500)
	msgs := AnalysisPrompt("advanced", text)
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "detailed technical language for experts") {
		t.Fatalf("missing level phrasing: %s", msgs[0].Content[:120])
	}
	if strings.Count(msgs[0].Content, "a") > analysisChars+50 {
		t.Fatalf("document text was not clipped")
	}
	if !strings.Contains(AnalysisPrompt("unknown", "x")[0].Content, "suitable for beginners") {
		t.Fatalf("unknown levels should fall back to basic")
	}
}

func TestSummaryPromptVariants(t *testing.T) {
	for _, variant := range SummaryVariants {
		msgs := SummaryPrompt(variant, "basic", "body text")
		if len(msgs) != 2 || msgs[0].Role != "system" {
			t.Fatalf("%s: expected system + user messages", variant)
		}
		if !strings.HasSuffix(msgs[1].Content, "Document content:\nbody text") {
			t.Fatalf("%s: document not appended: %q", variant, msgs[1].Content)
		}
	}
	if !strings.Contains(SummaryPrompt("executive", "advanced", "x")[1].Content, "experts and professionals") {
		t.Fatalf("summary level phrasing missing")
	}
	if SummaryPrompt("sectioned", "basic", "x")[1].Content == SummaryPrompt("detailed", "basic", "x")[1].Content {
		t.Fatalf("variants should produce distinct prompts")
	}
}

func TestAnswerPromptRejectsEmptyQuestion(t *testing.T) {
	if _, err := AnswerPrompt("comprehension", "basic", "   ", "text"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	msgs, err := AnswerPrompt("comprehension", "basic", "What is ATP?", "ATP is energy.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgs[0].Content != "You are a helpful assistant that answers questions about PDF content." {
		t.Fatalf("unexpected system prompt %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[1].Content, `"What is ATP?"`) {
		t.Fatalf("question missing: %s", msgs[1].Content)
	}
	plain, _ := AnswerPrompt("quiz", "basic", "Why?", "Because.")
	if plain[1].Content != "Why?\n\nPDF Content:\nBecause." {
		t.Fatalf("unexpected plain prompt %q", plain[1].Content)
	}
}

func TestTaskBudgets(t *testing.T) {
	if ExcerptBudget(TaskQuiz) != 2500 || MaxTokens(TaskQuiz) != 1500 {
		t.Fatalf("unexpected quiz budgets")
	}
	if ExcerptBudget(TaskQuestions) != 3000 || MaxTokens(TaskQuestions) != 1000 {
		t.Fatalf("unexpected question budgets")
	}
	if MaxTokens(TaskAnalysis) != 0 || MaxTokens(TaskSummary) != 2000 {
		t.Fatalf("unexpected default budgets")
	}
}
