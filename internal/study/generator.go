package study

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/llm"
	"github.com/csheth/studymind/internal/parse"
)

// Generator turns a ticket into an artifact: prompt, one completion, parse.
type Generator struct {
	client llm.Client
	parser parse.StructuredResponseParser
	logger *zap.Logger
}

// NewGenerator wires a gateway and parser. A nil parser uses parse.Heuristic.
func NewGenerator(client llm.Client, parser parse.StructuredResponseParser, logger *zap.Logger) *Generator {
	if parser == nil {
		parser = parse.Heuristic{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, parser: parser, logger: logger}
}

// Run executes the request described by t against doc.
func (g *Generator) Run(ctx context.Context, doc *document.Document, t Ticket) (Artifact, error) {
	if doc == nil || doc.ID != t.DocumentID {
		return Artifact{}, ErrStaleResult
	}
	task, messages, err := g.prompt(doc, t)
	if err != nil {
		return Artifact{}, err
	}

	started := time.Now()
	raw, err := g.client.Complete(ctx, messages, llm.MaxTokens(task))
	fields := []zap.Field{
		zap.String("action", t.Action.String()),
		zap.String("document", doc.ID),
		zap.Uint64("generation", t.Generation),
		zap.Duration("elapsed", time.Since(started)),
	}
	if err != nil {
		g.logger.Warn("completion failed", append(fields, zap.Error(err))...)
		return Artifact{}, err
	}
	g.logger.Info("completion received", append(fields, zap.Int("chars", len(raw)))...)

	artifact := Artifact{Text: raw}
	switch t.Action {
	case ActionSuggest:
		artifact.Questions = g.parser.Questions(raw)
	case ActionFlashcards:
		artifact.Cards = g.parser.Flashcards(raw)
		if len(artifact.Cards) == 0 {
			return Artifact{}, ErrNoFlashcards
		}
	case ActionQuiz:
		questions, err := g.parser.Quiz(raw)
		if err != nil {
			g.logger.Warn("quiz parse failed", append(fields, zap.Error(err))...)
			return Artifact{}, err
		}
		artifact.Quiz = questions
	}
	return artifact, nil
}

func (g *Generator) prompt(doc *document.Document, t Ticket) (llm.Task, []llm.Message, error) {
	level := t.Level.String()
	switch t.Action {
	case ActionAnalyze:
		return llm.TaskAnalysis, llm.AnalysisPrompt(level, excerpt(doc, llm.TaskAnalysis)), nil
	case ActionSuggest:
		return llm.TaskQuestions, llm.QuestionsPrompt(excerpt(doc, llm.TaskQuestions)), nil
	case ActionQuiz:
		return llm.TaskQuiz, llm.QuizPrompt(excerpt(doc, llm.TaskQuiz)), nil
	case ActionFlashcards:
		return llm.TaskFlashcards, llm.FlashcardsPrompt(excerpt(doc, llm.TaskFlashcards)), nil
	case ActionSummary:
		variant := t.Variant
		if variant == "" {
			variant = VariantComprehensive
		}
		text := document.Clip(doc.FullText, llm.ExcerptBudget(llm.TaskSummary))
		return llm.TaskSummary, llm.SummaryPrompt(string(variant), level, text), nil
	case ActionAsk:
		text := excerpt(doc, llm.TaskAnswer)
		if t.Page > 0 {
			text = document.Clip(doc.PageText(t.Page), llm.ExcerptBudget(llm.TaskAnswer))
		}
		messages, err := llm.AnswerPrompt(t.Mode.String(), level, t.Question, text)
		return llm.TaskAnswer, messages, err
	default:
		return "", nil, fmt.Errorf("unsupported action %s", t.Action)
	}
}

func excerpt(doc *document.Document, task llm.Task) string {
	return document.Excerpt(doc.FullText, llm.ExcerptBudget(task))
}
