package llm

import (
	"fmt"
	"strings"

	"github.com/csheth/studymind/internal/apperr"
	"github.com/csheth/studymind/internal/document"
)

// Task identifies one kind of generated study artifact.
type Task string

const (
	TaskAnalysis   Task = "analysis"
	TaskQuestions  Task = "questions"
	TaskQuiz       Task = "quiz"
	TaskFlashcards Task = "flashcards"
	TaskSummary    Task = "summary"
	TaskAnswer     Task = "answer"
)

// Per-task excerpt sizes, in characters of document text.
const (
	analysisChars   = 4000
	questionsChars  = 3000
	quizChars       = 2500
	flashcardChars  = 4000
	answerChars     = 4000
	maxSummaryChars = 200_000
)

// ExcerptBudget reports how much document text a task's prompt carries.
// The prompt builders clip to the same budget, so callers may pass the
// full text.
func ExcerptBudget(task Task) int {
	switch task {
	case TaskAnalysis:
		return analysisChars
	case TaskQuestions:
		return questionsChars
	case TaskQuiz:
		return quizChars
	case TaskFlashcards:
		return flashcardChars
	case TaskAnswer:
		return answerChars
	default:
		return maxSummaryChars
	}
}

// MaxTokens reports the completion budget for a task; 0 means the client default.
func MaxTokens(task Task) int {
	switch task {
	case TaskQuestions:
		return 1000
	case TaskQuiz:
		return 1500
	case TaskSummary:
		return 2000
	default:
		return 0
	}
}

func analysisLevel(level string) string {
	switch level {
	case "intermediate":
		return "moderate complexity for general audiences"
	case "advanced":
		return "detailed technical language for experts"
	default:
		return "simple language suitable for beginners"
	}
}

func summaryLevel(level string) string {
	switch level {
	case "intermediate":
		return "moderate complexity for general audiences"
	case "advanced":
		return "detailed technical language for experts and professionals"
	default:
		return "simple, clear language suitable for beginners"
	}
}

func answerLevel(level string) string {
	switch level {
	case "intermediate":
		return "Provide a detailed explanation with moderate complexity."
	case "advanced":
		return "Provide a comprehensive, in-depth analysis with technical details."
	default:
		return "Provide a simple, easy-to-understand explanation suitable for beginners."
	}
}

// AnalysisPrompt asks for key concepts phrased for the comprehension level.
func AnalysisPrompt(level, text string) []Message {
	return []Message{User(fmt.Sprintf(`Analyze this document using %s. Provide:
1. Key concepts and main ideas
2. Important themes and arguments
3. Critical insights and takeaways
4. Potential questions for further study

Document content:
%s`, analysisLevel(level), document.Clip(text, analysisChars)))}
}

// QuestionsPrompt asks for five numbered study questions.
func QuestionsPrompt(text string) []Message {
	return []Message{User("Based on this document content, generate 5 thoughtful study questions " +
		"that would help someone understand the key concepts. Format as a numbered list:\n\n" +
		document.Clip(text, questionsChars))}
}

// QuizPrompt asks for a five question multiple choice quiz as JSON.
func QuizPrompt(text string) []Message {
	return []Message{User(`Create a 5-question multiple choice quiz based on this document. Each question should have 4 options (A, B, C, D) with only one correct answer. Format as JSON:

{
  "questions": [
    {
      "question": "Question text",
      "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
      "correct": 0,
      "explanation": "Why this answer is correct"
    }
  ]
}

Document content:
` + document.Clip(text, quizChars))}
}

// FlashcardsPrompt asks for up to ten Front:/Back: cards.
func FlashcardsPrompt(text string) []Message {
	return []Message{User(`Create up to 10 flashcards from this document. Format each as:
Front: [Question or term]
Back: [Answer or definition]

Focus on key concepts, important terms, and critical information. Keep answers concise but informative. Generate as many relevant flashcards as possible up to 10 cards to maximize learning value.

Document content:
` + document.Clip(text, flashcardChars))}
}

const summarySystem = "You are an expert document analyst. Create comprehensive, well-structured summaries " +
	"that flow as single cohesive blocks of text. Avoid bullet points or fragmented sections unless specifically requested."

// SummaryVariants lists the summary styles in menu order.
var SummaryVariants = []string{"comprehensive", "sectioned", "executive", "detailed"}

// SummaryPrompt builds the prompt for one summary variant over the full text.
func SummaryPrompt(variant, level, text string) []Message {
	style := summaryLevel(level)
	var body string
	switch variant {
	case "sectioned":
		body = fmt.Sprintf(`Create a detailed section-by-section summary using %s. Organize this as ONE COHESIVE DOCUMENT with clear section headers. For each major section:

- Identify the main topic and purpose of each section
- Summarize key points and supporting details
- Note important data, examples, or case studies
- Explain how each section connects to the overall document theme

Present this as a flowing, comprehensive analysis that maintains narrative coherence throughout.`, style)
	case "executive":
		body = fmt.Sprintf(`Create a concise executive summary using %s. Write this as ONE UNIFIED BLOCK that includes:

- Document purpose and scope in 2-3 sentences
- 5-7 most critical findings or main points
- Key conclusions and their significance
- Primary recommendations or implications
- Bottom-line impact or takeaway message

Keep this focused, impactful, and written as a single coherent summary block.`, style)
	case "detailed":
		body = fmt.Sprintf(`Create an in-depth analytical summary using %s. Write this as ONE COMPREHENSIVE ANALYSIS that includes:

- Detailed context and background information
- Thorough explanation of methodologies or approaches
- Complete analysis of findings, data, and evidence
- Critical evaluation of arguments and conclusions
- Broader implications and significance
- Connections to related fields or topics
- Potential limitations or areas for further research

Present this as a scholarly, flowing analysis that maintains depth while remaining accessible.`, style)
	default:
		body = fmt.Sprintf(`Create a comprehensive, full-document summary using %s. Write this as ONE COHESIVE BLOCK of text that flows naturally. Include:

- Executive overview of the main topic and purpose
- Key concepts, theories, and methodologies presented
- Main arguments, findings, and conclusions
- Important data, statistics, or evidence mentioned
- Practical applications and implications
- Future directions or recommendations if mentioned

Write this as a single, well-structured narrative summary that captures the essence of the entire document.`, style)
	}
	return []Message{
		System(summarySystem),
		User(body + "\n\nDocument content:\n" + document.Clip(text, maxSummaryChars)),
	}
}

// AnswerPrompt asks a free-form question. The mode shapes the answer the
// same way the dashboard's active study mode does.
func AnswerPrompt(mode, level, question, text string) ([]Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question cannot be empty", apperr.ErrInvalidInput)
	}
	var prompt string
	switch mode {
	case "comprehension":
		prompt = fmt.Sprintf("%s Answer this question about the document: %q\n\nDocument content:\n%s",
			answerLevel(level), question, document.Clip(text, answerChars))
	case "flashcards":
		prompt = fmt.Sprintf("Create flashcard-style content for: %q. Format as:\n\nFront: [Key concept/question]\nBack: [Answer/explanation]\n\nBased on this document:\n%s",
			question, document.Clip(text, questionsChars))
	case "summary":
		prompt = fmt.Sprintf("%s Create a summary focusing on: %q\n\nDocument content:\n%s",
			answerLevel(level), question, document.Clip(text, answerChars))
	default:
		prompt = fmt.Sprintf("%s\n\nPDF Content:\n%s", question, document.Clip(text, answerChars))
	}
	return []Message{
		System("You are a helpful assistant that answers questions about PDF content."),
		User(prompt),
	}, nil
}
