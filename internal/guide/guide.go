package guide

import (
	"fmt"
	"strings"
)

// Step represents one recommendation in the study plan.
type Step struct {
	Title       string
	Description string
}

// Metadata carries just enough context for personalizing the plan.
type Metadata struct {
	Title string
	Pages int
	Chars int
	// LongThreshold is the length above which summaries need a variant.
	LongThreshold int
}

// Build returns a study plan walking the four modes for one document.
func Build(meta Metadata) []Step {
	displayTitle := strings.TrimSpace(meta.Title)
	if displayTitle == "" {
		displayTitle = "this document"
	}
	size := ""
	if meta.Pages > 0 {
		size = fmt.Sprintf(" (%d pages)", meta.Pages)
	}

	summary := "Press 4 then enter for a single comprehensive summary to anchor what you read."
	if meta.LongThreshold > 0 && meta.Chars > meta.LongThreshold {
		summary = "The text is long, so press 4 then enter and pick a variant: sectioned for a walkthrough, executive for the key points."
	}

	return []Step{
		{
			Title:       "Skim",
			Description: fmt.Sprintf("Page through %s%s with [ and ] and note the headings and unfamiliar terms.", displayTitle, size),
		},
		{
			Title:       "Comprehension",
			Description: "Press 1 then enter for an analysis at the basic level. Raise the level with l once the core ideas are clear, and press s for questions worth asking.",
		},
		{
			Title:       "Summary",
			Description: summary,
		},
		{
			Title:       "Flashcards",
			Description: "Press 3 then enter and try to answer each front before flipping it with space. Shuffle with S on the second round.",
		},
		{
			Title:       "Quiz",
			Description: "Press 2 then enter to test yourself. Anything under 70% is a signal to go back to the flashcards before retaking.",
		},
	}
}
