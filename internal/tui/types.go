package tui

import (
	"github.com/csheth/studymind/internal/document"
	"github.com/csheth/studymind/internal/llm"
	"github.com/csheth/studymind/internal/study"
)

type stage int

const (
	stageInput stage = iota
	stageLoading
	stageDisplay
	stageComposer
	stageVariant
)

const (
	anchorGuide   = "guide"
	anchorPage    = "page"
	anchorOutput  = "output"
	anchorSuggest = "suggestions"
)

const heroTagline = "Study any PDF with an AI tutor."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	pagePreviewLimit          = 1200
)

type composerMode int

const (
	composerModeIdle composerMode = iota
	composerModeSource
	composerModeQuestion
	composerModeKey
)

// documentMsg reports a finished load from a path, URL or the relay.
type documentMsg struct {
	doc    *document.Document
	origin string
	err    error
}

// relayIdleMsg means the relay had nothing for us or could not be reached.
type relayIdleMsg struct {
	reason string
}

type generationMsg struct {
	ticket   study.Ticket
	artifact study.Artifact
	err      error
}

type keyValidatedMsg struct {
	provider string
	apiKey   string
	client   llm.Client
	err      error
}

type exportMsg struct {
	path string
	err  error
}

type recordTarget string

const (
	recordJournal recordTarget = "journal"
	recordPrefs   recordTarget = "preferences"
)

type recordMsg struct {
	target recordTarget
	err    error
}
