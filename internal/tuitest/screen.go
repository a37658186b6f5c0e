package tuitest

import (
	"regexp"
	"strings"
)

var (
	// bubbletea clears the screen (ESC [ ... J) before a full repaint.
	eraseDisplay = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	csiSequence  = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
	oscSequence  = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)
)

// splitFrames cuts raw terminal output into plain-text frames, dropping
// frames that render nothing visible.
func splitFrames(raw []byte) []string {
	text := strings.ReplaceAll(string(raw), "\r", "")
	var frames []string
	for _, segment := range eraseDisplay.Split(text, -1) {
		plain := tidy(plainText(segment))
		if plain != "" {
			frames = append(frames, plain)
		}
	}
	return frames
}

func plainText(s string) string {
	s = oscSequence.ReplaceAllString(s, "")
	s = csiSequence.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		// shift-in/out and NULs are charset noise
		if r == 0x0e || r == 0x0f || r == 0 {
			return -1
		}
		return r
	}, s)
}

// tidy trims trailing spaces on each line and trailing blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
