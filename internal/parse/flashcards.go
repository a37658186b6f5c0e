package parse

import (
	"strings"
)

const (
	frontMarker = "front:"
	backMarker  = "back:"
)

// Flashcards scans Front:/Back: pairs. Lines that carry neither marker are
// appended to whichever side is open. A card is emitted only when both sides
// are non-empty, so a trailing front without a back is dropped.
func Flashcards(raw string) []Card {
	cards := []Card{}
	var current *Card
	field := ""

	flush := func() {
		if current != nil && current.Front != "" && current.Back != "" {
			cards = append(cards, *current)
		}
		current = nil
		field = ""
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		marker, rest := splitMarker(line)
		switch marker {
		case frontMarker:
			flush()
			current = &Card{Front: rest}
			field = frontMarker
		case backMarker:
			if current == nil {
				continue
			}
			current.Back = rest
			field = backMarker
		default:
			if current == nil {
				continue
			}
			if field == frontMarker {
				current.Front = join(current.Front, line)
			} else {
				current.Back = join(current.Back, line)
			}
		}
	}
	flush()
	return cards
}

// splitMarker strips list bullets, headings and bold markup before looking
// for a marker, so "**Front:** term" and "- Back: text" both match.
func splitMarker(line string) (string, string) {
	cleaned := strings.TrimLeft(line, "-*#•> \t")
	cleaned = strings.TrimLeft(cleaned, "0123456789.) ")
	lower := strings.ToLower(cleaned)
	for _, marker := range []string{frontMarker, backMarker} {
		if strings.HasPrefix(lower, marker) {
			rest := cleaned[len(marker):]
			rest = strings.TrimLeft(rest, "* \t")
			return marker, strings.TrimSpace(rest)
		}
	}
	return "", line
}

func join(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + " " + addition
}
