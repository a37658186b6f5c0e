package study

import (
	"fmt"
	"math/rand"

	"github.com/csheth/studymind/internal/apperr"
	"github.com/csheth/studymind/internal/parse"
)

// Flashcard is a parsed card plus its flip state.
type Flashcard struct {
	Front   string
	Back    string
	Flipped bool
}

// Deck is the flashcard set. Only Flipped and the order ever change.
type Deck struct {
	cards []Flashcard
}

func newDeck(cards []parse.Card) Deck {
	out := make([]Flashcard, len(cards))
	for i, c := range cards {
		out[i] = Flashcard{Front: c.Front, Back: c.Back}
	}
	return Deck{cards: out}
}

func (d Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the cards in display order.
func (d Deck) Cards() []Flashcard {
	out := make([]Flashcard, len(d.cards))
	copy(out, d.cards)
	return out
}

func (d *Deck) flip(i int) error {
	if i < 0 || i >= len(d.cards) {
		return fmt.Errorf("%w: card %d out of range", apperr.ErrInvalidInput, i+1)
	}
	d.cards[i].Flipped = !d.cards[i].Flipped
	return nil
}

func (d *Deck) setAll(flipped bool) {
	for i := range d.cards {
		d.cards[i].Flipped = flipped
	}
}

func (d *Deck) shuffle(r *rand.Rand) {
	r.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}
