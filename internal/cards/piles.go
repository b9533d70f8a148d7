package cards

import "github.com/talgya/pigeon-pope/internal/entropy"

// Piles is the deck, hand and discard of one player or sect. The three
// slices are disjoint and their combined length never changes after setup:
// cards only move between them.
type Piles struct {
	Deck    []*Card `json:"deck"`
	Hand    []*Card `json:"hand"`
	Discard []*Card `json:"discard"`
}

// NewPiles shuffles the given cards into a fresh deck.
func NewPiles(deck []*Card, rng entropy.Source) Piles {
	p := Piles{Deck: append([]*Card(nil), deck...)}
	rng.Shuffle(len(p.Deck), func(i, j int) { p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i] })
	return p
}

// Total is the combined size of all three piles.
func (p *Piles) Total() int {
	return len(p.Deck) + len(p.Hand) + len(p.Discard)
}

// Draw moves up to n cards from the top of the deck into the hand, stopping
// at MaxHandSize. When the deck runs dry the discard is shuffled back in
// first. If both are empty it stops quietly. Returns the number drawn.
func (p *Piles) Draw(n int, rng entropy.Source) int {
	drawn := 0
	for drawn < n && len(p.Hand) < MaxHandSize {
		if len(p.Deck) == 0 {
			if len(p.Discard) == 0 {
				break
			}
			p.reshuffle(rng)
		}
		top := len(p.Deck) - 1
		p.Hand = append(p.Hand, p.Deck[top])
		p.Deck[top] = nil
		p.Deck = p.Deck[:top]
		drawn++
	}
	return drawn
}

func (p *Piles) reshuffle(rng entropy.Source) {
	p.Deck = append(p.Deck, p.Discard...)
	p.Discard = nil
	rng.Shuffle(len(p.Deck), func(i, j int) { p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i] })
}

// FindInHand returns the first card in hand with the given ID.
func (p *Piles) FindInHand(id string) (*Card, bool) {
	for _, c := range p.Hand {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// DiscardFromHand moves the first card in hand with the given ID to the discard pile.
func (p *Piles) DiscardFromHand(id string) bool {
	for i, c := range p.Hand {
		if c.ID != id {
			continue
		}
		p.Hand = append(p.Hand[:i:i], p.Hand[i+1:]...)
		p.Discard = append(p.Discard, c)
		return true
	}
	return false
}

// Clone copies the pile slices. Card definitions stay shared.
func (p Piles) Clone() Piles {
	return Piles{
		Deck:    append([]*Card(nil), p.Deck...),
		Hand:    append([]*Card(nil), p.Hand...),
		Discard: append([]*Card(nil), p.Discard...),
	}
}
