// Package cards defines card definitions and the deck/hand/discard piles
// shared by the player and by rival sects.
package cards

import (
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
)

// MaxHandSize bounds every hand.
const MaxHandSize = 5

// Type is flavor only; behavior comes from the effect list.
type Type string

const (
	Miracle    Type = "Miracle"
	Propaganda Type = "Propaganda"
	Ritual     Type = "Ritual"
	Conflict   Type = "Conflict"
)

// Cost is the price of playing a card.
type Cost struct {
	Resource economy.Resource `yaml:"resource" json:"resource"`
	Amount   float64          `yaml:"amount" json:"amount"`
}

// Card is an immutable card definition. Piles hold pointers to the shared
// definition, so two copies of the same card in a deck compare equal by ID.
type Card struct {
	ID      string           `yaml:"id" json:"id"`
	Name    string           `yaml:"name" json:"name"`
	Type    Type             `yaml:"type" json:"type"`
	Art     string           `yaml:"art,omitempty" json:"art,omitempty"`
	Text    string           `yaml:"text,omitempty" json:"text,omitempty"`
	Cost    Cost             `yaml:"cost" json:"cost"`
	Effects []effects.Effect `yaml:"effects" json:"effects"`
}

// HasEffect reports whether any of the card's effects is of kind k.
func (c *Card) HasEffect(k effects.Kind) bool {
	for _, e := range c.Effects {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// IDs returns the card IDs of a pile in order.
func IDs(pile []*Card) []string {
	out := make([]string, len(pile))
	for i, c := range pile {
		out[i] = c.ID
	}
	return out
}
