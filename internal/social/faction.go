// Package social tracks the rival animal factions: relationship scores,
// diplomatic status, treaties and alliance bonuses.
package social

import (
	"math"

	"github.com/talgya/pigeon-pope/internal/effects"
)

// Status is a faction's diplomatic stance toward the player.
type Status string

const (
	Neutral  Status = "Neutral"
	Rivalry  Status = "Rivalry"
	Alliance Status = "Alliance"
)

// Diplomacy thresholds.
const (
	MinRelationship = -100
	MaxRelationship = 100

	TreatyFavorCost         = 10
	TreatyRelationshipMin   = 20
	AllianceRelationshipMin = 80
)

// Treaty is a toggle-able bonus. Once active it stays active.
type Treaty struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Effect      effects.Effect `yaml:"effect" json:"effect"`
	Active      bool           `yaml:"-" json:"active"`
}

// Faction is a rival animal organization and the player's standing with it.
type Faction struct {
	ID            string          `yaml:"id" json:"id"`
	Name          string          `yaml:"name" json:"name"`
	Description   string          `yaml:"description" json:"description"`
	Relationship  float64         `yaml:"relationship" json:"relationship"` // -100 to +100
	Status        Status          `yaml:"-" json:"status"`
	Power         float64         `yaml:"power" json:"power"`
	Treaties      []*Treaty       `yaml:"treaties" json:"treaties"`
	AllianceBonus *effects.Effect `yaml:"alliance_bonus,omitempty" json:"alliance_bonus,omitempty"`
	DialogueID    string          `yaml:"dialogue_id" json:"dialogue_id"`
}

// Shift moves the relationship by delta, clamped to [-100, 100].
func (f *Faction) Shift(delta float64) {
	f.Relationship = math.Max(MinRelationship, math.Min(MaxRelationship, f.Relationship+delta))
}

// HasActiveTreaty reports whether any treaty with the faction is in force.
func (f *Faction) HasActiveTreaty() bool {
	for _, t := range f.Treaties {
		if t.Active {
			return true
		}
	}
	return false
}

// ActiveTreatyEffects returns the effects of every treaty in force.
func (f *Faction) ActiveTreatyEffects() []effects.Effect {
	var out []effects.Effect
	for _, t := range f.Treaties {
		if t.Active {
			out = append(out, t.Effect)
		}
	}
	return out
}

// NextTreaty returns the first treaty not yet signed, or nil.
func (f *Faction) NextTreaty() *Treaty {
	for _, t := range f.Treaties {
		if !t.Active {
			return t
		}
	}
	return nil
}

// Clone deep-copies the faction's mutable state.
func (f *Faction) Clone() *Faction {
	c := *f
	c.Treaties = make([]*Treaty, len(f.Treaties))
	for i, t := range f.Treaties {
		tc := *t
		c.Treaties[i] = &tc
	}
	return &c
}

// Find returns the faction with the given ID, or nil.
func Find(factions []*Faction, id string) *Faction {
	for _, f := range factions {
		if f.ID == id {
			return f
		}
	}
	return nil
}
