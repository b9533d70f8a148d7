package catalog

import (
	"fmt"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/effects"
)

// Skill is a skill tree node bought once with Divine Favor.
type Skill struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Art         string           `yaml:"art" json:"art,omitempty"`
	Description string           `yaml:"description" json:"description"`
	Tree        string           `yaml:"tree" json:"tree"`
	Cost        float64          `yaml:"cost" json:"cost"`
	DependsOn   []string         `yaml:"depends_on" json:"depends_on,omitempty"`
	Effects     []effects.Effect `yaml:"effects" json:"effects,omitempty"` // Passive.
	OnPlay      *CardBonus       `yaml:"on_play" json:"on_play,omitempty"`
	Active      []effects.Effect `yaml:"active" json:"active,omitempty"`
	Cooldown    int              `yaml:"cooldown" json:"cooldown,omitempty"` // Seconds between active uses.
}

// CardBonus changes how matching cards resolve. Empty match fields match
// every card.
type CardBonus struct {
	Card        string           `yaml:"card" json:"card,omitempty"`
	CardType    cards.Type       `yaml:"card_type" json:"card_type,omitempty"`
	Effect      effects.Kind     `yaml:"effect" json:"effect,omitempty"`
	Chance      float64          `yaml:"chance" json:"chance,omitempty"` // Zero always fires.
	Scale       float64          `yaml:"scale" json:"scale,omitempty"`   // Applies to the card's effects of kind Effect.
	CombatBonus float64          `yaml:"combat_bonus" json:"combat_bonus,omitempty"`
	Extra       []effects.Effect `yaml:"extra" json:"extra,omitempty"`
}

// Matches reports whether the bonus applies to c.
func (b *CardBonus) Matches(c *cards.Card) bool {
	if b.Card != "" && c.ID != b.Card {
		return false
	}
	if b.CardType != "" && c.Type != b.CardType {
		return false
	}
	return b.Effect == effects.Unhandled || c.HasEffect(b.Effect)
}

// Adjust returns e as modified by the bonus.
func (b *CardBonus) Adjust(e effects.Effect) effects.Effect {
	if b.Scale > 0 && b.Effect != effects.Unhandled && e.Kind == b.Effect {
		e.Value *= b.Scale
	}
	if e.Kind.IsCombat() {
		e.Value += b.CombatBonus
	}
	return e
}

// Skill returns the skill with the given ID.
func (c *Catalog) Skill(id string) (*Skill, bool) {
	s, ok := c.skillIndex[id]
	return s, ok
}

func (c *Catalog) indexSkills() error {
	c.skillIndex = make(map[string]*Skill, len(c.Skills))
	for _, s := range c.Skills {
		if _, dup := c.skillIndex[s.ID]; dup {
			return fmt.Errorf("duplicate skill %s", s.ID)
		}
		c.skillIndex[s.ID] = s
	}
	for _, s := range c.Skills {
		for _, dep := range s.DependsOn {
			if _, ok := c.skillIndex[dep]; !ok {
				return fmt.Errorf("skill %s depends on unknown skill %s", s.ID, dep)
			}
		}
	}
	return nil
}
