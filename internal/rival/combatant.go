// Package rival models the rival sect and the boss that may replace it,
// and the heuristic turn both of them take on the AI cadence.
package rival

import (
	"math"

	"github.com/google/uuid"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/entropy"
)

// Buff is a time-limited modifier on a combatant.
type Buff struct {
	ID       string       `json:"id"`
	Kind     effects.Kind `json:"kind"`
	Value    float64      `json:"value"`
	Duration int          `json:"duration"` // Remaining economy ticks.
	Source   string       `json:"source"`
}

// CombatantCore is the state shared by rivals and bosses.
type CombatantCore struct {
	Name            string      `json:"name"`
	Art             string      `json:"art,omitempty"`
	Faith           float64     `json:"faith"` // Health pool, floored at 0.
	HeresyPerSecond float64     `json:"heresy_per_second"`
	Piles           cards.Piles `json:"piles"`
	Buffs           []Buff      `json:"buffs"`
}

// Def is the static description of a rival or boss.
type Def struct {
	Name            string    `yaml:"name"`
	Art             string    `yaml:"art"`
	Faith           float64   `yaml:"faith"`
	HeresyPerSecond float64   `yaml:"heresy_per_second"`
	Deck            []string  `yaml:"deck"`
	Abilities       []Ability `yaml:"abilities"`
}

// NewCore builds a combatant from its definition, shuffles its deck and
// draws an opening hand.
func NewCore(def *Def, deck []*cards.Card, rng entropy.Source) CombatantCore {
	c := CombatantCore{
		Name:            def.Name,
		Art:             def.Art,
		Faith:           def.Faith,
		HeresyPerSecond: def.HeresyPerSecond,
		Piles:           cards.NewPiles(deck, rng),
	}
	c.Piles.Draw(cards.MaxHandSize, rng)
	return c
}

// Damage lowers faith by amount, flooring at zero.
func (c *CombatantCore) Damage(amount float64) {
	c.Faith = math.Max(0, c.Faith-amount)
}

// AddBuff attaches a timed buff. Non-positive durations are ignored.
func (c *CombatantCore) AddBuff(kind effects.Kind, value float64, duration int, source string) {
	if duration <= 0 {
		return
	}
	if source == "" {
		source = "Unknown"
	}
	c.Buffs = append(c.Buffs, Buff{
		ID:       uuid.NewString(),
		Kind:     kind,
		Value:    value,
		Duration: duration,
		Source:   source,
	})
}

// TickBuffs decrements every buff and drops the expired ones.
func (c *CombatantCore) TickBuffs() {
	kept := c.Buffs[:0]
	for _, b := range c.Buffs {
		b.Duration--
		if b.Duration > 0 {
			kept = append(kept, b)
		}
	}
	c.Buffs = kept
}

// HeresyRateMultiplier is the product of all heresy-rate buffs.
func (c *CombatantCore) HeresyRateMultiplier() float64 {
	m := 1.0
	for _, b := range c.Buffs {
		if b.Kind == effects.RivalHeresyRateMultiplier {
			m *= b.Value
		}
	}
	return m
}

// Clone copies the core so a turn can be computed without touching the original.
func (c CombatantCore) Clone() CombatantCore {
	c.Piles = c.Piles.Clone()
	c.Buffs = append([]Buff(nil), c.Buffs...)
	return c
}

// Rival is the sect the player opens the game against.
type Rival struct {
	CombatantCore
	Defeated bool `json:"defeated"`
}

// Ability is a cooldown-gated boss special. The AI turn never uses these;
// the presentation layer fires them through Game.UseBossAbility.
type Ability struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Cooldown    int              `yaml:"cooldown" json:"cooldown"` // AI turns.
	Effects     []effects.Effect `yaml:"effects" json:"-"`
	ReadyAt     int              `yaml:"-" json:"ready_at"` // First AI turn the ability may fire.
}

// Boss replaces the rival as the combat target while present.
type Boss struct {
	CombatantCore
	Abilities []Ability `json:"abilities"`
	IsBoss    bool      `json:"is_boss"`
}

// NewBoss builds a boss from its definition.
func NewBoss(def *Def, deck []*cards.Card, rng entropy.Source) *Boss {
	return &Boss{
		CombatantCore: NewCore(def, deck, rng),
		Abilities:     append([]Ability(nil), def.Abilities...),
		IsBoss:        true,
	}
}

// ReadyAbilities returns the abilities whose cooldown has elapsed by turn.
func (b *Boss) ReadyAbilities(turn int) []Ability {
	var out []Ability
	for _, a := range b.Abilities {
		if turn >= a.ReadyAt {
			out = append(out, a)
		}
	}
	return out
}

// Ability returns the boss ability with the given ID.
func (b *Boss) Ability(id string) (*Ability, bool) {
	for i := range b.Abilities {
		if b.Abilities[i].ID == id {
			return &b.Abilities[i], true
		}
	}
	return nil, false
}

// UseAbility starts an ability's cooldown on turn. It fails if the ability
// is unknown or still cooling down.
func (b *Boss) UseAbility(id string, turn int) bool {
	a, ok := b.Ability(id)
	if !ok || turn < a.ReadyAt {
		return false
	}
	a.ReadyAt = turn + a.Cooldown
	return true
}
