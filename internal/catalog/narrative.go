package catalog

import (
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/entropy"
)

// Option is one reply in a dialogue. An empty NextID ends the conversation.
type Option struct {
	Text    string           `yaml:"text" json:"text"`
	NextID  string           `yaml:"next_id" json:"next_id,omitempty"`
	Effects []effects.Effect `yaml:"effects" json:"effects,omitempty"`
}

// Dialogue is a node of a conversation tree.
type Dialogue struct {
	ID      string   `yaml:"id" json:"id"`
	Speaker string   `yaml:"speaker" json:"speaker"`
	Art     string   `yaml:"art" json:"art,omitempty"`
	Text    string   `yaml:"text" json:"text"`
	Options []Option `yaml:"options" json:"options"`
}

// Dialogue returns the dialogue node with the given ID.
func (c *Catalog) Dialogue(id string) (*Dialogue, bool) {
	d, ok := c.dialogueIndex[id]
	return d, ok
}

// LootEntry is one weighted outcome of a loot table.
type LootEntry struct {
	Weight  float64          `yaml:"weight"`
	Effects []effects.Effect `yaml:"effects"`
}

// LootBox is an unopened reward with its drop table.
type LootBox struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Art         string      `yaml:"art" json:"art,omitempty"`
	Description string      `yaml:"description" json:"description"`
	Table       []LootEntry `yaml:"table" json:"-"`
}

// LootBox returns the loot box with the given ID.
func (c *Catalog) LootBox(id string) (*LootBox, bool) {
	b, ok := c.lootIndex[id]
	return b, ok
}

// OpenLootBox draws one weighted outcome from the box's table. Unknown
// boxes and empty tables yield nothing.
func (c *Catalog) OpenLootBox(id string, rng entropy.Source) ([]effects.Effect, bool) {
	box, ok := c.lootIndex[id]
	if !ok || len(box.Table) == 0 {
		return nil, false
	}
	return box.Draw(rng.Float64()), true
}

// Draw picks the entry that roll (in [0, 1)) lands on.
func (b *LootBox) Draw(roll float64) []effects.Effect {
	total := 0.0
	for _, e := range b.Table {
		total += e.Weight
	}
	r := roll * total
	for _, e := range b.Table {
		if r < e.Weight {
			return append([]effects.Effect(nil), e.Effects...)
		}
		r -= e.Weight
	}
	return append([]effects.Effect(nil), b.Table[0].Effects...)
}
