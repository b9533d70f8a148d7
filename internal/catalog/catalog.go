// Package catalog loads the static game content: cards, buildings, relics,
// loot boxes, factions, dogmas, skills, weather, quests, dialogues and the
// rival and boss definitions. The default content is embedded; a YAML file
// of the same shape may replace it.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/quest"
	"github.com/talgya/pigeon-pope/internal/rival"
	"github.com/talgya/pigeon-pope/internal/rules"
	"github.com/talgya/pigeon-pope/internal/social"
	"github.com/talgya/pigeon-pope/internal/weather"
)

//go:embed content.yaml
var defaultContent []byte

// Relic is a permanent passive bonus.
type Relic struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Art         string         `yaml:"art" json:"art,omitempty"`
	Description string         `yaml:"description" json:"description"`
	Effect      effects.Effect `yaml:"effect" json:"effect"`
}

// Dogma is a session-long global modifier chosen once.
type Dogma struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Art         string         `yaml:"art" json:"art,omitempty"`
	Description string         `yaml:"description" json:"description"`
	Effect      effects.Effect `yaml:"effect" json:"effect"`
}

// Catalog is the full static content set.
type Catalog struct {
	Cards        []*cards.Card          `yaml:"cards"`
	StartingDeck []string               `yaml:"starting_deck"`
	Buildings    []*economy.BuildingDef `yaml:"buildings"`
	Relics       []*Relic               `yaml:"relics"`
	LootBoxes    []*LootBox             `yaml:"loot_boxes"`
	Factions     []*social.Faction      `yaml:"factions"`
	Triggers     []rules.Trigger        `yaml:"triggers"`
	Dogmas       []*Dogma               `yaml:"dogmas"`
	Skills       []*Skill               `yaml:"skills"`
	Weather      []*weather.Def         `yaml:"weather"`
	Quests       []*quest.Quest         `yaml:"quests"`
	Rival        rival.Def              `yaml:"rival"`
	Boss         rival.Def              `yaml:"boss"`
	Events       []string               `yaml:"events"`
	Dialogues    []*Dialogue            `yaml:"dialogues"`

	cardIndex     map[string]*cards.Card
	relicIndex    map[string]*Relic
	lootIndex     map[string]*LootBox
	dogmaIndex    map[string]*Dogma
	dialogueIndex map[string]*Dialogue
	skillIndex    map[string]*Skill
}

// Default returns the embedded content.
func Default() (*Catalog, error) {
	return Parse(defaultContent)
}

// Load reads content from path, or the embedded content when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open content %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and indexes a content document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.cardIndex = make(map[string]*cards.Card, len(c.Cards))
	for _, card := range c.Cards {
		if _, dup := c.cardIndex[card.ID]; dup {
			return fmt.Errorf("duplicate card %s", card.ID)
		}
		c.cardIndex[card.ID] = card
	}
	c.relicIndex = make(map[string]*Relic, len(c.Relics))
	for _, r := range c.Relics {
		c.relicIndex[r.ID] = r
	}
	c.lootIndex = make(map[string]*LootBox, len(c.LootBoxes))
	for _, b := range c.LootBoxes {
		c.lootIndex[b.ID] = b
	}
	c.dogmaIndex = make(map[string]*Dogma, len(c.Dogmas))
	for _, d := range c.Dogmas {
		c.dogmaIndex[d.ID] = d
	}
	c.dialogueIndex = make(map[string]*Dialogue, len(c.Dialogues))
	for _, d := range c.Dialogues {
		c.dialogueIndex[d.ID] = d
	}
	if err := c.indexSkills(); err != nil {
		return err
	}

	// Decks must resolve; a missing card would break deck conservation.
	for name, ids := range map[string][]string{
		"starting deck": c.StartingDeck,
		"rival deck":    c.Rival.Deck,
		"boss deck":     c.Boss.Deck,
	} {
		if _, err := c.Deck(ids); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if quest.First(c.Quests) == nil && len(c.Quests) > 0 {
		return fmt.Errorf("quest chain has no starting quest")
	}
	return nil
}

// Card returns the card definition with the given ID.
func (c *Catalog) Card(id string) (*cards.Card, bool) {
	card, ok := c.cardIndex[id]
	return card, ok
}

// Deck resolves a list of card IDs. Any unknown ID is an error.
func (c *Catalog) Deck(ids []string) ([]*cards.Card, error) {
	out := make([]*cards.Card, 0, len(ids))
	for _, id := range ids {
		card, ok := c.cardIndex[id]
		if !ok {
			return nil, fmt.Errorf("unknown card %s", id)
		}
		out = append(out, card)
	}
	return out, nil
}

// Relic returns the relic with the given ID.
func (c *Catalog) Relic(id string) (*Relic, bool) {
	r, ok := c.relicIndex[id]
	return r, ok
}

// Dogma returns the dogma with the given ID.
func (c *Catalog) Dogma(id string) (*Dogma, bool) {
	d, ok := c.dogmaIndex[id]
	return d, ok
}

// NewFactions returns fresh, Neutral copies of the faction templates.
func (c *Catalog) NewFactions() []*social.Faction {
	out := make([]*social.Faction, 0, len(c.Factions))
	for _, f := range c.Factions {
		nf := f.Clone()
		nf.Status = social.Neutral
		out = append(out, nf)
	}
	return out
}

// TriggersFor returns the AI triggers declared for a faction.
func (c *Catalog) TriggersFor(factionID string) []rules.Trigger {
	var out []rules.Trigger
	for _, t := range c.Triggers {
		if t.Faction == factionID {
			out = append(out, t)
		}
	}
	return out
}
