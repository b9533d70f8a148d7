package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/flock"
	"github.com/talgya/pigeon-pope/internal/quest"
	"github.com/talgya/pigeon-pope/internal/rival"
	"github.com/talgya/pigeon-pope/internal/social"
	"github.com/talgya/pigeon-pope/internal/weather"
)

// SaveVersion tags the save shape. Bump it whenever a field changes meaning.
const SaveVersion = 4

// CombatantSave is a rival or boss with its piles as card IDs.
type CombatantSave struct {
	Name            string       `json:"name"`
	Faith           float64      `json:"faith"`
	HeresyPerSecond float64      `json:"heresy_per_second"`
	Deck            []string     `json:"deck"`
	Hand            []string     `json:"hand"`
	Discard         []string     `json:"discard"`
	Buffs           []rival.Buff `json:"buffs"`
}

// BossSave adds ability cooldowns, keyed by ability ID.
type BossSave struct {
	CombatantSave
	AbilityReadyAt map[string]int `json:"ability_ready_at,omitempty"`
}

// FactionSave is the mutable part of a faction.
type FactionSave struct {
	ID             string        `json:"id"`
	Relationship   float64       `json:"relationship"`
	Status         social.Status `json:"status"`
	ActiveTreaties []string      `json:"active_treaties"`
}

// WeatherSave is a running weather event.
type WeatherSave struct {
	ID        string `json:"id"`
	Remaining int    `json:"remaining"`
}

// SaveState is the full serializable session. Everything static is stored
// by ID and re-hydrated against the catalog on restore.
type SaveState struct {
	Version        int               `json:"version"`
	Tick           uint64            `json:"tick"`
	AITurn         uint64            `json:"ai_turn"`
	Resources      economy.Pool      `json:"resources"`
	Player         PlayerStats       `json:"player"`
	Territory      int               `json:"territory"`
	Followers      []flock.Follower  `json:"followers"`
	Deck           []string          `json:"deck"`
	Hand           []string          `json:"hand"`
	Discard        []string          `json:"discard"`
	Rival          CombatantSave     `json:"rival"`
	RivalDefeated  bool              `json:"rival_defeated"`
	Boss           *BossSave         `json:"boss,omitempty"`
	BossDefeated   bool              `json:"boss_defeated"`
	Buildings      map[string]int    `json:"buildings"`
	Factions       []FactionSave     `json:"factions"`
	Dogma          string            `json:"dogma,omitempty"`
	DogmaOffered   bool              `json:"dogma_offered"`
	Skills         []string          `json:"skills"`
	SkillReady     map[string]uint64 `json:"skill_ready,omitempty"`
	Quest          string            `json:"quest,omitempty"`
	QuestsComplete bool              `json:"quests_complete,omitempty"`
	QuestProgress  quest.Progress    `json:"quest_progress,omitempty"`
	Relics         []string          `json:"relics"`
	LootBoxes      []string          `json:"loot_boxes"`
	CardsPlayed    int               `json:"cards_played"`
	Inbox          []string          `json:"inbox"`
	ActiveDialogue string            `json:"active_dialogue,omitempty"`
	Weather        *WeatherSave      `json:"weather,omitempty"`
	Chronicle      []Event           `json:"chronicle"`
}

// NewSaveState returns the defaults a decoder should start from, so fields
// missing from an older or partial save keep new-game values.
func NewSaveState() SaveState {
	return SaveState{
		Version:   SaveVersion,
		Resources: economy.NewPool(),
		Player:    NewPlayerStats(),
		Territory: StartingTerritory,
	}
}

// Export captures the session for persistence.
func (g *Game) Export() SaveState {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := SaveState{
		Version:        SaveVersion,
		Tick:           g.tick,
		AITurn:         g.aiTurn,
		Resources:      g.pool,
		Player:         g.stats,
		Territory:      g.territory,
		Followers:      make([]flock.Follower, 0, len(g.followers)),
		Deck:           cards.IDs(g.piles.Deck),
		Hand:           cards.IDs(g.piles.Hand),
		Discard:        cards.IDs(g.piles.Discard),
		Rival:          saveCore(&g.rival.CombatantCore),
		RivalDefeated:  g.rival.Defeated,
		BossDefeated:   g.bossDefeated,
		Buildings:      make(map[string]int, len(g.buildings)),
		DogmaOffered:   g.dogmaOffered,
		LootBoxes:      append([]string{}, g.lootBoxes...),
		CardsPlayed:    g.cardsPlayed,
		Inbox:          append([]string{}, g.inbox...),
		ActiveDialogue: g.activeDialogue,
		Chronicle:      append([]Event{}, g.events...),
	}
	for _, f := range g.followers {
		st.Followers = append(st.Followers, *f)
	}
	if g.boss != nil {
		st.Boss = &BossSave{
			CombatantSave:  saveCore(&g.boss.CombatantCore),
			AbilityReadyAt: make(map[string]int, len(g.boss.Abilities)),
		}
		for _, a := range g.boss.Abilities {
			st.Boss.AbilityReadyAt[a.ID] = a.ReadyAt
		}
	}
	st.Skills = make([]string, 0, len(g.skills))
	for _, s := range g.skills {
		st.Skills = append(st.Skills, s.ID)
	}
	if len(g.skillReady) > 0 {
		st.SkillReady = make(map[string]uint64, len(g.skillReady))
		for id, t := range g.skillReady {
			st.SkillReady[id] = t
		}
	}
	for _, b := range g.buildings {
		st.Buildings[b.ID] = b.Level
	}
	for _, f := range g.factions {
		fs := FactionSave{ID: f.ID, Relationship: f.Relationship, Status: f.Status, ActiveTreaties: []string{}}
		for _, t := range f.Treaties {
			if t.Active {
				fs.ActiveTreaties = append(fs.ActiveTreaties, t.ID)
			}
		}
		st.Factions = append(st.Factions, fs)
	}
	if g.dogma != nil {
		st.Dogma = g.dogma.ID
	}
	if g.quest != nil {
		st.Quest = g.quest.ID
		st.QuestProgress = make(quest.Progress, len(g.questProgress))
		for k, v := range g.questProgress {
			st.QuestProgress[k] = v
		}
	} else {
		st.QuestsComplete = true
	}
	st.Relics = make([]string, 0, len(g.relics))
	for _, r := range g.relics {
		st.Relics = append(st.Relics, r.ID)
	}
	if g.weather != nil {
		st.Weather = &WeatherSave{ID: g.weather.ID, Remaining: g.weather.Remaining}
	}
	return st
}

func saveCore(c *rival.CombatantCore) CombatantSave {
	return CombatantSave{
		Name:            c.Name,
		Faith:           c.Faith,
		HeresyPerSecond: c.HeresyPerSecond,
		Deck:            cards.IDs(c.Piles.Deck),
		Hand:            cards.IDs(c.Piles.Hand),
		Discard:         cards.IDs(c.Piles.Discard),
		Buffs:           append([]rival.Buff{}, c.Buffs...),
	}
}

// Restore rebuilds a session from a save. Missing sections fall back to
// new-game values; IDs the catalog no longer knows are dropped with a
// warning.
func Restore(cat *catalog.Catalog, rng entropy.Source, opts Options, st SaveState) (*Game, error) {
	if st.Version != SaveVersion {
		return nil, fmt.Errorf("save version %d, want %d", st.Version, SaveVersion)
	}
	g, err := newGame(cat, rng, opts)
	if err != nil {
		return nil, err
	}

	g.tick = st.Tick
	g.aiTurn = st.AITurn
	g.pool = st.Resources
	if g.pool.Inflation <= 0 {
		g.pool.Inflation = 1
	}
	g.stats = st.Player
	g.territory = st.Territory
	g.cardsPlayed = st.CardsPlayed
	g.events = append([]Event(nil), st.Chronicle...)

	if st.Followers == nil {
		g.followers = []*flock.Follower{g.spawner.Founder()}
	} else {
		for i := range st.Followers {
			f := st.Followers[i]
			g.followers = append(g.followers, &f)
		}
	}

	if len(st.Deck)+len(st.Hand)+len(st.Discard) == 0 {
		deck, err := cat.Deck(cat.StartingDeck)
		if err != nil {
			return nil, fmt.Errorf("starting deck: %w", err)
		}
		g.piles = cards.NewPiles(deck, rng)
		g.piles.Draw(cards.MaxHandSize, rng)
	} else {
		g.piles = g.pilesFrom(st.Deck, st.Hand, st.Discard)
	}

	g.rival = rival.Rival{CombatantCore: g.restoreCore(&cat.Rival, st.Rival), Defeated: st.RivalDefeated}
	if st.Boss != nil {
		g.boss = &rival.Boss{
			CombatantCore: g.restoreCore(&cat.Boss, st.Boss.CombatantSave),
			Abilities:     append([]rival.Ability(nil), cat.Boss.Abilities...),
			IsBoss:        true,
		}
		for i := range g.boss.Abilities {
			a := &g.boss.Abilities[i]
			a.ReadyAt = st.Boss.AbilityReadyAt[a.ID]
		}
	}
	g.bossDefeated = st.BossDefeated

	g.buildings = economy.NewBuildings(cat.Buildings)
	for _, b := range g.buildings {
		b.Level = max(st.Buildings[b.ID], 0)
	}

	g.factions = cat.NewFactions()
	for _, fs := range st.Factions {
		f := social.Find(g.factions, fs.ID)
		if f == nil {
			slog.Warn("save names unknown faction", "id", fs.ID)
			continue
		}
		f.Relationship = fs.Relationship
		f.Shift(0)
		if fs.Status != "" {
			f.Status = fs.Status
		}
		for _, id := range fs.ActiveTreaties {
			for _, t := range f.Treaties {
				if t.ID == id {
					t.Active = true
				}
			}
		}
	}

	if st.Dogma != "" {
		if d, ok := cat.Dogma(st.Dogma); ok {
			g.dogma = d
		} else {
			slog.Warn("save names unknown dogma", "id", st.Dogma)
		}
	}
	g.dogmaOffered = st.DogmaOffered && g.dogma == nil

	for _, id := range st.Skills {
		s, ok := cat.Skill(id)
		if !ok {
			slog.Warn("save names unknown skill", "id", id)
			continue
		}
		if !g.hasSkill(id) {
			g.skills = append(g.skills, s)
		}
	}
	for id, t := range st.SkillReady {
		if g.hasSkill(id) {
			g.skillReady[id] = t
		}
	}

	switch {
	case st.Quest != "":
		g.quest = quest.Find(cat.Quests, st.Quest)
		if g.quest == nil {
			slog.Warn("save names unknown quest", "id", st.Quest)
		}
	case !st.QuestsComplete:
		g.quest = quest.First(cat.Quests)
	}
	g.questProgress = quest.Progress{}
	for k, v := range st.QuestProgress {
		g.questProgress[k] = v
	}

	for _, id := range st.Relics {
		if r, ok := cat.Relic(id); ok && !g.hasRelic(id) {
			g.relics = append(g.relics, r)
		}
	}
	for _, id := range st.LootBoxes {
		if _, ok := cat.LootBox(id); ok {
			g.lootBoxes = append(g.lootBoxes, id)
		}
	}
	g.inbox = append([]string(nil), st.Inbox...)
	if _, ok := cat.Dialogue(st.ActiveDialogue); ok {
		g.activeDialogue = st.ActiveDialogue
	}

	if st.Weather != nil {
		for _, def := range cat.Weather {
			if def.ID == st.Weather.ID && st.Weather.Remaining > 0 {
				g.weather = &weather.Active{Def: def, Remaining: st.Weather.Remaining}
			}
		}
	}

	slog.Info("game restored", "tick", g.tick, "followers", len(g.followers))
	return g, nil
}

func (g *Game) resolve(ids []string) []*cards.Card {
	out := make([]*cards.Card, 0, len(ids))
	for _, id := range ids {
		c, ok := g.cat.Card(id)
		if !ok {
			slog.Warn("save names unknown card", "id", id)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (g *Game) pilesFrom(deck, hand, discard []string) cards.Piles {
	return cards.Piles{
		Deck:    g.resolve(deck),
		Hand:    g.resolve(hand),
		Discard: g.resolve(discard),
	}
}

func (g *Game) restoreCore(def *rival.Def, cs CombatantSave) rival.CombatantCore {
	if cs.Name == "" {
		deck, err := g.cat.Deck(def.Deck)
		if err != nil {
			slog.Warn("combatant deck", "err", err)
		}
		return rival.NewCore(def, deck, g.rng)
	}
	return rival.CombatantCore{
		Name:            cs.Name,
		Art:             def.Art,
		Faith:           max(cs.Faith, 0),
		HeresyPerSecond: cs.HeresyPerSecond,
		Piles:           g.pilesFrom(cs.Deck, cs.Hand, cs.Discard),
		Buffs:           cs.Buffs,
	}
}
