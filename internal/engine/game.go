// Package engine owns the game session: the single state aggregate, the
// economy tick, card resolution, the effect dispatcher, rival and faction
// AI turns, and the loop that drives them.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/flock"
	"github.com/talgya/pigeon-pope/internal/modifier"
	"github.com/talgya/pigeon-pope/internal/quest"
	"github.com/talgya/pigeon-pope/internal/rival"
	"github.com/talgya/pigeon-pope/internal/rules"
	"github.com/talgya/pigeon-pope/internal/social"
	"github.com/talgya/pigeon-pope/internal/weather"
)

// TicksPerSecond converts per-second rates into per-tick deltas.
const TicksPerSecond = 10

// Player progression defaults.
const (
	StartingFollowers     = 1
	StartingXPToNextLevel = 50
	StartingLuck          = 5
	StartingTerritory     = 1
	XPGrowth              = 1.5
)

// PlayerStats is the Pope's progression.
type PlayerStats struct {
	Level         int     `json:"level"`
	XP            float64 `json:"xp"`
	XPToNextLevel float64 `json:"xp_to_next_level"`
	Luck          float64 `json:"luck"`
}

// NewPlayerStats returns level-one stats.
func NewPlayerStats() PlayerStats {
	return PlayerStats{Level: 1, XPToNextLevel: StartingXPToNextLevel, Luck: StartingLuck}
}

// Game is the whole session state. Every exported method takes the lock,
// so a tick, an AI turn and a command never interleave.
type Game struct {
	mu sync.Mutex

	cat        *catalog.Catalog
	rng        entropy.Source
	spawner    *flock.Spawner
	rules      *rules.Registry
	forecaster *weather.Forecaster

	tick   uint64
	aiTurn uint64

	pool      economy.Pool
	stats     PlayerStats
	followers []*flock.Follower
	piles     cards.Piles
	buildings []*economy.Building
	relics    []*catalog.Relic
	lootBoxes []string
	factions  []*social.Faction

	dogma        *catalog.Dogma
	dogmaOffered bool

	skills     []*catalog.Skill
	skillReady map[string]uint64 // Tick at which an active skill recharges.

	rival        rival.Rival
	boss         *rival.Boss
	bossDefeated bool
	weather      *weather.Active

	quest         *quest.Quest
	questProgress quest.Progress

	territory      int
	cardsPlayed    int
	inbox          []string
	activeDialogue string

	events []Event
}

// Options tunes a new session.
type Options struct {
	Seed int64 // Seeds the weather forecaster. Zero uses 1.
}

// NewGame starts a fresh session from the catalog's content.
func NewGame(cat *catalog.Catalog, rng entropy.Source, opts Options) (*Game, error) {
	g, err := newGame(cat, rng, opts)
	if err != nil {
		return nil, err
	}

	g.pool = economy.NewPool()
	g.stats = NewPlayerStats()
	g.followers = []*flock.Follower{g.spawner.Founder()}
	g.territory = StartingTerritory
	g.buildings = economy.NewBuildings(cat.Buildings)
	g.factions = cat.NewFactions()
	g.quest = quest.First(cat.Quests)
	g.questProgress = quest.Progress{}

	deck, err := cat.Deck(cat.StartingDeck)
	if err != nil {
		return nil, fmt.Errorf("starting deck: %w", err)
	}
	g.piles = cards.NewPiles(deck, rng)
	g.piles.Draw(cards.MaxHandSize, rng)

	rivalDeck, err := cat.Deck(cat.Rival.Deck)
	if err != nil {
		return nil, fmt.Errorf("rival deck: %w", err)
	}
	g.rival = rival.Rival{CombatantCore: rival.NewCore(&cat.Rival, rivalDeck, rng)}

	g.record("A new Migration has begun.", CategorySystem)
	slog.Info("new game started", "followers", len(g.followers), "hand", len(g.piles.Hand))
	return g, nil
}

func newGame(cat *catalog.Catalog, rng entropy.Source, opts Options) (*Game, error) {
	reg, err := rules.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("rules registry: %w", err)
	}
	for _, t := range cat.Triggers {
		if _, err := reg.Compile(t.When); err != nil {
			return nil, fmt.Errorf("trigger for %s: %w", t.Faction, err)
		}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	return &Game{
		cat:        cat,
		rng:        rng,
		skillReady: make(map[string]uint64),
		spawner:    flock.NewSpawner(rng),
		rules:      reg,
		forecaster: weather.NewForecaster(seed),
	}, nil
}

// CurrentTick returns the number of economy ticks processed.
func (g *Game) CurrentTick() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

// Catalog returns the content the game was built from.
func (g *Game) Catalog() *catalog.Catalog {
	return g.cat
}

// SetTerritory records the number of sectors the player holds and returns
// the stored value. The map that changes it lives outside the core.
func (g *Game) SetTerritory(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.territory = max(n, 0)
	return g.territory
}

// coefficients aggregates the current passive bonuses.
func (g *Game) coefficients() modifier.Coefficients {
	relics := make([]effects.Effect, 0, len(g.relics))
	for _, r := range g.relics {
		relics = append(relics, r.Effect)
	}
	var skills []effects.Effect
	for _, s := range g.skills {
		skills = append(skills, s.Effects...)
	}
	return modifier.Aggregate(modifier.Inputs{
		Buildings: g.buildings,
		Relics:    relics,
		Skills:    skills,
		Factions:  g.factions,
	})
}

// target is the combatant damage and debuffs land on: the boss while
// present, otherwise the rival.
func (g *Game) target() *rival.CombatantCore {
	if g.boss != nil {
		return &g.boss.CombatantCore
	}
	return &g.rival.CombatantCore
}

// luck is the base luck stat plus relic bonuses.
func (g *Game) luck() float64 {
	return g.stats.Luck + g.coefficients().LuckBonus
}

func (g *Game) hasRelic(id string) bool {
	for _, r := range g.relics {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (g *Game) building(id string) *economy.Building {
	for _, b := range g.buildings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (g *Game) playerFacts() rules.PlayerFacts {
	return rules.PlayerFacts{
		Level:     g.stats.Level,
		Followers: len(g.followers),
		Territory: g.territory,
		Relics:    len(g.relics),
		Faith:     g.pool.Faith,
		Crumbs:    g.pool.Crumbs,
		Morale:    g.pool.Morale,
	}
}
