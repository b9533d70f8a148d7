package engine

import (
	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/flock"
	"github.com/talgya/pigeon-pope/internal/modifier"
	"github.com/talgya/pigeon-pope/internal/quest"
	"github.com/talgya/pigeon-pope/internal/rival"
	"github.com/talgya/pigeon-pope/internal/social"
	"github.com/talgya/pigeon-pope/internal/weather"
)

// BuildingView is a building with its next upgrade price.
type BuildingView struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Level          int              `json:"level"`
	ProductionType economy.Resource `json:"production_type"`
	Production     float64          `json:"production"`
	UpgradeCost    float64          `json:"upgrade_cost"`
	CostResource   economy.Resource `json:"cost_resource"`
}

// CardView is a card in hand with its effective cost.
type CardView struct {
	*cards.Card
	EffectiveCost float64 `json:"effective_cost"`
}

// Snapshot is a read-only copy of everything the presentation layer shows.
// Nothing in it aliases live game state.
type Snapshot struct {
	Tick           uint64                `json:"tick"`
	AITurn         uint64                `json:"ai_turn"`
	Resources      economy.Pool          `json:"resources"`
	Rates          Rates                 `json:"rates"`
	Coefficients   modifier.Coefficients `json:"coefficients"`
	Player         PlayerStats           `json:"player"`
	Territory      int                   `json:"territory"`
	Followers      []flock.Follower      `json:"followers"`
	Hand           []CardView            `json:"hand"`
	DeckSize       int                   `json:"deck_size"`
	DiscardSize    int                   `json:"discard_size"`
	Buildings      []BuildingView        `json:"buildings"`
	Relics         []catalog.Relic       `json:"relics"`
	LootBoxes      []string              `json:"loot_boxes"`
	Factions       []social.Faction      `json:"factions"`
	Dogma          *catalog.Dogma        `json:"dogma,omitempty"`
	DogmaOffered   bool                  `json:"dogma_offered"`
	Skills         []SkillView           `json:"skills"`
	Rival          rival.Rival           `json:"rival"`
	Boss           *rival.Boss           `json:"boss,omitempty"`
	BossReady      []string              `json:"boss_ready,omitempty"` // Abilities off cooldown.
	BossDefeated   bool                  `json:"boss_defeated"`
	Weather        *weather.Active       `json:"weather,omitempty"`
	Quest          *quest.Quest          `json:"quest,omitempty"`
	QuestProgress  quest.Progress        `json:"quest_progress"`
	CardsPlayed    int                   `json:"cards_played"`
	Inbox          []string              `json:"inbox"`
	ActiveDialogue *catalog.Dialogue     `json:"active_dialogue,omitempty"`
	Chronicle      []Event               `json:"chronicle"`
}

// Snapshot copies the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	coef := g.coefficients()
	s := Snapshot{
		Tick:          g.tick,
		AITurn:        g.aiTurn,
		Resources:     g.pool,
		Rates:         g.rates(coef),
		Coefficients:  coef,
		Player:        g.stats,
		Territory:     g.territory,
		DeckSize:      len(g.piles.Deck),
		DiscardSize:   len(g.piles.Discard),
		LootBoxes:     append([]string(nil), g.lootBoxes...),
		Dogma:         g.dogma,
		DogmaOffered:  g.dogmaOffered,
		BossDefeated:  g.bossDefeated,
		Quest:         g.quest,
		QuestProgress: make(quest.Progress, len(g.questProgress)),
		CardsPlayed:   g.cardsPlayed,
		Inbox:         append([]string(nil), g.inbox...),
		Chronicle:     g.recent(VisibleEvents),
		Skills:        g.skillViews(),
	}
	s.Player.Luck = g.luck()

	for _, f := range g.followers {
		s.Followers = append(s.Followers, *f)
	}
	for _, c := range g.piles.Hand {
		s.Hand = append(s.Hand, CardView{Card: c, EffectiveCost: g.cardCost(c)})
	}
	for _, b := range g.buildings {
		s.Buildings = append(s.Buildings, BuildingView{
			ID:             b.ID,
			Name:           b.Name,
			Level:          b.Level,
			ProductionType: b.ProductionType,
			Production:     b.Production(b.ProductionType),
			UpgradeCost:    economy.InflatedCost(b.UpgradeCost(), g.pool.Inflation),
			CostResource:   b.CostResource,
		})
	}
	for _, r := range g.relics {
		s.Relics = append(s.Relics, *r)
	}
	for _, f := range g.factions {
		s.Factions = append(s.Factions, *f.Clone())
	}
	s.Rival = rival.Rival{CombatantCore: g.rival.Clone(), Defeated: g.rival.Defeated}
	if g.boss != nil {
		b := *g.boss
		b.CombatantCore = g.boss.Clone()
		b.Abilities = append([]rival.Ability(nil), g.boss.Abilities...)
		s.Boss = &b
		for _, a := range g.boss.ReadyAbilities(int(g.aiTurn)) {
			s.BossReady = append(s.BossReady, a.ID)
		}
	}
	if g.weather != nil {
		w := *g.weather
		s.Weather = &w
	}
	for k, v := range g.questProgress {
		s.QuestProgress[k] = v
	}
	if g.activeDialogue != "" {
		s.ActiveDialogue, _ = g.cat.Dialogue(g.activeDialogue)
	}
	return s
}
