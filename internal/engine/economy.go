package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/flock"
	"github.com/talgya/pigeon-pope/internal/modifier"
	"github.com/talgya/pigeon-pope/internal/quest"
	"github.com/talgya/pigeon-pope/internal/rival"
	"github.com/talgya/pigeon-pope/internal/weather"
)

// Rates are the per-second production computed on a tick.
type Rates struct {
	Faith     float64 `json:"faith"`
	Crumbs    float64 `json:"crumbs"`
	BreadCoin float64 `json:"bread_coin"`
	Heresy    float64 `json:"heresy"`
}

// Tick advances the economy by one step. It never fails.
func (g *Game) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.step()
}

func (g *Game) step() {
	g.tick++

	// Timed buffs and weather.
	g.rival.TickBuffs()
	if g.boss != nil {
		g.boss.TickBuffs()
	}
	if g.weather != nil && g.weather.Tick() {
		g.record(fmt.Sprintf("The %s has passed.", g.weather.Name), CategoryWeather)
		g.weather = nil
	}

	flock.Drift(g.followers, g.rng)

	coef := g.coefficients()
	rates := g.rates(coef)

	g.pool.Add(economy.Faith, rates.Faith/TicksPerSecond)
	g.pool.Add(economy.Crumbs, rates.Crumbs/TicksPerSecond)
	g.pool.Add(economy.BreadCoin, rates.BreadCoin/TicksPerSecond)

	g.pool.Inflation *= economy.InflationPerTick

	morale := g.pool.Morale + (coef.MoraleRegenPerSecond-rates.Heresy)/TicksPerSecond
	g.pool.Morale = economy.ClampMorale(morale, coef.MoraleCeilingBonus)

	g.levelUp()
	g.checkDefeats()
	g.advanceQuest()
}

// rates computes per-second production and heresy drain from current state.
func (g *Game) rates(coef modifier.Coefficients) Rates {
	wx := weather.MapToSim(g.weather)

	faith := economy.BaseFaithPerSecond + g.dogmaValue(effects.PassiveFaithGain, 0) +
		economy.TotalProduction(g.buildings, economy.Faith)
	faith *= coef.FaithMultiplier * wx.Faith

	crumbs := economy.BaseCrumbsPerFollower*float64(len(g.followers))*coef.FollowerCrumbMultiplier +
		coef.CrumbFlatAdd + economy.TotalProduction(g.buildings, economy.Crumbs)
	crumbs *= g.dogmaValue(effects.CrumbGainMultiplier, 1) * wx.Crumbs

	return Rates{
		Faith:     faith,
		Crumbs:    crumbs,
		BreadCoin: economy.TotalProduction(g.buildings, economy.BreadCoin),
		Heresy:    g.heresyDrain(wx, coef.HeresyReductionFraction),
	}
}

// heresyDrain is the morale lost per second to the active target.
func (g *Game) heresyDrain(wx weather.Modifiers, reduction float64) float64 {
	var base, mult float64
	switch {
	case g.boss != nil:
		base, mult = g.boss.HeresyPerSecond, g.boss.HeresyRateMultiplier()
	case !g.rival.Defeated:
		base, mult = g.rival.HeresyPerSecond, g.rival.HeresyRateMultiplier()
	default:
		return 0
	}
	return math.Max(0, (base+wx.HeresyAdd)*mult*(1-reduction))
}

// dogmaValue returns the active dogma's value when it is of kind k, or def.
func (g *Game) dogmaValue(k effects.Kind, def float64) float64 {
	if g.dogma == nil || g.dogma.Effect.Kind != k {
		return def
	}
	return g.dogma.Effect.Value
}

func (g *Game) levelUp() {
	for g.stats.XPToNextLevel > 0 && g.stats.XP >= g.stats.XPToNextLevel {
		g.stats.XP -= g.stats.XPToNextLevel
		g.stats.Level++
		g.stats.XPToNextLevel = math.Floor(g.stats.XPToNextLevel * XPGrowth)
		g.stats.Luck++
		g.record(fmt.Sprintf("LEVEL UP! You are now Level %d!", g.stats.Level), CategorySystem)
		slog.Info("level up", "level", g.stats.Level, "next", g.stats.XPToNextLevel)
	}
}

func (g *Game) checkDefeats() {
	if !g.rival.Defeated && g.rival.Faith <= 0 {
		g.rival.Defeated = true
		g.record(fmt.Sprintf("%s has been defeated! Their heresy fades.", g.rival.Name), CategoryCombat)
		slog.Info("rival defeated", "tick", g.tick)
	}
	if g.boss != nil && g.boss.Faith <= 0 {
		g.record(fmt.Sprintf("%s has fallen! The skies are yours.", g.boss.Name), CategoryCombat)
		slog.Info("boss defeated", "tick", g.tick)
		g.boss = nil
		g.bossDefeated = true
	}
}

func (g *Game) questStatus() quest.Status {
	return quest.Status{
		Followers:     len(g.followers),
		RivalDefeated: g.rival.Defeated,
		BossDefeated:  g.bossDefeated,
		CardsPlayed:   g.cardsPlayed,
	}
}

// advanceQuest re-checks the active quest and completes it when every
// objective is met.
func (g *Game) advanceQuest() {
	if g.quest == nil {
		return
	}
	progress, done := quest.Evaluate(g.quest, g.questStatus())
	g.questProgress = progress
	if !done {
		return
	}

	q := g.quest
	g.pool.Add(economy.DivineFavor, q.Reward.DivineFavor)
	g.pool.Add(economy.Faith, q.Reward.Faith)
	g.pool.Add(economy.Crumbs, q.Reward.Crumbs)
	g.record(fmt.Sprintf("Quest complete: %s!", q.Name), CategoryQuest)
	slog.Info("quest complete", "quest", q.ID)

	if q.OfferDogma && g.dogma == nil {
		g.dogmaOffered = true
		g.record("The time has come to declare a Dogma.", CategoryQuest)
	}
	if q.SummonBoss {
		g.summonBoss()
	}

	g.quest = quest.Next(g.cat.Quests, q.ID)
	g.questProgress = quest.Progress{}
}

func (g *Game) summonBoss() {
	if g.boss != nil || g.bossDefeated {
		return
	}
	deck, err := g.cat.Deck(g.cat.Boss.Deck)
	if err != nil {
		slog.Warn("boss deck", "err", err)
		return
	}
	g.boss = rival.NewBoss(&g.cat.Boss, deck, g.rng)
	g.record(fmt.Sprintf("%s descends upon the roost!", g.boss.Name), CategoryCombat)
}
