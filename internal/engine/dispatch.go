package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/flock"
	"github.com/talgya/pigeon-pope/internal/social"
)

// Dispatcher tuning.
const (
	FaithPerBuildingLevel = 5.0
	CrusadeOdds           = 0.5
	CrusadeCrumbs         = 50.0
	PiousDevoutWeight     = 2.0
)

// applyAll dispatches a list of effects in order. A failing effect never
// stops its siblings.
func (g *Game) applyAll(list []effects.Effect, source string) {
	for _, e := range list {
		g.apply(e, source)
	}
}

// apply mutates state for one effect. Damage and debuffs land on the active
// target; everything else lands on the player. Missing references log and
// no-op.
func (g *Game) apply(e effects.Effect, source string) {
	if e.Kind.IsCombat() {
		g.damage(g.combatBase(e), source)
		return
	}

	switch e.Kind {
	case effects.GainFaith:
		g.pool.Add(economy.Faith, e.Value)
	case effects.GainCrumbs:
		g.pool.Add(economy.Crumbs, e.Value)
	case effects.LoseCrumbs:
		g.pool.Add(economy.Crumbs, -e.Value)
	case effects.GainDivineFavor:
		g.pool.Add(economy.DivineFavor, e.Value)
	case effects.GainMorale:
		g.pool.Morale = economy.ClampMorale(g.pool.Morale+e.Value, g.coefficients().MoraleCeilingBonus)
	case effects.GainXP:
		g.stats.XP += e.Value * g.coefficients().XPMultiplier

	case effects.GainFollowers:
		g.recruit(int(e.Value))
	case effects.GainFollowersByLevel:
		g.recruit(int(math.Floor(float64(g.stats.Level) * e.Value)))

	case effects.GainRelic:
		g.grantRelic(e.Ref)
	case effects.GainLootBox:
		if _, ok := g.cat.LootBox(e.Ref); !ok {
			slog.Warn("unknown loot box", "id", e.Ref, "source", source)
			return
		}
		g.lootBoxes = append(g.lootBoxes, e.Ref)

	case effects.RivalHeresyRateMultiplier:
		g.target().AddBuff(e.Kind, e.Value, e.Duration, source)

	case effects.ImproveRelations:
		g.shiftRelations(e.Faction, e.Value, source)
	case effects.WorsenRelations:
		g.shiftRelations(e.Faction, -e.Value, source)

	case effects.FaithFromBuildings:
		g.pool.Add(economy.Faith, FaithPerBuildingLevel*float64(economy.TotalLevels(g.buildings)))
	case effects.CrumbCrusade:
		g.crusade()

	case effects.StealFollowers:
		g.loseFollowers(int(e.Value))
	case effects.StealCrumbs:
		g.pool.Add(economy.Crumbs, -e.Value)
	case effects.AttackFaith:
		g.pool.Add(economy.Faith, -e.Value)
	case effects.AddHeresy:
		g.pool.Morale = economy.ClampMorale(g.pool.Morale-e.Value, g.coefficients().MoraleCeilingBonus)
	case effects.BoostHeresyRate:
		g.target().HeresyPerSecond += e.Value
	case effects.DiscardCards:
		g.discardRandom(int(e.Value), source)

	case effects.FaithGainMultiplier, effects.FollowerCrumbProductionMultiplier,
		effects.CrumbGainAdd, effects.GlobalMoraleBoost, effects.GlobalHeresyReduction,
		effects.CombatDamageMultiplier, effects.XPMultiplier, effects.MoraleGainAdd,
		effects.LuckAdd, effects.CrumbGainMultiplier, effects.ConflictDamageMultiplier,
		effects.PassiveFaithGain:
		// Passive kinds are read by the aggregator and the tick, never dispatched.
		slog.Debug("passive effect dispatched", "kind", e.Kind, "source", source)

	case effects.Unhandled:
		slog.Debug("unhandled effect", "tag", e.Tag, "source", source)
	}
}

func (g *Game) recruit(n int) {
	if n <= 0 {
		return
	}
	g.followers = append(g.followers, g.spawner.Recruit(n)...)
	g.record(fmt.Sprintf("%d new followers joined the flock.", n), CategoryFlock)
}

// loseFollowers removes the newest n followers.
func (g *Game) loseFollowers(n int) {
	n = min(max(n, 0), len(g.followers))
	g.followers = g.followers[:len(g.followers)-n]
}

// combatBase is a combat effect's damage before the alliance multiplier.
// Swarm damage is the follower count alone.
func (g *Game) combatBase(e effects.Effect) float64 {
	switch e.Kind {
	case effects.LuckyDamageRival:
		return e.Value + g.luck()
	case effects.PiousDamageRival:
		return e.Value + PiousDevoutWeight*float64(flock.CountDevout(g.followers))
	case effects.SwarmDamageRival:
		return float64(len(g.followers))
	}
	return e.Value
}

// discardRandom moves up to n random cards from the player's hand to the
// discard pile without drawing replacements.
func (g *Game) discardRandom(n int, source string) {
	for range n {
		if len(g.piles.Hand) == 0 {
			return
		}
		c := g.piles.Hand[g.rng.Intn(len(g.piles.Hand))]
		g.piles.DiscardFromHand(c.ID)
		g.record(fmt.Sprintf("%s blows '%s' out of your hand.", source, c.Name), CategoryCombat)
	}
}

func (g *Game) damage(amount float64, source string) {
	amount *= g.coefficients().CombatDamageMultiplier
	t := g.target()
	t.Damage(amount)
	g.record(fmt.Sprintf("%s takes %s damage (%s).", t.Name, humanize.Comma(int64(math.Round(amount))), source), CategoryCombat)
}

func (g *Game) grantRelic(id string) {
	r, ok := g.cat.Relic(id)
	if !ok {
		slog.Warn("unknown relic", "id", id)
		return
	}
	if g.hasRelic(id) {
		return
	}
	g.relics = append(g.relics, r)
	g.record(fmt.Sprintf("Acquired the relic %s.", r.Name), CategorySystem)
}

func (g *Game) shiftRelations(factionID string, delta float64, source string) {
	f := social.Find(g.factions, factionID)
	if f == nil {
		slog.Warn("unknown faction", "id", factionID, "source", source)
		return
	}
	f.Shift(delta)
}

func (g *Game) crusade() {
	if g.rng.Float64() < CrusadeOdds {
		g.pool.Add(economy.Crumbs, CrusadeCrumbs)
		g.record("The Crumb Crusade returns victorious!", CategoryEconomy)
		return
	}
	g.loseFollowers(1)
	g.record("The Crumb Crusade failed. A follower was lost.", CategoryFlock)
}
