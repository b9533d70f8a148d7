// Package modifier folds the passive bonuses of buildings, relics, skills,
// treaties and alliances into the coefficients the economy tick consumes.
package modifier

import (
	"math"

	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/social"
)

// Coefficients are the aggregated rate modifiers for one tick.
type Coefficients struct {
	FaithMultiplier         float64 `json:"faith_multiplier"`
	FollowerCrumbMultiplier float64 `json:"follower_crumb_multiplier"`
	CrumbFlatAdd            float64 `json:"crumb_flat_add"`
	MoraleCeilingBonus      float64 `json:"morale_ceiling_bonus"`
	HeresyReductionFraction float64 `json:"heresy_reduction_fraction"` // Clamped to [0, 1].
	CombatDamageMultiplier  float64 `json:"combat_damage_multiplier"`
	XPMultiplier            float64 `json:"xp_multiplier"`
	MoraleRegenPerSecond    float64 `json:"morale_regen_per_second"`
	LuckBonus               float64 `json:"luck_bonus"`
}

// Identity is the coefficient set with no sources.
func Identity() Coefficients {
	return Coefficients{
		FaithMultiplier:         1,
		FollowerCrumbMultiplier: 1,
		CombatDamageMultiplier:  1,
		XPMultiplier:            1,
	}
}

// Inputs is the state snapshot the aggregate is computed from.
type Inputs struct {
	Buildings []*economy.Building
	Relics    []effects.Effect
	Skills    []effects.Effect
	Factions  []*social.Faction
}

// Aggregate computes coefficients from in. It reads only and has no side
// effects. Additive sources are visited in order: leveled buildings (scaled
// by level), relics, unlocked skills, active treaties, then alliance bonuses. Combat and XP
// multipliers come only from alliance bonuses and multiply in.
func Aggregate(in Inputs) Coefficients {
	c := Identity()

	for _, b := range in.Buildings {
		if b.Level > 0 && b.Buff != nil {
			c.add(*b.Buff, float64(b.Level))
		}
	}
	for _, r := range in.Relics {
		c.add(r, 1)
	}
	for _, e := range in.Skills {
		c.add(e, 1)
	}
	for _, f := range in.Factions {
		for _, e := range f.ActiveTreatyEffects() {
			c.add(e, 1)
		}
	}
	for _, f := range in.Factions {
		if f.Status != social.Alliance || f.AllianceBonus == nil {
			continue
		}
		switch f.AllianceBonus.Kind {
		case effects.CombatDamageMultiplier:
			c.CombatDamageMultiplier *= f.AllianceBonus.Value
		case effects.XPMultiplier:
			c.XPMultiplier *= f.AllianceBonus.Value
		default:
			c.add(*f.AllianceBonus, 1)
		}
	}

	c.HeresyReductionFraction = math.Max(0, math.Min(1, c.HeresyReductionFraction))
	return c
}

func (c *Coefficients) add(e effects.Effect, scale float64) {
	v := e.Value * scale
	switch e.Kind {
	case effects.FaithGainMultiplier:
		c.FaithMultiplier += v
	case effects.FollowerCrumbProductionMultiplier:
		c.FollowerCrumbMultiplier += v
	case effects.CrumbGainAdd:
		c.CrumbFlatAdd += v
	case effects.GlobalMoraleBoost:
		c.MoraleCeilingBonus += v
	case effects.GlobalHeresyReduction:
		c.HeresyReductionFraction += v
	case effects.MoraleGainAdd:
		c.MoraleRegenPerSecond += v
	case effects.LuckAdd:
		c.LuckBonus += v
	}
}
