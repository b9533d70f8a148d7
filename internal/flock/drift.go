package flock

import "github.com/talgya/pigeon-pope/internal/entropy"

// Per-tick drift rates.
const (
	RebelLoyaltyDecay  = 0.01
	RebelChaosChance   = 0.001
	DevoutDevotionRise = 0.015
)

// Drift applies one tick of personality drift. Each Rebel draws its own
// chaos roll. Stats are never culled; low loyalty has no consequence here.
func Drift(followers []*Follower, rng entropy.Source) {
	for _, f := range followers {
		switch f.Personality {
		case Rebel:
			f.Loyalty = clamp(f.Loyalty - RebelLoyaltyDecay)
			if entropy.Chance(rng, RebelChaosChance) {
				f.ChaosIndex = clamp(f.ChaosIndex + 1)
			}
		case Devout:
			f.Devotion = clamp(f.Devotion + DevoutDevotionRise)
		}
	}
}
