package rival

import (
	"fmt"
	"math"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/effects"
	"github.com/talgya/pigeon-pope/internal/entropy"
)

// Turn tuning.
const (
	BaseFaithGain = 5.0
	BaseScore     = 10.0
	JitterRange   = 5.0
)

// PlayerView is the read-only slice of player state the AI scores against.
type PlayerView struct {
	Followers int
	Faith     float64
	Crumbs    float64
	Morale    float64
}

// Options carries external modifiers on a turn.
type Options struct {
	FaithGainMultiplier float64 // Zero is treated as 1.
}

// TurnResult is the outcome of one AI turn. Effects target the player and
// are applied by the caller.
type TurnResult struct {
	Core    CombatantCore
	Played  *cards.Card
	Effects []effects.Effect
	Action  string
}

// HeresyPressure grows as the player's morale holds up. Heresy is read as
// 100 minus morale.
func HeresyPressure(morale float64) float64 {
	return math.Max(1, 60-(100-morale))
}

// Score rates a card against the player. jitter is added to the flat base.
func Score(c *cards.Card, view PlayerView, jitter float64) float64 {
	score := BaseScore + jitter
	pressure := HeresyPressure(view.Morale)
	for _, e := range c.Effects {
		switch e.Kind {
		case effects.StealFollowers:
			score += float64(view.Followers) * 5
		case effects.AttackFaith:
			score += view.Faith / 10
		case effects.BoostHeresyRate:
			score += pressure * 1.2
		case effects.AddHeresy:
			score += pressure
		case effects.StealCrumbs:
			score += view.Crumbs / 5
		}
	}
	return score
}

// RunTurn plays one turn for core against view. The input core is not
// modified; the updated copy is returned in the result.
func RunTurn(core CombatantCore, view PlayerView, opt Options, rng entropy.Source) TurnResult {
	c := core.Clone()
	mult := opt.FaithGainMultiplier
	if mult == 0 {
		mult = 1
	}
	c.Faith += BaseFaithGain * mult

	var best *cards.Card
	bestScore := math.Inf(-1)
	for _, card := range c.Piles.Hand {
		if c.Faith < card.Cost.Amount {
			continue
		}
		s := Score(card, view, rng.Float64()*JitterRange)
		if s > bestScore {
			best, bestScore = card, s
		}
	}
	if best == nil {
		return TurnResult{Core: c}
	}

	res := TurnResult{Played: best}
	for _, e := range best.Effects {
		if e.Kind == effects.BoostHeresyRate {
			c.HeresyPerSecond += e.Value
			continue
		}
		res.Effects = append(res.Effects, e)
	}
	res.Action = describe(c.Name, best, res.Effects)

	c.Faith = math.Max(0, c.Faith-best.Cost.Amount)
	c.Piles.DiscardFromHand(best.ID)
	c.Piles.Draw(1, rng)

	res.Core = c
	return res
}

func describe(name string, card *cards.Card, out []effects.Effect) string {
	if len(out) == 0 {
		return fmt.Sprintf("%s performs %s. Their heresy grows stronger.", name, card.Name)
	}
	e := out[0]
	switch e.Kind {
	case effects.StealFollowers:
		return fmt.Sprintf("%s plays %s and lures away %.0f of your followers!", name, card.Name, e.Value)
	case effects.StealCrumbs:
		return fmt.Sprintf("%s plays %s and steals %.0f crumbs!", name, card.Name, e.Value)
	case effects.AttackFaith:
		return fmt.Sprintf("%s plays %s, striking %.0f of your faith!", name, card.Name, e.Value)
	case effects.AddHeresy:
		return fmt.Sprintf("%s plays %s, spreading heresy among your flock.", name, card.Name)
	}
	return fmt.Sprintf("%s plays %s.", name, card.Name)
}
