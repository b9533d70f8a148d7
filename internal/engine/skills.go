package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/pigeon-pope/internal/cards"
	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/economy"
	"github.com/talgya/pigeon-pope/internal/entropy"
)

// SkillView is a skill tree node as the presentation layer sees it.
type SkillView struct {
	*catalog.Skill
	Unlocked   bool   `json:"unlocked"`
	Unlockable bool   `json:"unlockable"`         // Prerequisites held and affordable.
	ReadyIn    uint64 `json:"ready_in,omitempty"` // Ticks until an active skill recharges.
}

// UnlockSkill buys a skill with Divine Favor once its prerequisites are held.
func (g *Game) UnlockSkill(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, found := g.cat.Skill(id)
	if !found {
		return fail(ErrInvalidReference, "No such skill.")
	}
	if g.hasSkill(id) {
		return fail(ErrInvalidTransition, "%s is already unlocked.", s.Name)
	}
	if dep := g.missingDependency(s); dep != "" {
		return fail(ErrInvalidTransition, "%s requires %s first.", s.Name, dep)
	}
	if g.pool.DivineFavor < s.Cost {
		return fail(ErrInsufficientResources, "Not enough Divine Favor to unlock %s.", s.Name)
	}

	g.pool.Add(economy.DivineFavor, -s.Cost)
	g.skills = append(g.skills, s)
	msg := fmt.Sprintf("Unlocked the skill %s.", s.Name)
	g.record(msg, CategorySystem)
	slog.Info("skill unlocked", "skill", s.ID, "tree", s.Tree)
	return ok(msg)
}

// UseSkill fires an unlocked active skill and starts its cooldown.
func (g *Game) UseSkill(id string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, found := g.cat.Skill(id)
	if !found {
		return fail(ErrInvalidReference, "No such skill.")
	}
	if !g.hasSkill(id) || len(s.Active) == 0 {
		return fail(ErrInvalidTransition, "%s cannot be used.", s.Name)
	}
	if ready := g.skillReady[id]; g.tick < ready {
		return fail(ErrInvalidTransition, "%s recharges in %s.", s.Name, GameTime(ready-g.tick))
	}

	g.applyAll(s.Active, "Skill: "+s.Name)
	g.skillReady[id] = g.tick + uint64(s.Cooldown)*TicksPerSecond
	msg := fmt.Sprintf("Used %s.", s.Name)
	g.record(msg, CategorySystem)
	return Result{OK: true, Message: msg, Effects: s.Active}
}

func (g *Game) hasSkill(id string) bool {
	for _, s := range g.skills {
		if s.ID == id {
			return true
		}
	}
	return false
}

// missingDependency names the first prerequisite of s not yet unlocked.
func (g *Game) missingDependency(s *catalog.Skill) string {
	for _, dep := range s.DependsOn {
		if g.hasSkill(dep) {
			continue
		}
		if d, ok := g.cat.Skill(dep); ok {
			return d.Name
		}
		return dep
	}
	return ""
}

// cardBonuses returns the unlocked skill bonuses that fire for c. Bonuses
// with a chance roll once per play.
func (g *Game) cardBonuses(c *cards.Card) []*catalog.CardBonus {
	var out []*catalog.CardBonus
	for _, s := range g.skills {
		b := s.OnPlay
		if b == nil || !b.Matches(c) {
			continue
		}
		if b.Chance > 0 && !entropy.Chance(g.rng, b.Chance) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (g *Game) skillViews() []SkillView {
	out := make([]SkillView, 0, len(g.cat.Skills))
	for _, s := range g.cat.Skills {
		v := SkillView{Skill: s, Unlocked: g.hasSkill(s.ID)}
		v.Unlockable = !v.Unlocked && g.missingDependency(s) == "" && g.pool.DivineFavor >= s.Cost
		if ready := g.skillReady[s.ID]; ready > g.tick {
			v.ReadyIn = ready - g.tick
		}
		out = append(out, v)
	}
	return out
}
