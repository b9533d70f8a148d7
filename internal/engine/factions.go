// Faction dynamics: the per-turn evaluation that moves Neutral factions
// into Rivalry or Alliance.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/rules"
	"github.com/talgya/pigeon-pope/internal/social"
)

// AllianceChance is the per-turn probability that an eligible faction
// offers an alliance.
const AllianceChance = 0.25

// ActionKind distinguishes faction AI outputs.
type ActionKind int

const (
	ActionStatusChanged ActionKind = iota
	ActionQueueMessage
)

// FactionAction is one outcome of a faction evaluation.
type FactionAction struct {
	Kind      ActionKind
	FactionID string
	Status    social.Status // For ActionStatusChanged.
	MessageID string        // For ActionQueueMessage.
}

// evaluateFactions decides the faction transitions for one AI turn. Only
// Neutral factions are considered. The alliance check runs first and, when
// it fires, skips that faction's own triggers. It reads state only.
func evaluateFactions(reg *rules.Registry, triggers []rules.Trigger, facts rules.PlayerFacts, factions []*social.Faction, rng entropy.Source) []FactionAction {
	var out []FactionAction
	for _, f := range factions {
		if f.Status != social.Neutral {
			continue
		}

		if f.Relationship >= social.AllianceRelationshipMin && f.HasActiveTreaty() && entropy.Chance(rng, AllianceChance) {
			out = append(out,
				FactionAction{Kind: ActionStatusChanged, FactionID: f.ID, Status: social.Alliance},
				FactionAction{Kind: ActionQueueMessage, FactionID: f.ID, MessageID: f.ID + "-declare-alliance"},
			)
			continue
		}

		ctx := rules.BuildEvalContext(facts, f)
		for _, t := range triggers {
			if t.Faction != f.ID {
				continue
			}
			hit, err := reg.Check(t.When, ctx)
			if err != nil {
				slog.Warn("faction trigger failed", "faction", f.ID, "err", err)
				continue
			}
			if !hit || !entropy.Chance(rng, t.Chance) {
				continue
			}
			if t.SetStatus != "" && t.SetStatus != social.Neutral {
				out = append(out, FactionAction{Kind: ActionStatusChanged, FactionID: f.ID, Status: t.SetStatus})
			}
			if t.Message != "" {
				out = append(out, FactionAction{Kind: ActionQueueMessage, FactionID: f.ID, MessageID: t.Message})
			}
			break
		}
	}
	return out
}

// runFactions evaluates the factions and applies the resulting actions.
func (g *Game) runFactions() []FactionAction {
	actions := evaluateFactions(g.rules, g.cat.Triggers, g.playerFacts(), g.factions, g.rng)
	for _, a := range actions {
		switch a.Kind {
		case ActionStatusChanged:
			f := social.Find(g.factions, a.FactionID)
			if f == nil {
				continue
			}
			f.Status = a.Status
			if a.Status == social.Alliance {
				g.record(fmt.Sprintf("%s has formed an Alliance with you!", f.Name), CategoryFaction)
			} else {
				g.record(fmt.Sprintf("%s has declared a %s!", f.Name, a.Status), CategoryFaction)
			}
			slog.Info("faction status changed", "faction", f.ID, "status", a.Status)
		case ActionQueueMessage:
			g.queueMessage(a.MessageID)
		}
	}
	return actions
}

// queueMessage adds a dialogue to the inbox unless it is already waiting.
func (g *Game) queueMessage(id string) {
	for _, queued := range g.inbox {
		if queued == id {
			return
		}
	}
	g.inbox = append(g.inbox, id)
}
