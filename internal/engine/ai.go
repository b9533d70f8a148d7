package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/rival"
	"github.com/talgya/pigeon-pope/internal/weather"
)

// RandomEventChance is the per-turn probability of a random event message.
const RandomEventChance = 0.05

// TurnReport summarizes one AI turn.
type TurnReport struct {
	Turn     uint64          `json:"turn"`
	Action   string          `json:"action,omitempty"`
	Factions []FactionAction `json:"-"`
	Weather  string          `json:"weather,omitempty"`
}

// AITurn runs the slow cadence: weather forecast, the rival or boss turn,
// faction evaluation and random events.
func (g *Game) AITurn() TurnReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.aiTurn++
	rep := TurnReport{Turn: g.aiTurn}

	// Commands can land between ticks; a combatant knocked to zero since the
	// last tick must not get another turn.
	g.checkDefeats()

	if g.weather == nil {
		if def := g.forecaster.Next(g.aiTurn, g.cat.Weather); def != nil {
			g.weather = weather.Start(def, TicksPerSecond)
			rep.Weather = def.Name
			g.record(fmt.Sprintf("Weather: %s. %s", def.Name, def.Description), CategoryWeather)
		}
	}

	rep.Action = g.combatantTurn()
	rep.Factions = g.runFactions()

	if len(g.cat.Events) > 0 && entropy.Chance(g.rng, RandomEventChance) {
		g.queueMessage(g.cat.Events[g.rng.Intn(len(g.cat.Events))])
	}
	return rep
}

// combatantTurn plays the boss if present, else the rival while it stands.
func (g *Game) combatantTurn() string {
	var core *rival.CombatantCore
	switch {
	case g.boss != nil:
		core = &g.boss.CombatantCore
	case !g.rival.Defeated:
		core = &g.rival.CombatantCore
	default:
		return ""
	}

	view := rival.PlayerView{
		Followers: len(g.followers),
		Faith:     g.pool.Faith,
		Crumbs:    g.pool.Crumbs,
		Morale:    g.pool.Morale,
	}
	opt := rival.Options{FaithGainMultiplier: weather.MapToSim(g.weather).RivalFaith}
	res := rival.RunTurn(*core, view, opt, g.rng)
	*core = res.Core

	if res.Played == nil {
		return ""
	}
	g.applyAll(res.Effects, core.Name)
	g.record(res.Action, CategoryRival)
	slog.Debug("rival turn", "name", core.Name, "card", res.Played.ID)
	return res.Action
}
