package engine

import "time"

// Event is a notable occurrence in the session's chronicle.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Chronicle categories.
const (
	CategorySystem    = "system"
	CategoryCard      = "card"
	CategoryCombat    = "combat"
	CategoryRival     = "rival"
	CategoryFaction   = "faction"
	CategoryEconomy   = "economy"
	CategoryQuest     = "quest"
	CategoryWeather   = "weather"
	CategoryFlock     = "flock"
	CategoryNarrative = "narrative"
)

// Chronicle sizes. The snapshot shows the newest VisibleEvents; older
// entries are kept up to MaxEvents so an autosave can persist them.
const (
	VisibleEvents = 50
	MaxEvents     = 200
)

func (g *Game) record(desc, category string) {
	g.events = append(g.events, Event{Tick: g.tick, Description: desc, Category: category})
	if len(g.events) > MaxEvents {
		g.events = append(g.events[:0:0], g.events[len(g.events)-MaxEvents:]...)
	}
}

// Chronicle returns up to n of the newest events, oldest first.
func (g *Game) Chronicle(n int) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recent(n)
}

func (g *Game) recent(n int) []Event {
	start := max(len(g.events)-n, 0)
	return append([]Event(nil), g.events[start:]...)
}

// GameTime renders a tick count as elapsed game time, e.g. "1h2m30s".
func GameTime(tick uint64) string {
	return (time.Duration(tick) * time.Second / TicksPerSecond).Round(time.Second).String()
}
