package rules

import "github.com/talgya/pigeon-pope/internal/social"

// Trigger is a faction-specific AI reaction declared in content. When the
// faction is Neutral, the condition holds and the chance roll succeeds, the
// message is queued and, if set, the status changes.
type Trigger struct {
	Faction   string        `yaml:"faction"`
	When      string        `yaml:"when"`
	Chance    float64       `yaml:"chance"`
	SetStatus social.Status `yaml:"set_status,omitempty"`
	Message   string        `yaml:"message"`
}

// PlayerFacts is the player state exposed to conditions.
type PlayerFacts struct {
	Level     int
	Followers int
	Territory int
	Relics    int
	Faith     float64
	Crumbs    float64
	Morale    float64
}

// Power is the player's standing as the factions judge it.
func (p PlayerFacts) Power() float64 {
	return float64(p.Level*5 + p.Followers*2 + p.Territory*3)
}

// Context converts the facts into the CEL player map. Numbers are doubles
// so content can compare them with double literals.
func (p PlayerFacts) Context() map[string]any {
	return map[string]any{
		"level":     float64(p.Level),
		"followers": float64(p.Followers),
		"territory": float64(p.Territory),
		"relics":    float64(p.Relics),
		"faith":     p.Faith,
		"crumbs":    p.Crumbs,
		"morale":    p.Morale,
		"power":     p.Power(),
	}
}

// FactionContext converts a faction into the CEL faction map.
func FactionContext(f *social.Faction) map[string]any {
	if f == nil {
		return nil
	}
	return map[string]any{
		"id":              f.ID,
		"relationship":    f.Relationship,
		"power":           f.Power,
		"status":          string(f.Status),
		"has_treaty":      f.HasActiveTreaty(),
		"treaties_signed": float64(len(f.ActiveTreatyEffects())),
	}
}

// BuildEvalContext assembles the variables for one faction evaluation.
func BuildEvalContext(p PlayerFacts, f *social.Faction) map[string]any {
	return map[string]any{
		"player":  p.Context(),
		"faction": FactionContext(f),
	}
}
