// Package weather provides the timed weather events that bend the economy:
// their rate modifiers and a noise-driven forecaster that decides when the
// next one rolls in.
package weather

// Def is a weather event definition.
type Def struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Art         string `yaml:"art" json:"art,omitempty"`
	Duration    int    `yaml:"duration" json:"duration"` // Seconds.

	FaithGainMultiplier      float64 `yaml:"faith_gain_multiplier" json:"faith_gain_multiplier,omitempty"`
	CrumbGainMultiplier      float64 `yaml:"crumb_gain_multiplier" json:"crumb_gain_multiplier,omitempty"`
	RivalFaithGainMultiplier float64 `yaml:"rival_faith_gain_multiplier" json:"rival_faith_gain_multiplier,omitempty"`
	HeresyPerSecondAdd       float64 `yaml:"heresy_per_second_add" json:"heresy_per_second_add,omitempty"`
}

// Active is a running weather event.
type Active struct {
	*Def
	Remaining int `json:"remaining"` // Economy ticks.
}

// Start begins def, converting its duration to ticks.
func Start(def *Def, ticksPerSecond int) *Active {
	return &Active{Def: def, Remaining: def.Duration * ticksPerSecond}
}

// Tick counts down one economy tick and reports whether the event is over.
func (a *Active) Tick() bool {
	a.Remaining--
	return a.Remaining <= 0
}

// Modifiers holds the rate adjustments of the current weather.
type Modifiers struct {
	Faith      float64 // Multiplier on faith per second.
	Crumbs     float64 // Multiplier on crumbs per second.
	RivalFaith float64 // Multiplier on the rival's passive faith gain.
	HeresyAdd  float64 // Added to the heresy drain per second.
}

// Clear is the modifier set with no weather.
var Clear = Modifiers{Faith: 1, Crumbs: 1, RivalFaith: 1}

// MapToSim converts the active weather into rate modifiers. A nil event or
// an unset multiplier leaves the rate unchanged.
func MapToSim(a *Active) Modifiers {
	m := Clear
	if a == nil || a.Def == nil {
		return m
	}
	if a.FaithGainMultiplier != 0 {
		m.Faith = a.FaithGainMultiplier
	}
	if a.CrumbGainMultiplier != 0 {
		m.Crumbs = a.CrumbGainMultiplier
	}
	if a.RivalFaithGainMultiplier != 0 {
		m.RivalFaith = a.RivalFaithGainMultiplier
	}
	m.HeresyAdd = a.HeresyPerSecondAdd
	return m
}
