// Package flock provides the follower data model, recruitment, and the
// slow personality drift applied every economy tick.
package flock

// Personality fixes a follower's stat deltas at creation and its drift.
type Personality string

const (
	Standard Personality = "Standard"
	Devout   Personality = "Devout"
	Lazy     Personality = "Lazy"
	Rebel    Personality = "Rebel"
)

var personalities = []Personality{Standard, Devout, Lazy, Rebel}

// Emotions is presentation flavor that the core only carries.
type Emotions struct {
	Joy  float64 `json:"joy"`  // 0–100
	Fear float64 `json:"fear"` // 0–100
}

// Follower is one pigeon of the flock.
type Follower struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Personality  Personality `json:"personality"`
	Devotion     float64     `json:"devotion"`    // 0–100
	Loyalty      float64     `json:"loyalty"`     // 0–100
	ChaosIndex   float64     `json:"chaos_index"` // 0–100
	Productivity float64     `json:"productivity"`
	Emotions     Emotions    `json:"emotions"`

	// AnimationState is owned by the presentation layer.
	AnimationState string `json:"animation_state,omitempty"`
}

// Praise raises devotion and loyalty, capped at 100.
func (f *Follower) Praise() {
	f.Devotion = clamp(f.Devotion + 10)
	f.Loyalty = clamp(f.Loyalty + 5)
}

// CountDevout returns the number of Devout followers.
func CountDevout(followers []*Follower) int {
	n := 0
	for _, f := range followers {
		if f.Personality == Devout {
			n++
		}
	}
	return n
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
