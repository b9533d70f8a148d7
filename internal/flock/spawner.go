package flock

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/pigeon-pope/internal/entropy"
)

var pigeonNames = []string{
	"Pecky", "Coo-lin", "Wingston", "Bread-ley", "Skybert", "Ruffles", "Pidge", "Featherick",
}

// Spawner recruits new followers with randomized personality and stats.
type Spawner struct {
	rng entropy.Source
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng entropy.Source) *Spawner {
	return &Spawner{rng: rng}
}

// Recruit creates n fresh followers.
func (s *Spawner) Recruit(n int) []*Follower {
	out := make([]*Follower, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, s.spawnOne(personalities[s.rng.Intn(len(personalities))]))
	}
	return out
}

// Founder creates the single Standard follower every session starts with.
func (s *Spawner) Founder() *Follower {
	return s.spawnOne(Standard)
}

func (s *Spawner) spawnOne(p Personality) *Follower {
	f := &Follower{
		ID:           uuid.NewString(),
		Name:         fmt.Sprintf("%s #%d", pigeonNames[s.rng.Intn(len(pigeonNames))], s.rng.Intn(100)),
		Personality:  p,
		Devotion:     50 + float64(s.rng.Intn(20)),
		ChaosIndex:   10 + float64(s.rng.Intn(10)),
		Loyalty:      60 + float64(s.rng.Intn(20)),
		Productivity: 1.0,
		Emotions: Emotions{
			Joy:  40 + float64(s.rng.Intn(20)),
			Fear: 10 + float64(s.rng.Intn(20)),
		},
		AnimationState: "idle",
	}

	switch p {
	case Devout:
		f.Devotion = clamp(f.Devotion + 15)
	case Lazy:
		f.Devotion = clamp(f.Devotion - 10)
		f.Productivity = 0.7
	case Rebel:
		f.Loyalty = clamp(f.Loyalty - 20)
		f.ChaosIndex = clamp(f.ChaosIndex + 15)
	}
	return f
}
