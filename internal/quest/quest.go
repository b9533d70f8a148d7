// Package quest holds the quest chain and objective evaluation.
package quest

// ObjectiveType names what an objective measures.
type ObjectiveType string

const (
	ReachFollowers ObjectiveType = "REACH_FOLLOWERS"
	DefeatRival    ObjectiveType = "DEFEAT_RIVAL"
	DefeatBoss     ObjectiveType = "DEFEAT_BOSS"
	PlayCards      ObjectiveType = "PLAY_CARDS"
)

// Objective is a typed target.
type Objective struct {
	Type        ObjectiveType `yaml:"type" json:"type"`
	Description string        `yaml:"description" json:"description"`
	Target      float64       `yaml:"target" json:"target"`
}

// Reward is granted once when every objective is met.
type Reward struct {
	DivineFavor float64 `yaml:"divine_favor" json:"divine_favor,omitempty"`
	Faith       float64 `yaml:"faith" json:"faith,omitempty"`
	Crumbs      float64 `yaml:"crumbs" json:"crumbs,omitempty"`
}

// Quest is one link of the chain.
type Quest struct {
	ID           string      `yaml:"id" json:"id"`
	Name         string      `yaml:"name" json:"name"`
	Description  string      `yaml:"description" json:"description"`
	UnlocksAfter string      `yaml:"unlocks_after" json:"unlocks_after,omitempty"`
	Objectives   []Objective `yaml:"objectives" json:"objectives"`
	Reward       Reward      `yaml:"reward" json:"reward"`

	// Hooks fired on completion.
	OfferDogma bool `yaml:"offer_dogma" json:"offer_dogma,omitempty"`
	SummonBoss bool `yaml:"summon_boss" json:"summon_boss,omitempty"`
}

// Progress maps each objective type to its current value.
type Progress map[ObjectiveType]float64

// Status is the game state objectives are measured against.
type Status struct {
	Followers     int
	RivalDefeated bool
	BossDefeated  bool
	CardsPlayed   int
}

// Value returns the current measure for an objective type.
func (s Status) Value(t ObjectiveType) float64 {
	switch t {
	case ReachFollowers:
		return float64(s.Followers)
	case DefeatRival:
		return boolValue(s.RivalDefeated)
	case DefeatBoss:
		return boolValue(s.BossDefeated)
	case PlayCards:
		return float64(s.CardsPlayed)
	}
	return 0
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Evaluate re-checks every objective of q and reports whether all are met.
func Evaluate(q *Quest, s Status) (Progress, bool) {
	p := make(Progress, len(q.Objectives))
	done := true
	for _, o := range q.Objectives {
		v := s.Value(o.Type)
		p[o.Type] = v
		if v < o.Target {
			done = false
		}
	}
	return p, done
}

// First returns the quest with no prerequisite.
func First(chain []*Quest) *Quest {
	for _, q := range chain {
		if q.UnlocksAfter == "" {
			return q
		}
	}
	return nil
}

// Next returns the quest unlocked by completing id, or nil at the chain's end.
func Next(chain []*Quest, id string) *Quest {
	for _, q := range chain {
		if q.UnlocksAfter == id {
			return q
		}
	}
	return nil
}

// Find returns the quest with the given ID, or nil.
func Find(chain []*Quest, id string) *Quest {
	for _, q := range chain {
		if q.ID == id {
			return q
		}
	}
	return nil
}
