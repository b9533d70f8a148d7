// Package effects defines the tagged values every game system uses to
// mutate state: card plays, dialogue options, loot boxes, treaties, relics
// and rival turns all speak in effects.
package effects

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the closed set of effect types understood by the dispatcher.
type Kind uint8

const (
	Unhandled Kind = iota // Tag from content this build does not know; applied as a no-op.

	// Resource deltas.
	GainFaith
	GainCrumbs
	LoseCrumbs
	GainMorale
	GainXP
	GainDivineFavor

	// Flock growth.
	GainFollowers
	GainFollowersByLevel

	// Combat against the active rival or boss.
	DamageRival
	LuckyDamageRival
	PiousDamageRival
	SwarmDamageRival

	// Acquisition.
	GainRelic
	GainLootBox

	// Timed debuff on the active rival or boss.
	RivalHeresyRateMultiplier

	// Faction relationship shifts. Faction holds the target.
	ImproveRelations
	WorsenRelations

	FaithFromBuildings
	CrumbCrusade

	// Rival turn outcomes aimed at the player.
	StealFollowers
	StealCrumbs
	AttackFaith
	AddHeresy
	BoostHeresyRate
	DiscardCards

	// Passive modifiers carried by buildings, relics, treaties, alliances and dogmas.
	FaithGainMultiplier
	FollowerCrumbProductionMultiplier
	CrumbGainAdd
	GlobalMoraleBoost
	GlobalHeresyReduction
	CombatDamageMultiplier
	XPMultiplier
	MoraleGainAdd
	LuckAdd
	CrumbGainMultiplier
	ConflictDamageMultiplier
	PassiveFaithGain
)

var kindTags = map[Kind]string{
	GainFaith:                         "GAIN_FAITH",
	GainCrumbs:                        "GAIN_CRUMBS",
	LoseCrumbs:                        "LOSE_CRUMBS",
	GainMorale:                        "GAIN_MORALE",
	GainXP:                            "GAIN_XP",
	GainDivineFavor:                   "GAIN_DIVINE_FAVOR",
	GainFollowers:                     "GAIN_FOLLOWERS",
	GainFollowersByLevel:              "GAIN_FOLLOWERS_BY_LEVEL",
	DamageRival:                       "DAMAGE_RIVAL",
	LuckyDamageRival:                  "LUCKY_DAMAGE_RIVAL",
	PiousDamageRival:                  "PIOUS_DAMAGE_RIVAL",
	SwarmDamageRival:                  "SWARM_DAMAGE_RIVAL",
	GainRelic:                         "GAIN_RELIC",
	GainLootBox:                       "GAIN_LOOTBOX",
	RivalHeresyRateMultiplier:         "RIVAL_HERESY_RATE_MULTIPLIER",
	FaithFromBuildings:                "GAIN_FAITH_FROM_BUILDINGS",
	CrumbCrusade:                      "CRUMB_CRUSADE",
	StealFollowers:                    "STEAL_FOLLOWERS",
	StealCrumbs:                       "STEAL_CRUMBS",
	AttackFaith:                       "ATTACK_FAITH",
	AddHeresy:                         "ADD_HERESY",
	BoostHeresyRate:                   "BOOST_HERESY_RATE",
	DiscardCards:                      "DISCARD_CARDS",
	FaithGainMultiplier:               "FAITH_GAIN_MULTIPLIER",
	FollowerCrumbProductionMultiplier: "FOLLOWER_CRUMB_PRODUCTION_MULTIPLIER",
	CrumbGainAdd:                      "CRUMB_GAIN_ADD",
	GlobalMoraleBoost:                 "GLOBAL_MORALE_BOOST",
	GlobalHeresyReduction:             "GLOBAL_HERESY_REDUCTION",
	CombatDamageMultiplier:            "COMBAT_DAMAGE_MULTIPLIER",
	XPMultiplier:                      "XP_MULTIPLIER",
	MoraleGainAdd:                     "MORALE_GAIN_ADD",
	LuckAdd:                           "LUCK_ADD",
	CrumbGainMultiplier:               "CRUMB_GAIN_MULTIPLIER",
	ConflictDamageMultiplier:          "CONFLICT_DAMAGE_MULTIPLIER",
	PassiveFaithGain:                  "PASSIVE_FAITH_GAIN",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		m[tag] = k
	}
	return m
}()

// String returns the content tag for the kind.
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	switch k {
	case ImproveRelations:
		return "IMPROVE_RELATIONS"
	case WorsenRelations:
		return "WORSEN_RELATIONS"
	}
	return "UNHANDLED"
}

// MarshalText encodes the kind as its content tag.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a content tag. Unknown tags become Unhandled.
func (k *Kind) UnmarshalText(text []byte) error {
	*k, _ = Parse(string(text))
	return nil
}

// IsCombat reports whether the kind deals damage to the active rival or boss.
func (k Kind) IsCombat() bool {
	switch k {
	case DamageRival, LuckyDamageRival, PiousDamageRival, SwarmDamageRival:
		return true
	}
	return false
}

// Effect is one tagged state mutation.
type Effect struct {
	Kind     Kind
	Value    float64
	Ref      string // Relic or loot box ID for acquisition kinds.
	Faction  string // Target faction for relationship shifts.
	Duration int    // Ticks, for timed kinds. Zero means instant.
	Tag      string // Raw content tag; preserved so Unhandled effects survive a round trip.
}

// New builds a numeric effect of the given kind.
func New(kind Kind, value float64) Effect {
	return Effect{Kind: kind, Value: value, Tag: kind.String()}
}

// Relations builds a relationship shift toward (improve) or away from a faction.
func Relations(factionID string, improve bool, amount float64) Effect {
	kind := WorsenRelations
	verb := "WORSEN"
	if improve {
		kind = ImproveRelations
		verb = "IMPROVE"
	}
	noun := strings.ToUpper(strings.TrimSuffix(factionID, "s"))
	return Effect{Kind: kind, Value: amount, Faction: factionID, Tag: verb + "_" + noun + "_RELATIONS"}
}

// Parse maps a content tag to its kind. Relationship tags have the form
// IMPROVE_<FACTION>_RELATIONS or WORSEN_<FACTION>_RELATIONS, where <FACTION>
// is the singular of the faction ID ("RAT" for "rats").
func Parse(tag string) (kind Kind, faction string) {
	if k, ok := tagKinds[tag]; ok {
		return k, ""
	}
	parts := strings.Split(tag, "_")
	if len(parts) >= 3 && parts[len(parts)-1] == "RELATIONS" {
		noun := strings.ToLower(strings.Join(parts[1:len(parts)-1], "_"))
		switch parts[0] {
		case "IMPROVE":
			return ImproveRelations, noun + "s"
		case "WORSEN":
			return WorsenRelations, noun + "s"
		}
	}
	return Unhandled, ""
}

// wire is the content/JSON shape: {type, value, duration}.
type wire struct {
	Type     string `json:"type" yaml:"type"`
	Value    any    `json:"value" yaml:"value"`
	Duration int    `json:"duration,omitempty" yaml:"duration,omitempty"`
}

func (e Effect) toWire() wire {
	w := wire{Type: e.Tag, Duration: e.Duration}
	if w.Type == "" {
		w.Type = e.Kind.String()
	}
	if e.Ref != "" {
		w.Value = e.Ref
	} else {
		w.Value = e.Value
	}
	return w
}

func fromWire(w wire) (Effect, error) {
	kind, faction := Parse(w.Type)
	e := Effect{Kind: kind, Faction: faction, Duration: w.Duration, Tag: w.Type}
	switch v := w.Value.(type) {
	case nil:
	case int:
		e.Value = float64(v)
	case int64:
		e.Value = float64(v)
	case float64:
		e.Value = v
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil && kind != GainRelic && kind != GainLootBox {
			e.Value = n
		} else {
			e.Ref = v
		}
	default:
		return Effect{}, fmt.Errorf("effect %s: unsupported value %v", w.Type, v)
	}
	return e, nil
}

// MarshalJSON encodes the effect in its content shape.
func (e Effect) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toWire())
}

// UnmarshalJSON decodes the content shape.
func (e *Effect) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := fromWire(w)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// UnmarshalYAML decodes the content shape.
func (e *Effect) UnmarshalYAML(node *yaml.Node) error {
	var w wire
	if err := node.Decode(&w); err != nil {
		return err
	}
	parsed, err := fromWire(w)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
