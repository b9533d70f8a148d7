// Package economy holds the resource pool, buildings and their cost curves.
// Rates per tick are computed by the engine from these plus the aggregated
// modifier coefficients.
package economy

import "math"

// Resource names a spendable or producible quantity.
type Resource string

const (
	Faith           Resource = "Faith"
	Crumbs          Resource = "Crumbs"
	DivineFavor     Resource = "DivineFavor"
	BreadCoin       Resource = "BreadCoin"
	AscensionPoints Resource = "AscensionPoints"
)

// Starting values for a new session.
const (
	StartingFaith       = 10
	StartingCrumbs      = 25
	StartingMorale      = 75
	StartingDivineFavor = 0

	BaseFaithPerSecond    = 0.5
	BaseCrumbsPerFollower = 0.1

	MaxMorale = 100

	// InflationPerTick compounds every economy tick.
	InflationPerTick = 1.00001
)

// Pool is the player's scalar resources. Only the engine's tick and the
// effect dispatcher mutate it.
type Pool struct {
	Faith           float64 `json:"faith"`
	Crumbs          float64 `json:"crumbs"`
	BreadCoin       float64 `json:"bread_coin"`
	DivineFavor     float64 `json:"divine_favor"`
	AscensionPoints float64 `json:"ascension_points"`
	Morale          float64 `json:"morale"`
	Inflation       float64 `json:"inflation"`
}

// NewPool returns the starting pool.
func NewPool() Pool {
	return Pool{
		Faith:       StartingFaith,
		Crumbs:      StartingCrumbs,
		DivineFavor: StartingDivineFavor,
		Morale:      StartingMorale,
		Inflation:   1.0,
	}
}

// Get returns the amount held of r. Unknown resources hold nothing.
func (p *Pool) Get(r Resource) float64 {
	switch r {
	case Faith:
		return p.Faith
	case Crumbs:
		return p.Crumbs
	case DivineFavor:
		return p.DivineFavor
	case BreadCoin:
		return p.BreadCoin
	case AscensionPoints:
		return p.AscensionPoints
	}
	return 0
}

// Add changes r by delta, flooring at zero.
func (p *Pool) Add(r Resource, delta float64) {
	switch r {
	case Faith:
		p.Faith = math.Max(0, p.Faith+delta)
	case Crumbs:
		p.Crumbs = math.Max(0, p.Crumbs+delta)
	case DivineFavor:
		p.DivineFavor = math.Max(0, p.DivineFavor+delta)
	case BreadCoin:
		p.BreadCoin = math.Max(0, p.BreadCoin+delta)
	case AscensionPoints:
		p.AscensionPoints = math.Max(0, p.AscensionPoints+delta)
	}
}

// MoraleCeiling is the effective morale cap given a ceiling bonus.
func MoraleCeiling(bonus float64) float64 {
	return MaxMorale + bonus
}

// ClampMorale bounds m to [0, MoraleCeiling(bonus)].
func ClampMorale(m, bonus float64) float64 {
	return math.Max(0, math.Min(MoraleCeiling(bonus), m))
}

// InflatedCost scales a base cost by the current inflation factor, rounding up.
func InflatedCost(base, inflation float64) float64 {
	return math.Ceil(base * inflation)
}
