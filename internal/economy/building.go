package economy

import (
	"math"

	"github.com/talgya/pigeon-pope/internal/effects"
)

// BuildingDef is the static definition of a building.
type BuildingDef struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	ProductionType Resource        `yaml:"production_type"` // Empty for pure-buff buildings.
	BaseProduction float64         `yaml:"base_production"` // Per second, per level.
	BaseCost       float64         `yaml:"base_cost"`
	CostResource   Resource        `yaml:"cost_resource"`
	CostMultiplier float64         `yaml:"cost_multiplier"`
	Buff           *effects.Effect `yaml:"buff,omitempty"` // Magnitude per level.
}

// Building is a definition plus the player's level in it. Level 0 is unbuilt.
type Building struct {
	*BuildingDef
	Level int
}

// NewBuildings creates unbuilt instances of every definition, preserving order.
func NewBuildings(defs []*BuildingDef) []*Building {
	out := make([]*Building, 0, len(defs))
	for _, d := range defs {
		out = append(out, &Building{BuildingDef: d})
	}
	return out
}

// UpgradeCost is the un-inflated price of the next level:
// floor(baseCost × multiplier^level).
func (b *Building) UpgradeCost() float64 {
	return math.Floor(b.BaseCost * math.Pow(b.CostMultiplier, float64(b.Level)))
}

// Production returns this building's per-second output of r at its level.
func (b *Building) Production(r Resource) float64 {
	if b.Level <= 0 || b.ProductionType != r {
		return 0
	}
	return b.BaseProduction * float64(b.Level)
}

// TotalLevels sums the levels of all buildings.
func TotalLevels(buildings []*Building) int {
	total := 0
	for _, b := range buildings {
		total += b.Level
	}
	return total
}

// TotalProduction sums per-second output of r across buildings.
func TotalProduction(buildings []*Building, r Resource) float64 {
	total := 0.0
	for _, b := range buildings {
		total += b.Production(r)
	}
	return total
}
