package weather

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// DefaultThreshold is the noise level above which weather breaks.
const DefaultThreshold = 0.68

// Forecaster decides on each AI turn whether a new weather event starts.
// Two noise fields are sampled along the turn axis: one for onset, one for
// which event. Smooth noise keeps clear and stormy spells clustered.
type Forecaster struct {
	onset     opensimplex.Noise
	pick      opensimplex.Noise
	Threshold float64
}

// NewForecaster creates a forecaster seeded for reproducible skies.
func NewForecaster(seed int64) *Forecaster {
	return &Forecaster{
		onset:     opensimplex.NewNormalized(seed),
		pick:      opensimplex.NewNormalized(seed + 1),
		Threshold: DefaultThreshold,
	}
}

// Sample returns the onset reading for an AI turn, in [0, 1).
func (f *Forecaster) Sample(turn uint64) float64 {
	return octaveNoise(f.onset, float64(turn), 0, 3, 0.11, 0.5)
}

// Next returns the event to start on turn, or nil for clear skies.
func (f *Forecaster) Next(turn uint64, defs []*Def) *Def {
	if len(defs) == 0 || f.Sample(turn) < f.Threshold {
		return nil
	}
	v := f.pick.Eval2(float64(turn)*0.37, 17)
	idx := int(v * float64(len(defs)))
	if idx >= len(defs) {
		idx = len(defs) - 1
	}
	return defs[idx]
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
