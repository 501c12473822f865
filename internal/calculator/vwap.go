package calculator

import (
	"math"

	"NiftyLevels/internal/model"
)

// TypicalPrice maps a bar to the price that is weighted by volume.
type TypicalPrice func(b model.Bar) float64

// LowWeighted emphasises the low: (2*low + close) / 3.
func LowWeighted(b model.Bar) float64 { return (b.Low + b.Low + b.Close) / 3 }

// HighWeighted emphasises the high: (2*high + close) / 3.
func HighWeighted(b model.Bar) float64 { return (b.High + b.High + b.Close) / 3 }

// CumulativeVWAP returns the running volume-weighted average of tp over bars,
// anchored at the first bar. The value at i depends only on bars[0..i]. While
// the cumulative volume is zero the value is NaN. Bars with an unrecorded (NaN)
// volume add nothing to either sum and get NaN.
func CumulativeVWAP(bars []model.Bar, tp TypicalPrice) []float64 {
	out := make([]float64, len(bars))
	var num, den float64
	for i, b := range bars {
		if math.IsNaN(b.Volume) {
			out[i] = math.NaN()
			continue
		}
		num += tp(b) * b.Volume
		den += b.Volume
		if den == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = num / den
	}
	return out
}

// CalculateVWAPLow computes the low-weighted cumulative VWAP.
func CalculateVWAPLow(bars []model.Bar) []float64 {
	return CumulativeVWAP(bars, LowWeighted)
}

// CalculateVWAPHigh computes the high-weighted cumulative VWAP.
func CalculateVWAPHigh(bars []model.Bar) []float64 {
	return CumulativeVWAP(bars, HighWeighted)
}
