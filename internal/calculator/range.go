package calculator

import (
	"errors"
	"math"

	"NiftyLevels/internal/model"
)

// CalculatePriceRange scans bars for the lowest low and highest high, widened
// by any defined value of the extra series. NaN values are ignored.
func CalculatePriceRange(bars []model.Bar, extra ...[]float64) (low, high float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	for _, series := range extra {
		for _, v := range series {
			if math.IsNaN(v) {
				continue
			}
			if v > high {
				high = v
			}
			if v < low {
				low = v
			}
		}
	}
	return low, high, nil
}

// PadRange expands [low, high] by frac of its span on each side.
func PadRange(low, high, frac float64) (float64, float64) {
	padding := (high - low) * frac
	return low - padding, high + padding
}
