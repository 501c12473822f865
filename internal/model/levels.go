package model

import "time"

// LevelCount is the number of precomputed levels per instrument and date.
const LevelCount = 14

// LevelSet is the set of support/resistance levels for one instrument on one date.
type LevelSet struct {
	Date       time.Time
	Instrument Instrument
	Levels     [LevelCount]float64
	Complete   bool // all 14 stored values were non-NULL
	Diff       float64
	HasDiff    bool
}
