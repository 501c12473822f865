package model

import "time"

// DateLayout is the storage and wire format of a trading date.
const DateLayout = "2006-01-02"

// Bar represents a single intraday candlestick sample.
type Bar struct {
	Timestamp int64
	Time      time.Time
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64  // NaN when not recorded
	FeedVWAP  *float64 // vwap as stored by the ingestion feed; informational only
}

// Series holds the ordered bars of one instrument on one trading date.
type Series struct {
	Instrument Instrument
	Date       time.Time
	Bars       []Bar
	HasVolume  bool      // false when no bar has a recorded volume
	Levels     *LevelSet // nil when no levels exist for the date
}

// LevelsAt returns the levels exposed by bar i. Levels are date-scoped, so
// every bar of the series exposes the same set.
func (s *Series) LevelsAt(i int) *LevelSet {
	if i < 0 || i >= len(s.Bars) {
		return nil
	}
	return s.Levels
}

// Risk returns the truncated diff value of the attached levels, if any.
func (s *Series) Risk() (int, bool) {
	if s.Levels == nil || !s.Levels.HasDiff {
		return 0, false
	}
	return int(s.Levels.Diff), true
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BarRecord is one stored bar together with the row attributes the loaders
// need for grouping and volume detection.
type BarRecord struct {
	Symbol      string
	Bar         Bar
	VolumeValid bool
}
