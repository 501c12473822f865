// Package chart turns one level-annotated series into a renderable
// candlestick chart with two VWAP overlays and the level lines.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"NiftyLevels/internal/calculator"
	"NiftyLevels/internal/model"
)

// RangePadding is the fraction of the price span added above and below the y-range.
const RangePadding = 0.05

// LevelPalette assigns one fixed color per level index.
var LevelPalette = [model.LevelCount]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FECA57", "#FF9FF3", "#54A0FF",
	"#5F27CD", "#FF9F43", "#10AC84", "#EE5A24", "#0652DD", "#EA2027", "#A3CB38",
}

// DefaultStyle is the light TradingView-like theme.
var DefaultStyle = model.ChartStyle{
	Background:      "white",
	GridColor:       "#E5ECF6",
	TextColor:       "black",
	IncreasingColor: "#26a69a",
	DecreasingColor: "#ef5350",
	TimeFormat:      "%H:%M",
}

const (
	vwapLowName   = "VWAP (Low Source)"
	vwapHighName  = "VWAP (High Source)"
	vwapLowColor  = "#FF6B9D"
	vwapHighColor = "#4ECDC4"
	lineWidth     = 1
	lineOpacity   = 0.8
)

// Session is the visible trading window as wall-clock times of day.
type Session struct {
	Open  time.Duration
	Close time.Duration
}

// on returns the wall-clock time of day clock on the calendar date of t, in
// t's zone. Not midnight plus clock, which drifts on DST transition days.
func (Session) on(t time.Time, clock time.Duration) time.Time {
	h := int(clock / time.Hour)
	m := int(clock % time.Hour / time.Minute)
	sec := int(clock % time.Minute / time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), h, m, sec, 0, t.Location())
}

// NSESession is the 09:15 to 15:30 cash session.
var NSESession = Session{Open: 9*time.Hour + 15*time.Minute, Close: 15*time.Hour + 30*time.Minute}

// Options controls Build.
type Options struct {
	Title      string
	ShowLevels bool
	Risk       *int // appended to the title when set
	Height     int
	Session    Session
}

// Build produces the chart of series. The series must hold at least one bar;
// it is not modified.
func Build(series *model.Series, opts Options) *model.ChartSpec {
	bars := series.Bars
	spec := &model.ChartSpec{
		Title:   opts.Title,
		Height:  opts.Height,
		Candles: make([]model.Candle, len(bars)),
		Lines:   []model.LineOverlay{},
		Levels:  []model.LevelLine{},
		Style:   DefaultStyle,
	}
	if opts.Risk != nil {
		spec.Title = fmt.Sprintf("%s (Risk: %d)", opts.Title, *opts.Risk)
	}

	for i, b := range bars {
		spec.Candles[i] = model.Candle{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}

	var vwaps [][]float64
	if series.HasVolume {
		low := calculator.CalculateVWAPLow(bars)
		high := calculator.CalculateVWAPHigh(bars)
		vwaps = append(vwaps, low, high)
		spec.Lines = append(spec.Lines,
			overlay(vwapLowName, vwapLowColor, bars, low),
			overlay(vwapHighName, vwapHighColor, bars, high),
		)
	}

	session := opts.Session
	if session == (Session{}) {
		session = NSESession
	}
	first := bars[0].Time
	spec.XRange = [2]time.Time{session.on(first, session.Open), session.on(first, session.Close)}

	lo, hi, _ := calculator.CalculatePriceRange(bars, vwaps...)
	lo, hi = calculator.PadRange(lo, hi, RangePadding)
	spec.YRange = [2]float64{lo, hi}

	if opts.ShowLevels && series.Levels != nil && series.Levels.Complete {
		for i, v := range series.Levels.Levels {
			value := int(v)
			spec.Levels = append(spec.Levels, model.LevelLine{
				Index:   i + 1,
				Value:   value,
				Color:   LevelPalette[i],
				Label:   strconv.Itoa(value),
				Width:   lineWidth,
				Opacity: lineOpacity,
			})
		}
	}

	return spec
}

func overlay(name, color string, bars []model.Bar, values []float64) model.LineOverlay {
	line := model.LineOverlay{Name: name, Color: color, Width: lineWidth, Opacity: lineOpacity, Points: []model.Point{}}
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		line.Points = append(line.Points, model.Point{Time: bars[i].Time, Value: v})
	}
	return line
}
