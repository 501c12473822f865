package model

import "time"

// ChartSpec is a renderer-agnostic candlestick chart description.
type ChartSpec struct {
	Title   string        `json:"title"`
	Height  int           `json:"height"`
	Candles []Candle      `json:"candles"`
	Lines   []LineOverlay `json:"lines"`
	Levels  []LevelLine   `json:"levels"`
	XRange  [2]time.Time  `json:"x_range"`
	YRange  [2]float64    `json:"y_range"`
	Style   ChartStyle    `json:"style"`
}

// Candle is one OHLC body.
type Candle struct {
	Time  time.Time `json:"t"`
	Open  float64   `json:"o"`
	High  float64   `json:"h"`
	Low   float64   `json:"l"`
	Close float64   `json:"c"`
}

// Point is one sample of a line overlay.
type Point struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
}

// LineOverlay is a computed line drawn over the candles.
type LineOverlay struct {
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	Width   int     `json:"width"`
	Opacity float64 `json:"opacity"`
	Points  []Point `json:"points"`
}

// LevelLine is a horizontal reference line for one level.
type LevelLine struct {
	Index   int     `json:"index"` // 1-based level number
	Value   int     `json:"value"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
	Width   int     `json:"width"`
	Opacity float64 `json:"opacity"`
}

// ChartStyle carries the presentation constants of a chart.
type ChartStyle struct {
	Background      string `json:"background"`
	GridColor       string `json:"grid_color"`
	TextColor       string `json:"text_color"`
	IncreasingColor string `json:"increasing_color"`
	DecreasingColor string `json:"decreasing_color"`
	TimeFormat      string `json:"time_format"`
}
