package loader

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"NiftyLevels/internal/model"
)

// Loader assembles level-annotated series from a Source.
type Loader struct {
	Source      Source
	IndexSymbol string
	Log         logrus.FieldLogger
}

// NewLoader creates a new Loader.
func NewLoader(src Source, indexSymbol string, log logrus.FieldLogger) *Loader {
	return &Loader{Source: src, IndexSymbol: indexSymbol, Log: log}
}

// LoadIndexSeries returns the index series of date, or nil when no bars are stored.
func (l *Loader) LoadIndexSeries(ctx context.Context, date time.Time) (*model.Series, error) {
	recs, err := l.Source.IndexBars(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load index bars: %w", err)
	}
	if len(recs) == 0 {
		l.Log.WithField("date", date.Format(model.DateLayout)).Debug("no index bars")
		return nil, nil
	}

	inst := model.IndexInstrument(l.IndexSymbol)
	series := newSeries(inst, date, recs)
	if err := l.attachLevels(ctx, series); err != nil {
		return nil, err
	}
	return series, nil
}

// LoadOptionsSeries returns one series per option symbol traded on date. The
// map is empty, never nil, when no option bars are stored.
func (l *Loader) LoadOptionsSeries(ctx context.Context, date time.Time) (map[string]*model.Series, error) {
	recs, err := l.Source.OptionBars(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load option bars: %w", err)
	}

	chain := make(map[string]*model.Series)
	for start := 0; start < len(recs); {
		end := start + 1
		for end < len(recs) && recs[end].Symbol == recs[start].Symbol {
			end++
		}
		inst := model.OptionInstrument(recs[start].Symbol)
		series := newSeries(inst, date, recs[start:end])
		start = end

		if prev, ok := chain[inst.Symbol]; ok {
			// Rows of one symbol arrived in several runs.
			prev.Bars = append(prev.Bars, series.Bars...)
			sort.SliceStable(prev.Bars, func(i, j int) bool { return prev.Bars[i].Timestamp < prev.Bars[j].Timestamp })
			prev.HasVolume = prev.HasVolume || series.HasVolume
			continue
		}
		if err := l.attachLevels(ctx, series); err != nil {
			return nil, err
		}
		chain[inst.Symbol] = series
	}

	l.Log.WithFields(logrus.Fields{
		"date":    date.Format(model.DateLayout),
		"options": len(chain),
	}).Debug("option chain loaded")
	return chain, nil
}

func (l *Loader) attachLevels(ctx context.Context, s *model.Series) error {
	set, err := l.Source.Levels(ctx, s.Date, s.Instrument)
	if err != nil {
		return fmt.Errorf("load levels for %s: %w", s.Instrument.Symbol, err)
	}
	s.Levels = set
	return nil
}

func newSeries(inst model.Instrument, date time.Time, recs []model.BarRecord) *model.Series {
	s := &model.Series{
		Instrument: inst,
		Date:       date,
		Bars:       make([]model.Bar, len(recs)),
	}
	for i, r := range recs {
		s.Bars[i] = r.Bar
		if r.VolumeValid {
			s.HasVolume = true
		} else {
			s.Bars[i].Volume = math.NaN()
		}
	}
	return s
}
