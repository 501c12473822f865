package store

import (
	"context"
	"sort"
	"time"

	"NiftyLevels/internal/model"
)

// MemoryStore is an in-memory Store for development and testing. Err, when
// set, is returned by every read.
type MemoryStore struct {
	Index     map[string][]model.BarRecord // keyed by date
	Options   map[string][]model.BarRecord // keyed by date
	LevelSets map[string]*model.LevelSet   // keyed by date + "/" + symbol
	Err       error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Index:     make(map[string][]model.BarRecord),
		Options:   make(map[string][]model.BarRecord),
		LevelSets: make(map[string]*model.LevelSet),
	}
}

func levelKey(date time.Time, symbol string) string {
	return date.Format(model.DateLayout) + "/" + symbol
}

// AddIndexBars appends index bars for their own dates.
func (m *MemoryStore) AddIndexBars(bars ...model.Bar) {
	for _, b := range bars {
		d := b.Date.Format(model.DateLayout)
		m.Index[d] = append(m.Index[d], model.BarRecord{Bar: b, VolumeValid: true})
	}
}

// AddOptionBars appends option bars of symbol for their own dates.
func (m *MemoryStore) AddOptionBars(symbol string, bars ...model.Bar) {
	for _, b := range bars {
		d := b.Date.Format(model.DateLayout)
		m.Options[d] = append(m.Options[d], model.BarRecord{Symbol: symbol, Bar: b, VolumeValid: true})
	}
}

// SetLevels stores set under its date and instrument symbol.
func (m *MemoryStore) SetLevels(set *model.LevelSet) {
	m.LevelSets[levelKey(set.Date, set.Instrument.Symbol)] = set
}

func (m *MemoryStore) AvailableDates(_ context.Context) ([]time.Time, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var dates []time.Time
	for _, recs := range m.Index {
		if len(recs) == 0 {
			continue
		}
		d := recs[0].Bar.Date
		if model.IsWeekday(d) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

func (m *MemoryStore) Levels(_ context.Context, date time.Time, inst model.Instrument) (*model.LevelSet, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.LevelSets[levelKey(date, inst.Symbol)], nil
}

func (m *MemoryStore) IndexBars(_ context.Context, date time.Time) ([]model.BarRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	recs := append([]model.BarRecord(nil), m.Index[date.Format(model.DateLayout)]...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Bar.Timestamp < recs[j].Bar.Timestamp })
	return recs, nil
}

func (m *MemoryStore) OptionBars(_ context.Context, date time.Time) ([]model.BarRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	recs := append([]model.BarRecord(nil), m.Options[date.Format(model.DateLayout)]...)
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Symbol != recs[j].Symbol {
			return recs[i].Symbol < recs[j].Symbol
		}
		return recs[i].Bar.Timestamp < recs[j].Bar.Timestamp
	})
	return recs, nil
}

func (m *MemoryStore) Close() error { return nil }
