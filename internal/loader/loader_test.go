package loader

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NiftyLevels/internal/model"
	"NiftyLevels/internal/store"
)

var day = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mkBar(offset int, price float64) model.Bar {
	t := day.Add(9*time.Hour + time.Duration(15+offset)*time.Minute)
	return model.Bar{Timestamp: t.Unix(), Time: t, Date: day, Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 100}
}

func levelSet(inst model.Instrument, base, diff float64) *model.LevelSet {
	set := &model.LevelSet{Date: day, Instrument: inst, Complete: true, Diff: diff, HasDiff: true}
	for i := range set.Levels {
		set.Levels[i] = base + float64(i)
	}
	return set
}

func TestLoadIndexSeries_WithLevels(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddIndexBars(mkBar(2, 102), mkBar(0, 100), mkBar(1, 101))
	mem.SetLevels(levelSet(model.IndexInstrument("NIFTY"), 101, 5))

	l := NewLoader(mem, "NIFTY", quietLog())
	s, err := l.LoadIndexSeries(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Len(t, s.Bars, 3)
	for i := 1; i < len(s.Bars); i++ {
		assert.LessOrEqual(t, s.Bars[i-1].Timestamp, s.Bars[i].Timestamp)
	}
	assert.True(t, s.HasVolume)
	assert.Equal(t, model.KindIndex, s.Instrument.Kind)

	for i := range s.Bars {
		got := s.LevelsAt(i)
		require.NotNil(t, got)
		assert.Equal(t, 101.0, got.Levels[0])
		assert.Equal(t, 114.0, got.Levels[13])
		assert.Equal(t, 5.0, got.Diff)
	}
	risk, ok := s.Risk()
	assert.True(t, ok)
	assert.Equal(t, 5, risk)
}

func TestLoadIndexSeries_NoLevels(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddIndexBars(mkBar(0, 100))

	s, err := NewLoader(mem, "NIFTY", quietLog()).LoadIndexSeries(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Nil(t, s.Levels)
	assert.Nil(t, s.LevelsAt(0))
	_, ok := s.Risk()
	assert.False(t, ok)
}

func TestLoadIndexSeries_Absent(t *testing.T) {
	s, err := NewLoader(store.NewMemoryStore(), "NIFTY", quietLog()).LoadIndexSeries(context.Background(), day)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestLoadIndexSeries_PartialNullVolume(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddIndexBars(mkBar(0, 100), mkBar(1, 101), mkBar(2, 102))
	mem.Index[day.Format(model.DateLayout)][1].VolumeValid = false

	s, err := NewLoader(mem, "NIFTY", quietLog()).LoadIndexSeries(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, s.HasVolume)
	assert.Equal(t, 100.0, s.Bars[0].Volume)
	assert.True(t, math.IsNaN(s.Bars[1].Volume))
	assert.Equal(t, 100.0, s.Bars[2].Volume)
}

func TestLoadIndexSeries_AllNullVolume(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddIndexBars(mkBar(0, 100), mkBar(1, 101))
	for i := range mem.Index[day.Format(model.DateLayout)] {
		mem.Index[day.Format(model.DateLayout)][i].VolumeValid = false
	}

	s, err := NewLoader(mem, "NIFTY", quietLog()).LoadIndexSeries(context.Background(), day)
	require.NoError(t, err)
	assert.False(t, s.HasVolume)
}

func TestLoadIndexSeries_SourceError(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Err = errors.New("disk on fire")

	_, err := NewLoader(mem, "NIFTY", quietLog()).LoadIndexSeries(context.Background(), day)
	require.Error(t, err)
	assert.ErrorIs(t, err, mem.Err)
}

func TestLoadOptionsSeries_GroupsAndLevels(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddOptionBars("NIFTY24PE", mkBar(1, 20), mkBar(0, 21))
	mem.AddOptionBars("NIFTY24CE", mkBar(0, 30), mkBar(1, 31), mkBar(2, 32))
	mem.SetLevels(levelSet(model.OptionInstrument("NIFTY24CE"), 25, 3))

	chain, err := NewLoader(mem, "NIFTY", quietLog()).LoadOptionsSeries(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, chain, 2)

	ce := chain["NIFTY24CE"]
	require.NotNil(t, ce)
	assert.Len(t, ce.Bars, 3)
	assert.Equal(t, model.KindOption, ce.Instrument.Kind)
	require.NotNil(t, ce.Levels)
	assert.Equal(t, 25.0, ce.Levels.Levels[0])

	pe := chain["NIFTY24PE"]
	require.NotNil(t, pe)
	assert.Len(t, pe.Bars, 2)
	assert.Less(t, pe.Bars[0].Timestamp, pe.Bars[1].Timestamp)
	assert.Nil(t, pe.Levels, "levels are per option, not shared")
}

func TestLoadOptionsSeries_Empty(t *testing.T) {
	chain, err := NewLoader(store.NewMemoryStore(), "NIFTY", quietLog()).LoadOptionsSeries(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, chain)
	assert.Empty(t, chain)
}

// interleavedSource returns option rows without grouping them by symbol.
type interleavedSource struct {
	*store.MemoryStore
	rows []model.BarRecord
}

func (s interleavedSource) OptionBars(_ context.Context, _ time.Time) ([]model.BarRecord, error) {
	return s.rows, nil
}

func TestLoadOptionsSeries_InterleavedRows(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.SetLevels(levelSet(model.OptionInstrument("NIFTY24CE"), 25, 3))
	src := interleavedSource{MemoryStore: mem, rows: []model.BarRecord{
		{Symbol: "NIFTY24CE", Bar: mkBar(2, 32), VolumeValid: true},
		{Symbol: "NIFTY24PE", Bar: mkBar(0, 20), VolumeValid: true},
		{Symbol: "NIFTY24CE", Bar: mkBar(0, 30), VolumeValid: false},
		{Symbol: "NIFTY24CE", Bar: mkBar(1, 31), VolumeValid: true},
	}}

	chain, err := NewLoader(src, "NIFTY", quietLog()).LoadOptionsSeries(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, chain, 2)

	ce := chain["NIFTY24CE"]
	require.Len(t, ce.Bars, 3)
	for i := 1; i < len(ce.Bars); i++ {
		assert.Less(t, ce.Bars[i-1].Timestamp, ce.Bars[i].Timestamp)
	}
	assert.True(t, math.IsNaN(ce.Bars[0].Volume))
	assert.True(t, ce.HasVolume)
	require.NotNil(t, ce.Levels)
	assert.Equal(t, 3.0, ce.Levels.Diff)
}
