package store

import (
	"context"
	"time"

	"NiftyLevels/internal/model"
)

// Store reads the pre-populated market database.
type Store interface {
	// AvailableDates returns the weekday trading dates present in the OHLC table, newest first.
	AvailableDates(ctx context.Context) ([]time.Time, error)
	// Levels returns the level set for an instrument on date, or nil when none is stored.
	Levels(ctx context.Context, date time.Time, inst model.Instrument) (*model.LevelSet, error)
	// IndexBars returns the index bars of date ordered by timestamp.
	IndexBars(ctx context.Context, date time.Time) ([]model.BarRecord, error)
	// OptionBars returns every option bar of date ordered by symbol, then timestamp.
	OptionBars(ctx context.Context, date time.Time) ([]model.BarRecord, error)
	Close() error
}
