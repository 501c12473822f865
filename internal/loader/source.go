package loader

import (
	"context"
	"time"

	"NiftyLevels/internal/model"
)

// Source defines the reads the loaders need from the market database.
type Source interface {
	Levels(ctx context.Context, date time.Time, inst model.Instrument) (*model.LevelSet, error)
	IndexBars(ctx context.Context, date time.Time) ([]model.BarRecord, error)
	OptionBars(ctx context.Context, date time.Time) ([]model.BarRecord, error)
}
