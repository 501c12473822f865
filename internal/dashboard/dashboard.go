// Package dashboard assembles the per-date view: the index chart, the call
// and put option charts, and navigation to the neighbouring dates.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"NiftyLevels/internal/calendar"
	"NiftyLevels/internal/chart"
	"NiftyLevels/internal/classifier"
	"NiftyLevels/internal/loader"
	"NiftyLevels/internal/model"
)

var (
	ErrNoDates          = errors.New("no data available in database")
	ErrInvalidDate      = errors.New("invalid date")
	ErrDateNotAvailable = errors.New("date not available")
	ErrNoData           = errors.New("no data for instrument")
	ErrDateDomain       = errors.New("load available dates")
)

// Informational messages shown in place of empty panels.
const (
	MsgNoIndex   = "No Nifty data available"
	MsgNoOptions = "No options data available"
	MsgNoCalls   = "No call options available"
	MsgNoPuts    = "No put options available"
	MsgNoOther   = "No unclassified options"
)

// Options controls view assembly.
type Options struct {
	IndexTitle       string
	IndexHeight      int
	OptionHeight     int
	ShowLevels       bool
	ShowUnclassified bool
	Session          chart.Session
	Location         *time.Location
}

// Service builds dashboard views.
type Service struct {
	Catalog    *calendar.Catalog
	Loader     *loader.Loader
	Classifier classifier.Classifier
	Opts       Options
	Log        logrus.FieldLogger
}

// NewService creates a new Service.
func NewService(cat *calendar.Catalog, ld *loader.Loader, cls classifier.Classifier, opts Options, log logrus.FieldLogger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{Catalog: cat, Loader: ld, Classifier: cls, Opts: opts, Log: log}
}

// Panel is one display region: either charts or an informational message.
type Panel struct {
	Charts  []*model.ChartSpec `json:"charts"`
	Message string             `json:"message,omitempty"`
}

// Nav is the wire form of calendar.Navigation.
type Nav struct {
	Previous    *string `json:"previous"`
	Next        *string `json:"next"`
	HasPrevious bool    `json:"has_previous"`
	HasNext     bool    `json:"has_next"`
}

// View is everything the presentation layer renders for one date.
type View struct {
	Date         string `json:"date"`
	Risk         *int   `json:"risk"`
	Navigation   Nav    `json:"navigation"`
	Index        Panel  `json:"index"`
	Calls        Panel  `json:"calls"`
	Puts         Panel  `json:"puts"`
	Unclassified *Panel `json:"unclassified,omitempty"`
}

// ResolveDate maps a requested YYYY-MM-DD string to a known trading date. An
// empty string selects the newest date. Unknown dates trigger one catalog refresh.
func (s *Service) ResolveDate(ctx context.Context, raw string) (time.Time, error) {
	if raw == "" {
		latest, ok := s.Catalog.Latest()
		if !ok {
			if err := s.Catalog.Refresh(ctx); err != nil {
				return time.Time{}, fmt.Errorf("%w: %w", ErrDateDomain, err)
			}
			if latest, ok = s.Catalog.Latest(); !ok {
				return time.Time{}, ErrNoDates
			}
		}
		return latest, nil
	}

	date, err := time.ParseInLocation(model.DateLayout, raw, s.Opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	if s.Catalog.Contains(date) {
		return date, nil
	}
	if err := s.Catalog.Refresh(ctx); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrDateDomain, err)
	}
	if !s.Catalog.Contains(date) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrDateNotAvailable, raw)
	}
	return date, nil
}

// Build assembles the full view of date. Any store failure aborts the whole
// view; missing data yields messages instead.
func (s *Service) Build(ctx context.Context, date time.Time) (*View, error) {
	index, err := s.Loader.LoadIndexSeries(ctx, date)
	if err != nil {
		return nil, err
	}
	chain, err := s.Loader.LoadOptionsSeries(ctx, date)
	if err != nil {
		return nil, err
	}

	view := &View{
		Date:       date.Format(model.DateLayout),
		Navigation: s.navigation(date),
		Index:      Panel{Charts: []*model.ChartSpec{}},
		Calls:      Panel{Charts: []*model.ChartSpec{}},
		Puts:       Panel{Charts: []*model.ChartSpec{}},
	}

	if index != nil {
		if risk, ok := index.Risk(); ok {
			view.Risk = &risk
		}
		view.Index.Charts = []*model.ChartSpec{s.indexChart(index)}
	} else {
		view.Index.Message = MsgNoIndex
	}

	if len(chain) == 0 {
		view.Calls.Message = MsgNoOptions
		view.Puts.Message = MsgNoOptions
	} else {
		b := classifier.Partition(s.Classifier, chain)
		view.Calls = s.optionPanel(b.Calls, MsgNoCalls)
		view.Puts = s.optionPanel(b.Puts, MsgNoPuts)
		if len(b.Unclassified) > 0 {
			s.Log.WithField("symbols", symbols(b.Unclassified)).Debug("unclassified options")
		}
		if s.Opts.ShowUnclassified {
			p := s.optionPanel(b.Unclassified, MsgNoOther)
			view.Unclassified = &p
		}
	}

	s.Log.WithFields(logrus.Fields{
		"date":  view.Date,
		"index": index != nil,
		"calls": len(view.Calls.Charts),
		"puts":  len(view.Puts.Charts),
	}).Debug("dashboard view built")
	return view, nil
}

// IndexChart returns the index chart of date.
func (s *Service) IndexChart(ctx context.Context, date time.Time) (*model.ChartSpec, error) {
	index, err := s.Loader.LoadIndexSeries(ctx, date)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, fmt.Errorf("%w: index on %s", ErrNoData, date.Format(model.DateLayout))
	}
	return s.indexChart(index), nil
}

// OptionChart returns the chart of one option symbol on date.
func (s *Service) OptionChart(ctx context.Context, date time.Time, symbol string) (*model.ChartSpec, error) {
	chain, err := s.Loader.LoadOptionsSeries(ctx, date)
	if err != nil {
		return nil, err
	}
	series, ok := chain[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoData, symbol, date.Format(model.DateLayout))
	}
	return s.optionChart(series), nil
}

func (s *Service) indexChart(series *model.Series) *model.ChartSpec {
	return chart.Build(series, s.chartOptions(series, s.Opts.IndexTitle, s.Opts.IndexHeight))
}

func (s *Service) optionChart(series *model.Series) *model.ChartSpec {
	return chart.Build(series, s.chartOptions(series, series.Instrument.Symbol, s.Opts.OptionHeight))
}

func (s *Service) chartOptions(series *model.Series, title string, height int) chart.Options {
	opts := chart.Options{
		Title:      title,
		ShowLevels: s.Opts.ShowLevels,
		Height:     height,
		Session:    s.Opts.Session,
	}
	if risk, ok := series.Risk(); ok {
		opts.Risk = &risk
	}
	return opts
}

func (s *Service) optionPanel(series []*model.Series, empty string) Panel {
	if len(series) == 0 {
		return Panel{Charts: []*model.ChartSpec{}, Message: empty}
	}
	p := Panel{Charts: make([]*model.ChartSpec, 0, len(series))}
	for _, sr := range series {
		p.Charts = append(p.Charts, s.optionChart(sr))
	}
	return p
}

func (s *Service) navigation(date time.Time) Nav {
	nav, ok := s.Catalog.Navigate(date)
	if !ok {
		return Nav{}
	}
	var out Nav
	if nav.HasPrevious() {
		p := nav.Previous.Format(model.DateLayout)
		out.Previous, out.HasPrevious = &p, true
	}
	if nav.HasNext() {
		n := nav.Next.Format(model.DateLayout)
		out.Next, out.HasNext = &n, true
	}
	return out
}

func symbols(series []*model.Series) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Instrument.Symbol
	}
	return out
}
