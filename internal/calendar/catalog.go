// Package calendar keeps the trading-date domain and navigation over it.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"NiftyLevels/internal/model"
)

// DateSource lists the available trading dates.
type DateSource interface {
	AvailableDates(ctx context.Context) ([]time.Time, error)
}

// Catalog caches the chronologically sorted trading dates.
type Catalog struct {
	mu        sync.RWMutex
	src       DateSource
	log       logrus.FieldLogger
	dates     []time.Time // oldest first
	refreshed time.Time
}

// NewCatalog creates an empty Catalog; call Refresh to populate it.
func NewCatalog(src DateSource, log logrus.FieldLogger) *Catalog {
	return &Catalog{src: src, log: log}
}

// Refresh reloads the dates from the source. On error the previous dates are kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	dates, err := c.src.AvailableDates(ctx)
	if err != nil {
		return fmt.Errorf("refresh dates: %w", err)
	}
	sorted := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if model.IsWeekday(d) {
			sorted = append(sorted, d)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	c.mu.Lock()
	changed := len(sorted) != len(c.dates)
	c.dates = sorted
	c.refreshed = time.Now()
	c.mu.Unlock()

	if changed {
		c.log.WithField("dates", len(sorted)).Info("date catalog updated")
	}
	return nil
}

// Dates returns the dates newest first.
func (c *Catalog) Dates() []time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]time.Time, len(c.dates))
	for i, d := range c.dates {
		out[len(c.dates)-1-i] = d
	}
	return out
}

// Latest returns the newest date.
func (c *Catalog) Latest() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.dates) == 0 {
		return time.Time{}, false
	}
	return c.dates[len(c.dates)-1], true
}

// RefreshedAt returns the time of the last successful refresh.
func (c *Catalog) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// Contains reports whether date is a known trading date.
func (c *Catalog) Contains(date time.Time) bool {
	_, ok := c.index(date)
	return ok
}

// Navigate returns the neighbours of date. ok is false when date is unknown.
func (c *Catalog) Navigate(date time.Time) (nav Navigation, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, found := c.indexLocked(date)
	if !found {
		return Navigation{}, false
	}
	nav.Current = c.dates[i]
	if i > 0 {
		prev := c.dates[i-1]
		nav.Previous = &prev
	}
	if i < len(c.dates)-1 {
		next := c.dates[i+1]
		nav.Next = &next
	}
	return nav, true
}

func (c *Catalog) index(date time.Time) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexLocked(date)
}

func (c *Catalog) indexLocked(date time.Time) (int, bool) {
	key := date.Format(model.DateLayout)
	i := sort.Search(len(c.dates), func(i int) bool {
		return c.dates[i].Format(model.DateLayout) >= key
	})
	if i < len(c.dates) && c.dates[i].Format(model.DateLayout) == key {
		return i, true
	}
	return 0, false
}

// Navigation describes the previous and next dates around Current. A nil
// neighbour means the control is disabled at that edge.
type Navigation struct {
	Current  time.Time
	Previous *time.Time
	Next     *time.Time
}

// HasPrevious reports whether a previous date exists.
func (n Navigation) HasPrevious() bool { return n.Previous != nil }

// HasNext reports whether a next date exists.
func (n Navigation) HasNext() bool { return n.Next != nil }
