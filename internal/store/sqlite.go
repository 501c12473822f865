package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"NiftyLevels/internal/model"
)

const levelColumns = `level1, level2, level3, level4, level5, level6, level7,
	level8, level9, level10, level11, level12, level13, level14, diff`

// SQLiteStore reads market data from the ingestion SQLite database. It never writes.
type SQLiteStore struct {
	db          *sql.DB
	indexSymbol string
	loc         *time.Location
	log         logrus.FieldLogger
}

// NewSQLiteStore opens dbPath read-only. indexSymbol keys the index rows of
// daily_levels; loc is the zone the feed's wall-clock times are written in.
func NewSQLiteStore(dbPath, indexSymbol string, loc *time.Location, log logrus.FieldLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Connections are released after every call, not kept idle.
	db.SetMaxIdleConns(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite store opened")
	return &SQLiteStore{db: db, indexSymbol: indexSymbol, loc: loc, log: log}, nil
}

// withConn scopes one connection to fn.
func (s *SQLiteStore) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

func (s *SQLiteStore) AvailableDates(ctx context.Context) ([]time.Time, error) {
	var dates []time.Time
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT DISTINCT date FROM ohlc_data ORDER BY date DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var raw any
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			t, err := parseTime(raw, s.loc)
			if err != nil {
				return fmt.Errorf("parse date: %w", err)
			}
			d := dayOf(t)
			if !model.IsWeekday(d) {
				continue
			}
			// DISTINCT on text can still yield one calendar day twice when the feed mixes formats.
			if n := len(dates); n > 0 && dates[n-1].Equal(d) {
				continue
			}
			dates = append(dates, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query available dates: %w", err)
	}
	return dates, nil
}

func (s *SQLiteStore) Levels(ctx context.Context, date time.Time, inst model.Instrument) (*model.LevelSet, error) {
	var (
		query string
		key   string
	)
	switch inst.Kind {
	case model.KindIndex:
		query = `SELECT ` + levelColumns + ` FROM daily_levels WHERE date = ? AND symbol = ? ORDER BY rowid LIMIT 1`
		key = s.indexSymbol
	case model.KindOption:
		query = `SELECT ` + levelColumns + ` FROM option_levels WHERE date = ? AND option_name = ? ORDER BY rowid LIMIT 1`
		key = inst.Symbol
	default:
		return nil, fmt.Errorf("unknown instrument kind %d", inst.Kind)
	}

	var (
		vals [model.LevelCount]sql.NullFloat64
		diff sql.NullFloat64
		set  *model.LevelSet
	)
	dest := make([]any, 0, model.LevelCount+1)
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	dest = append(dest, &diff)

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, query, date.Format(model.DateLayout), key).Scan(dest...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		set = &model.LevelSet{Date: date, Instrument: inst, Complete: true, Diff: diff.Float64, HasDiff: diff.Valid}
		for i, v := range vals {
			set.Levels[i] = v.Float64
			if !v.Valid {
				set.Complete = false
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query levels for %s on %s: %w", inst.Symbol, date.Format(model.DateLayout), err)
	}
	return set, nil
}

func (s *SQLiteStore) IndexBars(ctx context.Context, date time.Time) ([]model.BarRecord, error) {
	var records []model.BarRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT timestamp, datetime, date, open, high, low, close, volume
			FROM ohlc_data WHERE date = ? ORDER BY timestamp`,
			date.Format(model.DateLayout))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				ts, dt, d any
				b         model.Bar
				vol       sql.NullFloat64
			)
			if err := rows.Scan(&ts, &dt, &d, &b.Open, &b.High, &b.Low, &b.Close, &vol); err != nil {
				return err
			}
			if err := s.fillTimes(&b, ts, dt, d); err != nil {
				return err
			}
			b.Volume = vol.Float64
			records = append(records, model.BarRecord{Symbol: s.indexSymbol, Bar: b, VolumeValid: vol.Valid})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query index bars for %s: %w", date.Format(model.DateLayout), err)
	}
	return records, nil
}

func (s *SQLiteStore) OptionBars(ctx context.Context, date time.Time) ([]model.BarRecord, error) {
	var records []model.BarRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT option_name, timestamp, datetime, date, open, high, low, close, vwap, volume
			FROM options_data WHERE date = ? ORDER BY option_name, timestamp`,
			date.Format(model.DateLayout))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				symbol    string
				ts, dt, d any
				b         model.Bar
				vwap, vol sql.NullFloat64
			)
			if err := rows.Scan(&symbol, &ts, &dt, &d, &b.Open, &b.High, &b.Low, &b.Close, &vwap, &vol); err != nil {
				return err
			}
			if err := s.fillTimes(&b, ts, dt, d); err != nil {
				return err
			}
			if vwap.Valid {
				v := vwap.Float64
				b.FeedVWAP = &v
			}
			b.Volume = vol.Float64
			records = append(records, model.BarRecord{Symbol: symbol, Bar: b, VolumeValid: vol.Valid})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query option bars for %s: %w", date.Format(model.DateLayout), err)
	}
	return records, nil
}

func (s *SQLiteStore) fillTimes(b *model.Bar, ts, dt, d any) error {
	var err error
	if b.Timestamp, err = parseTimestamp(ts, s.loc); err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	if b.Time, err = parseTime(dt, s.loc); err != nil {
		return fmt.Errorf("parse datetime: %w", err)
	}
	day, err := parseTime(d, s.loc)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	b.Date = dayOf(day)
	return nil
}

func (s *SQLiteStore) Close() error {
	s.log.Info("closing sqlite store")
	return s.db.Close()
}
