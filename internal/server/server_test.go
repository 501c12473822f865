package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NiftyLevels/internal/calendar"
	"NiftyLevels/internal/chart"
	"NiftyLevels/internal/classifier"
	"NiftyLevels/internal/dashboard"
	"NiftyLevels/internal/loader"
	"NiftyLevels/internal/model"
	"NiftyLevels/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func day(s string) time.Time {
	t, _ := time.ParseInLocation(model.DateLayout, s, time.UTC)
	return t
}

func bar(d time.Time, o, h, l, c, v float64) model.Bar {
	t := d.Add(9*time.Hour + 15*time.Minute)
	return model.Bar{Timestamp: t.Unix(), Time: t, Date: d, Open: o, High: h, Low: l, Close: c, Volume: v}
}

func newTestServer(t *testing.T, mem *store.MemoryStore) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cat := calendar.NewCatalog(mem, log)
	ld := loader.NewLoader(mem, "NIFTY", log)
	svc := dashboard.NewService(cat, ld, classifier.DefaultClassifier(), dashboard.Options{
		IndexTitle:   "Nifty 50",
		IndexHeight:  500,
		OptionHeight: 450,
		ShowLevels:   true,
		Session:      chart.NSESession,
		Location:     time.UTC,
	}, log)
	return New(":0", []string{"http://localhost:3000"}, svc, log)
}

func fixture() *store.MemoryStore {
	mem := store.NewMemoryStore()
	d := day("2024-01-05")
	mem.AddIndexBars(bar(day("2024-01-04"), 1, 2, 1, 2, 1))
	mem.AddIndexBars(bar(d, 100, 105, 98, 102, 1000))
	set := &model.LevelSet{Date: d, Instrument: model.IndexInstrument("NIFTY"), Complete: true, Diff: 5, HasDiff: true}
	for i := range set.Levels {
		set.Levels[i] = 101 + float64(i)
	}
	mem.SetLevels(set)
	mem.AddOptionBars("NIFTY24JAN21500CE", bar(d, 50, 55, 45, 52, 10))
	return mem
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(t, fixture()), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, fixture())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestGetDates(t *testing.T) {
	rec := get(t, newTestServer(t, fixture()), "/api/dates")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Dates  []string `json:"dates"`
		Latest string   `json:"latest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"2024-01-05", "2024-01-04"}, body.Dates)
	assert.Equal(t, "2024-01-05", body.Latest)
}

func TestGetDates_StoreFailure(t *testing.T) {
	mem := fixture()
	mem.Err = errors.New("unable to open database file")
	rec := get(t, newTestServer(t, mem), "/api/dates")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database error")
}

func TestGetDates_EmptyDatabase(t *testing.T) {
	rec := get(t, newTestServer(t, store.NewMemoryStore()), "/api/dates")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data available in database")
}

func TestGetDashboard(t *testing.T) {
	rec := get(t, newTestServer(t, fixture()), "/api/dashboard?date=2024-01-05")
	require.Equal(t, http.StatusOK, rec.Code)

	var view dashboard.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "2024-01-05", view.Date)
	require.NotNil(t, view.Risk)
	assert.Equal(t, 5, *view.Risk)
	require.Len(t, view.Index.Charts, 1)
	assert.Equal(t, "Nifty 50 (Risk: 5)", view.Index.Charts[0].Title)
	assert.Len(t, view.Index.Charts[0].Levels, 14)
	assert.Len(t, view.Calls.Charts, 1)
	assert.Equal(t, "No put options available", view.Puts.Message)
	assert.True(t, view.Navigation.HasPrevious)
	assert.False(t, view.Navigation.HasNext)
}

func TestGetDashboard_DefaultsToLatest(t *testing.T) {
	rec := get(t, newTestServer(t, fixture()), "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"2024-01-05"`)
}

func TestGetDashboard_Errors(t *testing.T) {
	s := newTestServer(t, fixture())

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/dashboard?date=yesterday").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/dashboard?date=2024-01-06").Code)
}

func TestGetDashboard_StoreFailureAfterStartup(t *testing.T) {
	mem := fixture()
	s := newTestServer(t, mem)
	require.NoError(t, s.svc.Catalog.Refresh(context.Background()))
	mem.Err = errors.New("disk I/O error")

	rec := get(t, s, "/api/dashboard?date=2024-01-05")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "database error")
	assert.NotContains(t, rec.Body.String(), "charts")
}

func TestDateDomainFailure(t *testing.T) {
	mem := fixture()
	mem.Err = errors.New("disk I/O error")
	s := newTestServer(t, mem)

	for _, path := range []string{
		"/api/dashboard",
		"/api/dashboard?date=2024-01-05",
		"/api/charts/index?date=2024-01-05",
		"/api/charts/options/NIFTY24JAN21500CE?date=2024-01-05",
	} {
		rec := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "database error", path)
	}
}

func TestGetCharts(t *testing.T) {
	s := newTestServer(t, fixture())

	rec := get(t, s, "/api/charts/index?date=2024-01-05")
	require.Equal(t, http.StatusOK, rec.Code)
	var spec model.ChartSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, "Nifty 50 (Risk: 5)", spec.Title)
	assert.InDelta(t, 97.65, spec.YRange[0], 1e-9)

	rec = get(t, s, "/api/charts/options/NIFTY24JAN21500CE?date=2024-01-05")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s, "/api/charts/options/UNKNOWN?date=2024-01-05")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s, "/api/charts/index?date=2024-01-04")
	assert.Equal(t, http.StatusOK, rec.Code)
}
