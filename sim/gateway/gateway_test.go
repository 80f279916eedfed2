package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collider-sim/collider-sim/sim"
	"github.com/collider-sim/collider-sim/sim/store"
)

// fakeSource is an in-memory EventSource.
type fakeSource struct {
	events map[string]*store.EventSummary
	values []float64
	stats  store.Statistics
}

func (f *fakeSource) GetEventDetail(_ context.Context, id string) (*store.EventSummary, error) {
	return f.events[id], nil
}

func (f *fakeSource) ListEvents(_ context.Context, filter store.ListFilter) ([]*store.EventSummary, error) {
	var out []*store.EventSummary
	for _, ev := range f.events {
		if filter.RunNumber != nil && ev.RunNumber != *filter.RunNumber {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (f *fakeSource) EventCount(_ context.Context, filter store.ListFilter) (int, error) {
	evs, _ := f.ListEvents(context.Background(), filter)
	return len(evs), nil
}

func (f *fakeSource) KinematicsValues(_ context.Context, column string, _ *int64) ([]float64, error) {
	if column != "invariant_mass" {
		return nil, fmt.Errorf("unknown kinematics column %q", column)
	}
	return f.values, nil
}

func (f *fakeSource) GetStatistics(_ context.Context) (*store.Statistics, error) {
	return &f.stats, nil
}

func (f *fakeSource) ListDetectorConfigs(_ context.Context) ([]sim.DetectorConfig, error) {
	return nil, nil
}

// fakeCache serves one canned payload.
type fakeCache struct {
	payloads map[string][]byte
}

func (f *fakeCache) GetEvent(_ context.Context, id string) ([]byte, error) {
	return f.payloads[id], nil
}

func testGateway() (*Gateway, *fakeSource) {
	mass := 87.4
	src := &fakeSource{
		events: map[string]*store.EventSummary{
			"evt-1": {
				EventID:      "evt-1",
				RunNumber:    1,
				EventNumber:  5,
				Timestamp:    time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
				EventType:    "dilepton",
				NumParticles: 2,
				COMEnergy:    13000,
				Kinematics:   &sim.Kinematics{EventID: "evt-1", InvariantMass: mass},
			},
		},
		values: []float64{10, 20, 30, 40, 90},
		stats:  store.Statistics{TotalEvents: 1, TotalRuns: 1},
	}
	return New(src, nil, nil, sim.DefaultDetectorConfig()), src
}

func TestHealth(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestGetEvent_FromStore(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/events/evt-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got store.EventSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "evt-1", got.EventID)
	require.NotNil(t, got.Kinematics)
	assert.Equal(t, 87.4, got.Kinematics.InvariantMass)
}

func TestGetEvent_NotFound(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/events/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEvent_CacheHitBypassesStore(t *testing.T) {
	_, src := testGateway()
	cache := &fakeCache{payloads: map[string][]byte{
		"evt-1": []byte(`{"event_id":"evt-1","cached":true}`),
	}}
	g := New(src, cache, nil, sim.DefaultDetectorConfig())

	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/events/evt-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cached":true`)
}

func TestListEvents_Pagination(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/events?page=1&page_size=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got eventListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 5, got.PageSize)
	assert.Len(t, got.Events, 1)
}

func TestListEvents_BadFilter(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/events?min_invariant_mass=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistogram_BinsValues(t *testing.T) {
	g, _ := testGateway()
	body := strings.NewReader(`{"variable": "invariant_mass", "bins": 10}`)
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/analysis/histogram", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var got histogramResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "invariant_mass", got.Variable)
	assert.Len(t, got.Bins, 11)
	assert.Len(t, got.Values, 10)
	assert.Equal(t, 5, got.NumEvents)
	assert.Equal(t, 10.0, got.RangeMin)
	assert.Equal(t, 90.0, got.RangeMax)

	total := 0
	for _, c := range got.Values {
		total += c
	}
	assert.Equal(t, 5, total)
}

func TestHistogram_UnknownVariable(t *testing.T) {
	g, _ := testGateway()
	body := strings.NewReader(`{"variable": "event_id", "bins": 10}`)
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/analysis/histogram", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatistics(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/statistics/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.TotalEvents)
}

func TestDetectorConfig_FallsBackToDefault(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/config/detector", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []sim.DetectorConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].MagneticField)
}

func TestLiveEvents_UnavailableWithoutFeed(t *testing.T) {
	g, _ := testGateway()
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/ws/live-events", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBinValues_MaxLandsInLastBin(t *testing.T) {
	hist := binValues([]float64{0, 5, 10}, 10, nil, nil)
	assert.Equal(t, 1, hist.Values[9])
	assert.Equal(t, 3, hist.NumEvents)
}
