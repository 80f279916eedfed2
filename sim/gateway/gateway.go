// Package gateway exposes the read surface of the pipeline: REST queries
// over the store and a WebSocket feed of live events.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/collider-sim/collider-sim/sim"
	"github.com/collider-sim/collider-sim/sim/store"
)

// EventSource is the slice of the store the gateway reads.
type EventSource interface {
	GetEventDetail(ctx context.Context, eventID string) (*store.EventSummary, error)
	ListEvents(ctx context.Context, f store.ListFilter) ([]*store.EventSummary, error)
	EventCount(ctx context.Context, f store.ListFilter) (int, error)
	KinematicsValues(ctx context.Context, column string, runNumber *int64) ([]float64, error)
	GetStatistics(ctx context.Context) (*store.Statistics, error)
	ListDetectorConfigs(ctx context.Context) ([]sim.DetectorConfig, error)
}

// EventCache is the slice of the cache the gateway reads. Nil payload means
// miss; the gateway falls back to the store.
type EventCache interface {
	GetEvent(ctx context.Context, eventID string) ([]byte, error)
}

// LiveFeed supplies raw event payloads for the WebSocket fan-out.
type LiveFeed interface {
	Payloads(ctx context.Context) (<-chan []byte, error)
}

// Gateway wires the HTTP handlers to their backends.
type Gateway struct {
	source   EventSource
	cache    EventCache
	feed     LiveFeed
	detector sim.DetectorConfig
	upgrader websocket.Upgrader
}

// New builds a gateway. cache and feed may be nil; the corresponding
// endpoints then serve from the store only / reject WebSocket upgrades.
func New(source EventSource, cache EventCache, feed LiveFeed, detector sim.DetectorConfig) *Gateway {
	return &Gateway{
		source:   source,
		cache:    cache,
		feed:     feed,
		detector: detector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the gateway's route table.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /api/v1/events/{event_id}", g.handleGetEvent)
	mux.HandleFunc("GET /api/v1/events", g.handleListEvents)
	mux.HandleFunc("POST /api/v1/analysis/histogram", g.handleHistogram)
	mux.HandleFunc("GET /api/v1/statistics/summary", g.handleStatistics)
	mux.HandleFunc("GET /api/v1/config/detector", g.handleDetectorConfig)
	mux.HandleFunc("GET /ws/live-events", g.handleLiveEvents)
	return mux
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("event_id")

	if g.cache != nil {
		payload, err := g.cache.GetEvent(r.Context(), eventID)
		if err != nil {
			logrus.Warnf("cache lookup for %s failed: %v", eventID, err)
		} else if payload != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
			return
		}
	}

	summary, err := g.source.GetEventDetail(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("event %s not found", eventID))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// eventListResponse is the paginated list envelope.
type eventListResponse struct {
	Events   []*store.EventSummary `json:"events"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

func (g *Gateway) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize := intQuery(q.Get("page_size"), 10)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	page := intQuery(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}

	filter := store.ListFilter{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if v := q.Get("min_invariant_mass"); v != "" {
		mass, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid min_invariant_mass %q", v))
			return
		}
		filter.MinInvariantMass = &mass
	}
	if v := q.Get("min_jets"); v != "" {
		jets, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid min_jets %q", v))
			return
		}
		filter.MinJets = &jets
	}
	if v := q.Get("run_number"); v != "" {
		run, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid run_number %q", v))
			return
		}
		filter.RunNumber = &run
	}

	events, err := g.source.ListEvents(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	total, err := g.source.EventCount(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, eventListResponse{
		Events:   events,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// histogramRequest selects a kinematics column and binning.
type histogramRequest struct {
	Variable  string   `json:"variable"`
	Bins      int      `json:"bins"`
	RangeMin  *float64 `json:"range_min"`
	RangeMax  *float64 `json:"range_max"`
	RunNumber *int64   `json:"run_number"`
}

// histogramResponse carries bin edges (len = bins+1) and per-bin counts.
type histogramResponse struct {
	Variable  string    `json:"variable"`
	Bins      []float64 `json:"bins"`
	Values    []int     `json:"values"`
	NumEvents int       `json:"num_events"`
	RangeMin  float64   `json:"range_min"`
	RangeMax  float64   `json:"range_max"`
}

func (g *Gateway) handleHistogram(w http.ResponseWriter, r *http.Request) {
	var req histogramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Bins < 10 || req.Bins > 200 {
		req.Bins = 50
	}

	values, err := g.source.KinematicsValues(r.Context(), req.Variable, req.RunNumber)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(values) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no values for %q", req.Variable))
		return
	}

	hist := binValues(values, req.Bins, req.RangeMin, req.RangeMax)
	hist.Variable = req.Variable
	writeJSON(w, http.StatusOK, hist)
}

// binValues computes a fixed-width histogram. Values outside the range are
// dropped; the maximum lands in the last bin.
func binValues(values []float64, bins int, rangeMin, rangeMax *float64) histogramResponse {
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if rangeMin != nil {
		lo = *rangeMin
	}
	if rangeMax != nil {
		hi = *rangeMax
	}
	if hi <= lo {
		hi = lo + 1
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}

	counts := make([]int, bins)
	kept := 0
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		idx := int((v - lo) / width)
		if idx == bins {
			idx = bins - 1
		}
		counts[idx]++
		kept++
	}

	return histogramResponse{
		Bins:      edges,
		Values:    counts,
		NumEvents: kept,
		RangeMin:  lo,
		RangeMax:  hi,
	}
}

func (g *Gateway) handleStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := g.source.GetStatistics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (g *Gateway) handleDetectorConfig(w http.ResponseWriter, r *http.Request) {
	configs, err := g.source.ListDetectorConfigs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(configs) == 0 {
		configs = []sim.DetectorConfig{g.detector}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (g *Gateway) handleLiveEvents(w http.ResponseWriter, r *http.Request) {
	if g.feed == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("live feed not configured"))
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	payloads, err := g.feed.Payloads(ctx)
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed unavailable"))
		return
	}

	// Drain client frames so close/ping handling keeps working.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for payload := range payloads {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logrus.Debugf("live-events client gone: %v", err)
			return
		}
	}
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
