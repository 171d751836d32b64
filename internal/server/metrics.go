package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics collects basic application counters (no Prometheus dep needed).
type Metrics struct {
	wsConnections atomic.Int64
	ticksTotal    atomic.Int64
	roundsStarted atomic.Int64
	roundsEnded   atomic.Int64
	startTime     time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncrWSConn()        { m.wsConnections.Add(1) }
func (m *Metrics) DecrWSConn()        { m.wsConnections.Add(-1) }
func (m *Metrics) IncrTicks()         { m.ticksTotal.Add(1) }
func (m *Metrics) IncrRoundsStarted() { m.roundsStarted.Add(1) }
func (m *Metrics) IncrRoundsEnded()   { m.roundsEnded.Add(1) }

// ServeHTTP exposes metrics as JSON at /metrics.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	data := map[string]any{
		"uptime_seconds": int(time.Since(m.startTime).Seconds()),
		"ws_connections": m.wsConnections.Load(),
		"ticks_total":    m.ticksTotal.Load(),
		"rounds_started": m.roundsStarted.Load(),
		"rounds_ended":   m.roundsEnded.Load(),
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc_mb":  mem.HeapAlloc / 1024 / 1024,
		"sys_mb":         mem.Sys / 1024 / 1024,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
}
