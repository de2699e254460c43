package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/mukhtar/internal/automation"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	Devices       DeviceMetrics     `json:"devices"`
	Automation    AutomationMetrics `json:"automation"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// DeviceMetrics contains device registry statistics.
type DeviceMetrics struct {
	Total int `json:"total"`
	On    int `json:"on"`
	Off   int `json:"off"`
}

// AutomationMetrics contains automation mode and loop counters.
type AutomationMetrics struct {
	Mode string            `json:"mode"`
	Loop *automation.Stats `json:"loop,omitempty"`
}

// handleMetrics returns runtime, device and automation metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	regStats := s.devices.GetStats()
	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Devices: DeviceMetrics{
			Total: regStats.TotalDevices,
			On:    regStats.On,
			Off:   regStats.Off,
		},
		Automation: AutomationMetrics{Mode: automation.Label(s.mode.Auto())},
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.loop != nil {
		stats := s.loop.Stats()
		metrics.Automation.Loop = &stats
	}

	writeJSON(w, http.StatusOK, metrics)
}
