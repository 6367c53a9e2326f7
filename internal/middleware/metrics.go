package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestMetrics holds in-memory request metrics
type RequestMetrics struct {
	mu                 sync.RWMutex
	startedAt          time.Time
	totalRequests      uint64
	requestsByEndpoint map[string]uint64
	responsesByStatus  map[string]uint64
	latencyByEndpoint  map[string]time.Duration
}

// MetricsSnapshot is a point-in-time copy of RequestMetrics
type MetricsSnapshot struct {
	UptimeSeconds        int64             `json:"uptime_seconds"`
	TotalRequests        uint64            `json:"total_requests"`
	RequestsByEndpoint   map[string]uint64 `json:"requests_by_endpoint"`
	ResponsesByStatus    map[string]uint64 `json:"responses_by_status"`
	AvgLatencyByEndpoint map[string]int64  `json:"avg_latency_ms_by_endpoint"`
}

// NewRequestMetrics creates an empty metrics store
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		startedAt:          time.Now(),
		requestsByEndpoint: make(map[string]uint64),
		responsesByStatus:  make(map[string]uint64),
		latencyByEndpoint:  make(map[string]time.Duration),
	}
}

// Record counts one request
func (m *RequestMetrics) Record(endpoint string, status int, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRequests++
	m.requestsByEndpoint[endpoint]++
	m.responsesByStatus[strconv.Itoa(status)]++
	m.latencyByEndpoint[endpoint] += latency
}

// Snapshot returns the current request metrics
func (m *RequestMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avg := make(map[string]int64, len(m.latencyByEndpoint))
	for endpoint, total := range m.latencyByEndpoint {
		if n := m.requestsByEndpoint[endpoint]; n > 0 {
			avg[endpoint] = (total / time.Duration(n)).Milliseconds()
		}
	}
	return MetricsSnapshot{
		UptimeSeconds:        int64(time.Since(m.startedAt).Seconds()),
		TotalRequests:        m.totalRequests,
		RequestsByEndpoint:   copyMap(m.requestsByEndpoint),
		ResponsesByStatus:    copyMap(m.responsesByStatus),
		AvgLatencyByEndpoint: avg,
	}
}

// copyMap creates a copy of the map
func copyMap(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// MetricsHandler returns current request metrics
func MetricsHandler(m *RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.Snapshot())
	}
}
