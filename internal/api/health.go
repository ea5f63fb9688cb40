package api

import (
	"net/http"
	"runtime"
	"time"

	"anime-character-catalog/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the component status collected by a health.Checker.
type HealthHandler struct {
	checker *health.Checker
	version string
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string                       `json:"status"`
	Timestamp  time.Time                    `json:"timestamp"`
	Version    string                       `json:"version,omitempty"`
	Components map[string]*health.Component `json:"components"`
	Memory     MemoryStats                  `json:"memory"`
}

type MemoryStats struct {
	AllocMB  uint64 `json:"alloc_mb"`
	SysMB    uint64 `json:"sys_mb"`
	GCCycles uint32 `json:"gc_cycles"`
}

func NewHealthHandler(checker *health.Checker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version}
}

// Health answers 200 while every critical component is up and 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now(),
		Version:    h.version,
		Components: h.checker.GetStatus(),
		Memory: MemoryStats{
			AllocMB:  memStats.Alloc / 1024 / 1024,
			SysMB:    memStats.Sys / 1024 / 1024,
			GCCycles: memStats.NumGC,
		},
	}

	status := http.StatusOK
	if !h.checker.IsSystemHealthy() {
		response.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

// RegisterHealthRoutes registers health check related routes
func (h *HealthHandler) RegisterHealthRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
}
