package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
)

// HealthChecker is implemented by infrastructure components that can report
// their own health, such as the database pool or the cache store.
type HealthChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// SystemHandler serves liveness, readiness and reference-data endpoints.
type SystemHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
}

// NewSystemHandler creates a SystemHandler with the given dependency
// checkers. Checkers run on every readiness probe.
func NewSystemHandler(version string, checkers ...HealthChecker) *SystemHandler {
	return &SystemHandler{
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
	}
}

// LivenessResponse is the response for the liveness probe.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ComponentCheck reports the health of one dependency.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReadinessResponse is the response for the readiness probe.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// Liveness handles GET /healthz. Returns 200 whenever the process runs.
func (h *SystemHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz. Returns 200 only when every registered
// dependency answers its health check.
func (h *SystemHandler) Readiness(c *gin.Context) {
	if len(h.checkers) == 0 {
		c.JSON(http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]ComponentCheck, len(h.checkers))
	ready := true
	for _, checker := range h.checkers {
		start := time.Now()
		err := checker.HealthCheck(ctx)
		check := ComponentCheck{
			Status:  "healthy",
			Latency: time.Since(start).Truncate(time.Microsecond).String(),
		}
		if err != nil {
			check.Status = "unhealthy"
			check.Error = err.Error()
			ready = false
		}
		components[checker.Name()] = check
	}

	resp := ReadinessResponse{Status: "ready", Components: components}
	status := http.StatusOK
	if !ready {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// ElementsResponse lists the element symbols accepted as reactants.
type ElementsResponse struct {
	Elements []string `json:"elements"`
	Count    int      `json:"count"`
}

// Elements handles GET /api/v1/elements. The frontend uses this list to
// populate its element picker.
func (h *SystemHandler) Elements(c *gin.Context) {
	c.JSON(http.StatusOK, ElementsResponse{
		Elements: reaction.PeriodicTable,
		Count:    len(reaction.PeriodicTable),
	})
}
