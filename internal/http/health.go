package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/database"
	"github.com/containerhub/containerhub/internal/entities"
	"github.com/containerhub/containerhub/internal/importer"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
	Imports *ImportStats      `json:"imports,omitempty"`
}

// ImportStats summarizes the in-process import registry.
type ImportStats struct {
	TrackedRuns int `json:"tracked_runs"`
	ActiveRuns  int `json:"active_runs"`
}

type HealthController struct {
	db       *database.Database
	registry *importer.Registry
	version  string
}

func NewHealthController(db *database.Database, registry *importer.Registry, version string) *HealthController {
	return &HealthController{
		db:       db,
		registry: registry,
		version:  version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}

		var items int64
		if err := h.db.DB.Model(&entities.Item{}).Count(&items).Error; err != nil {
			checks["catalog"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["catalog"] = fmt.Sprintf("%d items", items)
		}
	} else {
		checks["database"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	if h.registry != nil {
		health.Imports = &ImportStats{
			TrackedRuns: h.registry.Len(),
			ActiveRuns:  h.registry.Active(),
		}
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
