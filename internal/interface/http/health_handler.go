package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/pkg/response"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

type HealthHandler struct {
	Checks map[string]Check
	Logger *logrus.Logger
}

func NewHealthHandler(checks map[string]Check, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Checks: checks, Logger: logger}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = "down"
			if h.Logger != nil {
				h.Logger.WithError(err).WithField("check", name).Warn("health check failed")
			}
			continue
		}
		report[name] = "up"
	}
	if status != http.StatusOK {
		response.Error[any](c, status, "degraded", report)
		return
	}
	response.Success(c, status, report, "ok", nil)
}
