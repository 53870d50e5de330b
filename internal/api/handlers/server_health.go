package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seatledger.io/ledger/internal/pkg/logger"
)

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: healthStatusOK})
}

// GetReadiness handles GET /health/ready. The ledger store must answer a ping.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := map[string]string{"store": healthStatusOK}
	status, httpStatus := healthStatusOK, http.StatusOK

	if err := s.ledger.Ping(c.Request.Context()); err != nil {
		logger.Warn("Readiness check failed", zap.String("check", "store"), zap.Error(err))
		checks["store"] = "error"
		status, httpStatus = healthStatusDegraded, http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, Health{Status: status, Checks: checks})
}
