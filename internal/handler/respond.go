// Package handler exposes the workflow, progress and resource operations
// over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/logger"
)

// writeError maps the domain error taxonomy onto HTTP statuses. NotFound and
// InvalidTransition are caller errors; the operational errors keep their
// category/entity context in the message so the caller can retry the whole
// operation. Operational failures are logged with the request's trace_id.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsInvalidTransition(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.IsPoolExhausted(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.IsAssignmentConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.IsSyncFailure(err):
		logger.WithTrace(c.Request.Context(), log).Error("sync push failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.WithTrace(c.Request.Context(), log).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
