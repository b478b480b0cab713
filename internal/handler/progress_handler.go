package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/progress"
)

// ProgressHandler serves aggregate progress views for any entity level.
type ProgressHandler struct {
	progress *progress.Service
	logger   *zap.Logger
}

func NewProgressHandler(progress *progress.Service, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

// ProjectProgress handles GET /projects/:id/progress
func (h *ProgressHandler) ProjectProgress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.progress.Project(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// WorkPackageProgress handles GET /work-packages/:id/progress
func (h *ProgressHandler) WorkPackageProgress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.progress.WorkPackage(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// StepProgress handles GET /steps/:id/progress
func (h *ProgressHandler) StepProgress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.progress.Step(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
