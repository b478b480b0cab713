package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/progress"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/workflow"
)

// WorkflowHandler exposes the status transition verbs. Every mutation goes
// through the engine; the handler only parses, dispatches and invalidates
// the progress cache for the affected subtree.
type WorkflowHandler struct {
	engine   *workflow.Engine
	progress *progress.Service
	logger   *zap.Logger
}

func NewWorkflowHandler(engine *workflow.Engine, progress *progress.Service, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{engine: engine, progress: progress, logger: logger}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

type blockRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *WorkflowHandler) workPackageVerb(c *gin.Context, verb func(context.Context, int64) (*model.WorkPackage, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	wp, err := verb(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.progress.InvalidateTree(c.Request.Context(), wp.ProjectID, wp.ID, 0)
	c.JSON(http.StatusOK, wp)
}

// StartWorkPackage handles POST /work-packages/:id/start
func (h *WorkflowHandler) StartWorkPackage(c *gin.Context) {
	h.workPackageVerb(c, h.engine.StartWorkPackage)
}

// BlockWorkPackage handles POST /work-packages/:id/block
func (h *WorkflowHandler) BlockWorkPackage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blockage reason is required"})
		return
	}
	wp, err := h.engine.BlockWorkPackage(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.progress.InvalidateTree(c.Request.Context(), wp.ProjectID, wp.ID, 0)
	c.JSON(http.StatusOK, wp)
}

// UnblockWorkPackage handles POST /work-packages/:id/unblock
func (h *WorkflowHandler) UnblockWorkPackage(c *gin.Context) {
	h.workPackageVerb(c, h.engine.UnblockWorkPackage)
}

// CancelWorkPackage handles POST /work-packages/:id/cancel
func (h *WorkflowHandler) CancelWorkPackage(c *gin.Context) {
	h.workPackageVerb(c, h.engine.CancelWorkPackage)
}

// ReactivateWorkPackage handles POST /work-packages/:id/reactivate
func (h *WorkflowHandler) ReactivateWorkPackage(c *gin.Context) {
	h.workPackageVerb(c, h.engine.ReactivateWorkPackage)
}

// CompleteWorkPackage handles POST /work-packages/:id/complete
func (h *WorkflowHandler) CompleteWorkPackage(c *gin.Context) {
	h.workPackageVerb(c, h.engine.CompleteWorkPackage)
}

// CompleteAllWorkPackage handles POST /work-packages/:id/complete-all
// Force-completes every step and task under the work package, then the
// work package itself, in one transaction.
func (h *WorkflowHandler) CompleteAllWorkPackage(c *gin.Context) {
	h.workPackageVerb(c, h.engine.CompleteAllWorkPackage)
}

func (h *WorkflowHandler) stepVerb(c *gin.Context, verb func(context.Context, int64) (*model.Step, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	step, err := verb(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.progress.InvalidateTree(c.Request.Context(), 0, step.WorkPackageID, step.ID)
	c.JSON(http.StatusOK, step)
}

// StartStep handles POST /steps/:id/start
func (h *WorkflowHandler) StartStep(c *gin.Context) {
	h.stepVerb(c, h.engine.StartStep)
}

// BlockStep handles POST /steps/:id/block
func (h *WorkflowHandler) BlockStep(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blockage reason is required"})
		return
	}
	step, err := h.engine.BlockStep(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.progress.InvalidateTree(c.Request.Context(), 0, step.WorkPackageID, step.ID)
	c.JSON(http.StatusOK, step)
}

// UnblockStep handles POST /steps/:id/unblock
func (h *WorkflowHandler) UnblockStep(c *gin.Context) {
	h.stepVerb(c, h.engine.UnblockStep)
}

// CancelStep handles POST /steps/:id/cancel
func (h *WorkflowHandler) CancelStep(c *gin.Context) {
	h.stepVerb(c, h.engine.CancelStep)
}

// ReactivateStep handles POST /steps/:id/reactivate
func (h *WorkflowHandler) ReactivateStep(c *gin.Context) {
	h.stepVerb(c, h.engine.ReactivateStep)
}

// CompleteStep handles POST /steps/:id/complete
func (h *WorkflowHandler) CompleteStep(c *gin.Context) {
	h.stepVerb(c, h.engine.CompleteStep)
}

// CompleteAllStep handles POST /steps/:id/complete-all
func (h *WorkflowHandler) CompleteAllStep(c *gin.Context) {
	h.stepVerb(c, h.engine.CompleteAllStep)
}

type completeTaskRequest struct {
	ActualMinutes int `json:"actual_minutes"`
}

// CompleteTask handles POST /tasks/:id/complete
func (h *WorkflowHandler) CompleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req completeTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := h.engine.CompleteTask(c.Request.Context(), id, req.ActualMinutes)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.progress.InvalidateTree(c.Request.Context(), 0, 0, task.StepID)
	c.JSON(http.StatusOK, task)
}

// ReopenTask handles POST /tasks/:id/reopen
func (h *WorkflowHandler) ReopenTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, err := h.engine.ReopenTask(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.progress.InvalidateTree(c.Request.Context(), 0, 0, task.StepID)
	c.JSON(http.StatusOK, task)
}
