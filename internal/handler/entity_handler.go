package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
)

// EntityHandler creates entities in the tree. New entities always start at
// the beginning of their lifecycle; status moves only through the workflow
// verbs afterwards.
type EntityHandler struct {
	store  storage.Store
	logger *zap.Logger
}

func NewEntityHandler(store storage.Store, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{store: store, logger: logger}
}

type createProjectRequest struct {
	UserID          int64   `json:"user_id" binding:"required"`
	Title           string  `json:"title" binding:"required"`
	EstimatedDays   int     `json:"estimated_days"`
	EstimatedBudget float64 `json:"estimated_budget"`
}

// CreateProject handles POST /projects
func (h *EntityHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and title are required"})
		return
	}
	p := &model.Project{
		UserID:          req.UserID,
		Title:           req.Title,
		EstimatedDays:   req.EstimatedDays,
		EstimatedBudget: req.EstimatedBudget,
		Status:          model.ProjectStatusDraft,
	}
	id, err := h.store.Projects().Insert(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	p.ID = id
	c.JSON(http.StatusCreated, p)
}

type createWorkPackageRequest struct {
	ProjectID      int64   `json:"project_id" binding:"required"`
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	OrderIndex     int     `json:"order_index"`
	EstimatedHours float64 `json:"estimated_hours"`
	EstimatedCost  float64 `json:"estimated_cost"`
}

// CreateWorkPackage handles POST /work-packages
func (h *EntityHandler) CreateWorkPackage(c *gin.Context) {
	var req createWorkPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id and title are required"})
		return
	}
	project, err := h.store.Projects().Get(c.Request.Context(), req.ProjectID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if project == nil {
		writeError(c, h.logger, &apperr.NotFoundError{Entity: "project", ID: req.ProjectID})
		return
	}
	wp := &model.WorkPackage{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		OrderIndex:     req.OrderIndex,
		EstimatedHours: req.EstimatedHours,
		EstimatedCost:  req.EstimatedCost,
		Status:         model.StatusUpcoming,
	}
	id, err := h.store.WorkPackages().Insert(c.Request.Context(), wp)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	wp.ID = id
	c.JSON(http.StatusCreated, wp)
}

type createStepRequest struct {
	WorkPackageID    int64    `json:"work_package_id" binding:"required"`
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description"`
	OrderIndex       int      `json:"order_index"`
	Difficulty       string   `json:"difficulty"`
	RequiredTools    []string `json:"required_tools"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	ProfessionalTip  string   `json:"professional_tip"`
}

// CreateStep handles POST /steps
func (h *EntityHandler) CreateStep(c *gin.Context) {
	var req createStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "work_package_id and title are required"})
		return
	}
	difficulty := model.Difficulty(req.Difficulty)
	if req.Difficulty != "" && !difficulty.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown difficulty"})
		return
	}
	wp, err := h.store.WorkPackages().Get(c.Request.Context(), req.WorkPackageID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if wp == nil {
		writeError(c, h.logger, &apperr.NotFoundError{Entity: "work_package", ID: req.WorkPackageID})
		return
	}
	step := &model.Step{
		WorkPackageID:    req.WorkPackageID,
		Title:            req.Title,
		Description:      req.Description,
		OrderIndex:       req.OrderIndex,
		Difficulty:       difficulty,
		RequiredTools:    req.RequiredTools,
		EstimatedMinutes: req.EstimatedMinutes,
		ProfessionalTip:  req.ProfessionalTip,
		Status:           model.StatusUpcoming,
	}
	id, err := h.store.Steps().Insert(c.Request.Context(), step)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	step.ID = id
	c.JSON(http.StatusCreated, step)
}

type createTaskRequest struct {
	StepID           int64    `json:"step_id" binding:"required"`
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description"`
	OrderIndex       int      `json:"order_index"`
	IsCritical       bool     `json:"is_critical"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	RequiredTools    []string `json:"required_tools"`
	Notes            string   `json:"notes"`
}

// CreateTask handles POST /tasks
func (h *EntityHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step_id and title are required"})
		return
	}
	step, err := h.store.Steps().Get(c.Request.Context(), req.StepID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if step == nil {
		writeError(c, h.logger, &apperr.NotFoundError{Entity: "step", ID: req.StepID})
		return
	}
	task := &model.Task{
		StepID:           req.StepID,
		Title:            req.Title,
		Description:      req.Description,
		OrderIndex:       req.OrderIndex,
		IsCritical:       req.IsCritical,
		EstimatedMinutes: req.EstimatedMinutes,
		RequiredTools:    req.RequiredTools,
		Notes:            req.Notes,
		Status:           model.TaskStatusTodo,
	}
	id, err := h.store.Tasks().Insert(c.Request.Context(), task)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	task.ID = id
	c.JSON(http.StatusCreated, task)
}
