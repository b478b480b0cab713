package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/compiler"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/pool"
)

// ResourceHandler exposes the compiler and the pool diagnostics.
type ResourceHandler struct {
	compiler *compiler.Compiler
	pool     *pool.Service
	logger   *zap.Logger
}

func NewResourceHandler(compiler *compiler.Compiler, pool *pool.Service, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{compiler: compiler, pool: pool, logger: logger}
}

type compileRequest struct {
	Specialty string `json:"specialty"`
}

// CompileResources handles POST /work-packages/:id/compile-resources.
// Allocates one slot per category, pushes content and persists the refs;
// on any failure the pool is left exactly as it was found.
func (h *ResourceHandler) CompileResources(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req compileRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.compiler.Compile(c.Request.Context(), id, req.Specialty)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AvailabilityCounts handles GET /resource-slots/availability
func (h *ResourceHandler) AvailabilityCounts(c *gin.Context) {
	counts, err := h.pool.AvailabilityCounts(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ReleaseSlot handles POST /resource-slots/:id/release
func (h *ResourceHandler) ReleaseSlot(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.pool.Release(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

type createSlotRequest struct {
	Category    string `json:"category" binding:"required"`
	Specialty   string `json:"specialty"`
	ExternalRef string `json:"external_ref" binding:"required"`
}

// CreateSlot handles POST /resource-slots. Provisions a new catalog entry.
func (h *ResourceHandler) CreateSlot(c *gin.Context) {
	var req createSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category and external_ref are required"})
		return
	}
	category := model.ResourceCategory(req.Category)
	if !category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	slot, err := h.pool.Provision(c.Request.Context(), category, req.Specialty, req.ExternalRef)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}
