// Package httpserver assembles the gin router.
package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	entityHandler *handler.EntityHandler,
	workflowHandler *handler.WorkflowHandler,
	progressHandler *handler.ProgressHandler,
	resourceHandler *handler.ResourceHandler,
	eventHandler *handler.EventHandler,
) *Router {
	r := gin.Default()
	r.Use(TraceMiddleware())
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/projects", entityHandler.CreateProject)
	r.GET("/projects/:id/progress", progressHandler.ProjectProgress)

	wp := r.Group("/work-packages")
	{
		wp.POST("", entityHandler.CreateWorkPackage)
		wp.GET("/:id/progress", progressHandler.WorkPackageProgress)
		wp.POST("/:id/start", workflowHandler.StartWorkPackage)
		wp.POST("/:id/block", workflowHandler.BlockWorkPackage)
		wp.POST("/:id/unblock", workflowHandler.UnblockWorkPackage)
		wp.POST("/:id/cancel", workflowHandler.CancelWorkPackage)
		wp.POST("/:id/reactivate", workflowHandler.ReactivateWorkPackage)
		wp.POST("/:id/complete", workflowHandler.CompleteWorkPackage)
		wp.POST("/:id/complete-all", workflowHandler.CompleteAllWorkPackage)
		wp.POST("/:id/compile-resources", resourceHandler.CompileResources)
	}

	steps := r.Group("/steps")
	{
		steps.POST("", entityHandler.CreateStep)
		steps.GET("/:id/progress", progressHandler.StepProgress)
		steps.POST("/:id/start", workflowHandler.StartStep)
		steps.POST("/:id/block", workflowHandler.BlockStep)
		steps.POST("/:id/unblock", workflowHandler.UnblockStep)
		steps.POST("/:id/cancel", workflowHandler.CancelStep)
		steps.POST("/:id/reactivate", workflowHandler.ReactivateStep)
		steps.POST("/:id/complete", workflowHandler.CompleteStep)
		steps.POST("/:id/complete-all", workflowHandler.CompleteAllStep)
	}

	tasks := r.Group("/tasks")
	{
		tasks.POST("", entityHandler.CreateTask)
		tasks.POST("/:id/complete", workflowHandler.CompleteTask)
		tasks.POST("/:id/reopen", workflowHandler.ReopenTask)
	}

	slots := r.Group("/resource-slots")
	{
		slots.POST("", resourceHandler.CreateSlot)
		slots.GET("/availability", resourceHandler.AvailabilityCounts)
		slots.POST("/:id/release", resourceHandler.ReleaseSlot)
	}

	events := r.Group("/events")
	{
		events.GET("/failed", eventHandler.FailedEvents)
		events.POST("/:id/replay", eventHandler.ReplayEvent)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(":" + port)
}
