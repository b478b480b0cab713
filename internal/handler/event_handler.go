package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/outbox"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/logger"
)

// EventStore is the slice of the outbox repository the admin surface needs.
type EventStore interface {
	GetFailedEvents(ctx context.Context, limit int) ([]*outbox.Event, error)
	ReplayEvent(ctx context.Context, eventID int64) error
}

// EventHandler exposes the outbox admin operations: listing events the
// dispatcher has parked after exhausting retries, and putting one back on
// the pending queue.
type EventHandler struct {
	events EventStore
	logger *zap.Logger
}

func NewEventHandler(events EventStore, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// FailedEvents handles GET /events/failed
func (h *EventHandler) FailedEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.events.GetFailedEvents(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if events == nil {
		events = []*outbox.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ReplayEvent handles POST /events/:id/replay
func (h *EventHandler) ReplayEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.events.ReplayEvent(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	logger.WithTrace(c.Request.Context(), h.logger).Info("outbox event replayed",
		zap.Int64("event_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "replayed"})
}
