package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/outbox"
)

// fakeEventStore records replay calls and serves a fixed failed-event list.
type fakeEventStore struct {
	failed    []*outbox.Event
	lastLimit int
	replayed  []int64
}

func (f *fakeEventStore) GetFailedEvents(ctx context.Context, limit int) ([]*outbox.Event, error) {
	f.lastLimit = limit
	return f.failed, nil
}

func (f *fakeEventStore) ReplayEvent(ctx context.Context, eventID int64) error {
	f.replayed = append(f.replayed, eventID)
	return nil
}

func newEventRouter(t *testing.T, store *fakeEventStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewEventHandler(store, zap.NewNop())
	r := gin.New()
	r.GET("/events/failed", h.FailedEvents)
	r.POST("/events/:id/replay", h.ReplayEvent)
	return r
}

func TestFailedEventsListsParkedEvents(t *testing.T) {
	store := &fakeEventStore{failed: []*outbox.Event{
		{ID: 7, AggregateType: "work_package", RoutingKey: "resources.compiled", Status: "failed"},
	}}
	r := newEventRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/failed?limit=10", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if store.lastLimit != 10 {
		t.Fatalf("limit=%d, want 10", store.lastLimit)
	}
	if !strings.Contains(w.Body.String(), "resources.compiled") {
		t.Fatalf("body missing routing key: %s", w.Body.String())
	}
}

func TestFailedEventsDefaultLimit(t *testing.T) {
	store := &fakeEventStore{}
	r := newEventRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/failed", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if store.lastLimit != 50 {
		t.Fatalf("limit=%d, want the default 50", store.lastLimit)
	}
}

func TestFailedEventsRejectsBadLimit(t *testing.T) {
	r := newEventRouter(t, &fakeEventStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/failed?limit=zero", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
}

func TestReplayEventForwardsID(t *testing.T) {
	store := &fakeEventStore{}
	r := newEventRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/42/replay", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if len(store.replayed) != 1 || store.replayed[0] != 42 {
		t.Fatalf("replayed=%v, want [42]", store.replayed)
	}
}

func TestReplayEventRejectsBadID(t *testing.T) {
	store := &fakeEventStore{}
	r := newEventRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/nope/replay", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if len(store.replayed) != 0 {
		t.Fatalf("replayed=%v, want none", store.replayed)
	}
}
