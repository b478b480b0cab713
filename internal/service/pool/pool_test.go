package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage/memory"
)

func newTestPool(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store, zap.NewNop()), store
}

func addSlot(t *testing.T, store *memory.Store, category model.ResourceCategory, specialty, ref string, createdAt time.Time) int64 {
	t.Helper()
	id, err := store.Slots().Insert(context.Background(), &model.ResourceSlot{
		Category:    category,
		Specialty:   specialty,
		ExternalRef: ref,
		Status:      model.SlotStatusAvailable,
		CreatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("insert slot: %v", err)
	}
	return id
}

func TestFindAvailableFIFO(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	base := time.Now()

	addSlot(t, store, model.CategoryDiscovery, "", "ref-b", base)
	oldest := addSlot(t, store, model.CategoryDiscovery, "", "ref-a", base.Add(-time.Hour))
	addSlot(t, store, model.CategoryDiscovery, "", "ref-c", base.Add(time.Hour))

	slot, err := svc.FindAvailable(ctx, model.CategoryDiscovery, "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if slot == nil || slot.ID != oldest {
		t.Fatalf("got slot %+v, want oldest id %d", slot, oldest)
	}
}

func TestFindAvailableTiebreakByID(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	same := time.Now()

	first := addSlot(t, store, model.CategorySelection, "", "ref-1", same)
	addSlot(t, store, model.CategorySelection, "", "ref-2", same)

	slot, err := svc.FindAvailable(ctx, model.CategorySelection, "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if slot == nil || slot.ID != first {
		t.Fatalf("got slot %+v, want lowest id %d", slot, first)
	}
}

func TestFindAvailableSpecialtyFallback(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	now := time.Now()

	plumbing := addSlot(t, store, model.CategoryDiscovery, "plumbing", "ref-p", now)
	electrical := addSlot(t, store, model.CategoryDiscovery, "electrical", "ref-e", now.Add(time.Minute))

	slot, err := svc.FindAvailable(ctx, model.CategoryDiscovery, "electrical")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if slot == nil || slot.ID != electrical {
		t.Fatalf("specialty match: got %+v, want id %d", slot, electrical)
	}

	// no tiling slot exists; any specialty will do
	slot, err = svc.FindAvailable(ctx, model.CategoryDiscovery, "tiling")
	if err != nil {
		t.Fatalf("find with fallback: %v", err)
	}
	if slot == nil || slot.ID != plumbing {
		t.Fatalf("fallback: got %+v, want oldest id %d", slot, plumbing)
	}
}

func TestFindAvailableExhaustedReturnsNone(t *testing.T) {
	svc, _ := newTestPool(t)
	slot, err := svc.FindAvailable(context.Background(), model.CategoryPreselection, "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if slot != nil {
		t.Fatalf("got %+v, want nil for exhausted category", slot)
	}
}

func TestAssignReleaseRoundTrip(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	id := addSlot(t, store, model.CategoryDiscovery, "", "ref-1", time.Now())

	if err := svc.Assign(ctx, id, 42); err != nil {
		t.Fatalf("assign: %v", err)
	}
	slot, _ := store.Slots().Get(ctx, id)
	if slot.Status != model.SlotStatusAssigned || slot.AssignedTo == nil || *slot.AssignedTo != 42 {
		t.Fatalf("after assign: %+v", slot)
	}

	if err := svc.Release(ctx, id); err != nil {
		t.Fatalf("release: %v", err)
	}
	slot, _ = store.Slots().Get(ctx, id)
	if slot.Status != model.SlotStatusAvailable || slot.AssignedTo != nil {
		t.Fatalf("after release: %+v", slot)
	}

	// releasing an available slot is a no-op
	if err := svc.Release(ctx, id); err != nil {
		t.Fatalf("second release: %v", err)
	}
	slot, _ = store.Slots().Get(ctx, id)
	if slot.Status != model.SlotStatusAvailable || slot.AssignedTo != nil {
		t.Fatalf("after idempotent release: %+v", slot)
	}
}

func TestAssignLostRace(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	id := addSlot(t, store, model.CategoryDiscovery, "", "ref-1", time.Now())

	if err := svc.Assign(ctx, id, 1); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	err := svc.Assign(ctx, id, 2)
	if !apperr.IsAssignmentConflict(err) {
		t.Fatalf("second assign err=%v, want AssignmentConflictError", err)
	}
}

func TestAssignSecondSlotSameCategoryRejected(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	first := addSlot(t, store, model.CategoryDiscovery, "", "ref-1", time.Now())
	second := addSlot(t, store, model.CategoryDiscovery, "", "ref-2", time.Now())

	if err := svc.Assign(ctx, first, 9); err != nil {
		t.Fatalf("assign: %v", err)
	}
	err := svc.Assign(ctx, second, 9)
	if err == nil {
		t.Fatal("expected error assigning a second discovery slot to the same work package")
	}
	if !apperr.IsAssignmentConflict(err) {
		t.Fatalf("err=%v, want AssignmentConflictError", err)
	}
}

func TestConcurrentAssignLastSlot(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	id := addSlot(t, store, model.CategoryDiscovery, "", "ref-1", time.Now())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Assign(ctx, id, int64(100+i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !apperr.IsAssignmentConflict(err) {
			t.Fatalf("loser err=%v, want AssignmentConflictError", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners=%d, want exactly 1", winners)
	}
}

func TestAvailabilityCounts(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()
	addSlot(t, store, model.CategoryDiscovery, "", "ref-1", time.Now())
	addSlot(t, store, model.CategoryDiscovery, "", "ref-2", time.Now())
	assigned := addSlot(t, store, model.CategorySelection, "", "ref-3", time.Now())
	if err := svc.Assign(ctx, assigned, 5); err != nil {
		t.Fatalf("assign: %v", err)
	}

	counts, err := svc.AvailabilityCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[model.CategoryDiscovery] != 2 {
		t.Fatalf("discovery=%d, want 2", counts[model.CategoryDiscovery])
	}
	if counts[model.CategorySelection] != 0 {
		t.Fatalf("selection=%d, want 0", counts[model.CategorySelection])
	}
}

func TestProvisionStartsAvailable(t *testing.T) {
	svc, store := newTestPool(t)
	ctx := context.Background()

	slot, err := svc.Provision(ctx, model.CategoryPreselection, "plumbing", "ref-new")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if slot.ID == 0 || slot.Status != model.SlotStatusAvailable {
		t.Fatalf("provisioned slot: %+v", slot)
	}
	stored, _ := store.Slots().Get(ctx, slot.ID)
	if stored == nil || stored.ExternalRef != "ref-new" {
		t.Fatalf("stored slot: %+v", stored)
	}
}
