package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
)

func TestWithTxCommit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var id int64
	err := store.WithTx(ctx, func(tx storage.Store) error {
		var err error
		id, err = tx.Projects().Insert(ctx, &model.Project{Title: "Garage", Status: model.ProjectStatusDraft})
		if err != nil {
			return err
		}
		return tx.Events().Append(ctx, storage.DomainEvent{
			AggregateType: "project",
			AggregateID:   id,
			RoutingKey:    "project.created",
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	p, _ := store.Projects().Get(ctx, id)
	if p == nil || p.Title != "Garage" {
		t.Fatalf("project after commit: %+v", p)
	}
	if got := len(store.PublishedEvents()); got != 1 {
		t.Fatalf("events=%d, want 1", got)
	}
}

func TestWithTxRollbackRestoresState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.Projects().Insert(ctx, &model.Project{Title: "Garage", Status: model.ProjectStatusDraft})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	boom := errors.New("boom")
	err = store.WithTx(ctx, func(tx storage.Store) error {
		p, _ := tx.Projects().Get(ctx, id)
		p.Status = model.ProjectStatusActive
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		if _, err := tx.Projects().Insert(ctx, &model.Project{Title: "Shed"}); err != nil {
			return err
		}
		if err := tx.Events().Append(ctx, storage.DomainEvent{RoutingKey: "project.updated"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}

	p, _ := store.Projects().Get(ctx, id)
	if p.Status != model.ProjectStatusDraft {
		t.Fatalf("status=%s, want rollback to draft", p.Status)
	}
	if got := len(store.PublishedEvents()); got != 0 {
		t.Fatalf("events=%d, want none after rollback", got)
	}
}

func TestWithTxNested(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Store) error {
		return tx.WithTx(ctx, func(inner storage.Store) error {
			_, err := inner.Projects().Insert(ctx, &model.Project{Title: "Nested"})
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}
}
