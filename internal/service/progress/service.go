package progress

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/apperr"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
)

// Service serves aggregate progress views, read-through cached.
type Service struct {
	store  storage.Store
	cache  *ViewCache
	logger *zap.Logger
}

func NewService(store storage.Store, cache *ViewCache, logger *zap.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

func projectKey(id int64) string     { return fmt.Sprintf("progress:project:%d", id) }
func workPackageKey(id int64) string { return fmt.Sprintf("progress:wp:%d", id) }
func stepKey(id int64) string        { return fmt.Sprintf("progress:step:%d", id) }

func (s *Service) Project(ctx context.Context, id int64) (*ProjectProgress, error) {
	var cached ProjectProgress
	if s.cache.Get(ctx, projectKey(id), &cached) {
		return &cached, nil
	}

	p, err := s.store.Projects().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &apperr.NotFoundError{Entity: "project", ID: id}
	}
	wps, err := s.store.WorkPackages().ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	view := AggregateProject(p, wps)
	s.cache.Set(ctx, projectKey(id), view)
	return &view, nil
}

func (s *Service) WorkPackage(ctx context.Context, id int64) (*WorkPackageProgress, error) {
	var cached WorkPackageProgress
	if s.cache.Get(ctx, workPackageKey(id), &cached) {
		return &cached, nil
	}

	wp, err := s.store.WorkPackages().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if wp == nil {
		return nil, &apperr.NotFoundError{Entity: "work_package", ID: id}
	}
	steps, err := s.store.Steps().ListByWorkPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	view := AggregateWorkPackage(wp, steps)
	s.cache.Set(ctx, workPackageKey(id), view)
	return &view, nil
}

func (s *Service) Step(ctx context.Context, id int64) (*StepProgress, error) {
	var cached StepProgress
	if s.cache.Get(ctx, stepKey(id), &cached) {
		return &cached, nil
	}

	step, err := s.store.Steps().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, &apperr.NotFoundError{Entity: "step", ID: id}
	}
	tasks, err := s.store.Tasks().ListByStep(ctx, id)
	if err != nil {
		return nil, err
	}

	view := AggregateStep(step, tasks)
	s.cache.Set(ctx, stepKey(id), view)
	return &view, nil
}

// InvalidateTree drops the cached views along one branch after a mutation.
func (s *Service) InvalidateTree(ctx context.Context, projectID, workPackageID, stepID int64) {
	keys := make([]string, 0, 3)
	if projectID != 0 {
		keys = append(keys, projectKey(projectID))
	}
	if workPackageID != 0 {
		keys = append(keys, workPackageKey(workPackageID))
	}
	if stepID != 0 {
		keys = append(keys, stepKey(stepID))
	}
	s.cache.Invalidate(ctx, keys...)
}
