// Package memory provides an in-memory transactional Store used by tests.
// WithTx operates on the live state under the store lock and restores a
// snapshot on error, so tests observe the same all-or-nothing behaviour as
// the Postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/model"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
)

type state struct {
	projects     map[int64]model.Project
	workPackages map[int64]model.WorkPackage
	steps        map[int64]model.Step
	tasks        map[int64]model.Task
	slots        map[int64]model.ResourceSlot
	events       []storage.DomainEvent
	nextID       int64
}

func newState() *state {
	return &state{
		projects:     make(map[int64]model.Project),
		workPackages: make(map[int64]model.WorkPackage),
		steps:        make(map[int64]model.Step),
		tasks:        make(map[int64]model.Task),
		slots:        make(map[int64]model.ResourceSlot),
		nextID:       1,
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for id, p := range s.projects {
		c.projects[id] = p
	}
	for id, wp := range s.workPackages {
		c.workPackages[id] = wp
	}
	for id, st := range s.steps {
		st.RequiredTools = append([]string(nil), st.RequiredTools...)
		c.steps[id] = st
	}
	for id, t := range s.tasks {
		t.RequiredTools = append([]string(nil), t.RequiredTools...)
		c.tasks[id] = t
	}
	for id, sl := range s.slots {
		if sl.AssignedTo != nil {
			v := *sl.AssignedTo
			sl.AssignedTo = &v
		}
		c.slots[id] = sl
	}
	c.events = append([]storage.DomainEvent(nil), s.events...)
	return c
}

func (s *state) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// Store is the in-memory storage.Store.
type Store struct {
	mu sync.Mutex
	st *state
	// inTx suppresses locking for the transaction-scoped view, which runs
	// entirely under the root store's lock.
	inTx bool
	root *Store
}

func NewStore() *Store {
	s := &Store{st: newState()}
	s.root = s
	return s
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.inTx {
		// Already transactional; run in the same scope.
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.st.clone()
	tx := &Store{st: s.st, inTx: true, root: s}
	if err := fn(tx); err != nil {
		s.st = snap
		return err
	}
	return nil
}

func (s *Store) Projects() storage.ProjectRepo         { return projectRepo{s} }
func (s *Store) WorkPackages() storage.WorkPackageRepo { return workPackageRepo{s} }
func (s *Store) Steps() storage.StepRepo               { return stepRepo{s} }
func (s *Store) Tasks() storage.TaskRepo               { return taskRepo{s} }
func (s *Store) Slots() storage.SlotRepo               { return slotRepo{s} }
func (s *Store) Events() storage.EventRepo             { return eventRepo{s} }

// PublishedEvents returns the committed outbox records, for test assertions.
func (s *Store) PublishedEvents() []storage.DomainEvent {
	defer s.lock()()
	return append([]storage.DomainEvent(nil), s.st.events...)
}

type projectRepo struct{ s *Store }

func (r projectRepo) Get(ctx context.Context, id int64) (*model.Project, error) {
	defer r.s.lock()()
	p, ok := r.s.st.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r projectRepo) Insert(ctx context.Context, p *model.Project) (int64, error) {
	defer r.s.lock()()
	p.ID = r.s.st.allocID()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.st.projects[p.ID] = *p
	return p.ID, nil
}

func (r projectRepo) Update(ctx context.Context, p *model.Project) error {
	defer r.s.lock()()
	p.UpdatedAt = time.Now()
	r.s.st.projects[p.ID] = *p
	return nil
}

type workPackageRepo struct{ s *Store }

func (r workPackageRepo) Get(ctx context.Context, id int64) (*model.WorkPackage, error) {
	defer r.s.lock()()
	wp, ok := r.s.st.workPackages[id]
	if !ok {
		return nil, nil
	}
	return &wp, nil
}

func (r workPackageRepo) Insert(ctx context.Context, wp *model.WorkPackage) (int64, error) {
	defer r.s.lock()()
	wp.ID = r.s.st.allocID()
	now := time.Now()
	wp.CreatedAt, wp.UpdatedAt = now, now
	r.s.st.workPackages[wp.ID] = *wp
	return wp.ID, nil
}

func (r workPackageRepo) Update(ctx context.Context, wp *model.WorkPackage) error {
	defer r.s.lock()()
	wp.UpdatedAt = time.Now()
	r.s.st.workPackages[wp.ID] = *wp
	return nil
}

func (r workPackageRepo) ListByProject(ctx context.Context, projectID int64) ([]model.WorkPackage, error) {
	defer r.s.lock()()
	var out []model.WorkPackage
	for _, wp := range r.s.st.workPackages {
		if wp.ProjectID == projectID {
			out = append(out, wp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r workPackageRepo) ListByStatus(ctx context.Context, projectID int64, status model.WorkStatus) ([]model.WorkPackage, error) {
	all, _ := r.ListByProject(ctx, projectID)
	var out []model.WorkPackage
	for _, wp := range all {
		if wp.Status == status {
			out = append(out, wp)
		}
	}
	return out, nil
}

type stepRepo struct{ s *Store }

func (r stepRepo) Get(ctx context.Context, id int64) (*model.Step, error) {
	defer r.s.lock()()
	st, ok := r.s.st.steps[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r stepRepo) Insert(ctx context.Context, st *model.Step) (int64, error) {
	defer r.s.lock()()
	st.ID = r.s.st.allocID()
	now := time.Now()
	st.CreatedAt, st.UpdatedAt = now, now
	r.s.st.steps[st.ID] = *st
	return st.ID, nil
}

func (r stepRepo) Update(ctx context.Context, st *model.Step) error {
	defer r.s.lock()()
	st.UpdatedAt = time.Now()
	r.s.st.steps[st.ID] = *st
	return nil
}

func (r stepRepo) ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.Step, error) {
	defer r.s.lock()()
	var out []model.Step
	for _, st := range r.s.st.steps {
		if st.WorkPackageID == workPackageID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r stepRepo) ListByStatus(ctx context.Context, workPackageID int64, status model.WorkStatus) ([]model.Step, error) {
	all, _ := r.ListByWorkPackage(ctx, workPackageID)
	var out []model.Step
	for _, st := range all {
		if st.Status == status {
			out = append(out, st)
		}
	}
	return out, nil
}

type taskRepo struct{ s *Store }

func (r taskRepo) Get(ctx context.Context, id int64) (*model.Task, error) {
	defer r.s.lock()()
	t, ok := r.s.st.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r taskRepo) Insert(ctx context.Context, t *model.Task) (int64, error) {
	defer r.s.lock()()
	t.ID = r.s.st.allocID()
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.st.tasks[t.ID] = *t
	return t.ID, nil
}

func (r taskRepo) Update(ctx context.Context, t *model.Task) error {
	defer r.s.lock()()
	t.UpdatedAt = time.Now()
	r.s.st.tasks[t.ID] = *t
	return nil
}

func (r taskRepo) ListByStep(ctx context.Context, stepID int64) ([]model.Task, error) {
	defer r.s.lock()()
	var out []model.Task
	for _, t := range r.s.st.tasks {
		if t.StepID == stepID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

type slotRepo struct{ s *Store }

func (r slotRepo) Get(ctx context.Context, id int64) (*model.ResourceSlot, error) {
	defer r.s.lock()()
	sl, ok := r.s.st.slots[id]
	if !ok {
		return nil, nil
	}
	return &sl, nil
}

func (r slotRepo) Insert(ctx context.Context, sl *model.ResourceSlot) (int64, error) {
	defer r.s.lock()()
	sl.ID = r.s.st.allocID()
	now := time.Now()
	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = now
	}
	sl.UpdatedAt = now
	r.s.st.slots[sl.ID] = *sl
	return sl.ID, nil
}

func (r slotRepo) ListAvailable(ctx context.Context, category model.ResourceCategory, specialty string) ([]model.ResourceSlot, error) {
	defer r.s.lock()()
	var out []model.ResourceSlot
	for _, sl := range r.s.st.slots {
		if sl.Status != model.SlotStatusAvailable || sl.Category != category {
			continue
		}
		if specialty != "" && sl.Specialty != specialty {
			continue
		}
		out = append(out, sl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r slotRepo) Assign(ctx context.Context, slotID, workPackageID int64) (bool, error) {
	defer r.s.lock()()
	sl, ok := r.s.st.slots[slotID]
	if !ok || sl.Status != model.SlotStatusAvailable {
		return false, nil
	}
	sl.Status = model.SlotStatusAssigned
	sl.AssignedTo = &workPackageID
	sl.UpdatedAt = time.Now()
	r.s.st.slots[slotID] = sl
	return true, nil
}

func (r slotRepo) Release(ctx context.Context, slotID int64) error {
	defer r.s.lock()()
	sl, ok := r.s.st.slots[slotID]
	if !ok || sl.Status != model.SlotStatusAssigned {
		return nil
	}
	sl.Status = model.SlotStatusAvailable
	sl.AssignedTo = nil
	sl.UpdatedAt = time.Now()
	r.s.st.slots[slotID] = sl
	return nil
}

func (r slotRepo) ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.ResourceSlot, error) {
	defer r.s.lock()()
	var out []model.ResourceSlot
	for _, sl := range r.s.st.slots {
		if sl.Status == model.SlotStatusAssigned && sl.AssignedTo != nil && *sl.AssignedTo == workPackageID {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r slotRepo) CountAvailable(ctx context.Context) (map[model.ResourceCategory]int, error) {
	defer r.s.lock()()
	counts := make(map[model.ResourceCategory]int)
	for _, sl := range r.s.st.slots {
		if sl.Status == model.SlotStatusAvailable {
			counts[sl.Category]++
		}
	}
	return counts, nil
}

type eventRepo struct{ s *Store }

func (r eventRepo) Append(ctx context.Context, e storage.DomainEvent) error {
	defer r.s.lock()()
	r.s.st.events = append(r.s.st.events, e)
	return nil
}
