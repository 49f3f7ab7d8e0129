package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/cache"
	"github.com/deppfellow/cafe-menu/internal/errs"
	"github.com/deppfellow/cafe-menu/internal/lib/job"
	"github.com/deppfellow/cafe-menu/internal/model"
	"github.com/deppfellow/cafe-menu/internal/repository"
)

// memoryRepo is an in-memory MenuRepository.
type memoryRepo struct {
	menus  map[int64]model.Menu
	nextID int64
	finds  int
	err    error

	// afterLoad runs once a row has been read and before FindByID returns.
	afterLoad func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{menus: map[int64]model.Menu{}}
}

func (r *memoryRepo) FindByID(_ context.Context, id int64) (*model.Menu, error) {
	r.finds++
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.menus[id]
	if !ok {
		return nil, repository.ErrMenuNotFound
	}
	if r.afterLoad != nil {
		r.afterLoad()
	}
	return &m, nil
}

func (r *memoryRepo) List(_ context.Context, limit, offset int) ([]model.Menu, error) {
	ids := make([]int64, 0, len(r.menus))
	for id := range r.menus {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []model.Menu{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, r.menus[ids[i]])
	}
	return out, nil
}

func (r *memoryRepo) Count(context.Context) (int64, error) {
	return int64(len(r.menus)), nil
}

func (r *memoryRepo) Create(_ context.Context, m *model.Menu) error {
	if r.err != nil {
		return r.err
	}
	r.nextID++
	m.ID = r.nextID
	r.menus[m.ID] = *m
	return nil
}

func (r *memoryRepo) Update(_ context.Context, id int64, fn func(m *model.Menu) error) (*model.Menu, error) {
	m, ok := r.menus[id]
	if !ok {
		return nil, repository.ErrMenuNotFound
	}
	if err := fn(&m); err != nil {
		return nil, err
	}
	r.menus[id] = m
	return &m, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) (*model.Menu, error) {
	m, ok := r.menus[id]
	if !ok {
		return nil, repository.ErrMenuNotFound
	}
	delete(r.menus, id)
	return &m, nil
}

// memoryCache is an in-memory MenuCache with per-id generations.
type memoryCache struct {
	entries map[int64]model.GetMenuResponse
	gens    map[int64]int64
	err     error
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[int64]model.GetMenuResponse{}, gens: map[int64]int64{}}
}

func (c *memoryCache) Get(_ context.Context, id int64) (cache.Lookup, error) {
	if c.err != nil {
		return cache.Lookup{}, c.err
	}
	if c.getErr != nil {
		return cache.Lookup{}, c.getErr
	}
	lookup := cache.Lookup{Generation: c.gens[id]}
	if m, ok := c.entries[id]; ok {
		lookup.Menu = &m
	}
	return lookup, nil
}

func (c *memoryCache) Set(_ context.Context, m *model.GetMenuResponse, generation int64) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.gens[m.ID] != generation {
		return false, nil
	}
	c.entries[m.ID] = *m
	return true, nil
}

func (c *memoryCache) Invalidate(_ context.Context, id int64) error {
	if c.err != nil {
		return c.err
	}
	c.gens[id]++
	delete(c.entries, id)
	return nil
}

type recordingEvents struct {
	payloads []job.MenuChangedPayload
	err      error
}

func (e *recordingEvents) EnqueueMenuChanged(_ context.Context, p job.MenuChangedPayload) error {
	e.payloads = append(e.payloads, p)
	return e.err
}

type fixture struct {
	repo   *memoryRepo
	cache  *memoryCache
	events *recordingEvents
	read   *MenuReadService
	write  *MenuWriteService
}

func newFixture() *fixture {
	logger := zerolog.Nop()
	f := &fixture{repo: newMemoryRepo(), cache: newMemoryCache(), events: &recordingEvents{}}
	f.read = NewMenuReadService(f.repo, f.cache, &logger)
	f.write = NewMenuWriteService(f.repo, f.cache, f.events, &logger)
	return f
}

func isNotFound(err error) bool {
	return errors.Is(err, errs.NewNotFoundError())
}

func TestCreateThenGet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, err := f.write.CreateMenu(ctx, "Americano", 3000)
	if err != nil || id == 0 {
		t.Fatalf("CreateMenu = %d, %v", id, err)
	}

	got, err := f.read.GetMenuByID(ctx, id)
	if err != nil {
		t.Fatalf("GetMenuByID: %v", err)
	}
	if got.ID != id || got.Name != "Americano" || got.Price != 3000 {
		t.Fatalf("unexpected menu: %+v", got)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.read.GetMenuByID(context.Background(), 99); !isNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSecondReadIsServedFromCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)

	if _, err := f.read.GetMenuByID(ctx, id); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := f.read.GetMenuByID(ctx, id); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if f.repo.finds != 1 {
		t.Fatalf("expected one repository read, got %d", f.repo.finds)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)
	_, _ = f.read.GetMenuByID(ctx, id)

	updated, err := f.write.UpdateMenu(ctx, id, "Latte", 4000)
	if err != nil || updated != id {
		t.Fatalf("UpdateMenu = %d, %v", updated, err)
	}

	got, err := f.read.GetMenuByID(ctx, id)
	if err != nil {
		t.Fatalf("GetMenuByID: %v", err)
	}
	if got.Name != "Latte" || got.Price != 4000 {
		t.Fatalf("expected fresh values after update, got %+v", got)
	}
}

func TestCacheFailureFallsBackToRepository(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)

	f.cache.err = errors.New("redis down")
	got, err := f.read.GetMenuByID(ctx, id)
	if err != nil || got.Name != "Americano" {
		t.Fatalf("expected repository answer, got %+v, %v", got, err)
	}

	if _, err := f.write.UpdateMenu(ctx, id, "Latte", 4000); err != nil {
		t.Fatalf("cache failure must not fail the write: %v", err)
	}
}

func TestUpdateAndDeleteMissingAreNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.write.UpdateMenu(ctx, 5, "Latte", 4000); !isNotFound(err) {
		t.Fatalf("expected NotFound on update, got %v", err)
	}
	if _, err := f.write.DeleteMenu(ctx, 5); !isNotFound(err) {
		t.Fatalf("expected NotFound on delete, got %v", err)
	}
	if len(f.events.payloads) != 0 {
		t.Fatalf("failed writes must not enqueue tasks")
	}
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)

	deleted, err := f.write.DeleteMenu(ctx, id)
	if err != nil || deleted != id {
		t.Fatalf("DeleteMenu = %d, %v", deleted, err)
	}
	if _, err := f.write.DeleteMenu(ctx, id); !isNotFound(err) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
	if _, err := f.read.GetMenuByID(ctx, id); !isNotFound(err) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestWritesEnqueueOneTaskEach(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)
	_, _ = f.write.UpdateMenu(ctx, id, "Latte", 4000)
	_, _ = f.write.DeleteMenu(ctx, id)

	want := []string{job.ActionCreated, job.ActionUpdated, job.ActionDeleted}
	if len(f.events.payloads) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(f.events.payloads))
	}
	for i, p := range f.events.payloads {
		if p.Action != want[i] || p.MenuID != id {
			t.Fatalf("task %d: unexpected payload %+v", i, p)
		}
	}
	if last := f.events.payloads[2]; last.Name != "Latte" || last.Price != 4000 {
		t.Fatalf("expected the delete task to carry the deleted row, got %+v", last)
	}
}

func TestEnqueueFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("redis down")

	if _, err := f.write.CreateMenu(context.Background(), "Americano", 3000); err != nil {
		t.Fatalf("enqueue failure must not fail the write: %v", err)
	}
}

func TestCreateKeepsStorageErrors(t *testing.T) {
	f := newFixture()
	storageErr := errors.New("unique violation")
	f.repo.err = storageErr

	_, err := f.write.CreateMenu(context.Background(), "Americano", 3000)
	if !errors.Is(err, storageErr) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestListMenus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		if _, err := f.write.CreateMenu(ctx, name, 1000); err != nil {
			t.Fatalf("CreateMenu: %v", err)
		}
	}

	page, err := f.read.ListMenus(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListMenus: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 || page.Items[0].Name != "C" {
		t.Fatalf("unexpected page: %+v", page)
	}

	page, err = f.read.ListMenus(ctx, 0, 1000)
	if err != nil {
		t.Fatalf("ListMenus: %v", err)
	}
	if page.Page != 1 || page.Limit != model.MaxPageLimit || len(page.Items) != 3 {
		t.Fatalf("expected clamped paging, got %+v", page)
	}
}

func TestDeleteWhileReadingDoesNotLeaveCachedMenu(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)

	// The row is loaded, then the delete commits and invalidates before the
	// read fills the cache.
	f.repo.afterLoad = func() {
		f.repo.afterLoad = nil
		if _, err := f.write.DeleteMenu(ctx, id); err != nil {
			t.Fatalf("DeleteMenu: %v", err)
		}
	}

	if _, err := f.read.GetMenuByID(ctx, id); err != nil {
		t.Fatalf("read racing the delete: %v", err)
	}
	if _, ok := f.cache.entries[id]; ok {
		t.Fatalf("the deleted menu must not be cached")
	}
	if _, err := f.read.GetMenuByID(ctx, id); !isNotFound(err) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestUpdateWhileReadingServesNewValuesNext(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)

	f.repo.afterLoad = func() {
		f.repo.afterLoad = nil
		if _, err := f.write.UpdateMenu(ctx, id, "Latte", 4000); err != nil {
			t.Fatalf("UpdateMenu: %v", err)
		}
	}

	if _, err := f.read.GetMenuByID(ctx, id); err != nil {
		t.Fatalf("read racing the update: %v", err)
	}

	got, err := f.read.GetMenuByID(ctx, id)
	if err != nil {
		t.Fatalf("GetMenuByID: %v", err)
	}
	if got.Name != "Latte" || got.Price != 4000 {
		t.Fatalf("expected the updated menu, got %+v", got)
	}
}

func TestCacheReadFailureSkipsFill(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.write.CreateMenu(ctx, "Americano", 3000)

	f.cache.getErr = errors.New("read timeout")
	if _, err := f.read.GetMenuByID(ctx, id); err != nil {
		t.Fatalf("GetMenuByID: %v", err)
	}
	if _, ok := f.cache.entries[id]; ok {
		t.Fatalf("a read without a generation must not fill the cache")
	}
}
