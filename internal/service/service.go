package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/cache"
	"github.com/deppfellow/cafe-menu/internal/lib/job"
	"github.com/deppfellow/cafe-menu/internal/model"
)

// MenuRepository is the storage the menu services depend on.
// *repository.MenuRepository implements it.
type MenuRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Menu, error)
	List(ctx context.Context, limit, offset int) ([]model.Menu, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, m *model.Menu) error
	Update(ctx context.Context, id int64, fn func(m *model.Menu) error) (*model.Menu, error)
	Delete(ctx context.Context, id int64) (*model.Menu, error)
}

// MenuCache holds read projections. *cache.MenuCache implements it.
//
// Set takes the generation returned by the Get that missed and stores
// nothing if Invalidate ran in between.
type MenuCache interface {
	Get(ctx context.Context, id int64) (cache.Lookup, error)
	Set(ctx context.Context, menu *model.GetMenuResponse, generation int64) (bool, error)
	Invalidate(ctx context.Context, id int64) error
}

// MenuEvents publishes menu writes. *job.JobService implements it.
type MenuEvents interface {
	EnqueueMenuChanged(ctx context.Context, p job.MenuChangedPayload) error
}

type noopEvents struct{}

func (noopEvents) EnqueueMenuChanged(context.Context, job.MenuChangedPayload) error { return nil }

// loggerFrom prefers the request logger stored in ctx by the context enhancer.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}
