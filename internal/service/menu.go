package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/errs"
	"github.com/deppfellow/cafe-menu/internal/lib/job"
	"github.com/deppfellow/cafe-menu/internal/model"
	"github.com/deppfellow/cafe-menu/internal/repository"
)

// translate maps a missing row to the NotFound domain error and wraps the rest.
func translate(op string, err error) error {
	if errors.Is(err, repository.ErrMenuNotFound) {
		return errs.NewNotFoundError()
	}
	return fmt.Errorf("%s: %w", op, err)
}

// MenuReadService serves menu reads, through the cache when one is configured.
type MenuReadService struct {
	repo   MenuRepository
	cache  MenuCache
	logger *zerolog.Logger
}

func NewMenuReadService(repo MenuRepository, cache MenuCache, logger *zerolog.Logger) *MenuReadService {
	return &MenuReadService{repo: repo, cache: cache, logger: logger}
}

// GetMenuByID returns the {id, name, price} projection or the NotFound error.
//
// Cache failures are logged and the database answers instead. A miss is
// filled only when no write invalidated the menu while it was loaded, so a
// concurrent delete or update cannot leave a stale entry behind.
func (s *MenuReadService) GetMenuByID(ctx context.Context, id int64) (*model.GetMenuResponse, error) {
	log := loggerFrom(ctx, s.logger)

	lookup, cacheErr := s.cache.Get(ctx, id)
	if cacheErr != nil {
		log.Warn().Err(cacheErr).Int64("menu_id", id).Msg("menu cache read failed")
	}
	if lookup.Hit() {
		return lookup.Menu, nil
	}

	menu, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate("get menu", err)
	}

	resp := model.NewGetMenuResponse(menu)

	// Without a generation the fill cannot be guarded.
	if cacheErr != nil {
		return resp, nil
	}

	stored, err := s.cache.Set(ctx, resp, lookup.Generation)
	switch {
	case err != nil:
		log.Warn().Err(err).Int64("menu_id", id).Msg("menu cache write failed")
	case !stored:
		log.Debug().Int64("menu_id", id).Msg("menu changed while loading, cache fill skipped")
	}
	return resp, nil
}

// ListMenus returns one page of menus ordered by id and the total count.
func (s *MenuReadService) ListMenus(ctx context.Context, page, limit int) (*model.ListMenusResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = model.DefaultPageLimit
	}
	limit = min(limit, model.MaxPageLimit)

	menus, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, translate("list menus", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, translate("count menus", err)
	}

	items := make([]model.GetMenuResponse, 0, len(menus))
	for i := range menus {
		items = append(items, *model.NewGetMenuResponse(&menus[i]))
	}

	return &model.ListMenusResponse{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// MenuWriteService creates, updates and deletes menus.
//
// Each call is one repository transaction. After it commits, the cached
// projection is dropped and a menu:changed task is enqueued; failures of
// either are logged and never fail the write.
type MenuWriteService struct {
	repo   MenuRepository
	cache  MenuCache
	events MenuEvents
	logger *zerolog.Logger
}

func NewMenuWriteService(repo MenuRepository, cache MenuCache, events MenuEvents, logger *zerolog.Logger) *MenuWriteService {
	return &MenuWriteService{repo: repo, cache: cache, events: events, logger: logger}
}

// CreateMenu persists a new menu and returns its id.
// Name uniqueness is enforced by the store.
func (s *MenuWriteService) CreateMenu(ctx context.Context, name string, price int) (int64, error) {
	menu := model.NewMenu(name, price)
	if err := s.repo.Create(ctx, menu); err != nil {
		return 0, translate("create menu", err)
	}

	s.afterWrite(ctx, job.ActionCreated, menu)
	return menu.ID, nil
}

// UpdateMenu replaces the name and price of menu id.
func (s *MenuWriteService) UpdateMenu(ctx context.Context, id int64, name string, price int) (int64, error) {
	menu, err := s.repo.Update(ctx, id, func(m *model.Menu) error {
		m.Update(name, price)
		return nil
	})
	if err != nil {
		return 0, translate("update menu", err)
	}

	s.afterWrite(ctx, job.ActionUpdated, menu)
	return menu.ID, nil
}

// DeleteMenu removes menu id and returns it. A second delete of the same id is NotFound.
func (s *MenuWriteService) DeleteMenu(ctx context.Context, id int64) (int64, error) {
	menu, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, translate("delete menu", err)
	}

	s.afterWrite(ctx, job.ActionDeleted, menu)
	return menu.ID, nil
}

func (s *MenuWriteService) afterWrite(ctx context.Context, action string, menu *model.Menu) {
	log := loggerFrom(ctx, s.logger).With().
		Str("action", action).
		Int64("menu_id", menu.ID).
		Logger()

	if err := s.cache.Invalidate(ctx, menu.ID); err != nil {
		log.Warn().Err(err).Msg("menu cache invalidation failed")
	}

	err := s.events.EnqueueMenuChanged(ctx, job.MenuChangedPayload{
		Action: action,
		MenuID: menu.ID,
		Name:   menu.Name,
		Price:  menu.Price,
	})
	if err != nil {
		log.Warn().Err(err).Msg("menu change task was not enqueued")
	}
}
