// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs
// business operations, and calls repository methods to interact
// with the data
package service

import (
	"github.com/deppfellow/cafe-menu/internal/cache"
	"github.com/deppfellow/cafe-menu/internal/lib/job"
	"github.com/deppfellow/cafe-menu/internal/repository"
	"github.com/deppfellow/cafe-menu/internal/server"
)

type Services struct {
	MenuRead  *MenuReadService
	MenuWrite *MenuWriteService
	Job       *job.JobService
}

// NewService wires the services on top of the repositories.
//
// The Redis read cache is used only when enabled in config; otherwise a nil
// cache is passed, which always misses.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var menuCache *cache.MenuCache
	if s.Config.Cache.Enabled && s.Redis != nil {
		menuCache = cache.NewMenuCache(s.Redis, s.Config.Cache.TTL)
	}

	var events MenuEvents = noopEvents{}
	if s.Job != nil {
		events = s.Job
	}

	return &Services{
		MenuRead:  NewMenuReadService(repos.Menu, menuCache, s.Logger),
		MenuWrite: NewMenuWriteService(repos.Menu, menuCache, events, s.Logger),
		Job:       s.Job,
	}, nil
}
