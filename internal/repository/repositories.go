package repository

import (
	"github.com/deppfellow/cafe-menu/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Menu *MenuRepository
}

// NewRepositories builds every repository on top of the server's connection pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Menu: NewMenuRepository(s.DB.Pool),
	}
}
