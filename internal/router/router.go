// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/cafe-menu/internal/handler"
	"github.com/deppfellow/cafe-menu/internal/middleware"
	"github.com/deppfellow/cafe-menu/internal/model"
	"github.com/deppfellow/cafe-menu/internal/server"
)

// NewRouter builds the Echo instance with the middleware chain, the global
// error handler, system routes and the versioned API.
//
// Order matters: the rate limiter rejects before any tracing or logging
// work, and the context enhancer runs after the request id is assigned so
// the request logger carries it.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.RateLimit.Limit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerMenuRoutes(v1, h.Menu)

	return router
}

func registerMenuRoutes(r *echo.Group, h *handler.MenuHandler) {
	menus := r.Group("/menu")

	menus.POST("", handler.Handle(h.Handler, h.CreateMenu, http.StatusCreated, handler.MenuCreatedMessage, &model.CreateMenuRequest{}))
	menus.PATCH("", handler.Handle(h.Handler, h.UpdateMenu, http.StatusOK, handler.MenuUpdatedMessage, &model.UpdateMenuRequest{}))
	menus.GET("", handler.Handle(h.Handler, h.ListMenus, http.StatusOK, handler.MenuListMessage, &model.ListMenusRequest{}))
	menus.GET("/:menuId", handler.Handle(h.Handler, h.GetMenu, http.StatusOK, handler.MenuFoundMessage, &model.MenuIDRequest{}))
	menus.DELETE("/:menuId", handler.Handle(h.Handler, h.DeleteMenu, http.StatusOK, handler.MenuDeletedMessage, &model.MenuIDRequest{}))
}
