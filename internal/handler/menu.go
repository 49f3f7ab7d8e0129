package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/cafe-menu/internal/model"
	"github.com/deppfellow/cafe-menu/internal/server"
	"github.com/deppfellow/cafe-menu/internal/service"
)

// Success messages of the menu endpoints.
const (
	MenuCreatedMessage = "메뉴가 생성되었습니다."
	MenuUpdatedMessage = "메뉴가 수정되었습니다."
	MenuFoundMessage   = "메뉴가 조회되었습니다."
	MenuDeletedMessage = "메뉴가 삭제되었습니다."
	MenuListMessage    = "메뉴 목록이 조회되었습니다."
)

// MenuHandler exposes the menu CRUD endpoints under /api/v1/menu.
type MenuHandler struct {
	Handler
	read  *service.MenuReadService
	write *service.MenuWriteService
}

func NewMenuHandler(s *server.Server, read *service.MenuReadService, write *service.MenuWriteService) *MenuHandler {
	return &MenuHandler{
		Handler: NewHandler(s),
		read:    read,
		write:   write,
	}
}

func (h *MenuHandler) CreateMenu(c echo.Context, req *model.CreateMenuRequest) (*model.MenuIDResponse, error) {
	id, err := h.write.CreateMenu(c.Request().Context(), req.Name, *req.Price)
	if err != nil {
		return nil, err
	}
	return &model.MenuIDResponse{ID: id}, nil
}

func (h *MenuHandler) UpdateMenu(c echo.Context, req *model.UpdateMenuRequest) (*model.MenuIDResponse, error) {
	id, err := h.write.UpdateMenu(c.Request().Context(), *req.ID, req.Name, *req.Price)
	if err != nil {
		return nil, err
	}
	return &model.MenuIDResponse{ID: id}, nil
}

func (h *MenuHandler) GetMenu(c echo.Context, req *model.MenuIDRequest) (*model.GetMenuResponse, error) {
	return h.read.GetMenuByID(c.Request().Context(), req.MenuID)
}

func (h *MenuHandler) ListMenus(c echo.Context, req *model.ListMenusRequest) (*model.ListMenusResponse, error) {
	return h.read.ListMenus(c.Request().Context(), req.Page, req.Limit)
}

func (h *MenuHandler) DeleteMenu(c echo.Context, req *model.MenuIDRequest) (*model.MenuIDResponse, error) {
	id, err := h.write.DeleteMenu(c.Request().Context(), req.MenuID)
	if err != nil {
		return nil, err
	}
	return &model.MenuIDResponse{ID: id}, nil
}
