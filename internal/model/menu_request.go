package model

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/cafe-menu/internal/validation"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// CreateMenuRequest is the body of POST /api/v1/menu.
//
// Price is a pointer so a missing value fails "required" instead of
// silently binding to zero.
type CreateMenuRequest struct {
	Name  string `json:"name" validate:"required,notblank" message:"이름을 확인해주세요"`
	Price *int   `json:"price" validate:"required,min=500,max=2147483647" message:"메뉴의 가격을 확인해주세요"`
}

func (r *CreateMenuRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateMenuRequest is the body of PATCH /api/v1/menu.
type UpdateMenuRequest struct {
	ID    *int64 `json:"id" validate:"required,min=1" message:"ID를 확인해주세요"`
	Name  string `json:"name" validate:"required,notblank" message:"이름을 확인해주세요"`
	Price *int   `json:"price" validate:"required,min=500,max=2147483647" message:"메뉴의 가격을 확인해주세요"`
}

func (r *UpdateMenuRequest) Validate() error {
	return validation.Struct(r)
}

// MenuIDRequest carries the :menuId path parameter of GET and DELETE.
type MenuIDRequest struct {
	MenuID int64 `param:"menuId" validate:"required,min=1" message:"ID를 확인해주세요"`
}

// Bind reads the path parameter with echo's fluent binder so a
// non-numeric id is reported against the menuId field.
func (r *MenuIDRequest) Bind(c echo.Context) error {
	return echo.PathParamsBinder(c).MustInt64("menuId", &r.MenuID).BindError()
}

func (r *MenuIDRequest) Validate() error {
	return validation.Struct(r)
}

// ListMenusRequest is the query of GET /api/v1/menu.
type ListMenusRequest struct {
	Page  int `query:"page" validate:"min=1" message:"페이지 정보를 확인해주세요"`
	Limit int `query:"limit" validate:"min=1,max=100" message:"페이지 정보를 확인해주세요"`
}

// Bind applies the paging defaults, then overrides them from the query string.
func (r *ListMenusRequest) Bind(c echo.Context) error {
	r.Page = 1
	r.Limit = DefaultPageLimit
	return echo.QueryParamsBinder(c).
		Int("page", &r.Page).
		Int("limit", &r.Limit).
		BindError()
}

func (r *ListMenusRequest) Validate() error {
	return validation.Struct(r)
}

// Offset is the number of rows to skip for the requested page.
func (r *ListMenusRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}
