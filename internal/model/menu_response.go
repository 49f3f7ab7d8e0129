package model

// MenuIDResponse is returned by create, update and delete.
type MenuIDResponse struct {
	ID int64 `json:"id"`
}

// GetMenuResponse is the read projection of a Menu.
type GetMenuResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// NewGetMenuResponse projects a Menu into its read shape.
func NewGetMenuResponse(m *Menu) *GetMenuResponse {
	return &GetMenuResponse{
		ID:    m.ID,
		Name:  m.Name,
		Price: m.Price,
	}
}

// ListMenusResponse is one page of menus ordered by id.
type ListMenusResponse struct {
	Items []GetMenuResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
