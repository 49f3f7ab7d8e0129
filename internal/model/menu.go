package model

// MinMenuPrice is the lowest price a menu item may have.
const MinMenuPrice = 500

// MaxMenuPrice is the largest price the integer price column can hold.
const MaxMenuPrice = 1<<31 - 1

// Menu is a single item on the cafe menu.
type Menu struct {
	Base
	Name  string `json:"name" db:"name"`
	Price int    `json:"price" db:"price"`
}

// NewMenu builds an unsaved Menu. ID and timestamps are filled in by the store.
func NewMenu(name string, price int) *Menu {
	return &Menu{
		Name:  name,
		Price: price,
	}
}

// Update replaces the mutable fields in place.
func (m *Menu) Update(name string, price int) {
	m.Name = name
	m.Price = price
}
