package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/deppfellow/cafe-menu/internal/model"
)

// ErrMenuNotFound is returned when no menu row has the requested id.
var ErrMenuNotFound = errors.New("menu not found")

const menuColumns = `id, name, price, created_at, updated_at`

const (
	selectMenuByIDQuery = `SELECT ` + menuColumns + ` FROM menus WHERE id = $1`

	selectMenuForUpdateQuery = `SELECT ` + menuColumns + ` FROM menus WHERE id = $1 FOR UPDATE`

	listMenusQuery = `SELECT ` + menuColumns + ` FROM menus ORDER BY id LIMIT $1 OFFSET $2`

	countMenusQuery = `SELECT count(*) FROM menus`

	insertMenuQuery = `
		INSERT INTO menus (name, price)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	updateMenuQuery = `
		UPDATE menus
		SET name = $2, price = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	deleteMenuQuery = `DELETE FROM menus WHERE id = $1 RETURNING ` + menuColumns
)

// MenuRepository persists menus in the menus table.
type MenuRepository struct {
	db DB
}

func NewMenuRepository(db DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func scanMenu(row scanner) (*model.Menu, error) {
	var m model.Menu
	if err := row.Scan(&m.ID, &m.Name, &m.Price, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// notFound turns pgx.ErrNoRows into ErrMenuNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMenuNotFound
	}
	return err
}

// FindByID loads a single menu.
func (r *MenuRepository) FindByID(ctx context.Context, id int64) (*model.Menu, error) {
	m, err := scanMenu(r.db.QueryRow(ctx, selectMenuByIDQuery, id))
	if err != nil {
		return nil, fmt.Errorf("find menu %d: %w", id, notFound(err))
	}
	return m, nil
}

// List returns up to limit menus ordered by id, skipping offset rows.
func (r *MenuRepository) List(ctx context.Context, limit, offset int) ([]model.Menu, error) {
	rows, err := r.db.Query(ctx, listMenusQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	defer rows.Close()

	menus := make([]model.Menu, 0, limit)
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		menus = append(menus, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	return menus, nil
}

// Count returns the total number of menus.
func (r *MenuRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, countMenusQuery).Scan(&total); err != nil {
		return 0, fmt.Errorf("count menus: %w", err)
	}
	return total, nil
}

// Create inserts m and fills in its id and timestamps.
// A duplicate name surfaces as the driver's unique violation.
func (r *MenuRepository) Create(ctx context.Context, m *model.Menu) error {
	err := r.db.QueryRow(ctx, insertMenuQuery, m.Name, m.Price).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert menu: %w", err)
	}
	return nil
}

// Update locks the row, applies fn to it and writes the result back in one
// transaction. Concurrent updates of the same id are serialized by the row lock.
func (r *MenuRepository) Update(ctx context.Context, id int64, fn func(m *model.Menu) error) (*model.Menu, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update menu %d: %w", id, err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	m, err := scanMenu(tx.QueryRow(ctx, selectMenuForUpdateQuery, id))
	if err != nil {
		return nil, fmt.Errorf("lock menu %d: %w", id, notFound(err))
	}

	if err := fn(m); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, updateMenuQuery, m.ID, m.Name, m.Price).Scan(&m.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update menu %d: %w", id, notFound(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update menu %d: %w", id, err)
	}
	return m, nil
}

// Delete removes the menu with id and returns the deleted row.
// It reports ErrMenuNotFound when nothing was deleted.
func (r *MenuRepository) Delete(ctx context.Context, id int64) (*model.Menu, error) {
	m, err := scanMenu(r.db.QueryRow(ctx, deleteMenuQuery, id))
	if err != nil {
		return nil, fmt.Errorf("delete menu %d: %w", id, notFound(err))
	}
	return m, nil
}
