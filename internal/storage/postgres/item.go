package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pra-pos/internal/domain/item"
)

const itemColumns = `id, name, price, category, item_code, pct_code, is_active, created_at, updated_at`

var _ item.Repository = (*ItemRepository)(nil)

// ItemRepository implements item.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns items ordered by name. Inactive items are filtered out
// unless includeInactive is set.
func (r *ItemRepository) List(ctx context.Context, includeInactive bool) ([]item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE is_active OR $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetByID returns a single item, or item.ErrNotFound.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, item.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}
	return &it, nil
}

// Create persists a new item, reading back the generated timestamps.
func (r *ItemRepository) Create(ctx context.Context, it *item.Item) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO items (id, name, price, category, item_code, pct_code, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		it.ID, it.Name, it.Price, it.Category, it.ItemCode, it.PCTCode, it.IsActive,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating item %q: %w", it.Name, err)
	}
	return nil
}

// Update replaces the mutable fields of an item.
func (r *ItemRepository) Update(ctx context.Context, it *item.Item) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE items
		 SET name = $2, price = $3, category = $4, item_code = $5, pct_code = $6,
		     is_active = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		it.ID, it.Name, it.Price, it.Category, it.ItemCode, it.PCTCode, it.IsActive,
	).Scan(&it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.ErrNotFound
		}
		return fmt.Errorf("updating item %q: %w", it.ID, err)
	}
	return nil
}

func scanItem(row pgx.Row) (item.Item, error) {
	var it item.Item
	err := row.Scan(
		&it.ID, &it.Name, &it.Price, &it.Category, &it.ItemCode,
		&it.PCTCode, &it.IsActive, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}
