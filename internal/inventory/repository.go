package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrItemNotFound = errors.New("inventory item not found")

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, sellableOnly bool) ([]Item, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const itemColumns = `id, owner_id, name, stock, price, is_sellable, photo_url, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Stock,
		&item.Price,
		&item.IsSellable,
		&item.PhotoURL,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *postgresRepository) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate item ID: %w", err)
		}
		item.ID = id
	}
	item.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.OwnerID,
		item.Name,
		item.Stock,
		item.Price,
		item.IsSellable,
		item.PhotoURL,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert inventory item: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE owner_id = $1 AND id = $2`
	item, err := scanItem(r.db.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select inventory item %s: %w", id, err)
	}
	return item, nil
}

func (r *postgresRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE inventory_items
		SET name = $1, stock = $2, price = $3, is_sellable = $4, photo_url = $5
		WHERE owner_id = $6 AND id = $7
	`
	cmdTag, err := r.db.Exec(ctx, query,
		item.Name,
		item.Stock,
		item.Price,
		item.IsSellable,
		item.PhotoURL,
		item.OwnerID,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update inventory item %s: %w", item.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete inventory item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, ownerID uuid.UUID, sellableOnly bool) ([]Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE owner_id = $1 AND (NOT $2 OR is_sellable)
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, ownerID, sellableOnly)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating inventory: %w", err)
	}
	return items, nil
}
