package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Customer, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, u Update) (*Customer, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, search string) ([]Customer, error)
	LookupByPhone(ctx context.Context, ownerID uuid.UUID, phone string, limit int) ([]Customer, error)
	TopUp(ctx context.Context, ownerID, id uuid.UUID, amount int64) (*Customer, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const customerColumns = `id, owner_id, name, phone, total_orders, is_member, deposit_balance, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Phone,
		&c.TotalOrders,
		&c.IsMember,
		&c.DepositBalance,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]Customer, error) {
	defer rows.Close()
	customers := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *postgresRepository) Create(ctx context.Context, c *Customer) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate customer ID: %w", err)
		}
		c.ID = id
	}
	c.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Phone,
		c.TotalOrders,
		c.IsMember,
		c.DepositBalance,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert customer: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE owner_id = $1 AND id = $2`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by id %s: %w", id, err)
	}
	return c, nil
}

func (r *postgresRepository) Update(ctx context.Context, ownerID, id uuid.UUID, u Update) (*Customer, error) {
	query := `
		UPDATE customers
		SET name = $1, phone = $2, is_member = $3, deposit_balance = $4
		WHERE owner_id = $5 AND id = $6
		RETURNING ` + customerColumns
	c, err := scanCustomer(r.db.QueryRow(ctx, query, u.Name, u.Phone, u.IsMember, u.DepositBalance, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("repository: failed to update customer")
		return nil, fmt.Errorf("repository: failed to update customer %s: %w", id, err)
	}
	return c, nil
}

func (r *postgresRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete customer %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user input into a LIKE pattern matching it as a
// literal substring. An empty input matches everything.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *postgresRepository) List(ctx context.Context, ownerID uuid.UUID, search string) ([]Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE owner_id = $1
		  AND (name ILIKE $2 ESCAPE '\' OR phone LIKE $2 ESCAPE '\')
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, ownerID, containsPattern(search))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customers: %w", err)
	}
	customers, err := collectCustomers(rows)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan customers: %w", err)
	}
	return customers, nil
}

func (r *postgresRepository) LookupByPhone(ctx context.Context, ownerID uuid.UUID, phone string, limit int) ([]Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE owner_id = $1 AND phone LIKE $2 ESCAPE '\'
		ORDER BY phone
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, ownerID, containsPattern(phone), limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to look up customers by phone: %w", err)
	}
	customers, err := collectCustomers(rows)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan customers: %w", err)
	}
	return customers, nil
}

func (r *postgresRepository) TopUp(ctx context.Context, ownerID, id uuid.UUID, amount int64) (*Customer, error) {
	query := `
		UPDATE customers
		SET deposit_balance = deposit_balance + $1, is_member = TRUE
		WHERE owner_id = $2 AND id = $3
		RETURNING ` + customerColumns
	c, err := scanCustomer(r.db.QueryRow(ctx, query, amount, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Int64("amount", amount).Msg("repository: failed to top up deposit")
		return nil, fmt.Errorf("repository: failed to top up customer %s: %w", id, err)
	}
	return c, nil
}
