package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInsufficientDeposit  = errors.New("deposit balance is insufficient")
	ErrInsufficientStock    = errors.New("stock is insufficient")
	ErrConcurrentUpdate     = errors.New("order was changed concurrently")
	ErrNegativeTotal        = errors.New("order total cannot be negative")
	ErrDuplicateOrderNumber = errors.New("order number already taken")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// SaveOptions tunes the side effects of CreateOrder.
type SaveOptions struct {
	AllowOversell bool
}

type Repository interface {
	CreateOrder(ctx context.Context, o *Order, dash *DashboardOrder, opts SaveOptions) error
	GetOrder(ctx context.Context, ownerID, id uuid.UUID) (*Order, error)
	ListByCustomer(ctx context.Context, ownerID, customerID uuid.UUID) ([]Order, error)
	ListHistory(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Order, error)
	ListDashboard(ctx context.Context, ownerID uuid.UUID) ([]DashboardOrder, error)
	ChangeStatus(ctx context.Context, ownerID, id uuid.UUID, status Status, restore *DashboardOrder) error
	ChangePayment(ctx context.Context, ownerID uuid.UUID, change PaymentChange) error
}

// PaymentChange moves an order from one payment method to another.
// Display is the receipt figure under the new method.
type PaymentChange struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	From       PaymentMethod
	To         PaymentMethod
	Total      int64
	Display    int64
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// withTx runs fn in a transaction, committing when fn returns nil and rolling
// back on error or panic.
func (r *postgresRepository) withTx(ctx context.Context, op string, orderID uuid.UUID, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id", orderID).Str("op", op).Msg("Panic recovered in transaction, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id", orderID).Str("op", op).Msg("Transaction failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Stringer("order_id", orderID).Str("op", op).Msg("Failed to commit transaction")
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// CreateOrder stores the order, its lines and its dashboard entry, bumps the
// customer's order count, debits the deposit for deposit payments and takes
// sold goods out of stock. Either all of it happens or none of it does.
func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order, dash *DashboardOrder, opts SaveOptions) error {
	if o.Totals.Grand < 0 {
		return ErrNegativeTotal
	}
	if o.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		o.ID = id
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	dash.ID = o.ID
	dash.OwnerID = o.OwnerID
	dash.CreatedAt = o.CreatedAt

	return r.withTx(ctx, "create_order", o.ID, func(tx pgx.Tx) error {
		discountKind := o.Discount.Kind
		if discountKind == "" {
			discountKind = pricing.DiscountNominal
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, owner_id, order_number, customer_id, customer_name, phone, in_date, out_date,
				discount_kind, discount_value, discount, payment, total, display_total, status, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`,
			o.ID,
			o.OwnerID,
			o.OrderNumber,
			nullUUID(o.CustomerID),
			o.CustomerName,
			o.Phone,
			o.InDate,
			o.OutDate,
			string(discountKind),
			o.Discount.Value,
			o.Totals.Discount,
			string(o.Payment),
			o.Totals.Grand,
			o.Totals.Display,
			string(o.Status),
			o.Note,
			o.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateOrderNumber
			}
			return fmt.Errorf("repository: failed to insert order: %w", err)
		}

		for i, l := range o.ServiceLines {
			_, err = tx.Exec(ctx, `
				INSERT INTO order_service_lines (order_id, position, service, quantity, unit_price, unit, note)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, o.ID, i, l.Service, l.Quantity, l.UnitPrice, string(l.Unit), l.Note)
			if err != nil {
				return fmt.Errorf("repository: failed to insert service line %d for order %s: %w", i, o.ID, err)
			}
		}

		for i, g := range o.GoodsLines {
			_, err = tx.Exec(ctx, `
				INSERT INTO order_goods_lines (order_id, position, item_id, name, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, o.ID, i, g.ItemID, g.Name, g.Quantity, g.UnitPrice)
			if err != nil {
				return fmt.Errorf("repository: failed to insert goods line %d for order %s: %w", i, o.ID, err)
			}
		}

		if err = insertDashboard(ctx, tx, dash); err != nil {
			return err
		}

		if o.CustomerID != uuid.Nil {
			var debit int64
			if o.Payment == pricing.PaymentDeposit {
				debit = o.Totals.Grand
			}
			cmdTag, err := tx.Exec(ctx, `
				UPDATE customers
				SET total_orders = total_orders + 1, deposit_balance = deposit_balance - $1
				WHERE owner_id = $2 AND id = $3 AND deposit_balance >= $1
			`, debit, o.OwnerID, o.CustomerID)
			if err != nil {
				return fmt.Errorf("repository: failed to update customer %s: %w", o.CustomerID, err)
			}
			if cmdTag.RowsAffected() == 0 {
				if debit == 0 {
					return customer.ErrCustomerNotFound
				}
				return ErrInsufficientDeposit
			}
		}

		for _, g := range o.GoodsLines {
			cmdTag, err := tx.Exec(ctx, `
				UPDATE inventory_items
				SET stock = stock - $1
				WHERE owner_id = $2 AND id = $3 AND ($4 OR stock >= $1)
			`, g.Quantity, o.OwnerID, g.ItemID, opts.AllowOversell)
			if err != nil {
				return fmt.Errorf("repository: failed to decrement stock of %s: %w", g.ItemID, err)
			}
			if cmdTag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, g.Name)
			}
		}

		return nil
	})
}

func insertDashboard(ctx context.Context, q querier, dash *DashboardOrder) error {
	_, err := q.Exec(ctx, `
		INSERT INTO dashboard_orders (id, owner_id, order_number, name, phone, items, status, payment, deadline, discount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		dash.ID,
		dash.OwnerID,
		dash.OrderNumber,
		dash.Name,
		dash.Phone,
		dash.Items,
		string(dash.Status),
		string(dash.Payment),
		dash.Deadline,
		dash.Discount,
		dash.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert dashboard entry %s: %w", dash.ID, err)
	}
	return nil
}

const orderColumns = `id, owner_id, order_number, customer_id, customer_name, phone, in_date, out_date,
	discount_kind, discount_value, discount, payment, total, display_total, status, note, created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o            Order
		customerID   uuid.NullUUID
		discountKind string
		discountVal  decimal.Decimal
	)
	err := row.Scan(
		&o.ID,
		&o.OwnerID,
		&o.OrderNumber,
		&customerID,
		&o.CustomerName,
		&o.Phone,
		&o.InDate,
		&o.OutDate,
		&discountKind,
		&discountVal,
		&o.Totals.Discount,
		&o.Payment,
		&o.Totals.Grand,
		&o.Totals.Display,
		&o.Status,
		&o.Note,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		o.CustomerID = customerID.UUID
	}
	o.Discount = pricing.Discount{Kind: pricing.DiscountKind(discountKind), Value: discountVal}
	o.ServiceLines = make([]pricing.ServiceLine, 0)
	o.GoodsLines = make([]pricing.GoodsLine, 0)
	return &o, nil
}

func (r *postgresRepository) GetOrder(ctx context.Context, ownerID, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE owner_id = $1 AND id = $2`, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	orders := []*Order{o}
	if err := loadLines(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, ownerID, customerID uuid.UUID) ([]Order, error) {
	return r.listOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE owner_id = $1 AND customer_id = $2
		ORDER BY order_number DESC
	`, ownerID, customerID)
}

// ListHistory returns orders created in [from, to), newest first.
func (r *postgresRepository) ListHistory(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Order, error) {
	return r.listOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE owner_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY order_number DESC
	`, ownerID, from, to)
}

func (r *postgresRepository) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	var ptrs []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ptrs = append(ptrs, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}
	rows.Close()

	if err := loadLines(ctx, r.db, ptrs); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, nil
}

// loadLines fills the service and goods lines of orders with two queries and
// recomputes the derived totals. The persisted grand and display totals win.
func loadLines(ctx context.Context, q querier, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	serviceRows, err := q.Query(ctx, `
		SELECT order_id, service, quantity, unit_price, unit, note
		FROM order_service_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query service lines: %w", err)
	}
	for serviceRows.Next() {
		var (
			orderID uuid.UUID
			l       pricing.ServiceLine
		)
		if err := serviceRows.Scan(&orderID, &l.Service, &l.Quantity, &l.UnitPrice, &l.Unit, &l.Note); err != nil {
			serviceRows.Close()
			return fmt.Errorf("repository: failed to scan service line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.ServiceLines = append(o.ServiceLines, l)
		}
	}
	serviceRows.Close()
	if err := serviceRows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating service lines: %w", err)
	}

	goodsRows, err := q.Query(ctx, `
		SELECT order_id, item_id, name, quantity, unit_price
		FROM order_goods_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query goods lines: %w", err)
	}
	for goodsRows.Next() {
		var (
			orderID uuid.UUID
			g       pricing.GoodsLine
		)
		if err := goodsRows.Scan(&orderID, &g.ItemID, &g.Name, &g.Quantity, &g.UnitPrice); err != nil {
			goodsRows.Close()
			return fmt.Errorf("repository: failed to scan goods line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.GoodsLines = append(o.GoodsLines, g)
		}
	}
	goodsRows.Close()
	if err := goodsRows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating goods lines: %w", err)
	}

	for _, o := range orders {
		stored := o.Totals
		o.Totals = pricing.Compute(o.ServiceLines, o.GoodsLines, o.Discount, o.Payment)
		o.Totals.Discount = stored.Discount
		o.Totals.Grand = stored.Grand
		o.Totals.Display = stored.Display
	}
	return nil
}

func (r *postgresRepository) ListDashboard(ctx context.Context, ownerID uuid.UUID) ([]DashboardOrder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, order_number, name, phone, items, status, payment, deadline, discount, created_at
		FROM dashboard_orders
		WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query dashboard: %w", err)
	}
	defer rows.Close()

	entries := make([]DashboardOrder, 0)
	for rows.Next() {
		var d DashboardOrder
		err := rows.Scan(
			&d.ID,
			&d.OwnerID,
			&d.OrderNumber,
			&d.Name,
			&d.Phone,
			&d.Items,
			&d.Status,
			&d.Payment,
			&d.Deadline,
			&d.Discount,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan dashboard entry: %w", err)
		}
		entries = append(entries, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating dashboard: %w", err)
	}
	return entries, nil
}

// ChangeStatus mirrors status on the order. Picked-up removes the dashboard
// entry; any other status updates it, re-creating it from restore when an
// order is brought back from picked-up.
func (r *postgresRepository) ChangeStatus(ctx context.Context, ownerID, id uuid.UUID, status Status, restore *DashboardOrder) error {
	return r.withTx(ctx, "change_status", id, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE owner_id = $2 AND id = $3`, string(status), ownerID, id)
		if err != nil {
			return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrOrderNotFound
		}

		if status == StatusPickedUp {
			if _, err := tx.Exec(ctx, `DELETE FROM dashboard_orders WHERE owner_id = $1 AND id = $2`, ownerID, id); err != nil {
				return fmt.Errorf("repository: failed to delete dashboard entry %s: %w", id, err)
			}
			return nil
		}

		cmdTag, err = tx.Exec(ctx, `UPDATE dashboard_orders SET status = $1 WHERE owner_id = $2 AND id = $3`, string(status), ownerID, id)
		if err != nil {
			return fmt.Errorf("repository: failed to update dashboard status %s: %w", id, err)
		}
		if cmdTag.RowsAffected() == 0 && restore != nil {
			restore.ID = id
			restore.OwnerID = ownerID
			restore.Status = status
			return insertDashboard(ctx, tx, restore)
		}
		return nil
	})
}

// ChangePayment switches the payment method on both projections. Moving to
// deposit debits the customer's balance under the same guard as order intake;
// moving away from deposit credits it back. The update only applies while
// the order still has change.From.
func (r *postgresRepository) ChangePayment(ctx context.Context, ownerID uuid.UUID, change PaymentChange) error {
	if change.Total < 0 {
		return ErrNegativeTotal
	}
	return r.withTx(ctx, "change_payment", change.OrderID, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE orders SET payment = $1, display_total = $2
			WHERE owner_id = $3 AND id = $4 AND payment = $5
		`, string(change.To), change.Display, ownerID, change.OrderID, string(change.From))
		if err != nil {
			return fmt.Errorf("repository: failed to update order payment %s: %w", change.OrderID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrConcurrentUpdate
		}

		if _, err := tx.Exec(ctx, `UPDATE dashboard_orders SET payment = $1 WHERE owner_id = $2 AND id = $3`,
			string(change.To), ownerID, change.OrderID); err != nil {
			return fmt.Errorf("repository: failed to update dashboard payment %s: %w", change.OrderID, err)
		}

		var delta int64
		switch {
		case change.To == pricing.PaymentDeposit && change.From != pricing.PaymentDeposit:
			delta = -change.Total
		case change.From == pricing.PaymentDeposit && change.To != pricing.PaymentDeposit:
			delta = change.Total
		default:
			return nil
		}

		cmdTag, err = tx.Exec(ctx, `
			UPDATE customers
			SET deposit_balance = deposit_balance + $1
			WHERE owner_id = $2 AND id = $3 AND deposit_balance + $1 >= 0
		`, delta, ownerID, change.CustomerID)
		if err != nil {
			return fmt.Errorf("repository: failed to adjust deposit of %s: %w", change.CustomerID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrInsufficientDeposit
		}
		return nil
	})
}
