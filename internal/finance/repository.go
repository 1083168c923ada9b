package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrIncomeNotFound  = errors.New("income not found")
)

type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	ListExpenses(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error
	CreateIncome(ctx context.Context, in *Income) error
	ListIncomes(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Income, error)
	DeleteIncome(ctx context.Context, ownerID, id uuid.UUID) error

	// SumOrders totals the orders created in [from, to) paid with one of methods.
	SumOrders(ctx context.Context, ownerID uuid.UUID, from, to time.Time, methods []string) (int64, error)
	SumIncomes(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error)
	SumExpenses(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error)
	IncomeRows(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]IncomeRow, error)
	ExpenseRows(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]ExpenseRow, error)
	// MonthlyIncome returns paid income per calendar month in tz, keyed 1..12.
	MonthlyIncome(ctx context.Context, ownerID uuid.UUID, from, to time.Time, tz string) (map[int]int64, error)
}

type sqlxRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlxRepository{db: db}
}

func (r *sqlxRepository) CreateExpense(ctx context.Context, e *Expense) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate expense ID: %w", err)
		}
		e.ID = id
	}
	query := `INSERT INTO expenses (id, owner_id, amount, note, category, date)
              VALUES (:id, :owner_id, :amount, :note, :category, :date)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("repository: failed to insert expense: %w", err)
	}
	return nil
}

func (r *sqlxRepository) ListExpenses(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Expense, error) {
	expenses := make([]Expense, 0)
	query := `SELECT id, owner_id, amount, note, category, date FROM expenses
              WHERE owner_id = $1 AND date >= $2 AND date < $3 ORDER BY date DESC`
	if err := r.db.SelectContext(ctx, &expenses, query, ownerID, from, to); err != nil {
		return nil, fmt.Errorf("repository: failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (r *sqlxRepository) DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete expense %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *sqlxRepository) CreateIncome(ctx context.Context, in *Income) error {
	if in.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate income ID: %w", err)
		}
		in.ID = id
	}
	query := `INSERT INTO incomes (id, owner_id, amount, note, date)
              VALUES (:id, :owner_id, :amount, :note, :date)`
	if _, err := r.db.NamedExecContext(ctx, query, in); err != nil {
		return fmt.Errorf("repository: failed to insert income: %w", err)
	}
	return nil
}

func (r *sqlxRepository) ListIncomes(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Income, error) {
	incomes := make([]Income, 0)
	query := `SELECT id, owner_id, amount, note, date FROM incomes
              WHERE owner_id = $1 AND date >= $2 AND date < $3 ORDER BY date DESC`
	if err := r.db.SelectContext(ctx, &incomes, query, ownerID, from, to); err != nil {
		return nil, fmt.Errorf("repository: failed to list incomes: %w", err)
	}
	return incomes, nil
}

func (r *sqlxRepository) DeleteIncome(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete income %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrIncomeNotFound
	}
	return nil
}

func (r *sqlxRepository) SumOrders(ctx context.Context, ownerID uuid.UUID, from, to time.Time, methods []string) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(total), 0)::bigint FROM orders
              WHERE owner_id = $1 AND created_at >= $2 AND created_at < $3 AND payment = ANY($4)`
	if err := r.db.GetContext(ctx, &total, query, ownerID, from, to, methods); err != nil {
		return 0, fmt.Errorf("repository: failed to sum orders: %w", err)
	}
	return total, nil
}

func (r *sqlxRepository) SumIncomes(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount), 0)::bigint FROM incomes
              WHERE owner_id = $1 AND date >= $2 AND date < $3`
	if err := r.db.GetContext(ctx, &total, query, ownerID, from, to); err != nil {
		return 0, fmt.Errorf("repository: failed to sum incomes: %w", err)
	}
	return total, nil
}

func (r *sqlxRepository) SumExpenses(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount), 0)::bigint FROM expenses
              WHERE owner_id = $1 AND date >= $2 AND date < $3`
	if err := r.db.GetContext(ctx, &total, query, ownerID, from, to); err != nil {
		return 0, fmt.Errorf("repository: failed to sum expenses: %w", err)
	}
	return total, nil
}

func (r *sqlxRepository) IncomeRows(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]IncomeRow, error) {
	rows := make([]IncomeRow, 0)
	query := `
		SELECT created_at AS date, order_number, customer_name AS customer, note, total
		FROM orders
		WHERE owner_id = $1 AND created_at >= $2 AND created_at < $3 AND payment <> 'unpaid'
		UNION ALL
		SELECT date, 0 AS order_number, '' AS customer, note, amount AS total
		FROM incomes
		WHERE owner_id = $1 AND date >= $2 AND date < $3
		ORDER BY date`
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, from, to); err != nil {
		return nil, fmt.Errorf("repository: failed to list income rows: %w", err)
	}
	return rows, nil
}

func (r *sqlxRepository) ExpenseRows(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]ExpenseRow, error) {
	rows := make([]ExpenseRow, 0)
	query := `SELECT date, category, note, amount FROM expenses
              WHERE owner_id = $1 AND date >= $2 AND date < $3 ORDER BY date`
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, from, to); err != nil {
		return nil, fmt.Errorf("repository: failed to list expense rows: %w", err)
	}
	return rows, nil
}

type monthTotal struct {
	Month int   `db:"month"`
	Total int64 `db:"total"`
}

func (r *sqlxRepository) MonthlyIncome(ctx context.Context, ownerID uuid.UUID, from, to time.Time, tz string) (map[int]int64, error) {
	var totals []monthTotal
	query := `
		SELECT month, SUM(total)::bigint AS total FROM (
			SELECT EXTRACT(MONTH FROM created_at AT TIME ZONE $4)::int AS month, total
			FROM orders
			WHERE owner_id = $1 AND created_at >= $2 AND created_at < $3 AND payment <> 'unpaid'
			UNION ALL
			SELECT EXTRACT(MONTH FROM date AT TIME ZONE $4)::int AS month, amount AS total
			FROM incomes
			WHERE owner_id = $1 AND date >= $2 AND date < $3
		) paid
		GROUP BY month`
	if err := r.db.SelectContext(ctx, &totals, query, ownerID, from, to, tz); err != nil {
		return nil, fmt.Errorf("repository: failed to aggregate monthly income: %w", err)
	}
	out := make(map[int]int64, len(totals))
	for _, t := range totals {
		out[t.Month] = t.Total
	}
	return out, nil
}
