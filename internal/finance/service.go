// Package finance records expenses and manual incomes and builds the daily
// summary and period reports. Day and month boundaries are taken in the
// shop's time zone.
package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrNoteRequired  = errors.New("note is required")
	ErrInvalidPeriod = errors.New("invalid report period")
	ErrInvalidRange  = errors.New("range end must be after its start")
)

// tillMethods count toward the day's income. Deposit money was already
// counted at top-up time.
var tillMethods = []string{
	pricing.PaymentCash.String(),
	pricing.PaymentQRIS.String(),
	pricing.PaymentTransfer.String(),
}

var monthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

type ExpenseInput struct {
	Amount   int64     `json:"amount" validate:"required,gt=0"`
	Note     string    `json:"note" validate:"required"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
}

type IncomeInput struct {
	Amount int64     `json:"amount" validate:"required,gt=0"`
	Note   string    `json:"note" validate:"required"`
	Date   time.Time `json:"date"`
}

type Service interface {
	CreateExpense(ctx context.Context, sess session.Session, in ExpenseInput) (*Expense, error)
	ListExpenses(ctx context.Context, sess session.Session, from, to time.Time) ([]Expense, error)
	DeleteExpense(ctx context.Context, sess session.Session, id uuid.UUID) error
	CreateIncome(ctx context.Context, sess session.Session, in IncomeInput) (*Income, error)
	ListIncomes(ctx context.Context, sess session.Session, from, to time.Time) ([]Income, error)
	DeleteIncome(ctx context.Context, sess session.Session, id uuid.UUID) error
	Daily(ctx context.Context, sess session.Session) (*DailySummary, error)
	// Period builds the report of one month, or of the whole year when month is 0.
	Period(ctx context.Context, sess session.Session, year, month int) (*Report, error)
	Location() *time.Location
}

type service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo Repository, loc *time.Location) Service {
	return NewServiceWithClock(repo, loc, time.Now)
}

func NewServiceWithClock(repo Repository, loc *time.Location, now func() time.Time) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc, now: now}
}

func (s *service) Location() *time.Location {
	return s.loc
}

func (s *service) CreateExpense(ctx context.Context, sess session.Session, in ExpenseInput) (*Expense, error) {
	note := strings.TrimSpace(in.Note)
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if note == "" {
		return nil, ErrNoteRequired
	}
	e := &Expense{
		OwnerID:  sess.OwnerID,
		Amount:   in.Amount,
		Note:     note,
		Category: strings.TrimSpace(in.Category),
		Date:     in.Date,
	}
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		log.Error().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to create expense")
		return nil, fmt.Errorf("service: failed to create expense: %w", err)
	}
	log.Info().Stringer("expense_id", e.ID).Int64("amount", e.Amount).Msg("service: expense recorded")
	return e, nil
}

func (s *service) ListExpenses(ctx context.Context, sess session.Session, from, to time.Time) ([]Expense, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	expenses, err := s.repo.ListExpenses(ctx, sess.OwnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (s *service) DeleteExpense(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := s.repo.DeleteExpense(ctx, sess.OwnerID, id); err != nil {
		if errors.Is(err, ErrExpenseNotFound) {
			log.Warn().Stringer("expense_id", id).Msg("service: expense not found for deletion")
			return ErrExpenseNotFound
		}
		return fmt.Errorf("service: failed to delete expense: %w", err)
	}
	return nil
}

func (s *service) CreateIncome(ctx context.Context, sess session.Session, in IncomeInput) (*Income, error) {
	note := strings.TrimSpace(in.Note)
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if note == "" {
		return nil, ErrNoteRequired
	}
	income := &Income{
		OwnerID: sess.OwnerID,
		Amount:  in.Amount,
		Note:    note,
		Date:    in.Date,
	}
	if income.Date.IsZero() {
		income.Date = s.now()
	}
	if err := s.repo.CreateIncome(ctx, income); err != nil {
		log.Error().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to create income")
		return nil, fmt.Errorf("service: failed to create income: %w", err)
	}
	log.Info().Stringer("income_id", income.ID).Int64("amount", income.Amount).Msg("service: income recorded")
	return income, nil
}

func (s *service) ListIncomes(ctx context.Context, sess session.Session, from, to time.Time) ([]Income, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	incomes, err := s.repo.ListIncomes(ctx, sess.OwnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list incomes: %w", err)
	}
	return incomes, nil
}

func (s *service) DeleteIncome(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := s.repo.DeleteIncome(ctx, sess.OwnerID, id); err != nil {
		if errors.Is(err, ErrIncomeNotFound) {
			log.Warn().Stringer("income_id", id).Msg("service: income not found for deletion")
			return ErrIncomeNotFound
		}
		return fmt.Errorf("service: failed to delete income: %w", err)
	}
	return nil
}

func (s *service) Daily(ctx context.Context, sess session.Session) (*DailySummary, error) {
	from, to := DayRange(s.now(), s.loc)

	orders, err := s.repo.SumOrders(ctx, sess.OwnerID, from, to, tillMethods)
	if err != nil {
		return nil, fmt.Errorf("service: failed to sum today's orders: %w", err)
	}
	manual, err := s.repo.SumIncomes(ctx, sess.OwnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service: failed to sum today's incomes: %w", err)
	}
	expense, err := s.repo.SumExpenses(ctx, sess.OwnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service: failed to sum today's expenses: %w", err)
	}

	income := orders + manual
	return &DailySummary{
		Date:    from.Format("2006-01-02"),
		Income:  income,
		Expense: expense,
		Balance: income - expense,
	}, nil
}

func (s *service) Period(ctx context.Context, sess session.Session, year, month int) (*Report, error) {
	from, to, err := PeriodRange(year, month, s.loc)
	if err != nil {
		return nil, err
	}

	incomeRows, err := s.repo.IncomeRows(ctx, sess.OwnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load income rows: %w", err)
	}
	expenseRows, err := s.repo.ExpenseRows(ctx, sess.OwnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load expense rows: %w", err)
	}

	yearFrom, yearTo, _ := PeriodRange(year, 0, s.loc)
	monthly, err := s.repo.MonthlyIncome(ctx, sess.OwnerID, yearFrom, yearTo, s.loc.String())
	if err != nil {
		return nil, fmt.Errorf("service: failed to aggregate monthly income: %w", err)
	}

	r := &Report{
		Year:        year,
		Month:       month,
		Period:      PeriodLabel(year, month),
		IncomeRows:  incomeRows,
		ExpenseRows: expenseRows,
	}
	for i := range r.IncomeRows {
		r.IncomeRows[i].No = i + 1
		r.IncomeRows[i].Date = r.IncomeRows[i].Date.In(s.loc)
		r.Income += r.IncomeRows[i].Total
	}
	for i := range r.ExpenseRows {
		r.ExpenseRows[i].No = i + 1
		r.ExpenseRows[i].Date = r.ExpenseRows[i].Date.In(s.loc)
		r.Expense += r.ExpenseRows[i].Amount
	}
	r.Profit = r.Income - r.Expense
	for m, total := range monthly {
		if m >= 1 && m <= 12 {
			r.Monthly[m-1] = total
		}
	}

	log.Debug().Stringer("owner_id", sess.OwnerID).Str("period", r.Period).Int64("profit", r.Profit).Msg("service: report built")
	return r, nil
}

// DayRange returns the calendar day containing t in loc as [from, to).
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// PeriodRange returns [from, to) for a month of year, or the whole year when
// month is 0.
func PeriodRange(year, month int, loc *time.Location) (time.Time, time.Time, error) {
	if year < 1 || year > 9999 || month < 0 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: year %d month %d", ErrInvalidPeriod, year, month)
	}
	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(1, 0, 0), nil
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0), nil
}

// PeriodLabel is "Mei 2024", or "Semua Bulan 2024" for a whole year.
func PeriodLabel(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("Semua Bulan %d", year)
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}
