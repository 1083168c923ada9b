package finance

import (
	"time"

	"github.com/gofrs/uuid"
)

type Expense struct {
	ID       uuid.UUID `json:"id" db:"id"`
	OwnerID  uuid.UUID `json:"owner_id" db:"owner_id"`
	Amount   int64     `json:"amount" db:"amount"`
	Note     string    `json:"note" db:"note"`
	Category string    `json:"category" db:"category"`
	Date     time.Time `json:"date" db:"date"`
}

// Income is money received outside an order, entered by hand.
type Income struct {
	ID      uuid.UUID `json:"id" db:"id"`
	OwnerID uuid.UUID `json:"owner_id" db:"owner_id"`
	Amount  int64     `json:"amount" db:"amount"`
	Note    string    `json:"note" db:"note"`
	Date    time.Time `json:"date" db:"date"`
}

type DailySummary struct {
	Date    string `json:"date"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Balance int64  `json:"balance"`
}

// IncomeRow is a paid order or a manual income in a period report.
// OrderNumber is zero for manual incomes.
type IncomeRow struct {
	No          int       `json:"no" db:"-"`
	Date        time.Time `json:"date" db:"date"`
	OrderNumber int64     `json:"order_number" db:"order_number"`
	Customer    string    `json:"customer" db:"customer"`
	Note        string    `json:"note" db:"note"`
	Total       int64     `json:"total" db:"total"`
}

type ExpenseRow struct {
	No       int       `json:"no" db:"-"`
	Date     time.Time `json:"date" db:"date"`
	Category string    `json:"category" db:"category"`
	Note     string    `json:"note" db:"note"`
	Amount   int64     `json:"amount" db:"amount"`
}

type Report struct {
	Year        int          `json:"year"`
	Month       int          `json:"month,omitempty"`
	Period      string       `json:"period"`
	Income      int64        `json:"income"`
	Expense     int64        `json:"expense"`
	Profit      int64        `json:"profit"`
	IncomeRows  []IncomeRow  `json:"income_rows"`
	ExpenseRows []ExpenseRow `json:"expense_rows"`
	// Monthly is the paid income of each month of Year, January first.
	Monthly [12]int64 `json:"monthly"`
}
