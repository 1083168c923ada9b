package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
)

type Status string

const (
	StatusInProgress     Status = "in-progress"
	StatusReadyForPickup Status = "ready-for-pickup"
	StatusPickedUp       Status = "picked-up"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	return s == StatusInProgress || s == StatusReadyForPickup || s == StatusPickedUp
}

// Rank orders statuses on the dashboard. Unknown statuses sort last.
func (s Status) Rank() int {
	switch s {
	case StatusInProgress:
		return 0
	case StatusReadyForPickup:
		return 1
	case StatusPickedUp:
		return 2
	default:
		return 3
	}
}

// Label is the status as the shop sees it.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "Sedang Diproses"
	case StatusReadyForPickup:
		return "Belum Diambil"
	case StatusPickedUp:
		return "Telah Diambil"
	default:
		return string(s)
	}
}

type PaymentMethod = pricing.PaymentMethod

// Order is the historical record of an intake. It outlives the dashboard entry.
type Order struct {
	ID           uuid.UUID             `json:"id" db:"id"`
	OwnerID      uuid.UUID             `json:"owner_id" db:"owner_id"`
	OrderNumber  int64                 `json:"order_number" db:"order_number"`
	CustomerID   uuid.UUID             `json:"customer_id" db:"customer_id"`
	CustomerName string                `json:"customer_name" db:"customer_name"`
	Phone        string                `json:"phone" db:"phone"`
	InDate       *time.Time            `json:"in_date,omitempty" db:"in_date"`
	OutDate      *time.Time            `json:"out_date,omitempty" db:"out_date"`
	ServiceLines []pricing.ServiceLine `json:"service_lines" db:"-"`
	GoodsLines   []pricing.GoodsLine   `json:"goods_lines" db:"-"`
	Discount     pricing.Discount      `json:"discount" db:"-"`
	Totals       pricing.Totals        `json:"totals" db:"-"`
	Payment      PaymentMethod         `json:"payment" db:"payment"`
	Status       Status                `json:"status" db:"status"`
	Note         string                `json:"note,omitempty" db:"note"`
	CreatedAt    time.Time             `json:"created_at" db:"created_at"`
}

// Total is the persisted grand total.
func (o *Order) Total() int64 {
	return o.Totals.Grand
}

// DisplayTotal is the figure printed on the receipt.
func (o *Order) DisplayTotal() int64 {
	return o.Totals.Display
}

// DashboardOrder is the live operational view of an order still in the shop.
type DashboardOrder struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	OwnerID     uuid.UUID     `json:"owner_id" db:"owner_id"`
	OrderNumber int64         `json:"order_number" db:"order_number"`
	Name        string        `json:"name" db:"name"`
	Phone       string        `json:"phone" db:"phone"`
	Items       []string      `json:"items" db:"items"`
	Status      Status        `json:"status" db:"status"`
	Payment     PaymentMethod `json:"payment" db:"payment"`
	Deadline    *time.Time    `json:"deadline,omitempty" db:"deadline"`
	Discount    int64         `json:"discount" db:"discount"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	Countdown   *Countdown    `json:"countdown,omitempty" db:"-"`
}

// LineInput is a service line as entered, with the answer to the
// minimum-weight prompt when one was needed.
type LineInput struct {
	pricing.ServiceLine
	UnitChoice pricing.UnitChoice `json:"unit_choice,omitempty"`
}

type GoodsInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type CreateInput struct {
	CustomerID uuid.UUID
	InDate     *time.Time
	OutDate    *time.Time
	Lines      []LineInput
	Goods      []GoodsInput
	Discount   pricing.Discount
	Payment    PaymentMethod
	Note       string
}

// Quote is the result of pricing an input without saving it.
type Quote struct {
	Lines  []pricing.ServiceLine `json:"lines"`
	Goods  []pricing.GoodsLine   `json:"goods"`
	Totals pricing.Totals        `json:"totals"`
	// Pending lists indexes of kg lines below the minimum that still need a unit choice.
	Pending []int `json:"pending,omitempty"`
}
