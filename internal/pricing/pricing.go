// Package pricing computes order totals. Everything here is pure: money is
// whole rupiah in int64, quantities are decimals because kilograms may be
// fractional.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// MinimumKg is the smallest weight charged per kilogram.
const MinimumKg = 3

// CashRoundingStep is the increment cash totals are rounded up to.
const CashRoundingStep = 1000

var (
	ErrServiceRequired      = errors.New("service name is required")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrNegativePrice        = errors.New("unit price cannot be negative")
	ErrInvalidUnit          = errors.New("unit must be kg or pcs")
	ErrInvalidDiscount      = errors.New("invalid discount")
	ErrInvalidPayment       = errors.New("invalid payment method")
	ErrInvalidUnitChoice    = errors.New("invalid unit choice")
	ErrNoConfirmationNeeded = errors.New("line does not need a unit confirmation")
)

type Unit string

const (
	UnitKg  Unit = "kg"
	UnitPcs Unit = "pcs"
)

func (u Unit) Valid() bool {
	return u == UnitKg || u == UnitPcs
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentDeposit  PaymentMethod = "deposit"
	PaymentUnpaid   PaymentMethod = "unpaid"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentQRIS, PaymentTransfer, PaymentDeposit, PaymentUnpaid:
		return true
	}
	return false
}

func (p PaymentMethod) String() string {
	return string(p)
}

// Label is the customer-facing name printed on receipts.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentCash:
		return "Cash"
	case PaymentQRIS:
		return "QRIS"
	case PaymentTransfer:
		return "Transfer"
	case PaymentDeposit:
		return "Deposit"
	default:
		return "Belum Bayar"
	}
}

// CashLike reports whether the method counts toward the day's till income.
// Deposit payments were collected at top-up time and are excluded.
func (p PaymentMethod) CashLike() bool {
	return p == PaymentCash || p == PaymentQRIS || p == PaymentTransfer
}

type ServiceLine struct {
	Service   string          `json:"service"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice int64           `json:"unit_price"`
	Unit      Unit            `json:"unit"`
	Note      string          `json:"note,omitempty"`
}

func (l ServiceLine) Subtotal() int64 {
	return l.Quantity.Mul(decimal.NewFromInt(l.UnitPrice)).Round(0).IntPart()
}

func (l ServiceLine) Validate() error {
	if strings.TrimSpace(l.Service) == "" {
		return ErrServiceRequired
	}
	if !l.Quantity.IsPositive() {
		return fmt.Errorf("%w: service %q", ErrInvalidQuantity, l.Service)
	}
	if l.UnitPrice < 0 {
		return fmt.Errorf("%w: service %q", ErrNegativePrice, l.Service)
	}
	if !l.Unit.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidUnit, l.Unit)
	}
	return nil
}

type GoodsLine struct {
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

func (g GoodsLine) Subtotal() int64 {
	return int64(g.Quantity) * g.UnitPrice
}

type DiscountKind string

const (
	DiscountNominal DiscountKind = "nominal"
	DiscountPercent DiscountKind = "percent"
)

type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

func (d Discount) Validate() error {
	switch d.Kind {
	case "", DiscountNominal:
	case DiscountPercent:
		if d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: percent above 100", ErrInvalidDiscount)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDiscount, d.Kind)
	}
	if d.Value.IsNegative() {
		return fmt.Errorf("%w: negative value", ErrInvalidDiscount)
	}
	return nil
}

// Amount is the rupiah discount. A percent discount applies to the service
// subtotal only, never to goods.
func (d Discount) Amount(serviceSubtotal int64) int64 {
	if d.Kind == DiscountPercent {
		return decimal.NewFromInt(serviceSubtotal).Mul(d.Value).Div(decimal.NewFromInt(100)).Round(0).IntPart()
	}
	return d.Value.Round(0).IntPart()
}

// Totals holds every figure derived from an order. Display is the figure
// shown and printed on the receipt: the discounted service subtotal, rounded
// up to CashRoundingStep for cash payments. It excludes goods and so differs
// from Grand, which is what gets persisted as the order total.
type Totals struct {
	Service              int64 `json:"service"`
	Goods                int64 `json:"goods"`
	Discount             int64 `json:"discount"`
	Grand                int64 `json:"grand"`
	ServiceAfterDiscount int64 `json:"service_after_discount"`
	Display              int64 `json:"display"`
}

func Compute(lines []ServiceLine, goods []GoodsLine, discount Discount, method PaymentMethod) Totals {
	var t Totals
	for _, l := range lines {
		t.Service += l.Subtotal()
	}
	for _, g := range goods {
		t.Goods += g.Subtotal()
	}
	t.Discount = discount.Amount(t.Service)
	t.Grand = t.Service + t.Goods - t.Discount

	t.ServiceAfterDiscount = t.Service - t.Discount
	if t.ServiceAfterDiscount < 0 {
		t.ServiceAfterDiscount = 0
	}

	t.Display = t.ServiceAfterDiscount
	if method == PaymentCash {
		t.Display = RoundCash(t.ServiceAfterDiscount)
	}
	return t
}

// Validate rejects a discount larger than the service subtotal it applies
// to; such totals would go negative and credit a deposit instead of
// debiting it.
func (t Totals) Validate() error {
	if t.Discount > t.Service {
		return fmt.Errorf("%w: Rp%d exceeds service subtotal Rp%d", ErrInvalidDiscount, t.Discount, t.Service)
	}
	return nil
}

// RoundCash rounds amount up to the next CashRoundingStep.
func RoundCash(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return (amount + CashRoundingStep - 1) / CashRoundingStep * CashRoundingStep
}

type UnitChoice string

const (
	ChargeAsPieces UnitChoice = "pcs"
	ForceMinimum   UnitChoice = "min_kg"
)

// NeedsUnitConfirmation is true for a kilogram line lighter than MinimumKg.
// The shop decides per line whether to charge it per piece or as MinimumKg.
func NeedsUnitConfirmation(l ServiceLine) bool {
	return l.Unit == UnitKg && l.Quantity.IsPositive() && l.Quantity.LessThan(decimal.NewFromInt(MinimumKg))
}

func ApplyUnitChoice(l ServiceLine, choice UnitChoice) (ServiceLine, error) {
	if !NeedsUnitConfirmation(l) {
		return l, ErrNoConfirmationNeeded
	}
	switch choice {
	case ChargeAsPieces:
		l.Unit = UnitPcs
	case ForceMinimum:
		l.Quantity = decimal.NewFromInt(MinimumKg)
	default:
		return l, fmt.Errorf("%w: %q", ErrInvalidUnitChoice, choice)
	}
	return l, nil
}
