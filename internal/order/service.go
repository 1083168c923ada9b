package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/inventory"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

var (
	ErrCustomerRequired         = errors.New("select a customer first")
	ErrNoServiceLines           = errors.New("order must contain at least one service line")
	ErrUnitConfirmationRequired = errors.New("line below minimum weight needs a unit choice")
	ErrInvalidStatus            = errors.New("invalid order status")
	ErrItemNotSellable          = errors.New("item is not sellable")
	ErrInvalidGoodsQuantity     = errors.New("goods quantity cannot be negative")
	ErrInvalidDateRange         = errors.New("invalid date range")
)

type CustomerReader interface {
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*customer.Customer, error)
}

type ItemReader interface {
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*inventory.Item, error)
}

// NameRecorder remembers service names for autocomplete.
type NameRecorder interface {
	Remember(ctx context.Context, sess session.Session, names []string)
}

type Service interface {
	Quote(ctx context.Context, sess session.Session, input CreateInput) (*Quote, error)
	Create(ctx context.Context, sess session.Session, input CreateInput) (*Order, error)
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*Order, error)
	ListByCustomer(ctx context.Context, sess session.Session, customerID uuid.UUID) ([]Order, error)
	ListHistory(ctx context.Context, sess session.Session, from, to time.Time) ([]Order, error)
	Dashboard(ctx context.Context, sess session.Session, filter, search string) ([]DashboardOrder, error)
	ChangeStatus(ctx context.Context, sess session.Session, id uuid.UUID, status Status) error
	ChangePayment(ctx context.Context, sess session.Session, id uuid.UUID, method PaymentMethod) (*Order, error)
}

type Options struct {
	AllowOversell bool
}

type service struct {
	repo      Repository
	customers CustomerReader
	items     ItemReader
	names     NameRecorder
	opts      Options
	now       func() time.Time
}

func NewService(repo Repository, customers CustomerReader, items ItemReader, names NameRecorder, opts Options) Service {
	return NewServiceWithClock(repo, customers, items, names, opts, time.Now)
}

// NewServiceWithClock is NewService with a custom clock for order numbers,
// timestamps and countdowns.
func NewServiceWithClock(repo Repository, customers CustomerReader, items ItemReader, names NameRecorder, opts Options, now func() time.Time) Service {
	return &service{
		repo:      repo,
		customers: customers,
		items:     items,
		names:     names,
		opts:      opts,
		now:       now,
	}
}

// resolveLines validates the service lines and applies unit choices. Indexes
// of lines that still need a choice are returned in pending.
func resolveLines(inputs []LineInput) (lines []pricing.ServiceLine, pending []int, err error) {
	lines = make([]pricing.ServiceLine, 0, len(inputs))
	for i, in := range inputs {
		l := in.ServiceLine
		l.Service = strings.TrimSpace(l.Service)
		l.Note = strings.TrimSpace(l.Note)
		if l.Unit == "" {
			l.Unit = pricing.UnitKg
		}
		if err := l.Validate(); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if pricing.NeedsUnitConfirmation(l) {
			if in.UnitChoice == "" {
				pending = append(pending, i)
			} else {
				l, err = pricing.ApplyUnitChoice(l, in.UnitChoice)
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
				}
			}
		}
		lines = append(lines, l)
	}
	return lines, pending, nil
}

// resolveGoods prices the sold goods from inventory. Zero quantities are
// dropped and repeated items are merged.
func (s *service) resolveGoods(ctx context.Context, sess session.Session, inputs []GoodsInput) ([]pricing.GoodsLine, error) {
	goods := make([]pricing.GoodsLine, 0, len(inputs))
	index := make(map[uuid.UUID]int, len(inputs))
	for _, in := range inputs {
		if in.Quantity < 0 {
			return nil, ErrInvalidGoodsQuantity
		}
		if in.Quantity == 0 {
			continue
		}
		if i, ok := index[in.ItemID]; ok {
			goods[i].Quantity += in.Quantity
			continue
		}

		item, err := s.items.Get(ctx, sess, in.ItemID)
		if err != nil {
			return nil, err
		}
		if !item.IsSellable {
			return nil, fmt.Errorf("%w: %s", ErrItemNotSellable, item.Name)
		}
		index[in.ItemID] = len(goods)
		goods = append(goods, pricing.GoodsLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Quantity:  in.Quantity,
			UnitPrice: item.Price,
		})
	}
	return goods, nil
}

func (s *service) Quote(ctx context.Context, sess session.Session, input CreateInput) (*Quote, error) {
	if !input.Payment.Valid() {
		input.Payment = pricing.PaymentUnpaid
	}
	if err := input.Discount.Validate(); err != nil {
		return nil, err
	}
	lines, pending, err := resolveLines(input.Lines)
	if err != nil {
		return nil, err
	}
	goods, err := s.resolveGoods(ctx, sess, input.Goods)
	if err != nil {
		return nil, err
	}
	totals := pricing.Compute(lines, goods, input.Discount, input.Payment)
	if err := totals.Validate(); err != nil {
		return nil, err
	}
	return &Quote{
		Lines:   lines,
		Goods:   goods,
		Totals:  totals,
		Pending: pending,
	}, nil
}

func (s *service) Create(ctx context.Context, sess session.Session, input CreateInput) (*Order, error) {
	if !input.Payment.Valid() {
		return nil, fmt.Errorf("%w: %q", pricing.ErrInvalidPayment, input.Payment)
	}
	if err := input.Discount.Validate(); err != nil {
		return nil, err
	}
	if input.CustomerID == uuid.Nil {
		return nil, ErrCustomerRequired
	}
	if len(input.Lines) == 0 {
		log.Warn().Stringer("owner_id", sess.OwnerID).Msg("service: attempt to create order with no service lines")
		return nil, ErrNoServiceLines
	}

	lines, pending, err := resolveLines(input.Lines)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: line %d", ErrUnitConfirmationRequired, pending[0]+1)
	}

	cust, err := s.customers.Get(ctx, sess, input.CustomerID)
	if err != nil {
		return nil, err
	}

	goods, err := s.resolveGoods(ctx, sess, input.Goods)
	if err != nil {
		return nil, err
	}

	totals := pricing.Compute(lines, goods, input.Discount, input.Payment)
	if err := totals.Validate(); err != nil {
		log.Warn().Err(err).Stringer("customer_id", cust.ID).Msg("service: discount larger than service subtotal")
		return nil, err
	}
	if input.Payment == pricing.PaymentDeposit && cust.DepositBalance < totals.Grand {
		log.Warn().Stringer("customer_id", cust.ID).Int64("balance", cust.DepositBalance).Int64("total", totals.Grand).Msg("service: deposit too low for order")
		return nil, ErrInsufficientDeposit
	}

	now := s.now()
	o := &Order{
		OwnerID:      sess.OwnerID,
		OrderNumber:  now.UnixMilli(),
		CustomerID:   cust.ID,
		CustomerName: cust.Name,
		Phone:        cust.Phone,
		InDate:       input.InDate,
		OutDate:      input.OutDate,
		ServiceLines: lines,
		GoodsLines:   goods,
		Discount:     input.Discount,
		Totals:       totals,
		Payment:      input.Payment,
		Status:       StatusInProgress,
		Note:         strings.TrimSpace(input.Note),
		CreatedAt:    now.UTC(),
	}
	dash := dashboardEntry(o)

	if err := s.save(ctx, o, dash); err != nil {
		if errors.Is(err, ErrInsufficientDeposit) || errors.Is(err, ErrInsufficientStock) || errors.Is(err, customer.ErrCustomerNotFound) ||
			errors.Is(err, ErrDuplicateOrderNumber) || errors.Is(err, ErrNegativeTotal) {
			log.Warn().Err(err).Stringer("customer_id", cust.ID).Msg("service: order rejected by guard")
			return nil, err
		}
		log.Error().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	if s.names != nil {
		names := make([]string, 0, len(lines))
		for _, l := range lines {
			names = append(names, l.Service)
		}
		s.names.Remember(ctx, sess, names)
	}

	log.Info().Stringer("order_id", o.ID).Int64("order_number", o.OrderNumber).Int64("total", o.Total()).Msg("service: order created")
	return o, nil
}

// orderNumberAttempts bounds how often save moves to the next millisecond
// when the order number is already taken.
const orderNumberAttempts = 5

func (s *service) save(ctx context.Context, o *Order, dash *DashboardOrder) error {
	opts := SaveOptions{AllowOversell: s.opts.AllowOversell}
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		err = s.repo.CreateOrder(ctx, o, dash, opts)
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			return err
		}
		log.Warn().Int64("order_number", o.OrderNumber).Msg("service: order number taken, trying the next one")
		o.OrderNumber++
		dash.OrderNumber = o.OrderNumber
	}
	return err
}

func dashboardEntry(o *Order) *DashboardOrder {
	return &DashboardOrder{
		ID:          o.ID,
		OwnerID:     o.OwnerID,
		OrderNumber: o.OrderNumber,
		Name:        o.CustomerName,
		Phone:       o.Phone,
		Items:       summarize(o.ServiceLines),
		Status:      o.Status,
		Payment:     o.Payment,
		Deadline:    o.OutDate,
		Discount:    o.Totals.Discount,
		CreatedAt:   o.CreatedAt,
	}
}

func (s *service) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, sess.OwnerID, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

// ListByCustomer is the customer's history, order number descending.
func (s *service) ListByCustomer(ctx context.Context, sess session.Session, customerID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListByCustomer(ctx, sess.OwnerID, customerID)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to fetch customer orders in repository")
		return nil, fmt.Errorf("service: failed to fetch customer orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListHistory(ctx context.Context, sess session.Session, from, to time.Time) ([]Order, error) {
	if !to.After(from) {
		return nil, ErrInvalidDateRange
	}
	orders, err := s.repo.ListHistory(ctx, sess.OwnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch order history: %w", err)
	}
	return orders, nil
}

func (s *service) Dashboard(ctx context.Context, sess session.Session, filter, search string) ([]DashboardOrder, error) {
	entries, err := s.repo.ListDashboard(ctx, sess.OwnerID)
	if err != nil {
		log.Error().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to fetch dashboard")
		return nil, fmt.Errorf("service: failed to fetch dashboard: %w", err)
	}
	entries = FilterDashboard(entries, filter, search)
	SortDashboard(entries)
	AttachCountdowns(entries, s.now())
	return entries, nil
}

// ChangeStatus moves an order between the three dashboard states. Any move is
// allowed; the shop decides. Setting the current status again does nothing.
func (s *service) ChangeStatus(ctx context.Context, sess session.Session, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.Get(ctx, sess, id)
	if err != nil {
		return err
	}
	if current.Status == status {
		log.Info().Stringer("order_id", id).Stringer("status", status).Msg("service: order status is already the same, no update needed")
		return nil
	}

	var restore *DashboardOrder
	if current.Status == StatusPickedUp {
		restore = dashboardEntry(current)
	}

	if err := s.repo.ChangeStatus(ctx, sess.OwnerID, id, status, restore); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", status).Msg("service: failed to update order status in repository")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", id).Stringer("old_status", current.Status).Stringer("new_status", status).Msg("service: order status updated successfully")
	return nil
}

func (s *service) ChangePayment(ctx context.Context, sess session.Session, id uuid.UUID, method PaymentMethod) (*Order, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", pricing.ErrInvalidPayment, method)
	}

	o, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if o.Payment == method {
		return o, nil
	}
	if o.Total() < 0 {
		return nil, ErrNegativeTotal
	}

	if method == pricing.PaymentDeposit {
		if o.CustomerID == uuid.Nil {
			return nil, ErrCustomerRequired
		}
		cust, err := s.customers.Get(ctx, sess, o.CustomerID)
		if err != nil {
			return nil, err
		}
		if cust.DepositBalance < o.Total() {
			return nil, ErrInsufficientDeposit
		}
	}
	if o.Payment == pricing.PaymentDeposit && o.CustomerID == uuid.Nil {
		return nil, ErrCustomerRequired
	}

	display := pricing.Compute(o.ServiceLines, o.GoodsLines, o.Discount, method).Display
	change := PaymentChange{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		From:       o.Payment,
		To:         method,
		Total:      o.Total(),
		Display:    display,
	}
	if err := s.repo.ChangePayment(ctx, sess.OwnerID, change); err != nil {
		if errors.Is(err, ErrInsufficientDeposit) || errors.Is(err, ErrConcurrentUpdate) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Stringer("payment", method).Msg("service: failed to update payment in repository")
		return nil, fmt.Errorf("service: failed to update payment: %w", err)
	}

	log.Info().Stringer("order_id", id).Stringer("old_payment", o.Payment).Stringer("new_payment", method).Msg("service: payment updated")
	o.Payment = method
	o.Totals.Display = display
	return o, nil
}
