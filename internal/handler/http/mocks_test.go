package http_test

import (
	"context"
	"io"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/laundry-service/internal/auth"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/finance"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, input auth.SignUpInput) (*auth.SignInResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.SignInResult), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*auth.SignInResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.SignInResult), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, token string) (session.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(session.Session), args.Error(1)
}

func (m *MockAuthService) Profile(ctx context.Context, sess session.Session) (*auth.User, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, sess session.Session, update auth.ProfileUpdate) (*auth.User, error) {
	args := m.Called(ctx, sess, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockAuthService) UploadAvatar(ctx context.Context, sess session.Session, r io.Reader) (*auth.User, error) {
	args := m.Called(ctx, sess, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, sess session.Session, name, phone string) (*customer.Customer, error) {
	args := m.Called(ctx, sess, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, sess session.Session, id uuid.UUID, u customer.Update) (*customer.Customer, error) {
	args := m.Called(ctx, sess, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	args := m.Called(ctx, sess, id)
	return args.Error(0)
}

func (m *MockCustomerService) List(ctx context.Context, sess session.Session, search string) ([]customer.Customer, error) {
	args := m.Called(ctx, sess, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerService) LookupByPhone(ctx context.Context, sess session.Session, phone string) ([]customer.Customer, error) {
	args := m.Called(ctx, sess, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerService) TopUp(ctx context.Context, sess session.Session, id uuid.UUID, amount int64) (*customer.Customer, error) {
	args := m.Called(ctx, sess, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Quote(ctx context.Context, sess session.Session, input order.CreateInput) (*order.Quote, error) {
	args := m.Called(ctx, sess, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Quote), args.Error(1)
}

func (m *MockOrderService) Create(ctx context.Context, sess session.Session, input order.CreateInput) (*order.Order, error) {
	args := m.Called(ctx, sess, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListByCustomer(ctx context.Context, sess session.Session, customerID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, sess, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) ListHistory(ctx context.Context, sess session.Session, from, to time.Time) ([]order.Order, error) {
	args := m.Called(ctx, sess, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) Dashboard(ctx context.Context, sess session.Session, filter, search string) ([]order.DashboardOrder, error) {
	args := m.Called(ctx, sess, filter, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.DashboardOrder), args.Error(1)
}

func (m *MockOrderService) ChangeStatus(ctx context.Context, sess session.Session, id uuid.UUID, status order.Status) error {
	args := m.Called(ctx, sess, id, status)
	return args.Error(0)
}

func (m *MockOrderService) ChangePayment(ctx context.Context, sess session.Session, id uuid.UUID, method order.PaymentMethod) (*order.Order, error) {
	args := m.Called(ctx, sess, id, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockFinanceService struct {
	mock.Mock
}

func (m *MockFinanceService) CreateExpense(ctx context.Context, sess session.Session, in finance.ExpenseInput) (*finance.Expense, error) {
	args := m.Called(ctx, sess, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *MockFinanceService) ListExpenses(ctx context.Context, sess session.Session, from, to time.Time) ([]finance.Expense, error) {
	args := m.Called(ctx, sess, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Expense), args.Error(1)
}

func (m *MockFinanceService) DeleteExpense(ctx context.Context, sess session.Session, id uuid.UUID) error {
	args := m.Called(ctx, sess, id)
	return args.Error(0)
}

func (m *MockFinanceService) CreateIncome(ctx context.Context, sess session.Session, in finance.IncomeInput) (*finance.Income, error) {
	args := m.Called(ctx, sess, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Income), args.Error(1)
}

func (m *MockFinanceService) ListIncomes(ctx context.Context, sess session.Session, from, to time.Time) ([]finance.Income, error) {
	args := m.Called(ctx, sess, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Income), args.Error(1)
}

func (m *MockFinanceService) DeleteIncome(ctx context.Context, sess session.Session, id uuid.UUID) error {
	args := m.Called(ctx, sess, id)
	return args.Error(0)
}

func (m *MockFinanceService) Daily(ctx context.Context, sess session.Session) (*finance.DailySummary, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.DailySummary), args.Error(1)
}

func (m *MockFinanceService) Period(ctx context.Context, sess session.Session, year, month int) (*finance.Report, error) {
	args := m.Called(ctx, sess, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Report), args.Error(1)
}

func (m *MockFinanceService) Location() *time.Location {
	return time.UTC
}
