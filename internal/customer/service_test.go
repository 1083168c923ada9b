package customer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, ownerID, id uuid.UUID, u customer.Update) (*customer.Customer, error) {
	args := m.Called(ctx, ownerID, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, ownerID uuid.UUID, search string) ([]customer.Customer, error) {
	args := m.Called(ctx, ownerID, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockRepository) LookupByPhone(ctx context.Context, ownerID uuid.UUID, phone string, limit int) ([]customer.Customer, error) {
	args := m.Called(ctx, ownerID, phone, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockRepository) TopUp(ctx context.Context, ownerID, id uuid.UUID, amount int64) (*customer.Customer, error) {
	args := m.Called(ctx, ownerID, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

var testSession = session.Session{OwnerID: uuid.Must(uuid.FromString("6f1c2d0e-8a4b-4c1e-9d7f-2b3a4c5d6e7f"))}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name    string
		cName   string
		phone   string
		repoErr error
		wantErr error
	}{
		{name: "missing_name", cName: " ", phone: "0821", wantErr: customer.ErrNameRequired},
		{name: "missing_phone", cName: "Budi", phone: "", wantErr: customer.ErrPhoneRequired},
		{name: "repository_failure", cName: "Budi", phone: "0821", repoErr: errors.New("db down")},
		{name: "success", cName: " Budi ", phone: "0821"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := customer.NewService(repo)

			if tt.wantErr == nil {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(c *customer.Customer) bool {
					return c.Name == "Budi" && c.OwnerID == testSession.OwnerID && !c.IsMember && c.DepositBalance == 0
				})).Return(tt.repoErr).Once()
			}

			c, err := svc.Create(context.Background(), testSession, tt.cName, tt.phone)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			case tt.repoErr != nil:
				assert.ErrorIs(t, err, tt.repoErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Budi", c.Name)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Update_RejectsNegativeDeposit(t *testing.T) {
	repo := new(MockRepository)
	svc := customer.NewService(repo)

	_, err := svc.Update(context.Background(), testSession, uuid.Must(uuid.NewV4()), customer.Update{
		Name: "Budi", Phone: "0821", DepositBalance: -1,
	})
	assert.ErrorIs(t, err, customer.ErrNegativeDeposit)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Get_NotFound(t *testing.T) {
	repo := new(MockRepository)
	svc := customer.NewService(repo)
	id := uuid.Must(uuid.NewV4())

	repo.On("GetByID", mock.Anything, testSession.OwnerID, id).Return(nil, customer.ErrCustomerNotFound).Once()

	_, err := svc.Get(context.Background(), testSession, id)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
	repo.AssertExpectations(t)
}

func TestService_TopUp(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	t.Run("rejects_non_positive", func(t *testing.T) {
		repo := new(MockRepository)
		svc := customer.NewService(repo)

		for _, amount := range []int64{0, -5000} {
			_, err := svc.TopUp(context.Background(), testSession, id, amount)
			assert.ErrorIs(t, err, customer.ErrInvalidTopUpAmount)
		}
		repo.AssertNotCalled(t, "TopUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("adds_to_balance", func(t *testing.T) {
		repo := new(MockRepository)
		svc := customer.NewService(repo)
		repo.On("TopUp", mock.Anything, testSession.OwnerID, id, int64(50000)).
			Return(&customer.Customer{ID: id, IsMember: true, DepositBalance: 70000}, nil).Once()

		c, err := svc.TopUp(context.Background(), testSession, id, 50000)
		require.NoError(t, err)
		assert.True(t, c.IsMember)
		assert.Equal(t, int64(70000), c.DepositBalance)
		repo.AssertExpectations(t)
	})
}

func TestService_LookupByPhone(t *testing.T) {
	repo := new(MockRepository)
	svc := customer.NewService(repo)

	_, err := svc.LookupByPhone(context.Background(), testSession, "  ")
	assert.ErrorIs(t, err, customer.ErrLookupQueryTooShort)

	want := []customer.Customer{{Name: "Budi", Phone: "082194822418"}}
	repo.On("LookupByPhone", mock.Anything, testSession.OwnerID, "0821", 10).Return(want, nil).Once()

	got, err := svc.LookupByPhone(context.Background(), testSession, "0821")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}
