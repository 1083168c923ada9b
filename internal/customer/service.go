package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

const lookupLimit = 10

var (
	ErrNameRequired        = errors.New("customer name is required")
	ErrPhoneRequired       = errors.New("customer phone is required")
	ErrNegativeDeposit     = errors.New("deposit balance cannot be negative")
	ErrInvalidTopUpAmount  = errors.New("top-up amount must be greater than zero")
	ErrLookupQueryTooShort = errors.New("phone lookup needs at least one digit")
)

type Service interface {
	Create(ctx context.Context, sess session.Session, name, phone string) (*Customer, error)
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*Customer, error)
	Update(ctx context.Context, sess session.Session, id uuid.UUID, u Update) (*Customer, error)
	Delete(ctx context.Context, sess session.Session, id uuid.UUID) error
	List(ctx context.Context, sess session.Session, search string) ([]Customer, error)
	LookupByPhone(ctx context.Context, sess session.Session, phone string) ([]Customer, error)
	TopUp(ctx context.Context, sess session.Session, id uuid.UUID, amount int64) (*Customer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, sess session.Session, name, phone string) (*Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, ErrNameRequired
	}
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	c := &Customer{
		OwnerID: sess.OwnerID,
		Name:    name,
		Phone:   phone,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		log.Error().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to create customer in repository")
		return nil, fmt.Errorf("service: failed to create customer: %w", err)
	}

	log.Info().Stringer("customer_id", c.ID).Stringer("owner_id", sess.OwnerID).Msg("service: customer created")
	return c, nil
}

func (s *service) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, sess.OwnerID, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			log.Warn().Stringer("customer_id", id).Msg("service: customer not found")
			return nil, ErrCustomerNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to fetch customer")
		return nil, fmt.Errorf("service: failed to fetch customer: %w", err)
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, sess session.Session, id uuid.UUID, u Update) (*Customer, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Phone = strings.TrimSpace(u.Phone)
	if u.Name == "" {
		return nil, ErrNameRequired
	}
	if u.Phone == "" {
		return nil, ErrPhoneRequired
	}
	if u.DepositBalance < 0 {
		return nil, ErrNegativeDeposit
	}

	c, err := s.repo.Update(ctx, sess.OwnerID, id, u)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("service: failed to update customer: %w", err)
	}
	log.Info().Stringer("customer_id", id).Msg("service: customer updated")
	return c, nil
}

func (s *service) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, sess.OwnerID, id); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return ErrCustomerNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to delete customer")
		return fmt.Errorf("service: failed to delete customer: %w", err)
	}
	log.Info().Stringer("customer_id", id).Msg("service: customer deleted")
	return nil
}

func (s *service) List(ctx context.Context, sess session.Session, search string) ([]Customer, error) {
	customers, err := s.repo.List(ctx, sess.OwnerID, strings.TrimSpace(search))
	if err != nil {
		log.Error().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to list customers")
		return nil, fmt.Errorf("service: failed to list customers: %w", err)
	}
	return customers, nil
}

// LookupByPhone backs the phone autocomplete on order intake.
func (s *service) LookupByPhone(ctx context.Context, sess session.Session, phone string) ([]Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrLookupQueryTooShort
	}
	customers, err := s.repo.LookupByPhone(ctx, sess.OwnerID, phone, lookupLimit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up customers: %w", err)
	}
	return customers, nil
}

// TopUp adds amount to the prepaid deposit and makes the customer a member.
func (s *service) TopUp(ctx context.Context, sess session.Session, id uuid.UUID, amount int64) (*Customer, error) {
	if amount <= 0 {
		return nil, ErrInvalidTopUpAmount
	}
	c, err := s.repo.TopUp(ctx, sess.OwnerID, id, amount)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("service: failed to top up deposit: %w", err)
	}
	log.Info().Stringer("customer_id", id).Int64("amount", amount).Int64("balance", c.DepositBalance).Msg("service: deposit topped up")
	return c, nil
}
