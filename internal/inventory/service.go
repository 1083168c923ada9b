package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
	"github.com/vasiliy-maslov/laundry-service/internal/storage"
)

var (
	ErrNameRequired  = errors.New("item name is required")
	ErrNegativeStock = errors.New("stock cannot be negative")
	ErrPriceRequired = errors.New("sellable item needs a price")
	ErrNegativePrice = errors.New("price cannot be negative")
)

type Service interface {
	Create(ctx context.Context, sess session.Session, input Input, photo io.Reader) (*Item, error)
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, sess session.Session, id uuid.UUID, input Input, photo io.Reader) (*Item, error)
	Delete(ctx context.Context, sess session.Session, id uuid.UUID) error
	List(ctx context.Context, sess session.Session) ([]Item, error)
	ListSellable(ctx context.Context, sess session.Session) ([]Item, error)
}

type service struct {
	repo  Repository
	blobs storage.BlobStore
	now   func() time.Time
}

func NewService(repo Repository, blobs storage.BlobStore) Service {
	return &service{repo: repo, blobs: blobs, now: time.Now}
}

func validateInput(input *Input) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrNameRequired
	}
	if input.Stock < 0 {
		return ErrNegativeStock
	}
	if input.Price != nil && *input.Price < 0 {
		return ErrNegativePrice
	}
	if input.IsSellable && input.Price == nil {
		return ErrPriceRequired
	}
	return nil
}

func (s *service) photoKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("inventory/%s/%d", ownerID, s.now().UnixMilli())
}

func (s *service) Create(ctx context.Context, sess session.Session, input Input, photo io.Reader) (*Item, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	item := &Item{
		OwnerID:    sess.OwnerID,
		Name:       input.Name,
		Stock:      input.Stock,
		IsSellable: input.IsSellable,
	}
	if input.Price != nil {
		item.Price = *input.Price
	}

	if photo != nil {
		url, err := s.blobs.Put(ctx, s.photoKey(sess.OwnerID), photo)
		if err != nil {
			return nil, fmt.Errorf("service: failed to store item photo: %w", err)
		}
		item.PhotoURL = url
	}

	if err := s.repo.Create(ctx, item); err != nil {
		log.Error().Err(err).Stringer("owner_id", sess.OwnerID).Msg("service: failed to create inventory item")
		s.discardPhoto(ctx, item.PhotoURL)
		return nil, fmt.Errorf("service: failed to create inventory item: %w", err)
	}

	log.Info().Stringer("item_id", item.ID).Str("name", item.Name).Msg("service: inventory item created")
	return item, nil
}

func (s *service) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetByID(ctx, sess.OwnerID, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			log.Warn().Stringer("item_id", id).Msg("service: inventory item not found")
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch inventory item: %w", err)
	}
	return item, nil
}

// Update replaces the item fields. A non-nil photo replaces the stored image;
// the old one is removed once the row points at the new URL.
func (s *service) Update(ctx context.Context, sess session.Session, id uuid.UUID, input Input, photo io.Reader) (*Item, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	item, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	oldPhoto := item.PhotoURL

	item.Name = input.Name
	item.Stock = input.Stock
	item.IsSellable = input.IsSellable
	item.Price = 0
	if input.Price != nil {
		item.Price = *input.Price
	}

	if photo != nil {
		url, err := s.blobs.Put(ctx, s.photoKey(sess.OwnerID), photo)
		if err != nil {
			return nil, fmt.Errorf("service: failed to store item photo: %w", err)
		}
		item.PhotoURL = url
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if item.PhotoURL != oldPhoto {
			s.discardPhoto(ctx, item.PhotoURL)
		}
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", id).Msg("service: failed to update inventory item")
		return nil, fmt.Errorf("service: failed to update inventory item: %w", err)
	}

	if item.PhotoURL != oldPhoto {
		s.discardPhoto(ctx, oldPhoto)
	}

	log.Info().Stringer("item_id", id).Msg("service: inventory item updated")
	return item, nil
}

func (s *service) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	item, err := s.Get(ctx, sess, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sess.OwnerID, id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", id).Msg("service: failed to delete inventory item")
		return fmt.Errorf("service: failed to delete inventory item: %w", err)
	}
	s.discardPhoto(ctx, item.PhotoURL)

	log.Info().Stringer("item_id", id).Msg("service: inventory item deleted")
	return nil
}

func (s *service) List(ctx context.Context, sess session.Session) ([]Item, error) {
	items, err := s.repo.List(ctx, sess.OwnerID, false)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list inventory: %w", err)
	}
	return items, nil
}

func (s *service) ListSellable(ctx context.Context, sess session.Session) ([]Item, error) {
	items, err := s.repo.List(ctx, sess.OwnerID, true)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list sellable items: %w", err)
	}
	return items, nil
}

func (s *service) discardPhoto(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("service: failed to delete item photo")
	}
}
