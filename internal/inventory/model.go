package inventory

import (
	"time"

	"github.com/gofrs/uuid"
)

// Item is a stock entry. Sellable items show up in the goods section of
// order intake and are decremented when sold.
type Item struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OwnerID    uuid.UUID `json:"owner_id" db:"owner_id"`
	Name       string    `json:"name" db:"name"`
	Stock      int       `json:"stock" db:"stock"`
	Price      int64     `json:"price" db:"price"`
	IsSellable bool      `json:"is_sellable" db:"is_sellable"`
	PhotoURL   string    `json:"photo_url" db:"photo_url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Input is the editable part of an Item. Price is nil when the form left it
// blank, which is only allowed for items that are not sellable.
type Input struct {
	Name       string
	Stock      int
	Price      *int64
	IsSellable bool
}
