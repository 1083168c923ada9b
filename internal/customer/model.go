package customer

import (
	"time"

	"github.com/gofrs/uuid"
)

type Customer struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OwnerID        uuid.UUID `json:"owner_id" db:"owner_id"`
	Name           string    `json:"name" db:"name"`
	Phone          string    `json:"phone" db:"phone"`
	TotalOrders    int       `json:"total_orders" db:"total_orders"`
	IsMember       bool      `json:"is_member" db:"is_member"`
	DepositBalance int64     `json:"deposit_balance" db:"deposit_balance"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Update carries the editable fields of a customer.
type Update struct {
	Name           string
	Phone          string
	IsMember       bool
	DepositBalance int64
}
