package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service categories. Products (retail items) share the catalog with
// treatments so the POS can sell both.
const (
	CategoryService = "service"
	CategoryProduct = "product"
)

// Service is a bookable treatment or a retail product.
type Service struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Category  string          `db:"category" json:"category"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Duration  int             `db:"duration_minutes" json:"duration_minutes"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Room is a treatment room appointments can be assigned to.
type Room struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
