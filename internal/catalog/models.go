package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	Category      *Category // nil when unset or the category was deleted
	StockQuantity int
	ImageURL      string
	CreatedAt     time.Time
	OwnerID       int64
	OwnerUsername string
}

type Review struct {
	ID        int64
	ProductID int64
	UserID    int64
	Username  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WishlistEntry struct {
	ID      int64
	UserID  int64
	Product Product
	AddedAt time.Time
}

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsStaff      bool
	DateJoined   time.Time
}

// Paged is one page of a list query plus the size of the whole result set.
type Paged[T any] struct {
	Items []T
	Total int
}
