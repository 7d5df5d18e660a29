package httpx

import (
	"time"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

type productJSON struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Price         string            `json:"price"`
	Category      *catalog.Category `json:"category"`
	StockQuantity int               `json:"stock_quantity"`
	ImageURL      string            `json:"image_url"`
	CreatedAt     time.Time         `json:"created_at"`
	Owner         string            `json:"owner"`
}

func productView(p catalog.Product) productJSON {
	return productJSON{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		Category:      p.Category,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		CreatedAt:     p.CreatedAt,
		Owner:         p.OwnerUsername,
	}
}

type reviewJSON struct {
	ID        int64     `json:"id"`
	Product   int64     `json:"product"`
	User      string    `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func reviewView(r catalog.Review) reviewJSON {
	return reviewJSON{
		ID:        r.ID,
		Product:   r.ProductID,
		User:      r.Username,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type wishlistJSON struct {
	ID      int64       `json:"id"`
	User    int64       `json:"user"`
	Product productJSON `json:"product"`
	AddedAt time.Time   `json:"added_at"`
}

func wishlistView(e catalog.WishlistEntry) wishlistJSON {
	return wishlistJSON{ID: e.ID, User: e.UserID, Product: productView(e.Product), AddedAt: e.AddedAt}
}

// userJSON never carries the password hash.
type userJSON struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsStaff    bool      `json:"is_staff"`
	DateJoined time.Time `json:"date_joined"`
}

func userView(u catalog.User) userJSON {
	return userJSON{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff, DateJoined: u.DateJoined}
}

func categoryView(c catalog.Category) catalog.Category { return c }

func mapViews[T any, R any](items []T, render func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, render(it))
	}
	return out
}
