package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a decimal that reports decode failures as a field error.
type Price struct{ decimal.Decimal }

func (p *Price) UnmarshalJSON(b []byte) error {
	if err := p.Decimal.UnmarshalJSON(b); err != nil {
		return FieldError("price", "A valid number is required.")
	}
	return nil
}

// ProductDraft is the writable shape of a product. For PATCH the handler
// seeds it from the stored record and decodes the request body on top.
type ProductDraft struct {
	Name          string `json:"name" validate:"required,max=255"`
	Description   string `json:"description"`
	Price         *Price `json:"price"`
	CategoryID    *int64 `json:"category_id"`
	StockQuantity *int   `json:"stock_quantity" validate:"required,min=0,max=2147483647"`
	ImageURL      string `json:"image_url" validate:"omitempty,url,max=200"`
}

func DraftFromProduct(p Product) ProductDraft {
	price := Price{p.Price}
	stock := p.StockQuantity
	d := ProductDraft{
		Name:          p.Name,
		Description:   p.Description,
		Price:         &price,
		StockQuantity: &stock,
		ImageURL:      p.ImageURL,
	}
	if p.Category != nil {
		id := p.Category.ID
		d.CategoryID = &id
	}
	return d
}

func (d ProductDraft) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	verr := check(d, map[string]string{
		"stock_quantity.min": "Stock must be a non-negative integer.",
	})
	if d.Price == nil {
		checkPrice(verr, nil)
	} else {
		checkPrice(verr, &d.Price.Decimal)
	}
	return verr.OrNil()
}

// Apply copies the draft onto p. The category is resolved by the caller.
func (d ProductDraft) Apply(p *Product) {
	p.Name = strings.TrimSpace(d.Name)
	p.Description = d.Description
	if d.Price != nil {
		p.Price = d.Price.Decimal.Round(2)
	}
	if d.StockQuantity != nil {
		p.StockQuantity = *d.StockQuantity
	}
	p.ImageURL = d.ImageURL
}

type CategoryDraft struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (d CategoryDraft) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	return check(d, nil).OrNil()
}

type ReviewDraft struct {
	Rating  *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func DraftFromReview(r Review) ReviewDraft {
	rating := r.Rating
	return ReviewDraft{Rating: &rating, Comment: r.Comment}
}

func (d ReviewDraft) Validate() error {
	const msg = "Rating must be an integer between 1 and 5."
	return check(d, map[string]string{"rating.min": msg, "rating.max": msg}).OrNil()
}

type WishlistDraft struct {
	ProductID *int64 `json:"product_id" validate:"required"`
}

func (d WishlistDraft) Validate() error {
	return check(d, nil).OrNil()
}

type RegisterDraft struct {
	Username string `json:"username" validate:"required,max=150,excludesall= "`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,bytesmax=72"`
}

func (d RegisterDraft) Validate() error {
	return check(d, nil).OrNil()
}

// UserDraft is the self-service profile update. Absent fields are kept.
type UserDraft struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=150,excludesall= "`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,bytesmax=72"`
}

func (d UserDraft) Validate() error {
	return check(d, nil).OrNil()
}

type CredentialsDraft struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (d CredentialsDraft) Validate() error {
	return check(d, nil).OrNil()
}
