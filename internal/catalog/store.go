package catalog

import "context"

type CategoryStore interface {
	ListCategories(ctx context.Context, page Page) (Paged[Category], error)
	AllCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	// DeleteCategory clears the category of every product that used it.
	DeleteCategory(ctx context.Context, id int64) error
}

type ProductStore interface {
	ListProducts(ctx context.Context, q ProductQuery) (Paged[Product], error)
	LowStock(ctx context.Context, threshold int) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	// UpdateProduct never changes owner or created_at.
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	// DeleteProduct removes the product with its reviews and wishlist entries.
	DeleteProduct(ctx context.Context, id int64) error
}

type ReviewStore interface {
	// ListReviews is scoped to one product when productID is non-nil.
	ListReviews(ctx context.Context, productID *int64, page Page) (Paged[Review], error)
	GetReview(ctx context.Context, id int64) (Review, error)
	CreateReview(ctx context.Context, r Review) (Review, error)
	UpdateReview(ctx context.Context, r Review) (Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

type WishlistStore interface {
	// ListWishlist is scoped to one user when userID is non-nil.
	ListWishlist(ctx context.Context, userID *int64, page Page) (Paged[WishlistEntry], error)
	GetWishlistEntry(ctx context.Context, id int64) (WishlistEntry, error)
	// AddToWishlist returns ErrConflict when the pair already exists.
	AddToWishlist(ctx context.Context, userID, productID int64) (WishlistEntry, error)
	DeleteWishlistEntry(ctx context.Context, id int64) error
}

type UserStore interface {
	// CreateUser returns ErrConflict for a taken username.
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context, page Page) (Paged[User], error)
	UpdateUser(ctx context.Context, u User) (User, error)
}

type Store interface {
	CategoryStore
	ProductStore
	ReviewStore
	WishlistStore
	UserStore
}
