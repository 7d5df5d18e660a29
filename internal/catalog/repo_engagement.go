package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const reviewSelect = `SELECT r.id, r.product_id, r.user_id, u.username, r.rating, r.comment, r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id`

func scanReview(row pgx.Row) (Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Username, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (r *Repo) ListReviews(ctx context.Context, productID *int64, page Page) (Paged[Review], error) {
	where, args := "", []any{}
	if productID != nil {
		where, args = ` WHERE r.product_id = $1`, []any{*productID}
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reviews r`+where, args...).Scan(&total); err != nil {
		return Paged[Review]{}, err
	}
	if err := page.Check(total); err != nil {
		return Paged[Review]{}, err
	}

	args = append(args, page.Size, page.Offset())
	limit := ` ORDER BY r.created_at DESC, r.id DESC LIMIT $1 OFFSET $2`
	if productID != nil {
		limit = ` ORDER BY r.created_at DESC, r.id DESC LIMIT $2 OFFSET $3`
	}
	rows, err := r.DB.Query(ctx, reviewSelect+where+limit, args...)
	if err != nil {
		return Paged[Review]{}, err
	}
	defer rows.Close()

	items := []Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return Paged[Review]{}, err
		}
		items = append(items, rv)
	}
	if err := rows.Err(); err != nil {
		return Paged[Review]{}, err
	}
	return Paged[Review]{Items: items, Total: total}, nil
}

func (r *Repo) GetReview(ctx context.Context, id int64) (Review, error) {
	rv, err := scanReview(r.DB.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	return rv, mapErr(err)
}

func (r *Repo) CreateReview(ctx context.Context, rv Review) (Review, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews(product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, rv.ProductID, rv.UserID, rv.Rating, rv.Comment).Scan(&id)
	if err != nil {
		return Review{}, mapErr(err)
	}
	return r.GetReview(ctx, id)
}

func (r *Repo) UpdateReview(ctx context.Context, rv Review) (Review, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE reviews SET rating=$2, comment=$3, updated_at=now()
		WHERE id=$1`, rv.ID, rv.Rating, rv.Comment)
	if err != nil {
		return Review{}, mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return Review{}, ErrNotFound
	}
	return r.GetReview(ctx, rv.ID)
}

func (r *Repo) DeleteReview(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// ---- wishlist ----

const wishlistSelect = `SELECT ` + productColumns + `, w.id, w.user_id, w.added_at
	FROM wishlist_entries w
	JOIN products p ON p.id = w.product_id
	JOIN users u ON u.id = p.owner_id
	LEFT JOIN categories c ON c.id = p.category_id`

func scanWishlist(row pgx.Row) (WishlistEntry, error) {
	var e WishlistEntry
	p, err := scanProduct(row, &e.ID, &e.UserID, &e.AddedAt)
	if err != nil {
		return WishlistEntry{}, err
	}
	e.Product = p
	return e, nil
}

func (r *Repo) ListWishlist(ctx context.Context, userID *int64, page Page) (Paged[WishlistEntry], error) {
	where, args := "", []any{}
	if userID != nil {
		where, args = ` WHERE w.user_id = $1`, []any{*userID}
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM wishlist_entries w`+where, args...).Scan(&total); err != nil {
		return Paged[WishlistEntry]{}, err
	}
	if err := page.Check(total); err != nil {
		return Paged[WishlistEntry]{}, err
	}

	args = append(args, page.Size, page.Offset())
	limit := ` ORDER BY w.added_at DESC, w.id DESC LIMIT $1 OFFSET $2`
	if userID != nil {
		limit = ` ORDER BY w.added_at DESC, w.id DESC LIMIT $2 OFFSET $3`
	}
	rows, err := r.DB.Query(ctx, wishlistSelect+where+limit, args...)
	if err != nil {
		return Paged[WishlistEntry]{}, err
	}
	defer rows.Close()

	items := []WishlistEntry{}
	for rows.Next() {
		e, err := scanWishlist(rows)
		if err != nil {
			return Paged[WishlistEntry]{}, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return Paged[WishlistEntry]{}, err
	}
	return Paged[WishlistEntry]{Items: items, Total: total}, nil
}

func (r *Repo) GetWishlistEntry(ctx context.Context, id int64) (WishlistEntry, error) {
	e, err := scanWishlist(r.DB.QueryRow(ctx, wishlistSelect+` WHERE w.id = $1`, id))
	return e, mapErr(err)
}

// The (user_id, product_id) unique constraint turns a duplicate into
// ErrConflict; nothing is written in that case.
func (r *Repo) AddToWishlist(ctx context.Context, userID, productID int64) (WishlistEntry, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO wishlist_entries(user_id, product_id)
		VALUES ($1, $2)
		RETURNING id`, userID, productID).Scan(&id)
	if err != nil {
		return WishlistEntry{}, mapErr(err)
	}
	return r.GetWishlistEntry(ctx, id)
}

func (r *Repo) DeleteWishlistEntry(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM wishlist_entries WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
