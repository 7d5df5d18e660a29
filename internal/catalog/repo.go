package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the postgres implementation of Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const productColumns = `p.id, p.name, p.description, p.price, p.stock_quantity, p.image_url, p.created_at,
       p.owner_id, u.username, c.id, c.name`

const productFrom = `
	FROM products p
	JOIN users u ON u.id = p.owner_id
	LEFT JOIN categories c ON c.id = p.category_id`

// mapErr turns driver errors into the package sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func scanProduct(row pgx.Row, extra ...any) (Product, error) {
	var (
		p       Product
		catID   *int64
		catName *string
	)
	dest := append([]any{
		&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.ImageURL, &p.CreatedAt,
		&p.OwnerID, &p.OwnerUsername, &catID, &catName,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Product{}, err
	}
	if catID != nil {
		p.Category = &Category{ID: *catID}
		if catName != nil {
			p.Category.Name = *catName
		}
	}
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---- products ----

func (r *Repo) ListProducts(ctx context.Context, q ProductQuery) (Paged[Product], error) {
	where, args := q.Where()

	var total int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products p
		LEFT JOIN categories c ON c.id = p.category_id`+where, args...).Scan(&total)
	if err != nil {
		return Paged[Product]{}, err
	}
	if err := q.Page.Check(total); err != nil {
		return Paged[Product]{}, err
	}

	args = append(args, q.Page.Size, q.Page.Offset())
	sql := `SELECT ` + productColumns + productFrom + where + q.OrderBy() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return Paged[Product]{}, err
	}
	items, err := collectProducts(rows)
	if err != nil {
		return Paged[Product]{}, err
	}
	return Paged[Product]{Items: items, Total: total}, nil
}

func (r *Repo) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+productFrom+`
		WHERE p.stock_quantity <= $1
		ORDER BY p.stock_quantity ASC, p.id ASC`, threshold)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = $1`, id))
	return p, mapErr(err)
}

func categoryID(p Product) *int64 {
	if p.Category == nil {
		return nil
	}
	id := p.Category.ID
	return &id
}

func (r *Repo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, description, price, category_id, stock_quantity, image_url, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		p.Name, p.Description, p.Price.StringFixed(2), categoryID(p), p.StockQuantity, p.ImageURL, p.OwnerID,
	).Scan(&id)
	if err != nil {
		return Product{}, mapErr(err)
	}
	return r.GetProduct(ctx, id)
}

func (r *Repo) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4, category_id=$5, stock_quantity=$6, image_url=$7
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price.StringFixed(2), categoryID(p), p.StockQuantity, p.ImageURL,
	)
	if err != nil {
		return Product{}, mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return Product{}, ErrNotFound
	}
	return r.GetProduct(ctx, p.ID)
}

// Reviews and wishlist rows go with the product through ON DELETE CASCADE.
func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// ---- categories ----

func (r *Repo) ListCategories(ctx context.Context, page Page) (Paged[Category], error) {
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return Paged[Category]{}, err
	}
	if err := page.Check(total); err != nil {
		return Paged[Category]{}, err
	}
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM categories ORDER BY id LIMIT $1 OFFSET $2`, page.Size, page.Offset())
	if err != nil {
		return Paged[Category]{}, err
	}
	items, err := collectCategories(rows)
	if err != nil {
		return Paged[Category]{}, err
	}
	return Paged[Category]{Items: items, Total: total}, nil
}

func (r *Repo) AllCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func collectCategories(rows pgx.Rows) ([]Category, error) {
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `SELECT id, name FROM categories WHERE id=$1`, id).Scan(&c.ID, &c.Name)
	return c, mapErr(err)
}

func (r *Repo) CreateCategory(ctx context.Context, name string) (Category, error) {
	c := Category{Name: name}
	err := r.DB.QueryRow(ctx, `INSERT INTO categories(name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	if err != nil {
		return Category{}, mapErr(err)
	}
	return c, nil
}

func (r *Repo) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE categories SET name=$2 WHERE id=$1`, c.ID, c.Name)
	if err != nil {
		return Category{}, mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return Category{}, ErrNotFound
	}
	return c, nil
}

// products.category_id is ON DELETE SET NULL, so products survive.
func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
