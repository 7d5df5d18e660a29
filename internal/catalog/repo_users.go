package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const userSelect = `SELECT id, username, email, password_hash, is_staff, date_joined FROM users`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.DateJoined)
	return u, err
}

func (r *Repo) CreateUser(ctx context.Context, u User) (User, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(username, email, password_hash, is_staff)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date_joined`, u.Username, u.Email, u.PasswordHash, u.IsStaff).Scan(&u.ID, &u.DateJoined)
	if err != nil {
		return User{}, mapErr(err)
	}
	return u, nil
}

func (r *Repo) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, userSelect+` WHERE id=$1`, id))
	return u, mapErr(err)
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, userSelect+` WHERE username=$1`, username))
	return u, mapErr(err)
}

func (r *Repo) ListUsers(ctx context.Context, page Page) (Paged[User], error) {
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return Paged[User]{}, err
	}
	if err := page.Check(total); err != nil {
		return Paged[User]{}, err
	}
	rows, err := r.DB.Query(ctx, userSelect+` ORDER BY id LIMIT $1 OFFSET $2`, page.Size, page.Offset())
	if err != nil {
		return Paged[User]{}, err
	}
	defer rows.Close()

	items := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return Paged[User]{}, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return Paged[User]{}, err
	}
	return Paged[User]{Items: items, Total: total}, nil
}

// is_staff is left untouched; it only changes through the admin CLI.
func (r *Repo) UpdateUser(ctx context.Context, u User) (User, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET username=$2, email=$3, password_hash=$4
		WHERE id=$1`, u.ID, u.Username, u.Email, u.PasswordHash)
	if err != nil {
		return User{}, mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return User{}, ErrNotFound
	}
	return r.GetUser(ctx, u.ID)
}

// SetStaff flips the staff flag of an existing account.
func (r *Repo) SetStaff(ctx context.Context, username string, staff bool) error {
	ct, err := r.DB.Exec(ctx, `UPDATE users SET is_staff=$2 WHERE username=$1`, username, staff)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
