// Package memory holds in-process implementations of the catalog store and
// the refresh-token revocation list. They follow the postgres semantics
// (cascades, uniqueness, ordering) and back the handler tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

type Store struct {
	mu         sync.RWMutex
	nextID     int64
	now        func() time.Time
	users      map[int64]catalog.User
	categories map[int64]catalog.Category
	products   map[int64]catalog.Product // Category holds only the id
	reviews    map[int64]catalog.Review
	wishlist   map[int64]wishRow
}

type wishRow struct {
	id, userID, productID int64
	addedAt               time.Time
}

var _ catalog.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:     1,
		now:        func() time.Time { return time.Now().UTC() },
		users:      map[int64]catalog.User{},
		categories: map[int64]catalog.Category{},
		products:   map[int64]catalog.Product{},
		reviews:    map[int64]catalog.Review{},
		wishlist:   map[int64]wishRow{},
	}
}

// WithClock replaces the timestamp source; used to get stable ordering.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func paginate[T any](items []T, page catalog.Page) (catalog.Paged[T], error) {
	if err := page.Check(len(items)); err != nil {
		return catalog.Paged[T]{}, err
	}
	lo, hi := page.Window(len(items))
	out := make([]T, hi-lo)
	copy(out, items[lo:hi])
	return catalog.Paged[T]{Items: out, Total: len(items)}, nil
}

// ---- users ----

func (s *Store) CreateUser(_ context.Context, u catalog.User) (catalog.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return catalog.User{}, catalog.ErrConflict
		}
	}
	u.ID = s.nextIDLocked()
	u.DateJoined = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (catalog.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return catalog.User{}, catalog.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (catalog.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return catalog.User{}, catalog.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, page catalog.Page) (catalog.Paged[catalog.User], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page)
}

func (s *Store) UpdateUser(_ context.Context, u catalog.User) (catalog.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orig, ok := s.users[u.ID]
	if !ok {
		return catalog.User{}, catalog.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Username == u.Username {
			return catalog.User{}, catalog.ErrConflict
		}
	}
	u.IsStaff = orig.IsStaff
	u.DateJoined = orig.DateJoined
	s.users[u.ID] = u
	return u, nil
}

// SetStaff mirrors catalog.Repo.SetStaff.
func (s *Store) SetStaff(_ context.Context, username string, staff bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.Username == username {
			u.IsStaff = staff
			s.users[id] = u
			return nil
		}
	}
	return catalog.ErrNotFound
}

// ---- categories ----

func (s *Store) sortedCategoriesLocked() []catalog.Category {
	out := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListCategories(_ context.Context, page catalog.Page) (catalog.Paged[catalog.Category], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.sortedCategoriesLocked(), page)
}

func (s *Store) AllCategories(_ context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCategoriesLocked(), nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return catalog.Category{}, catalog.ErrNotFound
	}
	return c, nil
}

func (s *Store) categoryNameTakenLocked(name string, except int64) bool {
	for id, c := range s.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, name string) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryNameTakenLocked(name, 0) {
		return catalog.Category{}, catalog.ErrConflict
	}
	c := catalog.Category{ID: s.nextIDLocked(), Name: name}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return catalog.Category{}, catalog.ErrNotFound
	}
	if s.categoryNameTakenLocked(c.Name, c.ID) {
		return catalog.Category{}, catalog.ErrConflict
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.categories, id)
	for pid, p := range s.products {
		if p.Category != nil && p.Category.ID == id {
			p.Category = nil
			s.products[pid] = p
		}
	}
	return nil
}

// ---- products ----

// hydrateLocked fills the joined columns (category name, owner username).
func (s *Store) hydrateLocked(p catalog.Product) catalog.Product {
	if p.Category != nil {
		if c, ok := s.categories[p.Category.ID]; ok {
			cc := c
			p.Category = &cc
		} else {
			p.Category = nil
		}
	}
	p.OwnerUsername = s.users[p.OwnerID].Username
	return p
}

func (s *Store) allProductsLocked() []catalog.Product {
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, s.hydrateLocked(p))
	}
	return out
}

func (s *Store) ListProducts(_ context.Context, q catalog.ProductQuery) (catalog.Paged[catalog.Product], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []catalog.Product
	for _, p := range s.allProductsLocked() {
		if q.Matches(p) {
			matched = append(matched, p)
		}
	}
	q.Sort(matched)
	return paginate(matched, q.Page)
}

func (s *Store) LowStock(_ context.Context, threshold int) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Product{}
	for _, p := range s.allProductsLocked() {
		if p.StockQuantity <= threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StockQuantity != out[j].StockQuantity {
			return out[i].StockQuantity < out[j].StockQuantity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return s.hydrateLocked(p), nil
}

func (s *Store) checkRefsLocked(p catalog.Product) error {
	if _, ok := s.users[p.OwnerID]; !ok {
		return catalog.ErrNotFound
	}
	if p.Category != nil {
		if _, ok := s.categories[p.Category.ID]; !ok {
			return catalog.ErrNotFound
		}
	}
	return nil
}

func (s *Store) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefsLocked(p); err != nil {
		return catalog.Product{}, err
	}
	p.ID = s.nextIDLocked()
	p.CreatedAt = s.now()
	p.Price = p.Price.Round(2)
	if p.Category != nil {
		p.Category = &catalog.Category{ID: p.Category.ID}
	}
	s.products[p.ID] = p
	return s.hydrateLocked(p), nil
}

func (s *Store) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orig, ok := s.products[p.ID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	p.OwnerID = orig.OwnerID
	p.CreatedAt = orig.CreatedAt
	if err := s.checkRefsLocked(p); err != nil {
		return catalog.Product{}, err
	}
	p.Price = p.Price.Round(2)
	if p.Category != nil {
		p.Category = &catalog.Category{ID: p.Category.ID}
	}
	s.products[p.ID] = p
	return s.hydrateLocked(p), nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.products, id)
	for rid, r := range s.reviews {
		if r.ProductID == id {
			delete(s.reviews, rid)
		}
	}
	for wid, w := range s.wishlist {
		if w.productID == id {
			delete(s.wishlist, wid)
		}
	}
	return nil
}

// ---- reviews ----

func (s *Store) ListReviews(_ context.Context, productID *int64, page catalog.Page) (catalog.Paged[catalog.Review], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Review{}
	for _, r := range s.reviews {
		if productID != nil && r.ProductID != *productID {
			continue
		}
		r.Username = s.users[r.UserID].Username
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page)
}

func (s *Store) GetReview(_ context.Context, id int64) (catalog.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return catalog.Review{}, catalog.ErrNotFound
	}
	r.Username = s.users[r.UserID].Username
	return r, nil
}

func (s *Store) CreateReview(_ context.Context, r catalog.Review) (catalog.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[r.ProductID]; !ok {
		return catalog.Review{}, catalog.ErrNotFound
	}
	if _, ok := s.users[r.UserID]; !ok {
		return catalog.Review{}, catalog.ErrNotFound
	}
	r.ID = s.nextIDLocked()
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	s.reviews[r.ID] = r
	r.Username = s.users[r.UserID].Username
	return r, nil
}

func (s *Store) UpdateReview(_ context.Context, r catalog.Review) (catalog.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orig, ok := s.reviews[r.ID]
	if !ok {
		return catalog.Review{}, catalog.ErrNotFound
	}
	orig.Rating = r.Rating
	orig.Comment = r.Comment
	orig.UpdatedAt = s.now()
	s.reviews[r.ID] = orig
	orig.Username = s.users[orig.UserID].Username
	return orig, nil
}

func (s *Store) DeleteReview(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

// ---- wishlist ----

func (s *Store) entryLocked(w wishRow) catalog.WishlistEntry {
	return catalog.WishlistEntry{
		ID:      w.id,
		UserID:  w.userID,
		Product: s.hydrateLocked(s.products[w.productID]),
		AddedAt: w.addedAt,
	}
}

func (s *Store) ListWishlist(_ context.Context, userID *int64, page catalog.Page) (catalog.Paged[catalog.WishlistEntry], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := []wishRow{}
	for _, w := range s.wishlist {
		if userID != nil && w.userID != *userID {
			continue
		}
		rows = append(rows, w)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].addedAt.Equal(rows[j].addedAt) {
			return rows[i].addedAt.After(rows[j].addedAt)
		}
		return rows[i].id > rows[j].id
	})
	out := make([]catalog.WishlistEntry, 0, len(rows))
	for _, w := range rows {
		out = append(out, s.entryLocked(w))
	}
	return paginate(out, page)
}

func (s *Store) GetWishlistEntry(_ context.Context, id int64) (catalog.WishlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wishlist[id]
	if !ok {
		return catalog.WishlistEntry{}, catalog.ErrNotFound
	}
	return s.entryLocked(w), nil
}

func (s *Store) AddToWishlist(_ context.Context, userID, productID int64) (catalog.WishlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return catalog.WishlistEntry{}, catalog.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return catalog.WishlistEntry{}, catalog.ErrNotFound
	}
	for _, w := range s.wishlist {
		if w.userID == userID && w.productID == productID {
			return catalog.WishlistEntry{}, catalog.ErrConflict
		}
	}
	w := wishRow{id: s.nextIDLocked(), userID: userID, productID: productID, addedAt: s.now()}
	s.wishlist[w.id] = w
	return s.entryLocked(w), nil
}

func (s *Store) DeleteWishlistEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wishlist[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.wishlist, id)
	return nil
}
