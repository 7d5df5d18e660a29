package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/go-catalog-api/internal/auth"
	"github.com/ariefcatur/go-catalog-api/internal/catalog"
	"github.com/ariefcatur/go-catalog-api/internal/logx"
	"github.com/ariefcatur/go-catalog-api/internal/memory"
	"github.com/ariefcatur/go-catalog-api/internal/metrics"
)

func TestMain(m *testing.M) {
	auth.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type recordedEvent struct {
	topic string
	env   catalog.Envelope
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ []byte, env catalog.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, env: env})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.env.EventType)
	}
	return out
}

type testEnv struct {
	t      *testing.T
	store  *memory.Store
	issuer *auth.Issuer
	events *recordingPublisher
	router http.Handler
}

func newTestEnv(t *testing.T, tweak ...func(*Handler)) *testEnv {
	t.Helper()
	store := memory.New()
	issuer := auth.NewIssuer("test-secret", 5*time.Minute, time.Hour)
	events := &recordingPublisher{}
	h := &Handler{
		Store: store,
		Auth: &auth.Service{
			Users:   store,
			Tokens:  issuer,
			Revoked: memory.NewRevocationList(),
			Log:     logx.Discard(),
		},
		Events:   events,
		Log:      logx.Discard(),
		PageSize: 2,
		Service:  "catalog-test",
	}
	for _, f := range tweak {
		f(h)
	}
	r := NewRouter(logx.Discard(), nil)
	h.Register(r)
	return &testEnv{t: t, store: store, issuer: issuer, events: events, router: r}
}

// user creates an account and returns it with a valid access token.
func (e *testEnv) user(name string, staff bool) (catalog.User, string) {
	e.t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(e.t, err)
	u, err := e.store.CreateUser(context.Background(), catalog.User{Username: name, PasswordHash: hash})
	require.NoError(e.t, err)
	if staff {
		require.NoError(e.t, e.store.SetStaff(context.Background(), name, true))
		u.IsStaff = true
	}
	pair, err := e.issuer.IssuePair(u)
	require.NoError(e.t, err)
	return u, pair.Access
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (e *testEnv) product(token string, body map[string]any) productJSON {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/products/", token, body)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[productJSON](e.t, rec)
}

func productBody(name string, price string, stock int) map[string]any {
	return map[string]any{"name": name, "price": price, "stock_quantity": stock}
}

func TestCreateProduct(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("alice", false)

	p := e.product(token, map[string]any{
		"name": "Lamp", "description": "desk lamp", "price": "10.5", "stock_quantity": 3,
	})
	assert.Equal(t, "10.50", p.Price)
	assert.Equal(t, "alice", p.Owner)
	assert.Nil(t, p.Category)
	assert.Equal(t, []string{catalog.EventProductCreated}, e.events.types())

	rec := e.do(http.MethodPost, "/products/", "", productBody("x", "1", 1))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProductRejectsNegativeValues(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("alice", false)

	rec := e.do(http.MethodPost, "/products/", token, productBody("Lamp", "-0.01", 1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "price")

	rec = e.do(http.MethodPost, "/products/", token, productBody("Lamp", "1.00", -1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"Stock must be a non-negative integer."}, decode[map[string][]string](t, rec)["stock_quantity"])

	rec = e.do(http.MethodPost, "/products/", token, productBody("Lamp", "1.00", 3000000000))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "stock_quantity")

	rec = e.do(http.MethodPost, "/products/", token, map[string]any{"name": "Lamp", "price": "abc", "stock_quantity": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "price")

	rec = e.do(http.MethodPost, "/products/", token, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := decode[page[productJSON]](t, e.do(http.MethodGet, "/products/", "", nil))
	assert.Zero(t, list.Count)
	assert.Empty(t, e.events.types())
}

func TestCreateProductUnknownCategory(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("alice", false)

	body := productBody("Lamp", "1", 1)
	body["category_id"] = 99
	rec := e.do(http.MethodPost, "/products/", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "category_id")
}

func TestUpdateProductPermissions(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	_, bob := e.user("bob", false)
	_, staff := e.user("root", true)
	p := e.product(alice, productBody("Lamp", "10", 4))
	path := fmt.Sprintf("/products/%d/", p.ID)

	rec := e.do(http.MethodPatch, path, bob, map[string]any{"stock_quantity": 0})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = e.do(http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodPatch, path, alice, map[string]any{"stock_quantity": 7})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[productJSON](t, rec)
	assert.Equal(t, "Lamp", got.Name)
	assert.Equal(t, "10.00", got.Price)
	assert.Equal(t, 7, got.StockQuantity)

	rec = e.do(http.MethodPatch, path, staff, map[string]any{"name": "Big lamp"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[productJSON](t, rec).Owner)

	// PUT replaces the whole record, so omitted required fields fail.
	rec = e.do(http.MethodPut, path, alice, map[string]any{"name": "Only name"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode[map[string][]string](t, rec)
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "stock_quantity")

	rec = e.do(http.MethodPatch, path, alice, map[string]any{"price": "-5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewRatingBounds(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	p := e.product(alice, productBody("Lamp", "10", 4))
	path := fmt.Sprintf("/products/%d/reviews/", p.ID)

	for _, rating := range []int{0, 6} {
		rec := e.do(http.MethodPost, path, alice, map[string]any{"rating": rating})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %d", rating)
	}
	for _, rating := range []int{1, 5} {
		rec := e.do(http.MethodPost, path, alice, map[string]any{"rating": rating, "comment": "ok"})
		assert.Equal(t, http.StatusCreated, rec.Code, "rating %d", rating)
	}

	list := decode[page[reviewJSON]](t, e.do(http.MethodGet, path, "", nil))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 5, list.Results[0].Rating, "newest first")

	rec := e.do(http.MethodGet, "/products/999/reviews/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewUpdateOwnerOrStaff(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	_, bob := e.user("bob", false)
	_, staff := e.user("root", true)
	p := e.product(alice, productBody("Lamp", "10", 4))
	rec := e.do(http.MethodPost, fmt.Sprintf("/products/%d/reviews/", p.ID), bob, map[string]any{"rating": 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	rv := decode[reviewJSON](t, rec)
	path := fmt.Sprintf("/reviews/%d/", rv.ID)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPatch, path, alice, map[string]any{"rating": 1}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, path, alice, nil).Code)

	rec = e.do(http.MethodPatch, path, bob, map[string]any{"comment": "better"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[reviewJSON](t, rec)
	assert.Equal(t, 3, got.Rating)
	assert.Equal(t, "better", got.Comment)
	assert.Equal(t, "bob", got.User)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, path, bob, map[string]any{"comment": "x"}).Code)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, staff, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, path, "", nil).Code)
}

func TestWishlistDuplicateConflict(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	p := e.product(alice, productBody("Lamp", "10", 4))

	rec := e.do(http.MethodPost, "/wishlist/", alice, map[string]any{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[wishlistJSON](t, rec)
	assert.Equal(t, p.ID, entry.Product.ID)
	assert.Equal(t, "10.00", entry.Product.Price)

	rec = e.do(http.MethodPost, "/wishlist/", alice, map[string]any{"product_id": p.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	list := decode[page[wishlistJSON]](t, e.do(http.MethodGet, "/wishlist/", alice, nil))
	assert.Equal(t, 1, list.Count)

	rec = e.do(http.MethodPost, "/wishlist/", alice, map[string]any{"product_id": 999})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "product_id")

	rec = e.do(http.MethodPost, "/wishlist/", alice, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "product_id")
}

func TestWishlistScoping(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	_, bob := e.user("bob", false)
	_, staff := e.user("root", true)
	p := e.product(alice, productBody("Lamp", "10", 4))
	rec := e.do(http.MethodPost, "/wishlist/", alice, map[string]any{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[wishlistJSON](t, rec)
	path := fmt.Sprintf("/wishlist/%d/", entry.ID)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/wishlist/", "", nil).Code)

	list := decode[page[wishlistJSON]](t, e.do(http.MethodGet, "/wishlist/?user=1", bob, nil))
	assert.Zero(t, list.Count)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, path, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, path, bob, nil).Code)

	list = decode[page[wishlistJSON]](t, e.do(http.MethodGet, "/wishlist/", staff, nil))
	assert.Equal(t, 1, list.Count)

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, path, alice, nil).Code)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, alice, nil).Code)
	assert.Contains(t, e.events.types(), catalog.EventWishlistRemoved)
}

func TestLowStock(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	e.product(alice, productBody("a", "1", 0))
	e.product(alice, productBody("b", "1", 3))
	e.product(alice, productBody("c", "1", 0))
	e.product(alice, productBody("d", "1", 9))

	rec := e.do(http.MethodGet, "/products/low_stock/?threshold=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "threshold")

	got := decode[[]productJSON](t, e.do(http.MethodGet, "/products/low_stock/?threshold=0", "", nil))
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "c"}, []string{got[0].Name, got[1].Name})
	for _, p := range got {
		assert.Zero(t, p.StockQuantity)
	}

	got = decode[[]productJSON](t, e.do(http.MethodGet, "/products/low_stock/", "", nil))
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[2].Name)
}

func TestCategoryLifecycle(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	_, staff := e.user("root", true)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/categories/", alice, map[string]any{"name": "Home"}).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/categories/", "", map[string]any{"name": "Home"}).Code)

	rec := e.do(http.MethodPost, "/categories/", staff, map[string]any{"name": "Home"})
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decode[catalog.Category](t, rec)

	rec = e.do(http.MethodPost, "/categories/", staff, map[string]any{"name": "Home"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "name")

	body := productBody("Lamp", "10", 4)
	body["category_id"] = cat.ID
	p := e.product(alice, body)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Home", p.Category.Name)

	cats := decode[[]catalog.Category](t, e.do(http.MethodGet, "/products/categories/", "", nil))
	assert.Equal(t, []catalog.Category{{ID: cat.ID, Name: "Home"}}, cats)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, fmt.Sprintf("/categories/%d/", cat.ID), staff, nil).Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/products/%d/", p.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[productJSON](t, rec).Category)
	assert.Contains(t, rec.Body.String(), `"category":null`)
}

func TestProductDeleteCascades(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	_, bob := e.user("bob", false)
	p := e.product(alice, productBody("Lamp", "10", 4))
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, fmt.Sprintf("/products/%d/reviews/", p.ID), bob, map[string]any{"rating": 4}).Code)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/wishlist/", bob, map[string]any{"product_id": p.ID}).Code)

	require.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, fmt.Sprintf("/products/%d/", p.ID), alice, nil).Code)

	assert.Zero(t, decode[page[reviewJSON]](t, e.do(http.MethodGet, "/reviews/", "", nil)).Count)
	assert.Zero(t, decode[page[wishlistJSON]](t, e.do(http.MethodGet, "/wishlist/", bob, nil)).Count)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, fmt.Sprintf("/products/%d/", p.ID), "", nil).Code)
	assert.Contains(t, e.events.types(), catalog.EventProductDeleted)
}

func TestProductListing(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.user("alice", false)
	e.product(alice, map[string]any{"name": "Red chair", "price": "30", "stock_quantity": 1})
	e.product(alice, map[string]any{"name": "Blue table", "description": "oak", "price": "120", "stock_quantity": 0})
	e.product(alice, map[string]any{"name": "Red lamp", "price": "15", "stock_quantity": 2})

	list := decode[page[productJSON]](t, e.do(http.MethodGet, "/products/", "", nil))
	assert.Equal(t, 3, list.Count)
	require.Len(t, list.Results, 2)
	assert.Equal(t, "Red lamp", list.Results[0].Name)
	require.NotNil(t, list.Next)
	assert.Equal(t, "http://example.com/products/?page=2", *list.Next)
	assert.Nil(t, list.Previous)

	list = decode[page[productJSON]](t, e.do(http.MethodGet, "/products/?page=2", "", nil))
	require.Len(t, list.Results, 1)
	assert.Nil(t, list.Next)
	require.NotNil(t, list.Previous)
	assert.Equal(t, "http://example.com/products/", *list.Previous)

	for _, q := range []string{"page=3", "page=abc", "page=0", "page=4611686018427387905", "page=9223372036854775807"} {
		rec := e.do(http.MethodGet, "/products/?"+q, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, q)
		assert.JSONEq(t, `{"detail":"Invalid page."}`, rec.Body.String())
	}

	list = decode[page[productJSON]](t, e.do(http.MethodGet, "/products/?search=red&ordering=price", "", nil))
	require.Equal(t, 2, list.Count)
	assert.Equal(t, []string{"Red lamp", "Red chair"}, []string{list.Results[0].Name, list.Results[1].Name})

	list = decode[page[productJSON]](t, e.do(http.MethodGet, "/products/?in_stock=true&min_price=20", "", nil))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Red chair", list.Results[0].Name)

	list = decode[page[productJSON]](t, e.do(http.MethodGet, "/products/?search=oak", "", nil))
	assert.Equal(t, 1, list.Count)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/products/?category__id=x", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/products/?max_price=cheap", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/products/?in_stock=maybe", "", nil).Code)
}

func TestRegistration(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodPost, "/auth/register/", "", map[string]any{
		"username": "carol", "email": "carol@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "s3cret-pass")
	assert.NotContains(t, rec.Body.String(), "password")

	stored, err := e.store.GetUserByUsername(context.Background(), "carol")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "s3cret-pass"))

	rec = e.do(http.MethodPost, "/auth/register/", "", map[string]any{"username": "carol", "password": "another-pass"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "username")

	rec = e.do(http.MethodPost, "/auth/register/", "", map[string]any{"username": "dave", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "password")

	rec = e.do(http.MethodPost, "/auth/register/", "", map[string]any{"username": "erin", "password": strings.Repeat("x", 80)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"Ensure this field has no more than 72 bytes."}, decode[map[string][]string](t, rec)["password"])
}

func TestTokenLifecycle(t *testing.T) {
	e := newTestEnv(t)
	e.user("alice", false)

	rec := e.do(http.MethodPost, "/auth/token/", "", map[string]any{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodPost, "/auth/token/", "", map[string]any{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decode[auth.Pair](t, rec)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	rec = e.do(http.MethodPost, "/auth/token/refresh/", "", map[string]any{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["access"])

	// an access token is not a refresh token
	rec = e.do(http.MethodPost, "/auth/token/refresh/", "", map[string]any{"refresh": pair.Access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/auth/logout/", "", map[string]any{"refresh": pair.Refresh}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/auth/logout/", pair.Access, map[string]any{"refresh": "garbage"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/auth/logout/", pair.Access, nil).Code)

	rec = e.do(http.MethodPost, "/auth/logout/", pair.Access, map[string]any{"refresh": pair.Refresh})
	require.Equal(t, http.StatusResetContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = e.do(http.MethodPost, "/auth/token/refresh/", "", map[string]any{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a revoked refresh token is no longer a valid credential
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/auth/logout/", pair.Access, map[string]any{"refresh": pair.Refresh}).Code)
}

func TestInvalidBearerToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodGet, "/products/", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_not_valid", decode[map[string]string](t, rec)["code"])
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestUsersEndpoints(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceToken := e.user("alice", false)
	bob, _ := e.user("bob", false)
	_, staff := e.user("root", true)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/users/", aliceToken, nil).Code)
	list := decode[page[userJSON]](t, e.do(http.MethodGet, "/users/", staff, nil))
	assert.Equal(t, 3, list.Count)

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, fmt.Sprintf("/users/%d/", alice.ID), aliceToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, fmt.Sprintf("/users/%d/", bob.ID), aliceToken, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, fmt.Sprintf("/users/%d/", bob.ID), staff, nil).Code)

	rec := e.do(http.MethodPatch, fmt.Sprintf("/users/%d/", alice.ID), aliceToken, map[string]any{"email": "a@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[userJSON](t, rec)
	assert.Equal(t, "a@example.com", got.Email)
	assert.False(t, got.IsStaff)

	rec = e.do(http.MethodPatch, fmt.Sprintf("/users/%d/", alice.ID), aliceToken, map[string]any{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthThrottle(t *testing.T) {
	e := newTestEnv(t, func(h *Handler) {
		h.AuthRateLimit = 0.001
		h.AuthRateBurst = 1
	})
	creds := map[string]any{"username": "nobody", "password": "whatever1"}

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/auth/token/", "", creds).Code)
	rec := e.do(http.MethodPost, "/auth/token/", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// non-auth routes are not throttled
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/products/", "", nil).Code)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouterServesMetrics(t *testing.T) {
	m := metrics.New("catalog")
	r := NewRouter(logx.Discard(), m)
	h := &Handler{Store: memory.New(), Log: logx.Discard(), PageSize: 20}
	h.Register(r)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/products/"`)
}
