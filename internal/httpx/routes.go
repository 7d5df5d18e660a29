package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

type route struct {
	method  string
	pattern string
	need    catalog.Capability
	limited bool // subject to the auth rate limit
	handle  http.HandlerFunc
}

func requires(res catalog.Resource, a catalog.Action) catalog.Capability {
	c, ok := catalog.Requirement(res, a)
	if !ok {
		panic(fmt.Sprintf("httpx: no access rule for %s %s", res, a))
	}
	return c
}

func (h *Handler) routes() []route {
	const (
		product  = catalog.ResourceProduct
		category = catalog.ResourceCategory
		review   = catalog.ResourceReview
		wishlist = catalog.ResourceWishlist
		user     = catalog.ResourceUser
	)
	return []route{
		{http.MethodGet, "/products/", requires(product, catalog.ActionList), false, h.listProducts},
		{http.MethodPost, "/products/", requires(product, catalog.ActionCreate), false, h.createProduct},
		{http.MethodGet, "/products/categories/", requires(category, catalog.ActionList), false, h.productCategories},
		{http.MethodGet, "/products/low_stock/", requires(product, catalog.ActionList), false, h.lowStock},
		{http.MethodGet, "/products/{id}/", requires(product, catalog.ActionRetrieve), false, h.getProduct},
		{http.MethodPut, "/products/{id}/", requires(product, catalog.ActionUpdate), false, h.replaceProduct},
		{http.MethodPatch, "/products/{id}/", requires(product, catalog.ActionUpdate), false, h.patchProduct},
		{http.MethodDelete, "/products/{id}/", requires(product, catalog.ActionDelete), false, h.deleteProduct},
		{http.MethodGet, "/products/{id}/reviews/", requires(review, catalog.ActionList), false, h.listProductReviews},
		{http.MethodPost, "/products/{id}/reviews/", requires(review, catalog.ActionCreate), false, h.createReview},

		{http.MethodGet, "/reviews/", requires(review, catalog.ActionList), false, h.listReviews},
		{http.MethodGet, "/reviews/{id}/", requires(review, catalog.ActionRetrieve), false, h.getReview},
		{http.MethodPut, "/reviews/{id}/", requires(review, catalog.ActionUpdate), false, h.replaceReview},
		{http.MethodPatch, "/reviews/{id}/", requires(review, catalog.ActionUpdate), false, h.patchReview},
		{http.MethodDelete, "/reviews/{id}/", requires(review, catalog.ActionDelete), false, h.deleteReview},

		{http.MethodGet, "/wishlist/", requires(wishlist, catalog.ActionList), false, h.listWishlist},
		{http.MethodPost, "/wishlist/", requires(wishlist, catalog.ActionCreate), false, h.addToWishlist},
		{http.MethodGet, "/wishlist/{id}/", requires(wishlist, catalog.ActionRetrieve), false, h.getWishlistEntry},
		{http.MethodDelete, "/wishlist/{id}/", requires(wishlist, catalog.ActionDelete), false, h.deleteWishlistEntry},

		{http.MethodGet, "/categories/", requires(category, catalog.ActionList), false, h.listCategories},
		{http.MethodPost, "/categories/", requires(category, catalog.ActionCreate), false, h.createCategory},
		{http.MethodGet, "/categories/{id}/", requires(category, catalog.ActionRetrieve), false, h.getCategory},
		{http.MethodPut, "/categories/{id}/", requires(category, catalog.ActionUpdate), false, h.updateCategory},
		{http.MethodDelete, "/categories/{id}/", requires(category, catalog.ActionDelete), false, h.deleteCategory},

		{http.MethodPost, "/auth/register/", requires(user, catalog.ActionCreate), true, h.register},
		{http.MethodPost, "/auth/token/", catalog.CapPublic, true, h.obtainToken},
		{http.MethodPost, "/auth/token/refresh/", catalog.CapPublic, true, h.refreshToken},
		{http.MethodPost, "/auth/logout/", catalog.CapAuthenticated, true, h.logout},

		{http.MethodGet, "/users/", requires(user, catalog.ActionList), false, h.listUsers},
		{http.MethodGet, "/users/{id}/", requires(user, catalog.ActionRetrieve), false, h.getUser},
		{http.MethodPut, "/users/{id}/", requires(user, catalog.ActionUpdate), false, h.updateUser},
		{http.MethodPatch, "/users/{id}/", requires(user, catalog.ActionUpdate), false, h.updateUser},
	}
}

// Register mounts every catalog route on r behind bearer authentication.
func (h *Handler) Register(r chi.Router) {
	if h.Events == nil {
		h.Events = catalog.NopPublisher{}
	}
	if h.AuthRateLimit > 0 && h.limiter == nil {
		h.limiter = newClientLimiter(h.AuthRateLimit, h.AuthRateBurst)
	}
	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		for _, rt := range h.routes() {
			fn := h.gate(rt.need, rt.handle)
			if rt.limited {
				fn = h.throttle(fn)
			}
			r.Method(rt.method, rt.pattern, fn)
		}
	})
}
