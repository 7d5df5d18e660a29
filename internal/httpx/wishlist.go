package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

// Non-staff callers only ever see their own entries, whatever the request
// asks for.
func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	page, err := catalog.ParsePage(r.URL.Query().Get("page"), h.PageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	res, err := h.Store.ListWishlist(ctx, catalog.WishlistOwner(callerFrom(r.Context())), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPage(r, page, res, wishlistView))
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var d catalog.WishlistDraft
	if err := decodeJSON(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := d.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	e, err := h.Store.AddToWishlist(ctx, callerFrom(r.Context()).UserID, *d.ProductID)
	if errors.Is(err, catalog.ErrNotFound) {
		err = catalog.FieldError("product_id", fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, *d.ProductID))
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publishWishlist(ctx, r, catalog.EventWishlistAdded, e)
	writeJSON(w, http.StatusCreated, wishlistView(e))
}

func (h *Handler) getWishlistEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadWishlistEntry(w, r, catalog.ActionRetrieve)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wishlistView(e))
}

func (h *Handler) deleteWishlistEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadWishlistEntry(w, r, catalog.ActionDelete)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := h.Store.DeleteWishlistEntry(ctx, e.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publishWishlist(ctx, r, catalog.EventWishlistRemoved, e)
	w.WriteHeader(http.StatusNoContent)
}

// loadWishlistEntry fetches the entry in the path and writes the error
// response itself when the caller may not see it.
func (h *Handler) loadWishlistEntry(w http.ResponseWriter, r *http.Request, a catalog.Action) (catalog.WishlistEntry, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return catalog.WishlistEntry{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	e, err := h.Store.GetWishlistEntry(ctx, id)
	if err == nil {
		err = catalog.Authorize(callerFrom(r.Context()), catalog.ResourceWishlist, a, e.UserID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return catalog.WishlistEntry{}, false
	}
	return e, true
}

func (h *Handler) publishWishlist(ctx context.Context, r *http.Request, eventType string, e catalog.WishlistEntry) {
	h.publish(ctx, r, catalog.TopicWishlistEvents, eventType, e.Product.ID, catalog.WishlistChangedPayload{
		EntryID:   e.ID,
		ProductID: e.Product.ID,
		UserID:    e.UserID,
	})
}
