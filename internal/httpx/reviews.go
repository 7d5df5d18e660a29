package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	h.renderReviews(w, r, nil)
}

func (h *Handler) listProductReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.renderReviews(w, r, &id)
}

func (h *Handler) renderReviews(w http.ResponseWriter, r *http.Request, productID *int64) {
	page, err := catalog.ParsePage(r.URL.Query().Get("page"), h.PageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	if productID != nil {
		if _, err := h.Store.GetProduct(ctx, *productID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	res, err := h.Store.ListReviews(ctx, productID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPage(r, page, res, reviewView))
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if _, err := h.Store.GetProduct(ctx, productID); err != nil {
		h.writeError(w, r, err)
		return
	}
	var d catalog.ReviewDraft
	if err := decodeJSON(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := d.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.Store.CreateReview(ctx, catalog.Review{
		ProductID: productID,
		UserID:    callerFrom(r.Context()).UserID,
		Rating:    *d.Rating,
		Comment:   d.Comment,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publishReview(ctx, r, catalog.EventReviewCreated, created)
	writeJSON(w, http.StatusCreated, reviewView(created))
}

func (h *Handler) getReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	rv, err := h.Store.GetReview(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewView(rv))
}

func (h *Handler) replaceReview(w http.ResponseWriter, r *http.Request) { h.updateReview(w, r, false) }
func (h *Handler) patchReview(w http.ResponseWriter, r *http.Request)   { h.updateReview(w, r, true) }

func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	rv, err := h.Store.GetReview(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := catalog.Authorize(callerFrom(r.Context()), catalog.ResourceReview, catalog.ActionUpdate, rv.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	var d catalog.ReviewDraft
	if partial {
		d = catalog.DraftFromReview(rv)
	}
	if err := decodeJSON(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := d.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	rv.Rating = *d.Rating
	rv.Comment = d.Comment
	updated, err := h.Store.UpdateReview(ctx, rv)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publishReview(ctx, r, catalog.EventReviewUpdated, updated)
	writeJSON(w, http.StatusOK, reviewView(updated))
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	rv, err := h.Store.GetReview(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := catalog.Authorize(callerFrom(r.Context()), catalog.ResourceReview, catalog.ActionDelete, rv.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteReview(ctx, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publishReview(ctx, r, catalog.EventReviewDeleted, rv)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publishReview(ctx context.Context, r *http.Request, eventType string, rv catalog.Review) {
	h.publish(ctx, r, catalog.TopicReviewEvents, eventType, rv.ProductID, catalog.ReviewChangedPayload{
		ReviewID:  rv.ID,
		ProductID: rv.ProductID,
		UserID:    rv.UserID,
		Rating:    rv.Rating,
	})
}
