package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseProductQuery(r.URL.Query(), h.PageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	res, err := h.Store.ListProducts(ctx, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPage(r, q.Page, res, productView))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	p, err := h.Store.GetProduct(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productView(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var d catalog.ProductDraft
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

	p := catalog.Product{OwnerID: callerFrom(r.Context()).UserID}
	d.Apply(&p)
	if err := h.resolveCategory(ctx, d.CategoryID, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.Store.CreateProduct(ctx, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(ctx, r, catalog.TopicProductEvents, catalog.EventProductCreated, created.ID, catalog.ProductChanged(created))
	writeJSON(w, http.StatusCreated, productView(created))
}

func (h *Handler) replaceProduct(w http.ResponseWriter, r *http.Request) { h.updateProduct(w, r, false) }
func (h *Handler) patchProduct(w http.ResponseWriter, r *http.Request)   { h.updateProduct(w, r, true) }

// updateProduct validates the merged record for PATCH and the request body
// alone for PUT.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	p, err := h.Store.GetProduct(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := catalog.Authorize(callerFrom(r.Context()), catalog.ResourceProduct, catalog.ActionUpdate, p.OwnerID); err != nil {
		h.writeError(w, r, err)
		return
	}

	var d catalog.ProductDraft
	if partial {
		d = catalog.DraftFromProduct(p)
	}
	if err := decodeJSON(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := d.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	d.Apply(&p)
	if err := h.resolveCategory(ctx, d.CategoryID, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.Store.UpdateProduct(ctx, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(ctx, r, catalog.TopicProductEvents, catalog.EventProductUpdated, updated.ID, catalog.ProductChanged(updated))
	writeJSON(w, http.StatusOK, productView(updated))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	p, err := h.Store.GetProduct(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := catalog.Authorize(callerFrom(r.Context()), catalog.ResourceProduct, catalog.ActionDelete, p.OwnerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteProduct(ctx, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(ctx, r, catalog.TopicProductEvents, catalog.EventProductDeleted, id, catalog.ProductChanged(p))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	cs, err := h.Store.AllCategories(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViews(cs, categoryView))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := catalog.ParseThreshold(r.URL.Query().Get("threshold"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	ps, err := h.Store.LowStock(ctx, threshold)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViews(ps, productView))
}

// resolveCategory points p at the category named by id, or clears it.
func (h *Handler) resolveCategory(ctx context.Context, id *int64, p *catalog.Product) error {
	if id == nil {
		p.Category = nil
		return nil
	}
	c, err := h.Store.GetCategory(ctx, *id)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.FieldError("category_id", fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, *id))
	}
	if err != nil {
		return err
	}
	p.Category = &c
	return nil
}

// publish emits a change event keyed by product id. Failures to build the
// envelope are logged and never fail the request.
func (h *Handler) publish(ctx context.Context, r *http.Request, topic, eventType string, productID int64, payload any) {
	env, err := catalog.NewEnvelope(eventType, h.Service, middleware.GetReqID(r.Context()), productID, payload)
	if err != nil {
		h.Log.WithError(err).WithField("event_type", eventType).Warn("build event")
		return
	}
	h.Events.Publish(ctx, topic, catalog.PartitionKey(productID), env)
}
