package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	page, err := catalog.ParsePage(r.URL.Query().Get("page"), h.PageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	res, err := h.Store.ListCategories(ctx, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPage(r, page, res, categoryView))
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	c, err := h.Store.GetCategory(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	d, err := decodeCategory(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	c, err := h.Store.CreateCategory(ctx, d.Name)
	if err != nil {
		h.writeError(w, r, categoryConflict(err))
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := decodeCategory(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	c, err := h.Store.UpdateCategory(ctx, catalog.Category{ID: id, Name: d.Name})
	if err != nil {
		h.writeError(w, r, categoryConflict(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := h.Store.DeleteCategory(ctx, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeCategory(r *http.Request) (catalog.CategoryDraft, error) {
	var d catalog.CategoryDraft
	if err := decodeJSON(r, &d); err != nil {
		return d, err
	}
	d.Name = strings.TrimSpace(d.Name)
	return d, d.Validate()
}

func categoryConflict(err error) error {
	if errors.Is(err, catalog.ErrConflict) {
		return catalog.FieldError("name", "category with this name already exists.")
	}
	return err
}
