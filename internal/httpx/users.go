package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

type refreshReq struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var d catalog.RegisterDraft
	if err := decodeJSON(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	u, err := h.Auth.Register(ctx, d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userView(u))
}

func (h *Handler) obtainToken(w http.ResponseWriter, r *http.Request) {
	var d catalog.CredentialsDraft
	if err := decodeJSON(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	pair, err := h.Auth.Login(ctx, d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Refresh == "" {
		h.writeError(w, r, catalog.FieldError("refresh", "This field is required."))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	access, err := h.Auth.Refresh(ctx, req.Refresh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// logout revokes the posted refresh token. Any failure is a plain 400 so
// nothing about the token or the revocation backend leaks.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{Detail: "Invalid refresh token."})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.Refresh); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{Detail: "Invalid refresh token."})
		return
	}
	w.WriteHeader(http.StatusResetContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := catalog.ParsePage(r.URL.Query().Get("page"), h.PageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	res, err := h.Store.ListUsers(ctx, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPage(r, page, res, userView))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r, catalog.ActionRetrieve)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userView(u))
}

// updateUser serves both PUT and PATCH; absent fields are kept either way.
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r, catalog.ActionUpdate)
	if !ok {
		return
	}
	var d catalog.UserDraft
	if err := decodeJSON(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	updated, err := h.Auth.UpdateProfile(ctx, u, d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(updated))
}

// loadUser checks self-or-staff before the lookup, so a non-staff caller
// learns nothing about other accounts.
func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request, a catalog.Action) (catalog.User, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return catalog.User{}, false
	}
	if err := catalog.Authorize(callerFrom(r.Context()), catalog.ResourceUser, a, id); err != nil {
		h.writeError(w, r, err)
		return catalog.User{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	u, err := h.Store.GetUser(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return catalog.User{}, false
	}
	return u, true
}
