package httpx

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-catalog-api/internal/auth"
	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

var errMalformedJSON = errors.New("malformed json")

type detail struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// writeError translates the error taxonomy into a response. Unknown errors
// are logged and answered with a bare 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := catalog.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, ve.Fields)
		return
	}
	switch {
	case errors.Is(err, errMalformedJSON):
		writeJSON(w, http.StatusBadRequest, detail{Detail: "JSON parse error."})
	case errors.Is(err, catalog.ErrInvalidPage):
		writeJSON(w, http.StatusNotFound, detail{Detail: "Invalid page."})
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detail{Detail: "Not found."})
	case errors.Is(err, catalog.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		writeJSON(w, http.StatusUnauthorized, detail{Detail: "Authentication credentials were not provided."})
	case errors.Is(err, auth.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		writeJSON(w, http.StatusUnauthorized, detail{Detail: "Given token not valid for any token type", Code: "token_not_valid"})
	case errors.Is(err, auth.ErrBadCredentials):
		writeJSON(w, http.StatusUnauthorized, detail{Detail: auth.ErrBadCredentials.Error()})
	case errors.Is(err, catalog.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, detail{Detail: "You do not have permission to perform this action."})
	case errors.Is(err, catalog.ErrConflict):
		writeJSON(w, http.StatusConflict, detail{Detail: "Resource already exists."})
	default:
		h.Log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, detail{Detail: "A server error occurred."})
	}
}
