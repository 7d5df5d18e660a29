package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON fills dst from the body. An empty body leaves dst untouched so
// the caller's validation reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	if _, ok := catalog.IsValidation(err); ok {
		return err
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return catalog.FieldError(te.Field, typeMessage(te.Type))
	}
	return errMalformedJSON
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "A valid integer is required."
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Must be a valid boolean."
	}
	return "Incorrect type."
}

// pathID reads an integer URL parameter; a malformed id cannot match any
// record, so it is reported as not-found.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, catalog.ErrNotFound
	}
	return id, nil
}

type pageJSON struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func renderPage[T any, R any](r *http.Request, page catalog.Page, res catalog.Paged[T], render func(T) R) pageJSON {
	body := pageJSON{Count: res.Total, Results: mapViews(res.Items, render)}
	if page.HasNext(res.Total) {
		u := pageURL(r, page.Number+1)
		body.Next = &u
	}
	if page.Number > 1 {
		u := pageURL(r, page.Number-1)
		body.Previous = &u
	}
	return body
}

// pageURL keeps the current query string and swaps the page number; page 1
// drops the parameter.
func pageURL(r *http.Request, n int) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	q := r.URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
