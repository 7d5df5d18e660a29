package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, err error) map[string][]string {
	t.Helper()
	ve, ok := IsValidation(err)
	require.True(t, ok, "want validation error, got %v", err)
	return ve.Fields
}

func TestProductDraftValidate(t *testing.T) {
	var d ProductDraft
	require.NoError(t, json.Unmarshal([]byte(`{"name":" Lamp ","price":"9.99","stock_quantity":0}`), &d))
	require.NoError(t, d.Validate())

	var p Product
	d.Apply(&p)
	assert.Equal(t, "Lamp", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("9.99")))

	cases := map[string]string{
		"price":          `{"name":"x","price":-1,"stock_quantity":1}`,
		"stock_quantity": `{"name":"x","price":1,"stock_quantity":-1}`,
		"name":           `{"name":"   ","price":1,"stock_quantity":1}`,
		"image_url":      `{"name":"x","price":1,"stock_quantity":1,"image_url":"not a url"}`,
	}
	for field, body := range cases {
		var d ProductDraft
		require.NoError(t, json.Unmarshal([]byte(body), &d), field)
		assert.Contains(t, fields(t, d.Validate()), field)
	}

	var tooPrecise ProductDraft
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","price":"1.999","stock_quantity":1}`), &tooPrecise))
	assert.Contains(t, fields(t, tooPrecise.Validate()), "price")

	var overflow ProductDraft
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","price":1,"stock_quantity":3000000000}`), &overflow))
	assert.Equal(t, []string{"Ensure this value is less than or equal to 2147483647."}, fields(t, overflow.Validate())["stock_quantity"])

	var missing ProductDraft
	got := fields(t, missing.Validate())
	assert.Equal(t, []string{"This field is required."}, got["stock_quantity"])
	assert.Contains(t, got, "price")
}

func TestPriceDecodeError(t *testing.T) {
	var d ProductDraft
	err := json.Unmarshal([]byte(`{"price":"ten"}`), &d)
	assert.Contains(t, fields(t, err), "price")
}

func TestDraftFromProductRoundTrip(t *testing.T) {
	p := Product{Name: "Lamp", Price: decimal.RequireFromString("3.50"), StockQuantity: 2, Category: &Category{ID: 4}}
	d := DraftFromProduct(p)
	require.NoError(t, json.Unmarshal([]byte(`{"stock_quantity":8}`), &d))
	require.NoError(t, d.Validate())
	require.NotNil(t, d.CategoryID)
	assert.Equal(t, int64(4), *d.CategoryID)

	d.Apply(&p)
	assert.Equal(t, 8, p.StockQuantity)
	assert.Equal(t, "3.50", p.Price.StringFixed(2))
}

func TestReviewDraftRating(t *testing.T) {
	for _, r := range []int{1, 3, 5} {
		rating := r
		assert.NoError(t, ReviewDraft{Rating: &rating}.Validate())
	}
	for _, r := range []int{0, 6, -2} {
		rating := r
		got := fields(t, ReviewDraft{Rating: &rating}.Validate())
		assert.Equal(t, []string{"Rating must be an integer between 1 and 5."}, got["rating"])
	}
	got := fields(t, ReviewDraft{}.Validate())
	assert.Equal(t, []string{"This field is required."}, got["rating"])
}

func TestRegisterDraft(t *testing.T) {
	assert.NoError(t, RegisterDraft{Username: "alice", Password: "longenough"}.Validate())

	got := fields(t, RegisterDraft{Username: "al ice", Email: "nope", Password: "short"}.Validate())
	assert.Contains(t, got, "username")
	assert.Contains(t, got, "email")
	assert.Contains(t, got, "password")

	assert.NoError(t, RegisterDraft{Username: "alice", Password: strings.Repeat("x", 72)}.Validate())
	for _, pw := range []string{strings.Repeat("x", 73), strings.Repeat("é", 40)} {
		got := fields(t, RegisterDraft{Username: "alice", Password: pw}.Validate())
		assert.Equal(t, []string{"Ensure this field has no more than 72 bytes."}, got["password"])
	}

	long := strings.Repeat("x", 80)
	assert.Contains(t, fields(t, UserDraft{Password: &long}.Validate()), "password")
}
