package catalog

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const DefaultLowStockThreshold = 5

// Page is a 1-based page request with a fixed size.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// ParsePage reads the `page` query parameter. Anything that is not a
// positive integer, or whose offset would not fit an int, is an invalid page.
func ParsePage(raw string, size int) (Page, error) {
	if size <= 0 {
		size = 20
	}
	if raw == "" {
		return Page{Number: 1, Size: size}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n-1 > math.MaxInt/size {
		return Page{}, ErrInvalidPage
	}
	return Page{Number: n, Size: size}, nil
}

// Check rejects pages past the end of a result set of total rows. The first
// page is always valid, even when empty.
func (p Page) Check(total int) error {
	if p.Number == 1 {
		return nil
	}
	if p.Offset() >= total {
		return ErrInvalidPage
	}
	return nil
}

func (p Page) HasNext(total int) bool { return p.Offset()+p.Size < total }

// Window returns the slice bounds of this page over n sorted items.
func (p Page) Window(n int) (lo, hi int) {
	lo = p.Offset()
	if lo > n {
		lo = n
	}
	hi = lo + p.Size
	if hi > n {
		hi = n
	}
	return lo, hi
}

type Ordering string

const (
	OrderPriceAsc    Ordering = "price"
	OrderPriceDesc   Ordering = "-price"
	OrderCreatedAsc  Ordering = "created_at"
	OrderCreatedDesc Ordering = "-created_at"
)

var orderingSQL = map[Ordering]string{
	OrderPriceAsc:    "p.price ASC",
	OrderPriceDesc:   "p.price DESC",
	OrderCreatedAsc:  "p.created_at ASC",
	OrderCreatedDesc: "p.created_at DESC",
}

// ProductQuery is the full set of list parameters the product endpoint
// understands. Build it with ParseProductQuery.
type ProductQuery struct {
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	Search     []string
	Ordering   []Ordering
	Page       Page
}

// ParseProductQuery validates v against the supported parameters. Field
// problems yield a *ValidationError; a bad page yields ErrInvalidPage.
func ParseProductQuery(v url.Values, pageSize int) (ProductQuery, error) {
	var q ProductQuery
	verr := &ValidationError{}

	if raw := strings.TrimSpace(v.Get("category__id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			verr.Add("category__id", "Enter a number.")
		} else {
			q.CategoryID = &id
		}
	}
	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"min_price", &q.MinPrice}, {"max_price", &q.MaxPrice}} {
		raw := strings.TrimSpace(v.Get(bound.name))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			verr.Add(bound.name, "Enter a number.")
			continue
		}
		*bound.dst = &d
	}
	if raw := strings.TrimSpace(v.Get("in_stock")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("in_stock", "Enter a valid boolean.")
		} else {
			q.InStock = b
		}
	}
	if err := verr.OrNil(); err != nil {
		return ProductQuery{}, err
	}

	q.Search = SearchTerms(v.Get("search"))
	q.Ordering = parseOrdering(v.Get("ordering"))

	page, err := ParsePage(v.Get("page"), pageSize)
	if err != nil {
		return ProductQuery{}, err
	}
	q.Page = page
	return q, nil
}

// SearchTerms splits a search string on whitespace and commas.
func SearchTerms(raw string) []string {
	raw = strings.ReplaceAll(raw, "\x00", "")
	return strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// parseOrdering keeps only allow-listed fields; unknown ones are ignored.
func parseOrdering(raw string) []Ordering {
	var out []Ordering
	for _, f := range strings.Split(raw, ",") {
		o := Ordering(strings.TrimSpace(f))
		if _, ok := orderingSQL[o]; ok {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []Ordering{OrderCreatedDesc}
	}
	return out
}

// Matches reports whether p passes every filter in q.
func (q ProductQuery) Matches(p Product) bool {
	if q.CategoryID != nil && (p.Category == nil || p.Category.ID != *q.CategoryID) {
		return false
	}
	if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	if q.InStock && p.StockQuantity <= 0 {
		return false
	}
	catName := ""
	if p.Category != nil {
		catName = p.Category.Name
	}
	for _, term := range q.Search {
		t := strings.ToLower(term)
		if !strings.Contains(strings.ToLower(p.Name), t) &&
			!strings.Contains(strings.ToLower(p.Description), t) &&
			!strings.Contains(strings.ToLower(catName), t) {
			return false
		}
	}
	return true
}

// Sort orders ps in place following q.Ordering, newest id first on ties.
func (q ProductQuery) Sort(ps []Product) {
	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = []Ordering{OrderCreatedDesc}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		for _, o := range ordering {
			var c int
			switch o {
			case OrderPriceAsc:
				c = a.Price.Cmp(b.Price)
			case OrderPriceDesc:
				c = b.Price.Cmp(a.Price)
			case OrderCreatedAsc:
				c = a.CreatedAt.Compare(b.CreatedAt)
			case OrderCreatedDesc:
				c = b.CreatedAt.Compare(a.CreatedAt)
			}
			if c != 0 {
				return c < 0
			}
		}
		return a.ID > b.ID
	})
}

// Where renders the filters as a SQL WHERE clause over the aliases used by
// the product select (p = products, c = categories) with positional args.
func (q ProductQuery) Where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if q.CategoryID != nil {
		add("p.category_id = $%d", *q.CategoryID)
	}
	if q.MinPrice != nil {
		add("p.price >= $%d", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		add("p.price <= $%d", q.MaxPrice.String())
	}
	if q.InStock {
		conds = append(conds, "p.stock_quantity > 0")
	}
	for _, term := range q.Search {
		args = append(args, "%"+escapeLike(term)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d OR COALESCE(c.name, '') ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (q ProductQuery) OrderBy() string {
	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = []Ordering{OrderCreatedDesc}
	}
	parts := make([]string, 0, len(ordering)+1)
	for _, o := range ordering {
		parts = append(parts, orderingSQL[o])
	}
	parts = append(parts, "p.id DESC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ParseThreshold reads the low-stock threshold; empty means the default.
func ParseThreshold(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLowStockThreshold, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, FieldError("threshold", "threshold must be an integer.")
	}
	return n, nil
}
