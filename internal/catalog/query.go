// Package catalog answers browse queries over an immutable product
// collection: substring search, category filter and stable sorting.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/pkg/models"
	"golang.org/x/text/cases"
)

// SortField selects the product attribute a query orders by.
type SortField string

const (
	SortNone     SortField = ""
	SortName     SortField = "name"
	SortCategory SortField = "category"
	SortPrice    SortField = "price"
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

var (
	ErrInvalidSort  = errors.New("invalid sort field")
	ErrInvalidOrder = errors.New("invalid sort order")
)

// Query is the full browse state. It is passed explicitly to Apply; the
// zero value returns the collection unchanged.
type Query struct {
	Search   string    // case-insensitive substring of the name
	Category string    // exact derived category, empty for all
	SortBy   SortField // empty keeps collection order
	Order    Order     // empty means ascending
}

// ParseQuery builds a Query from user-supplied strings, validating the
// sort field and direction.
func ParseQuery(search, category, sortBy, order string) (Query, error) {
	q := Query{
		Search:   strings.TrimSpace(search),
		Category: strings.TrimSpace(category),
		SortBy:   SortField(strings.ToLower(strings.TrimSpace(sortBy))),
		Order:    Order(strings.ToLower(strings.TrimSpace(order))),
	}

	switch q.SortBy {
	case SortNone, SortName, SortCategory, SortPrice:
	default:
		return Query{}, fmt.Errorf("%w: %q (want name, category or price)", ErrInvalidSort, sortBy)
	}

	switch q.Order {
	case "":
		q.Order = Asc
	case Asc, Desc:
	default:
		return Query{}, fmt.Errorf("%w: %q (want asc or desc)", ErrInvalidOrder, order)
	}

	return q, nil
}

// entry caches the derived values a query needs per product.
type entry struct {
	product  models.Product
	category string
	price    float64
}

// Apply filters and sorts products according to q and returns a new
// slice. The input is never modified. Sorting is stable, so products
// with equal keys keep their collection order in both directions.
func Apply(products []models.Product, q Query) []models.Product {
	fold := cases.Fold()
	needle := fold.String(q.Search)

	entries := make([]entry, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(fold.String(p.Name), needle) {
			continue
		}
		category := normalizer.CategoryOf(p)
		if q.Category != "" && category != q.Category {
			continue
		}
		entries = append(entries, entry{
			product:  p,
			category: category,
			price:    ParsePrice(p.FirstPrice()),
		})
	}

	if compare := comparator(q.SortBy); compare != nil {
		if q.Order == Desc {
			asc := compare
			compare = func(a, b entry) int { return -asc(a, b) }
		}
		slices.SortStableFunc(entries, compare)
	}

	result := make([]models.Product, len(entries))
	for i, e := range entries {
		result[i] = e.product
	}
	return result
}

func comparator(field SortField) func(a, b entry) int {
	switch field {
	case SortName:
		return func(a, b entry) int { return cmp.Compare(a.product.Name, b.product.Name) }
	case SortCategory:
		return func(a, b entry) int { return cmp.Compare(a.category, b.category) }
	case SortPrice:
		return func(a, b entry) int { return cmp.Compare(a.price, b.price) }
	default:
		return nil
	}
}

// Categories returns the distinct non-empty derived categories, sorted.
func Categories(products []models.Product) []string {
	seen := make(map[string]bool)
	categories := []string{}
	for _, p := range products {
		category := normalizer.CategoryOf(p)
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}
	slices.Sort(categories)
	return categories
}

var numberPattern = regexp.MustCompile(`^\d[\d,]*(?:\.\d+)?`)

// ParsePrice converts a scraped price literal to a number: leading
// currency symbols and text are stripped, thousands separators removed.
// Missing or unparsable prices are 0.
func ParsePrice(price string) float64 {
	s := strings.TrimLeftFunc(price, func(r rune) bool { return r < '0' || r > '9' })
	if s == "" {
		return 0
	}
	// keep a leading decimal point: "$.99"
	if i := len(price) - len(s); i > 0 && price[i-1] == '.' {
		s = "0." + s
	}

	number := numberPattern.FindString(s)
	if number == "" {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil {
		return 0
	}
	return value
}
