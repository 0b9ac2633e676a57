package catalog

import (
	"fmt"

	"github.com/mfenderov/shelf/internal/store"
	"github.com/mfenderov/shelf/pkg/models"
)

// Catalog is an immutable, in-memory product collection. It is safe for
// concurrent readers.
type Catalog struct {
	products   []models.Product
	byID       map[string]int
	categories []string
}

// New builds a catalog over a copy of products.
func New(products []models.Product) *Catalog {
	c := &Catalog{
		products: clone(products),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range c.products {
		// duplicate ids: the first product wins
		if _, ok := c.byID[p.ID]; !ok {
			c.byID[p.ID] = i
		}
	}
	c.categories = Categories(c.products)
	return c
}

// Load reads a catalog file written by the normalize step.
func Load(path string) (*Catalog, error) {
	products, err := store.ReadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return New(products), nil
}

// Query returns the products matching q.
func (c *Catalog) Query(q Query) []models.Product {
	return Apply(c.products, q)
}

// Get looks a product up by ID.
func (c *Catalog) Get(id string) (models.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

// Categories returns the sorted distinct categories in the catalog.
func (c *Catalog) Categories() []string {
	return clone(c.categories)
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// All returns every product in collection order.
func (c *Catalog) All() []models.Product {
	return clone(c.products)
}

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
