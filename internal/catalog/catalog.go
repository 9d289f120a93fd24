// Package catalog holds the read-only product snapshot that ingredients are matched
// and costed against.
package catalog

import "strings"

// Product is one purchasable item. CostPerOz is nil when the source left it blank.
type Product struct {
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	PricePerUnit float64  `json:"price_per_unit"`
	CostPerOz    *float64 `json:"cost_per_oz,omitempty"`
	Category     string   `json:"category,omitempty"`
	PackSize     string   `json:"pack_size,omitempty"`
	SKU          string   `json:"sku,omitempty"`
}

// Catalog is an immutable, ordered product list loaded once per batch.
type Catalog struct {
	products []Product
	names    []string
	byName   map[string]int
}

// New builds a catalog from products, skipping entries without a name. On duplicate
// names Lookup returns the first.
func New(products []Product) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(products))}
	for _, p := range products {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		key := strings.ToLower(p.Name)
		if _, dup := c.byName[key]; !dup {
			c.byName[key] = len(c.products)
		}
		c.products = append(c.products, p)
		c.names = append(c.names, p.Name)
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// Names returns the product names in catalog order. The slice is shared; do not modify.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return c.names
}

// At returns the i-th product, in the same order as Names.
func (c *Catalog) At(i int) Product {
	return c.products[i]
}

// Products returns a copy of every product.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Lookup finds a product by exact name, ignoring case and surrounding space.
func (c *Catalog) Lookup(name string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}
