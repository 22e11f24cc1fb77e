// internal/catalog/catalog.go
//
// Provides product catalog management for the game engine.
//
// Responsibilities:
//   - Load products from a JSON document (file or embedded default).
//   - Validate every product and normalise prices to cents.
//   - Implement game.Catalog (Len/Product) plus lookup by id.
//
// JSON document:
//   An array of {"id", "name", "image", "price"} objects. Price may be a JSON
//   number or string. A missing id defaults to the 1-based position.
//
// Load behavior:
//   1. If a path is given, read the document from that file.
//   2. Otherwise fall back to the embedded assets/products.json.
//
// Constraints:
//   • Names are non-empty, ids are unique, prices are non-negative.
//   • A catalog is immutable once built.

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robalobadob/priceguess/assets"
	"github.com/robalobadob/priceguess/internal/game"
)

var (
	ErrEmpty          = errors.New("catalog: no products")
	ErrInvalidProduct = errors.New("catalog: invalid product")
)

// Catalog is an ordered, immutable product list.
type Catalog struct {
	products []game.Product
}

// New validates products and builds a catalog from them.
func New(products []game.Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, ErrEmpty
	}
	c := &Catalog{products: make([]game.Product, 0, len(products))}
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			p.ID = strconv.Itoa(i + 1)
		}
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("%w: product %q has no name", ErrInvalidProduct, p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("%w: product %q has negative price %s", ErrInvalidProduct, p.ID, p.Price)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidProduct, p.ID)
		}
		p.Price = p.Price.Round(2)
		seen[p.ID] = struct{}{}
		c.products = append(c.products, p)
	}
	return c, nil
}

// Parse decodes a JSON catalog document.
func Parse(data []byte) (*Catalog, error) {
	var products []game.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(products)
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	data, err := assets.ProductsJSON()
	if err != nil {
		return nil, fmt.Errorf("catalog: embedded products: %w", err)
	}
	return Parse(data)
}

// Len reports the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Product returns the i-th product.
func (c *Catalog) Product(i int) game.Product { return c.products[i] }
