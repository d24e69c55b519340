// Package product defines the catalog record and its renderings.
package product

import "fmt"

// Product is one catalog entry. All fields are opaque strings; Price keeps
// its normalized textual form (for example "$49.00") and is never parsed.
type Product struct {
	ID       string `json:"product_id" yaml:"product_id"`
	Name     string `json:"name"       yaml:"name"`
	Category string `json:"category"   yaml:"category"`
	Price    string `json:"price"      yaml:"price"`
}

// New creates a product from its four fields.
func New(id, name, category, price string) Product {
	return Product{ID: id, Name: name, Category: category, Price: price}
}

// Key returns the product ID, which orders products in the catalog.
func (p Product) Key() string {
	return p.ID
}

// String renders the product on one line.
func (p Product) String() string {
	return fmt.Sprintf("Product ID: %s, Name: %s, Category: %s, Price: %s", p.ID, p.Name, p.Category, p.Price)
}
