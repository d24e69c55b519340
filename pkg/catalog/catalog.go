// Package catalog is the handle through which ingestion and the shell reach
// the product tree. It adds logging and metrics around the tree operations;
// like the tree it is not safe for concurrent use.
package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Sumatoshi-tech/catalog/pkg/observability"
	"github.com/Sumatoshi-tech/catalog/pkg/product"
	"github.com/Sumatoshi-tech/catalog/pkg/rbtree"
)

// Catalog holds products ordered by ID.
type Catalog struct {
	tree    *rbtree.Tree[product.Product]
	metrics *observability.CatalogMetrics
	logger  *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithMetrics records insert and search outcomes on metrics.
func WithMetrics(metrics *observability.CatalogMetrics) Option {
	return func(c *Catalog) {
		c.metrics = metrics
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		tree:   rbtree.New[product.Product](),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Insert adds p. A product whose ID is already present is rejected with an
// error matching rbtree.ErrDuplicateKey and the catalog is unchanged.
func (c *Catalog) Insert(ctx context.Context, p product.Product) error {
	err := c.tree.Insert(p)
	if err != nil {
		if errors.Is(err, rbtree.ErrDuplicateKey) {
			c.metrics.RecordInsert(ctx, observability.ResultDuplicate)
			c.logger.DebugContext(ctx, "duplicate product rejected", "product_id", p.ID)
		}

		return err
	}

	c.metrics.RecordInsert(ctx, observability.ResultOK)

	return nil
}

// Search returns the product with the given ID.
func (c *Catalog) Search(ctx context.Context, id string) (product.Product, bool) {
	p, found := c.tree.Search(id)
	c.metrics.RecordSearch(ctx, found)

	return p, found
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return c.tree.Len()
}

// Verify checks the tree invariants; see rbtree.Tree.Verify.
func (c *Catalog) Verify() error {
	return c.tree.Verify()
}

// Stats summarizes the shape of the underlying tree.
type Stats struct {
	Records     int `json:"records"`
	Height      int `json:"height"`
	BlackHeight int `json:"black_height"`
}

// Stats returns the current record count and tree heights.
func (c *Catalog) Stats() Stats {
	return Stats{
		Records:     c.tree.Len(),
		Height:      c.tree.Height(),
		BlackHeight: c.tree.BlackHeight(),
	}
}
