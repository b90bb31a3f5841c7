// Package memory provides in-memory catalog implementations used by
// tests, examples and CSV-loaded CLI runs.
package memory

import (
	"context"
	"fmt"

	"github.com/fabworks/fabplan/pkg/plan"
)

// ProductRepository provides in-memory product catalog storage.
type ProductRepository struct {
	products    []plan.Product
	productsMap map[string]int
}

// NewProductRepository creates a new in-memory product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		productsMap: make(map[string]int),
	}
}

// Verify interface compliance
var _ plan.ProductCatalog = (*ProductRepository)(nil)

// AddProduct adds a product to the repository, replacing any existing
// entry with the same id.
func (r *ProductRepository) AddProduct(product plan.Product) {
	if index, exists := r.productsMap[product.ID]; exists {
		r.products[index] = product
		return
	}
	r.productsMap[product.ID] = len(r.products)
	r.products = append(r.products, product)
}

// LoadProducts loads a batch of products into the repository.
func (r *ProductRepository) LoadProducts(products []plan.Product) {
	for _, p := range products {
		r.AddProduct(p)
	}
}

// GetProductByID returns the product with the given id.
func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (*plan.Product, error) {
	index, exists := r.productsMap[id]
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, plan.ErrNotFound)
	}
	return &r.products[index], nil
}

// GetAllProducts returns all products in insertion order.
func (r *ProductRepository) GetAllProducts(ctx context.Context) ([]plan.Product, error) {
	return r.products, nil
}
