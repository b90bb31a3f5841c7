package plan

import (
	"context"
	"errors"
)

// ErrNotFound is returned by catalog lookups when the id has no entry.
// The resolver treats it as "absent, skip this reference" while any
// other error is a collaborator failure that drops the whole request.
var ErrNotFound = errors.New("not found")

// ProductCatalog looks up manufactured products.
type ProductCatalog interface {
	GetProductByID(ctx context.Context, id string) (*Product, error)
}

// MaterialCatalog looks up raw materials.
type MaterialCatalog interface {
	GetMaterialByID(ctx context.Context, id string) (*RawMaterial, error)
}

// RecipeCatalog looks up the active recipe of a product.
type RecipeCatalog interface {
	GetActiveRecipe(ctx context.Context, productID string) (*Recipe, error)
}

// Catalogs bundles the three read-only data sources a resolution run
// borrows from the caller. The resolver never mutates them.
type Catalogs struct {
	Products  ProductCatalog
	Materials MaterialCatalog
	Recipes   RecipeCatalog
}
