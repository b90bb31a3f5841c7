package memory

import (
	"context"
	"fmt"

	"github.com/fabworks/fabplan/pkg/plan"
)

// RecipeRepository provides in-memory recipe catalog storage. A
// product may hold several recipe versions; only the active one is
// returned by lookups.
type RecipeRepository struct {
	recipes map[string][]plan.Recipe
}

// NewRecipeRepository creates a new in-memory recipe repository.
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{
		recipes: make(map[string][]plan.Recipe),
	}
}

// Verify interface compliance
var _ plan.RecipeCatalog = (*RecipeRepository)(nil)

// AddRecipe adds a recipe version for a product. Adding an active
// recipe deactivates previously stored versions for the same product.
func (r *RecipeRepository) AddRecipe(recipe plan.Recipe) {
	versions := r.recipes[recipe.ProductID]
	if recipe.IsActive {
		for i := range versions {
			versions[i].IsActive = false
		}
	}
	r.recipes[recipe.ProductID] = append(versions, recipe)
}

// GetActiveRecipe returns the active recipe for a product.
func (r *RecipeRepository) GetActiveRecipe(ctx context.Context, productID string) (*plan.Recipe, error) {
	for _, recipe := range r.recipes[productID] {
		if recipe.IsActive {
			found := recipe
			return &found, nil
		}
	}
	return nil, fmt.Errorf("active recipe for product %s: %w", productID, plan.ErrNotFound)
}
