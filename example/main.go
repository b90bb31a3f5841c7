package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fabworks/fabplan/pkg/infrastructure/repositories/memory"
	"github.com/fabworks/fabplan/pkg/plan"
	"github.com/fabworks/fabplan/pkg/units"
)

func main() {
	ctx := context.Background()

	// Create repositories
	productRepo := memory.NewProductRepository()
	materialRepo := memory.NewMaterialRepository()
	recipeRepo := memory.NewRecipeRepository()

	// Set up a small carpet workshop catalog
	setupCarpetCatalog(productRepo, materialRepo, recipeRepo)

	// Create the resolver
	resolver := plan.NewResolver(plan.Catalogs{
		Products:  productRepo,
		Materials: materialRepo,
		Recipes:   recipeRepo,
	})

	// Ask for three carpets
	requests := []plan.Request{
		{
			ProductID:   "CARPET_BERBER",
			ProductName: "Berber Carpet 2x1.5",
			Quantity:    decimal.NewFromInt(3),
			Unit:        "pcs",
		},
	}

	fmt.Println("🧵 Resolving material requirements for a carpet order...")
	fmt.Printf("Demand: %s x %s\n", requests[0].Quantity, requests[0].ProductName)
	fmt.Println()

	result, err := resolver.Resolve(ctx, requests)
	if err != nil {
		fmt.Printf("❌ Resolution failed: %v\n", err)
		return
	}

	// Display results
	fmt.Println("📊 Material Breakdown:")
	for _, req := range result.Breakdown {
		status := "✅"
		if !req.IsAvailable {
			status = "⚠️"
		}
		fmt.Printf("  %s %s: need %s %s, stock %s, short %s\n",
			status, req.MaterialName, req.TotalQuantity, req.Unit,
			req.AvailableStock, req.Shortage)
	}
	fmt.Println()

	fmt.Println("🏭 Production Steps:")
	for _, step := range result.Steps {
		fmt.Printf("  Step %d: %s x %s (stock on hand: %s)\n",
			step.Number, step.Quantity, step.ProductName, step.StockOnHand)
		for _, line := range step.MaterialsNeeded {
			fmt.Printf("    needs %s %s of %s\n", line.Quantity, line.Unit, line.MaterialName)
		}
		for _, line := range step.ProductsNeeded {
			fmt.Printf("    needs %s %s of %s (sub-product)\n",
				line.Quantity, line.Unit, line.MaterialName)
		}
	}
}

// setupCarpetCatalog loads a two-level recipe: a finished carpet made
// from wool plus a felt backing, where the backing is itself produced
// from recycled fiber.
func setupCarpetCatalog(
	products *memory.ProductRepository,
	materials *memory.MaterialRepository,
	recipes *memory.RecipeRepository,
) {
	length := decimal.NewFromInt(2)
	width := decimal.NewFromFloat(1.5)
	feltSide := decimal.NewFromInt(1)

	products.AddProduct(plan.Product{
		ID:         "CARPET_BERBER",
		Name:       "Berber Carpet 2x1.5",
		Type:       units.TypeCarpet,
		Length:     &length,
		Width:      &width,
		LengthUnit: "m",
		WidthUnit:  "m",
		Unit:       "pcs",
	})
	products.AddProduct(plan.Product{
		ID:           "BACKING_FELT",
		Name:         "Felt Backing 1x1",
		Type:         units.TypeBulkProduct,
		Length:       &feltSide,
		Width:        &feltSide,
		LengthUnit:   "m",
		WidthUnit:    "m",
		Unit:         "pcs",
		CurrentStock: decimal.NewFromInt(2),
	})

	materials.AddMaterial(plan.RawMaterial{
		ID:           "WOOL",
		Name:         "Wool Fiber",
		Unit:         "kg",
		CurrentStock: decimal.NewFromInt(2),
	})
	materials.AddMaterial(plan.RawMaterial{
		ID:           "RECYCLED_PET",
		Name:         "Recycled PET Fiber",
		Unit:         "kg",
		CurrentStock: decimal.NewFromInt(50),
	})

	recipes.AddRecipe(plan.Recipe{
		ProductID: "CARPET_BERBER",
		Version:   1,
		IsActive:  true,
		Lines: []plan.RecipeLine{
			{
				MaterialID:     "WOOL",
				MaterialName:   "Wool Fiber",
				QuantityPerSqm: decimal.NewFromFloat(0.5),
				Unit:           "kg",
			},
			{
				MaterialID:     "BACKING_FELT",
				MaterialName:   "Felt Backing 1x1",
				QuantityPerSqm: decimal.NewFromFloat(0.2),
				Unit:           "pcs",
			},
		},
	})
	recipes.AddRecipe(plan.Recipe{
		ProductID: "BACKING_FELT",
		Version:   1,
		IsActive:  true,
		Lines: []plan.RecipeLine{
			{
				MaterialID:     "RECYCLED_PET",
				MaterialName:   "Recycled PET Fiber",
				QuantityPerSqm: decimal.NewFromInt(2),
				Unit:           "kg",
			},
		},
	})
}
