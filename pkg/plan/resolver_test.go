package plan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fabworks/fabplan/pkg/infrastructure/repositories/memory"
	"github.com/fabworks/fabplan/pkg/plan"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type fixture struct {
	products  *memory.ProductRepository
	materials *memory.MaterialRepository
	recipes   *memory.RecipeRepository
}

func newFixture() *fixture {
	return &fixture{
		products:  memory.NewProductRepository(),
		materials: memory.NewMaterialRepository(),
		recipes:   memory.NewRecipeRepository(),
	}
}

func (f *fixture) catalogs() plan.Catalogs {
	return plan.Catalogs{
		Products:  f.products,
		Materials: f.materials,
		Recipes:   f.recipes,
	}
}

// setupCarpetWorld builds a two-level recipe graph:
//
//	CARPET (2m x 1.5m, area 3 sqm)
//	  wool fiber   0.5 kg/sqm  (raw material)
//	  backing felt 0.2 sqm/sqm (product, 1m x 1m)
//	BACKING_FELT
//	  recycled fiber 2 kg/sqm  (raw material)
func setupCarpetWorld(f *fixture) {
	f.products.AddProduct(plan.Product{
		ID: "CARPET", Name: "Himalayan Carpet",
		Length: decPtr("2"), Width: decPtr("1.5"),
		LengthUnit: "m", WidthUnit: "m",
		Unit: "unit", CurrentStock: dec("0"),
	})
	f.products.AddProduct(plan.Product{
		ID: "BACKING_FELT", Name: "Backing Felt",
		Length: decPtr("1"), Width: decPtr("1"),
		LengthUnit: "m", WidthUnit: "m",
		Unit: "unit", CurrentStock: dec("4"),
	})
	f.materials.AddMaterial(plan.RawMaterial{
		ID: "WOOL", Name: "Wool Fiber", Unit: "kg", CurrentStock: dec("10"),
	})
	f.materials.AddMaterial(plan.RawMaterial{
		ID: "RECYCLED", Name: "Recycled Fiber", Unit: "kg", CurrentStock: dec("1"),
	})
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "CARPET", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "WOOL", MaterialName: "Wool Fiber", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("0.5"), Unit: "kg"},
			{MaterialID: "BACKING_FELT", MaterialName: "Backing Felt", MaterialType: plan.MaterialTypeProduct, QuantityPerSqm: dec("0.2"), Unit: "sqm"},
		},
	})
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "BACKING_FELT", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "RECYCLED", MaterialName: "Recycled Fiber", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("2"), Unit: "kg"},
		},
	})
}

func findMaterial(t *testing.T, result *plan.Result, id string) plan.MaterialRequirement {
	t.Helper()
	for _, entry := range result.Breakdown {
		if entry.MaterialID == id {
			return entry
		}
	}
	t.Fatalf("material %s not in breakdown", id)
	return plan.MaterialRequirement{}
}

func TestResolve_NestedProductExpansion(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	resolver := plan.NewResolver(f.catalogs())

	result, err := resolver.Resolve(context.Background(), []plan.Request{
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// 2 carpets * 3 sqm = 6 sqm parent area.
	wool := findMaterial(t, result, "WOOL")
	if !wool.TotalQuantity.Equal(dec("3")) { // 0.5 * 6
		t.Errorf("wool total = %s, want 3", wool.TotalQuantity)
	}

	// Felt needed: 0.2 * 6 = 1.2 sqm / 1 sqm per felt = 1.2 units.
	// Felt expansion area: 1.2 * 1 = 1.2 sqm -> recycled 2 * 1.2.
	recycled := findMaterial(t, result, "RECYCLED")
	if !recycled.TotalQuantity.Equal(dec("2.4")) {
		t.Errorf("recycled total = %s, want 2.4", recycled.TotalQuantity)
	}

	if result.MaterialCount != 2 {
		t.Errorf("material count = %d, want 2", result.MaterialCount)
	}
	if result.Partial {
		t.Error("clean run should not be partial")
	}
}

func TestResolve_StepOrderAndNumbering(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	resolver := plan.NewResolver(f.catalogs())

	result, err := resolver.Resolve(context.Background(), []plan.Request{
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Steps))
	}

	// Nested expansions complete before their parent, so the felt
	// step precedes the carpet step.
	if result.Steps[0].ProductID != "BACKING_FELT" {
		t.Errorf("first step = %s, want BACKING_FELT", result.Steps[0].ProductID)
	}
	if result.Steps[1].ProductID != "CARPET" {
		t.Errorf("second step = %s, want CARPET", result.Steps[1].ProductID)
	}

	for i, step := range result.Steps {
		if step.Number != i+1 {
			t.Errorf("step %d numbered %d", i, step.Number)
		}
	}

	carpet := result.Steps[1]
	if len(carpet.MaterialsNeeded) != 1 || len(carpet.ProductsNeeded) != 1 {
		t.Fatalf("carpet step lines: %d materials, %d products, want 1/1",
			len(carpet.MaterialsNeeded), len(carpet.ProductsNeeded))
	}
	if !carpet.ProductsNeeded[0].Quantity.Equal(dec("1.2")) {
		t.Errorf("felt need = %s, want 1.2", carpet.ProductsNeeded[0].Quantity)
	}
}

func TestResolve_Additivity(t *testing.T) {
	// Two requests consuming the same materials must merge to the
	// exact sum of their independent contributions.
	run := func(requests ...plan.Request) *plan.Result {
		f := newFixture()
		setupCarpetWorld(f)
		result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), requests)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		return result
	}

	carpets := plan.Request{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"}
	felts := plan.Request{ProductID: "BACKING_FELT", ProductName: "Backing Felt", Quantity: dec("5"), Unit: "unit"}

	alone1 := findMaterial(t, run(carpets), "RECYCLED").TotalQuantity
	alone2 := findMaterial(t, run(felts), "RECYCLED").TotalQuantity
	together := findMaterial(t, run(carpets, felts), "RECYCLED").TotalQuantity

	if !together.Equal(alone1.Add(alone2)) {
		t.Errorf("combined total %s != %s + %s", together, alone1, alone2)
	}

	combined := run(carpets, felts)
	recycled := findMaterial(t, combined, "RECYCLED")
	if len(recycled.Sources) != 2 {
		t.Errorf("expected 2 sources for recycled fiber, got %d", len(recycled.Sources))
	}
}

func TestResolve_CycleSafety(t *testing.T) {
	f := newFixture()
	f.products.AddProduct(plan.Product{
		ID: "A", Name: "Product A",
		Length: decPtr("1"), Width: decPtr("1"), LengthUnit: "m", WidthUnit: "m",
		Unit: "unit",
	})
	f.products.AddProduct(plan.Product{
		ID: "B", Name: "Product B",
		Length: decPtr("1"), Width: decPtr("1"), LengthUnit: "m", WidthUnit: "m",
		Unit: "unit",
	})
	f.materials.AddMaterial(plan.RawMaterial{ID: "GLUE", Name: "Glue", Unit: "kg", CurrentStock: dec("100")})
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "A", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "GLUE", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("1"), Unit: "kg"},
			{MaterialID: "B", MaterialType: plan.MaterialTypeProduct, QuantityPerSqm: dec("1"), Unit: "unit"},
		},
	})
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "B", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "A", MaterialType: plan.MaterialTypeProduct, QuantityPerSqm: dec("1"), Unit: "unit"},
		},
	})

	result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), []plan.Request{
		{ProductID: "A", ProductName: "Product A", Quantity: dec("1"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// A's direct raw material survives; the circular branch is cut.
	glue := findMaterial(t, result, "GLUE")
	if !glue.TotalQuantity.Equal(dec("1")) {
		t.Errorf("glue total = %s, want 1", glue.TotalQuantity)
	}
	if result.CycleSkips == 0 {
		t.Error("cycle skip not recorded")
	}
	if result.Partial {
		t.Error("cycle truncation must not mark the run partial")
	}
}

func TestResolve_DiamondSiblingsDoNotBlockEachOther(t *testing.T) {
	// TOP uses MID1 and MID2; both use SHARED. The visited set is
	// copied per branch, so SHARED must expand under both siblings.
	f := newFixture()
	square := func(id, name string) plan.Product {
		return plan.Product{
			ID: id, Name: name,
			Length: decPtr("1"), Width: decPtr("1"), LengthUnit: "m", WidthUnit: "m",
			Unit: "unit",
		}
	}
	f.products.AddProduct(square("TOP", "Top"))
	f.products.AddProduct(square("MID1", "Mid One"))
	f.products.AddProduct(square("MID2", "Mid Two"))
	f.products.AddProduct(square("SHARED", "Shared"))
	f.materials.AddMaterial(plan.RawMaterial{ID: "RESIN", Name: "Resin", Unit: "kg", CurrentStock: dec("100")})

	productLine := func(id string) plan.RecipeLine {
		return plan.RecipeLine{MaterialID: id, MaterialType: plan.MaterialTypeProduct, QuantityPerSqm: dec("1"), Unit: "unit"}
	}
	f.recipes.AddRecipe(plan.Recipe{ProductID: "TOP", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{productLine("MID1"), productLine("MID2")}})
	f.recipes.AddRecipe(plan.Recipe{ProductID: "MID1", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{productLine("SHARED")}})
	f.recipes.AddRecipe(plan.Recipe{ProductID: "MID2", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{productLine("SHARED")}})
	f.recipes.AddRecipe(plan.Recipe{ProductID: "SHARED", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{{MaterialID: "RESIN", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("1"), Unit: "kg"}}})

	result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), []plan.Request{
		{ProductID: "TOP", ProductName: "Top", Quantity: dec("1"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	sharedSteps := 0
	for _, step := range result.Steps {
		if step.ProductID == "SHARED" {
			sharedSteps++
		}
	}
	if sharedSteps != 2 {
		t.Errorf("SHARED expanded %d times, want 2", sharedSteps)
	}
	if result.CycleSkips != 0 {
		t.Errorf("diamond graph recorded %d false cycles", result.CycleSkips)
	}

	resin := findMaterial(t, result, "RESIN")
	if !resin.TotalQuantity.Equal(dec("2")) {
		t.Errorf("resin total = %s, want 2", resin.TotalQuantity)
	}
}

func TestResolve_ShortageComputation(t *testing.T) {
	f := newFixture()
	f.products.AddProduct(plan.Product{
		ID: "MAT", Name: "Door Mat",
		Length: decPtr("2"), Width: decPtr("2"), LengthUnit: "m", WidthUnit: "m",
		Unit: "unit",
	})
	short := dec("5")
	ample := dec("10")
	f.materials.AddMaterial(plan.RawMaterial{ID: "SHORT", Name: "Coir Rope", Unit: "kg", CurrentStock: dec("99"), AvailableStock: &short})
	f.materials.AddMaterial(plan.RawMaterial{ID: "AMPLE", Name: "Latex", Unit: "kg", CurrentStock: ample})
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "MAT", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "SHORT", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("2"), Unit: "kg"},
			{MaterialID: "AMPLE", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("2"), Unit: "kg"},
		},
	})

	// 1 mat * 4 sqm * 2/sqm = 8 of each material.
	result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), []plan.Request{
		{ProductID: "MAT", ProductName: "Door Mat", Quantity: dec("1"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	rope := findMaterial(t, result, "SHORT")
	if !rope.AvailableStock.Equal(dec("5")) {
		t.Errorf("available_stock must win over current_stock, got %s", rope.AvailableStock)
	}
	if !rope.Shortage.Equal(dec("3")) || rope.IsAvailable {
		t.Errorf("rope shortage = %s available = %v, want 3/false", rope.Shortage, rope.IsAvailable)
	}

	latex := findMaterial(t, result, "AMPLE")
	if !latex.Shortage.IsZero() || !latex.IsAvailable {
		t.Errorf("latex shortage = %s available = %v, want 0/true", latex.Shortage, latex.IsAvailable)
	}
}

func TestResolve_ZeroDimensionNestedProduct(t *testing.T) {
	f := newFixture()
	f.products.AddProduct(plan.Product{
		ID: "RUG", Name: "Rug",
		Length: decPtr("1"), Width: decPtr("1"), LengthUnit: "m", WidthUnit: "m",
		Unit: "unit",
	})
	// No dimensions on the nested product: the required quantity is
	// taken as already being in nested-product units.
	f.products.AddProduct(plan.Product{ID: "TRIM", Name: "Trim", Unit: "unit"})
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "RUG", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "TRIM", MaterialType: plan.MaterialTypeProduct, QuantityPerSqm: dec("4"), Unit: "unit"},
		},
	})

	result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), []plan.Request{
		{ProductID: "RUG", ProductName: "Rug", Quantity: dec("1"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	rug := result.Steps[len(result.Steps)-1]
	if len(rug.ProductsNeeded) != 1 {
		t.Fatalf("expected 1 product line, got %d", len(rug.ProductsNeeded))
	}
	if !rug.ProductsNeeded[0].Quantity.Equal(dec("4")) {
		t.Errorf("trim need = %s, want 4 (unchanged)", rug.ProductsNeeded[0].Quantity)
	}
}

func TestResolve_MissingRecipeContributesNothing(t *testing.T) {
	f := newFixture()
	f.products.AddProduct(plan.Product{
		ID: "PLAIN", Name: "Plain Good",
		Length: decPtr("1"), Width: decPtr("1"), LengthUnit: "m", WidthUnit: "m",
		Unit: "unit",
	})

	result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), []plan.Request{
		{ProductID: "PLAIN", ProductName: "Plain Good", Quantity: dec("3"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(result.Breakdown) != 0 || len(result.Steps) != 0 {
		t.Errorf("recipe-less product contributed %d materials, %d steps",
			len(result.Breakdown), len(result.Steps))
	}
	if result.Partial {
		t.Error("missing recipe is a silent skip, not a partial run")
	}
}

func TestResolve_UnresolvedReferenceSkipped(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "CARPET", Version: 2, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "WOOL", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("0.5"), Unit: "kg"},
			{MaterialID: "GHOST", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("1"), Unit: "kg"},
		},
	})

	result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), []plan.Request{
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	wool := findMaterial(t, result, "WOOL")
	if !wool.TotalQuantity.Equal(dec("3")) {
		t.Errorf("wool total = %s, want 3", wool.TotalQuantity)
	}
	if result.UnresolvedRefs != 1 {
		t.Errorf("unresolved refs = %d, want 1", result.UnresolvedRefs)
	}
}

func TestResolve_DeterministicOrdering(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	resolver := plan.NewResolver(f.catalogs())
	requests := []plan.Request{
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
	}

	first, err := resolver.Resolve(context.Background(), requests)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), requests)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if len(first.Breakdown) != len(second.Breakdown) {
		t.Fatalf("breakdown sizes differ: %d vs %d", len(first.Breakdown), len(second.Breakdown))
	}
	for i := range first.Breakdown {
		if first.Breakdown[i].MaterialID != second.Breakdown[i].MaterialID {
			t.Errorf("position %d differs: %s vs %s",
				i, first.Breakdown[i].MaterialID, second.Breakdown[i].MaterialID)
		}
	}

	// Sorted by material name: Recycled Fiber before Wool Fiber.
	if first.Breakdown[0].MaterialName != "Recycled Fiber" {
		t.Errorf("first entry = %s, want Recycled Fiber", first.Breakdown[0].MaterialName)
	}
}

func TestResolve_SerializedStockPreferred(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	available := dec("7")
	f.products.AddProduct(plan.Product{
		ID: "BACKING_FELT", Name: "Backing Felt",
		Length: decPtr("1"), Width: decPtr("1"), LengthUnit: "m", WidthUnit: "m",
		Unit: "unit", CurrentStock: dec("4"),
		IndividualTracking: true, UnitsAvailable: &available,
	})

	result, err := plan.NewResolver(f.catalogs()).Resolve(context.Background(), []plan.Request{
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	felt := result.Steps[0]
	if felt.ProductID != "BACKING_FELT" {
		t.Fatalf("first step = %s, want BACKING_FELT", felt.ProductID)
	}
	if !felt.StockOnHand.Equal(dec("7")) {
		t.Errorf("felt stock = %s, want serialized count 7", felt.StockOnHand)
	}
}

// failingRecipes simulates a collaborator outage for one product.
type failingRecipes struct {
	inner   plan.RecipeCatalog
	failFor string
}

func (f failingRecipes) GetActiveRecipe(ctx context.Context, productID string) (*plan.Recipe, error) {
	if productID == f.failFor {
		return nil, errors.New("recipe service unavailable")
	}
	return f.inner.GetActiveRecipe(ctx, productID)
}

func TestResolve_CollaboratorFailureIsolatedPerRequest(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	catalogs := f.catalogs()
	catalogs.Recipes = failingRecipes{inner: f.recipes, failFor: "BACKING_FELT"}

	result, err := plan.NewResolver(catalogs).Resolve(context.Background(), []plan.Request{
		{ProductID: "BACKING_FELT", ProductName: "Backing Felt", Quantity: dec("5"), Unit: "unit"},
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve must isolate per-request failures, got: %v", err)
	}

	if !result.Partial {
		t.Error("run with a dropped request must be partial")
	}

	// The carpet request also reaches BACKING_FELT through its
	// recipe, so both requests are dropped and no half-merged
	// materials or steps may remain from either.
	if len(result.FailedRequests) != 2 {
		t.Errorf("failed requests = %v, want both requests dropped", result.FailedRequests)
	}
	if len(result.Breakdown) != 0 {
		t.Errorf("expected empty breakdown, got %d entries", len(result.Breakdown))
	}
	if len(result.Steps) != 0 {
		t.Errorf("dropped requests must leave no steps, got %d", len(result.Steps))
	}
}

func TestResolve_FailureInOneRequestKeepsOthers(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	f.products.AddProduct(plan.Product{
		ID: "MAT", Name: "Door Mat",
		Length: decPtr("2"), Width: decPtr("2"), LengthUnit: "m", WidthUnit: "m",
		Unit: "unit",
	})
	f.recipes.AddRecipe(plan.Recipe{
		ProductID: "MAT", Version: 1, IsActive: true,
		Lines: []plan.RecipeLine{
			{MaterialID: "WOOL", MaterialType: plan.MaterialTypeRaw, QuantityPerSqm: dec("1"), Unit: "kg"},
		},
	})
	catalogs := f.catalogs()
	catalogs.Recipes = failingRecipes{inner: f.recipes, failFor: "CARPET"}

	result, err := plan.NewResolver(catalogs).Resolve(context.Background(), []plan.Request{
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
		{ProductID: "MAT", ProductName: "Door Mat", Quantity: dec("1"), Unit: "unit"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !result.Partial {
		t.Error("expected partial result")
	}
	wool := findMaterial(t, result, "WOOL")
	if !wool.TotalQuantity.Equal(dec("4")) { // mat only: 4 sqm * 1/sqm
		t.Errorf("wool total = %s, want 4 (mat request only)", wool.TotalQuantity)
	}
}

func TestResolve_ContextCancellation(t *testing.T) {
	f := newFixture()
	setupCarpetWorld(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := plan.NewResolver(f.catalogs()).Resolve(ctx, []plan.Request{
		{ProductID: "CARPET", ProductName: "Himalayan Carpet", Quantity: dec("2"), Unit: "unit"},
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if result == nil || !result.Partial {
		t.Error("cancelled run must return a consistent partial result")
	}
}
