// Package plan implements recipe requirement resolution: the recursive
// expansion of a (product, quantity) request through nested sub-product
// recipes into a flattened, shortage-annotated raw material breakdown.
package plan

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fabworks/fabplan/pkg/metrics"
)

// Resolver expands production requests against the product, material
// and recipe catalogs. It owns no state between runs; every Resolve
// call builds its own breakdown map, step list and visited sets.
type Resolver struct {
	catalogs Catalogs
	logger   *zap.Logger
	metrics  *metrics.ResolverMetrics
}

// NewResolver creates a resolver over the given catalogs with no
// logging or instrumentation.
func NewResolver(catalogs Catalogs) *Resolver {
	return NewResolverWith(catalogs, nil, nil)
}

// NewResolverWith creates a resolver with diagnostics. Either logger
// or m may be nil.
func NewResolverWith(catalogs Catalogs, logger *zap.Logger, m *metrics.ResolverMetrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalogs: catalogs, logger: logger, metrics: m}
}

// runState stages the contributions of a single top-level request.
// They are merged into the shared result only when the request
// finishes without a catalog failure, so a dropped request never
// leaves a half-applied merge behind.
type runState struct {
	steps          []ProductionStep
	contribs       []contribution
	cycleSkips     int
	unresolvedRefs int
}

type contribution struct {
	material *RawMaterial
	lineName string
	quantity decimal.Decimal
	source   RequirementSource
}

// Resolve expands each request depth-first and returns the merged
// material breakdown together with the ordered production step audit
// trail. Catalog failures are isolated per top-level request: the
// failing request's contribution is dropped, the run is marked
// partial, and remaining requests still resolve. A context error stops
// processing of further requests and is returned alongside the
// consistent partial result.
func (r *Resolver) Resolve(ctx context.Context, requests []Request) (*Result, error) {
	r.metrics.ObserveResolution()

	result := &Result{RunID: uuid.NewString()}
	breakdown := make(map[string]*MaterialRequirement)
	var steps []ProductionStep

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			result.Partial = true
			finalize(result, breakdown, steps)
			return result, err
		}

		st := &runState{}
		visited := map[string]bool{}

		if err := r.expand(ctx, st, req, visited); err != nil {
			r.logger.Warn("dropping request after catalog failure",
				zap.String("product_id", req.ProductID),
				zap.Error(err))
			r.metrics.ObserveFailedRequest()
			result.Partial = true
			result.FailedRequests = append(result.FailedRequests, req.ProductID)
			continue
		}

		// Commit: merge material contributions and append steps with
		// numbering that continues across the whole resolution.
		for _, c := range st.contribs {
			merge(breakdown, c)
		}
		for _, s := range st.steps {
			s.Number = len(steps) + 1
			steps = append(steps, s)
		}
		result.CycleSkips += st.cycleSkips
		result.UnresolvedRefs += st.unresolvedRefs
	}

	finalize(result, breakdown, steps)

	r.logger.Info("requirement resolution complete",
		zap.String("run_id", result.RunID),
		zap.Int("materials", result.MaterialCount),
		zap.Int("steps", len(result.Steps)),
		zap.Bool("partial", result.Partial))

	return result, nil
}

// expand processes one product expansion. The visited set is copied
// into each recursive call, so sibling branches of a diamond-shaped
// recipe graph do not falsely trip each other's cycle detection; only
// a true ancestor repeat truncates a branch.
func (r *Resolver) expand(ctx context.Context, st *runState, req Request, visited map[string]bool) error {
	if visited[req.ProductID] {
		r.logger.Debug("recipe cycle truncated",
			zap.String("product_id", req.ProductID))
		r.metrics.ObserveCycle()
		st.cycleSkips++
		return nil
	}

	branch := make(map[string]bool, len(visited)+1)
	for id := range visited {
		branch[id] = true
	}
	branch[req.ProductID] = true

	recipe, err := r.catalogs.Recipes.GetActiveRecipe(ctx, req.ProductID)
	if errors.Is(err, ErrNotFound) {
		// No recipe is normal for leaf products; nothing to expand.
		return nil
	}
	if err != nil {
		return fmt.Errorf("recipe lookup for %s: %w", req.ProductID, err)
	}
	if recipe == nil || len(recipe.Lines) == 0 {
		return nil
	}

	areaPerUnit, stock, err := r.productShape(ctx, req.ProductID)
	if err != nil {
		return err
	}
	totalArea := req.Quantity.Mul(areaPerUnit)

	step := ProductionStep{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		StockOnHand: stock,
	}

	for _, line := range recipe.Lines {
		required := line.QuantityPerSqm.Mul(totalArea)

		material, err := r.catalogs.Materials.GetMaterialByID(ctx, line.MaterialID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("material lookup for %s: %w", line.MaterialID, err)
		}
		if material != nil {
			name := material.Name
			if name == "" {
				name = line.MaterialName
			}
			step.MaterialsNeeded = append(step.MaterialsNeeded, StepLine{
				MaterialID:   material.ID,
				MaterialName: name,
				Quantity:     required,
				Unit:         material.Unit,
			})
			st.contribs = append(st.contribs, contribution{
				material: material,
				lineName: name,
				quantity: required,
				source: RequirementSource{
					ProductID:   req.ProductID,
					ProductName: req.ProductName,
					Quantity:    required,
				},
			})
			continue
		}

		nested, err := r.catalogs.Products.GetProductByID(ctx, line.MaterialID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("product lookup for %s: %w", line.MaterialID, err)
		}
		if nested != nil {
			// The recipe states sqm of the nested product; convert to
			// units of it. A nested product without dimensions keeps
			// the raw quantity instead of dividing by zero.
			nestedQty := required
			if nestedArea := nested.AreaPerUnit(); nestedArea.IsPositive() {
				nestedQty = required.Div(nestedArea)
			}
			step.ProductsNeeded = append(step.ProductsNeeded, StepLine{
				MaterialID:   nested.ID,
				MaterialName: nested.Name,
				Quantity:     nestedQty,
				Unit:         nested.Unit,
			})
			nestedReq := Request{
				ProductID:   nested.ID,
				ProductName: nested.Name,
				Quantity:    nestedQty,
				Unit:        nested.Unit,
			}
			if err := r.expand(ctx, st, nestedReq, branch); err != nil {
				return err
			}
			continue
		}

		r.logger.Debug("recipe line matches neither catalog",
			zap.String("product_id", req.ProductID),
			zap.String("material_id", line.MaterialID))
		r.metrics.ObserveUnresolvedReference()
		st.unresolvedRefs++
	}

	// Children were appended inside the loop, so a step lands after
	// the steps it spawned. The UI numbers steps in this order.
	st.steps = append(st.steps, step)
	return nil
}

// productShape returns the per-unit area and stock snapshot of a
// product, tolerating products absent from the catalog.
func (r *Resolver) productShape(ctx context.Context, productID string) (decimal.Decimal, decimal.Decimal, error) {
	product, err := r.catalogs.Products.GetProductByID(ctx, productID)
	if errors.Is(err, ErrNotFound) {
		return decimal.Zero, decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("product lookup for %s: %w", productID, err)
	}
	return product.AreaPerUnit(), product.StockOnHand(), nil
}

// merge upserts one contribution into the breakdown map. The stock
// snapshot is read once, on first encounter of the material.
func merge(breakdown map[string]*MaterialRequirement, c contribution) {
	entry, ok := breakdown[c.material.ID]
	if !ok {
		entry = &MaterialRequirement{
			MaterialID:     c.material.ID,
			MaterialName:   c.lineName,
			Unit:           c.material.Unit,
			AvailableStock: c.material.StockAvailable(),
		}
		breakdown[c.material.ID] = entry
	}

	entry.TotalQuantity = entry.TotalQuantity.Add(c.quantity)
	entry.Sources = append(entry.Sources, c.source)
	entry.Shortage = entry.TotalQuantity.Sub(entry.AvailableStock)
	if entry.Shortage.IsNegative() {
		entry.Shortage = decimal.Zero
	}
	entry.IsAvailable = entry.AvailableStock.GreaterThanOrEqual(entry.TotalQuantity)
}

// finalize sorts the breakdown for deterministic display and fills the
// derived result fields.
func finalize(result *Result, breakdown map[string]*MaterialRequirement, steps []ProductionStep) {
	entries := make([]MaterialRequirement, 0, len(breakdown))
	for _, entry := range breakdown {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MaterialName < entries[j].MaterialName
	})

	result.Breakdown = entries
	result.Steps = steps
	result.MaterialCount = len(entries)
}
