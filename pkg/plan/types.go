package plan

import (
	"github.com/shopspring/decimal"

	"github.com/fabworks/fabplan/pkg/units"
)

// MaterialType distinguishes recipe lines that consume raw materials
// from lines that consume other manufactured products.
type MaterialType string

const (
	MaterialTypeRaw     MaterialType = "raw_material"
	MaterialTypeProduct MaterialType = "product"
)

// Product is a manufactured item from the product catalog. Length and
// width are nil when the catalog has no dimensions recorded; their
// units are carried separately because older records mix cm and m.
type Product struct {
	ID           string
	Name         string
	Type         units.ProductType
	Length       *decimal.Decimal
	Width        *decimal.Decimal
	LengthUnit   string
	WidthUnit    string
	Unit         string
	Weight       string
	GSM          *decimal.Decimal
	CurrentStock decimal.Decimal

	// IndividualTracking marks products whose stock is counted per
	// serialized unit; UnitsAvailable carries that live count.
	IndividualTracking bool
	UnitsAvailable     *decimal.Decimal
}

// AreaPerUnit returns the area of one unit of the product in square
// meters, or zero when either dimension is missing.
func (p *Product) AreaPerUnit() decimal.Decimal {
	if p.Length == nil || p.Width == nil {
		return decimal.Zero
	}
	length := units.ConvertLength(*p.Length, p.LengthUnit, "m")
	width := units.ConvertLength(*p.Width, p.WidthUnit, "m")
	return length.Mul(width)
}

// StockOnHand returns the best current stock figure for the product.
// Serialized unit counts are preferred over the cached aggregate when
// the product is individually tracked.
func (p *Product) StockOnHand() decimal.Decimal {
	if p.IndividualTracking && p.UnitsAvailable != nil {
		return *p.UnitsAvailable
	}
	return p.CurrentStock
}

// Dimensions adapts the product record to the pricing module's value
// type, normalizing length and width to meters.
func (p *Product) Dimensions() units.Dimensions {
	d := units.Dimensions{
		Weight: p.Weight,
		GSM:    p.GSM,
		Type:   p.Type,
	}
	if p.Length != nil {
		length := units.ConvertLength(*p.Length, p.LengthUnit, "m")
		d.Length = &length
	}
	if p.Width != nil {
		width := units.ConvertLength(*p.Width, p.WidthUnit, "m")
		d.Width = &width
	}
	return d
}

// RawMaterial is an entry in the raw material catalog.
type RawMaterial struct {
	ID           string
	Name         string
	Unit         string
	CurrentStock decimal.Decimal

	// AvailableStock, when present, is the uncommitted portion of
	// current stock and takes precedence over CurrentStock.
	AvailableStock *decimal.Decimal
}

// StockAvailable returns the stock figure requirements are checked
// against: available_stock before current_stock.
func (m *RawMaterial) StockAvailable() decimal.Decimal {
	if m.AvailableStock != nil {
		return *m.AvailableStock
	}
	return m.CurrentStock
}

// RecipeLine is one material requirement of a recipe, expressed as a
// rate per square meter of the parent product.
type RecipeLine struct {
	MaterialID     string
	MaterialName   string
	MaterialType   MaterialType
	QuantityPerSqm decimal.Decimal
	Unit           string
}

// Configured reports whether the line has a usable rate. A rate of
// exactly zero means "not yet configured" and should block production
// planning in the calling UI until set.
func (l RecipeLine) Configured() bool {
	return l.QuantityPerSqm.IsPositive()
}

// Recipe is the active bill-of-materials specification of a product.
// Line order is preserved for display only.
type Recipe struct {
	ProductID string
	Version   int
	IsActive  bool
	Lines     []RecipeLine
}

// Request asks for a quantity of a product to be produced.
type Request struct {
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	Unit        string
}

// RequirementSource records which product expansion contributed how
// much to a material requirement.
type RequirementSource struct {
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
}

// MaterialRequirement is the flattened, merged-by-material total for
// one raw material across a whole resolution run.
type MaterialRequirement struct {
	MaterialID     string
	MaterialName   string
	Unit           string
	TotalQuantity  decimal.Decimal
	AvailableStock decimal.Decimal
	Shortage       decimal.Decimal
	IsAvailable    bool
	Sources        []RequirementSource
}

// StepLine is one requirement recorded on a production step.
type StepLine struct {
	MaterialID   string
	MaterialName string
	Quantity     decimal.Decimal
	Unit         string
}

// ProductionStep records one product expansion in the order steps were
// completed, forming the audit trail of a resolution run.
type ProductionStep struct {
	Number          int
	ProductID       string
	ProductName     string
	Quantity        decimal.Decimal
	Unit            string
	StockOnHand     decimal.Decimal
	MaterialsNeeded []StepLine
	ProductsNeeded  []StepLine
}

// Result is the complete output of one resolution run. Breakdown is
// sorted by material name; Steps are in completion order. Both are
// transient and owned by the caller once returned.
type Result struct {
	RunID         string
	Breakdown     []MaterialRequirement
	Steps         []ProductionStep
	MaterialCount int

	// Partial is set when at least one top-level request was dropped
	// after a catalog failure. Silent skips (cycles, missing recipes,
	// unknown references) are counted separately and do not mark the
	// run partial.
	Partial        bool
	FailedRequests []string
	CycleSkips     int
	UnresolvedRefs int
}
