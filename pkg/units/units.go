// Package units provides pure conversion and pricing arithmetic for
// physical product measurements: length, area, weight and textile
// density (GSM). All functions are stateless and side-effect free.
package units

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductType tags the kind of product a dimension set belongs to.
type ProductType string

const (
	TypeCarpet       ProductType = "carpet"
	TypeRawMaterial  ProductType = "raw_material"
	TypeBulkProduct  ProductType = "bulk_product"
	TypeFinishedGood ProductType = "finished_good"
	TypeTextile      ProductType = "textile"
	TypeFiber        ProductType = "fiber"
)

// Dimensions holds the raw physical measurements of a product as read
// from the catalog. Length and width are nil when not recorded. Weight
// is kept as the raw catalog string because legacy records store values
// like "180 GSM" in the weight field.
type Dimensions struct {
	Length *decimal.Decimal
	Width  *decimal.Decimal
	Weight string
	GSM    *decimal.Decimal
	Type   ProductType
}

// UnitCategory selects the conversion formula for a pricing unit.
type UnitCategory string

const (
	CategoryArea    UnitCategory = "area"
	CategoryWeight  UnitCategory = "weight"
	CategoryTextile UnitCategory = "textile"
	CategoryCount   UnitCategory = "count"
)

// PricingUnitInfo describes one pricing unit supported by the system.
type PricingUnitInfo struct {
	Symbol             string
	Category           UnitCategory
	RequiresDimensions bool
	AppliesTo          []ProductType
}

// PricingUnits is the fixed catalog of pricing units. The sentinel
// "unit" means "per discrete item" and applies to everything.
var PricingUnits = []PricingUnitInfo{
	{Symbol: "sqft", Category: CategoryArea, RequiresDimensions: true,
		AppliesTo: []ProductType{TypeCarpet, TypeFinishedGood, TypeTextile}},
	{Symbol: "sqm", Category: CategoryArea, RequiresDimensions: true,
		AppliesTo: []ProductType{TypeCarpet, TypeFinishedGood, TypeTextile}},
	{Symbol: "kg", Category: CategoryWeight, RequiresDimensions: true,
		AppliesTo: []ProductType{TypeRawMaterial, TypeBulkProduct, TypeFiber, TypeTextile}},
	{Symbol: "gsm", Category: CategoryTextile, RequiresDimensions: false,
		AppliesTo: []ProductType{TypeTextile, TypeCarpet}},
	{Symbol: "unit", Category: CategoryCount, RequiresDimensions: false,
		AppliesTo: []ProductType{TypeCarpet, TypeRawMaterial, TypeBulkProduct, TypeFinishedGood, TypeTextile, TypeFiber}},
}

// PricingUnit looks up a pricing unit by symbol (case-insensitive).
func PricingUnit(symbol string) (PricingUnitInfo, bool) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	for _, u := range PricingUnits {
		if u.Symbol == symbol {
			return u, true
		}
	}
	return PricingUnitInfo{}, false
}

// SqftPerSqm is the fixed area conversion ratio: 1 sqm = 10.764 sqft.
var SqftPerSqm = decimal.RequireFromString("10.764")

// Length conversion factors relative to meters.
var metersPerUnit = map[string]decimal.Decimal{
	"mm": decimal.RequireFromString("0.001"),
	"cm": decimal.RequireFromString("0.01"),
	"ft": decimal.RequireFromString("0.3048"),
	"in": decimal.RequireFromString("0.0254"),
	"yd": decimal.RequireFromString("0.9144"),
	"m":  decimal.NewFromInt(1),
}

// lengthFactor resolves a length unit to its meters-per-unit factor.
// Unrecognized units fall back to meters; callers get a silent
// identity conversion rather than an error.
func lengthFactor(unit string) decimal.Decimal {
	if f, ok := metersPerUnit[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return f
	}
	return metersPerUnit["m"]
}

// ConvertLength converts a length value between units. Supported units
// are mm, cm, ft, in, yd and m; anything else is treated as meters.
func ConvertLength(value decimal.Decimal, fromUnit, toUnit string) decimal.Decimal {
	from := lengthFactor(fromUnit)
	to := lengthFactor(toUnit)
	return value.Mul(from).Div(to)
}

// ConvertArea converts an area value between sqm and sqft. Unknown
// units are treated as sqm, mirroring the permissive length fallback.
func ConvertArea(value decimal.Decimal, fromUnit, toUnit string) decimal.Decimal {
	from := normalizeAreaUnit(fromUnit)
	to := normalizeAreaUnit(toUnit)
	if from == to {
		return value
	}
	if from == "sqm" {
		return value.Mul(SqftPerSqm)
	}
	return value.Div(SqftPerSqm)
}

func normalizeAreaUnit(unit string) string {
	if strings.ToLower(strings.TrimSpace(unit)) == "sqft" {
		return "sqft"
	}
	return "sqm"
}

// DeriveUnitValue computes the priceable quantity of one item for the
// given pricing unit: its area for area units, its weight for weight
// units, its density for textile units. Dimensions are assumed to be
// stored in meters. Missing inputs yield zero, never an error.
func DeriveUnitValue(dims Dimensions, targetUnit string) decimal.Decimal {
	info, ok := PricingUnit(targetUnit)
	if !ok {
		return decimal.Zero
	}

	switch info.Category {
	case CategoryArea:
		if dims.Length == nil || dims.Width == nil {
			return decimal.Zero
		}
		sqm := dims.Length.Mul(*dims.Width)
		return ConvertArea(sqm, "sqm", info.Symbol)
	case CategoryWeight:
		// kg is the only weight unit; the raw value passes through.
		return leadingNumber(dims.Weight)
	case CategoryTextile:
		if dims.GSM == nil {
			return decimal.Zero
		}
		return *dims.GSM
	default:
		return decimal.Zero
	}
}

// leadingNumber parses the numeric prefix of a catalog string, so that
// legacy values like "180 GSM" still yield 180. Returns zero when no
// prefix parses.
func leadingNumber(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s[:i])
	if err != nil {
		return decimal.Zero
	}
	return d
}
