package units

import (
	"strings"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// CalculateLinePrice computes the total price of an order line given
// the unit price, the quantity of items, the pricing unit the price is
// quoted in, and the product's physical dimensions. Length and width
// are interpreted in lengthUnit/widthUnit and converted as needed.
//
// Every branch degrades to unitPrice * quantity when the measurements
// it needs are missing. Pricing must always produce a usable number
// for incomplete catalog records; order totals depend on this exact
// branch-by-branch fallback behavior.
func CalculateLinePrice(unitPrice, quantity decimal.Decimal, pricingUnit string, dims Dimensions, lengthUnit, widthUnit string) decimal.Decimal {
	base := unitPrice.Mul(quantity)

	switch strings.ToLower(strings.TrimSpace(pricingUnit)) {
	case "unit":
		return base

	case "sqm":
		if dims.Length == nil || dims.Width == nil {
			return base
		}
		sqmPerItem := ConvertLength(*dims.Length, lengthUnit, "m").
			Mul(ConvertLength(*dims.Width, widthUnit, "m"))
		return unitPrice.Mul(sqmPerItem).Mul(quantity)

	case "sqft":
		if dims.Length == nil || dims.Width == nil {
			return base
		}
		sqftPerItem := ConvertLength(*dims.Length, lengthUnit, "ft").
			Mul(ConvertLength(*dims.Width, widthUnit, "ft"))
		return unitPrice.Mul(sqftPerItem).Mul(quantity)

	case "gsm":
		gsm := resolveGSM(dims)
		if gsm.IsZero() {
			return base
		}
		if dims.Length != nil && dims.Width != nil {
			sqmPerItem := ConvertLength(*dims.Length, lengthUnit, "m").
				Mul(ConvertLength(*dims.Width, widthUnit, "m"))
			// Price is per total grams of one item, not per bare GSM.
			return unitPrice.Mul(gsm).Mul(sqmPerItem).Mul(quantity)
		}
		return unitPrice.Mul(gsm).Mul(quantity)

	case "kg":
		gsm := resolveGSM(dims)
		if gsm.IsZero() || dims.Length == nil || dims.Width == nil {
			return base
		}
		sqmPerItem := ConvertLength(*dims.Length, lengthUnit, "m").
			Mul(ConvertLength(*dims.Width, widthUnit, "m"))
		kgPerItem := gsm.Mul(sqmPerItem).Div(thousand)
		return unitPrice.Mul(kgPerItem).Mul(quantity)

	default:
		return base
	}
}

// resolveGSM returns the product's GSM value, falling back to a
// numeric prefix parsed out of the raw weight field for legacy records
// that stored density there.
func resolveGSM(dims Dimensions) decimal.Decimal {
	if dims.GSM != nil {
		return *dims.GSM
	}
	return leadingNumber(dims.Weight)
}

// ValidateDimensionsForUnit reports whether pricing in the given unit
// is fully computable for the given dimensions, so callers can warn
// before a degraded price is produced. It never blocks calculation.
func ValidateDimensionsForUnit(dims Dimensions, unit string) bool {
	info, ok := PricingUnit(unit)
	if !ok {
		return false
	}

	hasWeight := strings.TrimSpace(dims.Weight) != ""

	switch info.Category {
	case CategoryArea, CategoryWeight:
		return dims.Length != nil && dims.Width != nil && hasWeight
	case CategoryTextile:
		return hasWeight || dims.GSM != nil
	case CategoryCount:
		return true
	default:
		return false
	}
}
