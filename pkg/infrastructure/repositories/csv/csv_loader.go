// Package csv loads catalog data and demand files from CSV into the
// in-memory repository types.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fabworks/fabplan/pkg/plan"
	"github.com/fabworks/fabplan/pkg/units"
)

// Loader handles loading planning data from CSV files.
type Loader struct{}

// NewLoader creates a new CSV loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadProducts loads products from a CSV file.
func (l *Loader) LoadProducts(filename string) ([]plan.Product, error) {
	records, err := readCSV(filename)
	if err != nil {
		return nil, fmt.Errorf("products file %s: %w", filename, err)
	}

	expectedHeader := []string{"id", "name", "type", "length", "width", "length_unit", "width_unit", "unit", "current_stock", "weight", "gsm", "individual_tracking", "units_available"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("products CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var products []plan.Product
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("products CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		product, err := parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}

		products = append(products, product)
	}

	return products, nil
}

// LoadMaterials loads raw materials from a CSV file.
func (l *Loader) LoadMaterials(filename string) ([]plan.RawMaterial, error) {
	records, err := readCSV(filename)
	if err != nil {
		return nil, fmt.Errorf("materials file %s: %w", filename, err)
	}

	expectedHeader := []string{"id", "name", "unit", "current_stock", "available_stock"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("materials CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var materials []plan.RawMaterial
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("materials CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		material, err := parseMaterial(record)
		if err != nil {
			return nil, fmt.Errorf("materials CSV row %d: %w", i+2, err)
		}

		materials = append(materials, material)
	}

	return materials, nil
}

// LoadRecipes loads recipes from a CSV file holding one recipe line
// per row. Rows are grouped into recipes by product_id and version,
// preserving line order within a recipe.
func (l *Loader) LoadRecipes(filename string) ([]plan.Recipe, error) {
	records, err := readCSV(filename)
	if err != nil {
		return nil, fmt.Errorf("recipes file %s: %w", filename, err)
	}

	expectedHeader := []string{"product_id", "version", "is_active", "material_id", "material_name", "material_type", "quantity_per_sqm", "unit"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("recipes CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	type key struct {
		productID string
		version   int
	}
	grouped := make(map[key]*plan.Recipe)
	var order []key

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("recipes CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		version, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: invalid version: %s", i+2, record[1])
		}
		active, err := strconv.ParseBool(record[2])
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: invalid is_active: %s", i+2, record[2])
		}
		rate, err := decimal.NewFromString(record[6])
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: invalid quantity_per_sqm: %s", i+2, record[6])
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("recipes CSV row %d: quantity_per_sqm must be >= 0", i+2)
		}

		materialType, err := parseMaterialType(record[5])
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: %w", i+2, err)
		}

		k := key{productID: record[0], version: version}
		recipe, exists := grouped[k]
		if !exists {
			recipe = &plan.Recipe{ProductID: k.productID, Version: version, IsActive: active}
			grouped[k] = recipe
			order = append(order, k)
		}

		recipe.Lines = append(recipe.Lines, plan.RecipeLine{
			MaterialID:     record[3],
			MaterialName:   record[4],
			MaterialType:   materialType,
			QuantityPerSqm: rate,
			Unit:           record[7],
		})
	}

	recipes := make([]plan.Recipe, 0, len(order))
	for _, k := range order {
		recipes = append(recipes, *grouped[k])
	}
	return recipes, nil
}

// LoadDemands loads production requests from a CSV file.
func (l *Loader) LoadDemands(filename string) ([]plan.Request, error) {
	records, err := readCSV(filename)
	if err != nil {
		return nil, fmt.Errorf("demands file %s: %w", filename, err)
	}

	expectedHeader := []string{"product_id", "product_name", "quantity", "unit"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("demands CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var requests []plan.Request
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("demands CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		quantity, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: invalid quantity: %s", i+2, record[2])
		}

		requests = append(requests, plan.Request{
			ProductID:   record[0],
			ProductName: record[1],
			Quantity:    quantity,
			Unit:        record[3],
		})
	}

	return requests, nil
}

// Helper functions for parsing CSV records

func readCSV(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV must have header and at least one data row")
	}
	return records, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseProduct(record []string) (plan.Product, error) {
	product := plan.Product{
		ID:         record[0],
		Name:       record[1],
		Type:       units.ProductType(record[2]),
		LengthUnit: record[5],
		WidthUnit:  record[6],
		Unit:       record[7],
		Weight:     record[9],
	}

	var err error
	if product.Length, err = optionalDecimal(record[3]); err != nil {
		return plan.Product{}, fmt.Errorf("invalid length: %s", record[3])
	}
	if product.Width, err = optionalDecimal(record[4]); err != nil {
		return plan.Product{}, fmt.Errorf("invalid width: %s", record[4])
	}
	if product.CurrentStock, err = requiredDecimal(record[8]); err != nil {
		return plan.Product{}, fmt.Errorf("invalid current_stock: %s", record[8])
	}
	if product.GSM, err = optionalDecimal(record[10]); err != nil {
		return plan.Product{}, fmt.Errorf("invalid gsm: %s", record[10])
	}

	if record[11] != "" {
		if product.IndividualTracking, err = strconv.ParseBool(record[11]); err != nil {
			return plan.Product{}, fmt.Errorf("invalid individual_tracking: %s", record[11])
		}
	}
	if product.UnitsAvailable, err = optionalDecimal(record[12]); err != nil {
		return plan.Product{}, fmt.Errorf("invalid units_available: %s", record[12])
	}

	return product, nil
}

func parseMaterial(record []string) (plan.RawMaterial, error) {
	material := plan.RawMaterial{
		ID:   record[0],
		Name: record[1],
		Unit: record[2],
	}

	var err error
	if material.CurrentStock, err = requiredDecimal(record[3]); err != nil {
		return plan.RawMaterial{}, fmt.Errorf("invalid current_stock: %s", record[3])
	}
	if material.AvailableStock, err = optionalDecimal(record[4]); err != nil {
		return plan.RawMaterial{}, fmt.Errorf("invalid available_stock: %s", record[4])
	}

	return material, nil
}

func parseMaterialType(s string) (plan.MaterialType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw_material":
		return plan.MaterialTypeRaw, nil
	case "product":
		return plan.MaterialTypeProduct, nil
	default:
		return "", fmt.Errorf("invalid material_type: %s (expected: raw_material or product)", s)
	}
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func requiredDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
