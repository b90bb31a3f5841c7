package output

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/fabworks/fabplan/pkg/plan"
)

// ExportXLSX writes the material breakdown and production steps to an
// XLSX workbook with one sheet per section.
func ExportXLSX(result *plan.Result, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Breakdown"); err != nil {
		return err
	}

	headers := []string{
		"material_id", "material_name", "unit",
		"total_quantity", "available_stock", "shortage", "is_available",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue("Breakdown", cell, h)
	}

	for i, entry := range result.Breakdown {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue("Breakdown", cell, value)
		}

		set(1, entry.MaterialID)
		set(2, entry.MaterialName)
		set(3, entry.Unit)
		set(4, entry.TotalQuantity.String())
		set(5, entry.AvailableStock.String())
		set(6, entry.Shortage.String())
		set(7, entry.IsAvailable)
	}

	if _, err := f.NewSheet("Steps"); err != nil {
		return err
	}
	stepHeaders := []string{"number", "product_id", "product_name", "quantity", "unit", "stock_on_hand"}
	for i, h := range stepHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue("Steps", cell, h)
	}
	for i, step := range result.Steps {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue("Steps", cell, value)
		}

		set(1, step.Number)
		set(2, step.ProductID)
		set(3, step.ProductName)
		set(4, step.Quantity.String())
		set(5, step.Unit)
		set(6, step.StockOnHand.String())
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
