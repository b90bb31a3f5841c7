// Package output renders resolution results as text, JSON, CSV or
// XLSX.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fabworks/fabplan/pkg/plan"
)

// Config holds configuration for output generation.
type Config struct {
	Format      string
	OutputDir   string
	Verbose     bool
	ResolveTime time.Duration
}

// Generate renders the result to stdout in the configured format and,
// when an output directory is set, writes it to a timestamped file
// there as well.
func Generate(result *plan.Result, config Config) error {
	var write func(io.Writer, *plan.Result) error
	switch config.Format {
	case "text":
		write = func(w io.Writer, r *plan.Result) error {
			return WriteText(w, r, config)
		}
	case "json":
		write = WriteJSON
	case "csv":
		write = WriteCSV
	case "xlsx":
		// XLSX is file-only; nothing sensible to print to stdout.
		return generateXLSXFile(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}

	if err := write(os.Stdout, result); err != nil {
		return err
	}

	if config.OutputDir != "" {
		path := outputPath(config.OutputDir, "requirements", config.Format)
		file, err := createOutputFile(path)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := write(file, result); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", path)
	}

	return nil
}

// WriteText writes a human-readable requirement report.
func WriteText(w io.Writer, result *plan.Result, config Config) error {
	fmt.Fprintf(w, "📊 Material Requirements Summary\n")
	fmt.Fprintf(w, "================================\n\n")

	fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(w, "Materials: %d\n", result.MaterialCount)
	fmt.Fprintf(w, "Production Steps: %d\n", len(result.Steps))
	if config.ResolveTime > 0 {
		fmt.Fprintf(w, "Resolve Time: %v\n", config.ResolveTime)
	}
	if result.Partial {
		fmt.Fprintf(w, "⚠️  Partial result: %d request(s) dropped after catalog failures\n", len(result.FailedRequests))
	}
	fmt.Fprintln(w)

	if len(result.Breakdown) > 0 {
		fmt.Fprintf(w, "🧵 Material Breakdown:\n")
		fmt.Fprintf(w, "%-15s %-25s %-12s %-12s %-12s %-10s\n",
			"Material ID", "Name", "Required", "Available", "Shortage", "Unit")
		fmt.Fprintf(w, "%-15s %-25s %-12s %-12s %-12s %-10s\n",
			"---------------", "-------------------------", "------------", "------------", "------------", "----------")

		for _, entry := range result.Breakdown {
			fmt.Fprintf(w, "%-15s %-25s %-12s %-12s %-12s %-10s\n",
				entry.MaterialID,
				entry.MaterialName,
				entry.TotalQuantity.String(),
				entry.AvailableStock.String(),
				entry.Shortage.String(),
				entry.Unit)
		}
		fmt.Fprintln(w)
	}

	if len(result.Steps) > 0 && config.Verbose {
		fmt.Fprintf(w, "🏭 Production Steps:\n")
		for _, step := range result.Steps {
			fmt.Fprintf(w, "Step %d: %s x %s (%s), stock on hand %s\n",
				step.Number, step.ProductName, step.Quantity.String(), step.Unit, step.StockOnHand.String())
			for _, line := range step.MaterialsNeeded {
				fmt.Fprintf(w, "  material: %-25s %s %s\n", line.MaterialName, line.Quantity.String(), line.Unit)
			}
			for _, line := range step.ProductsNeeded {
				fmt.Fprintf(w, "  product:  %-25s %s %s\n", line.MaterialName, line.Quantity.String(), line.Unit)
			}
		}
		fmt.Fprintln(w)
	}

	shortages := 0
	for _, entry := range result.Breakdown {
		if !entry.IsAvailable {
			shortages++
		}
	}
	if shortages > 0 {
		fmt.Fprintf(w, "⚠️  %d material(s) short of stock\n", shortages)
	} else {
		fmt.Fprintf(w, "✅ All materials available\n")
	}

	return nil
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, result *plan.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// WriteCSV writes the material breakdown as CSV.
func WriteCSV(w io.Writer, result *plan.Result) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"material_id", "material_name", "unit", "total_quantity", "available_stock", "shortage", "is_available"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, entry := range result.Breakdown {
		record := []string{
			entry.MaterialID,
			entry.MaterialName,
			entry.Unit,
			entry.TotalQuantity.String(),
			entry.AvailableStock.String(),
			entry.Shortage.String(),
			fmt.Sprintf("%t", entry.IsAvailable),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func generateXLSXFile(result *plan.Result, config Config) error {
	dir := config.OutputDir
	if dir == "" {
		dir = "."
	}
	path := outputPath(dir, "requirements", "xlsx")
	if err := ExportXLSX(result, path); err != nil {
		return err
	}
	fmt.Printf("Results written to %s\n", path)
	return nil
}

func outputPath(dir, name, format string) string {
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, timestamp, format))
}

func createOutputFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
