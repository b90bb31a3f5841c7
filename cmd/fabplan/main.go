package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fabworks/fabplan/pkg/config"
	"github.com/fabworks/fabplan/pkg/interfaces/cli/commands"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		dbPath        = flag.String("db", cfg.DBPath, "Path to SQLite catalog database")
		productsFile  = flag.String("products", "", "Path to products CSV file")
		materialsFile = flag.String("materials", "", "Path to materials CSV file")
		recipesFile   = flag.String("recipes", "", "Path to recipes CSV file")
		demandsFile   = flag.String("demands", "", "Path to demands CSV file")
		product       = flag.String("product", "", "Product ID for a single inline demand")
		quantity      = flag.String("quantity", "1", "Quantity for the inline demand")
		unit          = flag.String("unit", "pcs", "Unit for the inline demand")
		outputDir     = flag.String("output", cfg.OutputDir, "Output directory for results (optional)")
		format        = flag.String("format", "text", "Output format: text, json, csv, xlsx")
		snapshotFile  = flag.String("snapshot", "", "Write a binary snapshot of the result")
		verbose       = flag.Bool("verbose", false, "Enable verbose output")
		help          = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// Create command configuration
	cmdConfig := commands.Config{
		ScenarioDir:   *scenarioDir,
		DBPath:        *dbPath,
		ProductsFile:  *productsFile,
		MaterialsFile: *materialsFile,
		RecipesFile:   *recipesFile,
		DemandsFile:   *demandsFile,
		Product:       *product,
		Quantity:      *quantity,
		Unit:          *unit,
		OutputDir:     *outputDir,
		Format:        *format,
		SnapshotFile:  *snapshotFile,
		LogLevel:      cfg.LogLevel,
		LogFormat:     cfg.LogFormat,
		Verbose:       *verbose,
		Help:          *help,
	}

	// Create and execute command
	cmd := commands.NewPlanCommand(cmdConfig)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
