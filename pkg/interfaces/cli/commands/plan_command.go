package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/fabworks/fabplan/pkg/infrastructure/repositories/csv"
	"github.com/fabworks/fabplan/pkg/infrastructure/repositories/memory"
	"github.com/fabworks/fabplan/pkg/infrastructure/repositories/sqlite"
	"github.com/fabworks/fabplan/pkg/infrastructure/snapshot"
	"github.com/fabworks/fabplan/pkg/interfaces/cli/output"
	"github.com/fabworks/fabplan/pkg/logging"
	"github.com/fabworks/fabplan/pkg/metrics"
	"github.com/fabworks/fabplan/pkg/plan"
)

// Config holds configuration for the plan command
type Config struct {
	ScenarioDir   string
	ProductsFile  string
	MaterialsFile string
	RecipesFile   string
	DemandsFile   string
	DBPath        string

	Product  string
	Quantity string
	Unit     string

	OutputDir    string
	Format       string
	SnapshotFile string
	LogLevel     string
	LogFormat    string
	Verbose      bool
	Help         bool
}

// PlanCommand handles the main requirement resolution logic
type PlanCommand struct {
	config Config
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config) *PlanCommand {
	return &PlanCommand{
		config: config,
	}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  c.config.LogLevel,
		Format: c.config.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	catalogs, closer, err := c.openCatalogs()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	requests, err := c.buildRequests()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Printf("🧮 Resolving %d request(s)...\n", len(requests))
	}

	registry := prometheus.NewRegistry()
	resolverMetrics := metrics.NewResolverMetrics(registry)
	resolver := plan.NewResolverWith(catalogs, logger, resolverMetrics)

	startTime := time.Now()
	result, err := resolver.Resolve(ctx, requests)
	resolveTime := time.Since(startTime)

	if err != nil {
		return fmt.Errorf("error resolving requirements: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("✅ Resolution completed in %v\n", resolveTime)
		if result.CycleSkips > 0 {
			fmt.Printf("  Recipe cycles skipped: %d\n", result.CycleSkips)
		}
		if result.UnresolvedRefs > 0 {
			fmt.Printf("  Unresolved references: %d\n", result.UnresolvedRefs)
		}
		fmt.Println()
	}

	outputConfig := output.Config{
		Format:      c.config.Format,
		OutputDir:   c.config.OutputDir,
		Verbose:     c.config.Verbose,
		ResolveTime: resolveTime,
	}

	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.SnapshotFile != "" {
		if err := snapshot.Save(c.config.SnapshotFile, result); err != nil {
			return fmt.Errorf("error writing snapshot: %w", err)
		}
		if c.config.Verbose {
			fmt.Printf("💾 Snapshot written to %s\n", c.config.SnapshotFile)
		}
	}

	if c.config.Verbose {
		fmt.Println("🏁 Requirement resolution complete!")
	}

	return nil
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	if c.config.DBPath == "" && c.config.ScenarioDir == "" &&
		(c.config.ProductsFile == "" || c.config.MaterialsFile == "" ||
			c.config.RecipesFile == "") {
		return fmt.Errorf("must specify -db, -scenario, or individual CSV files")
	}
	if c.config.DemandsFile == "" && c.config.ScenarioDir == "" && c.config.Product == "" {
		return fmt.Errorf("must specify -demands or a -product/-quantity pair")
	}
	return nil
}

// openCatalogs builds the catalog bundle from either a SQLite database
// or CSV files loaded into memory repositories. The returned closer is
// non-nil only for the database path.
func (c *PlanCommand) openCatalogs() (plan.Catalogs, func(), error) {
	if c.config.DBPath != "" {
		if c.config.Verbose {
			fmt.Printf("📂 Opening catalog database %s...\n", c.config.DBPath)
		}
		store, err := sqlite.Open(c.config.DBPath)
		if err != nil {
			return plan.Catalogs{}, nil, fmt.Errorf("error opening database: %w", err)
		}
		catalogs := plan.Catalogs{
			Products:  store,
			Materials: store,
			Recipes:   store,
		}
		return catalogs, func() { _ = store.Close() }, nil
	}

	files, err := c.resolveInputFiles()
	if err != nil {
		return plan.Catalogs{}, nil, fmt.Errorf("failed to resolve input files: %w", err)
	}

	if c.config.Verbose {
		fmt.Println("📂 Loading catalogs from CSV files...")
	}

	loader := csv.NewLoader()

	products, err := loader.LoadProducts(files["Products"])
	if err != nil {
		return plan.Catalogs{}, nil, fmt.Errorf("error loading products: %w", err)
	}

	materials, err := loader.LoadMaterials(files["Materials"])
	if err != nil {
		return plan.Catalogs{}, nil, fmt.Errorf("error loading materials: %w", err)
	}

	recipes, err := loader.LoadRecipes(files["Recipes"])
	if err != nil {
		return plan.Catalogs{}, nil, fmt.Errorf("error loading recipes: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("✅ Catalogs loaded:\n")
		fmt.Printf("  Products: %d\n", len(products))
		fmt.Printf("  Materials: %d\n", len(materials))
		fmt.Printf("  Recipes: %d\n", len(recipes))
		fmt.Println()
	}

	productRepo := memory.NewProductRepository()
	productRepo.LoadProducts(products)

	materialRepo := memory.NewMaterialRepository()
	materialRepo.LoadMaterials(materials)

	recipeRepo := memory.NewRecipeRepository()
	for _, recipe := range recipes {
		recipeRepo.AddRecipe(recipe)
	}

	catalogs := plan.Catalogs{
		Products:  productRepo,
		Materials: materialRepo,
		Recipes:   recipeRepo,
	}
	return catalogs, nil, nil
}

// buildRequests assembles the top-level requests from the demands CSV
// or from the -product/-quantity flags.
func (c *PlanCommand) buildRequests() ([]plan.Request, error) {
	demandsPath := c.config.DemandsFile
	if demandsPath == "" && c.config.ScenarioDir != "" && c.config.Product == "" {
		demandsPath = filepath.Join(c.config.ScenarioDir, "demands.csv")
	}

	if demandsPath != "" {
		loader := csv.NewLoader()
		requests, err := loader.LoadDemands(demandsPath)
		if err != nil {
			return nil, fmt.Errorf("error loading demands: %w", err)
		}
		return requests, nil
	}

	quantity, err := decimal.NewFromString(c.config.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", c.config.Quantity, err)
	}

	return []plan.Request{{
		ProductID: c.config.Product,
		Quantity:  quantity,
		Unit:      c.config.Unit,
	}}, nil
}

// resolveInputFiles determines the actual catalog file paths to use
func (c *PlanCommand) resolveInputFiles() (map[string]string, error) {
	var productsPath, materialsPath, recipesPath string

	if c.config.ScenarioDir != "" {
		productsPath = filepath.Join(c.config.ScenarioDir, "products.csv")
		materialsPath = filepath.Join(c.config.ScenarioDir, "materials.csv")
		recipesPath = filepath.Join(c.config.ScenarioDir, "recipes.csv")
	} else {
		productsPath = c.config.ProductsFile
		materialsPath = c.config.MaterialsFile
		recipesPath = c.config.RecipesFile
	}

	files := map[string]string{
		"Products":  productsPath,
		"Materials": materialsPath,
		"Recipes":   recipesPath,
	}

	for name, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
	}

	return files, nil
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Printf(`fabplan - Recipe requirement resolution for fabrication planning

USAGE:
    fabplan -scenario <directory>                # Use scenario directory with CSV files
    fabplan -db <file> -product <id> -quantity 3 # Use SQLite catalogs with an inline demand
    fabplan -products <file> -materials <file> -recipes <file> -demands <file>

OPTIONS:
    -scenario <dir>     Path to scenario directory containing CSV files
    -db <file>          Path to SQLite catalog database
    -products <file>    Path to products CSV file
    -materials <file>   Path to materials CSV file
    -recipes <file>     Path to recipes CSV file
    -demands <file>     Path to demands CSV file
    -product <id>       Product ID for a single inline demand
    -quantity <n>       Quantity for the inline demand
    -unit <u>           Unit for the inline demand (default: pcs)
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json, csv, xlsx (default: text)
    -snapshot <file>    Write a binary snapshot of the result (msgpack)
    -verbose            Enable verbose output
    -help               Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── products.csv    # Product master data with dimensions and stock
    ├── materials.csv   # Raw material catalog with stock levels
    ├── recipes.csv     # Active recipes, one material line per row
    └── demands.csv     # Top-level production demands

CSV FILE FORMATS:

products.csv:
    id,name,type,length,width,length_unit,width_unit,unit,current_stock,weight,gsm,individual_tracking,units_available
    CARPET_A,Berber Carpet,carpet,2,1.5,m,m,pcs,10,,,false,

materials.csv:
    id,name,unit,current_stock,available_stock
    WOOL,Wool Fiber,kg,120,100

recipes.csv:
    product_id,version,active,material_id,material_name,quantity_per_sqm,unit,position
    CARPET_A,1,true,WOOL,Wool Fiber,0.5,kg,1

demands.csv:
    product_id,product_name,quantity,unit
    CARPET_A,Berber Carpet,3,pcs

EXAMPLES:
    # Run a scenario directory
    fabplan -scenario examples/carpet_basic -verbose

    # Resolve a single product against SQLite catalogs
    fabplan -db data/catalogs.db -product CARPET_A -quantity 3

    # Generate JSON output into a directory
    fabplan -scenario examples/carpet_basic -format json -output results/

    # Export the breakdown as a spreadsheet
    fabplan -scenario examples/carpet_basic -format xlsx -output results/

    # Keep a snapshot of the run for later inspection
    fabplan -scenario examples/carpet_basic -snapshot results/run.bin
`)
}
