// Package sqlite provides a SQLite-backed implementation of the
// catalog interfaces, so planning data survives between CLI runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fabworks/fabplan/pkg/plan"
	"github.com/fabworks/fabplan/pkg/units"
)

// Store wraps a SQLite database holding the three catalogs. Decimal
// columns are stored as TEXT to keep quantities exact.
type Store struct {
	conn *sql.DB
}

// Verify interface compliance
var (
	_ plan.ProductCatalog  = (*Store)(nil)
	_ plan.MaterialCatalog = (*Store)(nil)
	_ plan.RecipeCatalog   = (*Store)(nil)
)

// Open opens (creating if necessary) the catalog database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	store := &Store{conn: conn}
	if err := store.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT,
  length TEXT,
  width TEXT,
  length_unit TEXT,
  width_unit TEXT,
  unit TEXT,
  weight TEXT,
  gsm TEXT,
  current_stock TEXT NOT NULL DEFAULT '0',
  individual_tracking INTEGER NOT NULL DEFAULT 0,
  units_available TEXT
);

CREATE TABLE IF NOT EXISTS raw_materials (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  unit TEXT,
  current_stock TEXT NOT NULL DEFAULT '0',
  available_stock TEXT
);

CREATE TABLE IF NOT EXISTS recipes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL,
  version INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 0,
  UNIQUE (product_id, version)
);

CREATE TABLE IF NOT EXISTS recipe_materials (
  recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  material_id TEXT NOT NULL,
  material_name TEXT,
  material_type TEXT NOT NULL,
  quantity_per_sqm TEXT NOT NULL,
  unit TEXT,
  PRIMARY KEY (recipe_id, position)
);

CREATE INDEX IF NOT EXISTS idx_recipes_product_active ON recipes(product_id, is_active);
`
	_, err := s.conn.Exec(schema)
	return err
}

// UpsertProduct inserts or replaces a product row.
func (s *Store) UpsertProduct(ctx context.Context, p plan.Product) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO products (id, name, type, length, width, length_unit, width_unit, unit, weight, gsm, current_stock, individual_tracking, units_available)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name, type=excluded.type, length=excluded.length, width=excluded.width,
  length_unit=excluded.length_unit, width_unit=excluded.width_unit, unit=excluded.unit,
  weight=excluded.weight, gsm=excluded.gsm, current_stock=excluded.current_stock,
  individual_tracking=excluded.individual_tracking, units_available=excluded.units_available`,
		p.ID, p.Name, string(p.Type),
		decimalString(p.Length), decimalString(p.Width),
		p.LengthUnit, p.WidthUnit, p.Unit, p.Weight,
		decimalString(p.GSM), p.CurrentStock.String(),
		boolToInt(p.IndividualTracking), decimalString(p.UnitsAvailable))
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// UpsertMaterial inserts or replaces a raw material row.
func (s *Store) UpsertMaterial(ctx context.Context, m plan.RawMaterial) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO raw_materials (id, name, unit, current_stock, available_stock)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name, unit=excluded.unit,
  current_stock=excluded.current_stock, available_stock=excluded.available_stock`,
		m.ID, m.Name, m.Unit, m.CurrentStock.String(), decimalString(m.AvailableStock))
	if err != nil {
		return fmt.Errorf("upsert material %s: %w", m.ID, err)
	}
	return nil
}

// SaveRecipe stores a recipe version with its lines. Saving an active
// recipe deactivates all other versions for the same product.
func (s *Store) SaveRecipe(ctx context.Context, r plan.Recipe) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if r.IsActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE recipes SET is_active = 0 WHERE product_id = ?`, r.ProductID); err != nil {
			return fmt.Errorf("deactivate recipes for %s: %w", r.ProductID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipes WHERE product_id = ? AND version = ?`, r.ProductID, r.Version); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO recipes (product_id, version, is_active) VALUES (?, ?, ?)`,
		r.ProductID, r.Version, boolToInt(r.IsActive))
	if err != nil {
		return fmt.Errorf("insert recipe %s v%d: %w", r.ProductID, r.Version, err)
	}
	recipeID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, line := range r.Lines {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO recipe_materials (recipe_id, position, material_id, material_name, material_type, quantity_per_sqm, unit)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			recipeID, i, line.MaterialID, line.MaterialName, string(line.MaterialType),
			line.QuantityPerSqm.String(), line.Unit); err != nil {
			return fmt.Errorf("insert recipe line %d for %s: %w", i, r.ProductID, err)
		}
	}

	return tx.Commit()
}

// GetProductByID returns the product with the given id.
func (s *Store) GetProductByID(ctx context.Context, id string) (*plan.Product, error) {
	row := s.conn.QueryRowContext(ctx, `
SELECT id, name, type, length, width, length_unit, width_unit, unit, weight, gsm, current_stock, individual_tracking, units_available
FROM products WHERE id = ?`, id)

	var (
		p                              plan.Product
		productType                    string
		length, width, gsm, unitsAvail sql.NullString
		lengthUnit, widthUnit, unit    sql.NullString
		weight                         sql.NullString
		currentStock                   string
		tracking                       int
	)
	err := row.Scan(&p.ID, &p.Name, &productType, &length, &width,
		&lengthUnit, &widthUnit, &unit, &weight, &gsm, &currentStock, &tracking, &unitsAvail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, plan.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query product %s: %w", id, err)
	}

	p.Type = units.ProductType(productType)
	p.LengthUnit = lengthUnit.String
	p.WidthUnit = widthUnit.String
	p.Unit = unit.String
	p.Weight = weight.String
	p.IndividualTracking = tracking != 0

	if p.Length, err = nullDecimal(length); err != nil {
		return nil, fmt.Errorf("product %s length: %w", id, err)
	}
	if p.Width, err = nullDecimal(width); err != nil {
		return nil, fmt.Errorf("product %s width: %w", id, err)
	}
	if p.GSM, err = nullDecimal(gsm); err != nil {
		return nil, fmt.Errorf("product %s gsm: %w", id, err)
	}
	if p.UnitsAvailable, err = nullDecimal(unitsAvail); err != nil {
		return nil, fmt.Errorf("product %s units_available: %w", id, err)
	}
	if p.CurrentStock, err = decimal.NewFromString(currentStock); err != nil {
		return nil, fmt.Errorf("product %s current_stock: %w", id, err)
	}

	return &p, nil
}

// GetMaterialByID returns the raw material with the given id.
func (s *Store) GetMaterialByID(ctx context.Context, id string) (*plan.RawMaterial, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, unit, current_stock, available_stock FROM raw_materials WHERE id = ?`, id)

	var (
		m            plan.RawMaterial
		unit         sql.NullString
		currentStock string
		available    sql.NullString
	)
	err := row.Scan(&m.ID, &m.Name, &unit, &currentStock, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("material %s: %w", id, plan.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query material %s: %w", id, err)
	}

	m.Unit = unit.String
	if m.CurrentStock, err = decimal.NewFromString(currentStock); err != nil {
		return nil, fmt.Errorf("material %s current_stock: %w", id, err)
	}
	if m.AvailableStock, err = nullDecimal(available); err != nil {
		return nil, fmt.Errorf("material %s available_stock: %w", id, err)
	}

	return &m, nil
}

// GetActiveRecipe returns the active recipe for a product with its
// lines in stored order.
func (s *Store) GetActiveRecipe(ctx context.Context, productID string) (*plan.Recipe, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, version FROM recipes WHERE product_id = ? AND is_active = 1`, productID)

	var (
		recipeID int64
		version  int
	)
	err := row.Scan(&recipeID, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active recipe for product %s: %w", productID, plan.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query recipe for %s: %w", productID, err)
	}

	rows, err := s.conn.QueryContext(ctx, `
SELECT material_id, material_name, material_type, quantity_per_sqm, unit
FROM recipe_materials WHERE recipe_id = ? ORDER BY position`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query recipe lines for %s: %w", productID, err)
	}
	defer rows.Close()

	recipe := &plan.Recipe{ProductID: productID, Version: version, IsActive: true}
	for rows.Next() {
		var (
			line         plan.RecipeLine
			materialType string
			name, unit   sql.NullString
			rate         string
		)
		if err := rows.Scan(&line.MaterialID, &name, &materialType, &rate, &unit); err != nil {
			return nil, fmt.Errorf("scan recipe line for %s: %w", productID, err)
		}
		line.MaterialName = name.String
		line.MaterialType = plan.MaterialType(materialType)
		line.Unit = unit.String
		if line.QuantityPerSqm, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("recipe line rate for %s: %w", productID, err)
		}
		recipe.Lines = append(recipe.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe lines for %s: %w", productID, err)
	}

	return recipe, nil
}

func decimalString(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
