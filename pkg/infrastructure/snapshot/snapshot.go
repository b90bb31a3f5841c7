// Package snapshot archives resolution results to disk so a planning
// run can be re-rendered later without recomputation. Results are
// encoded with msgpack; quantities travel as decimal strings to stay
// exact across encode/decode.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fabworks/fabplan/pkg/plan"
)

type resultRecord struct {
	RunID          string           `msgpack:"run_id"`
	Breakdown      []materialRecord `msgpack:"breakdown"`
	Steps          []stepRecord     `msgpack:"steps"`
	MaterialCount  int              `msgpack:"material_count"`
	Partial        bool             `msgpack:"partial"`
	FailedRequests []string         `msgpack:"failed_requests"`
	CycleSkips     int              `msgpack:"cycle_skips"`
	UnresolvedRefs int              `msgpack:"unresolved_refs"`
}

type materialRecord struct {
	MaterialID     string         `msgpack:"material_id"`
	MaterialName   string         `msgpack:"material_name"`
	Unit           string         `msgpack:"unit"`
	TotalQuantity  string         `msgpack:"total_quantity"`
	AvailableStock string         `msgpack:"available_stock"`
	Shortage       string         `msgpack:"shortage"`
	IsAvailable    bool           `msgpack:"is_available"`
	Sources        []sourceRecord `msgpack:"sources"`
}

type sourceRecord struct {
	ProductID   string `msgpack:"product_id"`
	ProductName string `msgpack:"product_name"`
	Quantity    string `msgpack:"quantity"`
}

type stepRecord struct {
	Number          int          `msgpack:"number"`
	ProductID       string       `msgpack:"product_id"`
	ProductName     string       `msgpack:"product_name"`
	Quantity        string       `msgpack:"quantity"`
	Unit            string       `msgpack:"unit"`
	StockOnHand     string       `msgpack:"stock_on_hand"`
	MaterialsNeeded []lineRecord `msgpack:"materials_needed"`
	ProductsNeeded  []lineRecord `msgpack:"products_needed"`
}

type lineRecord struct {
	MaterialID   string `msgpack:"material_id"`
	MaterialName string `msgpack:"material_name"`
	Quantity     string `msgpack:"quantity"`
	Unit         string `msgpack:"unit"`
}

// Save writes a resolution result to path, creating directories as
// needed.
func Save(path string, result *plan.Result) error {
	data, err := msgpack.Marshal(toRecord(result))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads a resolution result back from path.
func Load(path string) (*plan.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var record resultRecord
	if err := msgpack.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return fromRecord(record)
}

func toRecord(r *plan.Result) resultRecord {
	record := resultRecord{
		RunID:          r.RunID,
		MaterialCount:  r.MaterialCount,
		Partial:        r.Partial,
		FailedRequests: r.FailedRequests,
		CycleSkips:     r.CycleSkips,
		UnresolvedRefs: r.UnresolvedRefs,
	}

	for _, m := range r.Breakdown {
		mr := materialRecord{
			MaterialID:     m.MaterialID,
			MaterialName:   m.MaterialName,
			Unit:           m.Unit,
			TotalQuantity:  m.TotalQuantity.String(),
			AvailableStock: m.AvailableStock.String(),
			Shortage:       m.Shortage.String(),
			IsAvailable:    m.IsAvailable,
		}
		for _, s := range m.Sources {
			mr.Sources = append(mr.Sources, sourceRecord{
				ProductID:   s.ProductID,
				ProductName: s.ProductName,
				Quantity:    s.Quantity.String(),
			})
		}
		record.Breakdown = append(record.Breakdown, mr)
	}

	for _, s := range r.Steps {
		record.Steps = append(record.Steps, stepRecord{
			Number:          s.Number,
			ProductID:       s.ProductID,
			ProductName:     s.ProductName,
			Quantity:        s.Quantity.String(),
			Unit:            s.Unit,
			StockOnHand:     s.StockOnHand.String(),
			MaterialsNeeded: toLineRecords(s.MaterialsNeeded),
			ProductsNeeded:  toLineRecords(s.ProductsNeeded),
		})
	}

	return record
}

func toLineRecords(lines []plan.StepLine) []lineRecord {
	var records []lineRecord
	for _, l := range lines {
		records = append(records, lineRecord{
			MaterialID:   l.MaterialID,
			MaterialName: l.MaterialName,
			Quantity:     l.Quantity.String(),
			Unit:         l.Unit,
		})
	}
	return records
}

func fromRecord(record resultRecord) (*plan.Result, error) {
	result := &plan.Result{
		RunID:          record.RunID,
		MaterialCount:  record.MaterialCount,
		Partial:        record.Partial,
		FailedRequests: record.FailedRequests,
		CycleSkips:     record.CycleSkips,
		UnresolvedRefs: record.UnresolvedRefs,
	}

	for _, m := range record.Breakdown {
		entry := plan.MaterialRequirement{
			MaterialID:   m.MaterialID,
			MaterialName: m.MaterialName,
			Unit:         m.Unit,
			IsAvailable:  m.IsAvailable,
		}
		var err error
		if entry.TotalQuantity, err = decimal.NewFromString(m.TotalQuantity); err != nil {
			return nil, fmt.Errorf("material %s total_quantity: %w", m.MaterialID, err)
		}
		if entry.AvailableStock, err = decimal.NewFromString(m.AvailableStock); err != nil {
			return nil, fmt.Errorf("material %s available_stock: %w", m.MaterialID, err)
		}
		if entry.Shortage, err = decimal.NewFromString(m.Shortage); err != nil {
			return nil, fmt.Errorf("material %s shortage: %w", m.MaterialID, err)
		}
		for _, s := range m.Sources {
			quantity, err := decimal.NewFromString(s.Quantity)
			if err != nil {
				return nil, fmt.Errorf("source %s quantity: %w", s.ProductID, err)
			}
			entry.Sources = append(entry.Sources, plan.RequirementSource{
				ProductID:   s.ProductID,
				ProductName: s.ProductName,
				Quantity:    quantity,
			})
		}
		result.Breakdown = append(result.Breakdown, entry)
	}

	for _, s := range record.Steps {
		step := plan.ProductionStep{
			Number:      s.Number,
			ProductID:   s.ProductID,
			ProductName: s.ProductName,
			Unit:        s.Unit,
		}
		var err error
		if step.Quantity, err = decimal.NewFromString(s.Quantity); err != nil {
			return nil, fmt.Errorf("step %d quantity: %w", s.Number, err)
		}
		if step.StockOnHand, err = decimal.NewFromString(s.StockOnHand); err != nil {
			return nil, fmt.Errorf("step %d stock: %w", s.Number, err)
		}
		if step.MaterialsNeeded, err = fromLineRecords(s.MaterialsNeeded); err != nil {
			return nil, err
		}
		if step.ProductsNeeded, err = fromLineRecords(s.ProductsNeeded); err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, step)
	}

	return result, nil
}

func fromLineRecords(records []lineRecord) ([]plan.StepLine, error) {
	var lines []plan.StepLine
	for _, r := range records {
		quantity, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			return nil, fmt.Errorf("line %s quantity: %w", r.MaterialID, err)
		}
		lines = append(lines, plan.StepLine{
			MaterialID:   r.MaterialID,
			MaterialName: r.MaterialName,
			Quantity:     quantity,
			Unit:         r.Unit,
		})
	}
	return lines, nil
}
