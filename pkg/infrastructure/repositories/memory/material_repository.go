package memory

import (
	"context"
	"fmt"

	"github.com/fabworks/fabplan/pkg/plan"
)

// MaterialRepository provides in-memory raw material catalog storage.
type MaterialRepository struct {
	materials    []plan.RawMaterial
	materialsMap map[string]int
}

// NewMaterialRepository creates a new in-memory material repository.
func NewMaterialRepository() *MaterialRepository {
	return &MaterialRepository{
		materialsMap: make(map[string]int),
	}
}

// Verify interface compliance
var _ plan.MaterialCatalog = (*MaterialRepository)(nil)

// AddMaterial adds a raw material to the repository, replacing any
// existing entry with the same id.
func (r *MaterialRepository) AddMaterial(material plan.RawMaterial) {
	if index, exists := r.materialsMap[material.ID]; exists {
		r.materials[index] = material
		return
	}
	r.materialsMap[material.ID] = len(r.materials)
	r.materials = append(r.materials, material)
}

// LoadMaterials loads a batch of raw materials into the repository.
func (r *MaterialRepository) LoadMaterials(materials []plan.RawMaterial) {
	for _, m := range materials {
		r.AddMaterial(m)
	}
}

// GetMaterialByID returns the raw material with the given id.
func (r *MaterialRepository) GetMaterialByID(ctx context.Context, id string) (*plan.RawMaterial, error) {
	index, exists := r.materialsMap[id]
	if !exists {
		return nil, fmt.Errorf("material %s: %w", id, plan.ErrNotFound)
	}
	return &r.materials[index], nil
}

// GetAllMaterials returns all raw materials in insertion order.
func (r *MaterialRepository) GetAllMaterials(ctx context.Context) ([]plan.RawMaterial, error) {
	return r.materials, nil
}
