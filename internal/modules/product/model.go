// README: Product catalog model with per-product supported stages.
package product

import "atelier/internal/types"

type Product struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
	SKU  string   `json:"sku"`
	// StageIDs is the set of workflow stages this product passes through.
	// The transition walk skips stages absent from this set.
	StageIDs []types.ID `json:"stage_ids"`
}

// Supports reports whether the product's workflow includes the given stage.
func (p *Product) Supports(stageID types.ID) bool {
	for _, id := range p.StageIDs {
		if id == stageID {
			return true
		}
	}
	return false
}
