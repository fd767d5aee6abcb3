package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/bodega-erp/internal/application/dto"
	"github.com/shopspring/decimal"
)

var idealFactor = decimal.NewFromFloat(1.5)

// LowStock devuelve los ítems bajo su stock de seguridad con la cantidad sugerida de pedido,
// el costo estimado a precio de la última compra y la prioridad (mayor déficit primero).
func (uc *StockUseCase) LowStock(ctx context.Context) ([]dto.LowStockDTO, error) {
	items, err := uc.itemRepo.BelowSafetyStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockDTO, 0, len(items))
	for _, it := range items {
		ideal := it.SafetyStock.Mul(idealFactor)
		suggested := ideal.Sub(it.Stock)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		unitCost := it.AverageCost
		if it.LatestPurchase != nil {
			unitCost = it.LatestPurchase.UnitCost
		}
		out = append(out, dto.LowStockDTO{
			InventoryItemID:    it.ID,
			SKU:                it.SKU,
			Name:               it.Name,
			UOM:                it.UOM,
			CurrentStock:       it.Stock,
			SafetyStock:        it.SafetyStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           unitCost,
			EstimatedOrderCost: suggested.Mul(unitCost),
		})
	}

	// Mayor déficit absoluto primero; empate por nombre.
	sort.SliceStable(out, func(i, j int) bool {
		defA := out[i].SafetyStock.Sub(out[i].CurrentStock)
		defB := out[j].SafetyStock.Sub(out[j].CurrentStock)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}
