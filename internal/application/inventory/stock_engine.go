package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/bodega-erp/internal/domain/inventory"
)

// ApplyPlan escribe un plan de reconciliación con los repos de la transacción en curso.
// Orden: lotes nuevos, lotes modificados, asientos, agregados de ítem.
// Cualquier error debe abortar la transacción del llamador.
func ApplyPlan(ctx context.Context, repos Repos, plan *inventory.Plan) error {
	for _, b := range plan.NewBatches {
		if err := repos.Batches.Create(ctx, b); err != nil {
			return fmt.Errorf("crear lote %s: %w", b.InternalBatchCode, err)
		}
	}
	for _, b := range plan.UpdatedBatches {
		if err := repos.Batches.Update(ctx, b); err != nil {
			return fmt.Errorf("actualizar lote %s: %w", b.InternalBatchCode, err)
		}
	}
	if len(plan.Txns) > 0 {
		if err := repos.Txns.Append(ctx, plan.Txns...); err != nil {
			return fmt.Errorf("registrar asientos: %w", err)
		}
	}
	for _, it := range plan.Items {
		if err := repos.Items.Update(ctx, it); err != nil {
			return fmt.Errorf("actualizar ítem %s: %w", it.ID, err)
		}
	}
	return nil
}
