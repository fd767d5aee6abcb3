package inventory

import (
	"context"

	"github.com/jhoicas/bodega-erp/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Items     repository.InventoryItemRepository
	Batches   repository.ItemBatchRepository
	Txns      repository.StockTxnRepository
	Purchases repository.PurchaseRepository
	Suppliers repository.SupplierRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: fn devuelve error → Rollback, nada persiste.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
