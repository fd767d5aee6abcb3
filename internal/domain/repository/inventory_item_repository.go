package repository

import (
	"context"

	"github.com/jhoicas/bodega-erp/internal/domain/entity"
)

// InventoryItemRepository define el puerto de persistencia para InventoryItem (DIP).
// Stock, AverageCost y LatestPurchase solo se escriben vía Update dentro de la transacción del libro.
type InventoryItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// GetByIDsForUpdate lee y bloquea los ítems indicados (SELECT ... FOR UPDATE).
	// Los ids inexistentes simplemente no aparecen en el mapa.
	GetByIDsForUpdate(ctx context.Context, ids []string) (map[string]*entity.InventoryItem, error)
	Update(ctx context.Context, item *entity.InventoryItem) error
	List(ctx context.Context, limit, offset int) ([]*entity.InventoryItem, error)
	// BelowSafetyStock ítems con stock < safetyStock, mayor déficit primero.
	BelowSafetyStock(ctx context.Context) ([]*entity.InventoryItem, error)
}
