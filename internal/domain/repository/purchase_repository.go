package repository

import (
	"context"
	"time"

	"github.com/jhoicas/bodega-erp/internal/domain/entity"
)

// PurchaseFilter filtros del listado de compras.
type PurchaseFilter struct {
	SupplierID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// PurchaseRepository define el puerto de persistencia para Purchase (DIP).
type PurchaseRepository interface {
	Create(ctx context.Context, p *entity.Purchase) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	// GetByIDForUpdate lee y bloquea el documento dentro de la transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Purchase, error)
	Update(ctx context.Context, p *entity.Purchase) error
	Delete(ctx context.Context, id string) error
	// LatestWithItem compra más reciente (por fecha de pedido) con alguna línea del ítem,
	// sin contar excludeID; nil si no hay.
	LatestWithItem(ctx context.Context, itemID, excludeID string) (*entity.Purchase, error)
	// List ordenado por fecha de pedido descendente.
	List(ctx context.Context, f PurchaseFilter) ([]*entity.Purchase, error)
}
