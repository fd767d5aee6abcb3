package repository

import (
	"context"

	"github.com/jhoicas/bodega-erp/internal/domain/entity"
)

// ItemBatchRepository puerto del almacén de lotes. Los lotes nunca se borran.
type ItemBatchRepository interface {
	Create(ctx context.Context, batch *entity.ItemBatch) error
	// Update persiste QtyInitial, QtyRemaining, UnitCost, QCStatus, IsClosed y metadatos.
	Update(ctx context.Context, batch *entity.ItemBatch) error
	GetByID(ctx context.Context, id string) (*entity.ItemBatch, error)
	// GetByIDsForUpdate lee y bloquea los lotes indicados.
	GetByIDsForUpdate(ctx context.Context, ids []string) (map[string]*entity.ItemBatch, error)
	// ListByItem lotes del ítem; openOnly excluye cerrados y agotados.
	ListByItem(ctx context.Context, itemID string, openOnly bool) ([]*entity.ItemBatch, error)
	// ListByItemForUpdate lotes abiertos del ítem bloqueados para consumo.
	ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.ItemBatch, error)
}
