package repository

import (
	"context"

	"github.com/jhoicas/bodega-erp/internal/domain/entity"
)

// SupplierRepository define el puerto de persistencia para Supplier (DIP).
type SupplierRepository interface {
	Create(ctx context.Context, s *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	// FindByNameKey busca por nombre normalizado y bloquea la fila; nil si no existe.
	FindByNameKey(ctx context.Context, nameKey string) (*entity.Supplier, error)
	Update(ctx context.Context, s *entity.Supplier) error
	List(ctx context.Context, limit, offset int) ([]*entity.Supplier, error)
}
