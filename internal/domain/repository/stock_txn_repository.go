package repository

import (
	"context"
	"time"

	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockTxnFilter filtros para listar asientos de un ítem.
type StockTxnFilter struct {
	From    *time.Time
	To      *time.Time
	TxnType string
	Limit   int
	Offset  int
}

// StockTxnRepository puerto del libro de stock: solo inserción.
type StockTxnRepository interface {
	Append(ctx context.Context, txns ...*entity.StockTxn) error
	// ListByItem asientos del ítem, más recientes primero.
	ListByItem(ctx context.Context, itemID string, f StockTxnFilter) ([]*entity.StockTxn, error)
	ListByRef(ctx context.Context, refCollection, refID string) ([]*entity.StockTxn, error)
	// SumByItem Σ qtyDelta del ítem.
	SumByItem(ctx context.Context, itemID string) (decimal.Decimal, error)
}
