package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/bodega-erp/internal/application/dto"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/inventory"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
	"github.com/jhoicas/bodega-erp/pkg/logger"
	"github.com/shopspring/decimal"
)

// StockUseCase catálogo de ítems, consultas del libro y movimientos que no nacen de una compra
// (consumo de producción, venta directa, salida de producción, ajustes, control de calidad).
// Toda escritura pasa por el TxRunner con bloqueo de filas (SELECT FOR UPDATE).
type StockUseCase struct {
	txRunner  TxRunner
	itemRepo  repository.InventoryItemRepository
	batchRepo repository.ItemBatchRepository
	txnRepo   repository.StockTxnRepository
	policy    inventory.CostingPolicy
	log       *logger.Logger
}

// NewStockUseCase construye el caso de uso. policy nil = lote congelado.
func NewStockUseCase(
	txRunner TxRunner,
	itemRepo repository.InventoryItemRepository,
	batchRepo repository.ItemBatchRepository,
	txnRepo repository.StockTxnRepository,
	policy inventory.CostingPolicy,
	log *logger.Logger,
) *StockUseCase {
	if policy == nil {
		policy = inventory.FrozenLot{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StockUseCase{
		txRunner:  txRunner,
		itemRepo:  itemRepo,
		batchRepo: batchRepo,
		txnRepo:   txnRepo,
		policy:    policy,
		log:       log.Component("stock"),
	}
}

// CreateItem da de alta un ítem con stock cero.
func (uc *StockUseCase) CreateItem(ctx context.Context, in dto.CreateItemRequest) (*dto.InventoryItemResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.UOM) == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.SafetyStock.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	item := &entity.InventoryItem{
		ID:          uuid.New().String(),
		Name:        name,
		SKU:         strings.TrimSpace(in.SKU),
		CategoryID:  in.CategoryID,
		UOM:         strings.TrimSpace(in.UOM),
		Stock:       decimal.Zero,
		SafetyStock: in.SafetyStock,
		AverageCost: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	out := dto.ItemResponse(item)
	return &out, nil
}

// GetItem obtiene un ítem por id.
func (uc *StockUseCase) GetItem(ctx context.Context, id string) (*dto.InventoryItemResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.ItemResponse(item)
	return &out, nil
}

// ListItems lista el catálogo paginado.
func (uc *StockUseCase) ListItems(ctx context.Context, page dto.PageRequest) ([]dto.InventoryItemResponse, error) {
	page.DefaultPage()
	items, err := uc.itemRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.ItemResponse(it))
	}
	return out, nil
}

// ListBatches lotes de un ítem; openOnly excluye cerrados y agotados.
func (uc *StockUseCase) ListBatches(ctx context.Context, itemID string, openOnly bool) ([]dto.ItemBatchResponse, error) {
	if err := uc.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	batches, err := uc.batchRepo.ListByItem(ctx, itemID, openOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemBatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.BatchResponse(b))
	}
	return out, nil
}

// ListTransactions asientos de un ítem, más recientes primero.
func (uc *StockUseCase) ListTransactions(ctx context.Context, itemID string, q dto.TxnListQuery) ([]dto.StockTxnResponse, error) {
	if err := uc.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	q.DefaultPage()
	f := repository.StockTxnFilter{TxnType: q.TxnType, Limit: q.Limit, Offset: q.Offset}
	var err error
	if f.From, err = dto.ParseDate(q.From); err != nil {
		return nil, err
	}
	if f.To, err = dto.ParseDate(q.To); err != nil {
		return nil, err
	}
	txns, err := uc.txnRepo.ListByItem(ctx, itemID, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockTxnResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, dto.TxnResponse(t))
	}
	return out, nil
}

// VerifyLedger compara el stock del ítem con Σ asientos y Σ saldo de lotes abiertos.
// Las tres lecturas van en una misma transacción para ver un único estado del libro.
func (uc *StockUseCase) VerifyLedger(ctx context.Context, itemID string) (*dto.LedgerCheckResponse, error) {
	var (
		item    *entity.InventoryItem
		ledger  decimal.Decimal
		batches []*entity.ItemBatch
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		var err error
		if item, err = repos.Items.GetByID(ctx, itemID); err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if ledger, err = repos.Txns.SumByItem(ctx, itemID); err != nil {
			return err
		}
		batches, err = repos.Batches.ListByItem(ctx, itemID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	batchSum := decimal.Zero
	for _, b := range batches {
		if !b.IsClosed {
			batchSum = batchSum.Add(b.QtyRemaining)
		}
	}
	ok := item.Stock.Equal(ledger) && item.Stock.Equal(batchSum)
	if !ok {
		uc.log.Warn().
			Str("item_id", itemID).
			Str("stock", item.Stock.String()).
			Str("ledger_sum", ledger.String()).
			Str("batch_sum", batchSum.String()).
			Msg("libro de stock inconsistente")
	}
	return &dto.LedgerCheckResponse{
		InventoryItemID: itemID,
		Stock:           item.Stock,
		LedgerSum:       ledger,
		BatchSum:        batchSum,
		Consistent:      ok,
	}, nil
}

func (uc *StockUseCase) ensureItem(ctx context.Context, id string) error {
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	return nil
}
