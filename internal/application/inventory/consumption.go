package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/bodega-erp/internal/application/dto"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Consume descuenta stock de producción (consumo) o venta directa (venta) repartiendo la cantidad
// entre lotes liberados en orden FEFO. Si no alcanza, no se escribe nada (ErrInsufficientStock).
func (uc *StockUseCase) Consume(ctx context.Context, userID string, in dto.ConsumeRequest) (*dto.ConsumeResponse, error) {
	var refCollection string
	switch in.TxnType {
	case entity.TxnTypeConsumption:
		refCollection = entity.RefProductionRuns
	case entity.TxnTypeSale:
		refCollection = entity.RefDirectSales
	default:
		return nil, fmt.Errorf("tipo %q: %w", in.TxnType, domain.ErrInvalidInput)
	}
	if in.InventoryItemID == "" || in.RefID == "" || !in.Quantity.IsPositive() || !inventory.FitsQtyScale(in.Quantity) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	at := now
	if in.Date != nil {
		at = *in.Date
	}

	var resp *dto.ConsumeResponse
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		items, err := repos.Items.GetByIDsForUpdate(ctx, []string{in.InventoryItemID})
		if err != nil {
			return err
		}
		item := items[in.InventoryItemID]
		if item == nil {
			return domain.ErrNotFound
		}
		batches, err := repos.Batches.ListByItemForUpdate(ctx, item.ID)
		if err != nil {
			return err
		}
		selections, err := inventory.SelectBatches(batches, in.Quantity, at, in.BatchID)
		if err != nil {
			return err
		}

		resp = &dto.ConsumeResponse{InventoryItemID: item.ID, TotalCost: decimal.Zero}
		txns := make([]*entity.StockTxn, 0, len(selections))
		for _, s := range selections {
			cost := uc.policy.IssueCost(item, s.Batch)
			s.Batch.QtyRemaining = s.Batch.QtyRemaining.Sub(s.Quantity)
			s.Batch.UpdatedAt = now
			if err := repos.Batches.Update(ctx, s.Batch); err != nil {
				return err
			}
			item.Stock = item.Stock.Sub(s.Quantity)
			txns = append(txns, &entity.StockTxn{
				ID:              uuid.New().String(),
				InventoryItemID: item.ID,
				BatchID:         s.Batch.ID,
				Date:            at,
				QtyDelta:        s.Quantity.Neg(),
				NewStock:        item.Stock,
				UnitCost:        cost,
				RefCollection:   refCollection,
				RefID:           in.RefID,
				TxnType:         in.TxnType,
				Notes:           in.Notes,
				CreatedBy:       userID,
				CreatedAt:       now,
			})
			resp.Batches = append(resp.Batches, dto.ConsumedBatchDTO{
				BatchID:           s.Batch.ID,
				InternalBatchCode: s.Batch.InternalBatchCode,
				Quantity:          s.Quantity,
				UnitCost:          cost,
			})
			resp.TotalCost = resp.TotalCost.Add(s.Quantity.Mul(cost))
		}
		if err := repos.Txns.Append(ctx, txns...); err != nil {
			return err
		}
		item.UpdatedAt = now
		resp.NewStock = item.Stock
		return repos.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("item_id", in.InventoryItemID).
		Str("txn_type", in.TxnType).
		Str("ref_id", in.RefID).
		Str("qty", in.Quantity.String()).
		Int("batches", len(resp.Batches)).
		Msg("consumo registrado")
	return resp, nil
}

// ReceiveProductionOutput registra producto terminado como lote nuevo (QC pendiente).
func (uc *StockUseCase) ReceiveProductionOutput(ctx context.Context, userID string, in dto.ProductionOutputRequest) (*dto.ItemBatchResponse, error) {
	if in.InventoryItemID == "" || in.RefID == "" || !in.Quantity.IsPositive() || in.UnitCost.IsNegative() ||
		!inventory.FitsQtyScale(in.Quantity) {
		return nil, domain.ErrInvalidInput
	}
	in.UnitCost = in.UnitCost.Round(inventory.CostScale)
	now := time.Now().UTC()
	date := now
	if in.Date != nil {
		date = *in.Date
	}

	var batch *entity.ItemBatch
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		items, err := repos.Items.GetByIDsForUpdate(ctx, []string{in.InventoryItemID})
		if err != nil {
			return err
		}
		item := items[in.InventoryItemID]
		if item == nil {
			return domain.ErrNotFound
		}
		id := uuid.New().String()
		code := strings.TrimSpace(in.BatchCode)
		if code == "" {
			code = inventory.InternalBatchCode(date, id)
		}
		batch = &entity.ItemBatch{
			ID:                id,
			InventoryItemID:   item.ID,
			InternalBatchCode: code,
			QtyInitial:        in.Quantity,
			QtyRemaining:      in.Quantity,
			UnitCost:          in.UnitCost,
			ExpiryDate:        in.ExpiryDate,
			QCStatus:          entity.QCPending,
			SourceCollection:  entity.RefProductionRuns,
			SourceID:          in.RefID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := repos.Batches.Create(ctx, batch); err != nil {
			return err
		}
		uc.policy.OnMovement(item, in.Quantity, in.UnitCost)
		item.Stock = item.Stock.Add(in.Quantity)
		item.UpdatedAt = now
		if err := repos.Txns.Append(ctx, &entity.StockTxn{
			ID:              uuid.New().String(),
			InventoryItemID: item.ID,
			BatchID:         batch.ID,
			Date:            date,
			QtyDelta:        in.Quantity,
			NewStock:        item.Stock,
			UnitCost:        in.UnitCost,
			RefCollection:   entity.RefProductionRuns,
			RefID:           in.RefID,
			TxnType:         entity.TxnTypeProduction,
			CreatedBy:       userID,
			CreatedAt:       now,
		}); err != nil {
			return err
		}
		return repos.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("item_id", in.InventoryItemID).Str("batch_id", batch.ID).Str("ref_id", in.RefID).Msg("salida de producción registrada")
	out := dto.BatchResponse(batch)
	return &out, nil
}

// Adjust ajuste manual de un lote. Debe mantener 0 <= QtyRemaining <= QtyInitial.
func (uc *StockUseCase) Adjust(ctx context.Context, userID string, in dto.AdjustmentRequest) (*dto.StockTxnResponse, error) {
	if in.BatchID == "" || in.QtyDelta.IsZero() || !inventory.FitsQtyScale(in.QtyDelta) || strings.TrimSpace(in.Notes) == "" {
		return nil, domain.ErrInvalidInput
	}
	// Lectura previa para conocer el ítem y bloquear en el mismo orden que el resto (ítem, luego lote).
	current, err := uc.batchRepo.GetByID(ctx, in.BatchID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now().UTC()

	var txn *entity.StockTxn
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		items, err := repos.Items.GetByIDsForUpdate(ctx, []string{current.InventoryItemID})
		if err != nil {
			return err
		}
		item := items[current.InventoryItemID]
		batches, err := repos.Batches.GetByIDsForUpdate(ctx, []string{in.BatchID})
		if err != nil {
			return err
		}
		batch := batches[in.BatchID]
		if item == nil || batch == nil {
			return domain.ErrNotFound
		}
		if batch.IsClosed {
			return fmt.Errorf("lote %s cerrado: %w", batch.InternalBatchCode, domain.ErrConflict)
		}
		remaining := batch.QtyRemaining.Add(in.QtyDelta)
		if remaining.IsNegative() {
			return fmt.Errorf("lote %s: %w", batch.InternalBatchCode, domain.ErrInsufficientStock)
		}
		if remaining.GreaterThan(batch.QtyInitial) {
			return fmt.Errorf("lote %s supera la cantidad recibida: %w", batch.InternalBatchCode, domain.ErrInvalidInput)
		}

		cost := uc.policy.IssueCost(item, batch)
		if in.QtyDelta.IsPositive() {
			cost = batch.UnitCost
			uc.policy.OnMovement(item, in.QtyDelta, batch.UnitCost)
		}
		batch.QtyRemaining = remaining
		batch.UpdatedAt = now
		if err := repos.Batches.Update(ctx, batch); err != nil {
			return err
		}
		item.Stock = item.Stock.Add(in.QtyDelta)
		item.UpdatedAt = now
		txn = &entity.StockTxn{
			ID:              uuid.New().String(),
			InventoryItemID: item.ID,
			BatchID:         batch.ID,
			Date:            now,
			QtyDelta:        in.QtyDelta,
			NewStock:        item.Stock,
			UnitCost:        cost,
			RefCollection:   entity.RefAdjustments,
			RefID:           uuid.New().String(),
			TxnType:         entity.TxnTypeAdjustment,
			Notes:           in.Notes,
			CreatedBy:       userID,
			CreatedAt:       now,
		}
		if err := repos.Txns.Append(ctx, txn); err != nil {
			return err
		}
		return repos.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("batch_id", in.BatchID).Str("qty_delta", in.QtyDelta.String()).Msg("ajuste registrado")
	out := dto.TxnResponse(txn)
	return &out, nil
}

// SetQCStatus cambia el estado de calidad de un lote (Pending/Released/Rejected).
// No mueve cantidades; solo decide si el lote es elegible para consumo.
func (uc *StockUseCase) SetQCStatus(ctx context.Context, batchID string, in dto.QCStatusRequest) (*dto.ItemBatchResponse, error) {
	if batchID == "" || !entity.ValidQCStatus(in.Status) {
		return nil, domain.ErrInvalidInput
	}
	var batch *entity.ItemBatch
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		batches, err := repos.Batches.GetByIDsForUpdate(ctx, []string{batchID})
		if err != nil {
			return err
		}
		batch = batches[batchID]
		if batch == nil {
			return domain.ErrNotFound
		}
		if batch.QCStatus == in.Status {
			return nil
		}
		batch.QCStatus = in.Status
		batch.UpdatedAt = time.Now().UTC()
		return repos.Batches.Update(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("batch_id", batchID).Str("qc_status", in.Status).Msg("estado de calidad actualizado")
	out := dto.BatchResponse(batch)
	return &out, nil
}
