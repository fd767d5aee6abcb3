package dto

import (
	"time"

	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateItemRequest body para POST /api/inventory/items.
type CreateItemRequest struct {
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	UOM         string          `json:"uom"`
	SafetyStock decimal.Decimal `json:"safety_stock"`
}

// InventoryItemResponse ítem con su agregado de stock.
type InventoryItemResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	SKU            string                 `json:"sku,omitempty"`
	CategoryID     string                 `json:"category_id,omitempty"`
	UOM            string                 `json:"uom"`
	Stock          decimal.Decimal        `json:"stock"`
	SafetyStock    decimal.Decimal        `json:"safety_stock"`
	AverageCost    decimal.Decimal        `json:"average_cost"`
	LatestPurchase *entity.LatestPurchase `json:"latest_purchase,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ItemBatchResponse lote de un ítem.
type ItemBatchResponse struct {
	ID                string          `json:"id"`
	InventoryItemID   string          `json:"inventory_item_id"`
	SupplierBatchCode string          `json:"supplier_batch_code,omitempty"`
	InternalBatchCode string          `json:"internal_batch_code"`
	QtyInitial        decimal.Decimal `json:"qty_initial"`
	QtyRemaining      decimal.Decimal `json:"qty_remaining"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	QCStatus          string          `json:"qc_status"`
	IsClosed          bool            `json:"is_closed"`
	SourceCollection  string          `json:"source_collection"`
	SourceID          string          `json:"source_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// StockTxnResponse asiento del libro de stock.
type StockTxnResponse struct {
	ID              string          `json:"id"`
	InventoryItemID string          `json:"inventory_item_id"`
	BatchID         string          `json:"batch_id"`
	Date            time.Time       `json:"date"`
	QtyDelta        decimal.Decimal `json:"qty_delta"`
	NewStock        decimal.Decimal `json:"new_stock"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	RefCollection   string          `json:"ref_collection"`
	RefID           string          `json:"ref_id"`
	TxnType         string          `json:"txn_type"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
}

// TxnListQuery query params de GET /api/inventory/items/:id/transactions.
type TxnListQuery struct {
	From    string `query:"from"`
	To      string `query:"to"`
	TxnType string `query:"txn_type"`
	PageRequest
}

// ConsumeRequest body para POST /api/inventory/consumptions (producción o venta directa).
type ConsumeRequest struct {
	InventoryItemID string          `json:"inventory_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	TxnType         string          `json:"txn_type"` // consumo | venta
	RefID           string          `json:"ref_id"`
	BatchID         string          `json:"batch_id,omitempty"`
	Date            *time.Time      `json:"date,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// ConsumedBatchDTO parte de un consumo tomada de un lote.
type ConsumedBatchDTO struct {
	BatchID           string          `json:"batch_id"`
	InternalBatchCode string          `json:"internal_batch_code"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// ConsumeResponse lotes tocados y costo total de la salida.
type ConsumeResponse struct {
	InventoryItemID string             `json:"inventory_item_id"`
	Batches         []ConsumedBatchDTO `json:"batches"`
	TotalCost       decimal.Decimal    `json:"total_cost"`
	NewStock        decimal.Decimal    `json:"new_stock"`
}

// ProductionOutputRequest body para POST /api/inventory/production-outputs.
type ProductionOutputRequest struct {
	InventoryItemID string          `json:"inventory_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	RefID           string          `json:"ref_id"` // orden de producción
	BatchCode       string          `json:"batch_code,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	Date            *time.Time      `json:"date,omitempty"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
type AdjustmentRequest struct {
	BatchID  string          `json:"batch_id"`
	QtyDelta decimal.Decimal `json:"qty_delta"`
	Notes    string          `json:"notes"`
}

// QCStatusRequest body para PATCH /api/inventory/batches/:id/qc.
type QCStatusRequest struct {
	Status string `json:"status"`
}

// LowStockDTO sugerencia de reposición para un ítem bajo su stock de seguridad.
type LowStockDTO struct {
	InventoryItemID    string          `json:"inventory_item_id"`
	SKU                string          `json:"sku,omitempty"`
	Name               string          `json:"name"`
	UOM                string          `json:"uom"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	SafetyStock        decimal.Decimal `json:"safety_stock"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // SafetyStock * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo de la última compra
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// LedgerCheckResponse verificación de la invariante stock = Σ asientos = Σ lotes abiertos.
type LedgerCheckResponse struct {
	InventoryItemID string          `json:"inventory_item_id"`
	Stock           decimal.Decimal `json:"stock"`
	LedgerSum       decimal.Decimal `json:"ledger_sum"`
	BatchSum        decimal.Decimal `json:"batch_sum"`
	Consistent      bool            `json:"consistent"`
}

// ItemResponse convierte la entidad a respuesta.
func ItemResponse(it *entity.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:             it.ID,
		Name:           it.Name,
		SKU:            it.SKU,
		CategoryID:     it.CategoryID,
		UOM:            it.UOM,
		Stock:          it.Stock,
		SafetyStock:    it.SafetyStock,
		AverageCost:    it.AverageCost,
		LatestPurchase: it.LatestPurchase,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
}

// BatchResponse convierte la entidad a respuesta.
func BatchResponse(b *entity.ItemBatch) ItemBatchResponse {
	return ItemBatchResponse{
		ID:                b.ID,
		InventoryItemID:   b.InventoryItemID,
		SupplierBatchCode: b.SupplierBatchCode,
		InternalBatchCode: b.InternalBatchCode,
		QtyInitial:        b.QtyInitial,
		QtyRemaining:      b.QtyRemaining,
		UnitCost:          b.UnitCost,
		ExpiryDate:        b.ExpiryDate,
		QCStatus:          b.QCStatus,
		IsClosed:          b.IsClosed,
		SourceCollection:  b.SourceCollection,
		SourceID:          b.SourceID,
		CreatedAt:         b.CreatedAt,
	}
}

// TxnResponse convierte el asiento a respuesta.
func TxnResponse(t *entity.StockTxn) StockTxnResponse {
	return StockTxnResponse{
		ID:              t.ID,
		InventoryItemID: t.InventoryItemID,
		BatchID:         t.BatchID,
		Date:            t.Date,
		QtyDelta:        t.QtyDelta,
		NewStock:        t.NewStock,
		UnitCost:        t.UnitCost,
		RefCollection:   t.RefCollection,
		RefID:           t.RefID,
		TxnType:         t.TxnType,
		Notes:           t.Notes,
		CreatedBy:       t.CreatedBy,
	}
}
