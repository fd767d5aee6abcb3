package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción de stock.
const (
	TxnTypeReception   = "recepcion"
	TxnTypeConsumption = "consumo"
	TxnTypeProduction  = "produccion"
	TxnTypeSale        = "venta"
	TxnTypeAdjustment  = "ajuste"
)

// Colecciones de origen referenciadas desde el libro de stock.
const (
	RefPurchases      = "purchases"
	RefProductionRuns = "production_runs"
	RefDirectSales    = "direct_sales"
	RefAdjustments    = "adjustments"
)

// StockTxn asiento inmutable del libro de stock: un cambio de cantidad sobre un lote.
// Solo se inserta; nunca se actualiza ni se borra.
type StockTxn struct {
	ID              string
	InventoryItemID string
	BatchID         string
	Date            time.Time
	QtyDelta        decimal.Decimal // con signo
	NewStock        decimal.Decimal // stock total del ítem tras el asiento
	UnitCost        decimal.Decimal
	RefCollection   string
	RefID           string
	TxnType         string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
}
