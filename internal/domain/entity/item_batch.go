package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de control de calidad de un lote.
const (
	QCPending  = "Pending"
	QCReleased = "Released"
	QCRejected = "Rejected"
)

// ValidQCStatus indica si s es un estado de calidad conocido.
func ValidQCStatus(s string) bool {
	return s == QCPending || s == QCReleased || s == QCRejected
}

// ItemBatch lote de recepción: unidad de costo, caducidad y consumo.
// Invariante: 0 <= QtyRemaining <= QtyInitial. Nunca se borra; solo se agota o se cierra.
type ItemBatch struct {
	ID                string
	InventoryItemID   string
	SupplierBatchCode string
	InternalBatchCode string
	QtyInitial        decimal.Decimal
	QtyRemaining      decimal.Decimal
	UnitCost          decimal.Decimal // fijado en la recepción
	ExpiryDate        *time.Time
	QCStatus          string
	IsClosed          bool
	SourceCollection  string // purchases | production_runs | ...
	SourceID          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Consumed cantidad ya retirada del lote.
func (b *ItemBatch) Consumed() decimal.Decimal {
	return b.QtyInitial.Sub(b.QtyRemaining)
}

// Depleted un lote agotado o cerrado no es candidato a consumo.
func (b *ItemBatch) Depleted() bool {
	return b.IsClosed || !b.QtyRemaining.IsPositive()
}

// Clone devuelve una copia independiente del lote.
func (b *ItemBatch) Clone() *ItemBatch {
	c := *b
	if b.ExpiryDate != nil {
		d := *b.ExpiryDate
		c.ExpiryDate = &d
	}
	return &c
}
