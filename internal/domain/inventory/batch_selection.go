package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BatchSelection cantidad a retirar de un lote concreto.
type BatchSelection struct {
	Batch    *entity.ItemBatch
	Quantity decimal.Decimal
}

// Eligible indica si el lote puede consumirse en la fecha dada:
// liberado por calidad, abierto, con saldo y sin caducar.
func Eligible(b *entity.ItemBatch, at time.Time) bool {
	if b.Depleted() || b.QCStatus != entity.QCReleased {
		return false
	}
	if b.ExpiryDate != nil && b.ExpiryDate.Before(at) {
		return false
	}
	return true
}

// SortFEFO ordena por caducidad más próxima primero; sin caducidad al final;
// a igualdad, el lote más antiguo primero.
func SortFEFO(batches []*entity.ItemBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate != nil:
			if !a.ExpiryDate.Equal(*b.ExpiryDate) {
				return a.ExpiryDate.Before(*b.ExpiryDate)
			}
		case a.ExpiryDate != nil:
			return true
		case b.ExpiryDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// SelectBatches reparte qty entre los lotes elegibles en orden FEFO.
// Si preferred no es vacío solo se considera ese lote.
// Faltante → ErrInsufficientStock y ninguna selección.
func SelectBatches(batches []*entity.ItemBatch, qty decimal.Decimal, at time.Time, preferred string) ([]BatchSelection, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("cantidad %s: %w", qty, domain.ErrInvalidInput)
	}
	candidates := make([]*entity.ItemBatch, 0, len(batches))
	for _, b := range batches {
		if preferred != "" && b.ID != preferred {
			continue
		}
		if Eligible(b, at) {
			candidates = append(candidates, b)
		}
	}
	SortFEFO(candidates)

	pending := qty
	var out []BatchSelection
	for _, b := range candidates {
		if !pending.IsPositive() {
			break
		}
		take := decimal.Min(pending, b.QtyRemaining)
		out = append(out, BatchSelection{Batch: b, Quantity: take})
		pending = pending.Sub(take)
	}
	if pending.IsPositive() {
		return nil, fmt.Errorf("faltan %s unidades: %w", pending, domain.ErrInsufficientStock)
	}
	return out, nil
}
