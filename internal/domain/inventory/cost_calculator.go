package inventory

import (
	"fmt"

	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Escalas con las que el libro guarda cantidades y costos unitarios.
const (
	QtyScale  = 4
	CostScale = 6
)

// FitsQtyScale indica si q se guarda sin perder decimales.
func FitsQtyScale(q decimal.Decimal) bool {
	return q.Equal(q.Round(QtyScale))
}

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum).Round(CostScale)
}

// UnitCost costo unitario de un lote: costo total de la línea / cantidad comprada.
// Se calcula una sola vez en la recepción y queda congelado en el lote, ya redondeado a CostScale
// para que el valor releído del almacén sea idéntico al calculado.
func UnitCost(totalCost, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("cantidad %s: %w", quantity, domain.ErrInvalidInput)
	}
	if totalCost.IsNegative() {
		return decimal.Zero, fmt.Errorf("costo total %s: %w", totalCost, domain.ErrInvalidInput)
	}
	if !FitsQtyScale(quantity) {
		return decimal.Zero, fmt.Errorf("cantidad %s con más de %d decimales: %w", quantity, QtyScale, domain.ErrInvalidInput)
	}
	return totalCost.Div(quantity).Round(CostScale), nil
}

// Nombres de política de costeo (configuración).
const (
	PolicyFrozenLot     = "frozen_lot"
	PolicyMovingAverage = "moving_average"
)

// CostingPolicy decide cómo evoluciona el costo del ítem y con qué costo salen los consumos.
// En ambas variantes el costo del lote queda fijado en la recepción.
type CostingPolicy interface {
	Name() string
	// OnMovement actualiza el costo del ítem ante una entrada (qty > 0) o reversión (qty < 0).
	OnMovement(item *entity.InventoryItem, qty, unitCost decimal.Decimal)
	// IssueCost costo unitario con el que se registra una salida del lote.
	IssueCost(item *entity.InventoryItem, batch *entity.ItemBatch) decimal.Decimal
}

// FrozenLot cada lote conserva su costo de recepción; las salidas usan ese costo.
type FrozenLot struct{}

func (FrozenLot) Name() string { return PolicyFrozenLot }

func (FrozenLot) OnMovement(*entity.InventoryItem, decimal.Decimal, decimal.Decimal) {}

func (FrozenLot) IssueCost(_ *entity.InventoryItem, batch *entity.ItemBatch) decimal.Decimal {
	return batch.UnitCost
}

// MovingAverage mantiene un costo promedio ponderado en el ítem; las salidas usan ese promedio.
type MovingAverage struct{}

func (MovingAverage) Name() string { return PolicyMovingAverage }

func (MovingAverage) OnMovement(item *entity.InventoryItem, qty, unitCost decimal.Decimal) {
	item.AverageCost = CostCalculator(item.Stock, item.AverageCost, qty, unitCost)
}

func (MovingAverage) IssueCost(item *entity.InventoryItem, _ *entity.ItemBatch) decimal.Decimal {
	return item.AverageCost
}

// PolicyByName resuelve la política configurada; vacío equivale a lote congelado.
func PolicyByName(name string) (CostingPolicy, error) {
	switch name {
	case "", PolicyFrozenLot:
		return FrozenLot{}, nil
	case PolicyMovingAverage:
		return MovingAverage{}, nil
	}
	return nil, fmt.Errorf("política de costeo desconocida %q", name)
}
