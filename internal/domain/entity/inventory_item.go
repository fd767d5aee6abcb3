package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem bien comprable o material con stock controlado por lotes.
// Stock es la suma de QtyRemaining de los lotes abiertos; solo lo escribe el motor de stock.
type InventoryItem struct {
	ID             string
	Name           string
	SKU            string
	CategoryID     string
	UOM            string // unidad de medida
	Stock          decimal.Decimal
	SafetyStock    decimal.Decimal // umbral de reposición
	AverageCost    decimal.Decimal // solo lo mantiene la política de costo promedio
	LatestPurchase *LatestPurchase
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LatestPurchase instantánea desnormalizada de la última recepción del ítem.
type LatestPurchase struct {
	PurchaseID  string          `json:"purchase_id"`
	BatchID     string          `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Date        time.Time       `json:"date"`
}

// Equal compara dos instantáneas campo a campo.
func (lp *LatestPurchase) Equal(o *LatestPurchase) bool {
	if lp == nil || o == nil {
		return lp == o
	}
	return lp.PurchaseID == o.PurchaseID && lp.BatchID == o.BatchID && lp.BatchNumber == o.BatchNumber &&
		lp.Quantity.Equal(o.Quantity) && lp.TotalCost.Equal(o.TotalCost) && lp.UnitCost.Equal(o.UnitCost) &&
		lp.Date.Equal(o.Date)
}

// Clone devuelve una copia independiente (incluida la instantánea de compra).
func (i *InventoryItem) Clone() *InventoryItem {
	c := *i
	if i.LatestPurchase != nil {
		lp := *i.LatestPurchase
		c.LatestPurchase = &lp
	}
	return &c
}
