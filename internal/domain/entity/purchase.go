package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewItemSentinel valor de InventoryItemID que pide crear el ítem al guardar la compra.
const NewItemSentinel = "__new__"

// Purchase documento de compra. Cada línea recibida genera (o mantiene) un lote.
type Purchase struct {
	ID            string
	SupplierID    string
	SupplierName  string
	OrderDate     time.Time
	InvoiceNumber string
	InvoiceDate   *time.Time
	Invoice       *InvoiceFile
	Lines         []PurchaseLine
	Notes         string
	TotalCost     decimal.Decimal
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PurchaseLine línea de compra. BatchID identifica la línea una vez recibida.
type PurchaseLine struct {
	BatchID           string          `json:"batch_id,omitempty"`
	InventoryItemID   string          `json:"inventory_item_id"`
	ItemName          string          `json:"item_name,omitempty"`
	CategoryID        string          `json:"category_id,omitempty"`
	UOM               string          `json:"uom,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	SupplierBatchCode string          `json:"supplier_batch_code,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	QCStatus          string          `json:"qc_status,omitempty"`
}

// IsNewItem indica si la línea referencia un ítem que aún no existe.
func (l PurchaseLine) IsNewItem() bool {
	return l.InventoryItemID == NewItemSentinel
}

// InvoiceFile adjunto de factura almacenado fuera de la base de datos.
type InvoiceFile struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name,omitempty"`
}

// ComputeTotal suma el costo total de las líneas.
func (p *Purchase) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.TotalCost)
	}
	return total
}

// HasItem indica si alguna línea es del ítem.
func (p *Purchase) HasItem(itemID string) bool {
	for _, l := range p.Lines {
		if l.InventoryItemID == itemID {
			return true
		}
	}
	return false
}

// Clone copia el documento incluyendo líneas y adjunto.
func (p *Purchase) Clone() *Purchase {
	c := *p
	c.Lines = make([]PurchaseLine, len(p.Lines))
	copy(c.Lines, p.Lines)
	if p.Invoice != nil {
		inv := *p.Invoice
		c.Invoice = &inv
	}
	if p.InvoiceDate != nil {
		d := *p.InvoiceDate
		c.InvoiceDate = &d
	}
	return &c
}
